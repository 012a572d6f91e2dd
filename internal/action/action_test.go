package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaraujo/picklist/internal/order"
)

func Test_Decode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want Action
	}{
		{
			name: "navigate prev",
			id:   Navigate("ORD-1", 2, false),
			want: Action{Kind: KindNavigate, Sub: SubPrev, OrderID: "ORD-1", Page: 2},
		},
		{
			name: "navigate next",
			id:   Navigate("ORD-1", 0, true),
			want: Action{Kind: KindNavigate, Sub: SubNext, OrderID: "ORD-1", Page: 0},
		},
		{
			name: "mark item have",
			id:   MarkItem("ORD-1", 1, "sku-9", false),
			want: Action{Kind: KindItem, Sub: SubHave, OrderID: "ORD-1", Page: 1, ItemKey: "sku-9"},
		},
		{
			name: "mark item missing",
			id:   MarkItem("ORD-1", 0, "sku-9", true),
			want: Action{Kind: KindItem, Sub: SubMiss, OrderID: "ORD-1", Page: 0, ItemKey: "sku-9"},
		},
		{
			name: "bulk page",
			id:   MarkPage("ORD-1", 3, true),
			want: Action{Kind: KindBulk, Sub: SubMiss, OrderID: "ORD-1", Page: 3},
		},
		{
			name: "note prompt",
			id:   NotePrompt("ORD-1", 1, "sku-9"),
			want: Action{Kind: KindNote, Sub: SubMiss, OrderID: "ORD-1", Page: 1, ItemKey: "sku-9"},
		},
		{
			name: "item key containing the delimiter survives",
			id:   MarkItem("ORD-1", 0, "warehouse:rack:7", false),
			want: Action{Kind: KindItem, Sub: SubHave, OrderID: "ORD-1", Page: 0, ItemKey: "warehouse:rack:7"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Decode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{name: "empty", id: ""},
		{name: "too few fields", id: "nav:prev:ORD-1"},
		{name: "unknown kind", id: "zap:prev:ORD-1:0"},
		{name: "bad direction", id: "nav:have:ORD-1:0"},
		{name: "bad bulk mark", id: "bulk:next:ORD-1:0"},
		{name: "non-numeric page", id: "nav:prev:ORD-1:two"},
		{name: "negative page", id: "nav:prev:ORD-1:-1"},
		{name: "item without key", id: "item:have:ORD-1:0"},
		{name: "item with empty key", id: "item:have:ORD-1:0:"},
		{name: "empty order id", id: "nav:prev::0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.id)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func Test_Action_Status(t *testing.T) {
	assert.Equal(t, order.StatusHave, Action{Sub: SubHave}.Status())
	assert.Equal(t, order.StatusMissing, Action{Sub: SubMiss}.Status())
}
