package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Pages(t *testing.T) {
	tests := []struct {
		name      string
		itemCount int
		pageSize  int
		want      int
	}{
		{name: "empty order still has one page", itemCount: 0, pageSize: 4, want: 1},
		{name: "exact fit", itemCount: 4, pageSize: 4, want: 1},
		{name: "one over", itemCount: 5, pageSize: 4, want: 2},
		{name: "many pages", itemCount: 12, pageSize: 4, want: 3},
		{name: "single item", itemCount: 1, pageSize: 4, want: 1},
		{name: "page size one", itemCount: 3, pageSize: 1, want: 3},
		{name: "zero page size falls back to default", itemCount: 9, pageSize: 0, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pages(tt.itemCount, tt.pageSize))
		})
	}
}

func Test_Pages_Property(t *testing.T) {
	// totalPages = max(1, ceil(n/pageSize)) for all n >= 0.
	for n := 0; n <= 40; n++ {
		want := (n + 3) / 4
		if want < 1 {
			want = 1
		}
		assert.Equal(t, want, Pages(n, 4), "n=%d", n)
	}
}

func Test_ClampPage(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		itemCount int
		want      int
	}{
		{name: "negative clamps to zero", page: -3, itemCount: 5, want: 0},
		{name: "in range stays", page: 1, itemCount: 5, want: 1},
		{name: "past the end clamps to last", page: 7, itemCount: 5, want: 1},
		{name: "empty order clamps to zero", page: 2, itemCount: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampPage(tt.page, tt.itemCount, 4))
		})
	}
}

func Test_PageBounds(t *testing.T) {
	// 5 items, pageSize 4: page 0 shows items 1-4, page 1 shows item 5.
	start, end := PageBounds(0, 5, 4)
	assert.Equal(t, 0, start)
	assert.Equal(t, 4, end)

	start, end = PageBounds(1, 5, 4)
	assert.Equal(t, 4, start)
	assert.Equal(t, 5, end)

	// Out-of-range pages are clamped before slicing.
	start, end = PageBounds(9, 5, 4)
	assert.Equal(t, 4, start)
	assert.Equal(t, 5, end)

	start, end = PageBounds(0, 0, 4)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}
