package order

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(statuses ...ItemStatus) []Item {
	out := make([]Item, len(statuses))
	for i, s := range statuses {
		out[i] = Item{Key: "k", Status: s}
	}
	return out
}

func Test_BinaryPolicy(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  Status
	}{
		{name: "empty is complete", items: nil, want: StatusComplete},
		{name: "all unset", items: items(StatusUnset, StatusUnset), want: StatusPending},
		{name: "partially marked", items: items(StatusHave, StatusUnset), want: StatusPending},
		{name: "all have", items: items(StatusHave, StatusHave), want: StatusComplete},
		{name: "marked with missing still complete", items: items(StatusHave, StatusMissing), want: StatusComplete},
		{name: "all missing", items: items(StatusMissing, StatusMissing), want: StatusComplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BinaryPolicy(tt.items))
		})
	}
}

func Test_TernaryPolicy(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  Status
	}{
		{name: "empty is complete", items: nil, want: StatusComplete},
		{name: "all unset", items: items(StatusUnset, StatusUnset), want: StatusPending},
		{name: "partially marked", items: items(StatusHave, StatusUnset), want: StatusPending},
		{name: "unchecked beats missing", items: items(StatusMissing, StatusUnset), want: StatusPending},
		{name: "all have", items: items(StatusHave, StatusHave), want: StatusComplete},
		{name: "marked with missing", items: items(StatusHave, StatusMissing), want: StatusIncomplete},
		{name: "all missing", items: items(StatusMissing, StatusMissing), want: StatusIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TernaryPolicy(tt.items))
		})
	}
}

func Test_Policies_OrderInvariant(t *testing.T) {
	// Derivation depends only on the multiset of statuses: shuffling
	// the evaluation order never changes the result.
	base := items(StatusHave, StatusMissing, StatusUnset, StatusHave, StatusMissing)
	rng := rand.New(rand.NewSource(1))
	wantBinary := BinaryPolicy(base)
	wantTernary := TernaryPolicy(base)
	for i := 0; i < 20; i++ {
		shuffled := make([]Item, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, wantBinary, BinaryPolicy(shuffled))
		assert.Equal(t, wantTernary, TernaryPolicy(shuffled))
	}
}

func Test_PolicyByName(t *testing.T) {
	p, err := PolicyByName("binary")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, p(items(StatusMissing)))

	p, err = PolicyByName("ternary")
	require.NoError(t, err)
	assert.Equal(t, StatusIncomplete, p(items(StatusMissing)))

	// Default is ternary.
	p, err = PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, StatusIncomplete, p(items(StatusMissing)))

	_, err = PolicyByName("quaternary")
	assert.Error(t, err)
}
