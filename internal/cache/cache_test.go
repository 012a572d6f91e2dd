package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaraujo/picklist/internal/order"
)

type fakeFetcher struct {
	orders []order.Order
	err    error
	calls  int
}

func (f *fakeFetcher) FetchPending(_ context.Context) ([]order.Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, fetcher PendingFetcher) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.json")
	// Long delay so tests control flushing explicitly.
	return NewStore(fetcher, path, time.Hour, discardLogger())
}

func pendingOrder(id string) order.Order {
	return order.Order{
		ID:       id,
		Customer: "João",
		Items: []order.Item{
			{Key: "sku-1", Name: "Lavender soap", Quantity: 2},
			{Key: "sku-2", Name: "Mint oil", Quantity: 1},
		},
	}
}

func Test_Store_PutGet(t *testing.T) {
	s := newTestStore(t, &fakeFetcher{})
	s.Put(pendingOrder("ORD-1"))

	got, ok := s.Get("ORD-1")
	require.True(t, ok)
	assert.Equal(t, "João", got.Customer)

	// The returned value is a copy; editing it must not leak back.
	got.Items[0].Status = order.StatusMissing
	again, _ := s.Get("ORD-1")
	assert.Equal(t, order.StatusUnset, again.Items[0].Status)

	_, ok = s.Get("ORD-404")
	assert.False(t, ok)
}

func Test_Store_GetOrFetch_Hit(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestStore(t, f)
	s.Put(pendingOrder("ORD-1"))

	_, err := s.GetOrFetch(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Zero(t, f.calls, "a cache hit must not reach the ledger")
}

func Test_Store_GetOrFetch_Miss(t *testing.T) {
	f := &fakeFetcher{orders: []order.Order{pendingOrder("ORD-1"), pendingOrder("ORD-2")}}
	s := newTestStore(t, f)

	got, err := s.GetOrFetch(context.Background(), "ORD-2")
	require.NoError(t, err)
	assert.Equal(t, "ORD-2", got.ID)
	assert.Equal(t, 1, f.calls)
	// The whole pending list is cached, not just the requested order.
	assert.Equal(t, 2, s.Len())
}

func Test_Store_GetOrFetch_KeepsLocalEdits(t *testing.T) {
	f := &fakeFetcher{orders: []order.Order{pendingOrder("ORD-1"), pendingOrder("ORD-2")}}
	s := newTestStore(t, f)
	s.Put(pendingOrder("ORD-1"))
	_, err := s.MutateItem("ORD-1", "sku-1", order.StatusHave, "")
	require.NoError(t, err)

	// Fetching for a different order must not overwrite ORD-1's
	// in-flight edit with the ledger's stale copy.
	_, err = s.GetOrFetch(context.Background(), "ORD-2")
	require.NoError(t, err)

	got, ok := s.Get("ORD-1")
	require.True(t, ok)
	assert.Equal(t, order.StatusHave, got.Items[0].Status)
}

func Test_Store_GetOrFetch_NotFound(t *testing.T) {
	f := &fakeFetcher{orders: []order.Order{pendingOrder("ORD-1")}}
	s := newTestStore(t, f)

	_, err := s.GetOrFetch(context.Background(), "ORD-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Store_GetOrFetch_FetchError(t *testing.T) {
	wantErr := errors.New("ledger down")
	s := newTestStore(t, &fakeFetcher{err: wantErr})

	_, err := s.GetOrFetch(context.Background(), "ORD-1")
	assert.ErrorIs(t, err, wantErr)
	assert.Zero(t, s.Len())
}

func Test_Store_MutateItem(t *testing.T) {
	s := newTestStore(t, &fakeFetcher{})
	s.Put(pendingOrder("ORD-1"))

	got, err := s.MutateItem("ORD-1", "sku-2", order.StatusMissing, "crushed box")
	require.NoError(t, err)
	assert.Equal(t, order.StatusMissing, got.Items[1].Status)
	assert.Equal(t, "crushed box", got.Items[1].Note)

	_, err = s.MutateItem("ORD-404", "sku-2", order.StatusHave, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.MutateItem("ORD-1", "sku-404", order.StatusHave, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Store_SetPage(t *testing.T) {
	s := newTestStore(t, &fakeFetcher{})
	o := pendingOrder("ORD-1")
	o.Items = append(o.Items, order.Item{Key: "sku-3", Name: "Rose water", Quantity: 1})
	s.Put(o)

	got, err := s.SetPage("ORD-1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page)

	// Out of range pages are clamped, not rejected.
	got, err = s.SetPage("ORD-1", 9, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page)

	_, err = s.SetPage("ORD-404", 0, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Store_Remove(t *testing.T) {
	s := newTestStore(t, &fakeFetcher{})
	s.Put(pendingOrder("ORD-1"))
	s.Remove("ORD-1")
	_, ok := s.Get("ORD-1")
	assert.False(t, ok)

	// Removing an absent order is a no-op.
	s.Remove("ORD-404")
}

func Test_Store_SnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	s := NewStore(&fakeFetcher{}, path, time.Hour, discardLogger())
	o := pendingOrder("ORD-1")
	s.Put(o)
	s.SetMessageID("ORD-1", "msg-42")
	_, err := s.MutateItem("ORD-1", "sku-1", order.StatusMissing, "no lavender")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	restored := NewStore(&fakeFetcher{}, path, time.Hour, discardLogger())
	require.NoError(t, restored.Load())

	got, ok := restored.Get("ORD-1")
	require.True(t, ok)
	assert.Equal(t, "msg-42", got.MessageID)
	assert.Equal(t, order.StatusMissing, got.Items[0].Status)
	assert.Equal(t, "no lavender", got.Items[0].Note)
}

func Test_Store_Load_MissingFile(t *testing.T) {
	s := NewStore(&fakeFetcher{}, filepath.Join(t.TempDir(), "absent.json"), time.Hour, discardLogger())
	require.NoError(t, s.Load())
	assert.Zero(t, s.Len())
}

func Test_Store_Load_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(&fakeFetcher{}, path, time.Hour, discardLogger())
	require.NoError(t, s.Load())
	assert.Zero(t, s.Len())
}

func Test_Store_Flush_CleanIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	s := NewStore(&fakeFetcher{}, path, time.Hour, discardLogger())

	require.NoError(t, s.Flush())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "clean cache must not touch disk")
}

func Test_Store_Flush_FailureStaysDirty(t *testing.T) {
	// The snapshot's parent "directory" is a regular file, so every
	// write attempt fails.
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	s := NewStore(&fakeFetcher{}, filepath.Join(blocked, "orders.json"), time.Hour, discardLogger())
	s.Put(pendingOrder("ORD-1"))

	require.Error(t, s.Flush())
	// Still dirty: the next flush retries instead of reporting clean.
	require.Error(t, s.Flush())
}

func Test_Store_DebouncedFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	s := NewStore(&fakeFetcher{}, path, 20*time.Millisecond, discardLogger())

	// A burst of writes inside the window coalesces into one save.
	for i := 0; i < 5; i++ {
		s.Put(pendingOrder("ORD-1"))
	}
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "flush must not happen before the delay")

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
