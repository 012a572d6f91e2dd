// Package cache holds the process-local mirror of in-flight order
// state. The ledger stays the source of truth for membership; the
// cache is the source of truth for status edits between the last
// ledger read and the next ledger write. Entries live for the process
// lifetime and are evicted only by the cleanup job.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmaraujo/picklist/internal/order"
)

// ErrNotFound is returned when an order is neither cached nor present
// in the ledger's pending list. Typical after a restart whose snapshot
// predates the order; the user is told to re-sync.
var ErrNotFound = errors.New("order not in cache")

// DefaultFlushDelay is the trailing debounce applied to snapshot
// writes, coalescing bursts of rapid clicks into one disk write.
const DefaultFlushDelay = 400 * time.Millisecond

// PendingFetcher is the slice of the ledger client the cache needs for
// read-through population on a miss.
type PendingFetcher interface {
	FetchPending(ctx context.Context) ([]order.Order, error)
}

// Store is the in-process order cache. All access goes through its
// methods; callers receive copies, never aliases into the map.
type Store struct {
	fetcher    PendingFetcher
	logger     *slog.Logger
	path       string
	flushDelay time.Duration

	mu     sync.Mutex
	orders map[string]*order.Order
	dirty  bool
	timer  *time.Timer
}

// NewStore creates a cache persisting to the snapshot file at path. A
// non-positive flushDelay falls back to DefaultFlushDelay.
func NewStore(fetcher PendingFetcher, path string, flushDelay time.Duration, logger *slog.Logger) *Store {
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Store{
		fetcher:    fetcher,
		logger:     logger,
		path:       path,
		flushDelay: flushDelay,
		orders:     make(map[string]*order.Order),
	}
}

// Get returns a copy of the cached order, if present.
func (s *Store) Get(orderID string) (order.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return order.Order{}, false
	}
	return clone(o), true
}

// GetOrFetch returns the cached order or, on a miss, repopulates from
// the ledger's pending list and searches for a match. This is the only
// point where a cache miss causes a remote call.
func (s *Store) GetOrFetch(ctx context.Context, orderID string) (order.Order, error) {
	if o, ok := s.Get(orderID); ok {
		return o, nil
	}
	pending, err := s.fetcher.FetchPending(ctx)
	if err != nil {
		return order.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range pending {
		// Entries already cached keep their local in-flight edits.
		if _, ok := s.orders[pending[i].ID]; !ok {
			o := clone(&pending[i])
			s.orders[pending[i].ID] = &o
			s.markDirtyLocked()
		}
	}
	if o, ok := s.orders[orderID]; ok {
		return clone(o), nil
	}
	return order.Order{}, ErrNotFound
}

// Put inserts or replaces an order and schedules a snapshot save.
func (s *Store) Put(o order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := clone(&o)
	s.orders[o.ID] = &stored
	s.markDirtyLocked()
}

// MutateItem updates one item's status in place and returns a copy of
// the updated order.
func (s *Store) MutateItem(orderID, itemKey string, status order.ItemStatus, note string) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return order.Order{}, ErrNotFound
	}
	if !o.SetItemStatus(itemKey, status, note) {
		return order.Order{}, ErrNotFound
	}
	s.markDirtyLocked()
	return clone(o), nil
}

// SetPage stores the order's page cursor, clamped to the valid range
// for the given page size, and returns a copy of the updated order.
func (s *Store) SetPage(orderID string, page, pageSize int) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return order.Order{}, ErrNotFound
	}
	o.Page = order.ClampPage(page, len(o.Items), pageSize)
	s.markDirtyLocked()
	return clone(o), nil
}

// SetMessageID records the chat message hosting the order's view.
func (s *Store) SetMessageID(orderID, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[orderID]; ok {
		o.MessageID = messageID
		s.markDirtyLocked()
	}
}

// Remove evicts an order. Called by the cleanup job once the order's
// ledger rows are confirmed and deleted.
func (s *Store) Remove(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; ok {
		delete(s.orders, orderID)
		s.markDirtyLocked()
	}
}

// Len reports the number of cached orders.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// markDirtyLocked flags the cache dirty and arms the single trailing
// debounce timer. At most one pending save exists at a time; further
// mutations inside the window only extend it.
func (s *Store) markDirtyLocked() {
	s.dirty = true
	if s.timer != nil {
		s.timer.Reset(s.flushDelay)
		return
	}
	s.timer = time.AfterFunc(s.flushDelay, func() {
		if err := s.Flush(); err != nil {
			s.logger.Error("snapshot flush failed", "path", s.path, "error", err)
		}
	})
}

func clone(o *order.Order) order.Order {
	cp := *o
	cp.Items = make([]order.Item, len(o.Items))
	copy(cp.Items, o.Items)
	return cp
}
