package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmaraujo/picklist/internal/order"
)

// snapshot is the durable form of the cache: one JSON document holding
// the full mapping, read fully at startup and overwritten fully on
// each debounced save.
type snapshot struct {
	Orders map[string]order.Order `json:"orders"`
}

// Load hydrates the cache from the snapshot file. A missing or corrupt
// snapshot is an empty cache, never a fatal error. Must run before the
// scheduler or interaction handling begins.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no cache snapshot, starting empty", "path", s.path)
			return nil
		}
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("corrupt cache snapshot ignored", "path", s.path, "error", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = make(map[string]*order.Order, len(snap.Orders))
	for id, o := range snap.Orders {
		stored := clone(&o)
		s.orders[id] = &stored
	}
	s.logger.Info("cache snapshot loaded", "path", s.path, "orders", len(s.orders))
	return nil
}

// Flush writes the snapshot now if the cache is dirty. The write goes
// to a temp file first and is renamed into place so a crash mid-write
// never corrupts the previous snapshot. A failed write leaves the
// cache dirty so the next flush retries.
func (s *Store) Flush() error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	snap := snapshot{Orders: make(map[string]order.Order, len(s.orders))}
	for id, o := range s.orders {
		snap.Orders[id] = clone(o)
	}
	s.dirty = false
	s.mu.Unlock()

	// Mutations during the write set dirty themselves; re-marking on
	// failure is at worst a harmless extra save.
	fail := func(err error) error {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fail(fmt.Errorf("encode snapshot: %w", err))
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(fmt.Errorf("create snapshot dir: %w", err))
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json.tmp")
	if err != nil {
		return fail(fmt.Errorf("create temp snapshot: %w", err))
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fail(fmt.Errorf("write snapshot: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fail(fmt.Errorf("close snapshot: %w", err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fail(fmt.Errorf("replace snapshot: %w", err))
	}
	return nil
}

// Close stops the debounce timer and forces a final flush. Called on
// shutdown.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.Flush()
}
