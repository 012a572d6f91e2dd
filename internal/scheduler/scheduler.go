// Package scheduler runs the two periodic jobs that keep the chat
// surface and the ledger in step: pull-and-post publishes newly
// pending orders as interactive messages, cleanup removes confirmed
// orders from both sides. Each job is guarded against overlapping
// runs; a trigger while a run is active is dropped, not queued.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmaraujo/picklist/internal/cache"
	"github.com/dmaraujo/picklist/internal/chat"
	"github.com/dmaraujo/picklist/internal/ledger"
	"github.com/dmaraujo/picklist/internal/order"
	"github.com/dmaraujo/picklist/internal/view"
)

// ErrBusy is returned when a job is triggered while a run of the same
// job is still in flight.
var ErrBusy = errors.New("job already running")

// Ledger is the slice of the ledger client the scheduler needs.
type Ledger interface {
	FetchPending(ctx context.Context) ([]order.Order, error)
	FetchConfirmed(ctx context.Context) ([]ledger.Confirmed, error)
	RecordMessageID(ctx context.Context, orderID, messageID string) error
	DeleteByMessageID(ctx context.Context, messageID string) (int, error)
}

type jobState int

const (
	jobIdle jobState = iota
	jobRunning
)

// jobGuard is the reentrancy flag for one job: an explicit
// {IDLE, RUNNING} state with acquisition and a deferred release.
type jobGuard struct {
	mu    sync.Mutex
	state jobState
}

// tryAcquire moves IDLE to RUNNING and reports whether it won.
func (g *jobGuard) tryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == jobRunning {
		return false
	}
	g.state = jobRunning
	return true
}

// release always resets to IDLE; callers defer it immediately after a
// successful tryAcquire so a failed run never wedges the schedule.
func (g *jobGuard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = jobIdle
}

// CleanupReport aggregates what one cleanup run removed.
type CleanupReport struct {
	Messages int
	Rows     int
}

// Scheduler owns the two jobs and their guards.
type Scheduler struct {
	ledger    Ledger
	store     *cache.Store
	messenger chat.Messenger
	renderer  *view.Renderer
	channelID string
	logger    *slog.Logger

	pullInterval    time.Duration
	cleanupInterval time.Duration

	pullGuard    jobGuard
	cleanupGuard jobGuard
}

// New creates a scheduler. An interval of zero (or less) disables the
// corresponding periodic job; on-demand triggering keeps working.
func New(l Ledger, store *cache.Store, messenger chat.Messenger, renderer *view.Renderer, channelID string, pullInterval, cleanupInterval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ledger:          l,
		store:           store,
		messenger:       messenger,
		renderer:        renderer,
		channelID:       channelID,
		logger:          logger,
		pullInterval:    pullInterval,
		cleanupInterval: cleanupInterval,
	}
}

// Run drives the periodic jobs until the context is canceled. Job
// failures are logged per run and never stop the schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	var pullC, cleanupC <-chan time.Time
	if s.pullInterval > 0 {
		t := time.NewTicker(s.pullInterval)
		defer t.Stop()
		pullC = t.C
	} else {
		s.logger.Info("pull-and-post disabled (interval not set)")
	}
	if s.cleanupInterval > 0 {
		t := time.NewTicker(s.cleanupInterval)
		defer t.Stop()
		cleanupC = t.C
	} else {
		s.logger.Info("cleanup disabled (interval not set)")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pullC:
			if posted, err := s.PullNow(ctx); err != nil && !errors.Is(err, ErrBusy) {
				s.logger.Error("pull-and-post run failed", "error", err)
			} else if err == nil && posted > 0 {
				s.logger.Info("pull-and-post run done", "posted", posted)
			}
		case <-cleanupC:
			if report, err := s.CleanupNow(ctx); err != nil && !errors.Is(err, ErrBusy) {
				s.logger.Error("cleanup run failed", "error", err)
			} else if err == nil && (report.Messages > 0 || report.Rows > 0) {
				s.logger.Info("cleanup run done", "messages", report.Messages, "rows", report.Rows)
			}
		}
	}
}

// PullNow runs pull-and-post once. Returns ErrBusy if a run is already
// in flight.
func (s *Scheduler) PullNow(ctx context.Context) (int, error) {
	if !s.pullGuard.tryAcquire() {
		return 0, ErrBusy
	}
	defer s.pullGuard.release()
	return s.runPull(ctx)
}

// runPull publishes every pending order not yet represented by a chat
// message. The ledger's message-id field is the idempotency marker:
// post first, record the id second. A crash between the two steps can
// duplicate a post on the next run; the reverse order would risk
// losing the post entirely, which is worse.
func (s *Scheduler) runPull(ctx context.Context) (int, error) {
	pending, err := s.ledger.FetchPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch pending: %w", err)
	}

	posted := 0
	for i := range pending {
		o := pending[i]
		if o.MessageID != "" {
			// Already posted; make sure a restarted process knows it.
			if _, ok := s.store.Get(o.ID); !ok {
				s.store.Put(o)
			}
			continue
		}
		msg := s.renderer.Render(o, 0)
		messageID, err := s.messenger.SendMessage(ctx, s.channelID, msg)
		if err != nil {
			s.logger.Error("post failed", "order", o.ID, "error", err)
			continue
		}
		o.MessageID = messageID
		s.store.Put(o)
		if err := s.ledger.RecordMessageID(ctx, o.ID, messageID); err != nil {
			// The post exists but the marker write failed; the next
			// run may duplicate it. Accepted and documented.
			s.logger.Error("record message id failed", "order", o.ID, "message_id", messageID, "error", err)
			continue
		}
		posted++
	}
	return posted, nil
}

// CleanupNow runs cleanup once. Returns ErrBusy if a run is already in
// flight.
func (s *Scheduler) CleanupNow(ctx context.Context) (CleanupReport, error) {
	if !s.cleanupGuard.tryAcquire() {
		return CleanupReport{}, ErrBusy
	}
	defer s.cleanupGuard.release()
	return s.runCleanup(ctx)
}

// runCleanup removes confirmed orders from the chat surface first and
// the ledger second, evicting the cache entry last. Per-order failures
// are logged and skipped without aborting the batch.
func (s *Scheduler) runCleanup(ctx context.Context) (CleanupReport, error) {
	confirmed, err := s.ledger.FetchConfirmed(ctx)
	if err != nil {
		return CleanupReport{}, fmt.Errorf("fetch confirmed: %w", err)
	}

	var report CleanupReport
	for _, c := range confirmed {
		if c.MessageID == "" {
			s.logger.Warn("confirmed order has no message id, skipping", "order", c.OrderID)
			continue
		}
		// Already-gone messages count as deleted.
		if err := s.messenger.DeleteMessage(ctx, s.channelID, c.MessageID); err != nil {
			s.logger.Error("delete message failed", "order", c.OrderID, "message_id", c.MessageID, "error", err)
			continue
		}
		report.Messages++
		rows, err := s.ledger.DeleteByMessageID(ctx, c.MessageID)
		if err != nil {
			s.logger.Error("delete ledger rows failed", "order", c.OrderID, "message_id", c.MessageID, "error", err)
			continue
		}
		report.Rows += rows
		s.store.Remove(c.OrderID)
	}
	return report, nil
}
