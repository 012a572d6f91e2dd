// Package interaction maps low-latency user actions onto cache
// mutation, ledger propagation and view re-rendering. Every event
// moves through RECEIVED → ACKNOWLEDGED → {RESOLVED, FAILED}; the
// acknowledgment always precedes ledger I/O because the platform's
// response budget is a few seconds while a ledger call may take many.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmaraujo/picklist/internal/action"
	"github.com/dmaraujo/picklist/internal/cache"
	"github.com/dmaraujo/picklist/internal/chat"
	"github.com/dmaraujo/picklist/internal/ledger"
	"github.com/dmaraujo/picklist/internal/order"
	"github.com/dmaraujo/picklist/internal/view"
)

// phase tracks how far an interaction has progressed. The one fatal
// invariant is that no event ends in phaseReceived: an unacknowledged
// interaction manifests to the user as a broken button.
type phase int

const (
	phaseReceived phase = iota
	phaseAcknowledged
	phaseResolved
	phaseFailed
)

const (
	noticeNotFound    = "⚠️ I don't know that order anymore (the bot may have restarted). Run /orders sync to repost it."
	noticeLedgerDown  = "⚠️ The ledger did not respond. Your click was not saved; try again in a moment."
	noticeGeneric     = "❌ Something went wrong handling that click. It has been logged."
	modalNoteFieldID  = "note"
	commandPing       = "ping"
	commandOrders     = "orders"
	subcommandSync    = "sync"
)

// LedgerWriter is the slice of the ledger client the handler needs.
type LedgerWriter interface {
	SetItemStatus(ctx context.Context, itemKey string, status order.ItemStatus, note, actor string, at time.Time) error
}

// PullRunner triggers an on-demand pull-and-post run. ErrBusy-style
// refusals are surfaced as plain errors.
type PullRunner interface {
	PullNow(ctx context.Context) (posted int, err error)
}

// Handler is the interaction state machine. Mutations and re-renders
// for one order run strictly in turn; unrelated orders proceed
// concurrently.
type Handler struct {
	store     *cache.Store
	ledger    LedgerWriter
	messenger chat.Messenger
	responder chat.Responder
	renderer  *view.Renderer
	puller    PullRunner
	logger    *slog.Logger
	now       func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewHandler wires the state machine to its collaborators.
func NewHandler(store *cache.Store, lw LedgerWriter, messenger chat.Messenger, responder chat.Responder, renderer *view.Renderer, puller PullRunner, logger *slog.Logger) *Handler {
	return &Handler{
		store:     store,
		ledger:    lw,
		messenger: messenger,
		responder: responder,
		renderer:  renderer,
		puller:    puller,
		logger:    logger,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockOrder serializes edits on one order: without it, two in-flight
// handlers could interleave so the earlier edit lands after the later
// one, leaving the message showing state the cache no longer holds.
// Callers acquire it only after the acknowledgment, so waiting here
// cannot expire the interaction. The map is bounded by the pending set
// and is never pruned.
func (h *Handler) lockOrder(orderID string) func() {
	h.locksMu.Lock()
	l, ok := h.locks[orderID]
	if !ok {
		l = &sync.Mutex{}
		h.locks[orderID] = l
	}
	h.locksMu.Unlock()
	l.Lock()
	return l.Unlock
}

// HandleEvent processes one interaction to completion. Errors never
// escape: routine failures become private notices to the actor and a
// log line, and the acknowledgment is resolved on every path.
func (h *Handler) HandleEvent(ctx context.Context, ev chat.Event) {
	var err error
	switch ev.Type {
	case chat.EventCommand:
		err = h.handleCommand(ctx, ev)
	case chat.EventButton:
		err = h.handleButton(ctx, ev)
	case chat.EventModal:
		err = h.handleModal(ctx, ev)
	default:
		h.logger.Warn("event of unknown type dropped", "type", ev.Type)
		return
	}
	if err != nil {
		h.logger.Error("interaction failed",
			"custom_id", ev.CustomID,
			"command", ev.Command,
			"actor", ev.Actor,
			"error", err,
		)
	}
}

// handleCommand serves the slash commands: /ping and /orders sync.
func (h *Handler) handleCommand(ctx context.Context, ev chat.Event) error {
	if err := h.responder.AckEphemeral(ctx, ev); err != nil {
		return fmt.Errorf("ack command: %w", err)
	}
	switch {
	case ev.Command == commandPing:
		return h.responder.Reply(ctx, ev, "🏓 Pong! Bot online.")
	case ev.Command == commandOrders && ev.Subcommand == subcommandSync:
		posted, err := h.puller.PullNow(ctx)
		if err != nil {
			h.logger.Error("on-demand sync failed", "actor", ev.Actor, "error", err)
			return h.responder.Reply(ctx, ev, "⚠️ Sync failed, see the logs.")
		}
		return h.responder.Reply(ctx, ev, fmt.Sprintf("✅ Sync done: %d order(s) posted.", posted))
	default:
		return h.responder.Reply(ctx, ev, "Unknown command.")
	}
}

// handleButton processes a control click. The missing-with-annotation
// path answers the raw click with a modal; every other path defers
// first and does its work afterwards.
func (h *Handler) handleButton(ctx context.Context, ev chat.Event) error {
	act, err := action.Decode(ev.CustomID)
	if err != nil {
		// Still acknowledge so the control does not appear broken.
		_ = h.responder.AckUpdate(ctx, ev)
		return err
	}

	if act.Kind == action.KindItem && act.Sub == action.SubMiss {
		// The form must be the very first response; a generic defer
		// would make the modal impossible to show afterwards.
		return h.responder.ShowModal(ctx, ev, chat.Modal{
			CustomID:    action.NotePrompt(act.OrderID, act.Page, act.ItemKey),
			Title:       "Missing item",
			FieldID:     modalNoteFieldID,
			Label:       "What exactly is missing? (optional)",
			Placeholder: "e.g. missing lavender and mint",
		})
	}

	// Acknowledge before any ledger I/O; a failed ack means the
	// interaction already expired and nothing can be recovered.
	if err := h.responder.AckUpdate(ctx, ev); err != nil {
		return fmt.Errorf("ack button: %w", err)
	}
	st := phaseAcknowledged

	unlock := h.lockOrder(act.OrderID)
	defer unlock()

	if err := h.apply(ctx, ev, act); err != nil {
		st = phaseFailed
		h.notify(ctx, ev, err)
		h.logger.Debug("button handled", "custom_id", ev.CustomID, "phase", int(st))
		return err
	}
	st = phaseResolved
	h.logger.Debug("button handled", "custom_id", ev.CustomID, "phase", int(st))
	return nil
}

// handleModal resolves the second half of the missing-with-annotation
// flow: the submitted form carries the optional note.
func (h *Handler) handleModal(ctx context.Context, ev chat.Event) error {
	act, err := action.Decode(ev.CustomID)
	if err != nil {
		_ = h.responder.AckUpdate(ctx, ev)
		return err
	}
	if err := h.responder.AckUpdate(ctx, ev); err != nil {
		return fmt.Errorf("ack modal: %w", err)
	}
	unlock := h.lockOrder(act.OrderID)
	defer unlock()

	note := ev.Inputs[modalNoteFieldID]
	if err := h.markItem(ctx, ev, act.OrderID, act.ItemKey, order.StatusMissing, note); err != nil {
		h.notify(ctx, ev, err)
		return err
	}
	return h.rerender(ctx, ev, act.OrderID)
}

// apply performs the mutation an already-acknowledged button asks for
// and re-renders the hosting message.
func (h *Handler) apply(ctx context.Context, ev chat.Event, act action.Action) error {
	switch act.Kind {
	case action.KindNavigate:
		return h.navigate(ctx, ev, act)
	case action.KindItem:
		if err := h.markItem(ctx, ev, act.OrderID, act.ItemKey, act.Status(), ""); err != nil {
			return err
		}
		return h.rerender(ctx, ev, act.OrderID)
	case action.KindBulk:
		return h.bulkPage(ctx, ev, act)
	default:
		return fmt.Errorf("unroutable action kind %q", act.Kind)
	}
}

// navigate adjusts the page cursor. No ledger write.
func (h *Handler) navigate(ctx context.Context, ev chat.Event, act action.Action) error {
	o, err := h.resolve(ctx, act.OrderID)
	if err != nil {
		return err
	}
	page := act.Page
	if act.Sub == action.SubNext {
		page++
	} else {
		page--
	}
	if _, err := h.store.SetPage(o.ID, page, h.renderer.PageSize()); err != nil {
		return err
	}
	return h.rerender(ctx, ev, o.ID)
}

// markItem is the single-item write-through path: cache first, then
// the awaited ledger write. Re-submitting an already-set status is a
// harmless overwrite on both sides.
func (h *Handler) markItem(ctx context.Context, ev chat.Event, orderID, itemKey string, status order.ItemStatus, note string) error {
	if _, err := h.resolve(ctx, orderID); err != nil {
		return err
	}
	if _, err := h.store.MutateItem(orderID, itemKey, status, note); err != nil {
		return err
	}
	if err := h.ledger.SetItemStatus(ctx, itemKey, status, note, ev.Actor, h.now()); err != nil {
		return fmt.Errorf("propagate %s for %s: %w", status, itemKey, err)
	}
	return nil
}

// bulkPage applies one status to every item on the current page, one
// ledger write per item. Writes are sequential and independent;
// partial application is visible and acceptable.
func (h *Handler) bulkPage(ctx context.Context, ev chat.Event, act action.Action) error {
	o, err := h.resolve(ctx, act.OrderID)
	if err != nil {
		return err
	}
	start, end := order.PageBounds(act.Page, len(o.Items), h.renderer.PageSize())
	var failed int
	for i := start; i < end; i++ {
		key := o.Items[i].Key
		if _, err := h.store.MutateItem(o.ID, key, act.Status(), ""); err != nil {
			h.logger.Warn("bulk mutate skipped", "order", o.ID, "item", key, "error", err)
			failed++
			continue
		}
		if err := h.ledger.SetItemStatus(ctx, key, act.Status(), "", ev.Actor, h.now()); err != nil {
			h.logger.Warn("bulk write failed", "order", o.ID, "item", key, "error", err)
			failed++
		}
	}
	if err := h.rerender(ctx, ev, o.ID); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("bulk page mark: %d of %d writes failed: %w", failed, end-start, ledger.ErrUnavailable)
	}
	return nil
}

// resolve finds the order in the cache, falling back to a ledger
// lookup on a miss.
func (h *Handler) resolve(ctx context.Context, orderID string) (order.Order, error) {
	o, err := h.store.GetOrFetch(ctx, orderID)
	if err != nil {
		return order.Order{}, fmt.Errorf("resolve order %s: %w", orderID, err)
	}
	return o, nil
}

// rerender overwrites the hosting chat message in place. A status
// change never posts a new message.
func (h *Handler) rerender(ctx context.Context, ev chat.Event, orderID string) error {
	o, ok := h.store.Get(orderID)
	if !ok {
		return fmt.Errorf("rerender order %s: %w", orderID, cache.ErrNotFound)
	}
	messageID := o.MessageID
	if messageID == "" {
		messageID = ev.MessageID
	}
	msg := h.renderer.Render(o, o.Page)
	if err := h.messenger.EditMessage(ctx, ev.ChannelID, messageID, msg); err != nil {
		return fmt.Errorf("edit message %s: %w", messageID, err)
	}
	return nil
}

// notify reports a failure privately to the actor. The channel never
// sees routine failures.
func (h *Handler) notify(ctx context.Context, ev chat.Event, err error) {
	var content string
	switch {
	case errors.Is(err, cache.ErrNotFound):
		content = noticeNotFound
	case errors.Is(err, ledger.ErrUnavailable):
		content = noticeLedgerDown
	default:
		content = noticeGeneric
	}
	if followErr := h.responder.FollowUpEphemeral(ctx, ev, content); followErr != nil {
		h.logger.Error("follow-up notice failed", "actor", ev.Actor, "error", followErr)
	}
}
