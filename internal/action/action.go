// Package action encodes and decodes the opaque identifiers attached
// to interactive controls. The identifier is a colon-delimited tuple
// {kind, sub, order id, page, item key}; the item key is the trailing
// variable-width field because real item keys may themselves contain
// the delimiter. This package is the only place that knows the layout.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmaraujo/picklist/internal/order"
)

const sep = ":"

// ErrMalformed is returned when an identifier cannot be decoded.
var ErrMalformed = errors.New("malformed action identifier")

// Kind classifies what a control does when activated.
type Kind string

const (
	// KindNavigate moves the page cursor; it never writes to the ledger.
	KindNavigate Kind = "nav"
	// KindItem marks a single item.
	KindItem Kind = "item"
	// KindBulk marks every item on the current page.
	KindBulk Kind = "bulk"
	// KindNote is the modal submission that resolves a
	// missing-with-annotation flow started by a KindItem miss control.
	KindNote Kind = "note"
)

// Sub refines the kind: a navigation direction or a mark.
type Sub string

const (
	SubPrev Sub = "prev"
	SubNext Sub = "next"
	SubHave Sub = "have"
	SubMiss Sub = "miss"
)

// Action is the decoded form of a control identifier.
type Action struct {
	Kind    Kind
	Sub     Sub
	OrderID string
	Page    int
	ItemKey string
}

// Status maps the mark sub-action onto an item status.
func (a Action) Status() order.ItemStatus {
	if a.Sub == SubMiss {
		return order.StatusMissing
	}
	return order.StatusHave
}

// Encode serializes the action into a control identifier.
func Encode(a Action) string {
	parts := []string{string(a.Kind), string(a.Sub), a.OrderID, strconv.Itoa(a.Page)}
	if a.Kind == KindItem || a.Kind == KindNote {
		parts = append(parts, a.ItemKey)
	}
	return strings.Join(parts, sep)
}

// Navigate builds a page-navigation identifier.
func Navigate(orderID string, page int, next bool) string {
	sub := SubPrev
	if next {
		sub = SubNext
	}
	return Encode(Action{Kind: KindNavigate, Sub: sub, OrderID: orderID, Page: page})
}

// MarkItem builds a single-item mark identifier.
func MarkItem(orderID string, page int, itemKey string, missing bool) string {
	return Encode(Action{Kind: KindItem, Sub: mark(missing), OrderID: orderID, Page: page, ItemKey: itemKey})
}

// MarkPage builds a page-wide bulk mark identifier.
func MarkPage(orderID string, page int, missing bool) string {
	return Encode(Action{Kind: KindBulk, Sub: mark(missing), OrderID: orderID, Page: page})
}

// NotePrompt builds the identifier of the annotation modal shown for a
// missing item.
func NotePrompt(orderID string, page int, itemKey string) string {
	return Encode(Action{Kind: KindNote, Sub: SubMiss, OrderID: orderID, Page: page, ItemKey: itemKey})
}

func mark(missing bool) Sub {
	if missing {
		return SubMiss
	}
	return SubHave
}

// Decode parses a control identifier. Item keys are reassembled from
// everything after the fixed-position fields, so keys containing the
// delimiter round-trip intact.
func Decode(id string) (Action, error) {
	parts := strings.Split(id, sep)
	if len(parts) < 4 {
		return Action{}, fmt.Errorf("%w: %q", ErrMalformed, id)
	}
	kind := Kind(parts[0])
	sub := Sub(parts[1])
	page, err := strconv.Atoi(parts[3])
	if err != nil || page < 0 {
		return Action{}, fmt.Errorf("%w: bad page in %q", ErrMalformed, id)
	}
	a := Action{Kind: kind, Sub: sub, OrderID: parts[2], Page: page}

	switch kind {
	case KindNavigate:
		if sub != SubPrev && sub != SubNext {
			return Action{}, fmt.Errorf("%w: bad direction in %q", ErrMalformed, id)
		}
	case KindBulk:
		if sub != SubHave && sub != SubMiss {
			return Action{}, fmt.Errorf("%w: bad mark in %q", ErrMalformed, id)
		}
	case KindItem, KindNote:
		if sub != SubHave && sub != SubMiss {
			return Action{}, fmt.Errorf("%w: bad mark in %q", ErrMalformed, id)
		}
		if len(parts) < 5 {
			return Action{}, fmt.Errorf("%w: missing item key in %q", ErrMalformed, id)
		}
		a.ItemKey = strings.Join(parts[4:], sep)
		if a.ItemKey == "" {
			return Action{}, fmt.Errorf("%w: empty item key in %q", ErrMalformed, id)
		}
	default:
		return Action{}, fmt.Errorf("%w: unknown kind in %q", ErrMalformed, id)
	}
	if a.OrderID == "" {
		return Action{}, fmt.Errorf("%w: empty order id in %q", ErrMalformed, id)
	}
	return a, nil
}
