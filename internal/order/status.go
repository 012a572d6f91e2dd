package order

import "fmt"

// Status is the derived order-level aggregate status. It is computed
// from item statuses on demand and never stored.
type Status string

const (
	// StatusPending means at least one item is still unchecked.
	StatusPending Status = "PENDING"
	// StatusIncomplete means every item is checked and at least one is
	// missing. Only the ternary policy produces this value.
	StatusIncomplete Status = "INCOMPLETE"
	// StatusComplete means every item is checked (binary policy) or
	// every item is checked and none is missing (ternary policy).
	StatusComplete Status = "COMPLETE"
)

// StatusPolicy derives the order-level status from item statuses. The
// two known derivations disagree on what "complete" means, so callers
// pick a policy instead of the model hard-coding one.
type StatusPolicy func(items []Item) Status

// BinaryPolicy reports COMPLETE once every item has been marked,
// regardless of how it was marked, and PENDING otherwise.
func BinaryPolicy(items []Item) Status {
	for i := range items {
		if !items[i].Status.Marked() {
			return StatusPending
		}
	}
	return StatusComplete
}

// TernaryPolicy distinguishes fully-present orders from fully-checked
// orders with missing items: PENDING while anything is unchecked,
// INCOMPLETE when everything is checked but something is missing,
// COMPLETE otherwise.
func TernaryPolicy(items []Item) Status {
	missing := false
	for i := range items {
		switch items[i].Status {
		case StatusMissing:
			missing = true
		case StatusHave:
		default:
			return StatusPending
		}
	}
	if missing {
		return StatusIncomplete
	}
	return StatusComplete
}

// PolicyByName resolves a configured policy name ("binary" or
// "ternary") to its implementation.
func PolicyByName(name string) (StatusPolicy, error) {
	switch name {
	case "binary":
		return BinaryPolicy, nil
	case "ternary", "":
		return TernaryPolicy, nil
	default:
		return nil, fmt.Errorf("unknown status policy: %q", name)
	}
}
