// Package order contains the domain model for orders under review:
// the order itself, its line items with their tri-state fulfillment
// status, pagination math and the derived order-level status policies.
package order

// ItemStatus is the fulfillment status of a single line item.
type ItemStatus string

const (
	// StatusUnset means the item has not been checked yet.
	StatusUnset ItemStatus = ""
	// StatusHave means the item was confirmed present.
	StatusHave ItemStatus = "HAVE"
	// StatusMissing means the item was confirmed absent.
	StatusMissing ItemStatus = "MISSING"
)

// Marked reports whether the status has been explicitly set.
func (s ItemStatus) Marked() bool {
	return s == StatusHave || s == StatusMissing
}

// Item is one line of an order. It is owned exclusively by its Order.
// Note is free text attached to a MISSING item ("missing lavender and
// mint"); it is cleared whenever the status moves away from MISSING.
type Item struct {
	Key      string     `json:"key"`
	Name     string     `json:"name"`
	Quantity int        `json:"quantity"`
	Status   ItemStatus `json:"status,omitempty"`
	Note     string     `json:"note,omitempty"`
}

// Order is the unit of work: a customer's purchase with a checklist of
// items. The item sequence is fixed at fetch time and never reordered;
// only item statuses mutate. MessageID is set once the order has been
// posted to the chat channel and doubles as the idempotency marker for
// the pull-and-post job.
type Order struct {
	ID        string `json:"id"`
	Customer  string `json:"customer"`
	Channel   string `json:"channel,omitempty"`
	Items     []Item `json:"items"`
	Page      int    `json:"page"`
	MessageID string `json:"message_id,omitempty"`
}

// Item returns a pointer to the item with the given key, or nil if the
// order has no such item.
func (o *Order) Item(key string) *Item {
	for i := range o.Items {
		if o.Items[i].Key == key {
			return &o.Items[i]
		}
	}
	return nil
}

// SetItemStatus updates a single item in place. Setting any status
// other than MISSING clears the note. Returns false if the item key is
// unknown to this order.
func (o *Order) SetItemStatus(key string, status ItemStatus, note string) bool {
	it := o.Item(key)
	if it == nil {
		return false
	}
	it.Status = status
	if status == StatusMissing {
		it.Note = note
	} else {
		it.Note = ""
	}
	return true
}

// TotalPages returns the number of pages for this order at the given
// page size.
func (o *Order) TotalPages(pageSize int) int {
	return Pages(len(o.Items), pageSize)
}

// ClampPage clamps the order's page cursor into the valid range for
// the given page size and returns the clamped value.
func (o *Order) ClampPage(pageSize int) int {
	o.Page = ClampPage(o.Page, len(o.Items), pageSize)
	return o.Page
}
