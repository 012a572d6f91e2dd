package ledger

import (
	"strings"

	"github.com/dmaraujo/picklist/internal/order"
)

// Read actions (GET ?action=...) and write actions (POST body
// discriminator) understood by the remote ledger.
const (
	actionListPending   = "list_pending"
	actionListConfirmed = "list_confirmed"
	actionSetMessageID  = "set_message_id"
	actionSetItemStatus = "set_item_status"
	actionDeleteByMsgID = "delete_order_by_message_id"
)

// Confirmed is one row of the confirmed list: an order ready for
// cleanup together with the chat message that represents it.
type Confirmed struct {
	OrderID   string `json:"id"`
	MessageID string `json:"message_id"`
}

type envelope struct {
	OK        bool        `json:"ok"`
	Error     string      `json:"error,omitempty"`
	Orders    []orderDTO  `json:"orders,omitempty"`
	Confirmed []Confirmed `json:"confirmed,omitempty"`
	Deleted   int         `json:"deleted,omitempty"`
}

type orderDTO struct {
	ID        string    `json:"id" validate:"required"`
	Customer  string    `json:"customer"`
	Channel   string    `json:"channel"`
	MessageID string    `json:"message_id"`
	Items     []itemDTO `json:"items" validate:"dive"`
}

type itemDTO struct {
	Key      string `json:"key" validate:"required"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity" validate:"min=0"`
	Status   string `json:"status"`
}

// missingPrefix introduces the annotation inside a composed MISSING
// status value, e.g. "MISSING: no lavender".
const missingPrefix = string(order.StatusMissing) + ": "

// ComposeStatus renders a status plus optional annotation as the
// single cell value the ledger stores per item.
func ComposeStatus(status order.ItemStatus, note string) string {
	if status == order.StatusMissing && note != "" {
		return missingPrefix + note
	}
	return string(status)
}

// ParseStatus splits a stored cell value back into status and
// annotation. Unknown values are treated as unset.
func ParseStatus(s string) (order.ItemStatus, string) {
	switch {
	case s == string(order.StatusHave):
		return order.StatusHave, ""
	case s == string(order.StatusMissing):
		return order.StatusMissing, ""
	case strings.HasPrefix(s, missingPrefix):
		return order.StatusMissing, strings.TrimPrefix(s, missingPrefix)
	default:
		return order.StatusUnset, ""
	}
}

func (d orderDTO) toOrder() order.Order {
	o := order.Order{
		ID:        d.ID,
		Customer:  d.Customer,
		Channel:   d.Channel,
		MessageID: d.MessageID,
		Items:     make([]order.Item, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		status, note := ParseStatus(it.Status)
		o.Items = append(o.Items, order.Item{
			Key:      it.Key,
			Name:     it.Name,
			Quantity: qty,
			Status:   status,
			Note:     note,
		})
	}
	return o
}
