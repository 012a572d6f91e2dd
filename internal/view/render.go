package view

import (
	"fmt"
	"strings"

	"github.com/dmaraujo/picklist/internal/action"
	"github.com/dmaraujo/picklist/internal/order"
)

// Renderer maps orders to messages. PageSize and the aggregate status
// policy are fixed at construction.
type Renderer struct {
	pageSize int
	policy   order.StatusPolicy
}

// NewRenderer creates a renderer. A non-positive pageSize falls back
// to order.DefaultPageSize; a nil policy falls back to TernaryPolicy.
func NewRenderer(pageSize int, policy order.StatusPolicy) *Renderer {
	if pageSize <= 0 {
		pageSize = order.DefaultPageSize
	}
	if pageSize > MaxRows-1 {
		pageSize = MaxRows - 1
	}
	if policy == nil {
		policy = order.TernaryPolicy
	}
	return &Renderer{pageSize: pageSize, policy: policy}
}

// PageSize returns the configured page size.
func (r *Renderer) PageSize() int {
	return r.pageSize
}

// Render produces the message for one page of an order. The page is
// clamped into the valid range, so any input yields a valid view.
func (r *Renderer) Render(o order.Order, page int) Message {
	total := order.Pages(len(o.Items), r.pageSize)
	page = order.ClampPage(page, len(o.Items), r.pageSize)
	start, end := order.PageBounds(page, len(o.Items), r.pageSize)

	var b strings.Builder
	fmt.Fprintf(&b, "**Order:** %s\n", o.ID)
	fmt.Fprintf(&b, "**Customer:** %s\n", o.Customer)
	if o.Channel != "" {
		fmt.Fprintf(&b, "**Channel:** %s\n", o.Channel)
	}
	fmt.Fprintf(&b, "**Status:** **%s**\n\n**Items:**\n", r.policy(o.Items))
	for i := range o.Items {
		it := &o.Items[i]
		if i >= start && i < end {
			fmt.Fprintf(&b, "%s **%d. %s** x%d", statusGlyph(it.Status), i+1, it.Name, it.Quantity)
			if it.Note != "" {
				fmt.Fprintf(&b, " — %s", it.Note)
			}
		} else {
			fmt.Fprintf(&b, "%s %d. %s", statusGlyph(it.Status), i+1, it.Name)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nPage **%d/%d**", page+1, total)

	return Message{
		Title:       "📦 Order check",
		Description: b.String(),
		Footer:      "Mark item by item or use the page buttons.",
		Rows:        r.controls(o, page, total, start, end),
	}
}

// controls builds one row per item on the page plus the navigation
// row, capped at MaxRows.
func (r *Renderer) controls(o order.Order, page, total, start, end int) []Row {
	rows := make([]Row, 0, end-start+1)
	for i := start; i < end; i++ {
		it := &o.Items[i]
		rows = append(rows, Row{Buttons: []Button{
			{
				ID:       action.MarkItem(o.ID, page, it.Key, false),
				Label:    fmt.Sprintf("Have %d", i+1),
				Style:    StyleSuccess,
				Disabled: it.Status == order.StatusHave,
			},
			{
				ID:       action.MarkItem(o.ID, page, it.Key, true),
				Label:    fmt.Sprintf("Missing %d", i+1),
				Style:    StyleDanger,
				Disabled: it.Status == order.StatusMissing,
			},
		}})
	}
	rows = append(rows, Row{Buttons: []Button{
		{
			ID:       action.Navigate(o.ID, page, false),
			Label:    "⬅️ Previous",
			Style:    StyleSecondary,
			Disabled: page <= 0,
		},
		{
			ID:       action.Navigate(o.ID, page, true),
			Label:    "Next ➡️",
			Style:    StyleSecondary,
			Disabled: page >= total-1,
		},
		{
			ID:    action.MarkPage(o.ID, page, false),
			Label: "Have all on page",
			Style: StyleSuccess,
		},
		{
			ID:    action.MarkPage(o.ID, page, true),
			Label: "Missing all on page",
			Style: StyleDanger,
		},
	}})
	if len(rows) > MaxRows {
		rows = rows[:MaxRows]
	}
	return rows
}

func statusGlyph(s order.ItemStatus) string {
	switch s {
	case order.StatusHave:
		return "✅"
	case order.StatusMissing:
		return "❌"
	default:
		return "⬜"
	}
}
