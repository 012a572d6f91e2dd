// Package view renders an order into a display payload: a textual
// summary plus an interactive control layout. Rendering is pure and
// deterministic; all side effects belong to the chat layer.
package view

// MaxRows is the chat platform's hard limit on component rows per
// message. It bounds the page size: one row per item on the page plus
// one navigation row.
const MaxRows = 5

// Message is a rendered order view, ready for the chat layer to
// translate into its wire format.
type Message struct {
	Title       string
	Description string
	Footer      string
	Rows        []Row
}

// Row is one horizontal row of controls.
type Row struct {
	Buttons []Button
}

// ButtonStyle selects the platform's visual button treatment.
type ButtonStyle int

const (
	StylePrimary   ButtonStyle = 1
	StyleSecondary ButtonStyle = 2
	StyleSuccess   ButtonStyle = 3
	StyleDanger    ButtonStyle = 4
)

// Button is a single interactive control. ID carries the encoded
// action routed back when the control is activated.
type Button struct {
	ID       string
	Label    string
	Style    ButtonStyle
	Disabled bool
}
