// Package chat is the boundary to the chat platform: a REST client
// for messages and interaction callbacks, and a websocket gateway
// client that delivers command, button and modal events. Everything
// above this package depends only on the narrow interfaces below.
package chat

import (
	"context"

	"github.com/dmaraujo/picklist/internal/view"
)

// EventType discriminates gateway interaction events.
type EventType int

const (
	// EventCommand is a slash command invocation.
	EventCommand EventType = iota + 1
	// EventButton is a control click on a posted message.
	EventButton
	// EventModal is a submitted input form.
	EventModal
)

// Event is one interaction delivered by the gateway. The platform
// expects an acknowledgment within a few seconds of delivery or the
// interaction expires.
type Event struct {
	Type          EventType
	InteractionID string
	Token         string
	Command       string
	Subcommand    string
	CustomID      string
	ChannelID     string
	MessageID     string
	Actor         string
	Inputs        map[string]string
}

// Messenger sends, edits and deletes channel messages.
type Messenger interface {
	// SendMessage posts a rendered view and returns the new message id.
	SendMessage(ctx context.Context, channelID string, msg view.Message) (string, error)
	// EditMessage replaces a posted message in place.
	EditMessage(ctx context.Context, channelID, messageID string, msg view.Message) error
	// DeleteMessage removes a message. A message that is already gone
	// counts as success.
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Modal describes an input-collection prompt with a single free-text
// field.
type Modal struct {
	CustomID    string
	Title       string
	FieldID     string
	Label       string
	Placeholder string
}

// Responder answers interaction events. Acknowledgments must be the
// first response and must happen before any slow I/O; ShowModal is the
// one response type that may (and must) answer the raw click directly.
type Responder interface {
	// AckUpdate acknowledges a component click without any visible
	// output ("processing"); the final content arrives later as a
	// message edit.
	AckUpdate(ctx context.Context, ev Event) error
	// AckEphemeral acknowledges a command with a deferred reply only
	// the actor can see.
	AckEphemeral(ctx context.Context, ev Event) error
	// Reply fills in the deferred reply of AckEphemeral.
	Reply(ctx context.Context, ev Event, content string) error
	// ShowModal answers the raw click with an input form.
	ShowModal(ctx context.Context, ev Event, m Modal) error
	// FollowUpEphemeral sends a private notice to the actor after the
	// interaction was acknowledged. Never visible in the channel.
	FollowUpEphemeral(ctx context.Context, ev Event, content string) error
}
