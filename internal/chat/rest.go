package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmaraujo/picklist/internal/view"
)

// DefaultBaseURL is the platform's REST API root. Tests point the
// client at a local server instead.
const DefaultBaseURL = "https://discord.com/api/v10"

// Rest is the platform REST client. It implements Messenger and
// Responder.
type Rest struct {
	baseURL    string
	token      string
	appID      string
	httpClient *http.Client
}

var (
	_ Messenger = (*Rest)(nil)
	_ Responder = (*Rest)(nil)
)

// NewRest creates a REST client authenticated as a bot.
func NewRest(baseURL, token, appID string, httpClient *http.Client) *Rest {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Rest{
		baseURL:    baseURL,
		token:      token,
		appID:      appID,
		httpClient: httpClient,
	}
}

// SendMessage posts a rendered view to a channel and returns the id of
// the created message.
func (c *Rest) SendMessage(ctx context.Context, channelID string, msg view.Message) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.do(ctx, http.MethodPost, path, toMessageBody(msg), &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("send message: response carries no message id")
	}
	return created.ID, nil
}

// EditMessage overwrites a posted message in place.
func (c *Rest) EditMessage(ctx context.Context, channelID, messageID string, msg view.Message) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return c.do(ctx, http.MethodPatch, path, toMessageBody(msg), nil)
}

// DeleteMessage removes a message. A 404 means someone deleted it
// first; that is success, not failure.
func (c *Rest) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

// AckUpdate answers a component click with a silent "processing"
// acknowledgment.
func (c *Rest) AckUpdate(ctx context.Context, ev Event) error {
	return c.callback(ctx, ev, map[string]any{"type": callbackDeferUpdate})
}

// AckEphemeral answers a command with a deferred private reply.
func (c *Rest) AckEphemeral(ctx context.Context, ev Event) error {
	return c.callback(ctx, ev, map[string]any{
		"type": callbackDeferReply,
		"data": map[string]any{"flags": flagEphemeral},
	})
}

// Reply fills in the deferred reply created by AckEphemeral.
func (c *Rest) Reply(ctx context.Context, ev Event, content string) error {
	path := fmt.Sprintf("/webhooks/%s/%s/messages/@original", c.appID, ev.Token)
	return c.do(ctx, http.MethodPatch, path, map[string]any{"content": content}, nil)
}

// ShowModal answers the raw click with an input form. Must be the
// first response to the interaction.
func (c *Rest) ShowModal(ctx context.Context, ev Event, m Modal) error {
	return c.callback(ctx, ev, map[string]any{
		"type": callbackModal,
		"data": toModalBody(m),
	})
}

// FollowUpEphemeral sends a private notice to the actor of an already
// acknowledged interaction.
func (c *Rest) FollowUpEphemeral(ctx context.Context, ev Event, content string) error {
	path := fmt.Sprintf("/webhooks/%s/%s", c.appID, ev.Token)
	return c.do(ctx, http.MethodPost, path, map[string]any{
		"content": content,
		"flags":   flagEphemeral,
	}, nil)
}

// Command describes one slash command to register on startup.
type Command struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []CommandOption `json:"options,omitempty"`
}

// CommandOption is a subcommand of a registered command.
type CommandOption struct {
	Type        int    `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// OptionSubcommand is the option type marking a subcommand.
const OptionSubcommand = 1

// RegisterCommands bulk-overwrites the bot's slash commands. With a
// guild id registration is guild-scoped (fast propagation); without
// one it is global.
func (c *Rest) RegisterCommands(ctx context.Context, guildID string, commands []Command) error {
	path := fmt.Sprintf("/applications/%s/commands", c.appID)
	if guildID != "" {
		path = fmt.Sprintf("/applications/%s/guilds/%s/commands", c.appID, guildID)
	}
	return c.do(ctx, http.MethodPut, path, commands, nil)
}

func (c *Rest) callback(ctx context.Context, ev Event, payload any) error {
	path := fmt.Sprintf("/interactions/%s/%s/callback", ev.InteractionID, ev.Token)
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("chat api: http %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	var he *httpError
	return errors.As(err, &he) && he.status == http.StatusNotFound
}

func (c *Rest) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("chat api: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &httpError{status: resp.StatusCode, body: strings.TrimSpace(string(respBody))}
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("chat api: decode response: %w", err)
		}
	}
	return nil
}
