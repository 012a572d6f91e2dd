package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/dmaraujo/picklist/internal/order"
)

// DefaultTimeout bounds every outbound ledger call.
const DefaultTimeout = 15 * time.Second

// Client talks to the remote ledger. It performs no retries; retry
// policy belongs to the caller (next scheduled tick, next user click).
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
	schemas    *schemas
	validate   *validator.Validate
}

// NewClient creates a ledger client for the given base URL and shared
// secret. A non-positive timeout falls back to DefaultTimeout.
func NewClient(baseURL, key string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("ledger base URL is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	sch, err := compileSchemas()
	if err != nil {
		return nil, fmt.Errorf("ledger schemas: %w", err)
	}
	return &Client{
		baseURL:    baseURL,
		key:        key,
		httpClient: &http.Client{Timeout: timeout},
		schemas:    sch,
		validate:   validator.New(),
	}, nil
}

// FetchPending lists the orders awaiting review. Item statuses already
// recorded remotely are parsed back into status + annotation.
func (c *Client) FetchPending(ctx context.Context) ([]order.Order, error) {
	env, err := c.doRead(ctx, actionListPending)
	if err != nil {
		return nil, err
	}
	orders := make([]order.Order, 0, len(env.Orders))
	for _, dto := range env.Orders {
		if err := c.validate.Struct(dto); err != nil {
			return nil, fmt.Errorf("%w: order %q: %v", ErrProtocol, dto.ID, err)
		}
		orders = append(orders, dto.toOrder())
	}
	return orders, nil
}

// FetchConfirmed lists orders whose review is confirmed and which are
// ready for cleanup.
func (c *Client) FetchConfirmed(ctx context.Context) ([]Confirmed, error) {
	env, err := c.doRead(ctx, actionListConfirmed)
	if err != nil {
		return nil, err
	}
	return env.Confirmed, nil
}

// RecordMessageID writes the chat message id back onto the order's
// ledger rows, closing the pull-and-post idempotency loop.
func (c *Client) RecordMessageID(ctx context.Context, orderID, messageID string) error {
	_, err := c.doWrite(ctx, map[string]any{
		"action":     actionSetMessageID,
		"order_id":   orderID,
		"message_id": messageID,
	})
	return err
}

// SetItemStatus writes a single item's status. The annotation, if any,
// is composed into the stored value ("MISSING: no lavender").
func (c *Client) SetItemStatus(ctx context.Context, itemKey string, status order.ItemStatus, note, actor string, at time.Time) error {
	_, err := c.doWrite(ctx, map[string]any{
		"action":    actionSetItemStatus,
		"item_key":  itemKey,
		"status":    ComposeStatus(status, note),
		"actor":     actor,
		"timestamp": at.UTC().Format(time.RFC3339),
	})
	return err
}

// DeleteByMessageID removes every ledger row belonging to the order
// represented by the given chat message and reports how many rows
// were deleted.
func (c *Client) DeleteByMessageID(ctx context.Context, messageID string) (int, error) {
	env, err := c.doWrite(ctx, map[string]any{
		"action":     actionDeleteByMsgID,
		"message_id": messageID,
	})
	if err != nil {
		return 0, err
	}
	return env.Deleted, nil
}

func (c *Client) doRead(ctx context.Context, action string) (*envelope, error) {
	q := url.Values{}
	q.Set("action", action)
	q.Set("key", c.key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return c.do(req, c.schemas.read)
}

func (c *Client) doWrite(ctx context.Context, payload map[string]any) (*envelope, error) {
	payload["key"] = c.key
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, c.schemas.write)
}

// do executes the request and classifies the outcome: transport
// failures and 5xx are ErrUnavailable, everything else that is not a
// well-formed ok=true envelope is ErrProtocol.
func (c *Client) do(req *http.Request, sch *jsonschema.Schema) (*envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: http %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: http %d: %s", ErrProtocol, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := validateBody(sch, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrProtocol, err)
	}
	if !env.OK {
		msg := env.Error
		if msg == "" {
			msg = "request rejected"
		}
		return nil, fmt.Errorf("%w: %s", ErrProtocol, msg)
	}
	return &env, nil
}
