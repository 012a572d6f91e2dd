package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// DefaultGatewayURL is the platform's websocket gateway endpoint.
const DefaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway opcodes.
const (
	opDispatch        = 0
	opHeartbeat       = 1
	opIdentify        = 2
	opReconnect       = 7
	opInvalidSession  = 9
	opHello           = 10
	opHeartbeatAck    = 11
	intentGuilds      = 1 << 0
	dispatchInteract  = "INTERACTION_CREATE"
	reconnectBaseWait = time.Second
	reconnectMaxWait  = time.Minute
)

// Handler consumes one interaction event. It is invoked on its own
// goroutine; the gateway read loop never blocks on it.
type Handler func(ctx context.Context, ev Event)

// Gateway maintains the websocket session that delivers interaction
// events and dispatches them to a Handler.
type Gateway struct {
	url     string
	token   string
	handler Handler
	logger  *slog.Logger
}

// NewGateway creates a gateway client. An empty url falls back to
// DefaultGatewayURL.
func NewGateway(url, token string, handler Handler, logger *slog.Logger) *Gateway {
	if url == "" {
		url = DefaultGatewayURL
	}
	return &Gateway{url: url, token: token, handler: handler, logger: logger}
}

type gatewayPayload struct {
	Op int             `json:"op"`
	T  string          `json:"t,omitempty"`
	S  *int64          `json:"s,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

// Run connects and processes events until the context is canceled,
// reconnecting with capped backoff after session failures.
func (g *Gateway) Run(ctx context.Context) error {
	wait := reconnectBaseWait
	for {
		err := g.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		g.logger.Warn("gateway session ended, reconnecting", "error", err, "wait", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > reconnectMaxWait {
			wait = reconnectMaxWait
		}
	}
}

// session runs one connect-identify-read cycle.
func (g *Gateway) session(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, g.url, nil)
	if err != nil {
		return fmt.Errorf("gateway dial: %w", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "shutting down") }()
	conn.SetReadLimit(1 << 20)

	var hello gatewayPayload
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		return fmt.Errorf("gateway hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("gateway hello: unexpected op %d", hello.Op)
	}
	var helloData struct {
		HeartbeatInterval int64 `json:"heartbeat_interval"`
	}
	if err := json.Unmarshal(hello.D, &helloData); err != nil {
		return fmt.Errorf("gateway hello: %w", err)
	}

	identify := gatewayPayload{Op: opIdentify}
	identify.D, _ = json.Marshal(map[string]any{
		"token":   g.token,
		"intents": intentGuilds,
		"properties": map[string]string{
			"os":      "linux",
			"browser": "picklist",
			"device":  "picklist",
		},
	})
	if err := wsjson.Write(ctx, conn, identify); err != nil {
		return fmt.Errorf("gateway identify: %w", err)
	}
	g.logger.Info("gateway connected")

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var lastSeq int64
	seq := func() *int64 {
		if lastSeq == 0 {
			return nil
		}
		v := lastSeq
		return &v
	}
	heartbeatErr := make(chan error, 1)
	go func() {
		interval := time.Duration(helloData.HeartbeatInterval) * time.Millisecond
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-sessionCtx.Done():
				return
			case <-ticker.C:
				if err := g.writeHeartbeat(sessionCtx, conn, seq()); err != nil {
					heartbeatErr <- err
					return
				}
			}
		}
	}()

	for {
		select {
		case err := <-heartbeatErr:
			return fmt.Errorf("gateway heartbeat: %w", err)
		default:
		}
		var payload gatewayPayload
		if err := wsjson.Read(ctx, conn, &payload); err != nil {
			return fmt.Errorf("gateway read: %w", err)
		}
		if payload.S != nil {
			lastSeq = *payload.S
		}
		switch payload.Op {
		case opDispatch:
			if payload.T == dispatchInteract {
				g.dispatch(ctx, payload.D)
			}
		case opHeartbeat:
			if err := g.writeHeartbeat(ctx, conn, seq()); err != nil {
				return fmt.Errorf("gateway heartbeat: %w", err)
			}
		case opReconnect, opInvalidSession:
			return errors.New("gateway requested reconnect")
		case opHeartbeatAck:
		}
	}
}

func (g *Gateway) writeHeartbeat(ctx context.Context, conn *websocket.Conn, seq *int64) error {
	hb := gatewayPayload{Op: opHeartbeat}
	hb.D, _ = json.Marshal(seq)
	return wsjson.Write(ctx, conn, hb)
}

// dispatch translates a raw interaction into an Event and hands it to
// the handler on its own goroutine.
func (g *Gateway) dispatch(ctx context.Context, raw json.RawMessage) {
	ev, err := parseInteraction(raw)
	if err != nil {
		g.logger.Warn("unparseable interaction dropped", "error", err)
		return
	}
	go g.handler(ctx, ev)
}

func parseInteraction(raw json.RawMessage) (Event, error) {
	var p struct {
		ID        string `json:"id"`
		Type      int    `json:"type"`
		Token     string `json:"token"`
		ChannelID string `json:"channel_id"`
		Message   *struct {
			ID string `json:"id"`
		} `json:"message"`
		Member *struct {
			User struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"member"`
		User *struct {
			Username string `json:"username"`
		} `json:"user"`
		Data struct {
			Name     string `json:"name"`
			CustomID string `json:"custom_id"`
			Options  []struct {
				Name string `json:"name"`
				Type int    `json:"type"`
			} `json:"options"`
			Components []struct {
				Components []struct {
					CustomID string `json:"custom_id"`
					Value    string `json:"value"`
				} `json:"components"`
			} `json:"components"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Event{}, err
	}

	ev := Event{
		InteractionID: p.ID,
		Token:         p.Token,
		ChannelID:     p.ChannelID,
		CustomID:      p.Data.CustomID,
	}
	if p.Message != nil {
		ev.MessageID = p.Message.ID
	}
	switch {
	case p.Member != nil:
		ev.Actor = p.Member.User.Username
	case p.User != nil:
		ev.Actor = p.User.Username
	}

	switch p.Type {
	case interactionCommand:
		ev.Type = EventCommand
		ev.Command = p.Data.Name
		for _, opt := range p.Data.Options {
			if opt.Type == OptionSubcommand {
				ev.Subcommand = opt.Name
				break
			}
		}
	case interactionComponent:
		ev.Type = EventButton
	case interactionModalSubmit:
		ev.Type = EventModal
		ev.Inputs = make(map[string]string)
		for _, row := range p.Data.Components {
			for _, comp := range row.Components {
				ev.Inputs[comp.CustomID] = comp.Value
			}
		}
	default:
		return Event{}, fmt.Errorf("unsupported interaction type %d", p.Type)
	}
	return ev, nil
}
