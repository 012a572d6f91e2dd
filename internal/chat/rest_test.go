package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaraujo/picklist/internal/view"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newChatServer(t *testing.T, status int, response string, rec *recorded) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec != nil {
			rec.method = r.Method
			rec.path = r.URL.Path
			rec.auth = r.Header.Get("Authorization")
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				// Some endpoints take a JSON array; only object bodies
				// are captured for assertions.
				_ = json.Unmarshal(data, &rec.body)
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
}

func sampleMessage() view.Message {
	return view.Message{
		Title:       "📦 Order check",
		Description: "**Order:** ORD-1",
		Footer:      "Mark item by item or use the page buttons.",
		Rows: []view.Row{{Buttons: []view.Button{
			{ID: "item:have:ORD-1:0:sku-1", Label: "Have 1", Style: view.StyleSuccess},
		}}},
	}
}

func Test_Rest_SendMessage(t *testing.T) {
	var rec recorded
	srv := newChatServer(t, http.StatusOK, `{"id": "msg-1"}`, &rec)
	defer srv.Close()

	c := NewRest(srv.URL, "tok", "app-1", nil)
	id, err := c.SendMessage(context.Background(), "chan-1", sampleMessage())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/channels/chan-1/messages", rec.path)
	assert.Equal(t, "Bot tok", rec.auth)

	embeds, ok := rec.body["embeds"].([]any)
	require.True(t, ok)
	require.Len(t, embeds, 1)
	components, ok := rec.body["components"].([]any)
	require.True(t, ok)
	require.Len(t, components, 1)
}

func Test_Rest_SendMessage_NoID(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, `{}`, nil)
	defer srv.Close()

	_, err := NewRest(srv.URL, "tok", "app-1", nil).SendMessage(context.Background(), "chan-1", sampleMessage())
	assert.Error(t, err)
}

func Test_Rest_EditMessage(t *testing.T) {
	var rec recorded
	srv := newChatServer(t, http.StatusOK, `{}`, &rec)
	defer srv.Close()

	err := NewRest(srv.URL, "tok", "app-1", nil).EditMessage(context.Background(), "chan-1", "msg-1", sampleMessage())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/channels/chan-1/messages/msg-1", rec.path)
}

func Test_Rest_DeleteMessage_GoneIsSuccess(t *testing.T) {
	srv := newChatServer(t, http.StatusNotFound, `{"message": "Unknown Message"}`, nil)
	defer srv.Close()

	err := NewRest(srv.URL, "tok", "app-1", nil).DeleteMessage(context.Background(), "chan-1", "msg-1")
	assert.NoError(t, err)
}

func Test_Rest_DeleteMessage_OtherErrors(t *testing.T) {
	srv := newChatServer(t, http.StatusForbidden, `{"message": "Missing Permissions"}`, nil)
	defer srv.Close()

	err := NewRest(srv.URL, "tok", "app-1", nil).DeleteMessage(context.Background(), "chan-1", "msg-1")
	assert.Error(t, err)
}

func Test_IsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&httpError{status: http.StatusNotFound}))
	// Survives wrapping.
	assert.True(t, isNotFound(fmt.Errorf("delete: %w", &httpError{status: http.StatusNotFound})))
	assert.False(t, isNotFound(fmt.Errorf("delete: %w", &httpError{status: http.StatusForbidden})))
	assert.False(t, isNotFound(nil))
}

func Test_Rest_AckEphemeral(t *testing.T) {
	var rec recorded
	srv := newChatServer(t, http.StatusNoContent, "", &rec)
	defer srv.Close()

	ev := Event{InteractionID: "int-1", Token: "tok-1"}
	err := NewRest(srv.URL, "tok", "app-1", nil).AckEphemeral(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, "/interactions/int-1/tok-1/callback", rec.path)
	assert.Equal(t, float64(callbackDeferReply), rec.body["type"])
	data, ok := rec.body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(flagEphemeral), data["flags"])
}

func Test_Rest_ShowModal(t *testing.T) {
	var rec recorded
	srv := newChatServer(t, http.StatusNoContent, "", &rec)
	defer srv.Close()

	ev := Event{InteractionID: "int-1", Token: "tok-1"}
	err := NewRest(srv.URL, "tok", "app-1", nil).ShowModal(context.Background(), ev, Modal{
		CustomID: "note:miss:ORD-1:0:sku-1",
		Title:    "Missing item",
		FieldID:  "note",
		Label:    "What exactly is missing? (optional)",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(callbackModal), rec.body["type"])
	data, ok := rec.body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "note:miss:ORD-1:0:sku-1", data["custom_id"])
}

func Test_Rest_RegisterCommands(t *testing.T) {
	var rec recorded
	srv := newChatServer(t, http.StatusOK, `[]`, &rec)
	defer srv.Close()

	c := NewRest(srv.URL, "tok", "app-1", nil)
	err := c.RegisterCommands(context.Background(), "guild-1", []Command{{Name: "ping", Description: "d"}})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/applications/app-1/guilds/guild-1/commands", rec.path)

	// Without a guild id registration is global.
	err = c.RegisterCommands(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "/applications/app-1/commands", rec.path)
}
