package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseInteraction_Command(t *testing.T) {
	raw := []byte(`{
		"id": "int-1",
		"type": 2,
		"token": "tok-1",
		"channel_id": "chan-1",
		"member": {"user": {"username": "picker"}},
		"data": {
			"name": "orders",
			"options": [{"name": "sync", "type": 1}]
		}
	}`)

	ev, err := parseInteraction(raw)
	require.NoError(t, err)
	assert.Equal(t, EventCommand, ev.Type)
	assert.Equal(t, "orders", ev.Command)
	assert.Equal(t, "sync", ev.Subcommand)
	assert.Equal(t, "picker", ev.Actor)
	assert.Equal(t, "int-1", ev.InteractionID)
}

func Test_ParseInteraction_Button(t *testing.T) {
	raw := []byte(`{
		"id": "int-2",
		"type": 3,
		"token": "tok-2",
		"channel_id": "chan-1",
		"message": {"id": "msg-42"},
		"user": {"username": "picker"},
		"data": {"custom_id": "item:have:ORD-1:0:sku-1"}
	}`)

	ev, err := parseInteraction(raw)
	require.NoError(t, err)
	assert.Equal(t, EventButton, ev.Type)
	assert.Equal(t, "item:have:ORD-1:0:sku-1", ev.CustomID)
	assert.Equal(t, "msg-42", ev.MessageID)
	assert.Equal(t, "picker", ev.Actor)
}

func Test_ParseInteraction_Modal(t *testing.T) {
	raw := []byte(`{
		"id": "int-3",
		"type": 5,
		"token": "tok-3",
		"channel_id": "chan-1",
		"message": {"id": "msg-42"},
		"data": {
			"custom_id": "note:miss:ORD-1:0:sku-1",
			"components": [{"components": [{"custom_id": "note", "value": "no lavender"}]}]
		}
	}`)

	ev, err := parseInteraction(raw)
	require.NoError(t, err)
	assert.Equal(t, EventModal, ev.Type)
	assert.Equal(t, "note:miss:ORD-1:0:sku-1", ev.CustomID)
	assert.Equal(t, map[string]string{"note": "no lavender"}, ev.Inputs)
}

func Test_ParseInteraction_Unsupported(t *testing.T) {
	// Type 1 is the gateway ping; it never reaches the dispatcher as an
	// event.
	_, err := parseInteraction([]byte(`{"id": "int-4", "type": 1}`))
	assert.Error(t, err)

	_, err = parseInteraction([]byte(`{not json`))
	assert.Error(t, err)
}
