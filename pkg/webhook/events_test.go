package webhook_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

func TestParseEvents(t *testing.T) {
	t.Parallel()

	events, err := webhook.ParseEvents([]string{"shipment.created", "balance.low", "shipment.created"})
	require.NoError(t, err)
	assert.Equal(t, []webhook.Event{webhook.EventShipmentCreated, webhook.EventBalanceLow}, events)

	_, err = webhook.ParseEvents(nil)
	assert.ErrorIs(t, err, webhook.ErrUnknownEvent)

	_, err = webhook.ParseEvents([]string{"shipment.exploded"})
	assert.ErrorIs(t, err, webhook.ErrUnknownEvent)

	assert.Len(t, webhook.Events(), 10)
	for _, e := range webhook.Events() {
		assert.True(t, e.Valid(), e)
	}
}

func TestEnvelopeMarshal(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 12, 30, 0, 123_000_000, time.FixedZone("EST", -5*3600))
	env := webhook.NewEnvelope(webhook.EventShipmentDelivered, at, json.RawMessage(`{"id":"s1"}`), "wh_1")

	b, err := env.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"shipment.delivered","timestamp":"2024-05-01T17:30:00.123Z","data":{"id":"s1"},"webhookId":"wh_1"}`, string(b))

	b, err = webhook.NewEnvelope(webhook.EventBalanceLow, at, nil, "wh_1").Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"data":null`)

	_, err = webhook.NewEnvelope("nope", at, nil, "wh_1").Marshal()
	assert.ErrorIs(t, err, webhook.ErrUnknownEvent)

	_, err = webhook.NewEnvelope(webhook.EventBalanceLow, at, json.RawMessage(`{broken`), "wh_1").Marshal()
	assert.ErrorIs(t, err, webhook.ErrInvalidPayload)
}
