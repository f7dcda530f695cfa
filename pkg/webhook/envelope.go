package webhook

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 form used for the envelope timestamp and
// the X-Webhook-Timestamp header. Times are always rendered in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Envelope is the JSON body delivered to subscribers.
type Envelope struct {
	Event     Event           `json:"event"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	WebhookID string          `json:"webhookId"`
}

// FormatTimestamp renders t the way receivers see it on the wire.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NewEnvelope builds the envelope for one subscription.
// Nil or empty data is sent as JSON null.
func NewEnvelope(event Event, occurredAt time.Time, data json.RawMessage, webhookID string) Envelope {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return Envelope{
		Event:     event,
		Timestamp: FormatTimestamp(occurredAt),
		Data:      data,
		WebhookID: webhookID,
	}
}

// Marshal returns the exact bytes that are signed and sent.
func (e Envelope) Marshal() ([]byte, error) {
	if !e.Event.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, e.Event)
	}
	if !json.Valid(e.Data) {
		return nil, fmt.Errorf("%w: data is not valid JSON", ErrInvalidPayload)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return b, nil
}
