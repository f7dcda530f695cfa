package delivery

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// Subscription is a tenant's registration of an endpoint for a set of events.
type Subscription struct {
	ID                  uuid.UUID       `json:"id"`
	TenantID            uuid.UUID       `json:"tenant_id"`
	URL                 string          `json:"url"`
	Secret              string          `json:"-"`
	Events              []webhook.Event `json:"events"`
	Description         string          `json:"description,omitempty"`
	Active              bool            `json:"active"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	LastTriggeredAt     *time.Time      `json:"last_triggered_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Subscribed reports whether the subscription is active and wants e.
func (s Subscription) Subscribed(e webhook.Event) bool {
	return s.Active && slices.Contains(s.Events, e)
}

// SubscriptionPatch lists the columns to change on a subscription. Nil
// fields keep their stored value. Setting Active to true on an inactive
// subscription also resets its failure counter.
type SubscriptionPatch struct {
	URL         *string
	Secret      *string
	Events      []webhook.Event
	Description *string
	Active      *bool
	UpdatedAt   time.Time
}

// AttemptRecord is the immutable log entry of a single delivery attempt.
type AttemptRecord struct {
	ID             uuid.UUID              `json:"id"`
	SubscriptionID uuid.UUID              `json:"subscription_id"`
	JobID          uuid.UUID              `json:"job_id"`
	EventID        uuid.UUID              `json:"event_id"`
	Event          webhook.Event          `json:"event"`
	Payload        json.RawMessage        `json:"payload"`
	AttemptNumber  int                    `json:"attempt_number"`
	StatusCode     int                    `json:"status_code"`
	ResponseBody   string                 `json:"response_body,omitempty"`
	Success        bool                   `json:"success"`
	Classification webhook.Classification `json:"classification"`
	Error          string                 `json:"error,omitempty"`
	Duration       time.Duration          `json:"duration"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Job tracks the delivery of one event instance to one subscription
// across all of its attempts.
type Job struct {
	ID             uuid.UUID
	EventID        uuid.UUID
	TenantID       uuid.UUID
	SubscriptionID uuid.UUID
	Event          webhook.Event
	Payload        json.RawMessage
	// OccurredAt is the envelope timestamp. It never changes between retries.
	OccurredAt time.Time
	// Attempt is the number of the next (or current, while attempting) attempt, starting at 1.
	Attempt       int
	State         JobState
	NextAttemptAt time.Time
	LockedBy      *uuid.UUID
	LockedUntil   *time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FinishedAt    *time.Time
}

// DispatchResult describes the jobs created for one event instance.
type DispatchResult struct {
	EventID    uuid.UUID
	Event      webhook.Event
	OccurredAt time.Time
	JobIDs     []uuid.UUID
}

// Disablement is passed to the Notifier when a subscription is deactivated
// after exhausting its retry budget.
type Disablement struct {
	Subscription Subscription
	JobID        uuid.UUID
	EventID      uuid.UUID
	Event        webhook.Event
	Attempts     int
	LastStatus   int
	LastError    string
	DisabledAt   time.Time
}
