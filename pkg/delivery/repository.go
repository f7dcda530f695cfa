package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// SubscriptionRepository persists webhook subscriptions.
// Lookups of missing rows return ErrSubscriptionNotFound.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, sub *Subscription) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)
	ListSubscriptions(ctx context.Context, tenantID uuid.UUID) ([]Subscription, error)
	// ListActiveSubscriptions returns active subscriptions of tenantID that include event.
	ListActiveSubscriptions(ctx context.Context, tenantID uuid.UUID, event webhook.Event) ([]Subscription, error)
	// UpdateSubscription applies patch atomically and returns the stored result.
	UpdateSubscription(ctx context.Context, id uuid.UUID, patch SubscriptionPatch) (*Subscription, error)
	DeleteSubscription(ctx context.Context, id uuid.UUID) error

	// RecordDeliverySuccess resets the failure counter and stamps the last trigger time.
	RecordDeliverySuccess(ctx context.Context, id uuid.UUID, at time.Time) error
	// RecordDeliveryFailure increments the failure counter and returns the new value.
	RecordDeliveryFailure(ctx context.Context, id uuid.UUID) (int, error)
	// DeactivateSubscription sets active=false.
	DeactivateSubscription(ctx context.Context, id uuid.UUID, at time.Time) error
}

// AttemptRepository is the append-only delivery log.
type AttemptRepository interface {
	AppendAttempt(ctx context.Context, rec *AttemptRecord) error
	// ListAttempts returns the newest records first. A non-positive limit returns all.
	ListAttempts(ctx context.Context, subscriptionID uuid.UUID, limit int) ([]AttemptRecord, error)
}

// JobRepository persists pending delivery jobs.
type JobRepository interface {
	CreateJobs(ctx context.Context, jobs []*Job) error
	// ClaimDueJobs leases up to limit jobs that are pending and due at now,
	// or attempting with an expired lease. Claimed jobs are returned in the
	// attempting state. Reclaiming an expired lease counts the abandoned try
	// as an attempt, so attempt numbers never repeat.
	ClaimDueJobs(ctx context.Context, workerID uuid.UUID, now time.Time, limit int, lease time.Duration) ([]*Job, error)
	// UpdateJob stores the job's state, attempt, schedule and error, and
	// releases its lease. The stored job must still be attempting under the
	// lease in job.LockedBy, otherwise nothing is written and ErrLeaseLost
	// is returned.
	UpdateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
}

// Store groups every repository the delivery pipeline needs.
type Store interface {
	SubscriptionRepository
	AttemptRepository
	JobRepository
}

// Notifier is told when a subscription is switched off by the circuit breaker.
type Notifier interface {
	SubscriptionDisabled(ctx context.Context, d Disablement) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, d Disablement) error

func (f NotifierFunc) SubscriptionDisabled(ctx context.Context, d Disablement) error {
	return f(ctx, d)
}
