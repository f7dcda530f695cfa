package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/logger"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/metrics"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// Waker is notified when new work is available.
type Waker interface {
	Wake()
}

// Orchestrator is the entry point for domain events. It fans an event out
// into one persisted job per matching subscription and returns without
// waiting for any delivery.
type Orchestrator struct {
	resolver *Resolver
	jobs     JobRepository
	waker    Waker
	now      Clock
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(subs SubscriptionRepository, jobs JobRepository, opts ...OrchestratorOption) (*Orchestrator, error) {
	if subs == nil || jobs == nil {
		return nil, ErrRepositoryNil
	}

	o := &orchestratorOptions{
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Orchestrator{
		resolver: NewResolver(subs),
		jobs:     jobs,
		waker:    o.waker,
		now:      o.clock,
		logger:   o.logger.With(logger.Component("delivery.orchestrator")),
	}, nil
}

// Dispatch queues delivery of event to every active subscriber of tenantID.
// data may be any JSON-serializable value; json.RawMessage and []byte are
// passed through after validation.
//
// No subscribers is not an error: the result has no job ids. Resolution and
// persistence failures abort the whole dispatch and should be retried by the
// caller. Delivery is at-least-once; receivers must tolerate duplicates.
func (o *Orchestrator) Dispatch(ctx context.Context, tenantID uuid.UUID, event webhook.Event, data any) (*DispatchResult, error) {
	if !event.Valid() {
		return nil, fmt.Errorf("%w: %q", webhook.ErrUnknownEvent, event)
	}

	payload, err := encodePayload(data)
	if err != nil {
		return nil, err
	}

	subs, err := o.resolver.Resolve(ctx, tenantID, event)
	if err != nil {
		return nil, err
	}

	now := o.now().UTC()
	result := &DispatchResult{
		EventID:    uuid.New(),
		Event:      event,
		OccurredAt: now,
	}

	log := o.logger.With(
		logger.TenantID(tenantID),
		logger.Event(event.String()),
		logger.EventID(result.EventID),
	)

	if len(subs) == 0 {
		log.DebugContext(ctx, "no subscribers for event")
		return result, nil
	}

	jobs := make([]*Job, 0, len(subs))
	for _, sub := range subs {
		jobs = append(jobs, &Job{
			ID:             uuid.New(),
			EventID:        result.EventID,
			TenantID:       tenantID,
			SubscriptionID: sub.ID,
			Event:          event,
			Payload:        payload,
			OccurredAt:     now,
			Attempt:        1,
			State:          JobPending,
			NextAttemptAt:  now,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := o.jobs.CreateJobs(ctx, jobs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistJobs, err)
	}

	for _, j := range jobs {
		result.JobIDs = append(result.JobIDs, j.ID)
	}
	metrics.DeliveryJobsQueuedTotal.WithLabelValues(event.String()).Add(float64(len(jobs)))

	log.InfoContext(ctx, "event queued for delivery", slog.Int("subscribers", len(jobs)))

	if o.waker != nil {
		o.waker.Wake()
	}
	return result, nil
}

func encodePayload(data any) (json.RawMessage, error) {
	switch v := data.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidPayload)
		}
		return v, nil
	case []byte:
		if !json.Valid(v) {
			return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidPayload)
		}
		return json.RawMessage(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return b, nil
	}
}

// DispatchEvent is Dispatch for callers that only need to know whether the
// event was queued.
func (o *Orchestrator) DispatchEvent(ctx context.Context, tenantID uuid.UUID, event webhook.Event, data any) error {
	_, err := o.Dispatch(ctx, tenantID, event, data)
	return err
}
