package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/logger"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/metrics"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// DefaultMaxRetries is the number of retries after the first attempt.
const DefaultMaxRetries = 5

// Decision is the scheduler's verdict for a job after one attempt.
type Decision struct {
	Classification webhook.Classification
	State          JobState
	// Delay and NextAttemptAt are set only when State is JobPending.
	Delay         time.Duration
	NextAttemptAt time.Time
	// Deactivate is set when the retry budget is exhausted.
	Deactivate bool
}

// Scheduler turns attempt outcomes into job and subscription state changes.
// It never performs HTTP calls.
type Scheduler struct {
	subs       SubscriptionRepository
	jobs       JobRepository
	maxRetries int
	backoff    webhook.BackoffStrategy
	notifier   Notifier
	now        Clock
	logger     *slog.Logger
}

// NewScheduler creates a scheduler with a 5-retry budget and a 1s/2s/4s/8s/16s backoff.
func NewScheduler(subs SubscriptionRepository, jobs JobRepository, opts ...SchedulerOption) (*Scheduler, error) {
	if subs == nil || jobs == nil {
		return nil, ErrRepositoryNil
	}

	o := &schedulerOptions{
		maxRetries: DefaultMaxRetries,
		backoff:    webhook.DefaultBackoffStrategy(),
		clock:      time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Scheduler{
		subs:       subs,
		jobs:       jobs,
		maxRetries: o.maxRetries,
		backoff:    o.backoff,
		notifier:   o.notifier,
		now:        o.clock,
		logger:     o.logger.With(logger.Component("delivery.scheduler")),
	}, nil
}

// Decide is the pure retry policy. job.Attempt is the number of the attempt
// that produced out.
//
// A transient failure is retried while job.Attempt <= maxRetries, waiting
// backoff.NextInterval(job.Attempt) before the next try. With the defaults
// that is 1s, 2s, 4s, 8s and 16s, after which the job is exhausted.
func (s *Scheduler) Decide(job Job, out webhook.Outcome, now time.Time) Decision {
	d := Decision{Classification: out.Classification}

	switch out.Classification {
	case webhook.Success:
		d.State = JobDelivered
	case webhook.PermanentFailure:
		d.State = JobPermanentlyFailed
	default:
		d.Classification = webhook.TransientFailure
		if job.Attempt <= s.maxRetries {
			d.State = JobPending
			d.Delay = s.backoff.NextInterval(job.Attempt)
			if d.Delay <= 0 {
				d.Delay = time.Millisecond
			}
			d.NextAttemptAt = now.Add(d.Delay)
		} else {
			d.State = JobExhausted
			d.Deactivate = true
		}
	}
	return d
}

// OnOutcome applies Decide to job and persists the result: the job first,
// then the subscription counters. On exhaustion the subscription is
// deactivated and the notifier is called.
//
// When the job's lease was taken over by another worker the error wraps
// ErrLeaseLost and neither the job nor the subscription is changed.
func (s *Scheduler) OnOutcome(ctx context.Context, job *Job, out webhook.Outcome) (Decision, error) {
	now := s.now()
	d := s.Decide(*job, out, now)

	next := *job
	if err := next.Transition(ctx, d.State); err != nil {
		return d, err
	}
	next.UpdatedAt = now
	next.LastError = ""
	if out.Err != nil {
		next.LastError = out.Err.Error()
	}

	finishedAttempt := next.Attempt
	if d.State == JobPending {
		next.Attempt++
		next.NextAttemptAt = d.NextAttemptAt
	} else {
		next.FinishedAt = &now
	}

	if err := s.jobs.UpdateJob(ctx, &next); err != nil {
		return d, fmt.Errorf("update job %s: %w", job.ID, err)
	}
	*job = next
	if job.State.Terminal() {
		metrics.DeliveryJobsFinishedTotal.WithLabelValues(string(job.State)).Inc()
	}

	log := s.logger.With(
		logger.TenantID(job.TenantID),
		logger.SubscriptionID(job.SubscriptionID),
		logger.JobID(job.ID),
		logger.Event(job.Event.String()),
		logger.Attempt(finishedAttempt),
	)

	switch d.Classification {
	case webhook.Success:
		if err := s.subs.RecordDeliverySuccess(ctx, job.SubscriptionID, now); err != nil {
			return d, fmt.Errorf("record success for subscription %s: %w", job.SubscriptionID, err)
		}

	case webhook.PermanentFailure:
		log.WarnContext(ctx, "webhook rejected by receiver, not retrying",
			logger.StatusCode(out.StatusCode),
			logger.Error(out.Err))

	case webhook.TransientFailure:
		failures, err := s.subs.RecordDeliveryFailure(ctx, job.SubscriptionID)
		if err != nil {
			return d, fmt.Errorf("record failure for subscription %s: %w", job.SubscriptionID, err)
		}
		if !d.Deactivate {
			log.InfoContext(ctx, "webhook delivery will be retried",
				slog.Duration("delay", d.Delay),
				slog.Int("consecutive_failures", failures),
				logger.Error(out.Err))
			return d, nil
		}
		return d, s.disable(ctx, log, job, out, failures, now)
	}

	return d, nil
}

// Cancel ends a job without attempting it, used when its subscription was
// deactivated or removed after the job was scheduled.
func (s *Scheduler) Cancel(ctx context.Context, job *Job, reason string) error {
	next := *job
	if err := next.Fire(ctx, JobCancel); err != nil {
		return err
	}
	now := s.now()
	next.LastError = reason
	next.UpdatedAt = now
	next.FinishedAt = &now
	if err := s.jobs.UpdateJob(ctx, &next); err != nil {
		return fmt.Errorf("cancel job %s: %w", job.ID, err)
	}
	*job = next
	metrics.DeliveryJobsFinishedTotal.WithLabelValues(string(JobCancelled)).Inc()
	s.logger.InfoContext(ctx, "delivery job cancelled",
		logger.JobID(job.ID),
		logger.SubscriptionID(job.SubscriptionID),
		slog.String("reason", reason))
	return nil
}

func (s *Scheduler) disable(ctx context.Context, log *slog.Logger, job *Job, out webhook.Outcome, failures int, now time.Time) error {
	if err := s.subs.DeactivateSubscription(ctx, job.SubscriptionID, now); err != nil {
		return fmt.Errorf("deactivate subscription %s: %w", job.SubscriptionID, err)
	}
	metrics.SubscriptionsDisabledTotal.Inc()

	log.WarnContext(ctx, "webhook subscription deactivated after exhausting retries",
		slog.Int("consecutive_failures", failures),
		logger.StatusCode(out.StatusCode),
		logger.Error(out.Err))

	if s.notifier == nil {
		return nil
	}

	sub, err := s.subs.GetSubscription(ctx, job.SubscriptionID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil
		}
		return fmt.Errorf("load deactivated subscription %s: %w", job.SubscriptionID, err)
	}

	lastErr := ""
	if out.Err != nil {
		lastErr = out.Err.Error()
	}
	if err := s.notifier.SubscriptionDisabled(ctx, Disablement{
		Subscription: *sub,
		JobID:        job.ID,
		EventID:      job.EventID,
		Event:        job.Event,
		Attempts:     job.Attempt,
		LastStatus:   out.StatusCode,
		LastError:    lastErr,
		DisabledAt:   now,
	}); err != nil {
		log.ErrorContext(ctx, "failed to notify about deactivated subscription", logger.Error(err))
	}
	return nil
}
