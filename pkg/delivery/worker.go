package delivery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/logger"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/metrics"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// Attempter performs one delivery attempt. *webhook.Executor implements it.
type Attempter interface {
	Attempt(ctx context.Context, req webhook.Request) webhook.Outcome
}

// Worker claims due jobs, attempts them and hands outcomes to the Scheduler.
type Worker struct {
	store     Store
	attempter Attempter
	scheduler *Scheduler
	workerID  uuid.UUID

	pollInterval  time.Duration
	batchSize     int
	concurrency   int
	leaseDuration time.Duration
	now           Clock
	logger        *slog.Logger

	wake chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a delivery worker.
func NewWorker(store Store, attempter Attempter, scheduler *Scheduler, opts ...WorkerOption) (*Worker, error) {
	if store == nil {
		return nil, ErrRepositoryNil
	}
	if attempter == nil || scheduler == nil {
		return nil, errors.New("delivery worker requires an attempter and a scheduler")
	}

	o := &workerOptions{
		pollInterval:  time.Second,
		batchSize:     50,
		concurrency:   10,
		leaseDuration: time.Minute,
		clock:         time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	id := uuid.New()
	return &Worker{
		store:         store,
		attempter:     attempter,
		scheduler:     scheduler,
		workerID:      id,
		pollInterval:  o.pollInterval,
		batchSize:     o.batchSize,
		concurrency:   o.concurrency,
		leaseDuration: o.leaseDuration,
		now:           o.clock,
		logger:        o.logger.With(logger.Component("delivery.worker"), slog.String("worker_id", id.String())),
		wake:          make(chan struct{}, 1),
	}, nil
}

// Wake asks the worker to poll immediately. It never blocks.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start begins polling in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return ErrWorkerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx, w.done)

	w.logger.Info("delivery worker started",
		slog.Int("concurrency", w.concurrency),
		slog.Duration("poll_interval", w.pollInterval))
	return nil
}

// Stop cancels polling and waits for in-flight attempts to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotRunning
	}
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("delivery worker stopped")
	return nil
}

// Run starts the worker and returns a function suitable for errgroup.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-w.wake:
		}

		// Drain full batches before going back to sleep.
		for {
			n, err := w.ProcessDue(ctx)
			if err != nil {
				if ctx.Err() == nil {
					w.logger.Error("failed to process due delivery jobs", logger.Error(err))
				}
				break
			}
			if n < w.batchSize || ctx.Err() != nil {
				break
			}
		}
	}
}

// ProcessDue claims one batch of due jobs and runs their attempts concurrently.
// It returns once every claimed job has been handled. A failure in one job
// is logged and never affects the others; the returned error only reports a
// failed claim.
func (w *Worker) ProcessDue(ctx context.Context) (int, error) {
	jobs, err := w.store.ClaimDueJobs(ctx, w.workerID, w.now(), w.batchSize, w.leaseDuration)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	// In-flight attempts run to their own timeout even if ctx is cancelled.
	jobCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			w.processJob(jobCtx, job)
			return nil
		})
	}
	_ = g.Wait()

	return len(jobs), nil
}

func (w *Worker) processJob(ctx context.Context, job *Job) {
	log := w.logger.With(
		logger.TenantID(job.TenantID),
		logger.SubscriptionID(job.SubscriptionID),
		logger.JobID(job.ID),
		logger.EventID(job.EventID),
		logger.Event(job.Event.String()),
		logger.Attempt(job.Attempt),
	)

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "delivery job panicked", slog.Any("panic", r))
		}
	}()

	sub, err := w.store.GetSubscription(ctx, job.SubscriptionID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		w.cancelJob(ctx, log, job, "subscription deleted")
		return
	case err != nil:
		// The lease expires and the job is picked up again.
		log.ErrorContext(ctx, "failed to load subscription for delivery", logger.Error(err))
		return
	case !sub.Active:
		w.cancelJob(ctx, log, job, "subscription inactive")
		return
	case !sub.Subscribed(job.Event):
		w.cancelJob(ctx, log, job, "subscription no longer includes event")
		return
	}

	out := w.attempter.Attempt(ctx, webhook.Request{
		URL:        sub.URL,
		Secret:     sub.Secret,
		WebhookID:  sub.ID.String(),
		Event:      job.Event,
		OccurredAt: job.OccurredAt,
		Data:       job.Payload,
	})

	metrics.DeliveryAttemptsTotal.WithLabelValues(job.Event.String(), string(out.Classification)).Inc()
	metrics.DeliveryAttemptDuration.WithLabelValues(string(out.Classification)).Observe(out.Duration.Seconds())

	rec := &AttemptRecord{
		ID:             uuid.New(),
		SubscriptionID: job.SubscriptionID,
		JobID:          job.ID,
		EventID:        job.EventID,
		Event:          job.Event,
		Payload:        out.Payload,
		AttemptNumber:  job.Attempt,
		StatusCode:     out.StatusCode,
		ResponseBody:   out.ResponseBody,
		Success:        out.Success(),
		Classification: out.Classification,
		Duration:       out.Duration,
		CreatedAt:      w.now(),
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	if err := w.store.AppendAttempt(ctx, rec); err != nil {
		log.ErrorContext(ctx, "failed to record delivery attempt", logger.Error(err))
	}

	log.DebugContext(ctx, "delivery attempt finished",
		logger.Classification(string(out.Classification)),
		logger.StatusCode(out.StatusCode),
		logger.Duration(out.Duration),
		logger.Error(out.Err))

	_, err = w.scheduler.OnOutcome(ctx, job, out)
	switch {
	case errors.Is(err, ErrLeaseLost):
		log.WarnContext(ctx, "delivery job lease lost, outcome discarded",
			logger.Classification(string(out.Classification)),
			logger.Error(err))
	case err != nil:
		log.ErrorContext(ctx, "failed to apply delivery outcome", logger.Error(err))
	}
}

func (w *Worker) cancelJob(ctx context.Context, log *slog.Logger, job *Job, reason string) {
	err := w.scheduler.Cancel(ctx, job, reason)
	switch {
	case errors.Is(err, ErrLeaseLost):
		log.WarnContext(ctx, "delivery job lease lost, not cancelled", logger.Error(err))
	case err != nil:
		log.ErrorContext(ctx, "failed to cancel delivery job", logger.Error(err))
	}
}
