package delivery

import (
	"log/slog"
	"time"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// Clock returns the current time. Tests replace it to control scheduling.
type Clock func() time.Time

type schedulerOptions struct {
	maxRetries int
	backoff    webhook.BackoffStrategy
	notifier   Notifier
	clock      Clock
	logger     *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*schedulerOptions)

// WithMaxRetries sets how many retries follow the first attempt. Default 5.
func WithMaxRetries(n int) SchedulerOption {
	return func(o *schedulerOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithBackoff sets the retry schedule. Default webhook.DefaultBackoffStrategy.
func WithBackoff(b webhook.BackoffStrategy) SchedulerOption {
	return func(o *schedulerOptions) {
		if b != nil {
			o.backoff = b
		}
	}
}

// WithNotifier receives subscription deactivations.
func WithNotifier(n Notifier) SchedulerOption {
	return func(o *schedulerOptions) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithSchedulerClock overrides time.Now.
func WithSchedulerClock(c Clock) SchedulerOption {
	return func(o *schedulerOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(o *schedulerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

type workerOptions struct {
	pollInterval  time.Duration
	batchSize     int
	concurrency   int
	leaseDuration time.Duration
	clock         Clock
	logger        *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*workerOptions)

// WithPollInterval sets how often the worker looks for due jobs when not woken.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithBatchSize caps how many jobs are claimed per poll.
func WithBatchSize(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithConcurrency caps concurrent delivery attempts.
func WithConcurrency(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLeaseDuration sets how long a claimed job stays invisible to other workers.
func WithLeaseDuration(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.leaseDuration = d
		}
	}
}

// WithWorkerClock overrides time.Now.
func WithWorkerClock(c Clock) WorkerOption {
	return func(o *workerOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

type orchestratorOptions struct {
	waker  Waker
	clock  Clock
	logger *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*orchestratorOptions)

// WithWaker is poked after new jobs are stored so they are attempted without
// waiting for the next poll.
func WithWaker(w Waker) OrchestratorOption {
	return func(o *orchestratorOptions) {
		if w != nil {
			o.waker = w
		}
	}
}

// WithOrchestratorClock overrides time.Now.
func WithOrchestratorClock(c Clock) OrchestratorOption {
	return func(o *orchestratorOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithOrchestratorLogger sets the orchestrator logger.
func WithOrchestratorLogger(l *slog.Logger) OrchestratorOption {
	return func(o *orchestratorOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
