package delivery

import (
	"errors"
	"time"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// Config holds the delivery pipeline settings.
//
// MaxRetries counts retries after the first attempt: the default of 5 gives
// six attempts in total (backoff 1s, 2s, 4s, 8s, 16s). Deployments that read
// "five retries" as five attempts in total set DELIVERY_MAX_RETRIES=4.
type Config struct {
	MaxRetries        int           `env:"DELIVERY_MAX_RETRIES" envDefault:"5"`
	BackoffBase       float64       `env:"DELIVERY_BACKOFF_BASE" envDefault:"2"`
	BackoffUnit       time.Duration `env:"DELIVERY_BACKOFF_UNIT" envDefault:"1s"`
	AttemptTimeout    time.Duration `env:"DELIVERY_ATTEMPT_TIMEOUT" envDefault:"10s"`
	ResponseBodyLimit int           `env:"DELIVERY_RESPONSE_BODY_LIMIT" envDefault:"500"`
	PollInterval      time.Duration `env:"DELIVERY_POLL_INTERVAL" envDefault:"1s"`
	BatchSize         int           `env:"DELIVERY_BATCH_SIZE" envDefault:"50"`
	Concurrency       int           `env:"DELIVERY_CONCURRENCY" envDefault:"10"`
	LeaseDuration     time.Duration `env:"DELIVERY_LEASE_DURATION" envDefault:"1m"`
}

// Validate checks the settings for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("DELIVERY_MAX_RETRIES must not be negative"))
	}
	if c.BackoffBase < 1 {
		errs = append(errs, errors.New("DELIVERY_BACKOFF_BASE must be at least 1"))
	}
	if c.BackoffUnit <= 0 || c.AttemptTimeout <= 0 || c.PollInterval <= 0 {
		errs = append(errs, errors.New("delivery durations must be positive"))
	}
	if c.LeaseDuration <= c.AttemptTimeout {
		errs = append(errs, errors.New("DELIVERY_LEASE_DURATION must exceed DELIVERY_ATTEMPT_TIMEOUT"))
	}
	if c.BatchSize <= 0 || c.Concurrency <= 0 {
		errs = append(errs, errors.New("DELIVERY_BATCH_SIZE and DELIVERY_CONCURRENCY must be positive"))
	}
	return errors.Join(errs...)
}

// Backoff returns the retry schedule described by the config.
func (c Config) Backoff() webhook.BackoffStrategy {
	return webhook.ExponentialBackoff{
		InitialInterval: c.BackoffUnit,
		Multiplier:      c.BackoffBase,
		MaxInterval:     24 * time.Hour,
	}
}

// SchedulerOptions converts the config into scheduler options.
func (c Config) SchedulerOptions() []SchedulerOption {
	return []SchedulerOption{
		WithMaxRetries(c.MaxRetries),
		WithBackoff(c.Backoff()),
	}
}

// WorkerOptions converts the config into worker options.
func (c Config) WorkerOptions() []WorkerOption {
	return []WorkerOption{
		WithPollInterval(c.PollInterval),
		WithBatchSize(c.BatchSize),
		WithConcurrency(c.Concurrency),
		WithLeaseDuration(c.LeaseDuration),
	}
}

// ExecutorOptions converts the config into webhook executor options.
func (c Config) ExecutorOptions() []webhook.Option {
	return []webhook.Option{
		webhook.WithTimeout(c.AttemptTimeout),
		webhook.WithBodyLimit(c.ResponseBodyLimit),
	}
}
