package balance

import (
	"errors"
	"time"
)

// Config holds the balancing settings read from the environment.
type Config struct {
	Enabled    bool          `env:"BALANCE_ENABLED" envDefault:"true"`
	Interval   time.Duration `env:"BALANCE_INTERVAL" envDefault:"15m"`
	LockTTL    time.Duration `env:"BALANCE_LOCK_TTL" envDefault:"10m"`
	PolicyFile string        `env:"BALANCE_POLICY_FILE"`
	// BatchSize overrides the policy batch size when positive.
	BatchSize int `env:"BALANCE_BATCH_SIZE"`
}

// Validate checks the settings for values the rebalancer cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, errors.New("BALANCE_INTERVAL must be positive"))
	}
	if c.LockTTL <= 0 {
		errs = append(errs, errors.New("BALANCE_LOCK_TTL must be positive"))
	}
	if c.BatchSize < 0 {
		errs = append(errs, errors.New("BALANCE_BATCH_SIZE must not be negative"))
	}
	return errors.Join(errs...)
}

// Policy loads the policy file when one is configured and applies the batch
// size override on top.
func (c Config) Policy() (Policy, error) {
	p := DefaultPolicy()
	if c.PolicyFile != "" {
		var err error
		if p, err = LoadPolicy(c.PolicyFile); err != nil {
			return Policy{}, err
		}
	}
	if c.BatchSize > 0 {
		p.BatchSize = c.BatchSize
	}
	return p, p.Validate()
}

// RebalancerOptions converts the config into rebalancer options.
func (c Config) RebalancerOptions() []RebalancerOption {
	return []RebalancerOption{
		WithInterval(c.Interval),
		WithLockTTL(c.LockTTL),
	}
}
