package balance

import (
	"log/slog"
	"time"
)

// Clock returns the current time. Tests replace it to control timestamps.
type Clock func() time.Time

type engineOptions struct {
	policy     Policy
	proximity  ProximityFunc
	events     EventDispatcher
	starvation StarvationNotifier
	clock      Clock
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) EngineOption {
	return func(o *engineOptions) {
		o.policy = p
	}
}

// WithProximity replaces the geographic term of the score.
func WithProximity(fn ProximityFunc) EngineOption {
	return func(o *engineOptions) {
		if fn != nil {
			o.proximity = fn
		}
	}
}

// WithEventDispatcher emits shipment.status_updated webhooks for assignments.
func WithEventDispatcher(d EventDispatcher) EngineOption {
	return func(o *engineOptions) {
		if d != nil {
			o.events = d
		}
	}
}

// WithStarvationNotifier receives shipments that stay unassigned for
// Policy.StarvationThreshold consecutive cycles.
func WithStarvationNotifier(n StarvationNotifier) EngineOption {
	return func(o *engineOptions) {
		if n != nil {
			o.starvation = n
		}
	}
}

// WithEngineClock overrides time.Now.
func WithEngineClock(c Clock) EngineOption {
	return func(o *engineOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

type rebalancerOptions struct {
	interval time.Duration
	lockKey  string
	lockTTL  time.Duration
	locker   Locker
	logger   *slog.Logger
}

// RebalancerOption configures a Rebalancer.
type RebalancerOption func(*rebalancerOptions)

// WithInterval sets the time between scheduled cycles. Default 15 minutes.
func WithInterval(d time.Duration) RebalancerOption {
	return func(o *rebalancerOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithLocker replaces the in-process lock with a shared one so that only one
// replica rebalances at a time.
func WithLocker(l Locker) RebalancerOption {
	return func(o *rebalancerOptions) {
		if l != nil {
			o.locker = l
		}
	}
}

// WithLockKey sets the key used with the Locker.
func WithLockKey(key string) RebalancerOption {
	return func(o *rebalancerOptions) {
		if key != "" {
			o.lockKey = key
		}
	}
}

// WithLockTTL bounds how long a crashed holder can block other cycles.
func WithLockTTL(d time.Duration) RebalancerOption {
	return func(o *rebalancerOptions) {
		if d > 0 {
			o.lockTTL = d
		}
	}
}

// WithRebalancerLogger sets the rebalancer logger.
func WithRebalancerLogger(l *slog.Logger) RebalancerOption {
	return func(o *rebalancerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
