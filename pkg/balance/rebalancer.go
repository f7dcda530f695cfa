package balance

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/logger"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/metrics"
)

const (
	// DefaultInterval is the time between scheduled balancing cycles.
	DefaultInterval = 15 * time.Minute
	// DefaultLockKey is the Locker key guarding a cycle.
	DefaultLockKey = "balance:rebalance"
)

// Rebalancer runs the engine on a fixed interval and on demand, never more
// than one cycle at a time.
type Rebalancer struct {
	engine   *Engine
	locker   Locker
	lockKey  string
	lockTTL  time.Duration
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	last   *Report
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRebalancer creates a rebalancer. Without WithLocker cycles are only
// exclusive within the process.
func NewRebalancer(engine *Engine, opts ...RebalancerOption) (*Rebalancer, error) {
	if engine == nil {
		return nil, ErrRepositoryNil
	}

	o := &rebalancerOptions{
		interval: DefaultInterval,
		lockKey:  DefaultLockKey,
		lockTTL:  10 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.locker == nil {
		o.locker = NewMemoryLocker()
	}

	return &Rebalancer{
		engine:   engine,
		locker:   o.locker,
		lockKey:  o.lockKey,
		lockTTL:  o.lockTTL,
		interval: o.interval,
		logger:   o.logger.With(logger.Component("balance.rebalancer")),
	}, nil
}

// RunOnce performs a single cycle. It returns ErrRebalanceInProgress without
// doing anything when another cycle holds the lock.
func (r *Rebalancer) RunOnce(ctx context.Context) (*Report, error) {
	unlock, acquired, err := r.locker.TryLock(ctx, r.lockKey, r.lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrRebalanceInProgress
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			r.logger.WarnContext(ctx, "failed to release rebalance lock", logger.Error(err))
		}
	}()

	start := time.Now()
	report, err := r.engine.AssignPending(ctx)
	metrics.RebalanceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.ErrorContext(ctx, "rebalancing failed", logger.Error(err))
		return report, err
	}

	r.mu.Lock()
	r.last = report
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "rebalancing completed",
		slog.Int("tenants", report.Tenants),
		slog.Int("shipments", report.Shipments),
		slog.Int("assigned", len(report.Assigned)),
		slog.Int("unassigned", len(report.Unassigned)),
		logger.Duration(report.Duration))
	return report, nil
}

// Last returns the report of the most recent successful cycle, or nil.
func (r *Rebalancer) Last() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Start runs a cycle immediately and then every interval in the background.
func (r *Rebalancer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return ErrRebalancerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(ctx, r.done)

	r.logger.Info("rebalancer started", slog.Duration("interval", r.interval))
	return nil
}

// Stop cancels the schedule and waits for a running cycle to return.
func (r *Rebalancer) Stop() error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return ErrRebalancerNotRunning
	}
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	cancel()
	<-done

	r.logger.Info("rebalancer stopped")
	return nil
}

// Run starts the rebalancer and returns a function suitable for errgroup.
func (r *Rebalancer) Run(ctx context.Context) func() error {
	return func() error {
		if err := r.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return r.Stop()
	}
}

func (r *Rebalancer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); errors.Is(err, ErrRebalanceInProgress) {
			r.logger.Debug("skipping scheduled cycle, another one is running")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// MemoryLocker is a process-local Locker.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock Clock
}

// NewMemoryLocker creates an empty locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time), clock: time.Now}
}

// TryLock acquires key unless it is held and not yet expired.
func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return nil, false, nil
	}
	until := now.Add(ttl)
	l.held[key] = until

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(until) {
			delete(l.held, key)
		}
		return nil
	}, true, nil
}
