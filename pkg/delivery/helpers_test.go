package delivery_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type pipeline struct {
	store     *delivery.MemoryStorage
	clock     *fakeClock
	scheduler *delivery.Scheduler
	orch      *delivery.Orchestrator
	worker    *delivery.Worker
	registry  *delivery.Registry
	disabled  chan delivery.Disablement
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	p := &pipeline{
		store:    delivery.NewMemoryStorage(),
		clock:    newFakeClock(),
		disabled: make(chan delivery.Disablement, 10),
	}

	var err error
	p.scheduler, err = delivery.NewScheduler(p.store, p.store,
		delivery.WithSchedulerClock(p.clock.Now),
		delivery.WithSchedulerLogger(discard),
		delivery.WithNotifier(delivery.NotifierFunc(func(_ context.Context, d delivery.Disablement) error {
			p.disabled <- d
			return nil
		})),
	)
	require.NoError(t, err)

	executor := webhook.NewExecutor(webhook.WithTimeout(2 * time.Second))
	p.worker, err = delivery.NewWorker(p.store, executor, p.scheduler,
		delivery.WithWorkerClock(p.clock.Now),
		delivery.WithWorkerLogger(discard),
		delivery.WithConcurrency(4),
	)
	require.NoError(t, err)

	p.orch, err = delivery.NewOrchestrator(p.store, p.store,
		delivery.WithOrchestratorClock(p.clock.Now),
		delivery.WithOrchestratorLogger(discard),
		delivery.WithWaker(p.worker),
	)
	require.NoError(t, err)

	p.registry, err = delivery.NewRegistry(p.store, p.store, discard)
	require.NoError(t, err)

	return p
}

func (p *pipeline) subscribe(t *testing.T, tenantID uuid.UUID, url string, events ...string) *delivery.Subscription {
	t.Helper()
	sub, err := p.registry.Register(context.Background(), delivery.RegisterParams{
		TenantID: tenantID,
		URL:      url,
		Events:   events,
	})
	require.NoError(t, err)
	return sub
}

// endpoint is a test receiver that answers with a fixed status and counts hits.
type endpoint struct {
	*httptest.Server
	hits atomic.Int32
}

func newEndpoint(t *testing.T, status int) *endpoint {
	t.Helper()
	e := &endpoint{}
	e.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.hits.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(status)
	}))
	t.Cleanup(e.Close)
	return e
}

// refusedURL returns a URL nothing listens on.
func refusedURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}
