package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/balance"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/httpserver"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/logger"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// Dispatcher queues events for delivery. *delivery.Orchestrator implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, tenantID uuid.UUID, event webhook.Event, data any) (*delivery.DispatchResult, error)
}

// Rebalancer runs a single balancing cycle. *balance.Rebalancer implements it.
type Rebalancer interface {
	RunOnce(ctx context.Context) (*balance.Report, error)
}

// Webhooks manages tenant subscriptions. *delivery.Registry implements it.
type Webhooks interface {
	Register(ctx context.Context, p delivery.RegisterParams) (*delivery.Subscription, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*delivery.Subscription, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]delivery.Subscription, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, p delivery.UpdateParams) (*delivery.Subscription, error)
	RotateSecret(ctx context.Context, tenantID, id uuid.UUID) (*delivery.Subscription, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Attempts(ctx context.Context, tenantID, id uuid.UUID, limit int) ([]delivery.AttemptRecord, error)
}

// API holds the handlers and their dependencies.
type API struct {
	dispatcher   Dispatcher
	webhooks     Webhooks
	rebalancer   Rebalancer
	checks       []httpserver.Check
	checkTimeout time.Duration
	metrics      http.Handler
	logger       *slog.Logger
}

// Option configures the API.
type Option func(*API)

// WithRebalancer enables POST /v1/rebalance. Without it the route answers 503.
func WithRebalancer(r Rebalancer) Option {
	return func(a *API) { a.rebalancer = r }
}

// WithReadinessChecks sets the probes behind /readyz.
func WithReadinessChecks(timeout time.Duration, checks ...httpserver.Check) Option {
	return func(a *API) {
		a.checkTimeout = timeout
		a.checks = append(a.checks, checks...)
	}
}

// WithMetricsHandler replaces the default promhttp handler on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *API) {
		if h != nil {
			a.metrics = h
		}
	}
}

// WithLogger sets the API logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates the API.
func New(dispatcher Dispatcher, webhooks Webhooks, opts ...Option) (*API, error) {
	if dispatcher == nil || webhooks == nil {
		return nil, ErrMissingDependency
	}
	a := &API{
		dispatcher:   dispatcher,
		webhooks:     webhooks,
		checkTimeout: 3 * time.Second,
		metrics:      promhttp.Handler(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(logger.Component("httpapi"))
	return a, nil
}

// Routes builds the chi router.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(a.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(a.logger, 0))
	r.Get("/readyz", httpserver.HealthCheckHandler(a.logger, a.checkTimeout, a.checks...))
	r.Handle("/metrics", a.metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		r.Post("/events", a.dispatchEvent)
		r.Post("/rebalance", a.rebalance)

		r.Route("/tenants/{tenantID}/webhooks", func(r chi.Router) {
			r.Use(a.tenantScope)

			r.Get("/", a.listWebhooks)
			r.Post("/", a.createWebhook)
			r.Route("/{webhookID}", func(r chi.Router) {
				r.Get("/", a.getWebhook)
				r.Patch("/", a.updateWebhook)
				r.Delete("/", a.deleteWebhook)
				r.Post("/rotate-secret", a.rotateSecret)
				r.Get("/attempts", a.listAttempts)
			})
		})
	})

	return r
}
