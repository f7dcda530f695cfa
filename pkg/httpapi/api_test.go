package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/balance"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/httpapi"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/httpserver"
)

type envelope struct {
	Data  json.RawMessage      `json:"data"`
	Error *httpapi.ErrorDetail `json:"error"`
}

type webhookBody struct {
	ID     uuid.UUID `json:"id"`
	URL    string    `json:"url"`
	Events []string  `json:"events"`
	Active bool      `json:"active"`
	Secret string    `json:"secret"`
}

type rebalancerFunc func(ctx context.Context) (*balance.Report, error)

func (f rebalancerFunc) RunOnce(ctx context.Context) (*balance.Report, error) { return f(ctx) }

type fixture struct {
	store   *delivery.MemoryStorage
	handler http.Handler
}

func newFixture(t *testing.T, opts ...httpapi.Option) *fixture {
	t.Helper()
	store := delivery.NewMemoryStorage()
	registry, err := delivery.NewRegistry(store, store, nil)
	require.NoError(t, err)
	orch, err := delivery.NewOrchestrator(store, store)
	require.NoError(t, err)
	api, err := httpapi.New(orch, registry, opts...)
	require.NoError(t, err)
	return &fixture{store: store, handler: api.Routes()}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func webhooksPath(tenantID uuid.UUID, rest ...string) string {
	p := "/v1/tenants/" + tenantID.String() + "/webhooks"
	for _, s := range rest {
		p += "/" + s
	}
	return p
}

func (f *fixture) createWebhook(t *testing.T, tenantID uuid.UUID, events ...string) webhookBody {
	t.Helper()
	rec, env := f.do(t, http.MethodPost, webhooksPath(tenantID), map[string]any{
		"url":    "https://partner.example.com/hooks",
		"events": events,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var wh webhookBody
	require.NoError(t, json.Unmarshal(env.Data, &wh))
	return wh
}

func TestDispatchEvent(t *testing.T) {
	t.Parallel()

	t.Run("queues one job per subscriber", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tenant := uuid.New()
		f.createWebhook(t, tenant, "shipment.created")
		f.createWebhook(t, tenant, "shipment.created", "shipment.delivered")
		f.createWebhook(t, tenant, "balance.low")

		rec, env := f.do(t, http.MethodPost, "/v1/events", map[string]any{
			"tenant_id": tenant.String(),
			"event":     "shipment.created",
			"data":      map[string]any{"trackingNumber": "FF123"},
		})
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		var body struct {
			EventID uuid.UUID   `json:"event_id"`
			Event   string      `json:"event"`
			JobIDs  []uuid.UUID `json:"job_ids"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &body))
		assert.NotEqual(t, uuid.Nil, body.EventID)
		assert.Equal(t, "shipment.created", body.Event)
		assert.Len(t, body.JobIDs, 2)
		assert.Len(t, f.store.Jobs(), 2)
	})

	t.Run("no subscribers is accepted with no jobs", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rec, env := f.do(t, http.MethodPost, "/v1/events", map[string]any{
			"tenant_id": uuid.NewString(),
			"event":     "package.delivered",
		})
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `[]`, string(mustField(t, env.Data, "job_ids")))
	})

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"unknown event", map[string]any{"tenant_id": uuid.NewString(), "event": "shipment.lost"}, http.StatusUnprocessableEntity, "validation_error"},
		{"invalid tenant", map[string]any{"tenant_id": "acme", "event": "shipment.created"}, http.StatusBadRequest, "bad_request"},
		{"unknown field", map[string]any{"tenant_id": uuid.NewString(), "event": "shipment.created", "extra": 1}, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			rec, env := f.do(t, http.MethodPost, "/v1/events", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.Empty(t, f.store.Jobs())
		})
	}

	t.Run("rejects non json content type", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader("tenant_id=1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func mustField(t *testing.T, raw json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return m[key]
}

func TestWebhookLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tenant := uuid.New()

	created := f.createWebhook(t, tenant, "shipment.status_updated")
	assert.True(t, created.Active)
	assert.True(t, strings.HasPrefix(created.Secret, delivery.SecretPrefix))

	rec, env := f.do(t, http.MethodGet, webhooksPath(tenant), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []webhookBody
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Empty(t, list[0].Secret, "secret is only returned on create and rotate")

	rec, env = f.do(t, http.MethodPatch, webhooksPath(tenant, created.ID.String()), map[string]any{
		"active": false,
		"events": []string{"shipment.delivered", "shipment.failed"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated webhookBody
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.False(t, updated.Active)
	assert.Equal(t, []string{"shipment.delivered", "shipment.failed"}, updated.Events)

	rec, env = f.do(t, http.MethodPost, webhooksPath(tenant, created.ID.String(), "rotate-secret"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rotated webhookBody
	require.NoError(t, json.Unmarshal(env.Data, &rotated))
	assert.NotEqual(t, created.Secret, rotated.Secret)

	rec, env = f.do(t, http.MethodGet, webhooksPath(tenant, created.ID.String(), "attempts"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	rec, _ = f.do(t, http.MethodDelete, webhooksPath(tenant, created.ID.String()), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = f.do(t, http.MethodGet, webhooksPath(tenant, created.ID.String()), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestWebhookTenantIsolation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	owner, other := uuid.New(), uuid.New()
	wh := f.createWebhook(t, owner, "shipment.created")

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec, _ := f.do(t, method, webhooksPath(other, wh.ID.String()), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
	}

	rec, _ := f.do(t, http.MethodGet, webhooksPath(owner, wh.ID.String()), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tenant := uuid.New()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"invalid tenant id", http.MethodGet, "/v1/tenants/not-a-uuid/webhooks", nil, http.StatusBadRequest},
		{"invalid webhook id", http.MethodGet, webhooksPath(tenant, "42"), nil, http.StatusBadRequest},
		{"ftp url", http.MethodPost, webhooksPath(tenant), map[string]any{"url": "ftp://example.com", "events": []string{"shipment.created"}}, http.StatusUnprocessableEntity},
		{"no events", http.MethodPost, webhooksPath(tenant), map[string]any{"url": "https://example.com"}, http.StatusUnprocessableEntity},
		{"unknown event", http.MethodPost, webhooksPath(tenant), map[string]any{"url": "https://example.com", "events": []string{"invoice.paid"}}, http.StatusUnprocessableEntity},
		{"attempts limit out of range", http.MethodGet, webhooksPath(tenant, uuid.NewString(), "attempts") + "?limit=500", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotNil(t, env.Error)
		})
	}
}

func TestRebalance(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rec, env := f.do(t, http.MethodPost, "/v1/rebalance", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "rebalancer_disabled", env.Error.Code)
	})

	t.Run("in progress", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, httpapi.WithRebalancer(rebalancerFunc(func(context.Context) (*balance.Report, error) {
			return nil, balance.ErrRebalanceInProgress
		})))
		rec, env := f.do(t, http.MethodPost, "/v1/rebalance", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "rebalance_in_progress", env.Error.Code)
	})

	t.Run("internal error is not leaked", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, httpapi.WithRebalancer(rebalancerFunc(func(context.Context) (*balance.Report, error) {
			return nil, errors.New("pq: password authentication failed")
		})))
		rec, env := f.do(t, http.MethodPost, "/v1/rebalance", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotNil(t, env.Error)
		assert.NotContains(t, env.Error.Message, "password")
	})

	t.Run("runs a cycle", func(t *testing.T) {
		t.Parallel()
		store := balance.NewMemoryStorage()
		tenant := uuid.New()
		store.PutCompany(balance.Company{ID: tenant, Name: "Acme", Tier: balance.TierProfessional, Status: balance.CompanyActive, Balance: 1000})
		store.PutShipment(balance.Shipment{
			ID:            uuid.New(),
			OwnerTenantID: uuid.New(),
			Status:        balance.ShipmentPending,
			CreatedAt:     time.Now().Add(-time.Hour),
		})
		engine, err := balance.NewEngine(store)
		require.NoError(t, err)
		rebalancer, err := balance.NewRebalancer(engine)
		require.NoError(t, err)

		f := newFixture(t, httpapi.WithRebalancer(rebalancer))
		rec, env := f.do(t, http.MethodPost, "/v1/rebalance", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var report balance.Report
		require.NoError(t, json.Unmarshal(env.Data, &report))
		assert.Equal(t, 1, report.Tenants)
		require.Len(t, report.Assigned, 1)
		assert.Equal(t, tenant, report.Assigned[0].TenantID)
	})
}

func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpapi.WithReadinessChecks(time.Second,
		httpserver.Check{Name: "postgres", Func: func(context.Context) error { return nil }},
		httpserver.Check{Name: "redis", Func: func(context.Context) error { return errors.New("dial tcp: refused") }},
	))

	rec, _ := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "dial tcp: refused")

	rec, _ = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(httpapi.RequestIDHeader, "trace-abc_123")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "trace-abc_123", rec.Header().Get(httpapi.RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(httpapi.RequestIDHeader, "bad id with spaces")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	generated := rec.Header().Get(httpapi.RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := httpapi.New(nil, nil)
	assert.ErrorIs(t, err, httpapi.ErrMissingDependency)
}
