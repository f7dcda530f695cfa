package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

const maxBodyBytes = 1 << 20

type eventRequest struct {
	TenantID string          `json:"tenant_id"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data"`
}

type eventResponse struct {
	EventID    uuid.UUID   `json:"event_id"`
	Event      string      `json:"event"`
	OccurredAt time.Time   `json:"occurred_at"`
	JobIDs     []uuid.UUID `json:"job_ids"`
}

type createWebhookRequest struct {
	URL         string   `json:"url"`
	Events      []string `json:"events"`
	Description string   `json:"description"`
	Secret      string   `json:"secret"`
}

type updateWebhookRequest struct {
	URL         *string  `json:"url"`
	Events      []string `json:"events"`
	Description *string  `json:"description"`
	Active      *bool    `json:"active"`
}

// webhookWithSecret is returned only when a secret is created or rotated.
type webhookWithSecret struct {
	delivery.Subscription
	Secret string `json:"secret"`
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

func (a *API) dispatchEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decode(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	tenantID, err := parseID(req.TenantID)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	event, err := webhook.ParseEvent(req.Event)
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	var data any
	if len(req.Data) > 0 {
		data = req.Data
	}
	res, err := a.dispatcher.Dispatch(r.Context(), tenantID, event, data)
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	jobIDs := res.JobIDs
	if jobIDs == nil {
		jobIDs = []uuid.UUID{}
	}
	respond(w, http.StatusAccepted, eventResponse{
		EventID:    res.EventID,
		Event:      res.Event.String(),
		OccurredAt: res.OccurredAt,
		JobIDs:     jobIDs,
	})
}

func (a *API) rebalance(w http.ResponseWriter, r *http.Request) {
	if a.rebalancer == nil {
		a.respondError(w, r, ErrRebalancerDisabled)
		return
	}
	report, err := a.rebalancer.RunOnce(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, report)
}

func (a *API) listWebhooks(w http.ResponseWriter, r *http.Request) {
	subs, err := a.webhooks.List(r.Context(), tenantFromContext(r.Context()))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if subs == nil {
		subs = []delivery.Subscription{}
	}
	respond(w, http.StatusOK, subs)
}

func (a *API) createWebhook(w http.ResponseWriter, r *http.Request) {
	var req createWebhookRequest
	if err := decode(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	sub, err := a.webhooks.Register(r.Context(), delivery.RegisterParams{
		TenantID:    tenantFromContext(r.Context()),
		URL:         req.URL,
		Events:      req.Events,
		Description: req.Description,
		Secret:      req.Secret,
	})
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, webhookWithSecret{Subscription: *sub, Secret: sub.Secret})
}

func (a *API) getWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "webhookID"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	sub, err := a.webhooks.Get(r.Context(), tenantFromContext(r.Context()), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (a *API) updateWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "webhookID"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	var req updateWebhookRequest
	if err := decode(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	sub, err := a.webhooks.Update(r.Context(), tenantFromContext(r.Context()), id, delivery.UpdateParams{
		URL:         req.URL,
		Events:      req.Events,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (a *API) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "webhookID"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := a.webhooks.Delete(r.Context(), tenantFromContext(r.Context()), id); err != nil {
		a.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) rotateSecret(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "webhookID"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	sub, err := a.webhooks.RotateSecret(r.Context(), tenantFromContext(r.Context()), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, webhookWithSecret{Subscription: *sub, Secret: sub.Secret})
}

func (a *API) listAttempts(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "webhookID"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 || limit > 100 {
			a.respondError(w, r, errors.Join(ErrInvalidQuery, fmt.Errorf("limit must be between 1 and 100, got %q", raw)))
			return
		}
	}

	attempts, err := a.webhooks.Attempts(r.Context(), tenantFromContext(r.Context()), id, limit)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if attempts == nil {
		attempts = []delivery.AttemptRecord{}
	}
	respond(w, http.StatusOK, attempts)
}
