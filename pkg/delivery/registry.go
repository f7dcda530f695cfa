package delivery

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/logger"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// SecretPrefix marks generated signing secrets.
const SecretPrefix = "whsec_"

// DefaultAttemptsLimit is how many attempt records Attempts returns by default.
const DefaultAttemptsLimit = 10

// RegisterParams describes a new subscription.
type RegisterParams struct {
	TenantID    uuid.UUID
	URL         string
	Events      []string
	Description string
	// Secret is optional; a random one is generated when empty.
	Secret string
}

// UpdateParams holds partial changes. Nil fields are left untouched.
type UpdateParams struct {
	URL         *string
	Events      []string
	Description *string
	Active      *bool
}

// Registry manages a tenant's webhook subscriptions. Every operation is
// scoped to a tenant: a subscription owned by another tenant is reported as
// not found.
type Registry struct {
	subs     SubscriptionRepository
	attempts AttemptRepository
	now      Clock
	logger   *slog.Logger
}

// NewRegistry creates a registry.
func NewRegistry(subs SubscriptionRepository, attempts AttemptRepository, log *slog.Logger) (*Registry, error) {
	if subs == nil || attempts == nil {
		return nil, ErrRepositoryNil
	}
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		subs:     subs,
		attempts: attempts,
		now:      time.Now,
		logger:   log.With(logger.Component("delivery.registry")),
	}, nil
}

// Register validates and stores a new active subscription.
func (r *Registry) Register(ctx context.Context, p RegisterParams) (*Subscription, error) {
	if p.TenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant is required", ErrInvalidSubscription)
	}
	url := strings.TrimSpace(p.URL)
	if err := webhook.ValidateURL(url); err != nil {
		return nil, errors.Join(ErrInvalidSubscription, err)
	}
	events, err := webhook.ParseEvents(p.Events)
	if err != nil {
		return nil, errors.Join(ErrInvalidSubscription, err)
	}

	secret := p.Secret
	if secret == "" {
		if secret, err = GenerateSecret(); err != nil {
			return nil, err
		}
	}

	now := r.now().UTC()
	sub := &Subscription{
		ID:          uuid.New(),
		TenantID:    p.TenantID,
		URL:         url,
		Secret:      secret,
		Events:      events,
		Description: strings.TrimSpace(p.Description),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.subs.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	r.logger.InfoContext(ctx, "webhook subscription registered",
		logger.TenantID(sub.TenantID),
		logger.SubscriptionID(sub.ID),
		slog.Int("events", len(sub.Events)))
	return sub, nil
}

// Get returns one subscription of tenantID.
func (r *Registry) Get(ctx context.Context, tenantID, id uuid.UUID) (*Subscription, error) {
	sub, err := r.subs.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.TenantID != tenantID {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

// List returns every subscription of tenantID.
func (r *Registry) List(ctx context.Context, tenantID uuid.UUID) ([]Subscription, error) {
	return r.subs.ListSubscriptions(ctx, tenantID)
}

// Update applies partial changes. Only the fields set in p are written, so
// concurrent changes to other columns (such as the circuit breaker switching
// the subscription off) are kept. Reactivating a subscription resets its
// failure counter; this is the only way a deactivated subscription comes back.
func (r *Registry) Update(ctx context.Context, tenantID, id uuid.UUID, p UpdateParams) (*Subscription, error) {
	if _, err := r.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}

	patch := SubscriptionPatch{
		Active:    p.Active,
		UpdatedAt: r.now().UTC(),
	}
	if p.URL != nil {
		url := strings.TrimSpace(*p.URL)
		if err := webhook.ValidateURL(url); err != nil {
			return nil, errors.Join(ErrInvalidSubscription, err)
		}
		patch.URL = &url
	}
	if p.Events != nil {
		events, err := webhook.ParseEvents(p.Events)
		if err != nil {
			return nil, errors.Join(ErrInvalidSubscription, err)
		}
		patch.Events = events
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		patch.Description = &desc
	}

	sub, err := r.subs.UpdateSubscription(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}

	r.logger.InfoContext(ctx, "webhook subscription updated",
		logger.TenantID(tenantID),
		logger.SubscriptionID(id),
		slog.Bool("active", sub.Active))
	return sub, nil
}

// RotateSecret replaces the signing secret and returns the updated subscription.
func (r *Registry) RotateSecret(ctx context.Context, tenantID, id uuid.UUID) (*Subscription, error) {
	if _, err := r.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}
	secret, err := GenerateSecret()
	if err != nil {
		return nil, err
	}
	sub, err := r.subs.UpdateSubscription(ctx, id, SubscriptionPatch{
		Secret:    &secret,
		UpdatedAt: r.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("rotate secret: %w", err)
	}
	return sub, nil
}

// Delete removes a subscription. Already scheduled retries are cancelled by
// the worker when they come due.
func (r *Registry) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := r.Get(ctx, tenantID, id); err != nil {
		return err
	}
	if err := r.subs.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	r.logger.InfoContext(ctx, "webhook subscription deleted",
		logger.TenantID(tenantID),
		logger.SubscriptionID(id))
	return nil
}

// Attempts returns the most recent delivery attempts of a subscription, newest first.
func (r *Registry) Attempts(ctx context.Context, tenantID, id uuid.UUID, limit int) ([]AttemptRecord, error) {
	if _, err := r.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultAttemptsLimit
	}
	return r.attempts.ListAttempts(ctx, id, limit)
}

// GenerateSecret returns a random signing secret with SecretPrefix.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return SecretPrefix + hex.EncodeToString(b), nil
}
