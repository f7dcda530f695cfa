package delivery

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// Resolver finds the subscriptions that should receive an event.
type Resolver struct {
	repo SubscriptionRepository
}

// NewResolver creates a resolver backed by repo.
func NewResolver(repo SubscriptionRepository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the active subscriptions of tenantID that include event.
// No matches is an empty result, not an error. Storage failures are wrapped
// with ErrResolveFailed so callers can retry the whole dispatch.
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID, event webhook.Event) ([]Subscription, error) {
	subs, err := r.repo.ListActiveSubscriptions(ctx, tenantID, event)
	if err != nil {
		return nil, fmt.Errorf("%w: tenant %s event %s: %w", ErrResolveFailed, tenantID, event, err)
	}

	out := make([]Subscription, 0, len(subs))
	for _, s := range subs {
		if s.TenantID == tenantID && s.Subscribed(event) {
			out = append(out, s)
		}
	}
	return out, nil
}
