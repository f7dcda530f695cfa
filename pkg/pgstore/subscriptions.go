package pgstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/secrets"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

const subscriptionColumns = `
  id,
  company_id,
  url,
  secret,
  events,
  description,
  active,
  consecutive_failures,
  last_triggered_at,
  created_at,
  updated_at`

func (s *Store) CreateSubscription(ctx context.Context, sub *delivery.Subscription) error {
	secret, err := s.sealSecret(sub.TenantID, sub.Secret)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO webhook_subscriptions (` + subscriptionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = s.db.Exec(ctx, query,
		sub.ID,
		sub.TenantID,
		sub.URL,
		secret,
		eventNames(sub.Events),
		sub.Description,
		sub.Active,
		sub.ConsecutiveFailures,
		sub.LastTriggeredAt,
		sub.CreatedAt.UTC(),
		sub.UpdatedAt.UTC(),
	)
	return err
}

func (s *Store) GetSubscription(ctx context.Context, id uuid.UUID) (*delivery.Subscription, error) {
	const query = `SELECT ` + subscriptionColumns + ` FROM webhook_subscriptions WHERE id = $1`

	sub, err := s.scanSubscription(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, delivery.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Store) ListSubscriptions(ctx context.Context, tenantID uuid.UUID) ([]delivery.Subscription, error) {
	const query = `
SELECT ` + subscriptionColumns + `
FROM webhook_subscriptions
WHERE company_id = $1
ORDER BY created_at ASC, id ASC`

	return s.querySubscriptions(ctx, query, tenantID)
}

func (s *Store) ListActiveSubscriptions(ctx context.Context, tenantID uuid.UUID, event webhook.Event) ([]delivery.Subscription, error) {
	const query = `
SELECT ` + subscriptionColumns + `
FROM webhook_subscriptions
WHERE company_id = $1
  AND active
  AND $2 = ANY (events)
ORDER BY created_at ASC, id ASC`

	return s.querySubscriptions(ctx, query, tenantID, string(event))
}

// UpdateSubscription writes only the columns set in patch, in one statement,
// so it never overwrites counters or flags changed since the caller read the row.
func (s *Store) UpdateSubscription(ctx context.Context, id uuid.UUID, patch delivery.SubscriptionPatch) (*delivery.Subscription, error) {
	var secret *string
	if patch.Secret != nil {
		tenantID, err := s.subscriptionTenant(ctx, id)
		if err != nil {
			return nil, err
		}
		sealed, err := s.sealSecret(tenantID, *patch.Secret)
		if err != nil {
			return nil, err
		}
		secret = &sealed
	}

	var events []string
	if patch.Events != nil {
		events = eventNames(patch.Events)
	}

	const query = `
UPDATE webhook_subscriptions
SET
  url = COALESCE($2::text, url),
  secret = COALESCE($3::text, secret),
  events = COALESCE($4::text[], events),
  description = COALESCE($5::text, description),
  consecutive_failures = CASE WHEN $6::boolean AND NOT active THEN 0 ELSE consecutive_failures END,
  active = COALESCE($6::boolean, active),
  updated_at = $7
WHERE id = $1
RETURNING ` + subscriptionColumns

	sub, err := s.scanSubscription(s.db.QueryRow(ctx, query,
		id,
		patch.URL,
		secret,
		events,
		patch.Description,
		patch.Active,
		patch.UpdatedAt.UTC(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, delivery.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Store) subscriptionTenant(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var tenantID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT company_id FROM webhook_subscriptions WHERE id = $1`, id).Scan(&tenantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, delivery.ErrSubscriptionNotFound
	}
	return tenantID, err
}

func (s *Store) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM webhook_subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return delivery.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) RecordDeliverySuccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	const query = `
UPDATE webhook_subscriptions
SET
  consecutive_failures = 0,
  last_triggered_at = $2,
  updated_at = $2
WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return delivery.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) RecordDeliveryFailure(ctx context.Context, id uuid.UUID) (int, error) {
	const query = `
UPDATE webhook_subscriptions
SET consecutive_failures = consecutive_failures + 1
WHERE id = $1
RETURNING consecutive_failures`

	var n int
	if err := s.db.QueryRow(ctx, query, id).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, delivery.ErrSubscriptionNotFound
		}
		return 0, err
	}
	return n, nil
}

func (s *Store) DeactivateSubscription(ctx context.Context, id uuid.UUID, at time.Time) error {
	const query = `
UPDATE webhook_subscriptions
SET
  active = false,
  updated_at = $2
WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return delivery.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) querySubscriptions(ctx context.Context, query string, args ...any) ([]delivery.Subscription, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]delivery.Subscription, 0)
	for rows.Next() {
		sub, err := s.scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

func (s *Store) scanSubscription(row pgx.Row) (*delivery.Subscription, error) {
	var (
		sub    delivery.Subscription
		events []string
	)
	if err := row.Scan(
		&sub.ID,
		&sub.TenantID,
		&sub.URL,
		&sub.Secret,
		&events,
		&sub.Description,
		&sub.Active,
		&sub.ConsecutiveFailures,
		&sub.LastTriggeredAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}

	sub.Events = make([]webhook.Event, 0, len(events))
	for _, e := range events {
		sub.Events = append(sub.Events, webhook.Event(e))
	}

	secret, err := s.openSecret(sub.TenantID, sub.Secret)
	if err != nil {
		return nil, err
	}
	sub.Secret = secret
	return &sub, nil
}

func (s *Store) sealSecret(tenantID uuid.UUID, plaintext string) (string, error) {
	if s.sealer == nil {
		return plaintext, nil
	}
	sealed, err := s.sealer.Seal(tenantID, plaintext)
	if err != nil {
		return "", errors.Join(ErrSealSecret, err)
	}
	return sealed, nil
}

func (s *Store) openSecret(tenantID uuid.UUID, stored string) (string, error) {
	if s.sealer == nil || !secrets.IsSealed(stored) {
		return stored, nil
	}
	plain, err := s.sealer.Open(tenantID, stored)
	if err != nil {
		return "", errors.Join(ErrOpenSecret, err)
	}
	return plain, nil
}

func eventNames(events []webhook.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, strings.TrimSpace(e.String()))
	}
	return out
}
