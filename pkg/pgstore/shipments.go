package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/balance"
)

func (s *Store) CountActiveShipments(ctx context.Context, tenantID uuid.UUID) (int, error) {
	const query = `
SELECT count(*)
FROM shipments
WHERE COALESCE(assigned_company_id, company_id) = $1
  AND status = ANY ($2)`

	statuses := make([]string, 0, len(balance.ActiveShipmentStatuses))
	for _, st := range balance.ActiveShipmentStatuses {
		statuses = append(statuses, string(st))
	}

	var n int
	err := s.db.QueryRow(ctx, query, tenantID, statuses).Scan(&n)
	return n, err
}

func (s *Store) DeliveryStats(ctx context.Context, tenantID uuid.UUID) (int, int, error) {
	const query = `
SELECT
  count(*),
  count(*) FILTER (WHERE EXISTS (
    SELECT 1 FROM tracking_events t WHERE t.shipment_id = s.id
  ))
FROM shipments AS s
WHERE COALESCE(s.assigned_company_id, s.company_id) = $1
  AND s.status = 'delivered'`

	var delivered, tracked int
	err := s.db.QueryRow(ctx, query, tenantID).Scan(&delivered, &tracked)
	return delivered, tracked, err
}

func (s *Store) ListUnassignedShipments(ctx context.Context, limit int) ([]balance.Shipment, error) {
	const query = `
SELECT
  id,
  tracking_number,
  company_id,
  status,
  destination,
  unassigned_cycles,
  created_at
FROM shipments
WHERE status = 'pending'
  AND assigned_company_id IS NULL
ORDER BY created_at ASC, id ASC
LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]balance.Shipment, 0, limit)
	for rows.Next() {
		var (
			sh     balance.Shipment
			status string
		)
		if err := rows.Scan(
			&sh.ID,
			&sh.TrackingNumber,
			&sh.OwnerTenantID,
			&status,
			&sh.Destination,
			&sh.UnassignedCycles,
			&sh.CreatedAt,
		); err != nil {
			return nil, err
		}
		sh.Status = balance.ShipmentStatus(status)
		out = append(out, sh)
	}
	return out, rows.Err()
}

// AssignShipment only touches rows that are still pending and unassigned,
// so concurrent or repeated passes cannot reassign a shipment.
func (s *Store) AssignShipment(ctx context.Context, shipmentID, tenantID uuid.UUID, at time.Time) (bool, error) {
	const query = `
UPDATE shipments
SET
  assigned_company_id = $2,
  status = 'assigned',
  assigned_at = $3
WHERE id = $1
  AND status = 'pending'
  AND assigned_company_id IS NULL`

	tag, err := s.db.Exec(ctx, query, shipmentID, tenantID, at.UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) IncrementUnassignedCycles(ctx context.Context, shipmentID uuid.UUID) (int, error) {
	const query = `
UPDATE shipments
SET unassigned_cycles = unassigned_cycles + 1
WHERE id = $1
RETURNING unassigned_cycles`

	var n int
	if err := s.db.QueryRow(ctx, query, shipmentID).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, balance.ErrShipmentNotFound
		}
		return 0, err
	}
	return n, nil
}

func (s *Store) RecordActivity(ctx context.Context, entry balance.ActivityEntry) error {
	const query = `
INSERT INTO activity_logs (id, company_id, action, description, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	_, err := s.db.Exec(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.Action,
		entry.Description,
		metadata,
		entry.CreatedAt.UTC(),
	)
	return err
}
