package pgstore

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
)

const jobColumns = `
  id,
  event_id,
  company_id,
  subscription_id,
  event,
  payload,
  occurred_at,
  attempt,
  state,
  next_attempt_at,
  locked_by,
  locked_until,
  last_error,
  created_at,
  updated_at,
  finished_at`

// CreateJobs inserts all jobs in one transaction. Either every job of an
// event instance is stored or none is.
func (s *Store) CreateJobs(ctx context.Context, jobs []*delivery.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	const query = `
INSERT INTO webhook_jobs (` + jobColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, j := range jobs {
			batch.Queue(query,
				j.ID,
				j.EventID,
				j.TenantID,
				j.SubscriptionID,
				string(j.Event),
				jsonText(j.Payload),
				j.OccurredAt.UTC(),
				j.Attempt,
				string(j.State),
				j.NextAttemptAt.UTC(),
				j.LockedBy,
				j.LockedUntil,
				j.LastError,
				j.CreatedAt.UTC(),
				j.UpdatedAt.UTC(),
				j.FinishedAt,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// ClaimDueJobs leases due jobs with FOR UPDATE SKIP LOCKED so concurrent
// workers never claim the same row. A reclaimed row whose lease expired gets
// the next attempt number.
func (s *Store) ClaimDueJobs(ctx context.Context, workerID uuid.UUID, now time.Time, limit int, lease time.Duration) ([]*delivery.Job, error) {
	query := `
WITH due AS (
  SELECT id
  FROM webhook_jobs
  WHERE (state = 'pending' AND next_attempt_at <= $1)
     OR (state = 'attempting' AND locked_until < $1)
  ORDER BY next_attempt_at ASC, created_at ASC, id ASC
  LIMIT $2
  FOR UPDATE SKIP LOCKED
)
UPDATE webhook_jobs AS j
SET
  attempt = CASE WHEN j.state = 'attempting' THEN j.attempt + 1 ELSE j.attempt END,
  state = 'attempting',
  locked_by = $3,
  locked_until = $4,
  updated_at = $1
FROM due
WHERE j.id = due.id
RETURNING ` + prefixed("j", jobColumns)

	rows, err := s.db.Query(ctx, query, now.UTC(), limit, workerID, now.Add(lease).UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*delivery.Job, 0, limit)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// RETURNING does not preserve the CTE order.
	slices.SortFunc(out, func(a, b *delivery.Job) int {
		if c := a.NextAttemptAt.Compare(b.NextAttemptAt); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// UpdateJob writes the outcome of an attempt and releases the lease. The row
// is only touched while it is still attempting under job.LockedBy.
func (s *Store) UpdateJob(ctx context.Context, job *delivery.Job) error {
	if job.LockedBy == nil {
		return delivery.ErrLeaseLost
	}

	const query = `
UPDATE webhook_jobs
SET
  attempt = $2,
  state = $3,
  next_attempt_at = $4,
  last_error = $5,
  updated_at = $6,
  finished_at = $7,
  locked_by = NULL,
  locked_until = NULL
WHERE id = $1
  AND state = 'attempting'
  AND locked_by = $8`

	tag, err := s.db.Exec(ctx, query,
		job.ID,
		job.Attempt,
		string(job.State),
		job.NextAttemptAt.UTC(),
		job.LastError,
		job.UpdatedAt.UTC(),
		job.FinishedAt,
		*job.LockedBy,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM webhook_jobs WHERE id = $1)`, job.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return delivery.ErrJobNotFound
		}
		return delivery.ErrLeaseLost
	}
	job.LockedBy = nil
	job.LockedUntil = nil
	return nil
}

func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*delivery.Job, error) {
	const query = `SELECT ` + jobColumns + ` FROM webhook_jobs WHERE id = $1`

	j, err := scanJob(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, delivery.ErrJobNotFound
	}
	return j, err
}

func scanJob(row pgx.Row) (*delivery.Job, error) {
	var (
		j       delivery.Job
		event   string
		state   string
		payload string
	)
	if err := row.Scan(
		&j.ID,
		&j.EventID,
		&j.TenantID,
		&j.SubscriptionID,
		&event,
		&payload,
		&j.OccurredAt,
		&j.Attempt,
		&state,
		&j.NextAttemptAt,
		&j.LockedBy,
		&j.LockedUntil,
		&j.LastError,
		&j.CreatedAt,
		&j.UpdatedAt,
		&j.FinishedAt,
	); err != nil {
		return nil, err
	}
	j.Event = webhookEvent(event)
	j.State = delivery.JobState(state)
	j.Payload = []byte(payload)
	return &j, nil
}
