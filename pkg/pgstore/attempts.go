package pgstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// AppendAttempt inserts one log entry. The log is kept after its
// subscription is deleted.
func (s *Store) AppendAttempt(ctx context.Context, rec *delivery.AttemptRecord) error {
	const query = `
INSERT INTO webhook_attempts (
  id,
  subscription_id,
  job_id,
  event_id,
  event,
  payload,
  attempt_number,
  status_code,
  response_body,
  success,
  classification,
  error,
  duration_ms,
  created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.db.Exec(ctx, query,
		rec.ID,
		rec.SubscriptionID,
		rec.JobID,
		rec.EventID,
		string(rec.Event),
		jsonText(rec.Payload),
		rec.AttemptNumber,
		rec.StatusCode,
		rec.ResponseBody,
		rec.Success,
		string(rec.Classification),
		rec.Error,
		rec.Duration.Milliseconds(),
		rec.CreatedAt.UTC(),
	)
	return err
}

// ListAttempts returns the newest attempts first. A non-positive limit
// returns the whole log.
func (s *Store) ListAttempts(ctx context.Context, subscriptionID uuid.UUID, limit int) ([]delivery.AttemptRecord, error) {
	const query = `
SELECT
  id,
  subscription_id,
  job_id,
  event_id,
  event,
  payload,
  attempt_number,
  status_code,
  response_body,
  success,
  classification,
  error,
  duration_ms,
  created_at
FROM webhook_attempts
WHERE subscription_id = $1
ORDER BY created_at DESC, attempt_number DESC
LIMIT NULLIF($2, 0)`

	rows, err := s.db.Query(ctx, query, subscriptionID, max(limit, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]delivery.AttemptRecord, 0)
	for rows.Next() {
		var (
			rec            delivery.AttemptRecord
			event          string
			payload        string
			classification string
			durationMS     int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.SubscriptionID,
			&rec.JobID,
			&rec.EventID,
			&event,
			&payload,
			&rec.AttemptNumber,
			&rec.StatusCode,
			&rec.ResponseBody,
			&rec.Success,
			&classification,
			&rec.Error,
			&durationMS,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Event = webhookEvent(event)
		rec.Payload = []byte(payload)
		rec.Classification = webhook.Classification(classification)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

func webhookEvent(name string) webhook.Event {
	return webhook.Event(name)
}
