package delivery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// MemoryStorage implements Store in process memory. It is used by tests and
// by the dispatcher when no database is configured; nothing survives a restart.
type MemoryStorage struct {
	mu       sync.RWMutex
	subs     map[uuid.UUID]*Subscription
	jobs     map[uuid.UUID]*Job
	attempts map[uuid.UUID][]AttemptRecord
}

// NewMemoryStorage creates an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		subs:     make(map[uuid.UUID]*Subscription),
		jobs:     make(map[uuid.UUID]*Job),
		attempts: make(map[uuid.UUID][]AttemptRecord),
	}
}

func cloneSubscription(s *Subscription) Subscription {
	c := *s
	c.Events = slices.Clone(s.Events)
	if s.LastTriggeredAt != nil {
		t := *s.LastTriggeredAt
		c.LastTriggeredAt = &t
	}
	return c
}

func cloneJob(j *Job) *Job {
	c := *j
	c.Payload = slices.Clone(j.Payload)
	return &c
}

func (ms *MemoryStorage) CreateSubscription(_ context.Context, sub *Subscription) error {
	if sub == nil {
		return errors.New("subscription cannot be nil")
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.subs[sub.ID]; exists {
		return fmt.Errorf("subscription %s already exists", sub.ID)
	}
	c := cloneSubscription(sub)
	ms.subs[sub.ID] = &c
	return nil
}

func (ms *MemoryStorage) GetSubscription(_ context.Context, id uuid.UUID) (*Subscription, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	s, ok := ms.subs[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	c := cloneSubscription(s)
	return &c, nil
}

func (ms *MemoryStorage) ListSubscriptions(_ context.Context, tenantID uuid.UUID) ([]Subscription, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]Subscription, 0)
	for _, s := range ms.subs {
		if s.TenantID == tenantID {
			out = append(out, cloneSubscription(s))
		}
	}
	sortSubscriptions(out)
	return out, nil
}

func (ms *MemoryStorage) ListActiveSubscriptions(_ context.Context, tenantID uuid.UUID, event webhook.Event) ([]Subscription, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]Subscription, 0)
	for _, s := range ms.subs {
		if s.TenantID == tenantID && s.Subscribed(event) {
			out = append(out, cloneSubscription(s))
		}
	}
	sortSubscriptions(out)
	return out, nil
}

func (ms *MemoryStorage) UpdateSubscription(_ context.Context, id uuid.UUID, patch SubscriptionPatch) (*Subscription, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.subs[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	if patch.URL != nil {
		s.URL = *patch.URL
	}
	if patch.Secret != nil {
		s.Secret = *patch.Secret
	}
	if patch.Events != nil {
		s.Events = slices.Clone(patch.Events)
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	if patch.Active != nil {
		if *patch.Active && !s.Active {
			s.ConsecutiveFailures = 0
		}
		s.Active = *patch.Active
	}
	s.UpdatedAt = patch.UpdatedAt
	c := cloneSubscription(s)
	return &c, nil
}

func (ms *MemoryStorage) DeleteSubscription(_ context.Context, id uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.subs[id]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(ms.subs, id)
	return nil
}

func (ms *MemoryStorage) RecordDeliverySuccess(_ context.Context, id uuid.UUID, at time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.subs[id]
	if !ok {
		return ErrSubscriptionNotFound
	}
	s.ConsecutiveFailures = 0
	s.LastTriggeredAt = &at
	s.UpdatedAt = at
	return nil
}

func (ms *MemoryStorage) RecordDeliveryFailure(_ context.Context, id uuid.UUID) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.subs[id]
	if !ok {
		return 0, ErrSubscriptionNotFound
	}
	s.ConsecutiveFailures++
	return s.ConsecutiveFailures, nil
}

func (ms *MemoryStorage) DeactivateSubscription(_ context.Context, id uuid.UUID, at time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.subs[id]
	if !ok {
		return ErrSubscriptionNotFound
	}
	s.Active = false
	s.UpdatedAt = at
	return nil
}

func (ms *MemoryStorage) AppendAttempt(_ context.Context, rec *AttemptRecord) error {
	if rec == nil {
		return errors.New("attempt record cannot be nil")
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, r := range ms.attempts[rec.SubscriptionID] {
		if r.JobID == rec.JobID && r.AttemptNumber == rec.AttemptNumber {
			return fmt.Errorf("attempt %d of job %s already recorded", rec.AttemptNumber, rec.JobID)
		}
	}
	c := *rec
	c.Payload = slices.Clone(rec.Payload)
	ms.attempts[rec.SubscriptionID] = append(ms.attempts[rec.SubscriptionID], c)
	return nil
}

func (ms *MemoryStorage) ListAttempts(_ context.Context, subscriptionID uuid.UUID, limit int) ([]AttemptRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	recs := ms.attempts[subscriptionID]
	out := make([]AttemptRecord, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		out = append(out, recs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (ms *MemoryStorage) CreateJobs(_ context.Context, jobs []*Job) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, j := range jobs {
		if _, exists := ms.jobs[j.ID]; exists {
			return fmt.Errorf("job %s already exists", j.ID)
		}
	}
	for _, j := range jobs {
		ms.jobs[j.ID] = cloneJob(j)
	}
	return nil
}

func (ms *MemoryStorage) ClaimDueJobs(_ context.Context, workerID uuid.UUID, now time.Time, limit int, lease time.Duration) ([]*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	due := make([]*Job, 0)
	for _, j := range ms.jobs {
		switch {
		case j.State == JobPending && !j.NextAttemptAt.After(now):
			due = append(due, j)
		case j.State == JobAttempting && j.LockedUntil != nil && j.LockedUntil.Before(now):
			due = append(due, j)
		}
	}
	sort.Slice(due, func(a, b int) bool {
		if due[a].NextAttemptAt.Equal(due[b].NextAttemptAt) {
			return due[a].CreatedAt.Before(due[b].CreatedAt)
		}
		return due[a].NextAttemptAt.Before(due[b].NextAttemptAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	until := now.Add(lease)
	out := make([]*Job, 0, len(due))
	for _, j := range due {
		owner := workerID
		if j.State == JobAttempting {
			j.Attempt++
		}
		j.State = JobAttempting
		j.LockedBy = &owner
		j.LockedUntil = &until
		j.UpdatedAt = now
		out = append(out, cloneJob(j))
	}
	return out, nil
}

func (ms *MemoryStorage) UpdateJob(_ context.Context, job *Job) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored, ok := ms.jobs[job.ID]
	if !ok {
		return ErrJobNotFound
	}
	if stored.State != JobAttempting || stored.LockedBy == nil || job.LockedBy == nil || *stored.LockedBy != *job.LockedBy {
		return ErrLeaseLost
	}
	c := cloneJob(job)
	c.LockedBy = nil
	c.LockedUntil = nil
	ms.jobs[job.ID] = c
	job.LockedBy = nil
	job.LockedUntil = nil
	return nil
}

func (ms *MemoryStorage) GetJob(_ context.Context, id uuid.UUID) (*Job, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	j, ok := ms.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return cloneJob(j), nil
}

// Jobs returns a snapshot of every job, oldest first.
func (ms *MemoryStorage) Jobs() []Job {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]Job, 0, len(ms.jobs))
	for _, j := range ms.jobs {
		out = append(out, *cloneJob(j))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out
}

func sortSubscriptions(subs []Subscription) {
	sort.Slice(subs, func(a, b int) bool {
		if subs[a].CreatedAt.Equal(subs[b].CreatedAt) {
			return subs[a].ID.String() < subs[b].ID.String()
		}
		return subs[a].CreatedAt.Before(subs[b].CreatedAt)
	})
}
