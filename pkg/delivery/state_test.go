package delivery_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
)

func leasedJob(state delivery.JobState) *delivery.Job {
	owner := uuid.New()
	return &delivery.Job{State: state, LockedBy: &owner}
}

func TestJobTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	allowed := []struct{ from, to delivery.JobState }{
		{delivery.JobPending, delivery.JobAttempting},
		{delivery.JobPending, delivery.JobCancelled},
		{delivery.JobAttempting, delivery.JobPending},
		{delivery.JobAttempting, delivery.JobDelivered},
		{delivery.JobAttempting, delivery.JobPermanentlyFailed},
		{delivery.JobAttempting, delivery.JobExhausted},
		{delivery.JobAttempting, delivery.JobCancelled},
	}
	for _, tt := range allowed {
		job := leasedJob(tt.from)
		require.NoError(t, job.Transition(ctx, tt.to), "%s -> %s", tt.from, tt.to)
		assert.Equal(t, tt.to, job.State)
	}

	rejected := []struct{ from, to delivery.JobState }{
		{delivery.JobPending, delivery.JobDelivered},
		{delivery.JobDelivered, delivery.JobPending},
		{delivery.JobExhausted, delivery.JobAttempting},
		{delivery.JobPermanentlyFailed, delivery.JobPending},
		{delivery.JobCancelled, delivery.JobAttempting},
		{delivery.JobPending, delivery.JobState("archived")},
	}
	for _, tt := range rejected {
		job := leasedJob(tt.from)
		assert.ErrorIs(t, job.Transition(ctx, tt.to), delivery.ErrInvalidTransition, "%s -> %s", tt.from, tt.to)
		assert.Equal(t, tt.from, job.State)
	}

	assert.True(t, delivery.JobExhausted.Terminal())
	assert.True(t, delivery.JobDelivered.Terminal())
	assert.True(t, delivery.JobCancelled.Terminal())
	assert.False(t, delivery.JobPending.Terminal())
	assert.False(t, delivery.JobAttempting.Terminal())
}

func TestJobTransitions_RequireLeaseWhileAttempting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, ev := range []delivery.JobEvent{
		delivery.JobRetry,
		delivery.JobDeliver,
		delivery.JobReject,
		delivery.JobExhaust,
		delivery.JobCancel,
	} {
		job := &delivery.Job{State: delivery.JobAttempting}
		assert.ErrorIs(t, job.Fire(ctx, ev), delivery.ErrLeaseLost, "event %s", ev)
		assert.Equal(t, delivery.JobAttempting, job.State)
	}

	pending := &delivery.Job{State: delivery.JobPending}
	require.NoError(t, pending.Fire(ctx, delivery.JobCancel), "pending jobs are cancelled without a lease")
	assert.Equal(t, delivery.JobCancelled, pending.State)
}
