package delivery

import (
	"context"
	"fmt"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/statemachine"
)

// JobState is the lifecycle state of a delivery job.
type JobState string

const (
	JobPending           JobState = "pending"
	JobAttempting        JobState = "attempting"
	JobDelivered         JobState = "delivered"
	JobPermanentlyFailed JobState = "permanently_failed"
	JobExhausted         JobState = "exhausted"
	JobCancelled         JobState = "cancelled"
)

// JobEvent moves a job between states.
type JobEvent string

const (
	JobClaim   JobEvent = "claim"
	JobRetry   JobEvent = "retry"
	JobDeliver JobEvent = "deliver"
	JobReject  JobEvent = "reject"
	JobExhaust JobEvent = "exhaust"
	JobCancel  JobEvent = "cancel"
)

// leaseHeld rejects transitions out of attempting for a job this process
// does not hold a lease on.
func leaseHeld(_ context.Context, _ JobState, _ JobEvent, data any) bool {
	j, ok := data.(*Job)
	return ok && j.LockedBy != nil
}

var lifecycle = statemachine.NewBuilder[JobState, JobEvent]().
	From(JobPending).When(JobClaim).To(JobAttempting).Add().
	From(JobPending).When(JobCancel).To(JobCancelled).Add().
	From(JobAttempting).When(JobRetry).To(JobPending).WithGuard(leaseHeld).Add().
	From(JobAttempting).When(JobDeliver).To(JobDelivered).WithGuard(leaseHeld).Add().
	From(JobAttempting).When(JobReject).To(JobPermanentlyFailed).WithGuard(leaseHeld).Add().
	From(JobAttempting).When(JobExhaust).To(JobExhausted).WithGuard(leaseHeld).Add().
	From(JobAttempting).When(JobCancel).To(JobCancelled).WithGuard(leaseHeld).Add().
	MustBuild()

// eventFor maps a target state to the event that reaches it.
var eventFor = map[JobState]JobEvent{
	JobAttempting:        JobClaim,
	JobPending:           JobRetry,
	JobDelivered:         JobDeliver,
	JobPermanentlyFailed: JobReject,
	JobExhausted:         JobExhaust,
	JobCancelled:         JobCancel,
}

// Terminal reports whether no further transitions are possible.
func (s JobState) Terminal() bool {
	return lifecycle.Terminal(s)
}

// Fire applies ev to the job. It returns ErrInvalidTransition when ev is not
// defined for the current state and ErrLeaseLost when the job is attempting
// without a lease.
func (j *Job) Fire(ctx context.Context, ev JobEvent) error {
	next, err := lifecycle.Fire(ctx, j.State, ev, j)
	switch {
	case statemachine.IsTransitionRejectedError(err):
		return fmt.Errorf("%w: %s on %s", ErrLeaseLost, ev, j.State)
	case err != nil:
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, j.State)
	}
	j.State = next
	return nil
}

// Transition moves the job to next using the event that leads there.
func (j *Job) Transition(ctx context.Context, next JobState) error {
	ev, ok := eventFor[next]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, next)
	}
	return j.Fire(ctx, ev)
}
