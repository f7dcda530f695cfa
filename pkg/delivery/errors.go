package delivery

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("webhook subscription not found")
	ErrJobNotFound          = errors.New("delivery job not found")
	ErrInvalidTransition    = errors.New("invalid delivery job transition")
	ErrLeaseLost            = errors.New("delivery job lease lost")
	ErrResolveFailed        = errors.New("failed to resolve subscriptions")
	ErrPersistJobs          = errors.New("failed to persist delivery jobs")
	ErrInvalidSubscription  = errors.New("invalid webhook subscription")
	ErrInvalidPayload       = errors.New("invalid event payload")
	ErrRepositoryNil        = errors.New("repository cannot be nil")
	ErrWorkerRunning        = errors.New("delivery worker already started")
	ErrWorkerNotRunning     = errors.New("delivery worker not started")
)
