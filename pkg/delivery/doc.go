// Package delivery fans domain events out to tenant webhook subscriptions
// and drives every delivery to a final state.
//
// The pieces, in data-flow order:
//
//   - Orchestrator.Dispatch validates the event, asks the Resolver for the
//     tenant's active subscriptions that include it and stores one Job per
//     subscription. It returns immediately.
//   - Worker polls the JobRepository, leases due jobs and runs one attempt
//     per job through a webhook.Executor, appending exactly one AttemptRecord
//     per attempt.
//   - Scheduler turns each outcome into the next job state:
//     delivered, permanently_failed, pending (retry after backoff) or
//     exhausted. Exhaustion deactivates the subscription and calls the
//     Notifier.
//
// Jobs live in storage with a due time, so retries survive process restarts.
// A worker that dies mid-attempt loses its lease and another worker picks the
// job up again, which makes delivery at-least-once.
//
// Registry offers tenant-scoped management of subscriptions: register,
// update, reactivate, rotate secret, delete and browse recent attempts.
//
// MemoryStorage implements every repository for tests and single-process
// runs; package pgstore provides the PostgreSQL implementation.
package delivery
