// Package logger builds the service's *slog.Logger.
//
// New applies functional options, picks a text or JSON handler and wraps it
// in LogHandlerDecorator, which copies values stored in context.Context onto
// every record. The tenant id stored with WithTenant is always extracted, so
// per-tenant work can be followed across the delivery worker and the
// balancing engine.
//
// Attribute helpers in attr.go keep key names consistent:
//
//	log.InfoContext(ctx, "delivery attempt finished",
//	    logger.SubscriptionID(sub.ID),
//	    logger.Attempt(job.Attempt),
//	    logger.StatusCode(out.StatusCode),
//	    logger.Error(out.Err),
//	)
//
// Error and Errors return an empty attribute for nil errors, so callers do not
// need a nil check.
//
// # Usage
//
//	log := logger.New(logger.WithEnvironment(cfg.AppEnv, "dispatcher"))
//	logger.SetAsDefault(log)
package logger
