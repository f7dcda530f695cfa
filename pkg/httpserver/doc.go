// Package httpserver runs the management API listener.
//
// Server listens on the configured address, serves a handler until its
// context is cancelled and then shuts down gracefully within the configured
// timeout. Listen failures are wrapped with ErrStart and shutdown failures
// with ErrShutdown.
//
// HealthCheckHandler backs the /healthz and /readyz probes. Without checks
// it always answers 200; with checks it runs each named probe and answers
// 503 when any of them fails.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	g.Go(srv.RunFunc(ctx, router))
package httpserver
