package pg

import "context"

// logger defines the interface required for migration logging.
// *slog.Logger satisfies it; goose output is routed through it instead of
// being printed to stdout.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}
