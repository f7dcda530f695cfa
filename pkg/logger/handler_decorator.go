package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor extracts a slog attribute from context.
// It returns false when the context carries no value for it.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type tenantKey struct{}

// WithTenant stores a tenant id in ctx so every record logged with that
// context carries it as "tenant_id". The HTTP API sets it once per request
// after parsing the {tenantID} route parameter.
func WithTenant(ctx context.Context, tenantID any) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// TenantExtractor reads the tenant id set by WithTenant.
// Pass it to New via WithContextExtractors.
func TenantExtractor(ctx context.Context) (slog.Attr, bool) {
	if v := ctx.Value(tenantKey{}); v != nil {
		return TenantID(v), true
	}
	return slog.Attr{}, false
}

// LogHandlerDecorator wraps a slog.Handler and injects attributes from context.
// Extraction only happens when a record is actually handled, so request-scoped
// values such as the request id and tenant id are read fresh for every call
// and no per-request handler has to be built.
type LogHandlerDecorator struct {
	next       slog.Handler
	extractors []ContextExtractor
}

// NewLogHandlerDecorator creates a new decorated handler.
// Nil extractors are dropped so Handle never calls a nil function.
func NewLogHandlerDecorator(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	clean := make([]ContextExtractor, 0, len(extractors))
	for _, ex := range extractors {
		if ex != nil {
			clean = append(clean, ex)
		}
	}
	return &LogHandlerDecorator{next: next, extractors: clean}
}

// Enabled delegates to the wrapped handler.
func (h *LogHandlerDecorator) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle adds every attribute the extractors find in ctx to rec and passes
// it to the wrapped handler.
func (h *LogHandlerDecorator) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

// WithAttrs creates a new decorated handler with additional static attributes.
// The extractors are kept and attribute handling is delegated to the wrapped handler.
func (h *LogHandlerDecorator) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandlerDecorator{
		next:       h.next.WithAttrs(attrs),
		extractors: h.extractors,
	}
}

// WithGroup creates a new decorated handler with attribute grouping.
// The extractors are kept and grouping is delegated to the wrapped handler.
func (h *LogHandlerDecorator) WithGroup(name string) slog.Handler {
	return &LogHandlerDecorator{
		next:       h.next.WithGroup(name),
		extractors: h.extractors,
	}
}
