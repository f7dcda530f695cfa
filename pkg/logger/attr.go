package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TenantID records the tenant identifier under the key "tenant_id".
// If id is nil, it returns an empty Attr.
func TenantID(id any) slog.Attr {
	return optional("tenant_id", id)
}

// SubscriptionID records the webhook subscription identifier.
func SubscriptionID(id any) slog.Attr {
	return optional("subscription_id", id)
}

// JobID records the delivery job identifier.
func JobID(id any) slog.Attr {
	return optional("job_id", id)
}

// EventID records the identifier shared by all deliveries of one event instance.
func EventID(id any) slog.Attr {
	return optional("event_id", id)
}

// ShipmentID records the shipment identifier.
func ShipmentID(id any) slog.Attr {
	return optional("shipment_id", id)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id any) slog.Attr {
	return optional("request_id", id)
}

// Attempt records the 1-based delivery attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// StatusCode records an HTTP status code. Zero means no response was received.
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// Classification records the verdict of a delivery attempt.
func Classification(c string) slog.Attr {
	return slog.String("classification", c)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func optional(key string, v any) slog.Attr {
	if v == nil {
		return slog.Attr{}
	}
	return slog.Any(key, v)
}
