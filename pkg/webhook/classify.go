package webhook

// Classification is the verdict on a single delivery attempt.
type Classification string

const (
	Success          Classification = "success"
	PermanentFailure Classification = "permanent_failure"
	TransientFailure Classification = "transient_failure"
)

// Classify maps an HTTP status code to a delivery verdict.
// A zero status code means no response was received and is transient.
// 4xx responses are never retried. 1xx and 3xx final responses are treated
// like server errors because the receiver did not acknowledge the event.
func Classify(statusCode int) Classification {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return Success
	case statusCode >= 400 && statusCode < 500:
		return PermanentFailure
	default:
		return TransientFailure
	}
}

// Retryable reports whether another attempt may succeed.
func (c Classification) Retryable() bool {
	return c == TransientFailure
}
