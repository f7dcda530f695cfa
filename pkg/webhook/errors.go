package webhook

import "errors"

// Configuration errors fail fast; delivery errors are reported through Outcome
// and classified by Classify.
var (
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
	ErrInvalidPayload       = errors.New("invalid webhook payload")
	ErrInvalidURL           = errors.New("invalid webhook URL")
	ErrUnknownEvent         = errors.New("unknown webhook event")
	ErrSignatureMismatch    = errors.New("webhook signature mismatch")
	ErrTimeout              = errors.New("webhook request timeout")
	ErrTransport            = errors.New("webhook transport failure")
	ErrUnexpectedStatus     = errors.New("webhook endpoint returned non-2xx status")
)
