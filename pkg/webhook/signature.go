package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// Header names carried by every delivery request.
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderEvent     = "X-Webhook-Event"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderID        = "X-Webhook-ID"
)

// Sign returns the lowercase hex HMAC-SHA256 of payload keyed by secret.
// The signature covers the exact payload bytes, so receivers must verify
// against the raw request body.
func Sign(payload []byte, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify checks a received signature in constant time.
func Verify(payload []byte, secret, signature string) error {
	if signature == "" {
		return fmt.Errorf("%w: signature is missing", ErrSignatureMismatch)
	}
	expected, err := Sign(payload, secret)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrSignatureMismatch
	}
	return nil
}

// SignatureHeaders are the delivery headers a receiver needs to authenticate a request.
type SignatureHeaders struct {
	Signature string
	Event     Event
	Timestamp string
	ID        string
}

// ExtractSignatureHeaders reads the delivery headers from a received request.
func ExtractSignatureHeaders(h http.Header) (SignatureHeaders, error) {
	sig := SignatureHeaders{
		Signature: h.Get(HeaderSignature),
		Event:     Event(h.Get(HeaderEvent)),
		Timestamp: h.Get(HeaderTimestamp),
		ID:        h.Get(HeaderID),
	}
	if sig.Signature == "" || sig.Timestamp == "" {
		return SignatureHeaders{}, fmt.Errorf("%w: missing required signature headers", ErrInvalidConfiguration)
	}
	return sig, nil
}
