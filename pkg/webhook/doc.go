// Package webhook implements the wire side of outbound tenant notifications:
// the event enumeration, the JSON envelope, HMAC-SHA256 request signing and a
// single-attempt HTTP executor that classifies every response.
//
// The package holds no state about subscriptions or retries. Persistence,
// fan-out and retry scheduling live in package delivery, which calls
// Executor.Attempt once per scheduled attempt.
//
// # Wire format
//
// Every delivery is an HTTP POST with body
//
//	{"event":"shipment.created","timestamp":"2024-05-01T10:00:00.000Z","data":{...},"webhookId":"<subscription id>"}
//
// and headers
//
//	Content-Type: application/json
//	X-Webhook-Signature: hex(HMAC-SHA256(secret, body))
//	X-Webhook-Event: shipment.created
//	X-Webhook-Timestamp: 2024-05-01T10:00:00.000Z
//	X-Webhook-ID: <subscription id>
//
// The timestamp is the moment the event instance was created; it stays the
// same for every retry of that instance.
//
// # Verifying on the receiving side
//
//	body, _ := io.ReadAll(r.Body)
//	headers, err := webhook.ExtractSignatureHeaders(r.Header)
//	if err != nil {
//	    return err
//	}
//	if err := webhook.Verify(body, secret, headers.Signature); err != nil {
//	    return err
//	}
//
// # Classification
//
// 2xx responses are a success. 4xx responses are permanent failures and are
// never retried. 5xx responses, timeouts, refused connections and other
// transport errors are transient. 1xx and 3xx final responses are transient too.
//
// # Backoff
//
// DefaultBackoffStrategy yields 1s, 2s, 4s, 8s, 16s for attempts 1..5.
package webhook
