package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request describes one delivery attempt to one subscriber.
type Request struct {
	URL        string
	Secret     string
	WebhookID  string
	Event      Event
	OccurredAt time.Time
	Data       json.RawMessage
}

// Outcome is what happened during one attempt. It is returned for every attempt,
// including ones that never reached the network.
type Outcome struct {
	Classification Classification
	StatusCode     int
	ResponseBody   string
	Payload        []byte
	Duration       time.Duration
	Err            error
}

// Success reports whether the subscriber acknowledged the event.
func (o Outcome) Success() bool {
	return o.Classification == Success
}

// Executor performs single signed delivery attempts. It never retries on its own;
// scheduling follow-up attempts is the caller's job.
type Executor struct {
	client    *http.Client
	timeout   time.Duration
	bodyLimit int
	userAgent string
	headers   map[string]string
}

// NewExecutor creates an executor with a pooled HTTP client.
func NewExecutor(opts ...Option) *Executor {
	o := &executorOptions{
		timeout:   DefaultTimeout,
		bodyLimit: DefaultBodyLimit,
		userAgent: DefaultUserAgent,
		headers:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			// Redirects are reported as-is, never followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &Executor{
		client:    o.client,
		timeout:   o.timeout,
		bodyLimit: o.bodyLimit,
		userAgent: o.userAgent,
		headers:   o.headers,
	}
}

// Attempt builds the envelope, signs it and POSTs it once.
// Invalid input (bad URL, empty secret, unknown event) yields a permanent failure
// since repeating the attempt cannot change the result.
func (e *Executor) Attempt(ctx context.Context, req Request) Outcome {
	start := time.Now()

	if err := ValidateURL(req.URL); err != nil {
		return Outcome{Classification: PermanentFailure, Err: err}
	}

	payload, err := NewEnvelope(req.Event, req.OccurredAt, req.Data, req.WebhookID).Marshal()
	if err != nil {
		return Outcome{Classification: PermanentFailure, Err: err}
	}

	signature, err := Sign(payload, req.Secret)
	if err != nil {
		return Outcome{Classification: PermanentFailure, Payload: payload, Err: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, req.URL, bytes.NewReader(payload))
	if err != nil {
		return Outcome{Classification: PermanentFailure, Payload: payload, Err: fmt.Errorf("%w: %w", ErrInvalidURL, err)}
	}

	for k, v := range e.headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", e.userAgent)
	httpReq.Header.Set(HeaderSignature, signature)
	httpReq.Header.Set(HeaderEvent, req.Event.String())
	httpReq.Header.Set(HeaderTimestamp, FormatTimestamp(req.OccurredAt))
	httpReq.Header.Set(HeaderID, req.WebhookID)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		out := Outcome{
			Classification: TransientFailure,
			Payload:        payload,
			Duration:       time.Since(start),
		}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			out.Err = fmt.Errorf("%w: %w", ErrTimeout, err)
		} else {
			out.Err = fmt.Errorf("%w: %w", ErrTransport, err)
		}
		return out
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, int64(e.bodyLimit)))
	// Drain the remainder so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	out := Outcome{
		Classification: Classify(resp.StatusCode),
		StatusCode:     resp.StatusCode,
		ResponseBody:   excerpt(body),
		Payload:        payload,
		Duration:       time.Since(start),
	}
	if !out.Success() {
		out.Err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return out
}

// excerpt returns body as text, dropping a multi-byte rune cut by the read
// limit and any other invalid UTF-8.
func excerpt(body []byte) string {
	return strings.ToValidUTF8(string(body), "")
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}
