package webhook_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

func newRequest(url string) webhook.Request {
	return webhook.Request{
		URL:        url,
		Secret:     "whsec_test",
		WebhookID:  "wh_123",
		Event:      webhook.EventShipmentCreated,
		OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Data:       json.RawMessage(`{"shipment_id":"s1"}`),
	}
}

func TestExecutor_Attempt_Success(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotHeader http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"received":true}`))
	}))
	defer server.Close()

	out := webhook.NewExecutor().Attempt(context.Background(), newRequest(server.URL))
	require.NoError(t, out.Err)
	assert.True(t, out.Success())
	assert.Equal(t, http.StatusOK, out.StatusCode)
	assert.Equal(t, `{"received":true}`, out.ResponseBody)
	assert.Equal(t, gotBody, out.Payload)

	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "shipment.created", gotHeader.Get(webhook.HeaderEvent))
	assert.Equal(t, "2024-01-02T03:04:05.000Z", gotHeader.Get(webhook.HeaderTimestamp))
	assert.Equal(t, "wh_123", gotHeader.Get(webhook.HeaderID))
	assert.NoError(t, webhook.Verify(gotBody, "whsec_test", gotHeader.Get(webhook.HeaderSignature)))

	var env webhook.Envelope
	require.NoError(t, json.Unmarshal(gotBody, &env))
	assert.Equal(t, webhook.EventShipmentCreated, env.Event)
	assert.Equal(t, "wh_123", env.WebhookID)
	assert.JSONEq(t, `{"shipment_id":"s1"}`, string(env.Data))
}

func TestExecutor_Attempt_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   webhook.Classification
	}{
		{http.StatusNoContent, webhook.Success},
		{http.StatusBadRequest, webhook.PermanentFailure},
		{http.StatusGone, webhook.PermanentFailure},
		{http.StatusInternalServerError, webhook.TransientFailure},
		{http.StatusServiceUnavailable, webhook.TransientFailure},
		{http.StatusFound, webhook.TransientFailure},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status == http.StatusFound {
					w.Header().Set("Location", "/elsewhere")
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			out := webhook.NewExecutor().Attempt(context.Background(), newRequest(server.URL))
			assert.Equal(t, tt.want, out.Classification)
			assert.Equal(t, tt.status, out.StatusCode)
			if tt.want != webhook.Success {
				assert.ErrorIs(t, out.Err, webhook.ErrUnexpectedStatus)
			}
		})
	}
}

func TestExecutor_Attempt_TruncatesBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	out := webhook.NewExecutor().Attempt(context.Background(), newRequest(server.URL))
	assert.Equal(t, webhook.TransientFailure, out.Classification)
	assert.Len(t, out.ResponseBody, webhook.DefaultBodyLimit)
}

func TestExecutor_Attempt_BodyExcerptIsValidUTF8(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		// One ASCII byte shifts every two-byte rune so the limit falls inside one.
		_, _ = w.Write([]byte("x" + strings.Repeat("é", 400)))
	}))
	defer server.Close()

	out := webhook.NewExecutor().Attempt(context.Background(), newRequest(server.URL))
	assert.Equal(t, http.StatusInternalServerError, out.StatusCode)
	assert.True(t, utf8.ValidString(out.ResponseBody))
	assert.LessOrEqual(t, len(out.ResponseBody), webhook.DefaultBodyLimit)
	assert.Equal(t, "x"+strings.Repeat("é", (webhook.DefaultBodyLimit-1)/2), out.ResponseBody)
}

func TestExecutor_Attempt_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	out := webhook.NewExecutor(webhook.WithTimeout(50*time.Millisecond)).Attempt(context.Background(), newRequest(server.URL))
	assert.Equal(t, webhook.TransientFailure, out.Classification)
	assert.Zero(t, out.StatusCode)
	assert.ErrorIs(t, out.Err, webhook.ErrTimeout)
}

func TestExecutor_Attempt_ConnectionRefused(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	out := webhook.NewExecutor().Attempt(context.Background(), newRequest(url))
	assert.Equal(t, webhook.TransientFailure, out.Classification)
	assert.Zero(t, out.StatusCode)
	assert.ErrorIs(t, out.Err, webhook.ErrTransport)
	assert.NotEmpty(t, out.Payload)
}

func TestExecutor_Attempt_InvalidInput(t *testing.T) {
	t.Parallel()

	exec := webhook.NewExecutor()

	req := newRequest("ftp://example.com/hook")
	out := exec.Attempt(context.Background(), req)
	assert.Equal(t, webhook.PermanentFailure, out.Classification)
	assert.ErrorIs(t, out.Err, webhook.ErrInvalidURL)

	req = newRequest("https://example.com/hook")
	req.Secret = ""
	out = exec.Attempt(context.Background(), req)
	assert.Equal(t, webhook.PermanentFailure, out.Classification)
	assert.ErrorIs(t, out.Err, webhook.ErrInvalidConfiguration)
}

func TestValidateURL(t *testing.T) {
	t.Parallel()

	assert.NoError(t, webhook.ValidateURL("https://partner.example.com/hooks"))
	assert.NoError(t, webhook.ValidateURL("http://localhost:8080/x"))
	assert.ErrorIs(t, webhook.ValidateURL(""), webhook.ErrInvalidURL)
	assert.ErrorIs(t, webhook.ValidateURL("/relative"), webhook.ErrInvalidURL)
	assert.ErrorIs(t, webhook.ValidateURL("mailto:ops@example.com"), webhook.ErrInvalidURL)
	assert.ErrorIs(t, webhook.ValidateURL("https://"), webhook.ErrInvalidURL)
}
