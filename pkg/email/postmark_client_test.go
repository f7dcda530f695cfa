package email_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/email"
)

func TestNewPostmarkClient_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     email.Config
		wantErr string
	}{
		{
			name:    "missing server token",
			cfg:     email.Config{SenderEmail: "alerts@example.com"},
			wantErr: "PostmarkServerToken is required",
		},
		{
			name:    "invalid sender",
			cfg:     email.Config{PostmarkServerToken: "t", SenderEmail: "alerts"},
			wantErr: "SenderEmail must be a valid email address",
		},
		{
			name:    "invalid support address",
			cfg:     email.Config{PostmarkServerToken: "t", SenderEmail: "alerts@example.com", SupportEmail: "nope"},
			wantErr: "SupportEmail must be a valid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := email.NewPostmarkClient(tt.cfg)
			require.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, client)
		})
	}
}

func TestPostmarkClient_SendEmail(t *testing.T) {
	t.Parallel()

	type postmarkEmail struct {
		From     string
		To       string
		Subject  string
		Tag      string
		HTMLBody string
	}

	newServer := func(t *testing.T, status int, reply map[string]any, got *postmarkEmail) *httptest.Server {
		t.Helper()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/email", r.URL.Path)
			assert.Equal(t, "server-token", r.Header.Get("X-Postmark-Server-Token"))
			if got != nil {
				assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(reply)
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	cfg := email.Config{
		PostmarkServerToken: "server-token",
		SenderEmail:         "alerts@example.com",
		SupportEmail:        "support@example.com",
	}
	params := email.SendEmailParams{
		SendTo:   "ops@example.com",
		Subject:  "Webhook disabled",
		BodyHTML: "<p>disabled</p>",
		Tag:      "webhook-disabled",
	}

	t.Run("sends", func(t *testing.T) {
		t.Parallel()

		var got postmarkEmail
		srv := newServer(t, http.StatusOK, map[string]any{"ErrorCode": 0, "Message": "OK", "MessageID": "abc"}, &got)

		client, err := email.NewPostmarkClient(cfg, email.WithPostmarkBaseURL(srv.URL))
		require.NoError(t, err)
		require.NoError(t, client.SendEmail(context.Background(), params))

		assert.Equal(t, "alerts@example.com", got.From)
		assert.Equal(t, "ops@example.com", got.To)
		assert.Equal(t, "Webhook disabled", got.Subject)
		assert.Equal(t, "webhook-disabled", got.Tag)
		assert.Equal(t, "<p>disabled</p>", got.HTMLBody)
	})

	t.Run("api error code", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, http.StatusUnprocessableEntity, map[string]any{"ErrorCode": 300, "Message": "Invalid email request"}, nil)

		client, err := email.NewPostmarkClient(cfg, email.WithPostmarkBaseURL(srv.URL))
		require.NoError(t, err)
		err = client.SendEmail(context.Background(), params)
		require.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})

	t.Run("invalid params never reach the api", func(t *testing.T) {
		t.Parallel()

		client, err := email.NewPostmarkClient(cfg, email.WithPostmarkBaseURL("http://127.0.0.1:1"))
		require.NoError(t, err)
		err = client.SendEmail(context.Background(), email.SendEmailParams{SendTo: "ops@example.com"})
		require.ErrorIs(t, err, email.ErrInvalidParams)
	})
}
