package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/balance"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/logger"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Data: data})
}

// errorInfo maps err onto a status and a stable error code. Unknown errors
// are reported as internal without leaking their message.
func errorInfo(err error) (int, ErrorDetail) {
	switch {
	case errors.Is(err, delivery.ErrSubscriptionNotFound):
		return http.StatusNotFound, ErrorDetail{Code: "not_found", Message: err.Error()}
	case errors.Is(err, ErrInvalidBody), errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidQuery):
		return http.StatusBadRequest, ErrorDetail{Code: "bad_request", Message: err.Error()}
	case errors.Is(err, delivery.ErrInvalidSubscription),
		errors.Is(err, delivery.ErrInvalidPayload),
		errors.Is(err, webhook.ErrUnknownEvent),
		errors.Is(err, webhook.ErrInvalidURL):
		return http.StatusUnprocessableEntity, ErrorDetail{Code: "validation_error", Message: err.Error()}
	case errors.Is(err, balance.ErrRebalanceInProgress):
		return http.StatusConflict, ErrorDetail{Code: "rebalance_in_progress", Message: err.Error()}
	case errors.Is(err, ErrRebalancerDisabled):
		return http.StatusServiceUnavailable, ErrorDetail{Code: "rebalancer_disabled", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorDetail{Code: "internal_error", Message: http.StatusText(http.StatusInternalServerError)}
	}
}

func (a *API) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := errorInfo(err)
	if status >= http.StatusInternalServerError {
		a.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Error(err))
	} else {
		a.logger.DebugContext(r.Context(), "request rejected",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.StatusCode(status),
			logger.Error(err))
	}
	writeJSON(w, status, Envelope{Error: &detail})
}
