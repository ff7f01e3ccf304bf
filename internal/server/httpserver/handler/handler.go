// Package handler implements the HTTP endpoints of the ledger API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/core/service"
	"github.com/arvos-io/expiryledger/internal/eventlog"
	"github.com/arvos-io/expiryledger/internal/telemetry/logger"
	"github.com/arvos-io/expiryledger/internal/telemetry/metric"
)

// Handler holds the services the endpoints dispatch to.
type Handler struct {
	ledger  *service.LedgerService
	events  *eventlog.MemorySink
	metrics *metric.Registry
	log     logger.Logger
}

// New creates a Handler. events may be nil when the in-memory event
// buffer is disabled; the events endpoint then returns an empty list.
func New(ledger *service.LedgerService, events *eventlog.MemorySink, metrics *metric.Registry, log logger.Logger) *Handler {
	return &Handler{
		ledger:  ledger,
		events:  events,
		metrics: metrics,
		log:     log,
	}
}

type contextKey string

const identityContextKey contextKey = "expiryledger.identity"

// WithIdentity stores the authenticated caller in the context.
func WithIdentity(ctx context.Context, id service.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFrom retrieves the authenticated caller, if any.
func IdentityFrom(ctx context.Context) (service.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(service.Identity)
	return id, ok
}

// identity returns the caller's identity, or the zero value when the
// request bypassed authentication. The zero value carries no admin
// capability, so gated services reject it.
func identity(r *http.Request) service.Identity {
	id, _ := IdentityFrom(r.Context())
	return id
}

// syncGauges refreshes the state gauges after a committed mutation.
func (h *Handler) syncGauges(r *http.Request) {
	status := h.ledger.Status(r.Context())
	h.metrics.TokensRegistered.Set(float64(status.TokenCount))
	h.metrics.BalanceRecords.Set(float64(status.BalanceRecords))
}

// decode parses the JSON request body into dst.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrBadRequest.WithDetails("malformed request body").WithCause(err)
	}
	return nil
}

// writeJSON writes a success envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.log.Error("failed to encode response", "error", err, "request_id", requestID)
	}
}

// writeError writes an error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := logger.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message))
}

// fail converts a service error into an HTTP error response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		h.writeError(w, r, statusFor(code), code, err.Error())
		return
	}

	h.log.Error("internal error", "error", err, "request_id", logger.RequestIDFromContext(r.Context()))
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternal.Code, "internal server error")
}

// statusFor maps ledger error codes onto HTTP status codes.
func statusFor(code string) int {
	switch code {
	case domain.ErrInvalidTokenID.Code:
		return http.StatusNotFound
	case domain.ErrTokenExpired.Code, domain.ErrTokenHasValidBalances.Code:
		return http.StatusConflict
	case domain.ErrUnauthorized.Code:
		return http.StatusForbidden
	case domain.ErrAPIKeyMissing.Code, domain.ErrAPIKeyInvalid.Code, domain.ErrAPIKeyDisabled.Code:
		return http.StatusUnauthorized
	case domain.ErrRateLimited.Code:
		return http.StatusTooManyRequests
	case domain.ErrUnsupportedHolderKind.Code, domain.ErrBadRequest.Code:
		return http.StatusBadRequest
	}
	if strings.HasPrefix(code, "EL-SYS-5") {
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
