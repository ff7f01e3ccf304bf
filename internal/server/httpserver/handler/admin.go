package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/infra/buildinfo"
	"github.com/arvos-io/expiryledger/internal/storage/snapshot"
	"github.com/arvos-io/expiryledger/internal/telemetry/logger"
)

// defaultEventTail bounds GET /admin/v1/events when no limit is given.
const defaultEventTail = 100

// Status handles GET /admin/v1/status/summary.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.ledger.Status(r.Context())
	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Build:          buildinfo.Get(),
		TokenCount:     status.TokenCount,
		BalanceRecords: status.BalanceRecords,
		TokenIDs:       status.TokenIDs,
		Time:           time.Now().UnixMilli(),
	})
}

// Events handles GET /admin/v1/events. It returns the most recent
// entries of the in-memory event buffer, newest last.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventTail
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.fail(w, r, domain.ErrBadRequest.WithDetails("limit must be a positive integer"))
			return
		}
		limit = n
	}

	events := []domain.Event{}
	if h.events != nil {
		events = h.events.Tail(limit)
	}
	h.writeJSON(w, r, http.StatusOK, EventsResponse{Events: events})
}

// Export handles POST /admin/v1/export. It streams an encrypted
// snapshot of the full ledger state, sealed under the caller's
// passphrase.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(req.Passphrase) < snapshot.MinPassphraseLength {
		h.fail(w, r, domain.ErrBadRequest.WithDetails("passphrase too short"))
		return
	}

	createdAt := time.Now().UnixMilli()
	tokens := h.ledger.Snapshot(r.Context())

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition",
		`attachment; filename="expiryledger-`+strconv.FormatInt(createdAt, 10)+`.snap"`)

	if err := snapshot.Write(w, []byte(req.Passphrase), createdAt, tokens); err != nil {
		// Headers are gone; all we can do is log and cut the stream.
		h.log.Error("snapshot export failed",
			"error", err,
			"request_id", logger.RequestIDFromContext(r.Context()),
		)
	}
}
