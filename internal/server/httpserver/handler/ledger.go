package handler

import (
	"net/http"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/core/service"
)

// Register handles POST /v1/tokens.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(req.Tokens) == 0 {
		h.fail(w, r, domain.ErrBadRequest.WithDetails("tokens must not be empty"))
		return
	}

	requests := make([]service.RegisterRequest, 0, len(req.Tokens))
	for _, spec := range req.Tokens {
		metadata, err := parseMetadata(spec.MetadataURL, spec.MetadataHash)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		requests = append(requests, service.RegisterRequest{TokenID: spec.TokenID, Metadata: metadata})
	}

	err := h.ledger.Register(r.Context(), identity(r).Admin(), requests)
	h.metrics.RecordCall("register", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.syncGauges(r)
	h.writeJSON(w, r, http.StatusCreated, map[string]int{"registered": len(requests)})
}

// Mint handles POST /v1/tokens/mint.
func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	var req MintRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(req.Mints) == 0 {
		h.fail(w, r, domain.ErrBadRequest.WithDetails("mints must not be empty"))
		return
	}

	requests := make([]service.MintRequest, 0, len(req.Mints))
	for _, spec := range req.Mints {
		requests = append(requests, service.MintRequest{
			TokenID: spec.TokenID,
			Amount:  spec.Amount,
			Expiry:  spec.Expiry,
		})
	}

	err := h.ledger.Mint(r.Context(), identity(r).Admin(), req.Owner, requests)
	h.metrics.RecordCall("mint", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.syncGauges(r)
	h.writeJSON(w, r, http.StatusOK, map[string]int{"minted": len(requests)})
}

// Remove handles POST /v1/tokens/remove.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	var req RemoveRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(req.TokenIDs) == 0 {
		h.fail(w, r, domain.ErrBadRequest.WithDetails("token_ids must not be empty"))
		return
	}

	err := h.ledger.Remove(r.Context(), identity(r).Admin(), req.TokenIDs)
	h.metrics.RecordCall("remove", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.syncGauges(r)
	h.writeJSON(w, r, http.StatusOK, map[string]int{"removed": len(req.TokenIDs)})
}

// Transfer handles POST /v1/transfers. Transfers are permanently
// disabled; the endpoint exists so clients get a stable error instead
// of a 404.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	err := h.ledger.Transfer(r.Context())
	h.metrics.RecordCall("transfer", err)
	h.fail(w, r, err)
}

// UpdateOperator handles POST /v1/operators. Operator delegation is
// permanently disabled, like Transfer.
func (h *Handler) UpdateOperator(w http.ResponseWriter, r *http.Request) {
	err := h.ledger.UpdateOperator(r.Context())
	h.metrics.RecordCall("update_operator", err)
	h.fail(w, r, err)
}
