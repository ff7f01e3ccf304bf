package handler

import (
	"net/http"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/core/service"
)

// BalanceOf handles POST /v1/queries/balance-of.
func (h *Handler) BalanceOf(w http.ResponseWriter, r *http.Request) {
	queries, err := decodeBalanceQueries(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	balances, err := h.ledger.BalanceOf(r.Context(), queries)
	h.metrics.RecordCall("balance_of", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, BalanceOfResponse{Balances: balances})
}

// ExpiryOf handles POST /v1/queries/expiry-of.
func (h *Handler) ExpiryOf(w http.ResponseWriter, r *http.Request) {
	queries, err := decodeBalanceQueries(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	expiries, err := h.ledger.ExpiryOf(r.Context(), queries)
	h.metrics.RecordCall("expiry_of", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, ExpiryOfResponse{Expiries: expiries})
}

// TokenMetadata handles POST /v1/queries/token-metadata.
func (h *Handler) TokenMetadata(w http.ResponseWriter, r *http.Request) {
	var req TokenMetadataRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(req.TokenIDs) == 0 {
		h.fail(w, r, domain.ErrBadRequest.WithDetails("token_ids must not be empty"))
		return
	}

	metadata, err := h.ledger.MetadataOf(r.Context(), req.TokenIDs)
	h.metrics.RecordCall("token_metadata", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	items := make([]TokenMetadataItem, 0, len(metadata))
	for _, m := range metadata {
		items = append(items, formatMetadata(m))
	}
	h.writeJSON(w, r, http.StatusOK, TokenMetadataResponse{Metadata: items})
}

// OperatorOf handles POST /v1/queries/operator-of. With delegation
// disabled the answer is false for every pair.
func (h *Handler) OperatorOf(w http.ResponseWriter, r *http.Request) {
	var req OperatorOfRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	queries := make([]service.OperatorQuery, 0, len(req.Queries))
	for _, q := range req.Queries {
		queries = append(queries, service.OperatorQuery{Owner: q.Owner, Operator: q.Operator})
	}

	operators, err := h.ledger.OperatorOf(r.Context(), queries)
	h.metrics.RecordCall("operator_of", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, OperatorOfResponse{Operators: operators})
}

func decodeBalanceQueries(r *http.Request) ([]service.BalanceQuery, error) {
	var req BalanceOfRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if len(req.Queries) == 0 {
		return nil, domain.ErrBadRequest.WithDetails("queries must not be empty")
	}

	queries := make([]service.BalanceQuery, 0, len(req.Queries))
	for _, q := range req.Queries {
		queries = append(queries, service.BalanceQuery{TokenID: q.TokenID, Holder: q.Holder})
	}
	return queries, nil
}
