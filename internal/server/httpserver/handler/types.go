package handler

import (
	"time"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/infra/buildinfo"
)

// Response is the JSON envelope used by every endpoint except /metrics
// and the snapshot export.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse builds a success envelope.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// TokenSpec describes one token to register.
type TokenSpec struct {
	TokenID     domain.TokenID `json:"token_id"`
	MetadataURL string         `json:"metadata_url"`

	// MetadataHash is the optional hex-encoded SHA-256 digest of the
	// metadata document.
	MetadataHash string `json:"metadata_hash,omitempty"`
}

// RegisterRequest is the body of POST /v1/tokens.
type RegisterRequest struct {
	Tokens []TokenSpec `json:"tokens"`
}

// MintSpec describes one balance record to install.
type MintSpec struct {
	TokenID domain.TokenID `json:"token_id"`
	Amount  domain.Amount  `json:"amount"`

	// Expiry is the absolute expiry instant, Unix milliseconds.
	Expiry int64 `json:"expiry"`
}

// MintRequest is the body of POST /v1/tokens/mint.
type MintRequest struct {
	Owner string     `json:"owner"`
	Mints []MintSpec `json:"mints"`
}

// RemoveRequest is the body of POST /v1/tokens/remove.
type RemoveRequest struct {
	TokenIDs []domain.TokenID `json:"token_ids"`
}

// BalancePair addresses one (token, holder) pair in a query.
type BalancePair struct {
	TokenID domain.TokenID `json:"token_id"`
	Holder  string         `json:"holder"`
}

// BalanceOfRequest is the body of POST /v1/queries/balance-of and
// POST /v1/queries/expiry-of.
type BalanceOfRequest struct {
	Queries []BalancePair `json:"queries"`
}

// BalanceOfResponse carries one balance per query, in query order.
type BalanceOfResponse struct {
	Balances []domain.Amount `json:"balances"`
}

// ExpiryOfResponse carries one expiry per query, in query order. A
// null entry means the holder has no record for that token.
type ExpiryOfResponse struct {
	Expiries []*int64 `json:"expiries"`
}

// TokenMetadataRequest is the body of POST /v1/queries/token-metadata.
type TokenMetadataRequest struct {
	TokenIDs []domain.TokenID `json:"token_ids"`
}

// TokenMetadataItem is one resolved metadata descriptor.
type TokenMetadataItem struct {
	URL  string `json:"url"`
	Hash string `json:"hash,omitempty"`
}

// TokenMetadataResponse carries one descriptor per token, in request
// order.
type TokenMetadataResponse struct {
	Metadata []TokenMetadataItem `json:"metadata"`
}

// OperatorPair addresses one (owner, operator) pair.
type OperatorPair struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
}

// OperatorOfRequest is the body of POST /v1/queries/operator-of.
type OperatorOfRequest struct {
	Queries []OperatorPair `json:"queries"`
}

// OperatorOfResponse carries one flag per query, in query order.
type OperatorOfResponse struct {
	Operators []bool `json:"operators"`
}

// ExportRequest is the body of POST /admin/v1/export.
type ExportRequest struct {
	Passphrase string `json:"passphrase"`
}

// StatusResponse is the body of GET /admin/v1/status/summary.
type StatusResponse struct {
	Build          buildinfo.Info   `json:"build"`
	TokenCount     int              `json:"token_count"`
	BalanceRecords int              `json:"balance_records"`
	TokenIDs       []domain.TokenID `json:"token_ids"`
	Time           int64            `json:"time"`
}

// EventsResponse is the body of GET /admin/v1/events.
type EventsResponse struct {
	Events []domain.Event `json:"events"`
}

// parseMetadata converts the wire form of a metadata descriptor into
// the domain form, validating the optional hash.
func parseMetadata(url, hexHash string) (domain.MetadataURL, error) {
	hash, err := domain.ParseMetadataHash(hexHash)
	if err != nil {
		return domain.MetadataURL{}, err
	}
	return domain.MetadataURL{URL: url, Hash: hash}, nil
}

// formatMetadata is the inverse of parseMetadata.
func formatMetadata(metadata domain.MetadataURL) TokenMetadataItem {
	return TokenMetadataItem{URL: metadata.URL, Hash: metadata.HashHex()}
}
