package service

import (
	"context"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/core/ledger"
)

// BalanceQuery addresses one (token, holder) pair.
type BalanceQuery struct {
	TokenID domain.TokenID
	Holder  string
}

// BalanceOf resolves the effective balance of each queried pair at the
// call instant. Sub-queries are processed independently in order; the
// first failure (unknown token, or a non-account holder) aborts the
// whole batch with that error and no partial results.
func (s *LedgerService) BalanceOf(_ context.Context, queries []BalanceQuery) ([]domain.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	out := make([]domain.Amount, 0, len(queries))
	for _, q := range queries {
		holder, err := domain.ParseAccount(q.Holder)
		if err != nil {
			return nil, err
		}
		amount, err := s.ledger.BalanceOf(q.TokenID, holder, now)
		if err != nil {
			return nil, err
		}
		out = append(out, amount)
	}
	return out, nil
}

// ExpiryOf returns the stored expiry of each queried pair verbatim, or
// nil where the holder has no record. Expiry is deliberately not
// time-masked: an expired record still reports its original instant,
// in contrast to BalanceOf. Batch semantics match BalanceOf.
func (s *LedgerService) ExpiryOf(_ context.Context, queries []BalanceQuery) ([]*int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*int64, 0, len(queries))
	for _, q := range queries {
		holder, err := domain.ParseAccount(q.Holder)
		if err != nil {
			return nil, err
		}
		expiry, err := s.ledger.ExpiryOf(q.TokenID, holder)
		if err != nil {
			return nil, err
		}
		out = append(out, expiry)
	}
	return out, nil
}

// MetadataOf returns the metadata descriptor of each queried token.
// The first unknown identifier aborts the batch.
func (s *LedgerService) MetadataOf(_ context.Context, ids []domain.TokenID) ([]domain.MetadataURL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.MetadataURL, 0, len(ids))
	for _, id := range ids {
		metadata, err := s.ledger.MetadataOf(id)
		if err != nil {
			return nil, err
		}
		out = append(out, metadata)
	}
	return out, nil
}

// Transfer is permanently disabled: this ledger moves value only
// through mint and removal, never between holders.
func (s *LedgerService) Transfer(context.Context) error {
	return domain.ErrUnauthorized.WithDetails("transfers are disabled on this ledger")
}

// UpdateOperator is permanently disabled alongside Transfer.
func (s *LedgerService) UpdateOperator(context.Context) error {
	return domain.ErrUnauthorized.WithDetails("operator delegation is disabled on this ledger")
}

// OperatorQuery addresses one (owner, operator) pair.
type OperatorQuery struct {
	Owner    string
	Operator string
}

// OperatorOf reports false for every queried pair: with delegation
// disabled nobody is ever anybody's operator.
func (s *LedgerService) OperatorOf(_ context.Context, queries []OperatorQuery) ([]bool, error) {
	out := make([]bool, len(queries))
	return out, nil
}

// Status summarises the ledger for the admin surface.
type Status struct {
	TokenCount     int              `json:"token_count"`
	BalanceRecords int              `json:"balance_records"`
	TokenIDs       []domain.TokenID `json:"token_ids"`
}

// Status returns a summary of the current state.
func (s *LedgerService) Status(context.Context) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.ledger.TokenIDs()
	records := 0
	for _, id := range ids {
		records += s.ledger.BalanceCount(id)
	}
	return Status{
		TokenCount:     s.ledger.TokenCount(),
		BalanceRecords: records,
		TokenIDs:       ids,
	}
}

// Snapshot returns a portable copy of the full state, used by the
// encrypted export.
func (s *LedgerService) Snapshot(context.Context) []ledger.TokenSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.Snapshot()
}
