// Package ledger implements the token ledger state.
package ledger

import (
	"sort"

	"github.com/arvos-io/expiryledger/internal/core/domain"
)

// tokenEntry is the state of one registered token type: its metadata
// descriptor and the balance records of its holders, keyed by holder
// identity. The entry exists iff the token is registered and not yet
// removed.
type tokenEntry struct {
	metadata domain.MetadataURL
	balances map[string]domain.BalanceRecord
}

// Ledger is the in-memory token ledger state. The zero value is not
// usable; construct with New.
type Ledger struct {
	tokens map[domain.TokenID]*tokenEntry
}

// New creates an empty ledger, the canonical construction result.
func New() *Ledger {
	return &Ledger{
		tokens: make(map[domain.TokenID]*tokenEntry),
	}
}

// HasToken reports whether the token is registered.
func (l *Ledger) HasToken(id domain.TokenID) bool {
	_, ok := l.tokens[id]
	return ok
}

// TokenCount returns the number of registered tokens.
func (l *Ledger) TokenCount() int {
	return len(l.tokens)
}

// TokenIDs returns the registered token identifiers in ascending order.
func (l *Ledger) TokenIDs() []domain.TokenID {
	ids := make([]domain.TokenID, 0, len(l.tokens))
	for id := range l.tokens {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AddToken registers a token with the given metadata and an empty
// balance map. Registration never overwrites: if the identifier is
// already present the ledger is left untouched and false is returned.
func (l *Ledger) AddToken(id domain.TokenID, metadata domain.MetadataURL) bool {
	if _, ok := l.tokens[id]; ok {
		return false
	}
	l.tokens[id] = &tokenEntry{
		metadata: metadata,
		balances: make(map[string]domain.BalanceRecord),
	}
	return true
}

// RemoveToken deletes the token entry and every balance record under
// it, expired or not. Removing an absent token is a no-op; existence
// and active-balance checks are the caller's responsibility.
func (l *Ledger) RemoveToken(id domain.TokenID) {
	delete(l.tokens, id)
}

// HasActiveBalances reports whether any holder's record under the token
// is active at the given instant. An absent token has no balances.
func (l *Ledger) HasActiveBalances(id domain.TokenID, now int64) bool {
	entry, ok := l.tokens[id]
	if !ok {
		return false
	}
	for _, record := range entry.balances {
		if record.IsActive(now) {
			return true
		}
	}
	return false
}

// Mint installs a brand-new balance record for the owner on the token,
// unconditionally replacing any prior record for that (token, owner)
// pair. The prior record, if one existed, is returned so the caller can
// decide whether its supersession is observable (burn event).
//
// Fails with ErrInvalidTokenID if the token is not registered. Expiry
// validation against the call instant happens in the service layer.
func (l *Ledger) Mint(id domain.TokenID, owner domain.Holder, amount domain.Amount, expiry int64) (*domain.BalanceRecord, error) {
	entry, ok := l.tokens[id]
	if !ok {
		return nil, domain.ErrInvalidTokenID.WithDetails("mint token " + id.String())
	}

	var prior *domain.BalanceRecord
	if existing, ok := entry.balances[owner.ID]; ok {
		cp := existing
		prior = &cp
	}

	entry.balances[owner.ID] = domain.BalanceRecord{Amount: amount, Expiry: expiry}
	return prior, nil
}

// BalanceOf resolves the holder's effective balance at the given
// instant: the stored amount while unexpired, zero once expired, and
// zero for holders with no record at all. Fails with ErrInvalidTokenID
// if the token is not registered.
func (l *Ledger) BalanceOf(id domain.TokenID, holder domain.Holder, now int64) (domain.Amount, error) {
	entry, ok := l.tokens[id]
	if !ok {
		return 0, domain.ErrInvalidTokenID.WithDetails("balance of token " + id.String())
	}
	record, ok := entry.balances[holder.ID]
	if !ok {
		return 0, nil
	}
	return record.EffectiveAmount(now), nil
}

// ExpiryOf returns the stored expiry of the holder's record verbatim,
// or nil if the holder has no record. Unlike BalanceOf there is no time
// masking: an expired record still reports its original expiry.
func (l *Ledger) ExpiryOf(id domain.TokenID, holder domain.Holder) (*int64, error) {
	entry, ok := l.tokens[id]
	if !ok {
		return nil, domain.ErrInvalidTokenID.WithDetails("expiry of token " + id.String())
	}
	record, ok := entry.balances[holder.ID]
	if !ok {
		return nil, nil
	}
	expiry := record.Expiry
	return &expiry, nil
}

// MetadataOf returns the token's metadata descriptor.
func (l *Ledger) MetadataOf(id domain.TokenID) (domain.MetadataURL, error) {
	entry, ok := l.tokens[id]
	if !ok {
		return domain.MetadataURL{}, domain.ErrInvalidTokenID.WithDetails("metadata of token " + id.String())
	}
	return entry.metadata, nil
}

// BalanceCount returns the number of balance records under the token,
// active or not. Absent tokens count zero.
func (l *Ledger) BalanceCount(id domain.TokenID) int {
	entry, ok := l.tokens[id]
	if !ok {
		return 0
	}
	return len(entry.balances)
}

// Clone returns a deep copy of the ledger. The service stages mutating
// batches against a clone so that a failed call has zero observable
// effect on the committed state.
func (l *Ledger) Clone() *Ledger {
	clone := New()
	for id, entry := range l.tokens {
		balances := make(map[string]domain.BalanceRecord, len(entry.balances))
		for holder, record := range entry.balances {
			balances[holder] = record
		}
		clone.tokens[id] = &tokenEntry{
			metadata: entry.metadata,
			balances: balances,
		}
	}
	return clone
}

// TokenSnapshot is the portable form of one token entry, used by the
// persistence layer and the encrypted export.
type TokenSnapshot struct {
	ID       domain.TokenID     `json:"id"`
	Metadata domain.MetadataURL `json:"metadata"`
	Balances []BalanceSnapshot  `json:"balances"`
}

// BalanceSnapshot is the portable form of one balance record.
type BalanceSnapshot struct {
	Holder string               `json:"holder"`
	Record domain.BalanceRecord `json:"record"`
}

// Snapshot returns a deterministic portable copy of the full state:
// tokens in ascending identifier order, balances in holder order.
func (l *Ledger) Snapshot() []TokenSnapshot {
	out := make([]TokenSnapshot, 0, len(l.tokens))
	for _, id := range l.TokenIDs() {
		entry := l.tokens[id]

		holders := make([]string, 0, len(entry.balances))
		for holder := range entry.balances {
			holders = append(holders, holder)
		}
		sort.Strings(holders)

		balances := make([]BalanceSnapshot, 0, len(holders))
		for _, holder := range holders {
			balances = append(balances, BalanceSnapshot{
				Holder: holder,
				Record: entry.balances[holder],
			})
		}
		out = append(out, TokenSnapshot{ID: id, Metadata: entry.metadata, Balances: balances})
	}
	return out
}

// FromSnapshot rebuilds a ledger from a portable snapshot.
func FromSnapshot(snapshot []TokenSnapshot) *Ledger {
	l := New()
	for _, tok := range snapshot {
		l.AddToken(tok.ID, tok.Metadata)
		entry := l.tokens[tok.ID]
		for _, bal := range tok.Balances {
			entry.balances[bal.Holder] = bal.Record
		}
	}
	return l
}
