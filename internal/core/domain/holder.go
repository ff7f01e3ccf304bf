// Package domain defines the core domain models for ExpiryLedger.
package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Holder identity constants.
const (
	// AccountPrefix is the prefix of account holder identities.
	AccountPrefix = "elac-"

	// ContractPrefix is the prefix of contract-style identities.
	// The ledger recognises the kind but serves accounts only.
	ContractPrefix = "elct-"

	// holderBodyLength is the ULID body length of a holder identity.
	holderBodyLength = 26

	// HolderLength is the total holder identity length (prefix + body).
	HolderLength = 5 + holderBodyLength
)

// HolderKind distinguishes the identity kinds a query may reference.
type HolderKind uint8

const (
	// HolderKindAccount is a plain account, the only kind the ledger
	// tracks balances for.
	HolderKindAccount HolderKind = iota

	// HolderKindContract is a contract-style identity. Queries that
	// reference one fail with ErrUnsupportedHolderKind.
	HolderKindContract
)

// Holder is an account-identified party that may own token balances.
// The zero value is invalid; build one with NewAccountHolder or
// ParseHolder.
type Holder struct {
	// Kind is the identity kind.
	Kind HolderKind `json:"-"`

	// ID is the full string identity including prefix.
	ID string `json:"id"`
}

// String returns the full identity string.
func (h Holder) String() string { return h.ID }

// IsAccount reports whether the holder is a plain account.
func (h Holder) IsAccount() bool { return h.Kind == HolderKindAccount }

// NewAccountHolder generates a fresh account identity.
// Format: elac-{ulid_lowercase}, 31 characters total.
func NewAccountHolder() (Holder, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return Holder{}, ErrInternal.WithCause(err)
	}
	return Holder{
		Kind: HolderKindAccount,
		ID:   AccountPrefix + strings.ToLower(id.String()),
	}, nil
}

// ParseHolder parses a holder identity string, preserving its kind.
// A malformed identity is a bad request, not an unsupported kind: the
// unsupported-kind error is reserved for well-formed contract identities.
func ParseHolder(s string) (Holder, error) {
	var kind HolderKind
	switch {
	case strings.HasPrefix(s, AccountPrefix):
		kind = HolderKindAccount
	case strings.HasPrefix(s, ContractPrefix):
		kind = HolderKindContract
	default:
		return Holder{}, ErrBadRequest.WithDetails("holder identity must start with elac- or elct-")
	}

	body := s[len(AccountPrefix):]
	if len(body) != holderBodyLength {
		return Holder{}, ErrBadRequest.WithDetails("holder identity has wrong length")
	}
	if _, err := ulid.ParseStrict(strings.ToUpper(body)); err != nil {
		return Holder{}, ErrBadRequest.WithDetails("holder identity body is not a valid ulid")
	}

	return Holder{Kind: kind, ID: s}, nil
}

// ParseAccount parses a holder identity and additionally enforces the
// account kind, returning ErrUnsupportedHolderKind for contract-style
// identities. This is the check every ledger query applies before it
// looks at token existence.
func ParseAccount(s string) (Holder, error) {
	h, err := ParseHolder(s)
	if err != nil {
		return Holder{}, err
	}
	if !h.IsAccount() {
		return Holder{}, ErrUnsupportedHolderKind
	}
	return h, nil
}
