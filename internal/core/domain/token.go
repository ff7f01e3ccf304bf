// Package domain defines the core domain models for ExpiryLedger.
package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// MetadataHashLength is the length of an optional metadata content hash.
const MetadataHashLength = 32

// TokenID identifies one token type in the ledger.
//
// The identifier space is deliberately small: one unsigned byte. The
// ledger never reuses an identifier with different metadata while it is
// registered, so a byte is plenty for the catalogues this service holds.
type TokenID uint8

// String renders the identifier in decimal, the form used in API
// payloads, log fields and journal records.
func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseTokenID parses a decimal token identifier.
func ParseTokenID(s string) (TokenID, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, ErrBadRequest.WithDetails(fmt.Sprintf("invalid token id %q", s))
	}
	return TokenID(v), nil
}

// Amount is an unsigned token quantity. Amounts are never negative and
// never decremented in place; a balance is always replaced wholesale.
type Amount uint64

// MetadataURL points at the off-ledger metadata document for a token,
// optionally pinned by a SHA-256 content hash.
type MetadataURL struct {
	// URL locates the metadata document.
	URL string `json:"url"`

	// Hash is the optional SHA-256 digest of the document contents,
	// nil when the metadata is not content-pinned.
	Hash *[MetadataHashLength]byte `json:"hash,omitempty"`
}

// EmptyMetadata is the retraction payload announced when a token is
// removed from the ledger, so off-ledger observers drop their copies.
func EmptyMetadata() MetadataURL {
	return MetadataURL{}
}

// IsEmpty reports whether the metadata carries no URL and no hash.
func (m MetadataURL) IsEmpty() bool {
	return m.URL == "" && m.Hash == nil
}

// HashHex returns the hex form of the content hash, or "" if unset.
func (m MetadataURL) HashHex() string {
	if m.Hash == nil {
		return ""
	}
	return hex.EncodeToString(m.Hash[:])
}

// MetadataWithHash builds a MetadataURL pinned to the given digest.
func MetadataWithHash(url string, digest [MetadataHashLength]byte) MetadataURL {
	h := digest
	return MetadataURL{URL: url, Hash: &h}
}

// ParseMetadataHash decodes a hex digest into a metadata hash.
func ParseMetadataHash(s string) (*[MetadataHashLength]byte, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != MetadataHashLength {
		return nil, ErrBadRequest.WithDetails("metadata hash must be 64 hex characters")
	}
	var h [MetadataHashLength]byte
	copy(h[:], raw)
	return &h, nil
}

// BalanceRecord is one holder's quantity of one token type, valid until
// an absolute expiry instant (Unix milliseconds).
//
// A record past its expiry is not erased; it simply stops counting.
// Physical deletion happens only when the owning token is removed or the
// record is replaced by a new mint.
type BalanceRecord struct {
	// Amount is the stored quantity.
	Amount Amount `json:"amount"`

	// Expiry is the absolute instant (Unix milliseconds) up to which,
	// exclusively, the amount counts.
	Expiry int64 `json:"expiry"`
}

// EffectiveAmount resolves the record at the given instant: the stored
// amount while Expiry is strictly later than now, otherwise zero.
func (b BalanceRecord) EffectiveAmount(now int64) Amount {
	if b.Expiry > now {
		return b.Amount
	}
	return 0
}

// IsActive reports whether the record still counts toward supply at the
// given instant, i.e. its effective amount is greater than zero.
func (b BalanceRecord) IsActive(now int64) bool {
	return b.EffectiveAmount(now) > 0
}
