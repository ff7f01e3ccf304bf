// Package domain defines the core domain models for ExpiryLedger.
package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventIDPrefix is the prefix of event identifiers.
const EventIDPrefix = "elev-"

// EventKind names a state-change event emitted by the ledger.
type EventKind string

const (
	// EventTokenMetadata announces (or, with empty metadata, retracts)
	// the metadata of a token. Emitted on register and on remove.
	EventTokenMetadata EventKind = "token_metadata"

	// EventMint announces a newly installed balance record.
	EventMint EventKind = "mint"

	// EventBurn announces the effective amount superseded by a remint.
	EventBurn EventKind = "burn"
)

// Event is one entry of the ledger's event stream. Events describe
// committed state changes only; a failed call emits nothing.
//
// The ID is assigned by the journal when the event is made durable and
// is empty on freshly constructed events.
type Event struct {
	// ID is the event identifier, format elev-{ulid_lowercase}.
	ID string `json:"id,omitempty"`

	// Kind is the event kind.
	Kind EventKind `json:"kind"`

	// Time is the call instant (Unix milliseconds) the event was
	// produced under. All events of one call carry the same instant.
	Time int64 `json:"time"`

	// TokenID is the token the event concerns.
	TokenID TokenID `json:"token_id"`

	// Owner is the holder identity for mint and burn events.
	Owner string `json:"owner,omitempty"`

	// Amount is the minted or burned quantity.
	Amount Amount `json:"amount,omitempty"`

	// Metadata is the announced metadata for token_metadata events.
	// Empty metadata signals retraction.
	Metadata MetadataURL `json:"metadata"`
}

// NewTokenMetadataEvent builds a metadata announcement event.
func NewTokenMetadataEvent(now int64, id TokenID, metadata MetadataURL) Event {
	return Event{Kind: EventTokenMetadata, Time: now, TokenID: id, Metadata: metadata}
}

// NewMintEvent builds a mint event for a freshly installed record.
func NewMintEvent(now int64, id TokenID, owner Holder, amount Amount) Event {
	return Event{Kind: EventMint, Time: now, TokenID: id, Owner: owner.ID, Amount: amount}
}

// NewBurnEvent builds a burn event for a superseded active record.
func NewBurnEvent(now int64, id TokenID, owner Holder, amount Amount) Event {
	return Event{Kind: EventBurn, Time: now, TokenID: id, Owner: owner.ID, Amount: amount}
}

// NewEventID generates a fresh event identifier.
func NewEventID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return EventIDPrefix + strings.ToLower(id.String()), nil
}
