package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/core/ledger"
	"github.com/arvos-io/expiryledger/internal/eventlog"
)

// ChangeOp enumerates the persistence operations a committed call maps to.
type ChangeOp uint8

const (
	// ChangePutToken persists a token registration.
	ChangePutToken ChangeOp = iota + 1

	// ChangeDeleteToken removes a token and all its balance records.
	ChangeDeleteToken

	// ChangePutBalance persists one holder's balance record.
	ChangePutBalance
)

// Change is one persistence operation of a committed call.
type Change struct {
	Op       ChangeOp
	TokenID  domain.TokenID
	Metadata domain.MetadataURL
	Holder   string
	Record   domain.BalanceRecord
}

// Store persists committed ledger mutations. Apply receives every
// change of one call and must apply them atomically: a failed Apply
// aborts the call before the in-memory state advances.
type Store interface {
	Apply(ctx context.Context, changes []Change) error
}

// AdminCapability proves the caller passed the administrator check.
// The zero value proves nothing; only the auth layer mints valid ones.
type AdminCapability struct {
	keyID string
}

// IsAdmin reports whether the capability is valid.
func (c AdminCapability) IsAdmin() bool { return c.keyID != "" }

// KeyID names the API key the capability was minted for.
func (c AdminCapability) KeyID() string { return c.keyID }

// LedgerService is the orchestration layer over the ledger state.
type LedgerService struct {
	// mu serialises calls end to end; there is no finer locking by
	// design, mirroring the run-to-completion host model.
	mu sync.Mutex

	ledger *ledger.Ledger
	clock  Clock
	sink   eventlog.Sink
	store  Store
	logger *slog.Logger
}

// LedgerServiceConfig configures a LedgerService.
type LedgerServiceConfig struct {
	// Ledger is the initial state, usually loaded from the store.
	// Nil starts empty.
	Ledger *ledger.Ledger

	// Clock supplies call instants. Nil uses the system clock.
	Clock Clock

	// Sink receives committed events. Nil discards them.
	Sink eventlog.Sink

	// Store persists committed mutations. Nil keeps state memory-only.
	Store Store

	// Logger reports sink failures. Nil uses slog.Default.
	Logger *slog.Logger
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(cfg LedgerServiceConfig) *LedgerService {
	s := &LedgerService{
		ledger: cfg.Ledger,
		clock:  cfg.Clock,
		sink:   cfg.Sink,
		store:  cfg.Store,
		logger: cfg.Logger,
	}
	if s.ledger == nil {
		s.ledger = ledger.New()
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.sink == nil {
		s.sink = eventlog.NopSink{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// RegisterRequest registers one token type.
type RegisterRequest struct {
	TokenID  domain.TokenID
	Metadata domain.MetadataURL
}

// Register registers the given tokens, in order. The whole batch fails
// with ErrInvalidTokenID on the first identifier that already exists;
// nothing is committed in that case. On success one token_metadata
// event is emitted per token, in request order.
func (s *LedgerService) Register(ctx context.Context, adminCap AdminCapability, requests []RegisterRequest) error {
	if !adminCap.IsAdmin() {
		return domain.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	staged := s.ledger.Clone()
	changes := make([]Change, 0, len(requests))
	events := make([]domain.Event, 0, len(requests))

	for _, req := range requests {
		if !staged.AddToken(req.TokenID, req.Metadata) {
			return domain.ErrInvalidTokenID.WithDetails("token " + req.TokenID.String() + " already registered")
		}
		changes = append(changes, Change{Op: ChangePutToken, TokenID: req.TokenID, Metadata: req.Metadata})
		events = append(events, domain.NewTokenMetadataEvent(now, req.TokenID, req.Metadata))
	}

	return s.commit(ctx, staged, changes, events)
}

// MintRequest mints one balance record.
type MintRequest struct {
	TokenID domain.TokenID
	Amount  domain.Amount
	Expiry  int64 // Unix milliseconds, must be strictly after the call instant
}

// Mint installs brand-new balance records for the owner, in request
// order, unconditionally replacing any prior record per (token, owner)
// pair. Per item the expiry is validated first (ErrTokenExpired if not
// strictly after the call instant, regardless of token existence), then
// the token's existence (ErrInvalidTokenID). The batch is
// all-or-nothing.
//
// When a replaced record was still active at the call instant, a burn
// event carrying its effective amount precedes the mint event. The mint
// event itself is always emitted, even for a zero amount.
func (s *LedgerService) Mint(ctx context.Context, adminCap AdminCapability, owner string, requests []MintRequest) error {
	if !adminCap.IsAdmin() {
		return domain.ErrUnauthorized
	}

	holder, err := domain.ParseAccount(owner)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	staged := s.ledger.Clone()
	changes := make([]Change, 0, len(requests))
	events := make([]domain.Event, 0, len(requests))

	for _, req := range requests {
		if req.Expiry <= now {
			return domain.ErrTokenExpired.WithDetails("token " + req.TokenID.String())
		}

		prior, err := staged.Mint(req.TokenID, holder, req.Amount, req.Expiry)
		if err != nil {
			return err
		}

		if prior != nil {
			if burned := prior.EffectiveAmount(now); burned > 0 {
				events = append(events, domain.NewBurnEvent(now, req.TokenID, holder, burned))
			}
		}
		events = append(events, domain.NewMintEvent(now, req.TokenID, holder, req.Amount))
		changes = append(changes, Change{
			Op:      ChangePutBalance,
			TokenID: req.TokenID,
			Holder:  holder.ID,
			Record:  domain.BalanceRecord{Amount: req.Amount, Expiry: req.Expiry},
		})
	}

	return s.commit(ctx, staged, changes, events)
}

// Remove deletes the given tokens, in order. Per item the token must
// exist (ErrInvalidTokenID) and must have no balance active at the call
// instant (ErrTokenHasValidBalances); expired and zero balances do not
// block. On success the entry and all its records are deleted and a
// token_metadata event with empty metadata is emitted per token, so
// off-ledger observers retract the token's metadata. All-or-nothing.
func (s *LedgerService) Remove(ctx context.Context, adminCap AdminCapability, ids []domain.TokenID) error {
	if !adminCap.IsAdmin() {
		return domain.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	staged := s.ledger.Clone()
	changes := make([]Change, 0, len(ids))
	events := make([]domain.Event, 0, len(ids))

	for _, id := range ids {
		if !staged.HasToken(id) {
			return domain.ErrInvalidTokenID.WithDetails("remove token " + id.String())
		}
		if staged.HasActiveBalances(id, now) {
			return domain.ErrTokenHasValidBalances.WithDetails("token " + id.String())
		}

		staged.RemoveToken(id)
		changes = append(changes, Change{Op: ChangeDeleteToken, TokenID: id})
		events = append(events, domain.NewTokenMetadataEvent(now, id, domain.EmptyMetadata()))
	}

	return s.commit(ctx, staged, changes, events)
}

// commit makes a staged batch observable: persist, swap state, then
// emit the buffered events in order. Persistence failure aborts the
// call with zero observable effect. Sink failures do not roll back a
// committed call; they are reported to the logger, since the sink is an
// observer of state, not a participant in it.
func (s *LedgerService) commit(ctx context.Context, staged *ledger.Ledger, changes []Change, events []domain.Event) error {
	if s.store != nil && len(changes) > 0 {
		if err := s.store.Apply(ctx, changes); err != nil {
			return domain.ErrStorage.WithCause(err)
		}
	}

	s.ledger = staged

	for _, event := range events {
		if err := s.sink.Append(event); err != nil {
			s.logger.Warn("event sink append failed",
				"kind", string(event.Kind),
				"token_id", event.TokenID.String(),
				"error", err)
		}
	}
	return nil
}
