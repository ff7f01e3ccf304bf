package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/core/ledger"
	"github.com/arvos-io/expiryledger/internal/core/service"
)

// Key layout. Token IDs are zero-padded to three digits so lexical
// scan order matches numeric order.
//
//	tok/<id>            -> domain.MetadataURL (JSON)
//	bal/<id>/<holder>   -> domain.BalanceRecord (JSON)
const (
	tokenKeyPrefix   = "tok/"
	balanceKeyPrefix = "bal/"
)

func tokenKey(id domain.TokenID) []byte {
	return []byte(fmt.Sprintf("%s%03d", tokenKeyPrefix, id))
}

func balancePrefix(id domain.TokenID) []byte {
	return []byte(fmt.Sprintf("%s%03d/", balanceKeyPrefix, id))
}

func balanceKey(id domain.TokenID, holder string) []byte {
	return []byte(fmt.Sprintf("%s%03d/%s", balanceKeyPrefix, id, holder))
}

// LedgerStore is the write-through persistence of committed ledger
// calls. It implements the service store contract: one call's changes
// land in one engine batch, so a crash never leaves a half-applied
// call behind.
type LedgerStore struct {
	engine KVEngine
}

// NewLedgerStore wraps a KV engine.
func NewLedgerStore(engine KVEngine) *LedgerStore {
	return &LedgerStore{engine: engine}
}

var _ service.Store = (*LedgerStore)(nil)

// Apply maps a committed call's changes onto KV operations and applies
// them atomically. A token deletion expands to the token key plus every
// balance key under its prefix.
func (s *LedgerStore) Apply(ctx context.Context, changes []service.Change) error {
	ops := make([]KVOp, 0, len(changes))

	for _, change := range changes {
		switch change.Op {
		case service.ChangePutToken:
			value, err := json.Marshal(change.Metadata)
			if err != nil {
				return fmt.Errorf("encode token %s metadata: %w", change.TokenID, err)
			}
			ops = append(ops, KVOp{Kind: KVSet, Key: tokenKey(change.TokenID), Value: value})

		case service.ChangePutBalance:
			value, err := json.Marshal(change.Record)
			if err != nil {
				return fmt.Errorf("encode token %s balance: %w", change.TokenID, err)
			}
			ops = append(ops, KVOp{Kind: KVSet, Key: balanceKey(change.TokenID, change.Holder), Value: value})

		case service.ChangeDeleteToken:
			ops = append(ops, KVOp{Kind: KVDelete, Key: tokenKey(change.TokenID)})
			err := s.engine.Scan(ctx, balancePrefix(change.TokenID), func(key, _ []byte) bool {
				cp := make([]byte, len(key))
				copy(cp, key)
				ops = append(ops, KVOp{Kind: KVDelete, Key: cp})
				return true
			})
			if err != nil {
				return fmt.Errorf("scan token %s balances: %w", change.TokenID, err)
			}

		default:
			return fmt.Errorf("unknown change op %d", change.Op)
		}
	}

	return s.engine.ApplyBatch(ctx, ops)
}

// Load rebuilds the full ledger state from the engine. Balance records
// whose token key is missing are rejected as corruption rather than
// silently dropped.
func (s *LedgerStore) Load(ctx context.Context) (*ledger.Ledger, error) {
	led := ledger.New()

	var loadErr error
	err := s.engine.Scan(ctx, []byte(tokenKeyPrefix), func(key, value []byte) bool {
		id, perr := parseTokenKey(strings.TrimPrefix(string(key), tokenKeyPrefix))
		if perr != nil {
			loadErr = fmt.Errorf("malformed token key %q: %w", key, perr)
			return false
		}
		var metadata domain.MetadataURL
		if uerr := json.Unmarshal(value, &metadata); uerr != nil {
			loadErr = fmt.Errorf("decode token %s metadata: %w", id, uerr)
			return false
		}
		led.AddToken(id, metadata)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("scan tokens: %w", err)
	}
	if loadErr != nil {
		return nil, loadErr
	}

	err = s.engine.Scan(ctx, []byte(balanceKeyPrefix), func(key, value []byte) bool {
		id, holder, perr := parseBalanceKey(string(key))
		if perr != nil {
			loadErr = perr
			return false
		}
		if !led.HasToken(id) {
			loadErr = fmt.Errorf("balance record %q references unknown token %s", key, id)
			return false
		}

		var record domain.BalanceRecord
		if uerr := json.Unmarshal(value, &record); uerr != nil {
			loadErr = fmt.Errorf("decode balance record %q: %w", key, uerr)
			return false
		}
		if _, merr := led.Mint(id, domain.Holder{Kind: domain.HolderKindAccount, ID: holder}, record.Amount, record.Expiry); merr != nil {
			loadErr = merr
			return false
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("scan balances: %w", err)
	}
	if loadErr != nil {
		return nil, loadErr
	}

	return led, nil
}

// parseTokenKey accepts the zero-padded decimal body of a token key.
func parseTokenKey(body string) (domain.TokenID, error) {
	return domain.ParseTokenID(body)
}

func parseBalanceKey(key string) (domain.TokenID, string, error) {
	body := strings.TrimPrefix(key, balanceKeyPrefix)
	idPart, holder, ok := strings.Cut(body, "/")
	if !ok {
		return 0, "", fmt.Errorf("malformed balance key %q", key)
	}
	id, err := parseTokenKey(idPart)
	if err != nil {
		return 0, "", fmt.Errorf("malformed balance key %q: %w", key, err)
	}
	return id, holder, nil
}
