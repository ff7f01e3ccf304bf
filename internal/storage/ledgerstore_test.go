package storage

import (
	"context"
	"testing"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/core/service"
)

func testHolder(t *testing.T) string {
	t.Helper()
	h, err := domain.NewAccountHolder()
	if err != nil {
		t.Fatalf("new account holder: %v", err)
	}
	return h.ID
}

func TestLedgerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(NewMemoryEngine())
	owner := testHolder(t)

	changes := []service.Change{
		{Op: service.ChangePutToken, TokenID: 7, Metadata: domain.MetadataURL{URL: "https://meta.example/7"}},
		{Op: service.ChangePutToken, TokenID: 2, Metadata: domain.MetadataURL{URL: "https://meta.example/2"}},
		{Op: service.ChangePutBalance, TokenID: 7, Holder: owner, Record: domain.BalanceRecord{Amount: 40, Expiry: 9_000}},
	}
	if err := store.Apply(ctx, changes); err != nil {
		t.Fatalf("apply: %v", err)
	}

	led, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if led.TokenCount() != 2 {
		t.Fatalf("token count = %d, want 2", led.TokenCount())
	}
	md, err := led.MetadataOf(7)
	if err != nil {
		t.Fatalf("metadataOf: %v", err)
	}
	if md.URL != "https://meta.example/7" {
		t.Fatalf("metadata url = %q", md.URL)
	}

	holder := domain.Holder{Kind: domain.HolderKindAccount, ID: owner}
	expiry, err := led.ExpiryOf(7, holder)
	if err != nil {
		t.Fatalf("expiryOf: %v", err)
	}
	if expiry == nil || *expiry != 9_000 {
		t.Fatalf("expiry = %v, want 9000", expiry)
	}
	amount, err := led.BalanceOf(7, holder, 8_999)
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if amount != 40 {
		t.Fatalf("balance = %d, want 40", amount)
	}
}

func TestLedgerStoreDeleteTokenDropsBalances(t *testing.T) {
	ctx := context.Background()
	engine := NewMemoryEngine()
	store := NewLedgerStore(engine)

	if err := store.Apply(ctx, []service.Change{
		{Op: service.ChangePutToken, TokenID: 1, Metadata: domain.MetadataURL{URL: "https://meta.example/1"}},
		{Op: service.ChangePutToken, TokenID: 2, Metadata: domain.MetadataURL{URL: "https://meta.example/2"}},
		{Op: service.ChangePutBalance, TokenID: 1, Holder: testHolder(t), Record: domain.BalanceRecord{Amount: 5, Expiry: 100}},
		{Op: service.ChangePutBalance, TokenID: 1, Holder: testHolder(t), Record: domain.BalanceRecord{Amount: 6, Expiry: 200}},
		{Op: service.ChangePutBalance, TokenID: 2, Holder: testHolder(t), Record: domain.BalanceRecord{Amount: 7, Expiry: 300}},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if err := store.Apply(ctx, []service.Change{
		{Op: service.ChangeDeleteToken, TokenID: 1},
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	led, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if led.HasToken(1) {
		t.Fatal("token 1 must be gone")
	}
	if !led.HasToken(2) || led.BalanceCount(2) != 1 {
		t.Fatal("token 2 and its balance must survive")
	}

	// No stray balance keys under the deleted token's prefix.
	stray := 0
	if err := engine.Scan(ctx, balancePrefix(1), func(_, _ []byte) bool {
		stray++
		return true
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if stray != 0 {
		t.Fatalf("found %d stray balance keys", stray)
	}
}

func TestLedgerStoreRemintOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(NewMemoryEngine())
	owner := testHolder(t)

	if err := store.Apply(ctx, []service.Change{
		{Op: service.ChangePutToken, TokenID: 1, Metadata: domain.MetadataURL{URL: "https://meta.example/1"}},
		{Op: service.ChangePutBalance, TokenID: 1, Holder: owner, Record: domain.BalanceRecord{Amount: 10, Expiry: 100}},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := store.Apply(ctx, []service.Change{
		{Op: service.ChangePutBalance, TokenID: 1, Holder: owner, Record: domain.BalanceRecord{Amount: 30, Expiry: 900}},
	}); err != nil {
		t.Fatalf("remint apply: %v", err)
	}

	led, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	expiry, err := led.ExpiryOf(1, domain.Holder{Kind: domain.HolderKindAccount, ID: owner})
	if err != nil {
		t.Fatalf("expiryOf: %v", err)
	}
	if expiry == nil || *expiry != 900 {
		t.Fatalf("expiry = %v, want replacement 900", expiry)
	}
}

func TestLedgerStoreLoadRejectsOrphanBalance(t *testing.T) {
	ctx := context.Background()
	engine := NewMemoryEngine()
	store := NewLedgerStore(engine)

	// A balance key without its token key is corruption, not data.
	if err := engine.Set(ctx, balanceKey(3, "elac-x"), []byte(`{"amount":1,"expiry":5}`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, err := store.Load(ctx); err == nil {
		t.Fatal("expected load to fail on orphan balance record")
	}
}

func TestLedgerStoreLoadEmpty(t *testing.T) {
	store := NewLedgerStore(NewMemoryEngine())

	led, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if led.TokenCount() != 0 {
		t.Fatalf("token count = %d, want 0", led.TokenCount())
	}
}
