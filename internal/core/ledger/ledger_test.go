// Package ledger implements the token ledger state.
package ledger

import (
	"errors"
	"reflect"
	"testing"

	"github.com/arvos-io/expiryledger/internal/core/domain"
)

func newHolder(t *testing.T) domain.Holder {
	t.Helper()
	h, err := domain.NewAccountHolder()
	if err != nil {
		t.Fatalf("NewAccountHolder() error = %v", err)
	}
	return h
}

func metaURL(url string) domain.MetadataURL {
	return domain.MetadataURL{URL: url}
}

func TestAddToken(t *testing.T) {
	l := New()

	if !l.AddToken(2, metaURL("https://example.com")) {
		t.Fatal("AddToken on empty ledger should succeed")
	}
	if !l.HasToken(2) {
		t.Error("token should exist after AddToken")
	}

	// Registration never overwrites.
	if l.AddToken(2, metaURL("https://example.com/other")) {
		t.Error("AddToken on existing id should report false")
	}
	md, err := l.MetadataOf(2)
	if err != nil {
		t.Fatalf("MetadataOf() error = %v", err)
	}
	if md.URL != "https://example.com" {
		t.Errorf("metadata overwritten: got %q", md.URL)
	}
}

func TestMintReplacesWholesale(t *testing.T) {
	l := New()
	owner := newHolder(t)
	l.AddToken(2, metaURL("https://example.com"))

	prior, err := l.Mint(2, owner, 10, 100)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if prior != nil {
		t.Errorf("first mint prior = %+v, want nil", prior)
	}

	prior, err = l.Mint(2, owner, 20, 200)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if prior == nil || prior.Amount != 10 || prior.Expiry != 100 {
		t.Errorf("second mint prior = %+v, want {10 100}", prior)
	}

	// The new record supersedes amount AND expiry; nothing accumulates.
	got, err := l.BalanceOf(2, owner, 150)
	if err != nil {
		t.Fatalf("BalanceOf() error = %v", err)
	}
	if got != 20 {
		t.Errorf("BalanceOf after remint = %d, want 20", got)
	}
}

func TestMintUnknownToken(t *testing.T) {
	l := New()
	_, err := l.Mint(9, newHolder(t), 5, 100)
	if !errors.Is(err, domain.ErrInvalidTokenID) {
		t.Errorf("Mint on unknown token error = %v, want ErrInvalidTokenID", err)
	}
}

func TestBalanceOfLazyExpiry(t *testing.T) {
	l := New()
	owner := newHolder(t)
	stranger := newHolder(t)
	l.AddToken(2, metaURL("https://example.com"))
	if _, err := l.Mint(2, owner, 100, 100); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	before, err := l.BalanceOf(2, owner, 50)
	if err != nil || before != 100 {
		t.Errorf("BalanceOf before expiry = (%d, %v), want (100, nil)", before, err)
	}

	after, err := l.BalanceOf(2, owner, 150)
	if err != nil || after != 0 {
		t.Errorf("BalanceOf after expiry = (%d, %v), want (0, nil)", after, err)
	}

	// The record survives expiry physically.
	if l.BalanceCount(2) != 1 {
		t.Errorf("BalanceCount = %d, want 1", l.BalanceCount(2))
	}

	// A holder with no record resolves to zero, not an error.
	none, err := l.BalanceOf(2, stranger, 50)
	if err != nil || none != 0 {
		t.Errorf("BalanceOf without record = (%d, %v), want (0, nil)", none, err)
	}

	if _, err := l.BalanceOf(3, owner, 50); !errors.Is(err, domain.ErrInvalidTokenID) {
		t.Errorf("BalanceOf unknown token error = %v, want ErrInvalidTokenID", err)
	}
}

func TestExpiryOfIsNotTimeMasked(t *testing.T) {
	l := New()
	owner := newHolder(t)
	l.AddToken(2, metaURL("https://example.com"))
	if _, err := l.Mint(2, owner, 100, 100); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	// Long after the expiry the stored instant is still reported.
	expiry, err := l.ExpiryOf(2, owner)
	if err != nil {
		t.Fatalf("ExpiryOf() error = %v", err)
	}
	if expiry == nil || *expiry != 100 {
		t.Errorf("ExpiryOf = %v, want 100", expiry)
	}

	none, err := l.ExpiryOf(2, newHolder(t))
	if err != nil {
		t.Fatalf("ExpiryOf() error = %v", err)
	}
	if none != nil {
		t.Errorf("ExpiryOf without record = %v, want nil", none)
	}

	if _, err := l.ExpiryOf(3, owner); !errors.Is(err, domain.ErrInvalidTokenID) {
		t.Errorf("ExpiryOf unknown token error = %v, want ErrInvalidTokenID", err)
	}
}

func TestHasActiveBalances(t *testing.T) {
	l := New()
	owner := newHolder(t)
	l.AddToken(2, metaURL("https://example.com"))

	if l.HasActiveBalances(2, 50) {
		t.Error("token without records should have no active balances")
	}

	if _, err := l.Mint(2, owner, 1, 100); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if !l.HasActiveBalances(2, 50) {
		t.Error("unexpired record should count as active")
	}
	if l.HasActiveBalances(2, 100) {
		t.Error("record at its expiry instant should be inactive")
	}

	// Zero-amount records never block.
	if _, err := l.Mint(2, owner, 0, 1000); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if l.HasActiveBalances(2, 50) {
		t.Error("zero-amount record should not count as active")
	}

	if l.HasActiveBalances(9, 50) {
		t.Error("absent token should have no active balances")
	}
}

func TestRemoveTokenDropsAllRecords(t *testing.T) {
	l := New()
	owner := newHolder(t)
	l.AddToken(2, metaURL("https://example.com"))
	if _, err := l.Mint(2, owner, 1, 100); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	l.RemoveToken(2)
	if l.HasToken(2) {
		t.Error("token should be gone after RemoveToken")
	}
	if _, err := l.BalanceOf(2, owner, 150); !errors.Is(err, domain.ErrInvalidTokenID) {
		t.Errorf("BalanceOf after removal error = %v, want ErrInvalidTokenID", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l := New()
	owner := newHolder(t)
	l.AddToken(2, metaURL("https://example.com"))
	if _, err := l.Mint(2, owner, 10, 100); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	clone := l.Clone()
	if _, err := clone.Mint(2, owner, 99, 900); err != nil {
		t.Fatalf("Mint on clone error = %v", err)
	}
	clone.AddToken(3, metaURL("https://example.com/3"))

	got, err := l.BalanceOf(2, owner, 50)
	if err != nil || got != 10 {
		t.Errorf("original BalanceOf = (%d, %v), want (10, nil)", got, err)
	}
	if l.HasToken(3) {
		t.Error("mutating the clone must not touch the original")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := New()
	a, b := newHolder(t), newHolder(t)
	l.AddToken(2, metaURL("https://example.com"))
	l.AddToken(3, metaURL("https://example.com/3"))
	if _, err := l.Mint(2, a, 10, 100); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if _, err := l.Mint(2, b, 20, 200); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	restored := FromSnapshot(l.Snapshot())
	if !reflect.DeepEqual(restored.Snapshot(), l.Snapshot()) {
		t.Error("snapshot round-trip lost state")
	}

	ids := restored.TokenIDs()
	if !reflect.DeepEqual(ids, []domain.TokenID{2, 3}) {
		t.Errorf("TokenIDs = %v, want [2 3]", ids)
	}
}
