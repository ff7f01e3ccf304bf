package snapshot

import (
	"bytes"
	"errors"
	"testing"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/core/ledger"
)

func testState() []ledger.TokenSnapshot {
	return []ledger.TokenSnapshot{
		{
			ID:       1,
			Metadata: domain.MetadataURL{URL: "https://meta.example/1"},
			Balances: []ledger.BalanceSnapshot{
				{Holder: "elac-01arz3ndektsv4rrffq69g5fav", Record: domain.BalanceRecord{Amount: 40, Expiry: 9_000}},
			},
		},
		{ID: 2, Metadata: domain.MetadataURL{URL: "https://meta.example/2"}},
	}
}

func TestExportRoundTrip(t *testing.T) {
	passphrase := []byte("correct horse battery")

	var buf bytes.Buffer
	if err := Write(&buf, passphrase, 5_000, testState()); err != nil {
		t.Fatalf("write: %v", err)
	}

	envelope, err := Read(bytes.NewReader(buf.Bytes()), passphrase)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if envelope.CreatedAt != 5_000 {
		t.Fatalf("created_at = %d, want 5000", envelope.CreatedAt)
	}
	if len(envelope.Tokens) != 2 || envelope.Tokens[0].ID != 1 {
		t.Fatalf("unexpected tokens: %+v", envelope.Tokens)
	}
	if envelope.Tokens[0].Balances[0].Record.Expiry != 9_000 {
		t.Fatalf("balance expiry = %d, want 9000", envelope.Tokens[0].Balances[0].Record.Expiry)
	}
}

func TestExportWrongPassphrase(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []byte("the right one"), 0, testState()); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Read(bytes.NewReader(buf.Bytes()), []byte("the wrong one")); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestExportRejectsWeakPassphrase(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []byte("short"), 0, nil); !errors.Is(err, ErrPassphraseTooWeak) {
		t.Fatalf("expected ErrPassphraseTooWeak, got %v", err)
	}
}

func TestExportDetectsTampering(t *testing.T) {
	passphrase := []byte("correct horse battery")

	var buf bytes.Buffer
	if err := Write(&buf, passphrase, 0, testState()); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.Bytes()

	// Flip one bit in the sealed body.
	tampered := make([]byte, len(raw))
	copy(tampered, raw)
	tampered[len(tampered)-1] ^= 0x01
	if _, err := Read(bytes.NewReader(tampered), passphrase); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed on body tamper, got %v", err)
	}

	// Flip one bit in the salt; the header is authenticated.
	tampered = make([]byte, len(raw))
	copy(tampered, raw)
	tampered[len(exportMagic)] ^= 0x01
	if _, err := Read(bytes.NewReader(tampered), passphrase); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed on salt tamper, got %v", err)
	}
}

func TestExportRejectsForeignFile(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("not an export")), []byte("passphrase")); !errors.Is(err, ErrBadHeader) {
		t.Fatalf("expected ErrBadHeader, got %v", err)
	}
}
