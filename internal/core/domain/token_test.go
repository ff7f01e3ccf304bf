// Package domain defines the core domain models for ExpiryLedger.
package domain

import (
	"testing"
)

func TestBalanceRecordEffectiveAmount(t *testing.T) {
	record := BalanceRecord{Amount: 100, Expiry: 100}

	tests := []struct {
		name string
		now  int64
		want Amount
	}{
		{"well before expiry", 50, 100},
		{"just before expiry", 99, 100},
		{"at expiry", 100, 0},
		{"after expiry", 150, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := record.EffectiveAmount(tt.now); got != tt.want {
				t.Errorf("EffectiveAmount(%d) = %d, want %d", tt.now, got, tt.want)
			}
		})
	}
}

func TestBalanceRecordIsActive(t *testing.T) {
	record := BalanceRecord{Amount: 1, Expiry: 100}
	if !record.IsActive(99) {
		t.Error("record with future expiry should be active")
	}
	if record.IsActive(100) {
		t.Error("record at its expiry instant should be inactive")
	}

	// A zero-amount record is never active, expired or not.
	zero := BalanceRecord{Amount: 0, Expiry: 100}
	if zero.IsActive(50) {
		t.Error("zero-amount record should never be active")
	}
}

func TestParseTokenID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    TokenID
		wantErr bool
	}{
		{"zero", "0", 0, false},
		{"max", "255", 255, false},
		{"out of range", "256", 0, true},
		{"negative", "-1", 0, true},
		{"not a number", "abc", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTokenID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTokenID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseTokenID(%q) = %d, want %d", tt.in, got, tt.want)
			}
			if err != nil && !IsDomainError(err, ErrBadRequest.Code) {
				t.Errorf("ParseTokenID(%q) error code = %q, want %q", tt.in, GetErrorCode(err), ErrBadRequest.Code)
			}
		})
	}
}

func TestTokenIDString(t *testing.T) {
	if got := TokenID(7).String(); got != "7" {
		t.Errorf("TokenID(7).String() = %q, want %q", got, "7")
	}
}

func TestMetadataURL(t *testing.T) {
	plain := MetadataURL{URL: "https://example.com/meta.json"}
	if plain.IsEmpty() {
		t.Error("metadata with URL should not be empty")
	}
	if plain.HashHex() != "" {
		t.Errorf("HashHex() = %q, want empty", plain.HashHex())
	}

	var digest [MetadataHashLength]byte
	digest[0] = 0xab
	pinned := MetadataWithHash("https://example.com/meta.json", digest)
	if pinned.Hash == nil {
		t.Fatal("pinned metadata should carry a hash")
	}
	if got := pinned.HashHex(); len(got) != 64 {
		t.Errorf("HashHex() length = %d, want 64", len(got))
	}

	if !EmptyMetadata().IsEmpty() {
		t.Error("EmptyMetadata() should be empty")
	}
}

func TestParseMetadataHash(t *testing.T) {
	h, err := ParseMetadataHash("")
	if err != nil || h != nil {
		t.Errorf("ParseMetadataHash(\"\") = (%v, %v), want (nil, nil)", h, err)
	}

	valid := "ab" + "00ab12cd34ef56ab78cd90ef12ab34cd56ef78ab90cd12ef34ab56cd78ef90"
	h, err = ParseMetadataHash(valid)
	if err != nil {
		t.Fatalf("ParseMetadataHash(valid) error = %v", err)
	}
	if h == nil || h[0] != 0xab {
		t.Error("parsed hash does not round-trip")
	}

	if _, err := ParseMetadataHash("short"); err == nil {
		t.Error("ParseMetadataHash should reject short input")
	}
	if _, err := ParseMetadataHash("zz" + valid[2:]); err == nil {
		t.Error("ParseMetadataHash should reject non-hex input")
	}
}
