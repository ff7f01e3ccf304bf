// Package snapshot implements the encrypted full-state export.
//
// An export is a portable, passphrase-protected copy of the whole
// ledger, intended for offline backup and audit. The file carries its
// own key-derivation salt, so the passphrase alone is enough to open
// it later.
package snapshot

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/arvos-io/expiryledger/internal/core/ledger"
)

// Export errors.
var (
	ErrPassphraseTooWeak = errors.New("snapshot: passphrase too weak (minimum 8 characters)")
	ErrBadHeader         = errors.New("snapshot: not an export file or unsupported version")
	ErrDecryptionFailed  = errors.New("snapshot: decryption failed, wrong passphrase or corrupted data")
)

// File layout: magic, then salt, then XChaCha20-Poly1305 nonce, then
// the sealed JSON envelope.
var exportMagic = []byte("ELSNAP\x01")

const (
	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	saltLength = 16

	// Argon2id parameters for passphrase key derivation.
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = chacha20poly1305.KeySize
)

// Envelope is the plaintext payload of an export.
type Envelope struct {
	// CreatedAt is the export instant in Unix milliseconds.
	CreatedAt int64 `json:"created_at"`

	// Tokens is the full ledger state.
	Tokens []ledger.TokenSnapshot `json:"tokens"`
}

// Write seals the given state under the passphrase and writes the
// export to w.
func Write(w io.Writer, passphrase []byte, createdAt int64, tokens []ledger.TokenSnapshot) error {
	if len(passphrase) < MinPassphraseLength {
		return ErrPassphraseTooWeak
	}
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("snapshot: generate salt: %w", err)
	}

	key := deriveKey(passphrase, salt)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("snapshot: init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("snapshot: generate nonce: %w", err)
	}

	plaintext, err := json.Marshal(Envelope{CreatedAt: createdAt, Tokens: tokens})
	if err != nil {
		return fmt.Errorf("snapshot: encode envelope: %w", err)
	}

	// The header is authenticated as additional data, so tampering
	// with magic or salt fails the open.
	header := make([]byte, 0, len(exportMagic)+saltLength+len(nonce))
	header = append(header, exportMagic...)
	header = append(header, salt...)
	header = append(header, nonce...)

	sealed := aead.Seal(nil, nonce, plaintext, header)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := w.Write(sealed); err != nil {
		return fmt.Errorf("snapshot: write body: %w", err)
	}
	return nil
}

// Read opens an export written by Write.
func Read(r io.Reader, passphrase []byte) (*Envelope, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}

	headerLen := len(exportMagic) + saltLength + chacha20poly1305.NonceSizeX
	if len(raw) < headerLen {
		return nil, ErrBadHeader
	}
	header := raw[:headerLen]
	if string(header[:len(exportMagic)]) != string(exportMagic) {
		return nil, ErrBadHeader
	}

	salt := header[len(exportMagic) : len(exportMagic)+saltLength]
	nonce := header[len(exportMagic)+saltLength : headerLen]

	key := deriveKey(passphrase, salt)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("snapshot: init cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, raw[headerLen:], header)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	var envelope Envelope
	if err := json.Unmarshal(plaintext, &envelope); err != nil {
		return nil, fmt.Errorf("snapshot: decode envelope: %w", err)
	}
	return &envelope, nil
}

func deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
