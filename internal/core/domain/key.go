package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/argon2"
)

// API key constants.
const (
	// APIKeyIDPrefix is the prefix for API key IDs (public).
	APIKeyIDPrefix = "elak-"

	// APIKeySecretPrefix is the prefix for API key secrets (sensitive,
	// uses underscore; the log redactor keys off it).
	APIKeySecretPrefix = "elsk_"

	// APIKeySecretBytes is the number of random bytes in a secret.
	APIKeySecretBytes = 32
)

// Argon2id parameters for secret hashing.
const (
	argon2Memory      uint32 = 16384 // KB
	argon2Time        uint32 = 2
	argon2Parallelism uint8  = 2
	argon2KeyLen      uint32 = 32
	argon2SaltLen            = 16
)

// Role defines the permission level of an API key.
type Role string

const (
	// RoleAdmin may register, mint and remove tokens. The
	// administrator capability is minted only for admin keys.
	RoleAdmin Role = "admin"

	// RoleReader may call the query endpoints that would otherwise be
	// rate limited for anonymous callers.
	RoleReader Role = "reader"
)

// ValidRole reports whether the role is one the ledger knows.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleReader
}

// APIKey is one configured caller identity. Secrets are stored hashed;
// the plaintext exists only in the caller's hands.
type APIKey struct {
	// ID is the public key identifier, format elak-{ulid_lowercase}.
	ID string `json:"id"`

	// SecretHash is the argon2id-encoded hash of the secret.
	SecretHash string `json:"secret_hash"`

	// Role is the key's permission level.
	Role Role `json:"role"`

	// Disabled blocks the key without deleting it.
	Disabled bool `json:"disabled"`
}

// IsAdmin reports whether the key carries the administrator role.
func (k *APIKey) IsAdmin() bool { return k.Role == RoleAdmin }

// NewAPIKeyID generates a fresh key identifier.
func NewAPIKeyID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return APIKeyIDPrefix + strings.ToLower(id.String()), nil
}

// NewAPIKeySecret generates a cryptographically random key secret.
// The plaintext is returned to the operator exactly once; only the
// hash is kept.
func NewAPIKeySecret() (plaintext string, hash string, err error) {
	raw := make([]byte, APIKeySecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", ErrInternal.WithCause(err)
	}
	plaintext = APIKeySecretPrefix + base64.RawURLEncoding.EncodeToString(raw)
	hash, err = HashAPIKeySecret(plaintext)
	if err != nil {
		return "", "", err
	}
	return plaintext, hash, nil
}

// HashAPIKeySecret hashes a secret with argon2id. The encoded form
// carries the salt: argon2id$<salt_b64>$<hash_b64>.
func HashAPIKeySecret(plaintext string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return encodeSecretHash(plaintext, salt), nil
}

// VerifyAPIKeySecret checks a plaintext secret against an encoded hash
// in constant time.
func VerifyAPIKeySecret(plaintext, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != "argon2id" {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil || len(salt) != argon2SaltLen {
		return false
	}
	expected := encodeSecretHash(plaintext, salt)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(encoded)) == 1
}

func encodeSecretHash(plaintext string, salt []byte) string {
	sum := argon2.IDKey([]byte(plaintext), salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLen)
	return fmt.Sprintf("argon2id$%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum))
}
