package service

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/arvos-io/expiryledger/internal/core/domain"
)

// AuthService authenticates API keys and enforces per-key rate limits.
// Keys are loaded from configuration at startup; there is no runtime
// key management surface.
type AuthService struct {
	keys     map[string]*domain.APIKey
	limiters *RateLimiterRegistry

	ratePerSecond int
	burst         int
}

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	// Keys is the configured keyring, indexed by key ID below.
	Keys []*domain.APIKey

	// RatePerSecond is the sustained request rate allowed per key
	// (default 50). Zero or negative disables rate limiting.
	RatePerSecond int

	// Burst is the burst size per key (default RatePerSecond).
	Burst int
}

// NewAuthService creates an AuthService from a configured keyring.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	ratePerSecond := cfg.RatePerSecond
	if ratePerSecond == 0 {
		ratePerSecond = 50
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = ratePerSecond
	}

	keys := make(map[string]*domain.APIKey, len(cfg.Keys))
	for _, k := range cfg.Keys {
		if k == nil || k.ID == "" {
			continue
		}
		keys[k.ID] = k
	}

	return &AuthService{
		keys:          keys,
		limiters:      NewRateLimiterRegistry(),
		ratePerSecond: ratePerSecond,
		burst:         burst,
	}
}

// Credentials are the key ID and plaintext secret presented by a caller.
type Credentials struct {
	KeyID  string
	Secret string
}

// Identity is the authenticated caller. Admin returns a valid
// capability only for admin-role keys.
type Identity struct {
	KeyID string
	Role  domain.Role

	admin AdminCapability
}

// Admin returns the caller's administrator capability. The zero
// capability is returned for non-admin keys and fails IsAdmin.
func (id Identity) Admin() AdminCapability { return id.admin }

// Authenticate verifies the presented credentials against the keyring.
// The secret check runs even for unknown key IDs so response timing
// does not reveal which failed.
func (s *AuthService) Authenticate(creds Credentials) (Identity, error) {
	if creds.KeyID == "" || creds.Secret == "" {
		return Identity{}, domain.ErrAPIKeyMissing
	}

	key, ok := s.keys[creds.KeyID]
	if !ok {
		domain.VerifyAPIKeySecret(creds.Secret, decoyHash)
		return Identity{}, domain.ErrAPIKeyInvalid
	}

	if !domain.VerifyAPIKeySecret(creds.Secret, key.SecretHash) {
		return Identity{}, domain.ErrAPIKeyInvalid
	}

	if key.Disabled {
		return Identity{}, domain.ErrAPIKeyDisabled
	}

	id := Identity{KeyID: key.ID, Role: key.Role}
	if key.IsAdmin() {
		id.admin = AdminCapability{keyID: key.ID}
	}
	return id, nil
}

// CheckRateLimit consumes one token from the key's limiter.
func (s *AuthService) CheckRateLimit(keyID string) error {
	if s.ratePerSecond <= 0 {
		return nil
	}

	limiter := s.limiters.GetOrCreate(keyID, s.ratePerSecond, s.burst)
	if !limiter.Allow() {
		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()

		return domain.ErrRateLimited.WithDetails(
			"rate limit exceeded, retry after " + delay.String(),
		)
	}
	return nil
}

// decoyHash is a throwaway argon2id hash used to equalize work when
// the key ID is unknown. The preimage was discarded.
const decoyHash = "argon2id$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// RateLimiterRegistry manages one token-bucket limiter per API key.
type RateLimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiterRegistry creates an empty registry.
func NewRateLimiterRegistry() *RateLimiterRegistry {
	return &RateLimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
	}
}

// GetOrCreate retrieves an existing rate limiter or creates a new one.
func (r *RateLimiterRegistry) GetOrCreate(keyID string, ratePerSecond, burst int) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[keyID]
	r.mu.RUnlock()
	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if limiter, exists := r.limiters[keyID]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	r.limiters[keyID] = limiter
	return limiter
}

// Delete removes the limiter for a key.
func (r *RateLimiterRegistry) Delete(keyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, keyID)
}
