package service

import (
	"errors"
	"testing"

	"github.com/arvos-io/expiryledger/internal/core/domain"
)

func newTestKeyring(t *testing.T) (admin, reader *domain.APIKey, adminSecret, readerSecret string) {
	t.Helper()

	adminSecret, adminHash, err := domain.NewAPIKeySecret()
	if err != nil {
		t.Fatalf("generate admin secret: %v", err)
	}
	readerSecret, readerHash, err := domain.NewAPIKeySecret()
	if err != nil {
		t.Fatalf("generate reader secret: %v", err)
	}

	admin = &domain.APIKey{ID: "elak-admin", SecretHash: adminHash, Role: domain.RoleAdmin}
	reader = &domain.APIKey{ID: "elak-reader", SecretHash: readerHash, Role: domain.RoleReader}
	return admin, reader, adminSecret, readerSecret
}

func TestAuthenticateAdminMintsCapability(t *testing.T) {
	admin, reader, adminSecret, _ := newTestKeyring(t)
	svc := NewAuthService(AuthServiceConfig{Keys: []*domain.APIKey{admin, reader}})

	id, err := svc.Authenticate(Credentials{KeyID: "elak-admin", Secret: adminSecret})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.Role != domain.RoleAdmin {
		t.Fatalf("role = %s, want admin", id.Role)
	}
	if !id.Admin().IsAdmin() {
		t.Fatal("admin key must carry a valid capability")
	}
	if id.Admin().KeyID() != "elak-admin" {
		t.Fatalf("capability key = %s, want elak-admin", id.Admin().KeyID())
	}
}

func TestAuthenticateReaderGetsNoCapability(t *testing.T) {
	admin, reader, _, readerSecret := newTestKeyring(t)
	svc := NewAuthService(AuthServiceConfig{Keys: []*domain.APIKey{admin, reader}})

	id, err := svc.Authenticate(Credentials{KeyID: "elak-reader", Secret: readerSecret})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.Admin().IsAdmin() {
		t.Fatal("reader key must not carry an admin capability")
	}
}

func TestAuthenticateFailures(t *testing.T) {
	admin, reader, adminSecret, _ := newTestKeyring(t)
	disabled := &domain.APIKey{
		ID:         "elak-disabled",
		SecretHash: admin.SecretHash,
		Role:       domain.RoleAdmin,
		Disabled:   true,
	}
	svc := NewAuthService(AuthServiceConfig{Keys: []*domain.APIKey{admin, reader, disabled}})

	cases := []struct {
		name  string
		creds Credentials
		want  error
	}{
		{"missing key id", Credentials{Secret: adminSecret}, domain.ErrAPIKeyMissing},
		{"missing secret", Credentials{KeyID: "elak-admin"}, domain.ErrAPIKeyMissing},
		{"unknown key id", Credentials{KeyID: "elak-ghost", Secret: adminSecret}, domain.ErrAPIKeyInvalid},
		{"wrong secret", Credentials{KeyID: "elak-admin", Secret: "elsk_wrong"}, domain.ErrAPIKeyInvalid},
		{"disabled key", Credentials{KeyID: "elak-disabled", Secret: adminSecret}, domain.ErrAPIKeyDisabled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Authenticate(tc.creds)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCheckRateLimit(t *testing.T) {
	admin, _, _, _ := newTestKeyring(t)
	svc := NewAuthService(AuthServiceConfig{
		Keys:          []*domain.APIKey{admin},
		RatePerSecond: 1,
		Burst:         2,
	})

	if err := svc.CheckRateLimit("elak-admin"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := svc.CheckRateLimit("elak-admin"); err != nil {
		t.Fatalf("second request within burst: %v", err)
	}
	if err := svc.CheckRateLimit("elak-admin"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// A different key has its own bucket.
	if err := svc.CheckRateLimit("elak-other"); err != nil {
		t.Fatalf("other key: %v", err)
	}
}

func TestCheckRateLimitDisabled(t *testing.T) {
	admin, _, _, _ := newTestKeyring(t)
	svc := NewAuthService(AuthServiceConfig{
		Keys:          []*domain.APIKey{admin},
		RatePerSecond: -1,
	})

	for i := 0; i < 100; i++ {
		if err := svc.CheckRateLimit("elak-admin"); err != nil {
			t.Fatalf("rate limiting disabled, got %v", err)
		}
	}
}

func TestSecretHashRoundTrip(t *testing.T) {
	secret, hash, err := domain.NewAPIKeySecret()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !domain.VerifyAPIKeySecret(secret, hash) {
		t.Fatal("generated secret must verify against its own hash")
	}
	if domain.VerifyAPIKeySecret(secret+"x", hash) {
		t.Fatal("altered secret must not verify")
	}
	if domain.VerifyAPIKeySecret(secret, "not-a-hash") {
		t.Fatal("malformed hash must not verify")
	}
}
