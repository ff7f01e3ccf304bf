package tlsroots

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func selfSignedPEM(t *testing.T) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestAddFromPEM(t *testing.T) {
	pool := NewEmptyPool()
	if err := pool.AddFromPEM(selfSignedPEM(t)); err != nil {
		t.Fatalf("add: %v", err)
	}
}

func TestAddFromPEMRejectsGarbage(t *testing.T) {
	pool := NewEmptyPool()
	if err := pool.AddFromPEM([]byte("not a cert")); !errors.Is(err, ErrNoCertsFound) {
		t.Fatalf("expected ErrNoCertsFound, got %v", err)
	}
}

func TestClientConfigFor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, selfSignedPEM(t), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := ClientConfigFor(path)
	if err != nil {
		t.Fatalf("client config: %v", err)
	}
	if cfg.RootCAs == nil {
		t.Fatal("root CAs not set")
	}
	if cfg.MinVersion < 0x0303 { // TLS 1.2
		t.Fatalf("min version = %x", cfg.MinVersion)
	}

	if _, err := ClientConfigFor(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Fatal("expected error for missing CA file")
	}
}
