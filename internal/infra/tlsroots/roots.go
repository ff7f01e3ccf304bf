// Package tlsroots builds TLS trust pools for clients of a
// TLS-enabled ledger endpoint, combining system roots with custom CA
// files.
package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a
	// PEM file.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")
)

// Pool manages a pool of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
}

// NewPool creates a certificate pool seeded with system roots. On
// systems without an accessible system store the pool starts empty.
func NewPool() (*Pool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}, nil
}

// NewEmptyPool creates a pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddFromFile adds all certificates from a PEM file to the pool.
func (p *Pool) AddFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read %s: %w", path, err)
	}
	return p.AddFromPEM(data)
}

// AddFromPEM adds all certificates from PEM data to the pool.
func (p *Pool) AddFromPEM(data []byte) error {
	if !p.certPool.AppendCertsFromPEM(data) {
		return ErrNoCertsFound
	}
	return nil
}

// ClientConfig returns a tls.Config trusting this pool.
func (p *Pool) ClientConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    p.certPool,
		MinVersion: tls.VersionTLS12,
	}
}

// ClientConfigFor builds a client TLS config: system roots plus the
// optional extra CA file. An empty path means system roots only.
func ClientConfigFor(caFile string) (*tls.Config, error) {
	pool, err := NewPool()
	if err != nil {
		return nil, err
	}
	if caFile != "" {
		if err := pool.AddFromFile(caFile); err != nil {
			return nil, err
		}
	}
	return pool.ClientConfig(), nil
}
