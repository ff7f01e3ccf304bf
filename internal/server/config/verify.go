package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/arvos-io/expiryledger/internal/core/domain"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyEventLog(&cfg.EventLog); err != nil {
		return err
	}
	return verifyAuth(&cfg.Auth)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http: tls_cert_file and tls_key_file must be set together")
	}
	if cfg.HTTP.TLSCertFile != "" {
		for _, path := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("server.http: tls file %s: %w", path, err)
			}
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case "", "badger":
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required for the badger engine")
		}
		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return fmt.Errorf("cannot create data directory: %w", err)
		}
	case "memory":
		// Nothing to check; durability is explicitly waived.
	default:
		return fmt.Errorf("storage.engine must be badger or memory, got %q", cfg.Engine)
	}
	return nil
}

func verifyEventLog(cfg *EventLogSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return errors.New("eventlog.dir is required when the journal is enabled")
	}
	switch cfg.SyncMode {
	case "", "sync", "batch":
	default:
		return fmt.Errorf("eventlog.sync_mode must be sync or batch, got %q", cfg.SyncMode)
	}
	if cfg.MaxFileSize < 0 {
		return errors.New("eventlog.max_file_size must not be negative")
	}
	return nil
}

func verifyAuth(cfg *AuthSection) error {
	seen := make(map[string]bool, len(cfg.Keys))
	for i, key := range cfg.Keys {
		if key.ID == "" {
			return fmt.Errorf("auth.keys[%d]: id is required", i)
		}
		if seen[key.ID] {
			return fmt.Errorf("auth.keys[%d]: duplicate id %s", i, key.ID)
		}
		seen[key.ID] = true

		if key.SecretHash == "" {
			return fmt.Errorf("auth.keys[%d]: secret_hash is required", i)
		}
		if !strings.HasPrefix(key.SecretHash, "argon2id$") {
			return fmt.Errorf("auth.keys[%d]: secret_hash must be an argon2id hash, not a plaintext secret", i)
		}
		if !domain.ValidRole(domain.Role(key.Role)) {
			return fmt.Errorf("auth.keys[%d]: role must be admin or reader, got %q", i, key.Role)
		}
	}
	return nil
}
