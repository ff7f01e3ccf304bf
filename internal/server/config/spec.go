package config

import "time"

// ServerConfig is the root configuration for expiryledger-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Storage  StorageSection  `koanf:"storage"`
	EventLog EventLogSection `koanf:"eventlog"`
	Auth     AuthSection     `koanf:"auth"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures the HTTP endpoint.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageSection configures the persistence layer.
type StorageSection struct {
	// Engine is "badger" (durable) or "memory" (volatile).
	Engine string `koanf:"engine"`

	// DataDir is the storage directory for the badger engine.
	DataDir string `koanf:"data_dir"`

	// GCInterval is the badger value log GC interval.
	GCInterval time.Duration `koanf:"gc_interval"`

	// SyncWrites controls fsync after each committed call.
	SyncWrites bool `koanf:"sync_writes"`
}

// EventLogSection configures the on-disk event journal.
type EventLogSection struct {
	// Enabled turns the journal on. Events always reach the in-memory
	// ring for the admin surface regardless.
	Enabled bool `koanf:"enabled"`

	// Dir is the journal directory.
	Dir string `koanf:"dir"`

	// SyncMode is "sync" (fsync per append) or "batch".
	SyncMode string `koanf:"sync_mode"`

	// SyncInterval is the fsync interval in batch mode.
	SyncInterval time.Duration `koanf:"sync_interval"`

	// MaxFileSize rotates segment files at this size in bytes.
	MaxFileSize int64 `koanf:"max_file_size"`
}

// AuthSection configures API keys and rate limiting.
type AuthSection struct {
	// Keys is the static keyring.
	Keys []KeyConfig `koanf:"keys"`

	// RatePerSecond is the sustained per-key request rate.
	// Zero or negative disables rate limiting.
	RatePerSecond int `koanf:"rate_per_second"`

	// Burst is the per-key burst size. Defaults to RatePerSecond.
	Burst int `koanf:"burst"`
}

// KeyConfig is one configured API key. The secret is configured as an
// argon2id hash, never in plaintext; `expiryledger-cli key hash`
// produces one.
type KeyConfig struct {
	ID         string `koanf:"id"`
	SecretHash string `koanf:"secret_hash"`
	Role       string `koanf:"role"`
	Disabled   bool   `koanf:"disabled"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
