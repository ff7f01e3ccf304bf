// Package storage provides the persistence layer for ExpiryLedger.
//
// The ledger state is small and lives in memory; storage is a
// write-through journal of committed mutations plus the full-state
// load at startup. KVEngine abstracts the embedded store so tests can
// run against the memory engine while deployments use Badger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// KVOpKind enumerates batch operations.
type KVOpKind uint8

const (
	// KVSet stores a key-value pair.
	KVSet KVOpKind = iota + 1

	// KVDelete removes a key.
	KVDelete
)

// KVOp is one operation of an atomic batch.
type KVOp struct {
	Kind  KVOpKind
	Key   []byte
	Value []byte
}

// KVEngine is an embedded key-value store.
//
// Implementation requirements:
//   - Thread-safe: concurrent reads and writes must be safe.
//   - ApplyBatch is atomic: either every operation lands or none does.
type KVEngine interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if the key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores a key-value pair.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key []byte) error

	// ApplyBatch applies the operations in one atomic transaction.
	ApplyBatch(ctx context.Context, ops []KVOp) error

	// Scan iterates over keys with a given prefix in key order.
	// Callback returns false to stop iteration.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*KVStats, error)

	// Close gracefully shuts down the engine.
	Close() error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// TotalKeys is the approximate number of keys. Zero for engines
	// that cannot count cheaply.
	TotalKeys uint64

	// TotalSize is the total disk usage in bytes.
	TotalSize uint64

	// LSMSize is the LSM tree size (Badger).
	LSMSize uint64

	// ValueLogSize is the value log size (Badger).
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64

	// GCBytesReclaimed is the total bytes reclaimed by GC.
	GCBytesReclaimed uint64
}

// KVConfig configures an embedded KV engine.
type KVConfig struct {
	// Engine is "badger" or "memory". Default: "badger".
	Engine string

	// Dir is the storage directory (badger only).
	Dir string

	// Badger holds Badger-specific tuning parameters.
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 32MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// SyncWrites enables fsync after each write. The ledger answers
	// success only after the store accepts the batch, so this defaults
	// to true.
	SyncWrites bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Engine: "badger",
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        32 << 20,  // 32MB
		ValueLogFileSize: 256 << 20, // 256MB
		NumMemtables:     2,
		SyncWrites:       true,
	}
}

// NewKVEngine opens the engine named by cfg.Engine.
func NewKVEngine(cfg KVConfig, logger *slog.Logger) (KVEngine, error) {
	switch cfg.Engine {
	case "", "badger":
		return NewBadgerEngine(cfg, logger)
	case "memory":
		return NewMemoryEngine(), nil
	default:
		return nil, fmt.Errorf("storage: unknown engine %q", cfg.Engine)
	}
}
