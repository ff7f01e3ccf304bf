package storage

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// MemoryEngine is a KVEngine held entirely in process memory. It backs
// tests and the engine=memory deployment mode, where durability is
// explicitly waived.
type MemoryEngine struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{data: make(map[string][]byte)}
}

// Get retrieves a value by key.
func (e *MemoryEngine) Get(_ context.Context, key []byte) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}

	value, ok := e.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

// Set stores a key-value pair.
func (e *MemoryEngine) Set(_ context.Context, key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	e.data[string(key)] = cp
	return nil
}

// Delete removes a key.
func (e *MemoryEngine) Delete(_ context.Context, key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	delete(e.data, string(key))
	return nil
}

// ApplyBatch applies the operations under one lock acquisition, which
// makes the batch atomic against concurrent readers.
func (e *MemoryEngine) ApplyBatch(_ context.Context, ops []KVOp) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	for _, op := range ops {
		switch op.Kind {
		case KVSet:
			cp := make([]byte, len(op.Value))
			copy(cp, op.Value)
			e.data[string(op.Key)] = cp
		case KVDelete:
			delete(e.data, string(op.Key))
		}
	}
	return nil
}

// Scan iterates over keys with a given prefix in key order.
func (e *MemoryEngine) Scan(_ context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return ErrClosed
	}

	keys := make([]string, 0, len(e.data))
	for k := range e.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	// Copy out under the lock, call back outside it.
	pairs := make([][2][]byte, 0, len(keys))
	for _, k := range keys {
		v := e.data[k]
		cp := make([]byte, len(v))
		copy(cp, v)
		pairs = append(pairs, [2][]byte{[]byte(k), cp})
	}
	e.mu.RUnlock()

	for _, p := range pairs {
		if !fn(p[0], p[1]) {
			break
		}
	}
	return nil
}

// Stats returns the key count; sizes are not tracked.
func (e *MemoryEngine) Stats(context.Context) (*KVStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &KVStats{TotalKeys: uint64(len(e.data))}, nil
}

// Close marks the engine closed.
func (e *MemoryEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
