// Package eventlog carries the ledger's state-change events to observers.
package eventlog

import (
	"log/slog"
	"sync"

	"github.com/arvos-io/expiryledger/internal/core/domain"
)

// Sink receives committed ledger events in emission order.
//
// Append must either record the event or return an error; a sink never
// reorders or drops silently. The service only calls Append after the
// state mutation behind the event has committed.
type Sink interface {
	Append(event domain.Event) error
}

// NopSink discards every event.
type NopSink struct{}

// Append implements Sink.
func (NopSink) Append(domain.Event) error { return nil }

// SlogSink emits every event as a structured log record.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink logging to the given logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Append implements Sink.
func (s *SlogSink) Append(event domain.Event) error {
	attrs := []any{
		"kind", string(event.Kind),
		"token_id", event.TokenID.String(),
		"time", event.Time,
	}
	switch event.Kind {
	case domain.EventMint, domain.EventBurn:
		attrs = append(attrs, "owner", event.Owner, "amount", uint64(event.Amount))
	case domain.EventTokenMetadata:
		attrs = append(attrs, "url", event.Metadata.URL, "retracted", event.Metadata.IsEmpty())
	}
	s.logger.Info("ledger event", attrs...)
	return nil
}

// MemorySink keeps events in order, bounded to a capacity. It backs
// tests and the admin event tail.
type MemorySink struct {
	mu       sync.Mutex
	events   []domain.Event
	capacity int
}

// DefaultMemoryCapacity bounds the in-memory event tail.
const DefaultMemoryCapacity = 1024

// NewMemorySink creates a bounded in-memory sink. A capacity <= 0 uses
// the default.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemorySink{capacity: capacity}
}

// Append implements Sink. When full, the oldest event is dropped.
func (s *MemorySink) Append(event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	if len(s.events) > s.capacity {
		s.events = s.events[len(s.events)-s.capacity:]
	}
	return nil
}

// Events returns a copy of the retained events, oldest first.
func (s *MemorySink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Tail returns up to n most recent events, oldest first.
func (s *MemorySink) Tail(n int) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || n > len(s.events) {
		n = len(s.events)
	}
	out := make([]domain.Event, n)
	copy(out, s.events[len(s.events)-n:])
	return out
}

// Reset drops all retained events.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// TapSink invokes fn for every event before forwarding to next.
// Used to hook counters into the event stream.
type TapSink struct {
	next Sink
	fn   func(domain.Event)
}

// NewTapSink wraps next with a per-event callback.
func NewTapSink(next Sink, fn func(domain.Event)) *TapSink {
	return &TapSink{next: next, fn: fn}
}

// Append implements Sink.
func (s *TapSink) Append(event domain.Event) error {
	if s.fn != nil {
		s.fn(event)
	}
	return s.next.Append(event)
}

// MultiSink fans one event out to several sinks in order. The first
// failing sink aborts the fan-out and its error is returned.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks; nil entries are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Append implements Sink.
func (m *MultiSink) Append(event domain.Event) error {
	for _, s := range m.sinks {
		if err := s.Append(event); err != nil {
			return err
		}
	}
	return nil
}
