// Package eventlog carries the ledger's state-change events to observers.
package eventlog

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/arvos-io/expiryledger/internal/core/domain"
)

func TestMemorySinkOrderAndTail(t *testing.T) {
	sink := NewMemorySink(0)

	for _, event := range testEvents() {
		if err := sink.Append(event); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	events := sink.Events()
	if len(events) != 4 {
		t.Fatalf("Events() = %d events, want 4", len(events))
	}
	if events[0].Kind != domain.EventTokenMetadata || events[3].Kind != domain.EventTokenMetadata {
		t.Error("events out of order")
	}

	tail := sink.Tail(2)
	if len(tail) != 2 || tail[0].Kind != domain.EventBurn {
		t.Errorf("Tail(2) = %+v", tail)
	}

	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Error("Reset() should drop events")
	}
}

func TestMemorySinkBounded(t *testing.T) {
	sink := NewMemorySink(3)
	for i := 0; i < 10; i++ {
		event := domain.NewMintEvent(int64(i), 2, domain.Holder{ID: "elac-owner"}, domain.Amount(i))
		if err := sink.Append(event); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	events := sink.Events()
	if len(events) != 3 {
		t.Fatalf("Events() = %d events, want 3", len(events))
	}
	if events[0].Amount != 7 || events[2].Amount != 9 {
		t.Errorf("bounded sink kept wrong events: %+v", events)
	}
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	sink := NewSlogSink(logger)
	if err := sink.Append(domain.NewMintEvent(50, 2, domain.Holder{ID: "elac-owner"}, 100)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"kind":"mint"`, `"token_id":"2"`, `"amount":100`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

type failingSink struct{ err error }

func (f failingSink) Append(domain.Event) error { return f.err }

func TestMultiSinkStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	mem := NewMemorySink(0)
	multi := NewMultiSink(nil, failingSink{err: boom}, mem)

	err := multi.Append(testEvents()[0])
	if !errors.Is(err, boom) {
		t.Errorf("Append() error = %v, want boom", err)
	}
	if len(mem.Events()) != 0 {
		t.Error("sinks after a failure should not receive the event")
	}
}

func TestTapSink(t *testing.T) {
	mem := NewMemorySink(0)
	var seen []domain.EventKind
	tap := NewTapSink(mem, func(ev domain.Event) {
		seen = append(seen, ev.Kind)
	})

	for _, ev := range testEvents() {
		if err := tap.Append(ev); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	if len(seen) != len(testEvents()) {
		t.Fatalf("callback fired %d times, want %d", len(seen), len(testEvents()))
	}
	if len(mem.Events()) != len(testEvents()) {
		t.Errorf("wrapped sink holds %d events, want %d", len(mem.Events()), len(testEvents()))
	}
	for i, ev := range testEvents() {
		if seen[i] != ev.Kind {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], ev.Kind)
		}
	}

	// A nil callback is allowed; events still pass through.
	quiet := NewTapSink(mem, nil)
	if err := quiet.Append(testEvents()[0]); err != nil {
		t.Errorf("Append() with nil callback error = %v", err)
	}
}
