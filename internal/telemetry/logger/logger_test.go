package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newBufLogger(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return l, &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", lines[len(lines)-1], err)
	}
	return entry
}

func TestJSONOutput(t *testing.T) {
	l, buf := newBufLogger(t, "info")

	l.Info("token registered", "token_id", "7")
	entry := lastLine(t, buf)
	if entry["msg"] != "token registered" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if entry["token_id"] != "7" {
		t.Fatalf("token_id = %v", entry["token_id"])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufLogger(t, "warn")

	l.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	l.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("warn should pass at warn level")
	}
}

func TestSetLevelDynamic(t *testing.T) {
	l, buf := newBufLogger(t, "info")

	l.Debug("suppressed")
	if buf.Len() != 0 {
		t.Fatal("debug should be filtered at info level")
	}

	SetLevel("debug")
	defer SetLevel("info")

	l.Debug("kept")
	if buf.Len() == 0 {
		t.Fatal("debug should pass after SetLevel")
	}
	if GetLevel() != "debug" {
		t.Fatalf("GetLevel = %q, want debug", GetLevel())
	}
}

func TestSecretValueIsMasked(t *testing.T) {
	l, buf := newBufLogger(t, "info")

	secret := "elsk_abcdefghijklmnop"
	l.Info("auth attempt", "presented", secret)

	out := buf.String()
	if strings.Contains(out, secret) {
		t.Fatal("plaintext secret leaked into log output")
	}
	if !strings.Contains(out, "elsk_abc...nop") {
		t.Fatalf("expected masked secret hint, got %q", out)
	}
}

func TestSensitiveKeyIsRedacted(t *testing.T) {
	l, buf := newBufLogger(t, "info")

	l.Info("export requested", "passphrase", "hunter22222")
	out := buf.String()
	if strings.Contains(out, "hunter22222") {
		t.Fatal("passphrase leaked into log output")
	}
	if !strings.Contains(out, redactedValue) {
		t.Fatalf("expected redaction placeholder, got %q", out)
	}
}

func TestRedactString(t *testing.T) {
	if got := RedactString("elsk_abcdefghijklmnop"); got != "elsk_abc...nop" {
		t.Fatalf("RedactString = %q", got)
	}
	if got := RedactString("plain value"); got != "plain value" {
		t.Fatalf("non-secret altered: %q", got)
	}
	if !IsSensitiveValue("elsk_x") || IsSensitiveValue("elak-x") {
		t.Fatal("IsSensitiveValue misclassified")
	}
}

func TestContextRequestID(t *testing.T) {
	l, buf := newBufLogger(t, "info")

	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-123")

	L(ctx).Info("handled")
	entry := lastLine(t, buf)
	if entry["request_id"] != "req-123" {
		t.Fatalf("request_id = %v", entry["request_id"])
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must fall back to the default logger")
	}
}
