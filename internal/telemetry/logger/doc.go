// Package logger provides structured logging for ExpiryLedger.
//
// It wraps log/slog with JSON output, automatic redaction of
// sensitive values (elsk_ secrets, password-like keys), a dynamically
// adjustable global level, and request ID propagation through
// context.
package logger
