package service

import "time"

// Clock supplies the call instant. The service samples it exactly once
// per call, so every expiry comparison inside one call uses the same
// reference instant.
type Clock interface {
	// Now returns the current instant in Unix milliseconds.
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() int64 { return time.Now().UnixMilli() }
