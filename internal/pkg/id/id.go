// Package id provides identifier generation for the workshop service.
//
// Workshop-owned records (workshops, users, rubrics, annotations, findings)
// use UUID v4. Traces keep string identifiers so that records ingested from
// an external trace server can retain their upstream IDs; locally created
// traces get a 32-hex-character identifier.
package id

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// traceIDBytes is the raw length of a generated trace ID (32 hex chars).
const traceIDBytes = 16

// New returns a new UUID v4.
func New() uuid.UUID {
	return uuid.New()
}

// NewString returns a new UUID v4 as a string.
func NewString() string {
	return uuid.NewString()
}

// NewTraceID generates a 32-character hex trace identifier.
func NewTraceID() string {
	b := make([]byte, traceIDBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure means the process is in a bad state;
		// fall back to a UUID-derived identifier rather than panic.
		u := uuid.New()
		return hex.EncodeToString(u[:])
	}
	return hex.EncodeToString(b)
}

// ValidTraceID reports whether s is a well-formed trace identifier:
// non-empty, at most 64 characters, with no whitespace.
func ValidTraceID(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return false
		}
	}
	return true
}
