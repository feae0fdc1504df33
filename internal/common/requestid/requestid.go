// Package requestid assigns the X-Request-ID carried through logs and access events.
package requestid

import (
	"github.com/google/uuid"
)

const (
	// Header is the request and response header carrying the id
	Header = "X-Request-ID"
	// MaxLength bounds an accepted inbound id
	MaxLength = 64
)

// New returns a fresh random id
func New() string {
	return uuid.New().String()
}

// FromHeader keeps an inbound id made of [A-Za-z0-9._-] and at most
// MaxLength bytes. Anything else is replaced by a fresh id.
func FromHeader(value string) string {
	if !valid(value) {
		return New()
	}
	return value
}

func valid(s string) bool {
	if s == "" || len(s) > MaxLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
