// Package jobid generates short, collision-resistant clip job identifiers.
//
// An identifier is the base36 Unix millisecond timestamp followed by a
// fixed-width base36 random suffix drawn from crypto/rand. Identifiers sort
// roughly by creation time and need no shared counter.
package jobid

import (
	"crypto/rand"
	"io"
	"strconv"
	"time"
)

const (
	alphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength = 8
)

// Generator produces identifiers. The zero value uses the wall clock and
// crypto/rand.
type Generator struct {
	Now     func() time.Time
	Entropy io.Reader
}

var defaultGenerator Generator

// New returns a fresh identifier from the default generator.
func New() string {
	return defaultGenerator.New()
}

// New returns a fresh identifier. If the entropy source fails the suffix
// falls back to the nanosecond clock, which still keeps identifiers distinct
// within one process.
func (g Generator) New() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	entropy := g.Entropy
	if entropy == nil {
		entropy = rand.Reader
	}

	ts := now()
	prefix := strconv.FormatInt(ts.UnixMilli(), 36)

	buf := make([]byte, suffixLength)
	if _, err := io.ReadFull(entropy, buf); err != nil {
		fallback := strconv.FormatInt(ts.UnixNano(), 36)
		for len(fallback) < suffixLength {
			fallback = "0" + fallback
		}
		return prefix + fallback[len(fallback)-suffixLength:]
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return prefix + string(buf)
}

// Valid reports whether id has the shape New produces. It is used to reject
// path traversal in lookups that build file or key names from an id.
func Valid(id string) bool {
	if len(id) <= suffixLength || len(id) > 32 {
		return false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
