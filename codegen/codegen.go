// Package codegen produces short codes for links that were submitted without one.
// Generators should be safe for concurrent use.
package codegen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// DefaultBytes is the number of random bytes drawn per code (6 hex characters).
const DefaultBytes = 3

// Generator generates short codes.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate() (string, error)
}

// hexGenerator encodes n random bytes as lowercase hex.
type hexGenerator struct {
	n    int
	rand io.Reader
}

type Option func(*hexGenerator)

// WithBytes sets how many random bytes are drawn per code. Non-positive values are ignored.
func WithBytes(n int) Option {
	return func(g *hexGenerator) {
		if n > 0 {
			g.n = n
		}
	}
}

// WithReader replaces crypto/rand as the entropy source.
func WithReader(r io.Reader) Option {
	return func(g *hexGenerator) {
		if r != nil {
			g.rand = r
		}
	}
}

// NewHex returns a Generator producing 2*n lowercase hex characters per code.
func NewHex(opts ...Option) Generator {
	g := &hexGenerator{n: DefaultBytes, rand: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *hexGenerator) Generate() (string, error) {
	b := make([]byte, g.n)
	if _, err := io.ReadFull(g.rand, b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
