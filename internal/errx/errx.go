// Package errx provides the error kinds shared by the store, the service and the
// HTTP layer. Handlers switch on the kind to pick a status code and response body.
package errx

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	// Invalid marks rejected client input, such as a missing URL.
	Invalid
	// Conflict marks a short code that is already bound in the registry.
	Conflict
	NotFound
	// Corrupt marks persisted registry contents that cannot be parsed.
	Corrupt
	// Storage marks read or write failures of the backing store.
	Storage
	Unavailable
	Internal
)

// Error tags an underlying error with the operation that produced it and its kind.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E wraps err. It returns nil when err is nil so callers can wrap unconditionally.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// Wrap re-tags err with op while keeping the kind already carried by err.
func Wrap(op string, err error) error {
	return E(op, KindOf(err), err)
}

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case Invalid:
		return "Invalid"
	case Conflict:
		return "Conflict"
	case NotFound:
		return "NotFound"
	case Corrupt:
		return "Corrupt"
	case Storage:
		return "Storage"
	case Unavailable:
		return "Unavailable"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the outermost *Error in the chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
