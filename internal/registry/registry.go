// Package registry persists the mapping of short codes to destination URLs.
//
// A Store always hands out the whole registry. Callers that need to read and then
// write (checking for a collision before inserting, for instance) go through
// Update, which each backend serializes so concurrent writers cannot lose each
// other's inserts.
package registry

import (
	"context"
	"maps"
)

// Registry maps short codes to destination URLs.
type Registry map[string]string

// Has reports whether code is bound.
func (r Registry) Has(code string) bool {
	_, ok := r[code]
	return ok
}

// Clone returns an independent copy; a nil registry clones to an empty one.
func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	maps.Copy(out, r)
	return out
}

// UpdateFunc mutates the registry in place. Returning an error aborts the update
// and nothing is persisted.
type UpdateFunc func(reg Registry) error

// Store defines persistence of the registry.
type Store interface {
	// Load returns the current registry. A store that has never been written
	// returns an empty registry.
	Load(ctx context.Context) (Registry, error)
	// Save replaces the persisted registry with reg.
	Save(ctx context.Context, reg Registry) error
	// Update runs a load-modify-save cycle that no other Update or Save can interleave with.
	Update(ctx context.Context, fn UpdateFunc) error
	Close() error
}

// change describes how to bring the persisted registry from before to after.
type change struct {
	upserts Registry
	deletes []string
}

func diff(before, after Registry) change {
	c := change{upserts: Registry{}}
	for code, url := range after {
		if old, ok := before[code]; !ok || old != url {
			c.upserts[code] = url
		}
	}
	for code := range before {
		if !after.Has(code) {
			c.deletes = append(c.deletes, code)
		}
	}
	return c
}

func (c change) empty() bool {
	return len(c.upserts) == 0 && len(c.deletes) == 0
}
