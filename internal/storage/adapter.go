// Package storage provides the scoped key-value storage abstraction that
// backs session coordination: a pluggable Adapter interface, a local
// file-per-scope backend, and a factory that constructs adapters from
// declarative configuration.
//
// Storage is partitioned into named scopes (see the scope package for the
// naming convention). A scope is the unit of atomic read/write: backends
// load a whole scope record, mutate it in memory, and write it back. Scopes
// are created implicitly on first write and removed when their last entry
// is deleted.
package storage

import (
	"context"
	"time"
)

// EntryMeta records per-entry timestamps. CreatedAt is set once, on the
// first write of a key; UpdatedAt advances on every write. Both are UTC.
type EntryMeta struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is the persisted unit for one scope. Every key in Data has a
// corresponding entry in Metadata and vice versa. A record with empty Data
// is equivalent to a deleted scope and is never persisted.
type Record struct {
	Data     map[string]any       `json:"data"`
	Metadata map[string]EntryMeta `json:"metadata"`
}

// NewRecord returns an empty scope record with initialized maps.
func NewRecord() Record {
	return Record{
		Data:     make(map[string]any),
		Metadata: make(map[string]EntryMeta),
	}
}

// Adapter is the storage backend interface. All operations are scope- and
// key-addressed. Implementations must treat "scope or key not found" as a
// normal empty result, never as an error.
type Adapter interface {
	// Store upserts value under key in scope, preserving sibling keys.
	// Values must be representable in the JSON data model; otherwise the
	// call fails with ErrValueNotSerializable and the prior stored value
	// for the key is left unchanged.
	Store(ctx context.Context, scope, key string, value any) error

	// Retrieve returns the stored value and whether it was present. The
	// presence flag distinguishes a stored null from an absent key.
	Retrieve(ctx context.Context, scope, key string) (value any, found bool, err error)

	// Delete removes one entry and reports whether it existed. Removing
	// the last entry removes the scope record itself.
	Delete(ctx context.Context, scope, key string) (bool, error)

	// ListKeys returns all keys in scope, or an empty slice if the scope
	// does not exist. Ordering is not contractual; callers must not rely
	// on it.
	ListKeys(ctx context.Context, scope string) ([]string, error)

	// ListScopes returns all scope identifiers, lexicographically sorted,
	// optionally filtered by a glob pattern ('*' and '?'; see scope.Match).
	// An empty pattern returns all scopes.
	ListScopes(ctx context.Context, pattern string) ([]string, error)

	// DeleteScope removes an entire scope record and reports whether it
	// existed.
	DeleteScope(ctx context.Context, scope string) (bool, error)

	// Close releases backend resources. Idempotent, and safe to call even
	// if the adapter was never used after construction.
	Close() error
}
