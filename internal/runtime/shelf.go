package runtime

import (
	"context"

	"github.com/roach88/plexus/internal/arch"
)

// Shelf is the durable backing store behind Memory: get/put by identifier
// plus an existence check. Memory is a cache-plus-dispatch layer; the
// Shelf owns the bytes.
//
// The default implementation is the SQLite store in internal/store. Tests
// may supply their own. A nil Shelf means the session is ephemeral-only.
type Shelf interface {
	// Put inserts or replaces the record stored under rec.ID.
	Put(ctx context.Context, rec arch.Record) error

	// Get returns the record stored under id. The second return value is
	// false when the identifier is unknown.
	Get(ctx context.Context, id string) (arch.Record, bool, error)

	// Exists reports whether a record is stored under id.
	Exists(ctx context.Context, id string) (bool, error)

	// Close releases the backing-store handle.
	Close() error
}

// ShelfOpener opens the durable store for a session key. Injected once at
// context construction via WithShelfOpener; it is never consulted per
// call.
type ShelfOpener func(session string) (Shelf, error)
