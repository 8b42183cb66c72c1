// Package runtime implements the execution core of the object-spatial
// model: architype type registration and ability dispatch, the
// identifier-addressed Memory arena with selective durability, the
// session-bound ExecutionContext, the graph operations (EdgeRef, Connect,
// Disconnect, BuildEdge), and the walker traversal engine.
//
// ARCHITECTURE:
//
// Explicit context, no singletons:
// Every operation takes a *Context. Each test (and each session) constructs
// its own isolated context; nothing in this package is process-global
// except registered type definitions, which are immutable after
// registration.
//
// Serialization model:
// A single traversal runs its step loop sequentially in the calling
// goroutine. The real concurrency surface is multiple walkers spawned
// against the same Memory-backed graph: adjacency mutation (Connect,
// Disconnect) and entry writes are serialized on the Memory lock, while
// read-only EdgeRef queries take snapshots under the read lock and may
// proceed concurrently with non-conflicting writes. Cancellation is
// cooperative only: context.Context is checked between traversal steps,
// never mid-ability.
//
// Durability:
// Memory is a cache-plus-dispatch layer, not a storage engine. Durable
// entries flow through the Shelf interface; the default implementation is
// the SQLite store in internal/store, injected once at context
// construction via WithShelfOpener.
package runtime
