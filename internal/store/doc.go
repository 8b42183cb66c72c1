// Package store provides SQLite-backed durable storage for anchor records.
//
// The store is the backing shelf behind the runtime's Memory: a flat
// identifier-addressed table of serialized anchors (nodes, edges, walkers,
// plain objects) with upsert-by-identifier semantics. It knows nothing
// about architype semantics; Memory translates between live anchors and
// the Record rows stored here.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Adjacency lists are stored as JSON arrays of identifier strings, so a
// record never holds an object reference. Schema migrations run through
// PRAGMA user_version.
package store
