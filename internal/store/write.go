package store

import (
	"context"
	"fmt"

	"github.com/roach88/plexus/internal/arch"
)

// Put inserts or replaces the anchor record stored under rec.ID.
//
// Anchors are mutable state, not an append-only log: a re-save of the same
// identifier overwrites the previous row (adjacency changes after the
// first save must win).
func (s *Store) Put(ctx context.Context, rec arch.Record) error {
	outJSON, err := marshalIDs(rec.OutEdges)
	if err != nil {
		return fmt.Errorf("put anchor: %w", err)
	}
	inJSON, err := marshalIDs(rec.InEdges)
	if err != nil {
		return fmt.Errorf("put anchor: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO anchors
		(id, kind, type, fields, out_edges, in_edges, source, target, undirected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			type = excluded.type,
			fields = excluded.fields,
			out_edges = excluded.out_edges,
			in_edges = excluded.in_edges,
			source = excluded.source,
			target = excluded.target,
			undirected = excluded.undirected
	`,
		rec.ID,
		rec.Kind,
		rec.Type,
		normalizeFields(rec.Fields),
		outJSON,
		inJSON,
		nullable(rec.Source),
		nullable(rec.Target),
		boolToInt(rec.Undirected),
	)
	if err != nil {
		return fmt.Errorf("put anchor: %w", err)
	}

	return nil
}

// Delete removes the record stored under id. Missing identifiers are a
// no-op. Memory does not currently prune orphans automatically; this
// exists for store-level maintenance.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM anchors WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete anchor: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
