package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/plexus/internal/arch"
)

// Get returns the anchor record stored under id. The second return value
// is false when the identifier is unknown.
func (s *Store) Get(ctx context.Context, id string) (arch.Record, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, type, fields, out_edges, in_edges, source, target, undirected
		FROM anchors
		WHERE id = ?
	`, id)

	var (
		rec        arch.Record
		fields     string
		outJSON    string
		inJSON     string
		source     sql.NullString
		target     sql.NullString
		undirected int
	)
	err := row.Scan(&rec.ID, &rec.Kind, &rec.Type, &fields, &outJSON, &inJSON, &source, &target, &undirected)
	if errors.Is(err, sql.ErrNoRows) {
		return arch.Record{}, false, nil
	}
	if err != nil {
		return arch.Record{}, false, fmt.Errorf("get anchor: %w", err)
	}

	rec.Fields = []byte(fields)
	if rec.OutEdges, err = unmarshalIDs(outJSON); err != nil {
		return arch.Record{}, false, fmt.Errorf("get anchor: %w", err)
	}
	if rec.InEdges, err = unmarshalIDs(inJSON); err != nil {
		return arch.Record{}, false, fmt.Errorf("get anchor: %w", err)
	}
	rec.Source = source.String
	rec.Target = target.String
	rec.Undirected = undirected != 0

	return rec, true, nil
}

// Exists reports whether a record is stored under id.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM anchors WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("anchor exists: %w", err)
	}
	return true, nil
}

// ListIDs returns every stored identifier in ascending order.
// Ordering is deterministic so inspection output is stable across runs.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM anchors ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list anchors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list anchors: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list anchors: %w", err)
	}
	return ids, nil
}
