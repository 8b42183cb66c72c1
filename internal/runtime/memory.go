package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/plexus/internal/arch"
)

// entry is one Memory slot: the live architype plus its durability mark.
type entry struct {
	architype  arch.Architype
	persistent bool
}

// Memory is the session-scoped, identifier-addressed arena of architype
// instances. Every anchor the graph layer resolves goes through here, so
// the Memory lock is the serialization point required between concurrent
// walkers: adjacency mutation and entry writes take the write lock,
// read-only queries take the read lock.
//
// Durability is selective. Persistent entries write through to the Shelf
// on save and are flushed again at reset, so adjacency mutated after the
// save is captured. Ephemeral entries are discarded at reset.
type Memory struct {
	mu      sync.RWMutex
	reg     *Registry
	session string
	shelf   Shelf
	entries map[uuid.UUID]*entry
}

func newMemory(reg *Registry, session string, shelf Shelf) *Memory {
	return &Memory{
		reg:     reg,
		session: session,
		shelf:   shelf,
		entries: make(map[uuid.UUID]*entry),
	}
}

// Session returns the opaque durable-storage key this Memory is bound to.
// Empty means ephemeral-only.
func (m *Memory) Session() string { return m.session }

// GetObj returns the architype registered under id. A cache miss attempts
// hydration from the durable store. Unknown or corrupted identifiers
// return nil rather than an error: callers treat an unresolved reference
// as ordinary missing data.
func (m *Memory) GetObj(ctx context.Context, id uuid.UUID) arch.Architype {
	m.mu.RLock()
	if e, ok := m.entries[id]; ok {
		m.mu.RUnlock()
		return e.architype
	}
	m.mu.RUnlock()

	if m.shelf == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(ctx, id)
}

// getLocked resolves id from cache or shelf. Caller holds the write lock.
func (m *Memory) getLocked(ctx context.Context, id uuid.UUID) arch.Architype {
	// Re-check the cache: another goroutine may have hydrated while the
	// caller waited on the lock.
	if e, ok := m.entries[id]; ok {
		return e.architype
	}
	if m.shelf == nil {
		return nil
	}
	return m.hydrateLocked(ctx, id)
}

// SaveObj registers or updates item under its anchor's identifier.
// persistent=true marks the entry durable and writes it through to the
// Shelf; persistent=false keeps it cache-resident only.
func (m *Memory) SaveObj(ctx context.Context, item arch.Architype, persistent bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(ctx, item, persistent)
}

func (m *Memory) saveLocked(ctx context.Context, item arch.Architype, persistent bool) error {
	id := item.Anchor().ID()
	item.Anchor().MarkPersistent(persistent)
	m.entries[id] = &entry{architype: item, persistent: persistent}

	if persistent && m.shelf != nil {
		rec, err := m.recordOf(item)
		if err != nil {
			return err
		}
		if err := m.shelf.Put(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// registerLocked adds item as an ephemeral entry if it is not already
// registered. Construction paths (Context.Build, Connect) use this so
// every fresh anchor lands in the arena.
func (m *Memory) registerLocked(item arch.Architype) {
	id := item.Anchor().ID()
	if _, ok := m.entries[id]; !ok {
		m.entries[id] = &entry{architype: item}
	}
}

// register is the exported-path variant of registerLocked.
func (m *Memory) register(item arch.Architype) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerLocked(item)
}

// hasLocked reports whether id is cache-resident. Hydration is not
// attempted; Connect and Disconnect operate on live endpoints only.
func (m *Memory) hasLocked(id uuid.UUID) bool {
	_, ok := m.entries[id]
	return ok
}

// edgesSnapshot copies a node's adjacency list for dir under the read
// lock, so EdgeRef can resolve it without racing a concurrent Connect.
func (m *Memory) edgesSnapshot(n *arch.NodeAnchor, dir arch.Dir) []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return n.Edges(dir)
}

// reset flushes persistent entries, releases the Shelf handle, and drops
// every entry, returning the Memory to pre-init state.
func (m *Memory) reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	if m.shelf != nil {
		// Flush in identifier order so the write sequence is
		// deterministic across runs.
		ids := make([]uuid.UUID, 0, len(m.entries))
		for id, e := range m.entries {
			if e.persistent {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

		for _, id := range ids {
			rec, err := m.recordOf(m.entries[id].architype)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if err := m.shelf.Put(ctx, rec); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if err := m.shelf.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.shelf = nil
	}

	m.entries = make(map[uuid.UUID]*entry)
	return firstErr
}

// hydrateLocked rebuilds a live architype from its durable record. Any
// failure is logged and reported as a nil architype: a corrupted record is
// missing data, not a fatal condition. Caller holds the write lock.
func (m *Memory) hydrateLocked(ctx context.Context, id uuid.UUID) arch.Architype {
	rec, ok, err := m.shelf.Get(ctx, id.String())
	if err != nil {
		slog.Warn("hydration read failed", "anchor", id, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	spec := m.reg.Lookup(rec.Type)
	if spec == nil {
		slog.Warn("hydration found unregistered architype type", "anchor", id, "type", rec.Type)
		return nil
	}

	a := spec.factory()
	arch.Bind(a, spec.name, id)
	if len(rec.Fields) > 0 {
		if err := json.Unmarshal(rec.Fields, a); err != nil {
			slog.Warn("hydration fields corrupted", "anchor", id, "type", rec.Type, "error", err)
			return nil
		}
	}

	switch t := a.(type) {
	case arch.NodeArchitype:
		out, err := parseIDs(rec.OutEdges)
		if err != nil {
			slog.Warn("hydration adjacency corrupted", "anchor", id, "error", err)
			return nil
		}
		in, err := parseIDs(rec.InEdges)
		if err != nil {
			slog.Warn("hydration adjacency corrupted", "anchor", id, "error", err)
			return nil
		}
		t.NodeAnchor().RestoreEdges(out, in)
	case arch.EdgeArchitype:
		src, err1 := uuid.Parse(rec.Source)
		trg, err2 := uuid.Parse(rec.Target)
		if err1 != nil || err2 != nil {
			slog.Warn("hydration endpoints corrupted", "anchor", id)
			return nil
		}
		t.EdgeAnchor().SetEndpoints(src, trg, rec.Undirected)
	}

	a.Anchor().MarkPersistent(true)
	m.entries[id] = &entry{architype: a, persistent: true}
	slog.Debug("anchor hydrated", "anchor", id, "type", rec.Type)
	return a
}

// recordOf flattens a live architype into its store-layer record.
func (m *Memory) recordOf(a arch.Architype) (arch.Record, error) {
	fields, err := json.Marshal(a)
	if err != nil {
		return arch.Record{}, err
	}

	rec := arch.Record{
		ID:     a.Anchor().ID().String(),
		Kind:   int(a.Kind()),
		Type:   a.TypeName(),
		Fields: fields,
	}

	switch t := a.(type) {
	case arch.NodeArchitype:
		rec.OutEdges = formatIDs(t.NodeAnchor().Edges(arch.DirOut))
		rec.InEdges = formatIDs(t.NodeAnchor().Edges(arch.DirIn))
	case arch.EdgeArchitype:
		ea := t.EdgeAnchor()
		rec.Source = ea.Source().String()
		rec.Target = ea.Target().String()
		rec.Undirected = ea.Undirected()
	}
	return rec, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func formatIDs(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
