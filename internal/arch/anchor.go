package arch

import (
	"github.com/google/uuid"
)

// Anchor is the structural identity shared by every architype instance.
//
// The identifier is immutable after Bind. The persistent flag records
// whether the owning Memory entry survives a context reset; it is managed
// by Memory, never by user code.
//
// Anchor fields are mutated only under the owning Memory's lock (see the
// serialization rules in internal/runtime). Anchors are not safe for
// unsynchronized concurrent mutation on their own.
type Anchor struct {
	id         uuid.UUID
	persistent bool
	architype  Architype
}

func (a *Anchor) init(self Architype, id uuid.UUID) {
	a.id = id
	a.architype = self
}

// ID returns the globally unique, immutable anchor identifier.
func (a *Anchor) ID() uuid.UUID { return a.id }

// Persistent reports whether this anchor is marked durable.
func (a *Anchor) Persistent() bool { return a.persistent }

// MarkPersistent sets the durability flag. Called by Memory on save.
func (a *Anchor) MarkPersistent(p bool) { a.persistent = p }

// Architype returns the instance this anchor identifies.
func (a *Anchor) Architype() Architype { return a.architype }

// NodeAnchor adds adjacency to an Anchor: one ordered edge-identifier list
// per direction. Insertion order is connection order and duplicates are
// permitted.
type NodeAnchor struct {
	Anchor
	edges map[Dir][]uuid.UUID
}

func (n *NodeAnchor) init(self Architype, id uuid.UUID) {
	n.Anchor.init(self, id)
	n.edges = map[Dir][]uuid.UUID{DirOut: {}, DirIn: {}}
}

// Edges returns the adjacency list for dir (DirOut or DirIn).
// The returned slice is a copy; mutations go through Attach/Detach.
func (n *NodeAnchor) Edges(dir Dir) []uuid.UUID {
	src := n.edges[dir]
	out := make([]uuid.UUID, len(src))
	copy(out, src)
	return out
}

// Attach appends an edge identifier to the dir adjacency list.
func (n *NodeAnchor) Attach(dir Dir, edgeID uuid.UUID) {
	n.edges[dir] = append(n.edges[dir], edgeID)
}

// Detach removes every occurrence of edgeID from the dir adjacency list.
// Returns true if at least one entry was removed.
func (n *NodeAnchor) Detach(dir Dir, edgeID uuid.UUID) bool {
	list := n.edges[dir]
	kept := list[:0]
	removed := false
	for _, id := range list {
		if id == edgeID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	n.edges[dir] = kept
	return removed
}

// RestoreEdges replaces both adjacency lists. Used during hydration from
// the durable store.
func (n *NodeAnchor) RestoreEdges(out, in []uuid.UUID) {
	n.edges[DirOut] = append([]uuid.UUID{}, out...)
	n.edges[DirIn] = append([]uuid.UUID{}, in...)
}

// EdgeAnchor adds endpoint identity to an Anchor. Source and target are
// node identifiers resolved through Memory; an edge whose endpoint cannot
// be resolved is invalid state and surfaces as a ConsistencyError at the
// graph layer.
type EdgeAnchor struct {
	Anchor
	source     uuid.UUID
	target     uuid.UUID
	undirected bool
	attached   bool
}

// Source returns the source node identifier.
func (e *EdgeAnchor) Source() uuid.UUID { return e.source }

// Target returns the target node identifier.
func (e *EdgeAnchor) Target() uuid.UUID { return e.target }

// Undirected reports whether adjacency was recorded in both directions.
func (e *EdgeAnchor) Undirected() bool { return e.undirected }

// Attached reports whether SetEndpoints has been called.
func (e *EdgeAnchor) Attached() bool { return e.attached }

// SetEndpoints fixes the edge's endpoints and directedness. Called once by
// Connect, or during hydration.
func (e *EdgeAnchor) SetEndpoints(source, target uuid.UUID, undirected bool) {
	e.source = source
	e.target = target
	e.undirected = undirected
	e.attached = true
}

// FarEndpoint returns the endpoint opposite to from. If from is neither
// endpoint (a walker standing elsewhere visiting this edge), the target is
// returned, matching forward traversal.
func (e *EdgeAnchor) FarEndpoint(from uuid.UUID) uuid.UUID {
	if e.target == from && e.source != from {
		return e.source
	}
	return e.target
}

// WalkerState tracks a walker anchor through its traversal lifecycle.
type WalkerState int

const (
	// WalkerCreated is the state before the first Spawn.
	WalkerCreated WalkerState = iota
	// WalkerRunning means a step loop is in progress.
	WalkerRunning
	// WalkerDone means the traversal finished or was disengaged.
	WalkerDone
)

// String returns the state name used in logs.
func (s WalkerState) String() string {
	switch s {
	case WalkerCreated:
		return "created"
	case WalkerRunning:
		return "running"
	case WalkerDone:
		return "done"
	default:
		return "unknown"
	}
}

// WalkerAnchor adds traversal state to an Anchor: the pending-location
// queue, the ignore set, the disengaged flag, and the accumulated report.
//
// A WalkerAnchor is owned by a single traversal at a time; its methods are
// called only from that traversal's goroutine.
type WalkerAnchor struct {
	Anchor
	state      WalkerState
	pending    []uuid.UUID
	ignores    map[uuid.UUID]struct{}
	disengaged bool
	reports    []any
}

func (w *WalkerAnchor) init(self Architype, id uuid.UUID) {
	w.Anchor.init(self, id)
	w.state = WalkerCreated
	w.ignores = make(map[uuid.UUID]struct{})
}

// State returns the current lifecycle state.
func (w *WalkerAnchor) State() WalkerState { return w.state }

// SetState transitions the lifecycle state.
func (w *WalkerAnchor) SetState(s WalkerState) { w.state = s }

// Enqueue appends a location identifier to the pending queue.
func (w *WalkerAnchor) Enqueue(id uuid.UUID) {
	w.pending = append(w.pending, id)
}

// Dequeue removes and returns the next pending location.
func (w *WalkerAnchor) Dequeue() (uuid.UUID, bool) {
	if len(w.pending) == 0 {
		return uuid.Nil, false
	}
	id := w.pending[0]
	w.pending = w.pending[1:]
	return id, true
}

// PendingLen returns the number of not-yet-dequeued locations.
func (w *WalkerAnchor) PendingLen() int { return len(w.pending) }

// RemovePending removes every pending occurrence of id.
// Returns true if anything was removed.
func (w *WalkerAnchor) RemovePending(id uuid.UUID) bool {
	kept := w.pending[:0]
	removed := false
	for _, p := range w.pending {
		if p == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	w.pending = kept
	return removed
}

// MarkIgnored adds id to the ignore set; later Enqueue attempts for it are
// skipped by the traversal.
func (w *WalkerAnchor) MarkIgnored(id uuid.UUID) {
	w.ignores[id] = struct{}{}
}

// Ignored reports whether id is in the ignore set.
func (w *WalkerAnchor) Ignored(id uuid.UUID) bool {
	_, ok := w.ignores[id]
	return ok
}

// Disengage sets the terminal flag. Idempotent.
func (w *WalkerAnchor) Disengage() { w.disengaged = true }

// Disengaged reports whether the walker has been disengaged.
func (w *WalkerAnchor) Disengaged() bool { return w.disengaged }

// AppendReport accumulates one report value.
func (w *WalkerAnchor) AppendReport(v any) {
	w.reports = append(w.reports, v)
}

// Reports returns a copy of the accumulated report sequence.
func (w *WalkerAnchor) Reports() []any {
	out := make([]any, len(w.reports))
	copy(out, w.reports)
	return out
}

// ResetRun clears per-run traversal state ahead of a fresh Spawn. The
// report sequence is preserved; it accumulates across runs.
func (w *WalkerAnchor) ResetRun() {
	w.pending = nil
	w.ignores = make(map[uuid.UUID]struct{})
	w.disengaged = false
}
