package runtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/roach88/plexus/internal/arch"
)

// EdgeFilter narrows a candidate edge list. The filter receives the
// direction-resolved edges of one source node in connection order and
// returns the edges to keep, order preserved.
type EdgeFilter func(edges []arch.EdgeArchitype) []arch.EdgeArchitype

// EdgeRef computes the neighbor set of sources in the given direction.
//
// The result is the ordered union across all sources, connection order
// within each source. DirAny merges OUT before IN. If target is non-nil,
// only neighbors equal to target (by anchor identity) are kept. If filter
// is non-nil it runs over each source's candidate edge list before
// neighbors are resolved. edgesOnly returns the edges themselves instead
// of the far nodes.
//
// An adjacency entry or endpoint that cannot be resolved is invalid state
// and fails with a consistency error: an edge must always reference two
// existing node anchors.
func EdgeRef(ctx context.Context, x *Context, sources []arch.NodeArchitype, target arch.NodeArchitype, dir arch.Dir, filter EdgeFilter, edgesOnly bool) ([]arch.Architype, error) {
	mem, err := x.memory("edge_ref")
	if err != nil {
		return nil, err
	}

	var targetID uuid.UUID
	if target != nil {
		targetID = target.Anchor().ID()
	}

	var result []arch.Architype
	for _, src := range sources {
		srcID := src.Anchor().ID()
		if mem.GetObj(ctx, srcID) == nil {
			return nil, NewConsistencyError("edge_ref", srcID, "source node is not registered")
		}

		edges, err := candidateEdges(ctx, mem, "edge_ref", src, dir)
		if err != nil {
			return nil, err
		}
		if filter != nil {
			edges = filter(edges)
		}

		for _, e := range edges {
			farID := e.EdgeAnchor().FarEndpoint(srcID)
			if target != nil && farID != targetID {
				continue
			}
			if edgesOnly {
				result = append(result, e)
				continue
			}
			far := mem.GetObj(ctx, farID)
			if far == nil {
				return nil, NewConsistencyError("edge_ref", farID, "edge references a missing endpoint")
			}
			result = append(result, far)
		}
	}
	return result, nil
}

// candidateEdges resolves a node's adjacency list for dir into live edge
// architypes. DirAny concatenates OUT then IN.
func candidateEdges(ctx context.Context, mem *Memory, op string, node arch.NodeArchitype, dir arch.Dir) ([]arch.EdgeArchitype, error) {
	var ids []uuid.UUID
	switch dir {
	case arch.DirOut, arch.DirIn:
		ids = mem.edgesSnapshot(node.NodeAnchor(), dir)
	case arch.DirAny:
		ids = append(mem.edgesSnapshot(node.NodeAnchor(), arch.DirOut), mem.edgesSnapshot(node.NodeAnchor(), arch.DirIn)...)
	default:
		return nil, NewConsistencyError(op, node.Anchor().ID(), "unknown direction")
	}

	edges := make([]arch.EdgeArchitype, 0, len(ids))
	for _, id := range ids {
		a := mem.GetObj(ctx, id)
		if a == nil {
			return nil, NewConsistencyError(op, id, "adjacency references a missing edge")
		}
		e, ok := a.(arch.EdgeArchitype)
		if !ok {
			return nil, NewConsistencyError(op, id, "adjacency references a non-edge anchor")
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// Connect creates one edge per (l, r) pair in the cross product of left
// and right, using factory (default: a directed GenericEdge). Each edge is
// attached at l as source and r as target, registered in both endpoints'
// adjacency and in Memory. An undirected factory also records adjacency in
// the reverse direction from the same edge anchor.
//
// Returns the connected right-side nodes, or the created edges when
// edgesOnly is set.
func Connect(ctx context.Context, x *Context, left, right []arch.NodeArchitype, factory *EdgeFactory, edgesOnly bool) ([]arch.Architype, error) {
	mem, err := x.memory("connect")
	if err != nil {
		return nil, err
	}
	if factory == nil {
		factory = BuildEdge(false, nil, nil, nil)
	}

	var result []arch.Architype
	for _, l := range left {
		for _, r := range right {
			e, err := factory.instantiate(x.reg)
			if err != nil {
				return nil, err
			}
			if err := attach(mem, l, r, e, factory.undirected); err != nil {
				return nil, err
			}
			if edgesOnly {
				result = append(result, e)
			} else {
				result = append(result, r)
			}
		}
	}
	return result, nil
}

// attach wires one edge between two live nodes. The endpoint checks, the
// adjacency writes on both nodes, and the Memory registration happen under
// a single write lock so a concurrent walker never observes a half-linked
// edge.
func attach(mem *Memory, l, r arch.NodeArchitype, e arch.EdgeArchitype, undirected bool) error {
	mem.mu.Lock()
	defer mem.mu.Unlock()

	lID, rID := l.Anchor().ID(), r.Anchor().ID()
	if !mem.hasLocked(lID) {
		return NewConsistencyError("connect", lID, "endpoint is not registered")
	}
	if !mem.hasLocked(rID) {
		return NewConsistencyError("connect", rID, "endpoint is not registered")
	}

	e.EdgeAnchor().SetEndpoints(lID, rID, undirected)
	eID := e.Anchor().ID()

	l.NodeAnchor().Attach(arch.DirOut, eID)
	r.NodeAnchor().Attach(arch.DirIn, eID)
	if undirected {
		l.NodeAnchor().Attach(arch.DirIn, eID)
		r.NodeAnchor().Attach(arch.DirOut, eID)
	}

	mem.registerLocked(e)
	return nil
}

// Disconnect removes, for each pair matched by the same direction and
// filter resolution as EdgeRef, the edge's adjacency entries from both
// endpoints. A nil right matches every neighbor. Returns whether any
// removal occurred.
//
// Unlinking does not erase the edge anchor from Memory; orphan pruning is
// a Memory-level policy, not a graph-model concern.
func Disconnect(ctx context.Context, x *Context, left, right []arch.NodeArchitype, dir arch.Dir, filter EdgeFilter) (bool, error) {
	mem, err := x.memory("disconnect")
	if err != nil {
		return false, err
	}

	rightIDs := make(map[uuid.UUID]struct{}, len(right))
	for _, r := range right {
		rightIDs[r.Anchor().ID()] = struct{}{}
	}

	mem.mu.Lock()
	defer mem.mu.Unlock()

	removed := false
	for _, l := range left {
		lID := l.Anchor().ID()
		if !mem.hasLocked(lID) {
			return removed, NewConsistencyError("disconnect", lID, "endpoint is not registered")
		}

		edges, err := candidateEdgesLocked(ctx, mem, l, dir)
		if err != nil {
			return removed, err
		}
		if filter != nil {
			edges = filter(edges)
		}

		for _, e := range edges {
			farID := e.EdgeAnchor().FarEndpoint(lID)
			if len(rightIDs) > 0 {
				if _, ok := rightIDs[farID]; !ok {
					continue
				}
			}

			far := mem.getLocked(ctx, farID)
			farNode, ok := far.(arch.NodeArchitype)
			if far == nil || !ok {
				return removed, NewConsistencyError("disconnect", farID, "edge references a missing endpoint")
			}

			// Drop every adjacency entry for the edge on both
			// endpoints; an undirected edge appears in both lists.
			eID := e.Anchor().ID()
			hit := l.NodeAnchor().Detach(arch.DirOut, eID)
			hit = l.NodeAnchor().Detach(arch.DirIn, eID) || hit
			hit = farNode.NodeAnchor().Detach(arch.DirOut, eID) || hit
			hit = farNode.NodeAnchor().Detach(arch.DirIn, eID) || hit
			removed = removed || hit
		}
	}
	return removed, nil
}

// candidateEdgesLocked mirrors candidateEdges for callers already holding
// the Memory write lock.
func candidateEdgesLocked(ctx context.Context, mem *Memory, node arch.NodeArchitype, dir arch.Dir) ([]arch.EdgeArchitype, error) {
	var ids []uuid.UUID
	switch dir {
	case arch.DirOut, arch.DirIn:
		ids = node.NodeAnchor().Edges(dir)
	case arch.DirAny:
		ids = append(node.NodeAnchor().Edges(arch.DirOut), node.NodeAnchor().Edges(arch.DirIn)...)
	default:
		return nil, NewConsistencyError("disconnect", node.Anchor().ID(), "unknown direction")
	}

	edges := make([]arch.EdgeArchitype, 0, len(ids))
	for _, id := range ids {
		a := mem.getLocked(ctx, id)
		if a == nil {
			return nil, NewConsistencyError("disconnect", id, "adjacency references a missing edge")
		}
		e, ok := a.(arch.EdgeArchitype)
		if !ok {
			return nil, NewConsistencyError("disconnect", id, "adjacency references a non-edge anchor")
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// EdgeFactory produces edge architypes for Connect with fixed directedness
// and optional positional field pre-assignment. Built by BuildEdge.
type EdgeFactory struct {
	undirected  bool
	spec        *TypeSpec
	fieldNames  []string
	fieldValues []any
}

// BuildEdge returns a factory producing edges of spec (nil: the built-in
// GenericEdge) with fields pre-assigned positionally from fieldNames and
// fieldValues. Field names follow the encoding/json names of the edge
// architype's business fields. Directedness is fixed at build time.
func BuildEdge(undirected bool, spec *TypeSpec, fieldNames []string, fieldValues []any) *EdgeFactory {
	return &EdgeFactory{
		undirected:  undirected,
		spec:        spec,
		fieldNames:  fieldNames,
		fieldValues: fieldValues,
	}
}

// Undirected reports the factory's fixed directedness.
func (f *EdgeFactory) Undirected() bool { return f.undirected }

// instantiate produces one bound edge architype with fields assigned.
// The edge is not yet attached or registered; Connect does that.
func (f *EdgeFactory) instantiate(reg *Registry) (arch.EdgeArchitype, error) {
	spec := f.spec
	if spec == nil {
		spec = reg.GenericEdge()
	}
	if spec.kind != arch.KindEdge {
		return nil, &RuntimeError{Code: ErrCodeEdgeBuild, Op: "build_edge", Message: "spec " + spec.name + " is not an edge type"}
	}
	if len(f.fieldNames) != len(f.fieldValues) {
		return nil, &RuntimeError{Code: ErrCodeEdgeBuild, Op: "build_edge", Message: "field name and value counts differ"}
	}

	a := spec.factory()
	arch.Bind(a, spec.name, arch.NewID())
	e, ok := a.(arch.EdgeArchitype)
	if !ok {
		return nil, &RuntimeError{Code: ErrCodeEdgeBuild, Op: "build_edge", Message: "factory for " + spec.name + " did not produce an edge architype"}
	}

	if len(f.fieldNames) > 0 {
		assign := make(map[string]any, len(f.fieldNames))
		for i, name := range f.fieldNames {
			assign[name] = f.fieldValues[i]
		}
		raw, err := json.Marshal(assign)
		if err != nil {
			return nil, &RuntimeError{Code: ErrCodeEdgeBuild, Op: "build_edge", Message: "encode field assignment: " + err.Error()}
		}
		if err := json.Unmarshal(raw, e); err != nil {
			return nil, &RuntimeError{Code: ErrCodeEdgeBuild, Op: "build_edge", Message: "assign fields: " + err.Error()}
		}
	}
	return e, nil
}
