// Package export renders a session graph as Graphviz DOT text.
//
// Export is a read-only consumer of the graph model: it enumerates nodes
// and edges through EdgeRef-style traversal and never mutates adjacency or
// Memory. Output is deterministic for a given graph: nodes are numbered in
// breadth-first visit order and edges appear in adjacency (connection)
// order.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/plexus/internal/arch"
	"github.com/roach88/plexus/internal/runtime"
)

// Labeler lets an architype supply its display label. Architypes that do
// not implement it are labeled with their type name.
type Labeler interface {
	GraphLabel() string
}

// DOT renders the subgraph reachable from start, following edges in both
// directions, as a DOT digraph.
func DOT(ctx context.Context, x *runtime.Context, start arch.NodeArchitype) (string, error) {
	var (
		order     []arch.NodeArchitype
		nodeIndex = map[uuid.UUID]int{}
		seenEdges = map[uuid.UUID]struct{}{}
		lines     []string
	)

	visit := func(n arch.NodeArchitype) {
		id := n.Anchor().ID()
		if _, ok := nodeIndex[id]; ok {
			return
		}
		nodeIndex[id] = len(order)
		order = append(order, n)
	}
	visit(start)

	for i := 0; i < len(order); i++ {
		n := order[i]
		edges, err := runtime.EdgeRef(ctx, x, []arch.NodeArchitype{n}, nil, arch.DirAny, nil, true)
		if err != nil {
			return "", fmt.Errorf("enumerate edges: %w", err)
		}

		for _, a := range edges {
			e := a.(arch.EdgeArchitype)
			eID := e.Anchor().ID()

			src := x.GetObj(ctx, e.EdgeAnchor().Source())
			trg := x.GetObj(ctx, e.EdgeAnchor().Target())
			srcNode, okSrc := src.(arch.NodeArchitype)
			trgNode, okTrg := trg.(arch.NodeArchitype)
			if !okSrc || !okTrg {
				return "", fmt.Errorf("enumerate edges: edge %s has unresolvable endpoints", eID)
			}

			visit(srcNode)
			visit(trgNode)

			if _, dup := seenEdges[eID]; dup {
				continue
			}
			seenEdges[eID] = struct{}{}

			attrs := ""
			if e.EdgeAnchor().Undirected() {
				// DOT digraphs have no undirected edge statement; drop
				// the arrowhead instead.
				attrs = " [dir=none]"
			}
			lines = append(lines, fmt.Sprintf("  n%d -> n%d%s;", nodeIndex[srcNode.Anchor().ID()], nodeIndex[trgNode.Anchor().ID()], attrs))
		}
	}

	var b strings.Builder
	b.WriteString("digraph {\n")
	for i, n := range order {
		b.WriteString(fmt.Sprintf("  n%d [label=%q];\n", i, labelOf(n)))
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func labelOf(a arch.Architype) string {
	if l, ok := a.(Labeler); ok && l.GraphLabel() != "" {
		return l.GraphLabel()
	}
	return a.TypeName()
}
