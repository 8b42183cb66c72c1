// Package fixture loads declarative graph fixtures: YAML files naming
// nodes and edges, validated against an embedded CUE schema and
// materialized into a live execution context through Connect.
//
// Fixtures exist so the CLI and tests can exercise the runtime without
// the excluded language front end: they define data, never abilities.
package fixture

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/plexus/internal/arch"
	"github.com/roach88/plexus/internal/runtime"
)

//go:embed schema.cue
var schemaCUE string

// Graph is a parsed fixture.
type Graph struct {
	// Name identifies the fixture.
	Name string `yaml:"name"`

	// Roots lists node ids to connect from the session root, in order.
	Roots []string `yaml:"roots,omitempty"`

	// Nodes declares the fixture's nodes in materialization order.
	Nodes []Node `yaml:"nodes"`

	// Edges declares connections between declared node ids.
	Edges []Edge `yaml:"edges,omitempty"`
}

// Node declares one fixture node.
type Node struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label,omitempty"`
}

// Edge declares one fixture connection.
type Edge struct {
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	Undirected bool   `yaml:"undirected,omitempty"`
}

// Item is the node architype fixtures materialize. The label doubles as
// the DOT display label.
type Item struct {
	arch.NodeBase
	Label string `json:"label"`
}

// GraphLabel implements the export labeler.
func (i *Item) GraphLabel() string { return i.Label }

// ItemTypeName is the registered type name of fixture nodes.
const ItemTypeName = "Item"

// Register adds the fixture node type to reg and returns its spec.
// Fixture edges use the built-in GenericEdge.
func Register(reg *runtime.Registry) *runtime.TypeSpec {
	return reg.MakeNode(ItemTypeName, func() arch.Architype { return &Item{} }, nil, nil)
}

// Load reads, validates, and parses a fixture file. Identifiers and
// labels are NFC-normalized so visually identical ids cannot name
// distinct nodes.
func Load(path string) (*Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(raw)
}

// Parse validates and parses fixture bytes.
func Parse(raw []byte) (*Graph, error) {
	// Decode generically first: schema validation reports unknown or
	// ill-typed fields the struct decode would silently drop.
	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := validate(generic); err != nil {
		return nil, err
	}

	var g Graph
	if err := yaml.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	g.Name = norm.NFC.String(g.Name)
	for i := range g.Roots {
		g.Roots[i] = norm.NFC.String(g.Roots[i])
	}
	for i := range g.Nodes {
		g.Nodes[i].ID = norm.NFC.String(g.Nodes[i].ID)
		g.Nodes[i].Label = norm.NFC.String(g.Nodes[i].Label)
	}
	for i := range g.Edges {
		g.Edges[i].From = norm.NFC.String(g.Edges[i].From)
		g.Edges[i].To = norm.NFC.String(g.Edges[i].To)
	}
	return &g, nil
}

// validate unifies the decoded fixture with the embedded CUE schema.
func validate(doc map[string]any) error {
	cctx := cuecontext.New()

	schema := cctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile fixture schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Graph"))
	if !def.Exists() {
		return fmt.Errorf("compile fixture schema: #Graph definition missing")
	}

	val := cctx.Encode(doc)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode fixture for validation: %w", err)
	}

	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid fixture: %w", err)
	}
	return nil
}

// Materialize builds the fixture graph inside x. Nodes are constructed in
// declaration order, edges connected in declaration order, and root
// attachments made last. Returns the materialized nodes keyed by fixture
// id.
func Materialize(ctx context.Context, x *runtime.Context, g *Graph) (map[string]arch.NodeArchitype, error) {
	spec := x.Registry().Lookup(ItemTypeName)
	if spec == nil {
		return nil, fmt.Errorf("materialize fixture: %s type not registered", ItemTypeName)
	}

	nodes := make(map[string]arch.NodeArchitype, len(g.Nodes))
	for _, nd := range g.Nodes {
		if _, dup := nodes[nd.ID]; dup {
			return nil, fmt.Errorf("materialize fixture: duplicate node id %q", nd.ID)
		}
		a, err := x.Build(spec)
		if err != nil {
			return nil, fmt.Errorf("materialize fixture: %w", err)
		}
		item := a.(*Item)
		item.Label = nd.Label
		if item.Label == "" {
			item.Label = nd.ID
		}
		nodes[nd.ID] = item
	}

	for _, e := range g.Edges {
		from, ok := nodes[e.From]
		if !ok {
			return nil, fmt.Errorf("materialize fixture: edge references unknown node %q", e.From)
		}
		to, ok := nodes[e.To]
		if !ok {
			return nil, fmt.Errorf("materialize fixture: edge references unknown node %q", e.To)
		}
		factory := runtime.BuildEdge(e.Undirected, nil, nil, nil)
		if _, err := runtime.Connect(ctx, x, []arch.NodeArchitype{from}, []arch.NodeArchitype{to}, factory, false); err != nil {
			return nil, fmt.Errorf("materialize fixture: %w", err)
		}
	}

	for _, id := range g.Roots {
		nd, ok := nodes[id]
		if !ok {
			return nil, fmt.Errorf("materialize fixture: root references unknown node %q", id)
		}
		if _, err := runtime.Connect(ctx, x, []arch.NodeArchitype{x.Root()}, []arch.NodeArchitype{nd}, nil, false); err != nil {
			return nil, fmt.Errorf("materialize fixture: %w", err)
		}
	}

	return nodes, nil
}
