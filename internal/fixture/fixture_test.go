package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plexus/internal/arch"
	"github.com/roach88/plexus/internal/runtime"
)

const validFixture = `
name: routes
roots: [hub]
nodes:
  - id: hub
    label: Hub
  - id: east
  - id: west
edges:
  - from: hub
    to: east
  - from: hub
    to: west
    undirected: true
`

func newFixtureContext(t *testing.T) *runtime.Context {
	t.Helper()
	reg := runtime.NewRegistry()
	Register(reg)
	x := runtime.NewContext(reg)
	require.NoError(t, x.Init(context.Background(), ""))
	return x
}

func TestParse_Valid(t *testing.T) {
	g, err := Parse([]byte(validFixture))
	require.NoError(t, err)

	assert.Equal(t, "routes", g.Name)
	assert.Equal(t, []string{"hub"}, g.Roots)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, "hub", g.Nodes[0].ID)
	assert.Equal(t, "Hub", g.Nodes[0].Label)
	require.Len(t, g.Edges, 2)
	assert.True(t, g.Edges[1].Undirected)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing name", "nodes: [{id: a}]"},
		{"empty name", "name: \"\"\nnodes: [{id: a}]"},
		{"missing nodes", "name: x"},
		{"empty node id", "name: x\nnodes: [{id: \"\"}]"},
		{"ill-typed label", "name: x\nnodes: [{id: a, label: 7}]"},
		{"unknown field", "name: x\nnodes: [{id: a}]\ncolor: red"},
		{"edge missing to", "name: x\nnodes: [{id: a}]\nedges: [{from: a}]"},
		{"ill-typed undirected", "name: x\nnodes: [{id: a, label: b}]\nedges: [{from: a, to: a, undirected: 3}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestParse_NotYAML(t *testing.T) {
	_, err := Parse([]byte("{{nope"))
	assert.Error(t, err)
}

func TestParse_NormalizesToNFC(t *testing.T) {
	// "é" (combining accent) and "é" (precomposed) must name
	// the same node after parsing.
	raw := "name: x\nnodes: [{id: \"café\"}]\nedges: [{from: \"café\", to: \"café\"}]"
	g, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "café", g.Nodes[0].ID)
	assert.Equal(t, g.Nodes[0].ID, g.Edges[0].From)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestMaterialize(t *testing.T) {
	x := newFixtureContext(t)
	ctx := context.Background()

	g, err := Parse([]byte(validFixture))
	require.NoError(t, err)

	nodes, err := Materialize(ctx, x, g)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	hub := nodes["hub"].(*Item)
	assert.Equal(t, "Hub", hub.Label)
	// An omitted label defaults to the fixture id.
	assert.Equal(t, "east", nodes["east"].(*Item).Label)

	out, err := runtime.EdgeRef(ctx, x, []arch.NodeArchitype{nodes["hub"]}, nil, arch.DirOut, nil, false)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Same(t, nodes["east"], out[0])
	assert.Same(t, nodes["west"], out[1])

	// The undirected edge is walkable back from west.
	back, err := runtime.EdgeRef(ctx, x, []arch.NodeArchitype{nodes["west"]}, nil, arch.DirOut, nil, false)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Same(t, nodes["hub"], back[0])

	// Roots hang off the session root.
	fromRoot, err := runtime.EdgeRef(ctx, x, []arch.NodeArchitype{x.Root()}, nil, arch.DirOut, nil, false)
	require.NoError(t, err)
	require.Len(t, fromRoot, 1)
	assert.Same(t, nodes["hub"], fromRoot[0])
}

func TestMaterialize_Errors(t *testing.T) {
	tests := []struct {
		name string
		g    *Graph
	}{
		{"duplicate node id", &Graph{Name: "x", Nodes: []Node{{ID: "a"}, {ID: "a"}}}},
		{"edge from unknown node", &Graph{Name: "x", Nodes: []Node{{ID: "a"}}, Edges: []Edge{{From: "b", To: "a"}}}},
		{"edge to unknown node", &Graph{Name: "x", Nodes: []Node{{ID: "a"}}, Edges: []Edge{{From: "a", To: "b"}}}},
		{"unknown root", &Graph{Name: "x", Nodes: []Node{{ID: "a"}}, Roots: []string{"b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := newFixtureContext(t)
			_, err := Materialize(context.Background(), x, tt.g)
			assert.Error(t, err)
		})
	}
}

func TestMaterialize_ItemNotRegistered(t *testing.T) {
	x := runtime.NewContext(runtime.NewRegistry())
	require.NoError(t, x.Init(context.Background(), ""))

	_, err := Materialize(context.Background(), x, &Graph{Name: "x"})
	assert.Error(t, err)
}
