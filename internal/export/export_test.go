package export_test

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plexus/internal/arch"
	"github.com/roach88/plexus/internal/export"
	"github.com/roach88/plexus/internal/runtime"
	"github.com/roach88/plexus/internal/testutil"
)

// place is a labeled test node.
type place struct {
	arch.NodeBase
	Label string `json:"label"`
}

func (p *place) GraphLabel() string { return p.Label }

func buildPlace(t *testing.T, x *runtime.Context, spec *runtime.TypeSpec, label string) *place {
	t.Helper()
	a, err := x.Build(spec)
	require.NoError(t, err)
	p := a.(*place)
	p.Label = label
	return p
}

// routeMap builds hub -> a, hub -- b (undirected), a -> b and returns the
// hub as the render start.
func routeMap(t *testing.T) (*runtime.Context, *place) {
	t.Helper()
	reg := runtime.NewRegistry()
	spec := reg.MakeNode("Place", func() arch.Architype { return &place{} }, nil, nil)
	x := testutil.NewContext(t, reg)

	hub := buildPlace(t, x, spec, "hub")
	a := buildPlace(t, x, spec, "a")
	b := buildPlace(t, x, spec, "b")

	ctx := context.Background()
	_, err := runtime.Connect(ctx, x, []arch.NodeArchitype{hub}, []arch.NodeArchitype{a}, nil, false)
	require.NoError(t, err)
	_, err = runtime.Connect(ctx, x, []arch.NodeArchitype{hub}, []arch.NodeArchitype{b}, runtime.BuildEdge(true, nil, nil, nil), false)
	require.NoError(t, err)
	_, err = runtime.Connect(ctx, x, []arch.NodeArchitype{a}, []arch.NodeArchitype{b}, nil, false)
	require.NoError(t, err)
	return x, hub
}

func TestDOT_Golden(t *testing.T) {
	x, hub := routeMap(t)

	out, err := export.DOT(context.Background(), x, hub)
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "route_map", []byte(out))
}

func TestDOT_Deterministic(t *testing.T) {
	x, hub := routeMap(t)

	first, err := export.DOT(context.Background(), x, hub)
	require.NoError(t, err)
	second, err := export.DOT(context.Background(), x, hub)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDOT_LabelFallsBackToTypeName(t *testing.T) {
	types := testutil.NewTypes(nil, nil)
	x := testutil.NewContext(t, types.Registry)

	// City does not implement Labeler, so the type name is used.
	a := testutil.BuildCity(t, x, types.City, "a")

	out, err := export.DOT(context.Background(), x, a)
	require.NoError(t, err)
	assert.Equal(t, "digraph {\n  n0 [label=\"City\"];\n}\n", out)
}

func TestDOT_UnreachableNodesExcluded(t *testing.T) {
	reg := runtime.NewRegistry()
	spec := reg.MakeNode("Place", func() arch.Architype { return &place{} }, nil, nil)
	x := testutil.NewContext(t, reg)

	hub := buildPlace(t, x, spec, "hub")
	buildPlace(t, x, spec, "island")

	out, err := export.DOT(context.Background(), x, hub)
	require.NoError(t, err)
	assert.NotContains(t, out, "island")
}
