package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plexus/internal/arch"
	"github.com/roach88/plexus/internal/runtime"
	"github.com/roach88/plexus/internal/testutil"
)

func TestRegistry_BuiltinsPreRegistered(t *testing.T) {
	reg := runtime.NewRegistry()

	root := reg.Lookup(runtime.RootTypeName)
	require.NotNil(t, root)
	assert.Equal(t, arch.KindNode, root.Kind())
	assert.Same(t, root, reg.Root())

	ge := reg.Lookup(runtime.GenericEdgeTypeName)
	require.NotNil(t, ge)
	assert.Equal(t, arch.KindEdge, ge.Kind())
	assert.Same(t, ge, reg.GenericEdge())
}

func TestRegistry_LookupUnknown(t *testing.T) {
	reg := runtime.NewRegistry()
	assert.Nil(t, reg.Lookup("Nope"))
}

func TestRegistry_DuplicateNamePanics(t *testing.T) {
	reg := runtime.NewRegistry()
	reg.MakeNode("City", func() arch.Architype { return &testutil.City{} }, nil, nil)

	assert.Panics(t, func() {
		reg.MakeWalker("City", func() arch.Architype { return &testutil.Courier{} }, nil, nil)
	})
}

func TestRegistry_NilFactoryPanics(t *testing.T) {
	reg := runtime.NewRegistry()
	assert.Panics(t, func() {
		reg.MakeNode("City", nil, nil, nil)
	})
}

func TestDispatch_WildcardAndExactInDeclarationOrder(t *testing.T) {
	rec := &testutil.StepRecorder{}

	reg := runtime.NewRegistry()
	citySpec := reg.MakeNode("City", func() arch.Architype { return &testutil.City{} }, nil, nil)
	record := func(name string) runtime.AbilityFunc {
		return func(t *runtime.Traversal, self, other arch.Architype) error {
			rec.Record(name)
			return nil
		}
	}
	courierSpec := reg.MakeWalker("Courier", func() arch.Architype { return &testutil.Courier{} }, []runtime.Ability{
		{Name: "exact-first", Trigger: citySpec, Func: record("exact-first")},
		{Name: "wildcard", Func: record("wildcard")},
		{Name: "exact-second", Trigger: citySpec, Func: record("exact-second")},
	}, nil)

	x := testutil.NewContext(t, reg)
	a := testutil.BuildCity(t, x, citySpec, "a")

	_, err := spawnCourier(t, x, courierSpec, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"exact-first", "wildcard", "exact-second"}, rec.Steps())
}

func TestDispatch_NonMatchingTriggerSkipped(t *testing.T) {
	rec := &testutil.StepRecorder{}

	reg := runtime.NewRegistry()
	citySpec := reg.MakeNode("City", func() arch.Architype { return &testutil.City{} }, nil, nil)
	roadSpec := reg.MakeEdge("Road", func() arch.Architype { return &testutil.Road{} }, nil, nil)
	courierSpec := reg.MakeWalker("Courier", func() arch.Architype { return &testutil.Courier{} }, []runtime.Ability{
		{Name: "roads-only", Trigger: roadSpec, Func: func(t *runtime.Traversal, self, other arch.Architype) error {
			rec.Record("roads-only")
			return nil
		}},
	}, nil)

	x := testutil.NewContext(t, reg)
	a := testutil.BuildCity(t, x, citySpec, "a")

	// No applicable ability for the pairing is not an error; the walker
	// simply has nothing to run at this step.
	_, err := spawnCourier(t, x, courierSpec, a)
	require.NoError(t, err)
	assert.Empty(t, rec.Steps())
}

func TestRegistry_MakeObject(t *testing.T) {
	type manifest struct {
		arch.ObjectBase
		Weight int `json:"weight"`
	}

	reg := runtime.NewRegistry()
	citySpec := reg.MakeNode("City", func() arch.Architype { return &testutil.City{} }, nil, nil)
	objSpec := reg.MakeObject("Manifest", func() arch.Architype { return &manifest{} }, nil, nil)

	x := testutil.NewContext(t, reg)
	a, err := x.Build(objSpec)
	require.NoError(t, err)
	assert.Equal(t, arch.KindObject, a.Kind())
	assert.Same(t, a, x.GetObj(context.Background(), a.Anchor().ID()))

	// A plain object is not a location: spawning onto it fails, and a
	// traversal silently skips it when visited.
	courierSpec := reg.MakeWalker("Courier", func() arch.Architype { return &testutil.Courier{} }, []runtime.Ability{
		{Name: "visit-object", Func: func(tr *runtime.Traversal, self, other arch.Architype) error {
			assert.False(t, tr.Visit(a))
			return nil
		}},
	}, nil)
	w, err := x.Build(courierSpec)
	require.NoError(t, err)

	_, err = runtime.Spawn(context.Background(), x, w, a)
	require.Error(t, err)

	start := testutil.BuildCity(t, x, citySpec, "start")
	_, err = runtime.Spawn(context.Background(), x, w, start)
	require.NoError(t, err)
}

func TestDispatch_RepeatedPairingStable(t *testing.T) {
	rec := &testutil.StepRecorder{}

	reg := runtime.NewRegistry()
	citySpec := reg.MakeNode("City", func() arch.Architype { return &testutil.City{} }, nil, nil)
	courierSpec := reg.MakeWalker("Courier", func() arch.Architype { return &testutil.Courier{} }, []runtime.Ability{
		{Name: "note", Trigger: citySpec, Func: func(t *runtime.Traversal, self, other arch.Architype) error {
			rec.Record(other.(*testutil.City).Name)
			return nil
		}},
	}, nil)

	x := testutil.NewContext(t, reg)
	a := testutil.BuildCity(t, x, citySpec, "a")

	// The memoized table serves the same ordered list on every lookup.
	for i := 0; i < 3; i++ {
		_, err := spawnCourier(t, x, courierSpec, a)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "a", "a"}, rec.Steps())
}
