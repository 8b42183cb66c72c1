// Package testutil provides shared architype types and context helpers
// for runtime, export, and CLI tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/roach88/plexus/internal/arch"
	"github.com/roach88/plexus/internal/runtime"
	"github.com/roach88/plexus/internal/store"
)

// City is a plain test node.
type City struct {
	arch.NodeBase
	Name string `json:"name"`
}

// Road is a test edge with a weight field, for BuildEdge assignment tests.
type Road struct {
	arch.EdgeBase
	Miles int `json:"miles"`
}

// Courier is a test walker. Abilities are supplied per test at
// registration, so each test's registry is isolated.
type Courier struct {
	arch.WalkerBase
	Hops int `json:"hops"`
}

// Types bundles the specs a test registry registers.
type Types struct {
	Registry *runtime.Registry
	City     *runtime.TypeSpec
	Road     *runtime.TypeSpec
	Courier  *runtime.TypeSpec
}

// NewTypes builds an isolated registry with the standard test architypes.
// The courier's ability lists are given by the caller; city and road carry
// none.
func NewTypes(courierEntry, courierExit []runtime.Ability) *Types {
	reg := runtime.NewRegistry()
	t := &Types{Registry: reg}
	t.City = reg.MakeNode("City", func() arch.Architype { return &City{} }, nil, nil)
	t.Road = reg.MakeEdge("Road", func() arch.Architype { return &Road{} }, nil, nil)
	t.Courier = reg.MakeWalker("Courier", func() arch.Architype { return &Courier{} }, courierEntry, courierExit)
	return t
}

// NewContext creates and initializes an ephemeral execution context over
// reg, failing the test on error.
func NewContext(t *testing.T, reg *runtime.Registry) *runtime.Context {
	t.Helper()
	x := runtime.NewContext(reg)
	if err := x.Init(context.Background(), ""); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	return x
}

// SQLiteOpener returns a shelf opener storing session databases under a
// per-test temp directory.
func SQLiteOpener(t *testing.T) runtime.ShelfOpener {
	t.Helper()
	dir := t.TempDir()
	return func(session string) (runtime.Shelf, error) {
		return store.Open(store.SessionPath(dir, session))
	}
}

// BuildCity constructs and registers a named City in x.
func BuildCity(t *testing.T, x *runtime.Context, spec *runtime.TypeSpec, name string) *City {
	t.Helper()
	a, err := x.Build(spec)
	if err != nil {
		t.Fatalf("Build(City) failed: %v", err)
	}
	c := a.(*City)
	c.Name = name
	return c
}

// StepRecorder accumulates visited location names across a traversal.
// Safe for concurrent use so multi-walker tests can share one recorder.
type StepRecorder struct {
	mu    sync.Mutex
	steps []string
}

// Record appends one visited name.
func (r *StepRecorder) Record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, name)
}

// Steps returns a copy of the recorded names in visit order.
func (r *StepRecorder) Steps() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.steps))
	copy(out, r.steps)
	return out
}
