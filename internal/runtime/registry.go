package runtime

import (
	"fmt"
	"sync"

	"github.com/roach88/plexus/internal/arch"
)

// AbilityFunc is a user-declared entry or exit function. self is the
// instance the ability was declared on; other is the counterpart at the
// traversal step (the location for walker abilities, the walker for
// location abilities). The traversal handle gives abilities access to
// Visit, Ignore, Disengage, Report, and the execution context.
//
// A non-nil error is not intercepted by the engine: it propagates out of
// Spawn and aborts the remainder of that walker's queue.
type AbilityFunc func(t *Traversal, self, other arch.Architype) error

// Ability pairs a function with the other-party type it activates for.
// Abilities are attached to a type at registration time and are immutable
// thereafter.
type Ability struct {
	Name string

	// Trigger is the applicable other-party type. A nil trigger activates
	// for every pairing.
	Trigger *TypeSpec

	Func AbilityFunc
}

// TypeSpec is the runtime definition of one architype type: its name,
// kind, zero-value factory, and declared ability lists.
//
// INVARIANT: entry and exit slice order NEVER changes after registration.
// Declaration order is the dispatch tie-break.
type TypeSpec struct {
	name    string
	kind    arch.Kind
	factory func() arch.Architype
	entry   []Ability
	exit    []Ability
}

// Name returns the registered type name.
func (s *TypeSpec) Name() string { return s.name }

// Kind returns the architype kind this spec registers.
func (s *TypeSpec) Kind() arch.Kind { return s.kind }

// RootTypeName and GenericEdgeTypeName are the built-in types every
// registry carries: the session root node and the default untyped edge.
const (
	RootTypeName        = "Root"
	GenericEdgeTypeName = "GenericEdge"
)

// RootNode is the architype of a session's distinguished entry node.
type RootNode struct {
	arch.NodeBase
}

// GenericEdge is the default untyped edge architype used by Connect when
// no edge factory is supplied.
type GenericEdge struct {
	arch.EdgeBase
}

// Registry holds architype type definitions and the precomputed ability
// dispatch tables. Registration happens once, at program definition time;
// lookups at traversal steps are map reads, never reflection.
//
// Thread-safety: registration and lookup are guarded by one RWMutex. The
// expected pattern is register-then-run, so lookups take the read path.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*TypeSpec

	// Memoized merged ability lists per (declaring, other) pairing.
	// See dispatch.go.
	entryTab map[dispatchKey][]Ability
	exitTab  map[dispatchKey][]Ability

	root        *TypeSpec
	genericEdge *TypeSpec
}

// NewRegistry creates a registry pre-populated with the built-in Root and
// GenericEdge types.
func NewRegistry() *Registry {
	r := &Registry{
		types:    make(map[string]*TypeSpec),
		entryTab: make(map[dispatchKey][]Ability),
		exitTab:  make(map[dispatchKey][]Ability),
	}
	r.root = r.MakeNode(RootTypeName, func() arch.Architype { return &RootNode{} }, nil, nil)
	r.genericEdge = r.MakeEdge(GenericEdgeTypeName, func() arch.Architype { return &GenericEdge{} }, nil, nil)
	return r
}

// MakeNode registers a node architype type.
func (r *Registry) MakeNode(name string, factory func() arch.Architype, entry, exit []Ability) *TypeSpec {
	return r.makeArchitype(name, arch.KindNode, factory, entry, exit)
}

// MakeEdge registers an edge architype type.
func (r *Registry) MakeEdge(name string, factory func() arch.Architype, entry, exit []Ability) *TypeSpec {
	return r.makeArchitype(name, arch.KindEdge, factory, entry, exit)
}

// MakeWalker registers a walker architype type.
func (r *Registry) MakeWalker(name string, factory func() arch.Architype, entry, exit []Ability) *TypeSpec {
	return r.makeArchitype(name, arch.KindWalker, factory, entry, exit)
}

// MakeObject registers a plain-object architype type.
func (r *Registry) MakeObject(name string, factory func() arch.Architype, entry, exit []Ability) *TypeSpec {
	return r.makeArchitype(name, arch.KindObject, factory, entry, exit)
}

// makeArchitype is the shared registration path behind MakeNode, MakeEdge,
// MakeWalker, and MakeObject. Ability slices are copied so later caller
// mutation cannot break the declaration-order invariant.
//
// Registering the same name twice panics: type definitions are a
// program-construction concern, and a duplicate is a programming error,
// not a runtime condition.
func (r *Registry) makeArchitype(name string, kind arch.Kind, factory func() arch.Architype, entry, exit []Ability) *TypeSpec {
	if factory == nil {
		panic(fmt.Sprintf("runtime: architype %q registered with nil factory", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.types[name]; dup {
		panic(fmt.Sprintf("runtime: architype %q registered twice", name))
	}

	spec := &TypeSpec{
		name:    name,
		kind:    kind,
		factory: factory,
		entry:   append([]Ability(nil), entry...),
		exit:    append([]Ability(nil), exit...),
	}
	r.types[name] = spec
	return spec
}

// Lookup returns the spec registered under name, or nil.
func (r *Registry) Lookup(name string) *TypeSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[name]
}

// Root returns the built-in root node type.
func (r *Registry) Root() *TypeSpec { return r.root }

// GenericEdge returns the built-in default edge type.
func (r *Registry) GenericEdge() *TypeSpec { return r.genericEdge }
