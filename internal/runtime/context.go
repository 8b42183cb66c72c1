package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/plexus/internal/arch"
)

// Context is the execution context: one Memory and one Root bound to a
// session identifier. The lifecycle is explicit (Init, use, Reset), never
// implicit. Contexts are passed by reference into every graph and
// traversal operation; there is no process-wide singleton, and each test
// constructs its own.
type Context struct {
	mu     sync.Mutex
	reg    *Registry
	opener ShelfOpener

	mem     *Memory
	root    arch.NodeArchitype
	session string
	inited  bool
}

// Option configures a Context at construction.
type Option func(*Context)

// WithShelfOpener injects the durable-store opener. This is the single
// injection point for the storage backend; without it every session is
// ephemeral-only.
func WithShelfOpener(opener ShelfOpener) Option {
	return func(x *Context) { x.opener = opener }
}

// NewContext creates an execution context over the given type registry.
// The context is unusable until Init.
func NewContext(reg *Registry, opts ...Option) *Context {
	x := &Context{reg: reg}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Init binds a Memory store scoped to session and ensures the session's
// Root exists, creating and durably saving one on first use. An empty
// session key means an ephemeral-only store.
func (x *Context) Init(ctx context.Context, session string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.inited {
		return newLifecycleError("init", "context already initialized")
	}

	var shelf Shelf
	if session != "" && x.opener != nil {
		var err error
		shelf, err = x.opener(session)
		if err != nil {
			return fmt.Errorf("init memory for session %q: %w", session, err)
		}
	}

	x.mem = newMemory(x.reg, session, shelf)
	x.session = session

	root, err := x.ensureRoot(ctx)
	if err != nil {
		x.mem = nil
		return err
	}
	x.root = root
	x.inited = true

	slog.Debug("context initialized", "session", session, "durable", shelf != nil)
	return nil
}

// ensureRoot hydrates the root anchor (identifier uuid.Nil) or creates a
// fresh durable one on first use.
func (x *Context) ensureRoot(ctx context.Context) (arch.NodeArchitype, error) {
	if a := x.mem.GetObj(ctx, arch.RootID); a != nil {
		root, ok := a.(arch.NodeArchitype)
		if !ok {
			return nil, NewConsistencyError("init", arch.RootID, "root identifier bound to a non-node architype")
		}
		return root, nil
	}

	root := x.reg.Root().factory().(arch.NodeArchitype)
	arch.Bind(root, RootTypeName, arch.RootID)
	if err := x.mem.SaveObj(ctx, root, true); err != nil {
		return nil, fmt.Errorf("save root: %w", err)
	}
	return root, nil
}

// Initialized reports whether the context is between Init and Reset.
func (x *Context) Initialized() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.inited
}

// Session returns the session key given to Init.
func (x *Context) Session() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.session
}

// Registry returns the type registry this context dispatches against.
func (x *Context) Registry() *Registry { return x.reg }

// Root returns the session's singleton root architype.
func (x *Context) Root() arch.NodeArchitype {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.root
}

// Memory returns the bound Memory store, or nil before Init.
func (x *Context) Memory() *Memory {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.mem
}

// Build constructs a fresh instance of spec with a new anchor and an
// ephemeral Memory registration. Callers type-assert the result to their
// concrete architype and fill in business fields.
func (x *Context) Build(spec *TypeSpec) (arch.Architype, error) {
	mem, err := x.memory("build")
	if err != nil {
		return nil, err
	}

	a := spec.factory()
	arch.Bind(a, spec.name, arch.NewID())
	mem.register(a)
	return a, nil
}

// GetObj resolves id through Memory. Nil means unknown; see Memory.GetObj.
func (x *Context) GetObj(ctx context.Context, id uuid.UUID) arch.Architype {
	mem, err := x.memory("get_obj")
	if err != nil {
		return nil
	}
	return mem.GetObj(ctx, id)
}

// SaveObj registers or updates item; see Memory.SaveObj.
func (x *Context) SaveObj(ctx context.Context, item arch.Architype, persistent bool) error {
	mem, err := x.memory("save_obj")
	if err != nil {
		return err
	}
	return mem.SaveObj(ctx, item, persistent)
}

// Reset discards all non-durable entries, flushes and releases the
// backing store, and returns the context to pre-init state. A subsequent
// Init starts a clean or re-hydrated session.
func (x *Context) Reset(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.inited {
		return newLifecycleError("reset", "context not initialized")
	}

	err := x.mem.reset(ctx)
	x.mem = nil
	x.root = nil
	x.session = ""
	x.inited = false

	slog.Debug("context reset")
	return err
}

// memory returns the bound Memory or a lifecycle error naming op.
func (x *Context) memory(op string) (*Memory, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.inited {
		return nil, newLifecycleError(op, "context not initialized")
	}
	return x.mem, nil
}
