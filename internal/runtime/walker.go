package runtime

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/plexus/internal/arch"
)

// Traversal is the handle abilities receive while a walker runs. It
// carries the walker, its current location, and the execution context, and
// exposes the traversal controls: Visit, Ignore, Disengage, Report.
//
// A Traversal belongs to exactly one Spawn call and is driven sequentially
// by that call's goroutine; its methods are not safe for use from other
// goroutines.
type Traversal struct {
	ctx     context.Context
	x       *Context
	mem     *Memory
	walker  arch.WalkerArchitype
	anchor  *arch.WalkerAnchor
	current arch.Architype
}

// Spawn runs a walker's traversal to completion.
//
// Exactly one operand must be a walker architype; the other is the start
// location (a node, or an edge, which starts at its target). Operand order
// is immaterial.
//
// The step loop dequeues pending locations and runs the applicable
// on-entry abilities: the walker's abilities applicable to the location's
// type, then the location's abilities applicable to the walker's type,
// each in declaration order. When the queue is exhausted or the walker has
// disengaged, the applicable on-exit abilities run against the last
// location and the walker transitions to done.
//
// An ability error is not intercepted: it propagates out and aborts the
// remainder of the queue. Memory state committed by prior steps stays.
// ctx is checked between steps only; cancellation is cooperative.
//
// Returns the walker, which carries its accumulated report.
func Spawn(ctx context.Context, x *Context, op1, op2 arch.Architype) (arch.WalkerArchitype, error) {
	mem, err := x.memory("spawn")
	if err != nil {
		return nil, err
	}

	walker, start, err := classifyOperands(op1, op2)
	if err != nil {
		return nil, err
	}

	startID, err := startLocation(ctx, mem, start)
	if err != nil {
		return walker, err
	}

	wa := walker.WalkerAnchor()
	if wa.State() == arch.WalkerRunning {
		return walker, newLifecycleError("spawn", "walker is already running")
	}
	wa.ResetRun()
	wa.SetState(arch.WalkerRunning)
	mem.register(walker)

	t := &Traversal{ctx: ctx, x: x, mem: mem, walker: walker, anchor: wa}
	wa.Enqueue(startID)

	slog.Debug("walker spawned", "walker", walker.TypeName(), "start", startID)

	err = t.run()
	wa.SetState(arch.WalkerDone)
	if err != nil {
		slog.Debug("walker aborted", "walker", walker.TypeName(), "error", err)
		return walker, err
	}
	slog.Debug("walker done", "walker", walker.TypeName(), "reports", len(wa.Reports()))
	return walker, nil
}

// run drives the step loop and the final exit phase.
func (t *Traversal) run() error {
	for !t.anchor.Disengaged() {
		if err := t.ctx.Err(); err != nil {
			return err
		}

		id, ok := t.anchor.Dequeue()
		if !ok {
			break
		}
		if t.anchor.Ignored(id) {
			continue
		}

		loc := t.mem.GetObj(t.ctx, id)
		if loc == nil {
			// A pending location removed from Memory mid-run is missing
			// data, not a fatal condition.
			slog.Warn("pending location vanished, skipping", "anchor", id)
			continue
		}

		t.current = loc
		slog.Debug("walker step", "walker", t.walker.TypeName(), "location", loc.TypeName(), "anchor", id)
		if err := t.runAbilities(loc, true); err != nil {
			return err
		}
	}

	if t.current != nil {
		if err := t.runAbilities(t.current, false); err != nil {
			return err
		}
	}
	return nil
}

// runAbilities executes one step's ability set in the fixed order: the
// walker's applicable abilities, then the location's. Disengage does not
// cut the step short; the current step's abilities always finish.
func (t *Traversal) runAbilities(loc arch.Architype, entry bool) error {
	reg := t.x.reg
	wspec := reg.Lookup(t.walker.TypeName())
	lspec := reg.Lookup(loc.TypeName())

	lookup := reg.entryAbilities
	if !entry {
		lookup = reg.exitAbilities
	}

	for _, ab := range lookup(wspec, lspec) {
		if err := ab.Func(t, t.walker, loc); err != nil {
			return err
		}
	}
	for _, ab := range lookup(lspec, wspec) {
		if err := ab.Func(t, loc, t.walker); err != nil {
			return err
		}
	}
	return nil
}

// Context returns the cancellation context of the Spawn call.
func (t *Traversal) Context() context.Context { return t.ctx }

// Exec returns the execution context, for graph operations inside
// abilities.
func (t *Traversal) Exec() *Context { return t.x }

// Walker returns the walker being traversed.
func (t *Traversal) Walker() arch.WalkerArchitype { return t.walker }

// Here returns the walker's current location.
func (t *Traversal) Here() arch.Architype { return t.current }

// Visit enqueues locations onto the pending queue. An edge enqueues its
// far endpoint relative to the current location instead of the edge
// itself. Ignored locations are skipped. Returns true if at least one
// location was enqueued; a disengaged walker enqueues nothing.
func (t *Traversal) Visit(locs ...arch.Architype) bool {
	if t.anchor.Disengaged() {
		return false
	}

	enqueued := false
	for _, loc := range locs {
		id, ok := t.locationID(loc)
		if !ok {
			continue
		}
		if t.anchor.Ignored(id) {
			continue
		}
		t.anchor.Enqueue(id)
		enqueued = true
	}
	return enqueued
}

// Ignore removes matching pending locations by identity and marks them so
// later Visit calls skip them. Already-processed locations are unaffected.
// Returns whether anything was removed from the pending queue; a
// disengaged walker ignores nothing.
func (t *Traversal) Ignore(locs ...arch.Architype) bool {
	if t.anchor.Disengaged() {
		return false
	}

	removed := false
	for _, loc := range locs {
		id, ok := t.locationID(loc)
		if !ok {
			continue
		}
		t.anchor.MarkIgnored(id)
		if t.anchor.RemovePending(id) {
			removed = true
		}
	}
	return removed
}

// Disengage terminates the walker's remaining traversal after the current
// step. Idempotent.
func (t *Traversal) Disengage() {
	t.anchor.Disengage()
}

// Report appends v to the walker's report sequence. Reporting never
// affects traversal control.
func (t *Traversal) Report(v any) {
	t.anchor.AppendReport(v)
}

// locationID maps a visitable expression to the anchor identifier that
// belongs on the queue: a node's own identifier, or an edge's far endpoint
// relative to the current location.
func (t *Traversal) locationID(loc arch.Architype) (uuid.UUID, bool) {
	switch l := loc.(type) {
	case arch.NodeArchitype:
		return l.Anchor().ID(), true
	case arch.EdgeArchitype:
		ea := l.EdgeAnchor()
		if !ea.Attached() {
			slog.Warn("visit of unattached edge skipped", "anchor", l.Anchor().ID())
			return uuid.Nil, false
		}
		return ea.FarEndpoint(t.currentID()), true
	default:
		slog.Warn("visit of non-location architype skipped", "anchor", loc.Anchor().ID(), "kind", loc.Kind())
		return uuid.Nil, false
	}
}

func (t *Traversal) currentID() uuid.UUID {
	if t.current == nil {
		return uuid.Nil
	}
	return t.current.Anchor().ID()
}

// classifyOperands finds the walker among the spawn operands.
func classifyOperands(op1, op2 arch.Architype) (arch.WalkerArchitype, arch.Architype, error) {
	w1, ok1 := op1.(arch.WalkerArchitype)
	w2, ok2 := op2.(arch.WalkerArchitype)
	switch {
	case ok1 && ok2:
		return nil, nil, &RuntimeError{Code: ErrCodeBadSpawn, Op: "spawn", Message: "both operands are walkers"}
	case ok1:
		return w1, op2, nil
	case ok2:
		return w2, op1, nil
	default:
		return nil, nil, &RuntimeError{Code: ErrCodeBadSpawn, Op: "spawn", Message: "no walker operand"}
	}
}

// startLocation resolves the non-walker operand to the first queue entry.
// An edge starts the walker at its target.
func startLocation(ctx context.Context, mem *Memory, start arch.Architype) (uuid.UUID, error) {
	var id uuid.UUID
	switch s := start.(type) {
	case arch.NodeArchitype:
		id = s.Anchor().ID()
	case arch.EdgeArchitype:
		ea := s.EdgeAnchor()
		if !ea.Attached() {
			return uuid.Nil, NewConsistencyError("spawn", s.Anchor().ID(), "start edge has no endpoints")
		}
		id = ea.Target()
	default:
		return uuid.Nil, &RuntimeError{Code: ErrCodeBadSpawn, Op: "spawn", Message: "start location must be a node or edge"}
	}

	if mem.GetObj(ctx, id) == nil {
		return uuid.Nil, NewConsistencyError("spawn", id, "start location is not registered")
	}
	return id, nil
}
