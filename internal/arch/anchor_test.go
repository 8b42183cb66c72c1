package arch

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	NodeBase
	Name string `json:"name"`
}

type testEdge struct {
	EdgeBase
}

type testWalker struct {
	WalkerBase
}

func TestBind_SetsIdentity(t *testing.T) {
	n := &testNode{}
	id := NewID()
	Bind(n, "TestNode", id)

	assert.Equal(t, id, n.Anchor().ID())
	assert.Equal(t, "TestNode", n.TypeName())
	assert.Equal(t, KindNode, n.Kind())

	// The anchor back-reference resolves to the architype itself.
	require.NotNil(t, n.Anchor().Architype())
	assert.Same(t, Architype(n), n.Anchor().Architype())
}

func TestNodeAnchor_AttachOrderAndDuplicates(t *testing.T) {
	n := &testNode{}
	Bind(n, "TestNode", NewID())

	e1, e2 := NewID(), NewID()
	n.NodeAnchor().Attach(DirOut, e1)
	n.NodeAnchor().Attach(DirOut, e2)
	n.NodeAnchor().Attach(DirOut, e1) // duplicates permitted

	assert.Equal(t, []uuid.UUID{e1, e2, e1}, n.NodeAnchor().Edges(DirOut))
	assert.Empty(t, n.NodeAnchor().Edges(DirIn))
}

func TestNodeAnchor_DetachRemovesAllOccurrences(t *testing.T) {
	n := &testNode{}
	Bind(n, "TestNode", NewID())

	e1, e2 := NewID(), NewID()
	n.NodeAnchor().Attach(DirOut, e1)
	n.NodeAnchor().Attach(DirOut, e2)
	n.NodeAnchor().Attach(DirOut, e1)

	require.True(t, n.NodeAnchor().Detach(DirOut, e1))
	assert.Equal(t, []uuid.UUID{e2}, n.NodeAnchor().Edges(DirOut))

	// Detaching again is a no-op.
	assert.False(t, n.NodeAnchor().Detach(DirOut, e1))
}

func TestNodeAnchor_EdgesReturnsCopy(t *testing.T) {
	n := &testNode{}
	Bind(n, "TestNode", NewID())
	n.NodeAnchor().Attach(DirOut, NewID())

	got := n.NodeAnchor().Edges(DirOut)
	got[0] = uuid.Nil

	assert.NotEqual(t, uuid.Nil, n.NodeAnchor().Edges(DirOut)[0])
}

func TestEdgeAnchor_FarEndpoint(t *testing.T) {
	e := &testEdge{}
	Bind(e, "TestEdge", NewID())

	src, trg := NewID(), NewID()
	e.EdgeAnchor().SetEndpoints(src, trg, false)

	assert.Equal(t, trg, e.EdgeAnchor().FarEndpoint(src))
	assert.Equal(t, src, e.EdgeAnchor().FarEndpoint(trg))

	// A walker standing elsewhere follows the edge forward.
	assert.Equal(t, trg, e.EdgeAnchor().FarEndpoint(NewID()))
}

func TestEdgeAnchor_SelfLoop(t *testing.T) {
	e := &testEdge{}
	Bind(e, "TestEdge", NewID())

	n := NewID()
	e.EdgeAnchor().SetEndpoints(n, n, false)

	assert.Equal(t, n, e.EdgeAnchor().FarEndpoint(n))
}

func TestWalkerAnchor_QueueFIFO(t *testing.T) {
	w := &testWalker{}
	Bind(w, "TestWalker", NewID())
	wa := w.WalkerAnchor()

	a, b := NewID(), NewID()
	wa.Enqueue(a)
	wa.Enqueue(b)

	got, ok := wa.Dequeue()
	require.True(t, ok)
	assert.Equal(t, a, got)

	got, ok = wa.Dequeue()
	require.True(t, ok)
	assert.Equal(t, b, got)

	_, ok = wa.Dequeue()
	assert.False(t, ok)
}

func TestWalkerAnchor_RemovePending(t *testing.T) {
	w := &testWalker{}
	Bind(w, "TestWalker", NewID())
	wa := w.WalkerAnchor()

	a, b := NewID(), NewID()
	wa.Enqueue(a)
	wa.Enqueue(b)
	wa.Enqueue(a)

	require.True(t, wa.RemovePending(a))
	assert.Equal(t, 1, wa.PendingLen())
	assert.False(t, wa.RemovePending(a))
}

func TestWalkerAnchor_ResetRunKeepsReports(t *testing.T) {
	w := &testWalker{}
	Bind(w, "TestWalker", NewID())
	wa := w.WalkerAnchor()

	wa.Enqueue(NewID())
	wa.MarkIgnored(NewID())
	wa.Disengage()
	wa.AppendReport("kept")

	wa.ResetRun()

	assert.Equal(t, 0, wa.PendingLen())
	assert.False(t, wa.Disengaged())
	assert.Equal(t, []any{"kept"}, wa.Reports())
}

func TestWalkerState_Lifecycle(t *testing.T) {
	w := &testWalker{}
	Bind(w, "TestWalker", NewID())
	wa := w.WalkerAnchor()

	assert.Equal(t, WalkerCreated, wa.State())
	wa.SetState(WalkerRunning)
	assert.Equal(t, WalkerRunning, wa.State())
	wa.SetState(WalkerDone)
	assert.Equal(t, WalkerDone, wa.State())
}

func TestBaseFieldsStayOutOfJSON(t *testing.T) {
	// Business fields serialize; anchor state must not. NodeBase carries
	// only unexported fields, so encoding/json skips it entirely.
	n := &testNode{Name: "a"}
	Bind(n, "TestNode", NewID())
	n.NodeAnchor().Attach(DirOut, NewID())

	raw, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a"}`, string(raw))
}
