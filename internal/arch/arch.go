package arch

import (
	"github.com/google/uuid"
)

// Kind classifies an architype.
type Kind int

const (
	// KindObject is a plain object with identity but no graph structure.
	KindObject Kind = iota + 1
	// KindNode participates in adjacency.
	KindNode
	// KindEdge links exactly two nodes.
	KindEdge
	// KindWalker is a mobile computation.
	KindWalker
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	case KindWalker:
		return "walker"
	default:
		return "unknown"
	}
}

// Dir selects an adjacency direction.
//
// DirOut and DirIn name the two adjacency lists a node keeps. DirAny is
// query-only: it merges OUT before IN and is never used as a storage key.
type Dir int

const (
	DirOut Dir = iota + 1
	DirIn
	DirAny
)

// String returns the direction name used in logs and fixtures.
func (d Dir) String() string {
	switch d {
	case DirOut:
		return "out"
	case DirIn:
		return "in"
	case DirAny:
		return "any"
	default:
		return "unknown"
	}
}

// RootID is the reserved identifier of a session's root node.
// Exactly one anchor per session carries it.
var RootID = uuid.Nil

// NewID generates a time-sortable UUIDv7 anchor identifier.
// Panics if UUID generation fails (should never happen in practice).
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// Architype is implemented by every domain object managed by the runtime.
//
// The unexported bind method seals the interface: only types embedding
// ObjectBase, NodeBase, EdgeBase, or WalkerBase can implement it.
type Architype interface {
	// Anchor returns the structural identity shared by all kinds.
	Anchor() *Anchor
	// TypeName returns the registered architype type name.
	TypeName() string
	// Kind reports which architype variant this is.
	Kind() Kind

	bind(self Architype, typeName string, id uuid.UUID)
}

// NodeArchitype is an Architype backed by a NodeAnchor.
type NodeArchitype interface {
	Architype
	NodeAnchor() *NodeAnchor
}

// EdgeArchitype is an Architype backed by an EdgeAnchor.
type EdgeArchitype interface {
	Architype
	EdgeAnchor() *EdgeAnchor
}

// WalkerArchitype is an Architype backed by a WalkerAnchor.
type WalkerArchitype interface {
	Architype
	WalkerAnchor() *WalkerAnchor
}

// Bind attaches type identity to a freshly constructed or hydrated
// architype. Called exactly once per instance by the runtime registry;
// user code never calls it directly.
func Bind(a Architype, typeName string, id uuid.UUID) {
	a.bind(a, typeName, id)
}

// ObjectBase is embedded by plain-object architypes.
// All base fields are unexported so they never leak into the JSON
// serialization of the embedding struct's business fields.
type ObjectBase struct {
	typeName string
	anchor   Anchor
}

func (b *ObjectBase) Anchor() *Anchor { return &b.anchor }
func (b *ObjectBase) TypeName() string { return b.typeName }
func (b *ObjectBase) Kind() Kind { return KindObject }

func (b *ObjectBase) bind(self Architype, typeName string, id uuid.UUID) {
	b.typeName = typeName
	b.anchor.init(self, id)
}

// NodeBase is embedded by node architypes.
type NodeBase struct {
	typeName string
	anchor   NodeAnchor
}

func (b *NodeBase) Anchor() *Anchor { return &b.anchor.Anchor }
func (b *NodeBase) NodeAnchor() *NodeAnchor { return &b.anchor }
func (b *NodeBase) TypeName() string { return b.typeName }
func (b *NodeBase) Kind() Kind { return KindNode }

func (b *NodeBase) bind(self Architype, typeName string, id uuid.UUID) {
	b.typeName = typeName
	b.anchor.init(self, id)
}

// EdgeBase is embedded by edge architypes.
type EdgeBase struct {
	typeName string
	anchor   EdgeAnchor
}

func (b *EdgeBase) Anchor() *Anchor { return &b.anchor.Anchor }
func (b *EdgeBase) EdgeAnchor() *EdgeAnchor { return &b.anchor }
func (b *EdgeBase) TypeName() string { return b.typeName }
func (b *EdgeBase) Kind() Kind { return KindEdge }

func (b *EdgeBase) bind(self Architype, typeName string, id uuid.UUID) {
	b.typeName = typeName
	b.anchor.init(self, id)
}

// WalkerBase is embedded by walker architypes.
type WalkerBase struct {
	typeName string
	anchor   WalkerAnchor
}

func (b *WalkerBase) Anchor() *Anchor { return &b.anchor.Anchor }
func (b *WalkerBase) WalkerAnchor() *WalkerAnchor { return &b.anchor }
func (b *WalkerBase) TypeName() string { return b.typeName }
func (b *WalkerBase) Kind() Kind { return KindWalker }

func (b *WalkerBase) bind(self Architype, typeName string, id uuid.UUID) {
	b.typeName = typeName
	b.anchor.init(self, id)
}
