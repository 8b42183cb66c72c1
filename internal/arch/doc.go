// Package arch defines the structural layer of the object-spatial runtime:
// architype base types and the anchors that give them identity.
//
// An Architype is a user-defined domain object (node, edge, walker, or plain
// object). It owns business fields only. All graph-structural state (the
// unique identifier, adjacency, edge endpoints, walker traversal state)
// lives on the instance's Anchor. Architype and Anchor are created together
// and share a lifetime.
//
// ARENA DESIGN:
//
// Anchors never hold owning references to one another. NodeAnchor adjacency
// and EdgeAnchor endpoints are UUIDs, resolved through the identifier-
// addressed Memory arena in internal/runtime. This keeps the node/edge
// reference graph acyclic at the ownership level while preserving O(1)
// lookup, and makes every anchor independently serializable.
//
// User types embed one of NodeBase, EdgeBase, WalkerBase, or ObjectBase and
// are bound to their type name and identifier by the runtime registry via
// Bind. Only embedders of these bases can satisfy the Architype interface.
package arch
