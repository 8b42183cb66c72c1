package arch

// NOTE: Record is the store-layer representation of an anchor, not part of
// the in-memory model. The durable store reads and writes Records; only
// Memory translates between Records and live anchors.

// Record is the flattened, serializable form of one anchor plus the JSON
// business fields of its architype. Node adjacency and edge endpoints are
// carried as identifier strings so records stay free of object references.
type Record struct {
	ID         string   `json:"id"`
	Kind       int      `json:"kind"`
	Type       string   `json:"type"`             // Registered architype type name
	Fields     []byte   `json:"fields"`           // JSON of business fields
	OutEdges   []string `json:"out_edges"`        // Node adjacency, connection order
	InEdges    []string `json:"in_edges"`         // Node adjacency, connection order
	Source     string   `json:"source,omitempty"` // Edge endpoint
	Target     string   `json:"target,omitempty"` // Edge endpoint
	Undirected bool     `json:"undirected,omitempty"`
}
