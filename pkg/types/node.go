package types

import "time"

// Node is one record of the adjacency list: an identity, a reference to its
// parent, and an opaque attribute payload. Structure (depth, path, ordering)
// is never stored on the node; it is derived on read by the traversal engine.
type Node struct {
	ID        string         `json:"id" yaml:"id"`                           // UUID v7, generated on creation when not supplied.
	Parent    string         `json:"parent,omitempty" yaml:"parent"`         // Parent identity; empty for root nodes.
	Attrs     map[string]any `json:"attrs,omitempty" yaml:"attrs"`           // User payload, not interpreted by the core.
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`           // Timestamp of creation.
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`           // Timestamp of last modification.
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.Parent == ""
}

// Attr returns the named attribute value and whether it is present.
func (n Node) Attr(name string) (any, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// CloneAttrs returns a copy of the attribute map. Returns an empty map
// (not nil) when no attributes are set.
func (n Node) CloneAttrs() map[string]any {
	out := make(map[string]any, len(n.Attrs))
	for k, v := range n.Attrs {
		out[k] = v
	}
	return out
}
