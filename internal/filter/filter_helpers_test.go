package filter

import "github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"

// newTestNode builds a bare node carrying only an id and metadata, enough
// to exercise filter predicates without the rest of a real node's fields.
func newTestNode(id string, metadata map[string]interface{}) *node.Node {
	return &node.Node{ID: id, Metadata: metadata}
}
