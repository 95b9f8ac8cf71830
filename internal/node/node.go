// Package node defines the immutable record type stored and indexed by
// every other component.
package node

import (
	"time"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
)

// StandardMetadataFields are excluded from delta metadata diffs: they are
// housekeeping the store itself maintains, not caller-supplied content.
var StandardMetadataFields = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"created_by": {},
	"updated_by": {},
	"version":    {},
}

// Node is an immutable record: id, coordinates, content payload, metadata,
// and a set of directed references to other node ids. Every mutation
// produces a new Node value; nothing here is ever modified in place.
// WithContent, WithCoordinates and WithMetadata increment the version;
// AddReference and RemoveReference keep it unchanged.
type Node struct {
	ID          string
	Coordinates coordinates.Coordinates
	Content     map[string]interface{}
	Metadata    map[string]interface{}
	References  map[string]struct{}
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UpdatedBy   string
}

// New constructs version 1 of a node.
func New(id string, coords coordinates.Coordinates, content map[string]interface{}, metadata map[string]interface{}, createdAt time.Time) *Node {
	return &Node{
		ID:          id,
		Coordinates: coords,
		Content:     cloneMap(content),
		Metadata:    cloneMap(metadata),
		References:  map[string]struct{}{},
		Version:     1,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (n *Node) cloneReferences() map[string]struct{} {
	out := make(map[string]struct{}, len(n.References))
	for id := range n.References {
		out[id] = struct{}{}
	}
	return out
}

// clone produces a shallow structural copy sharing no mutable maps with n.
func (n *Node) clone() *Node {
	return &Node{
		ID:          n.ID,
		Coordinates: n.Coordinates,
		Content:     cloneMap(n.Content),
		Metadata:    cloneMap(n.Metadata),
		References:  n.cloneReferences(),
		Version:     n.Version,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
		UpdatedBy:   n.UpdatedBy,
	}
}

// WithContent returns a new node with replaced content, bumped version.
func (n *Node) WithContent(content map[string]interface{}, at time.Time, by string) *Node {
	c := n.clone()
	c.Content = cloneMap(content)
	c.Version++
	c.UpdatedAt = at
	c.UpdatedBy = by
	return c
}

// WithCoordinates returns a new node with replaced coordinates, bumped version.
func (n *Node) WithCoordinates(coords coordinates.Coordinates, at time.Time, by string) *Node {
	c := n.clone()
	c.Coordinates = coords
	c.Version++
	c.UpdatedAt = at
	c.UpdatedBy = by
	return c
}

// WithMetadata returns a new node with merged metadata, bumped version.
func (n *Node) WithMetadata(metadata map[string]interface{}, at time.Time, by string) *Node {
	c := n.clone()
	for k, v := range metadata {
		c.Metadata[k] = v
	}
	c.Version++
	c.UpdatedAt = at
	c.UpdatedBy = by
	return c
}

// AddReference returns a new node with the given id added to references.
func (n *Node) AddReference(id string) *Node {
	c := n.clone()
	c.References[id] = struct{}{}
	return c
}

// RemoveReference returns a new node with the given id removed from references.
func (n *Node) RemoveReference(id string) *Node {
	c := n.clone()
	delete(c.References, id)
	return c
}

// Distance delegates to Coordinates.Distance under the given metric.
func (n *Node) Distance(other *Node, m coordinates.Metric) float64 {
	return n.Coordinates.Distance(other.Coordinates, m)
}
