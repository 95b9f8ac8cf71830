package node

import (
	"sort"
	"time"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
)

// DTO is the wire/disk representation of a Node: a plain JSON-tagged
// struct the node store's write-ahead log serializes byte-for-byte,
// including references and metadata, per the node-store contract.
type DTO struct {
	ID          string                 `json:"id"`
	Spatial     []float64              `json:"spatial,omitempty"`
	HasSpatial  bool                   `json:"has_spatial"`
	Temporal    float64                `json:"temporal,omitempty"`
	Precision   int                    `json:"precision,omitempty"`
	HasTemporal bool                   `json:"has_temporal"`
	Content     map[string]interface{} `json:"content"`
	Metadata    map[string]interface{} `json:"metadata"`
	References  []string               `json:"references"`
	Version     int                    `json:"version"`
	CreatedAt   int64                  `json:"created_at"`
	UpdatedAt   int64                  `json:"updated_at"`
	UpdatedBy   string                 `json:"updated_by,omitempty"`
}

// ToDTO renders n into its serializable form.
func (n *Node) ToDTO() DTO {
	refs := make([]string, 0, len(n.References))
	for id := range n.References {
		refs = append(refs, id)
	}
	sort.Strings(refs)

	d := DTO{
		ID:         n.ID,
		Content:    cloneMap(n.Content),
		Metadata:   cloneMap(n.Metadata),
		References: refs,
		Version:    n.Version,
		CreatedAt:  n.CreatedAt.UnixNano(),
		UpdatedAt:  n.UpdatedAt.UnixNano(),
		UpdatedBy:  n.UpdatedBy,
	}
	if n.Coordinates.HasSpatial {
		d.HasSpatial = true
		d.Spatial = append([]float64(nil), n.Coordinates.Spatial...)
	}
	if n.Coordinates.HasTemporal {
		d.HasTemporal = true
		d.Temporal = n.Coordinates.Temporal.UnixSeconds
		d.Precision = int(n.Coordinates.Temporal.Precision)
	}
	return d
}

// FromDTO reconstructs a Node from its serializable form.
func FromDTO(d DTO) *Node {
	var coords coordinates.Coordinates
	if d.HasSpatial {
		coords.HasSpatial = true
		coords.Spatial = append(coordinates.SpatialPoint(nil), d.Spatial...)
	}
	if d.HasTemporal {
		coords.HasTemporal = true
		coords.Temporal = coordinates.TemporalInstant{UnixSeconds: d.Temporal, Precision: coordinates.Precision(d.Precision)}
	}

	refs := make(map[string]struct{}, len(d.References))
	for _, id := range d.References {
		refs[id] = struct{}{}
	}

	return &Node{
		ID:          d.ID,
		Coordinates: coords,
		Content:     cloneMap(d.Content),
		Metadata:    cloneMap(d.Metadata),
		References:  refs,
		Version:     d.Version,
		CreatedAt:   time.Unix(0, d.CreatedAt).UTC(),
		UpdatedAt:   time.Unix(0, d.UpdatedAt).UTC(),
		UpdatedBy:   d.UpdatedBy,
	}
}
