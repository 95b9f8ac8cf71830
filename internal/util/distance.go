package util

import "github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"

// DistanceFunc computes a distance between two spatial points. Unlike the
// teacher's vector DistanceFunc (L2Distance_func/InnerProduct_func/
// CosineDistance_func), these never panic on a dimensionality mismatch:
// coordinates.Distance zero-pads the shorter operand to the longer one's
// length, per spec §4.1's edge-case policy.
type DistanceFunc func(a, b coordinates.SpatialPoint) float64

// GetDistanceFunc returns the distance function for the requested metric,
// keeping the teacher's dispatch-by-metric shape without its
// panic-on-mismatch behavior.
func GetDistanceFunc(metric coordinates.Metric) DistanceFunc {
	return func(a, b coordinates.SpatialPoint) float64 {
		return coordinates.Distance(a, b, metric)
	}
}
