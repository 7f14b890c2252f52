package layout

import (
	"math"

	"github.com/msalah0e/castgraph/internal/graph"
)

// Node radii in layout units.
const (
	FocalHitRadius   = 12.0
	MaxHitRadius     = 20.0
	HitBuffer        = 5.0
	FocalPaintRadius = 20.0
	MaxPaintRadius   = 24.0
)

// HitRadius is the hit-testing radius of a node. Colleague radii grow with
// the square root of the shared-movie count and are capped at MaxHitRadius.
func HitRadius(n graph.Node) float64 {
	if n.Focal {
		return FocalHitRadius
	}
	c := math.Max(float64(n.Count), 0)
	return math.Min(4+3*math.Sqrt(c), MaxHitRadius)
}

// CollideRadius is the radius the collision force keeps clear around a node.
func CollideRadius(n graph.Node) float64 {
	return HitRadius(n) + HitBuffer
}

// PaintRadius is the drawn radius of a node.
func PaintRadius(n graph.Node) float64 {
	if n.Focal {
		return FocalPaintRadius
	}
	return math.Min(10+2*float64(n.Count), MaxPaintRadius)
}

// EdgeDistance returns the distance stored on the edge.
func EdgeDistance(e graph.Edge) float64 {
	return e.Distance
}
