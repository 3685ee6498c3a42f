package ai

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// runawayExclusion keeps Closest from choosing a point the agent already stands on.
const runawayExclusion = 50.0

// RunawaySet is the fixed list of designer-placed fallback locations.
type RunawaySet struct {
	points []Vec
}

// NewRunawaySet copies points into an immutable set.
func NewRunawaySet(points []Vec) RunawaySet {
	cp := make([]Vec, len(points))
	copy(cp, points)
	return RunawaySet{points: cp}
}

// Len returns the number of locations.
func (r RunawaySet) Len() int { return len(r.points) }

// Points returns a copy of the locations.
func (r RunawaySet) Points() []Vec {
	cp := make([]Vec, len(r.points))
	copy(cp, r.points)
	return cp
}

// Closest returns the nearest location to agent that is farther than 50 units away.
// Returns agent itself when no location qualifies.
func (r RunawaySet) Closest(agent Vec) Vec {
	best := agent
	bestDist := math.MaxFloat64
	for _, p := range r.points {
		d := distance(agent, p)
		if d < bestDist && d > runawayExclusion {
			best = p
			bestDist = d
		}
	}
	return best
}

// Farthest returns the location farthest from ref. ok is false when the set is empty.
func (r RunawaySet) Farthest(ref Vec) (Vec, bool) {
	if len(r.points) == 0 {
		return Vec{}, false
	}
	best := r.points[0]
	bestDist := 0.0
	for _, p := range r.points {
		if d := distance(ref, p); d > bestDist {
			best = p
			bestDist = d
		}
	}
	return best, true
}

// ---- geometry ----

func distance(a, b Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// planarDistance ignores the vertical axis.
func planarDistance(a, b Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func lerp(a, b Vec, t float64) Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}
