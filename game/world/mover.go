package world

import (
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pather returns the waypoints from one point toward another and whether
// they reach it. Implemented by *nav.Grid.
type Pather interface {
	Waypoints(from, to ai.Vec) ([]ai.Vec, bool)
}

// Mover walks a monster along grid paths at the speed of the last move request.
type Mover struct {
	nav        Pather
	goal       ai.Vec
	hasGoal    bool
	acceptance float64
	speed      float64
	path       []ai.Vec
}

// NewMover creates an idle mover over nav.
func NewMover(nav Pather) *Mover {
	return &Mover{nav: nav}
}

// MoveTo plans a path from the current position to goal. Repeating the
// current goal only updates the speed.
func (mv *Mover) MoveTo(from, goal ai.Vec, acceptance float64, opts ai.MoveOptions) {
	mv.speed = opts.Speed
	mv.acceptance = acceptance
	if mv.hasGoal && goal == mv.goal {
		return
	}
	mv.goal, mv.hasGoal = goal, true
	if mv.nav == nil {
		mv.path = []ai.Vec{goal}
		return
	}
	pts, reached := mv.nav.Waypoints(from, goal)
	if reached {
		// the last waypoint is the goal cell's center; finish on the goal itself
		if n := len(pts); n > 0 {
			pts[n-1] = goal
		} else {
			pts = []ai.Vec{goal}
		}
	}
	mv.path = pts
}

// Step advances pos along the path by speed*dt and returns the new position.
func (mv *Mover) Step(pos ai.Vec, dt float64) ai.Vec {
	budget := mv.speed * dt
	for len(mv.path) > 0 {
		next := mv.path[0]
		d := r3.Norm(r3.Sub(next, pos))
		if len(mv.path) == 1 && d <= mv.acceptance {
			mv.path = nil
			break
		}
		if budget <= 0 {
			break
		}
		if d <= budget {
			pos = next
			budget -= d
			mv.path = mv.path[1:]
			continue
		}
		pos = r3.Add(pos, r3.Scale(budget/d, r3.Sub(next, pos)))
		budget = 0
	}
	return pos
}

// Idle reports whether the mover has no path left to walk.
func (mv *Mover) Idle() bool { return len(mv.path) == 0 }

// Speed returns the speed of the last move request.
func (mv *Mover) Speed() float64 { return mv.speed }

// Stop drops the current goal and path.
func (mv *Mover) Stop() {
	mv.path = nil
	mv.hasGoal = false
}
