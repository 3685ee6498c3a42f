package ai

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a world-space position. Z is up.
type Vec = r3.Vec

// TickContext is passed to every behavior tree node during a tick.
// The caller fills Delta, Player and Nav; Brain.Tick fills Agent.
type TickContext struct {
	Delta  time.Duration // time since last tick
	Player *PlayerInfo   // nil when no player is present
	Nav    SpatialQuery  // nil degrades every query to the runaway fallback
	Agent  Vec           // agent position sampled at the start of the tick
}

func (tc *TickContext) seconds() float64 { return tc.Delta.Seconds() }

// PlayerInfo is the player telemetry the brain needs.
type PlayerInfo struct {
	Position  Vec
	Protected bool // inside a safety volume
}

// PathResult reports what the navigation layer could do for a path request.
type PathResult struct {
	Exists  bool
	Valid   bool
	Partial bool // path stops short of the requested destination
}

// Usable reports whether the path actually reaches its destination.
func (p PathResult) Usable() bool {
	return p.Exists && p.Valid && !p.Partial
}

// SpatialQuery abstracts navigation-surface queries for the AI layer.
// Implemented by *nav.Grid; declared here as an interface to avoid an import cycle.
type SpatialQuery interface {
	SampleReachablePoint(center Vec, radius float64) (Vec, bool)
	ComputePath(from, to Vec) PathResult
}

// MoveOptions carries the speed profile for a move request.
type MoveOptions struct {
	Speed float64
}

// AgentContext holds the capability handles of the agent that owns a Brain.
// It is resolved once at construction. Nil handles are skipped.
type AgentContext struct {
	Position func() Vec
	MoveTo   func(point Vec, acceptanceRadius float64, opts MoveOptions)
	PlayCue  func(cue string)
	Player   func() (PlayerInfo, bool)
}

func (ac *AgentContext) position() Vec {
	if ac.Position == nil {
		return Vec{}
	}
	return ac.Position()
}

func (ac *AgentContext) player() (PlayerInfo, bool) {
	if ac.Player == nil {
		return PlayerInfo{}, false
	}
	return ac.Player()
}

func (ac *AgentContext) playCue(cue string) {
	if ac.PlayCue != nil {
		ac.PlayCue(cue)
	}
}

func (ac *AgentContext) moveTo(point Vec, acceptance float64, opts MoveOptions) {
	if ac.MoveTo != nil {
		ac.MoveTo(point, acceptance, opts)
	}
}
