package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectPoint_Tiers(t *testing.T) {
	runaways := NewRunawaySet([]Vec{{X: 30}, {X: 400}})
	tg := Targeter{Runaways: runaways}
	agent := Vec{}
	center := Vec{X: 1000}

	t.Run("center", func(t *testing.T) {
		nav := &fakeNav{}
		sel := tg.SelectPoint(nav, agent, center, 500)
		assert.Equal(t, TierCenter, sel.Tier)
		assert.Equal(t, center, sel.Point)
	})

	t.Run("self when center unreachable", func(t *testing.T) {
		nav := &fakeNav{path: func(_, to Vec) PathResult {
			return PathResult{Exists: to != center, Valid: true}
		}}
		sel := tg.SelectPoint(nav, agent, center, 500)
		assert.Equal(t, TierSelf, sel.Tier)
		assert.Equal(t, agent, sel.Point)
		require.Len(t, nav.centers, 2)
		assert.Equal(t, agent, nav.centers[1])
	})

	t.Run("self when center sample fails", func(t *testing.T) {
		nav := &fakeNav{sample: func(c Vec, _ float64) (Vec, bool) { return c, c != center }}
		sel := tg.SelectPoint(nav, agent, center, 500)
		assert.Equal(t, TierSelf, sel.Tier)
	})

	t.Run("runaway when both fail", func(t *testing.T) {
		nav := &fakeNav{sample: func(Vec, float64) (Vec, bool) { return Vec{}, false }}
		sel := tg.SelectPoint(nav, agent, center, 500)
		assert.Equal(t, TierRunaway, sel.Tier)
		assert.Equal(t, Vec{X: 400}, sel.Point)
	})

	t.Run("invalid path", func(t *testing.T) {
		nav := &fakeNav{path: func(Vec, Vec) PathResult { return PathResult{Exists: true} }}
		sel := tg.SelectPoint(nav, agent, center, 500)
		assert.Equal(t, TierRunaway, sel.Tier)
	})

	t.Run("nil nav", func(t *testing.T) {
		sel := tg.SelectPoint(nil, agent, center, 500)
		assert.Equal(t, TierRunaway, sel.Tier)
		assert.Equal(t, Vec{X: 400}, sel.Point)
	})
}

func TestPathResult_Usable(t *testing.T) {
	assert.True(t, PathResult{Exists: true, Valid: true}.Usable())
	assert.False(t, PathResult{Exists: true, Valid: true, Partial: true}.Usable())
	assert.False(t, PathResult{Valid: true}.Usable())
	assert.False(t, PathResult{Exists: true}.Usable())
	assert.False(t, PathUsable(nil, Vec{}, Vec{X: 1}))
}

func TestRunawaySet_Closest(t *testing.T) {
	rs := NewRunawaySet([]Vec{{X: 40}, {X: 51}, {X: -300}})
	assert.Equal(t, Vec{X: 51}, rs.Closest(Vec{}), "points within 50 units are skipped")
	assert.Equal(t, Vec{X: -300}, rs.Closest(Vec{X: 45}))

	assert.Equal(t, Vec{X: 7, Y: 7}, NewRunawaySet(nil).Closest(Vec{X: 7, Y: 7}))
	assert.Equal(t, Vec{X: 1}, NewRunawaySet([]Vec{{X: 10}}).Closest(Vec{X: 1}), "no qualifying point returns agent")
}

func TestRunawaySet_ClosestSkipsPointUnderfoot(t *testing.T) {
	agent := Vec{X: 320, Y: -75, Z: 40}
	near := Vec{X: agent.X + 10, Y: agent.Y, Z: agent.Z}
	far := Vec{X: agent.X + 200, Y: agent.Y, Z: agent.Z}
	rs := NewRunawaySet([]Vec{near, far})
	assert.Equal(t, far, rs.Closest(agent))
}

func TestRunawaySet_Farthest(t *testing.T) {
	rs := NewRunawaySet([]Vec{{X: 40}, {Y: -900}, {X: 500}})
	p, ok := rs.Farthest(Vec{})
	require.True(t, ok)
	assert.Equal(t, Vec{Y: -900}, p)

	p, ok = rs.Farthest(Vec{Y: -900})
	require.True(t, ok)
	assert.Equal(t, Vec{X: 500}, p)

	_, ok = NewRunawaySet(nil).Farthest(Vec{})
	assert.False(t, ok)
}

func TestRunawaySet_Copies(t *testing.T) {
	src := []Vec{{X: 1}}
	rs := NewRunawaySet(src)
	src[0] = Vec{X: 99}
	assert.Equal(t, []Vec{{X: 1}}, rs.Points())
	assert.Equal(t, 1, rs.Len())
}

func TestTimer(t *testing.T) {
	var zero Timer
	assert.False(t, zero.Armed())

	d := Disarmed().Advance(5)
	assert.False(t, d.Armed())
	assert.False(t, d.AtLeast(0))

	a := ArmedAt(1).Advance(2.5)
	elapsed, armed := a.Elapsed()
	assert.True(t, armed)
	assert.InDelta(t, 3.5, elapsed, 1e-9)
	assert.True(t, a.AtLeast(3.5))
	assert.False(t, a.AtLeast(4))
}

func TestMode_Aggressive(t *testing.T) {
	assert.True(t, ModePursue.Aggressive())
	assert.True(t, ModeGoToPlayer.Aggressive())
	assert.False(t, ModeWander.Aggressive())
	assert.False(t, ModeSearch.Aggressive())
	assert.False(t, ModeInactive.Aggressive())
	assert.Equal(t, "go_to_player", ModeGoToPlayer.String())
}

func TestBehaviorTree_Composites(t *testing.T) {
	ok := &ActionNode{Fn: func(*TickContext) Status { return StatusSuccess }}
	fail := &ActionNode{Fn: func(*TickContext) Status { return StatusFailure }}
	running := &ActionNode{Fn: func(*TickContext) Status { return StatusRunning }}

	assert.Equal(t, StatusSuccess, (&Selector{Children: []Node{fail, ok}}).Tick(nil))
	assert.Equal(t, StatusFailure, (&Selector{Children: []Node{fail, fail}}).Tick(nil))
	assert.Equal(t, StatusRunning, (&Selector{Children: []Node{running, ok}}).Tick(nil))
	assert.Equal(t, StatusFailure, (&Sequence{Children: []Node{ok, fail}}).Tick(nil))
	assert.Equal(t, StatusSuccess, (&Sequence{Children: []Node{ok, ok}}).Tick(nil))
	assert.Equal(t, StatusFailure, (&BehaviorTree{}).Tick(nil))
	assert.Equal(t, "running", StatusRunning.String())
}
