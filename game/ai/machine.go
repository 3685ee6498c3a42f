package ai

import (
	"math"

	"go.uber.org/zap"
)

// tickGoToPlayer tracks the player until the go-to-player window runs out.
func (b *Brain) tickGoToPlayer(tc *TickContext) {
	s := &b.state
	if tc.Player != nil {
		s.TargetPoint = tc.Player.Position
	}
	s.GoToPlayerTotalTime += tc.seconds()
	if s.GoToPlayerTotalTime < s.HowLongToGoToPlayer {
		return
	}

	if distance(tc.Agent, s.TargetPoint) < ArrivalTolerance {
		b.enterSearch(tc.Agent, tc.Agent, "go_to_player_arrived")
		s.GoToPlayerTotalTime = 0
		return
	}
	// too slow to catch the player: keep heading for the last known position
	b.setMode(ModePursue, "", "go_to_player_expired")
	s.GoToPlayerTotalTime = 0
}

// tickPursue starts a search once the pursued point is reached.
func (b *Brain) tickPursue(tc *TickContext) {
	if distance(tc.Agent, b.state.TargetPoint) < ArrivalTolerance {
		b.enterSearch(tc.Agent, tc.Agent, "pursue_arrived")
	}
}

// tickSearch sweeps around the search center until the search duration elapses.
func (b *Brain) tickSearch(tc *TickContext) {
	s := &b.state
	elapsed, _ := s.TimeSincePursue.Elapsed()
	s.TimeSincePursue = ArmedAt(elapsed + tc.seconds())

	if s.TimeSincePursue.AtLeast(b.tun.SearchDuration) {
		b.enterWander(tc.Agent, "search_timeout")
		return
	}

	if distance(tc.Agent, s.TargetPoint) >= ArrivalTolerance {
		return
	}
	sel := b.targeter.SelectPoint(tc.Nav, tc.Agent, s.SearchCenterPoint, s.WanderRadius)
	s.TargetPoint = sel.Point
	b.logSelection("search", sel)
}

// tickWander roams, growing the wander radius and biasing toward a distant player.
func (b *Brain) tickWander(tc *TickContext) {
	s := &b.state
	s.TimeSincePursue = s.TimeSincePursue.Advance(tc.seconds())

	if s.WanderRadius < b.tun.WanderRadius {
		s.WanderRadius = math.Min(s.WanderRadius+tc.seconds()*wanderGrowthPerSecond, b.tun.WanderRadius)
	}

	if distance(tc.Agent, s.TargetPoint) >= ArrivalTolerance {
		return
	}

	p := tc.Player
	if p != nil && p.Protected {
		// give the player room to breathe
		s.TargetPoint = b.farthestRunaway(p.Position, tc.Agent)
		return
	}

	center := tc.Agent
	longDisengage := false
	if p != nil {
		toPlayer := planarDistance(tc.Agent, p.Position)
		if toPlayer >= s.WanderBiasStartRadius {
			center = lerp(tc.Agent, p.Position, wanderBiasFraction)
		}
		// make the monster leave eventually even if the player never makes a sound
		if toPlayer <= disengageProximity && !s.TimeSincePursue.Armed() {
			s.TimeSincePursue = ArmedAt(1)
		}
		longDisengage = s.TimeSincePursue.AtLeast(longDisengageThreshold)
	}

	var point Vec
	if longDisengage {
		point = b.farthestRunaway(tc.Agent, tc.Agent)
		s.TimeSincePursue = Disarmed()
		b.logger.Debug("wander long disengage", zap.Int64("monster_id", b.id))
	} else {
		sel := b.targeter.SelectPoint(tc.Nav, tc.Agent, center, s.WanderRadius)
		point = sel.Point
		b.logSelection("wander", sel)
	}

	if !PathUsable(tc.Nav, tc.Agent, point) {
		point = b.targeter.Runaways.Closest(tc.Agent)
	}
	s.TargetPoint = point
}

// issueMove hands the target to the mover with the mode's speed profile.
// Calm modes re-check the path first and fall back to the closest runaway location.
func (b *Brain) issueMove(tc *TickContext) Status {
	s := &b.state
	if s.Mode == ModeInactive {
		return StatusFailure
	}
	speed := b.tun.WalkSpeed
	if s.Mode.Aggressive() {
		speed = b.tun.RunSpeed
	} else if !PathUsable(tc.Nav, tc.Agent, s.TargetPoint) {
		s.TargetPoint = b.targeter.Runaways.Closest(tc.Agent)
	}
	b.ac.moveTo(s.TargetPoint, MoveAcceptanceRadius, MoveOptions{Speed: speed})
	return StatusSuccess
}

// farthestRunaway returns the runaway location farthest from ref, or the agent
// position when none are configured.
func (b *Brain) farthestRunaway(ref, agent Vec) Vec {
	if p, ok := b.targeter.Runaways.Farthest(ref); ok {
		return p
	}
	return agent
}

func (b *Brain) logSelection(mode string, sel Selection) {
	if sel.Tier == TierCenter {
		return
	}
	b.logger.Debug("target selection fell back",
		zap.Int64("monster_id", b.id),
		zap.String("mode", mode),
		zap.Stringer("tier", sel.Tier))
}
