package ai

import (
	"math"

	"go.uber.org/zap"
)

// SoundEvent is a noise reported to a monster.
type SoundEvent struct {
	Origin         Vec
	HearableRadius float64
	Ongoing        bool
	AudioLog       bool
	// HowLongToGoToPlayer is the number of seconds to track the player directly
	// when the sound is close. Values <= 0 disable it.
	HowLongToGoToPlayer float64
	OverrideSafeZone    bool
}

// NewSound returns a one-off sound with direct player tracking disabled.
func NewSound(origin Vec, hearableRadius float64) SoundEvent {
	return SoundEvent{Origin: origin, HearableRadius: hearableRadius, HowLongToGoToPlayer: -1}
}

// Reaction describes what a sound report did to the brain.
type Reaction int

const (
	ReactionNone Reaction = iota
	ReactionGoToPlayer
	ReactionPursue
	ReactionSearch
)

func (r Reaction) String() string {
	switch r {
	case ReactionGoToPlayer:
		return "go_to_player"
	case ReactionPursue:
		return "pursue"
	case ReactionSearch:
		return "search"
	default:
		return "none"
	}
}

// EffectiveDistance is the hearing distance from origin to agent.
// Vertical separation counts double, so sounds on other floors seem farther away.
func EffectiveDistance(origin, agent Vec) float64 {
	vertical := math.Abs(origin.Z-agent.Z) * verticalHearingWeight
	return vertical + planarDistance(origin, agent)
}

// ReportSound feeds a sound into the brain. It is ignored while inactive, for audio logs,
// and while the player is protected unless the sound overrides safe zones.
func (b *Brain) ReportSound(ev SoundEvent) Reaction {
	s := &b.state
	if s.Mode == ModeInactive {
		return ReactionNone
	}
	// audio logs have no reaction yet
	if ev.AudioLog {
		return ReactionNone
	}
	if p, ok := b.ac.player(); ok && p.Protected && !ev.OverrideSafeZone {
		return ReactionNone
	}

	agent := b.ac.position()
	dist := EffectiveDistance(ev.Origin, agent)
	if dist >= ev.HearableRadius {
		return ReactionNone
	}

	reaction := ReactionNone
	if dist < s.PursueInsteadOfSearchRadius {
		if ev.HowLongToGoToPlayer > 0 {
			b.enterAggressive(ModeGoToPlayer, "sound_close")
			s.HowLongToGoToPlayer = ev.HowLongToGoToPlayer
			s.GoToPlayerTotalTime = 0
			reaction = ReactionGoToPlayer
		} else if s.Mode != ModeGoToPlayer {
			b.enterAggressive(ModePursue, "sound_close")
			// raw origin, not Z-flattened: the mover walks to the goal's own floor height
			s.TargetPoint = ev.Origin
			reaction = ReactionPursue
		}
	}

	// don't drop into search from a more aggressive mode
	if !s.Mode.Aggressive() {
		b.enterSearch(agent, ev.Origin, "sound_heard") // raw origin as above
		reaction = ReactionSearch
	}

	b.logger.Debug("sound perceived",
		zap.Int64("monster_id", b.id),
		zap.Float64("distance", dist),
		zap.Float64("radius", ev.HearableRadius),
		zap.Stringer("reaction", reaction))
	return reaction
}
