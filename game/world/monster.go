package world

import (
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/nav"
	"go.uber.org/zap"
)

// MonsterRuntime is a live monster: its brain plus the body the brain drives.
// Guarded by the owning room's lock.
type MonsterRuntime struct {
	ID      int64
	Profile string

	pos   ai.Vec
	brain *ai.Brain
	mover *Mover
}

// newMonster places a monster at its spawn and wires its brain to the room.
func newMonster(room *Room, spawn nav.MonsterSpawn, tun ai.Tunables, logger *zap.Logger) *MonsterRuntime {
	m := &MonsterRuntime{
		ID:      spawn.ID,
		Profile: spawn.Tunables,
		pos:     spawn.Position.Vec(),
		mover:   NewMover(room.grid),
	}
	ac := ai.AgentContext{
		Position: func() ai.Vec { return m.pos },
		MoveTo: func(point ai.Vec, acceptance float64, opts ai.MoveOptions) {
			m.mover.MoveTo(m.pos, point, acceptance, opts)
		},
		PlayCue: func(cue string) { room.queue(cueEvent(room.ID, m.ID, cue, m.pos)) },
		Player:  room.playerInfo,
	}
	m.brain = ai.NewBrain(spawn.ID, tun, room.layout.RunawayVecs(), ac, logger)
	m.brain.OnTransition(func(tr ai.Transition) { room.queue(transitionEvent(room.ID, tr)) })
	return m
}

// tick runs one brain decision and then moves the body.
func (m *MonsterRuntime) tick(tc ai.TickContext) {
	m.brain.Tick(&tc)
	m.pos = m.mover.Step(m.pos, tc.Delta.Seconds())
}

func (m *MonsterRuntime) sync() MonsterSync {
	st := m.brain.State()
	return MonsterSync{
		ID:       m.ID,
		Mode:     st.Mode.String(),
		Position: vecArray(m.pos),
		Target:   vecArray(st.TargetPoint),
		Speed:    m.mover.Speed(),
	}
}
