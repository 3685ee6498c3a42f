package world

import (
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
)

// Event types pushed to clients and published on a room's event channel.
const (
	EventCue         = "cue"
	EventTransition  = "transition"
	EventMonsterSync = "monster_sync"
)

// Event is a cue or mode transition of one monster.
type Event struct {
	Type      string     `json:"type"`
	Room      string     `json:"room"`
	MonsterID int64      `json:"monster_id"`
	Cue       string     `json:"cue,omitempty"`
	From      string     `json:"from,omitempty"`
	To        string     `json:"to,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Position  [3]float64 `json:"position"`
	At        time.Time  `json:"at"`

	snapshot *ai.Snapshot
	tr       *ai.Transition
}

// MonsterSync is the per-tick position update for one monster.
type MonsterSync struct {
	ID       int64      `json:"id"`
	Mode     string     `json:"mode"`
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	Speed    float64    `json:"speed"`
}

// SoundReaction pairs a monster with what a reported sound did to it.
type SoundReaction struct {
	MonsterID int64  `json:"monster_id"`
	Reaction  string `json:"reaction"`
}

func cueEvent(room string, id int64, cue string, pos ai.Vec) Event {
	return Event{
		Type:      EventCue,
		Room:      room,
		MonsterID: id,
		Cue:       cue,
		Position:  vecArray(pos),
		At:        time.Now(),
	}
}

func transitionEvent(room string, tr ai.Transition) Event {
	return Event{
		Type:      EventTransition,
		Room:      room,
		MonsterID: tr.MonsterID,
		Cue:       tr.Cue,
		From:      tr.From.String(),
		To:        tr.To.String(),
		Reason:    tr.Reason,
		Position:  vecArray(tr.Position),
		At:        time.Now(),
		tr:        &tr,
	}
}

func vecArray(v ai.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
