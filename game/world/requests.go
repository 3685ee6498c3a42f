package world

import (
	"context"
	"errors"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/hook"
)

// PlayerState is a telemetry update sent by the game client.
type PlayerState struct {
	Position [3]float64 `json:"position"`
	Style    string     `json:"style"`
}

// Apply stores the state as the room's player.
func (ps PlayerState) Apply(room *Room) (PlayerView, error) {
	style, err := ParseMovementStyle(ps.Style)
	if err != nil {
		return PlayerView{}, err
	}
	pos := ai.Vec{X: ps.Position[0], Y: ps.Position[1], Z: ps.Position[2]}
	return room.SetPlayer(pos, style), nil
}

// SoundReport is a game-reported noise.
type SoundReport struct {
	Origin              [3]float64 `json:"origin"`
	Radius              float64    `json:"radius"`
	Ongoing             bool       `json:"ongoing"`
	AudioLog            bool       `json:"audio_log"`
	HowLongToGoToPlayer *float64   `json:"how_long_to_go_to_player,omitempty"`
	OverrideSafeZone    bool       `json:"override_safe_zone"`
}

// Event converts the report to a sound event. Direct player tracking is
// off unless a positive duration is given.
func (sr SoundReport) Event() (ai.SoundEvent, error) {
	if sr.Radius <= 0 {
		return ai.SoundEvent{}, errors.New("radius must be positive")
	}
	ev := ai.NewSound(ai.Vec{X: sr.Origin[0], Y: sr.Origin[1], Z: sr.Origin[2]}, sr.Radius)
	ev.Ongoing = sr.Ongoing
	ev.AudioLog = sr.AudioLog
	ev.OverrideSafeZone = sr.OverrideSafeZone
	if sr.HowLongToGoToPlayer != nil {
		ev.HowLongToGoToPlayer = *sr.HowLongToGoToPlayer
	}
	return ev, nil
}

// ClampSoundRadius returns a BeforeSound hook that caps hearable radii at max.
func ClampSoundRadius(max float64) hook.Fn {
	return func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		ev, ok := data.(ai.SoundEvent)
		if ok && max > 0 && ev.HearableRadius > max {
			ev.HearableRadius = max
			return ev, nil
		}
		return data, nil
	}
}
