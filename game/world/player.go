package world

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/config"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
)

// MovementStyle is how the player moves; it sets how loud footsteps are.
type MovementStyle int

const (
	StyleWalk MovementStyle = iota
	StyleSneak
	StyleSprint
)

func (s MovementStyle) String() string {
	switch s {
	case StyleSneak:
		return "sneak"
	case StyleSprint:
		return "sprint"
	default:
		return "walk"
	}
}

// ParseMovementStyle parses "sneak", "walk" or "sprint". Empty means walk.
func ParseMovementStyle(s string) (MovementStyle, error) {
	switch strings.ToLower(s) {
	case "", "walk":
		return StyleWalk, nil
	case "sneak", "crouch":
		return StyleSneak, nil
	case "sprint", "run":
		return StyleSprint, nil
	}
	return StyleWalk, fmt.Errorf("unknown movement style %q", s)
}

// PlayerRuntime is the player telemetry a room keeps.
type PlayerRuntime struct {
	Position  ai.Vec
	Style     MovementStyle
	Protected bool // inside a safety volume
	UpdatedAt time.Time
}

// PlayerView is the cached JSON form of the player.
type PlayerView struct {
	Position  [3]float64 `json:"position"`
	Style     string     `json:"style"`
	Protected bool       `json:"protected"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (p *PlayerRuntime) view() PlayerView {
	return PlayerView{
		Position:  vecArray(p.Position),
		Style:     p.Style.String(),
		Protected: p.Protected,
		UpdatedAt: p.UpdatedAt,
	}
}

// Footsteps turns player steps into sounds. Steps closer together than the
// debounce window are dropped.
type Footsteps struct {
	cfg config.NoiseConfig
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewFootsteps creates a footstep emitter using the wall clock.
func NewFootsteps(cfg config.NoiseConfig) *Footsteps {
	return &Footsteps{cfg: cfg, now: time.Now}
}

// Radius returns the hearable radius of a footstep in the given style.
func (f *Footsteps) Radius(style MovementStyle) float64 {
	switch style {
	case StyleSneak:
		return f.cfg.SneakRadius
	case StyleSprint:
		return f.cfg.SprintRadius
	default:
		return f.cfg.WalkRadius
	}
}

// Step returns the sound of a footstep at pos, or false while debounced.
func (f *Footsteps) Step(pos ai.Vec, style MovementStyle) (ai.SoundEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	if !f.last.IsZero() && now.Sub(f.last) < f.cfg.Debounce {
		return ai.SoundEvent{}, false
	}
	f.last = now
	ev := ai.NewSound(pos, f.Radius(style))
	ev.HowLongToGoToPlayer = f.cfg.GoToPlayer.Seconds()
	return ev, true
}
