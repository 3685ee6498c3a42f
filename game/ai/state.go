package ai

// Mode enumerates the high-level behavior states of a monster.
type Mode int

const (
	ModeInactive   Mode = iota
	ModeWander          // roam, loosely biased toward the player
	ModePursue          // head for a heard sound or the player's last position
	ModeGoToPlayer      // track the player directly for a while
	ModeSearch          // sweep the area around a search center
)

func (m Mode) String() string {
	switch m {
	case ModeInactive:
		return "inactive"
	case ModeWander:
		return "wander"
	case ModePursue:
		return "pursue"
	case ModeGoToPlayer:
		return "go_to_player"
	case ModeSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Aggressive reports whether the mode chases something directly.
func (m Mode) Aggressive() bool {
	return m == ModePursue || m == ModeGoToPlayer
}

// Sound cue identifiers emitted on mode entry.
const (
	CueDetected   = "detected"
	CueSearchLoop = "search-loop"
	CueIdleLoop   = "idle-loop"
)

const (
	// ArrivalTolerance is how close the agent must get to its target before it picks a new one.
	ArrivalTolerance = 150.0
	// MoveAcceptanceRadius is handed to the mover; unrelated to ArrivalTolerance.
	MoveAcceptanceRadius = 5.0

	wanderGrowthPerSecond  = 3.0
	wanderBiasFraction     = 0.15
	disengageProximity     = 1100.0
	longDisengageThreshold = 4.0 // TODO: stale value; search hands over ~30s, confirm intended wander duration with design
	verticalHearingWeight  = 2.0
)

// Timer is an optional elapsed-time counter in seconds.
// The zero value is disarmed.
type Timer struct {
	armed   bool
	elapsed float64
}

// Disarmed returns a timer that is not counting.
func Disarmed() Timer { return Timer{} }

// ArmedAt returns a counting timer starting at elapsed seconds.
func ArmedAt(elapsed float64) Timer { return Timer{armed: true, elapsed: elapsed} }

// Armed reports whether the timer is counting.
func (t Timer) Armed() bool { return t.armed }

// Elapsed returns the counted seconds and whether the timer is armed.
func (t Timer) Elapsed() (float64, bool) { return t.elapsed, t.armed }

// Advance adds dt seconds to an armed timer. Disarmed timers are unchanged.
func (t Timer) Advance(dt float64) Timer {
	if !t.armed {
		return t
	}
	t.elapsed += dt
	return t
}

// AtLeast reports whether the timer is armed and has counted at least seconds.
func (t Timer) AtLeast(seconds float64) bool {
	return t.armed && t.elapsed >= seconds
}

// Tunables are the static per-monster desired values.
type Tunables struct {
	WanderRadius                float64 `mapstructure:"desired_wander_radius"`
	WanderBiasRadius            float64 `mapstructure:"desired_wander_bias_radius"`
	SearchRadius                float64 `mapstructure:"desired_search_radius"`
	WalkSpeed                   float64 `mapstructure:"desired_walk_speed"`
	RunSpeed                    float64 `mapstructure:"desired_run_speed"`
	PursueInsteadOfSearchRadius float64 `mapstructure:"desired_pursue_instead_of_search_radius"`
	SearchDuration              float64 `mapstructure:"desired_search_duration"` // seconds
}

// DefaultTunables returns the stock monster tuning.
func DefaultTunables() Tunables {
	return Tunables{
		WanderRadius:                2000,
		WanderBiasRadius:            1200,
		SearchRadius:                600,
		WalkSpeed:                   100,
		RunSpeed:                    200,
		PursueInsteadOfSearchRadius: 400,
		SearchDuration:              30,
	}
}

// AgentState is the mutable working state of one monster.
type AgentState struct {
	Mode                        Mode
	TargetPoint                 Vec
	WanderRadius                float64
	WanderBiasStartRadius       float64
	TimeSincePursue             Timer
	GoToPlayerTotalTime         float64
	HowLongToGoToPlayer         float64 // <= 0 disables direct player tracking on sounds
	PursueInsteadOfSearchRadius float64
	SearchCenterPoint           Vec
}

// NewAgentState returns the state of a freshly possessed, inactive monster at pos.
func NewAgentState(t Tunables, pos Vec) AgentState {
	return AgentState{
		Mode:                        ModeInactive,
		TargetPoint:                 pos,
		WanderRadius:                t.WanderRadius,
		WanderBiasStartRadius:       t.WanderBiasRadius,
		TimeSincePursue:             Disarmed(),
		PursueInsteadOfSearchRadius: t.PursueInsteadOfSearchRadius,
		SearchCenterPoint:           pos,
	}
}
