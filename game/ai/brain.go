package ai

import (
	"go.uber.org/zap"
)

// Transition describes one mode change.
type Transition struct {
	MonsterID int64
	From      Mode
	To        Mode
	Reason    string
	Cue       string // empty when the change was silent
	Position  Vec
}

// Brain is the decision core of one monster. It is not safe for concurrent use;
// the owning runtime serializes ticks, sound reports and activation calls.
type Brain struct {
	id           int64
	tun          Tunables
	state        AgentState
	targeter     Targeter
	ac           AgentContext
	tree         *BehaviorTree
	onTransition func(Transition)
	logger       *zap.Logger
}

// NewBrain creates an inactive brain for the agent described by ac.
func NewBrain(id int64, tun Tunables, runaways []Vec, ac AgentContext, logger *zap.Logger) *Brain {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Brain{
		id:       id,
		tun:      tun,
		targeter: Targeter{Runaways: NewRunawaySet(runaways)},
		ac:       ac,
		logger:   logger,
	}
	b.state = NewAgentState(tun, b.ac.position())
	b.tree = b.buildTree()
	return b
}

// OnTransition registers fn to be called after every mode change.
func (b *Brain) OnTransition(fn func(Transition)) { b.onTransition = fn }

// ID returns the monster ID the brain was created for.
func (b *Brain) ID() int64 { return b.id }

// State returns a copy of the current agent state.
func (b *Brain) State() AgentState { return b.state }

// Mode returns the active mode.
func (b *Brain) Mode() Mode { return b.state.Mode }

// Tunables returns the desired values the brain was built with.
func (b *Brain) Tunables() Tunables { return b.tun }

// Runaways returns the brain's runaway locations.
func (b *Brain) Runaways() RunawaySet { return b.targeter.Runaways }

// Tick runs the active mode's handler and issues a move toward the target.
func (b *Brain) Tick(tc *TickContext) Status {
	ctx := TickContext{}
	if tc != nil {
		ctx = *tc
	}
	ctx.Agent = b.ac.position()
	return b.tree.Tick(&ctx)
}

// ---- Activation entry points ----

// Activate wakes an inactive monster into Wander. An already active monster is
// sent after the player instead.
func (b *Brain) Activate() {
	if b.state.Mode != ModeInactive {
		b.SetFollowPlayer()
		return
	}
	b.setMode(ModeWander, CueDetected, "activated")
	b.state.GoToPlayerTotalTime = 0
}

// SetFollowPlayer forces the monster to track the player directly.
func (b *Brain) SetFollowPlayer() {
	b.enterAggressive(ModeGoToPlayer, "follow_player")
	b.state.GoToPlayerTotalTime = 0
}

// OnPlayerDeath hard-resets the monster into Wander with default radii and timers.
func (b *Brain) OnPlayerDeath() {
	b.setMode(ModeWander, "", "player_death")
	s := &b.state
	s.WanderRadius = b.tun.WanderRadius
	s.TargetPoint = b.ac.position()
	s.WanderBiasStartRadius = b.tun.WanderBiasRadius
	s.TimeSincePursue = Disarmed()
	s.GoToPlayerTotalTime = 0
}

// ---- Transitions ----

// setMode switches mode. The cue is emitted only on an actual change and
// before the mode field is overwritten.
func (b *Brain) setMode(to Mode, cue, reason string) {
	from := b.state.Mode
	if from == to {
		return
	}
	if cue != "" {
		b.ac.playCue(cue)
	}
	b.state.Mode = to
	b.logger.Debug("monster mode changed",
		zap.Int64("monster_id", b.id),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("reason", reason))
	if b.onTransition != nil {
		b.onTransition(Transition{
			MonsterID: b.id,
			From:      from,
			To:        to,
			Reason:    reason,
			Cue:       cue,
			Position:  b.ac.position(),
		})
	}
}

// enterAggressive moves into Pursue or GoToPlayer. Switching between the two is silent.
func (b *Brain) enterAggressive(to Mode, reason string) {
	cue := CueDetected
	if b.state.Mode.Aggressive() {
		cue = ""
	}
	b.setMode(to, cue, reason)
}

// enterSearch starts or restarts a search around center.
func (b *Brain) enterSearch(agent, center Vec, reason string) {
	b.setMode(ModeSearch, CueSearchLoop, reason)
	s := &b.state
	s.WanderRadius = b.tun.SearchRadius
	s.TargetPoint = agent
	s.TimeSincePursue = ArmedAt(0)
	s.SearchCenterPoint = center
}

// enterWander hands a finished search over to Wander. The pursue timer keeps
// running so the first wander target can be a long-range disengage.
func (b *Brain) enterWander(agent Vec, reason string) {
	b.setMode(ModeWander, CueIdleLoop, reason)
	s := &b.state
	s.WanderRadius = b.tun.WanderRadius
	s.TargetPoint = agent
}
