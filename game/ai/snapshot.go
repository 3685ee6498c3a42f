package ai

// Snapshot is a read-only view of a brain for debugging and admin tooling.
type Snapshot struct {
	MonsterID           int64      `json:"monster_id"`
	Mode                string     `json:"mode"`
	Position            [3]float64 `json:"position"`
	Target              [3]float64 `json:"target"`
	SearchCenter        [3]float64 `json:"search_center"`
	WanderRadius        float64    `json:"wander_radius"`
	WanderBiasRadius    float64    `json:"wander_bias_radius"`
	TimerArmed          bool       `json:"timer_armed"`
	TimerElapsed        float64    `json:"timer_elapsed"`
	GoToPlayerTotalTime float64    `json:"go_to_player_total_time"`
	HowLongToGoToPlayer float64    `json:"how_long_to_go_to_player"`
	RunawayCount        int        `json:"runaway_count"`
}

// Snapshot captures the current state.
func (b *Brain) Snapshot() Snapshot {
	s := b.state
	elapsed, armed := s.TimeSincePursue.Elapsed()
	return Snapshot{
		MonsterID:           b.id,
		Mode:                s.Mode.String(),
		Position:            vecArray(b.ac.position()),
		Target:              vecArray(s.TargetPoint),
		SearchCenter:        vecArray(s.SearchCenterPoint),
		WanderRadius:        s.WanderRadius,
		WanderBiasRadius:    s.WanderBiasStartRadius,
		TimerArmed:          armed,
		TimerElapsed:        elapsed,
		GoToPlayerTotalTime: s.GoToPlayerTotalTime,
		HowLongToGoToPlayer: s.HowLongToGoToPlayer,
		RunawayCount:        b.targeter.Runaways.Len(),
	}
}

func vecArray(v Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
