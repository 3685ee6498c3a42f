package ai

// Tier identifies which fallback level produced a selected point.
type Tier int

const (
	TierCenter  Tier = iota // sampled around the requested center
	TierSelf                // sampled around the agent itself
	TierRunaway             // closest runaway location
)

func (t Tier) String() string {
	switch t {
	case TierCenter:
		return "center"
	case TierSelf:
		return "self"
	default:
		return "runaway"
	}
}

// Selection is the result of SelectPoint.
type Selection struct {
	Point Vec
	Tier  Tier
}

// Targeter chooses reachable destinations with a three-tier fallback.
type Targeter struct {
	Runaways RunawaySet
}

// SelectPoint samples a reachable point within radius of center and keeps it only if the
// agent has a full path to it. On rejection it retries around the agent, then falls back to
// the closest runaway location. It always returns a point.
func (t Targeter) SelectPoint(nav SpatialQuery, agent, center Vec, radius float64) Selection {
	if p, ok := t.sample(nav, agent, center, radius); ok {
		return Selection{Point: p, Tier: TierCenter}
	}
	if p, ok := t.sample(nav, agent, agent, radius); ok {
		return Selection{Point: p, Tier: TierSelf}
	}
	return Selection{Point: t.Runaways.Closest(agent), Tier: TierRunaway}
}

func (t Targeter) sample(nav SpatialQuery, agent, center Vec, radius float64) (Vec, bool) {
	if nav == nil {
		return Vec{}, false
	}
	p, found := nav.SampleReachablePoint(center, radius)
	if !found {
		return Vec{}, false
	}
	return p, nav.ComputePath(agent, p).Usable()
}

// PathUsable reports whether nav has a complete path from one point to another.
// A nil nav never has one.
func PathUsable(nav SpatialQuery, from, to Vec) bool {
	if nav == nil {
		return false
	}
	return nav.ComputePath(from, to).Usable()
}
