package ai

// Status is the result of a behavior tree node tick.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "running"
	}
}

// Node is a single node in a behavior tree.
type Node interface {
	Tick(ctx *TickContext) Status
}

// ---- Composite nodes ----

// Selector succeeds as soon as one child succeeds (logical OR).
type Selector struct {
	Children []Node
}

func (s *Selector) Tick(ctx *TickContext) Status {
	for _, c := range s.Children {
		switch c.Tick(ctx) {
		case StatusSuccess:
			return StatusSuccess
		case StatusRunning:
			return StatusRunning
		}
	}
	return StatusFailure
}

// Sequence succeeds only when all children succeed (logical AND).
type Sequence struct {
	Children []Node
}

func (s *Sequence) Tick(ctx *TickContext) Status {
	for _, c := range s.Children {
		switch c.Tick(ctx) {
		case StatusFailure:
			return StatusFailure
		case StatusRunning:
			return StatusRunning
		}
	}
	return StatusSuccess
}

// ---- Leaf nodes ----

// ConditionNode evaluates a boolean predicate.
type ConditionNode struct {
	Fn func(*TickContext) bool
}

func (cn *ConditionNode) Tick(ctx *TickContext) Status {
	if cn.Fn(ctx) {
		return StatusSuccess
	}
	return StatusFailure
}

// ActionNode executes an action and returns its status.
type ActionNode struct {
	Fn func(*TickContext) Status
}

func (an *ActionNode) Tick(ctx *TickContext) Status {
	return an.Fn(ctx)
}

// ---- BehaviorTree root ----

// BehaviorTree wraps the root node.
type BehaviorTree struct {
	Root Node
}

// Tick runs one frame of the behavior tree.
func (bt *BehaviorTree) Tick(ctx *TickContext) Status {
	if bt.Root == nil {
		return StatusFailure
	}
	return bt.Root.Tick(ctx)
}

// buildTree wires one branch per mode followed by the move task.
// Only the branch whose mode is active when the selector reaches it runs.
// Inactive matches no branch, so no move is issued.
func (b *Brain) buildTree() *BehaviorTree {
	branch := func(m Mode, handler func(*TickContext)) Node {
		return &Sequence{Children: []Node{
			&ConditionNode{Fn: func(*TickContext) bool { return b.state.Mode == m }},
			&ActionNode{Fn: func(ctx *TickContext) Status {
				handler(ctx)
				return StatusSuccess
			}},
		}}
	}
	return &BehaviorTree{Root: &Sequence{Children: []Node{
		&Selector{Children: []Node{
			branch(ModeGoToPlayer, b.tickGoToPlayer),
			branch(ModePursue, b.tickPursue),
			branch(ModeSearch, b.tickSearch),
			branch(ModeWander, b.tickWander),
		}},
		&ActionNode{Fn: b.issueMove},
	}}}
}
