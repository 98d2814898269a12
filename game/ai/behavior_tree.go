package ai

// Status is the outcome of ticking a tree node. Every decision completes
// within one tick, so there is no running state.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
)

// BTNode is one node of a defender's decision tree.
type BTNode interface {
	Tick(ctx *AIContext) Status
}

// Selector tries children in order and stops at the first success.
type Selector struct {
	Children []BTNode
}

func (s *Selector) Tick(ctx *AIContext) Status {
	for _, c := range s.Children {
		if c.Tick(ctx) == StatusSuccess {
			return StatusSuccess
		}
	}
	return StatusFailure
}

// Sequence runs children in order and stops at the first failure. A guard
// condition followed by an action is the usual shape.
type Sequence struct {
	Children []BTNode
}

func (s *Sequence) Tick(ctx *AIContext) Status {
	for _, c := range s.Children {
		if c.Tick(ctx) == StatusFailure {
			return StatusFailure
		}
	}
	return StatusSuccess
}

// ConditionNode succeeds when Fn holds for the current snapshot.
type ConditionNode struct {
	Fn func(*AIContext) bool
}

func (cn *ConditionNode) Tick(ctx *AIContext) Status {
	if cn.Fn(ctx) {
		return StatusSuccess
	}
	return StatusFailure
}

// ActionNode picks a direction and stores it in ctx.Dir. It fails when its
// target is unavailable so an enclosing Selector falls through.
type ActionNode struct {
	Fn func(*AIContext) (Direction, bool)
}

func (an *ActionNode) Tick(ctx *AIContext) Status {
	d, ok := an.Fn(ctx)
	if !ok {
		return StatusFailure
	}
	ctx.Dir = d
	return StatusSuccess
}

// BehaviorTree is the per-defender root.
type BehaviorTree struct {
	Root BTNode
}

func (bt *BehaviorTree) Tick(ctx *AIContext) Status {
	if bt.Root == nil {
		return StatusFailure
	}
	return bt.Root.Tick(ctx)
}
