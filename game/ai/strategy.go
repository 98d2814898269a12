package ai

import (
	"time"

	"go.uber.org/zap"
)

// Role is the static behavior assigned to a defender index.
type Role int

const (
	RoleIntercept Role = iota // predict the attacker and cut it off
	RoleChase                 // direct pursuit
	RolePatrol                // guard a power pill
	RoleFlee                  // run from the attacker
)

func (r Role) String() string {
	switch r {
	case RoleIntercept:
		return "intercept"
	case RoleChase:
		return "chase"
	case RolePatrol:
		return "patrol"
	case RoleFlee:
		return "flee"
	default:
		return "unknown"
	}
}

// DefaultRoles is the role table by defender index. Roles never change during a game.
var DefaultRoles = [NumDefenders]Role{RoleIntercept, RoleChase, RolePatrol, RolePatrol}

// sacrificeIndex keeps chasing while the others flee near a power pill.
const sacrificeIndex = 1

// Tuning holds the strategy thresholds.
type Tuning struct {
	NearPillDistance int
	FallbackDistance int
	Lookahead        int
}

// DefaultTuning returns the standard thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		NearPillDistance: 50,
		FallbackDistance: 10,
		Lookahead:        4,
	}
}

func (t Tuning) withDefaults() Tuning {
	def := DefaultTuning()
	if t.NearPillDistance <= 0 {
		t.NearPillDistance = def.NearPillDistance
	}
	if t.FallbackDistance <= 0 {
		t.FallbackDistance = def.FallbackDistance
	}
	if t.Lookahead <= 0 {
		t.Lookahead = def.Lookahead
	}
	return t
}

// Strategy decides one move per defender each tick. It keeps no per-tick
// state, so a single Strategy may serve concurrent matches.
type Strategy struct {
	tuning Tuning
	roles  [NumDefenders]Role
	trees  [NumDefenders]*BehaviorTree
	logger *zap.Logger
}

var _ Controller = (*Strategy)(nil)

// NewStrategy builds the per-defender behavior trees from DefaultRoles.
func NewStrategy(t Tuning, logger *zap.Logger) *Strategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Strategy{
		tuning: t.withDefaults(),
		roles:  DefaultRoles,
		logger: logger,
	}
	for i := range s.trees {
		s.trees[i] = s.buildTree(i)
	}
	return s
}

// Tuning returns the effective thresholds.
func (s *Strategy) Tuning() Tuning { return s.tuning }

// Roles returns the role table.
func (s *Strategy) Roles() [NumDefenders]Role { return s.roles }

// Init is a no-op; it exists to satisfy Controller.
func (s *Strategy) Init(Snapshot) {}

// Shutdown is a no-op; it exists to satisfy Controller.
func (s *Strategy) Shutdown(Snapshot) {}

// Update decides the tick. due is informational only.
func (s *Strategy) Update(snap Snapshot, due time.Time) [NumDefenders]Direction {
	out := s.Decide(snap)
	if !due.IsZero() && TimeNow().After(due) {
		s.logger.Debug("defender decision finished past deadline", zap.Time("due", due))
	}
	return out
}

// Decide returns one direction per defender index.
func (s *Strategy) Decide(snap Snapshot) [NumDefenders]Direction {
	var out [NumDefenders]Direction
	near := NearPowerPill(snap, s.tuning.NearPillDistance)
	for i := range out {
		ctx := &AIContext{Snap: snap, Index: i, NearPill: near}
		if s.trees[i].Tick(ctx) != StatusSuccess {
			// Every tree ends in an unconditional chase; kept so Decide stays total.
			ctx.Dir = Chase(snap, i)
		}
		out[i] = ctx.Dir
	}
	return out
}

// buildTree: near-pill override first, then the index's role.
func (s *Strategy) buildTree(i int) *BehaviorTree {
	override := RoleFlee
	if i == sacrificeIndex {
		override = RoleChase
	}
	return &BehaviorTree{Root: &Selector{Children: []BTNode{
		&Sequence{Children: []BTNode{
			&ConditionNode{Fn: func(ctx *AIContext) bool { return ctx.NearPill }},
			s.roleNode(override),
		}},
		s.roleNode(s.roles[i]),
	}}}
}

func (s *Strategy) roleNode(r Role) BTNode {
	switch r {
	case RoleFlee:
		return &ActionNode{Fn: func(ctx *AIContext) (Direction, bool) {
			return Flee(ctx.Snap, ctx.Index), true
		}}
	case RoleIntercept:
		return s.interceptNode()
	case RolePatrol:
		return &Selector{Children: []BTNode{
			&ActionNode{Fn: func(ctx *AIContext) (Direction, bool) {
				return Patrol(ctx.Snap, ctx.Index)
			}},
			s.fallbackNode(),
		}}
	default:
		return chaseNode()
	}
}

func chaseNode() BTNode {
	return &ActionNode{Fn: func(ctx *AIContext) (Direction, bool) {
		return Chase(ctx.Snap, ctx.Index), true
	}}
}

// interceptNode falls back to a direct chase when the prediction runs off the maze.
func (s *Strategy) interceptNode() BTNode {
	return &Selector{Children: []BTNode{
		&ActionNode{Fn: func(ctx *AIContext) (Direction, bool) {
			d, ok := Intercept(ctx.Snap, ctx.Index, s.tuning.Lookahead)
			if !ok {
				s.logger.Debug("intercept target unavailable, chasing",
					zap.Int("defender", ctx.Index))
			}
			return d, ok
		}},
		chaseNode(),
	}}
}

// fallbackNode is used by patrollers with nothing left to guard.
func (s *Strategy) fallbackNode() BTNode {
	return &Selector{Children: []BTNode{
		&Sequence{Children: []BTNode{
			&ConditionNode{Fn: func(ctx *AIContext) bool {
				return FarFromAttacker(ctx.Snap, ctx.Index, s.tuning.FallbackDistance)
			}},
			s.interceptNode(),
		}},
		chaseNode(),
	}}
}
