// Package sim runs defender controllers against a scripted attacker on the
// reference maze engine.
package sim

import (
	"github.com/kasuganosora/pacdefender/game/ai"
	"github.com/kasuganosora/pacdefender/game/maze"
)

// AttackerPolicy picks the attacker's move for the current tick.
type AttackerPolicy interface {
	Next(g *maze.Game) ai.Direction
}

// AttackerFunc adapts a function to AttackerPolicy.
type AttackerFunc func(g *maze.Game) ai.Direction

func (f AttackerFunc) Next(g *maze.Game) ai.Direction { return f(g) }

// GreedyAttacker runs from the closest dangerous defender, hunts edible ones in
// range, and otherwise walks to the nearest remaining food.
type GreedyAttacker struct {
	Danger int // evade non-edible defenders at or within this distance
	Hunt   int // chase edible defenders at or within this distance
}

const (
	defaultDanger = 4
	defaultHunt   = 8
)

func (a GreedyAttacker) Next(g *maze.Game) ai.Direction {
	danger, hunt := a.Danger, a.Hunt
	if danger <= 0 {
		danger = defaultDanger
	}
	if hunt <= 0 {
		hunt = defaultHunt
	}

	m := g.Maze()
	at := g.AttackerNode()

	var threat, prey *maze.Node
	threatDist, preyDist := 0, 0
	for i := 0; i < ai.NumDefenders; i++ {
		if g.InLair(i) {
			continue
		}
		d := g.DefenderNode(i)
		dist := at.PathDistance(d)
		if dist < 0 {
			continue
		}
		if g.Edible(i) {
			if dist <= hunt && (prey == nil || dist < preyDist) {
				prey, preyDist = d, dist
			}
			continue
		}
		if dist <= danger && (threat == nil || dist < threatDist) {
			threat, threatDist = d, dist
		}
	}

	if threat != nil {
		if dir, ok := m.NextDir(at, threat, false); ok {
			return dir
		}
	}
	if prey != nil {
		if dir, ok := m.NextDir(at, prey, true); ok {
			return dir
		}
	}

	food := g.Food()
	targets := make([]ai.Node, len(food))
	for i, n := range food {
		targets[i] = n
	}
	if target, ok := m.ClosestOf(at, targets); ok {
		if dir, ok := m.NextDir(at, target, true); ok {
			return dir
		}
	}
	return g.AttackerFacing()
}
