package ai

import (
	"fmt"
	"time"
)

// NumDefenders is the fixed number of defenders controlled each tick.
const NumDefenders = 4

// Direction is a compass move code in the engine's order.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Directions lists the four compass codes in engine order.
var Directions = [4]Direction{Up, Right, Down, Left}

// Valid reports whether d is one of the four compass codes.
func (d Direction) Valid() bool {
	return d >= Up && d <= Left
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "none"
	}
}

// ParseDirection accepts the names produced by String.
func ParseDirection(s string) (Direction, bool) {
	for _, d := range Directions {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("ai: invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("ai: unknown direction %q", b)
	}
	*d = v
	return nil
}

// Node is an opaque maze position owned by the engine.
type Node interface {
	// Neighbor returns the adjacent node in direction d, if any.
	Neighbor(d Direction) (Node, bool)
	// PathDistance returns the shortest path length to other, or a negative
	// value when other is unreachable.
	PathDistance(other Node) int
}

// Attacker is the read-only view of the pursued agent.
type Attacker interface {
	Location() Node
	Direction() Direction
	// ClosestOf returns the target nearest to the attacker by path distance.
	ClosestOf(targets []Node) (Node, bool)
}

// Defender is the read-only view of one controlled agent.
type Defender interface {
	Location() Node
	// NextDir returns the move toward target (approach) or away from it.
	NextDir(target Node, approach bool) Direction
}

// Snapshot is the engine state for the current tick.
// Implemented by *maze.Game; declared here so the AI layer has no engine import.
type Snapshot interface {
	Attacker() Attacker
	Defender(i int) Defender
	// PowerPills returns the remaining power pills in engine order.
	PowerPills() []Node
}

// Controller is the engine's per-tick controller contract.
type Controller interface {
	Init(snap Snapshot)
	Update(snap Snapshot, due time.Time) [NumDefenders]Direction
	Shutdown(snap Snapshot)
}

// AIContext is passed to every behavior tree node while one defender is evaluated.
type AIContext struct {
	Snap     Snapshot
	Index    int
	NearPill bool // computed once per tick, shared by all four trees

	// Dir is written by the action node that resolves the decision.
	Dir Direction
}

// TimeNow is a test-injectable time source.
var TimeNow = time.Now
