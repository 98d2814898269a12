package maze

import (
	"fmt"

	"github.com/kasuganosora/pacdefender/game/ai"
)

// Scoring.
const (
	PelletScore   = 10
	PillScore     = 50
	DefenderScore = 200
)

// Rules are the per-match game constants.
type Rules struct {
	EdibleTicks int
	LairTicks   int
	Lives       int
}

// DefaultRules returns the standard constants.
func DefaultRules() Rules {
	return Rules{EdibleTicks: 40, LairTicks: 10, Lives: 3}
}

func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if r.EdibleTicks <= 0 {
		r.EdibleTicks = def.EdibleTicks
	}
	if r.LairTicks < 0 {
		r.LairTicks = 0
	}
	if r.Lives <= 0 {
		r.Lives = def.Lives
	}
	return r
}

type agent struct {
	loc   *Node
	dir   ai.Direction
	start *Node
}

type defenderState struct {
	agent
	edible int // ticks left
	lair   int // ticks left before it may move again
}

// Game is the mutable state of one match. It implements ai.Snapshot and is
// not safe for concurrent use.
type Game struct {
	m     *Maze
	rules Rules

	att     agent
	defs    [ai.NumDefenders]defenderState
	pellets map[int]bool
	pills   []*Node

	tick     int
	score    int
	lives    int
	captures int
	eaten    int
}

var _ ai.Snapshot = (*Game)(nil)

// NewGame starts a match with every agent on its spawn cell and all food in place.
func NewGame(m *Maze, rules Rules) *Game {
	rules = rules.withDefaults()
	g := &Game{
		m:       m,
		rules:   rules,
		att:     agent{loc: m.attackerStart, dir: ai.Left, start: m.attackerStart},
		pellets: make(map[int]bool, len(m.pellets)),
		pills:   m.PowerPills(),
		lives:   rules.Lives,
	}
	for _, p := range m.pellets {
		g.pellets[p.idx] = true
	}
	for i := range g.defs {
		s := m.defenderStarts[i]
		g.defs[i] = defenderState{agent: agent{loc: s, dir: ai.Up, start: s}}
	}
	return g
}

// Placement positions agents explicitly. A nil Pills keeps the maze's pills.
type Placement struct {
	Attacker  Point
	Facing    ai.Direction
	Defenders [ai.NumDefenders]Point
	Pills     []Point
}

// Place builds a game from an explicit placement.
func (m *Maze) Place(p Placement, rules Rules) (*Game, error) {
	g := NewGame(m, rules)
	n, ok := m.At(p.Attacker.X, p.Attacker.Y)
	if !ok {
		return nil, fmt.Errorf("attacker at (%d,%d): %w", p.Attacker.X, p.Attacker.Y, ErrOffMaze)
	}
	g.att.loc = n
	g.att.dir = p.Facing
	for i, pt := range p.Defenders {
		n, ok := m.At(pt.X, pt.Y)
		if !ok {
			return nil, fmt.Errorf("defender %d at (%d,%d): %w", i, pt.X, pt.Y, ErrOffMaze)
		}
		g.defs[i].loc = n
	}
	if p.Pills != nil {
		g.pills = g.pills[:0]
		for _, pt := range p.Pills {
			n, ok := m.At(pt.X, pt.Y)
			if !ok {
				return nil, fmt.Errorf("pill at (%d,%d): %w", pt.X, pt.Y, ErrOffMaze)
			}
			g.pills = append(g.pills, n)
		}
	}
	return g, nil
}

// ---- ai.Snapshot ----

type attackerView struct{ g *Game }

func (v attackerView) Location() ai.Node       { return v.g.att.loc }
func (v attackerView) Direction() ai.Direction { return v.g.att.dir }
func (v attackerView) ClosestOf(targets []ai.Node) (ai.Node, bool) {
	return v.g.m.ClosestOf(v.g.att.loc, targets)
}

type defenderView struct {
	g *Game
	i int
}

func (v defenderView) Location() ai.Node { return v.g.defs[v.i].loc }

// NextDir keeps the current heading when the defender is boxed in.
func (v defenderView) NextDir(target ai.Node, approach bool) ai.Direction {
	d := v.g.defs[v.i]
	if dir, ok := v.g.m.NextDir(d.loc, target, approach); ok {
		return dir
	}
	return d.dir
}

func (g *Game) Attacker() ai.Attacker      { return attackerView{g: g} }
func (g *Game) Defender(i int) ai.Defender { return defenderView{g: g, i: i} }

func (g *Game) PowerPills() []ai.Node {
	out := make([]ai.Node, len(g.pills))
	for i, p := range g.pills {
		out[i] = p
	}
	return out
}

// ---- accessors ----

func (g *Game) Maze() *Maze         { return g.m }
func (g *Game) Tick() int           { return g.tick }
func (g *Game) Score() int          { return g.score }
func (g *Game) Lives() int          { return g.lives }
func (g *Game) Captures() int       { return g.captures }
func (g *Game) DefendersEaten() int { return g.eaten }
func (g *Game) PillsLeft() int      { return len(g.pills) }
func (g *Game) PelletsLeft() int    { return len(g.pellets) }

// AttackerNode returns the attacker's current cell.
func (g *Game) AttackerNode() *Node { return g.att.loc }

// AttackerFacing returns the attacker's heading.
func (g *Game) AttackerFacing() ai.Direction { return g.att.dir }

// DefenderNode returns defender i's current cell.
func (g *Game) DefenderNode(i int) *Node { return g.defs[i].loc }

// Edible reports whether defender i can be eaten this tick.
func (g *Game) Edible(i int) bool { return g.defs[i].edible > 0 }

// InLair reports whether defender i is waiting to respawn.
func (g *Game) InLair(i int) bool { return g.defs[i].lair > 0 }

// Food returns every remaining pellet and power pill.
func (g *Game) Food() []*Node {
	out := make([]*Node, 0, len(g.pellets)+len(g.pills))
	for _, n := range g.m.pellets {
		if g.pellets[n.idx] {
			out = append(out, n)
		}
	}
	return append(out, g.pills...)
}

// Over reports whether the match has ended.
func (g *Game) Over() bool {
	return g.lives <= 0 || (len(g.pellets) == 0 && len(g.pills) == 0)
}

// Step advances one tick. Invalid or blocked attacker moves keep the current
// heading; invalid or blocked defender moves leave the defender in place.
func (g *Game) Step(attackerDir ai.Direction, defenderDirs [ai.NumDefenders]ai.Direction) {
	if g.Over() {
		return
	}
	g.tick++

	g.moveAttacker(attackerDir)
	g.eat()
	if g.resolveCollisions() {
		return
	}

	for i := range g.defs {
		d := &g.defs[i]
		if d.lair > 0 {
			d.lair--
			continue
		}
		if d.edible > 0 {
			d.edible--
			if g.tick%2 == 1 {
				continue
			}
		}
		dir := defenderDirs[i]
		if next, ok := d.loc.Neighbor(dir); ok {
			d.loc = next.(*Node)
			d.dir = dir
		}
	}
	g.resolveCollisions()
}

func (g *Game) moveAttacker(dir ai.Direction) {
	if next, ok := g.att.loc.Neighbor(dir); ok {
		g.att.loc = next.(*Node)
		g.att.dir = dir
		return
	}
	if next, ok := g.att.loc.Neighbor(g.att.dir); ok {
		g.att.loc = next.(*Node)
	}
}

func (g *Game) eat() {
	idx := g.att.loc.idx
	if g.pellets[idx] {
		delete(g.pellets, idx)
		g.score += PelletScore
	}
	for k, p := range g.pills {
		if p.idx != idx {
			continue
		}
		g.pills = append(g.pills[:k], g.pills[k+1:]...)
		g.score += PillScore
		for i := range g.defs {
			if g.defs[i].lair == 0 {
				g.defs[i].edible = g.rules.EdibleTicks
			}
		}
		return
	}
}

// resolveCollisions runs after each half-step, so agents cannot pass through
// each other. It returns true when the attacker was caught.
func (g *Game) resolveCollisions() bool {
	for i := range g.defs {
		d := &g.defs[i]
		if d.lair > 0 || d.loc != g.att.loc {
			continue
		}
		if d.edible > 0 {
			g.eaten++
			g.score += DefenderScore
			d.loc, d.dir = d.start, ai.Up
			d.edible = 0
			d.lair = g.rules.LairTicks
			continue
		}
		g.captures++
		g.lives--
		g.resetPositions()
		return true
	}
	return false
}

func (g *Game) resetPositions() {
	g.att.loc, g.att.dir = g.att.start, ai.Left
	for i := range g.defs {
		d := &g.defs[i]
		d.loc, d.dir = d.start, ai.Up
		d.edible, d.lair = 0, 0
	}
}

// AgentFrame is one agent's position in a Frame.
type AgentFrame struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Dir    string `json:"dir"`
	Edible bool   `json:"edible,omitempty"`
	InLair bool   `json:"in_lair,omitempty"`
}

// Frame is a JSON-friendly view of the game.
type Frame struct {
	Maze        string       `json:"maze"`
	Tick        int          `json:"tick"`
	Score       int          `json:"score"`
	Lives       int          `json:"lives"`
	Attacker    AgentFrame   `json:"attacker"`
	Defenders   []AgentFrame `json:"defenders"`
	Pills       []Point      `json:"pills"`
	PelletsLeft int          `json:"pellets_left"`
}

// Frame captures the current state.
func (g *Game) Frame() Frame {
	f := Frame{
		Maze:        g.m.Name,
		Tick:        g.tick,
		Score:       g.score,
		Lives:       g.lives,
		Attacker:    AgentFrame{X: g.att.loc.X, Y: g.att.loc.Y, Dir: g.att.dir.String()},
		Defenders:   make([]AgentFrame, len(g.defs)),
		Pills:       make([]Point, len(g.pills)),
		PelletsLeft: len(g.pellets),
	}
	for i, d := range g.defs {
		f.Defenders[i] = AgentFrame{
			X: d.loc.X, Y: d.loc.Y, Dir: d.dir.String(),
			Edible: d.edible > 0, InLair: d.lair > 0,
		}
	}
	for i, p := range g.pills {
		f.Pills[i] = p.Point()
	}
	return f
}
