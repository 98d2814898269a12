package ai

import "fmt"

// fakeNode is a hand-wired graph vertex. Unset distances default to 1.
type fakeNode struct {
	name string
	nbr  map[Direction]*fakeNode
	dist map[*fakeNode]int
}

func newNode(name string) *fakeNode {
	return &fakeNode{name: name, nbr: map[Direction]*fakeNode{}, dist: map[*fakeNode]int{}}
}

func (n *fakeNode) Neighbor(d Direction) (Node, bool) {
	m, ok := n.nbr[d]
	if !ok {
		return nil, false
	}
	return m, true
}

func (n *fakeNode) PathDistance(other Node) int {
	o := other.(*fakeNode)
	if o == n {
		return 0
	}
	if d, ok := n.dist[o]; ok {
		return d
	}
	return 1
}

func (n *fakeNode) String() string { return n.name }

// chain links steps fresh nodes after n along d and returns the last one.
func chain(n *fakeNode, d Direction, steps int) *fakeNode {
	cur := n
	for k := 1; k <= steps; k++ {
		next := newNode(fmt.Sprintf("%s/%s%d", n.name, d, k))
		cur.nbr[d] = next
		cur = next
	}
	return cur
}

type route struct {
	target   *fakeNode
	approach bool
}

// fakeDefender answers NextDir from a fixed route table; unknown routes return
// an invalid direction so a wrong target is visible in assertions.
type fakeDefender struct {
	loc   *fakeNode
	moves map[route]Direction
}

func (d *fakeDefender) Location() Node { return d.loc }

func (d *fakeDefender) NextDir(target Node, approach bool) Direction {
	if dir, ok := d.moves[route{target.(*fakeNode), approach}]; ok {
		return dir
	}
	return Direction(-1)
}

func (d *fakeDefender) toward(target *fakeNode, dir Direction) {
	d.moves[route{target, true}] = dir
}

type fakeAttacker struct {
	loc    *fakeNode
	facing Direction
}

func (a *fakeAttacker) Location() Node       { return a.loc }
func (a *fakeAttacker) Direction() Direction { return a.facing }

func (a *fakeAttacker) ClosestOf(targets []Node) (Node, bool) {
	var best Node
	bestDist := -1
	for _, t := range targets {
		d := a.loc.PathDistance(t)
		if d < 0 {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = t, d
		}
	}
	return best, best != nil
}

// scene is a Snapshot where every defender chases Up and flees Down.
type scene struct {
	att   *fakeAttacker
	defs  [NumDefenders]*fakeDefender
	pills []Node
}

func newScene() *scene {
	a := newNode("attacker")
	s := &scene{att: &fakeAttacker{loc: a, facing: Down}}
	for i := range s.defs {
		s.defs[i] = &fakeDefender{
			loc: newNode(fmt.Sprintf("defender%d", i)),
			moves: map[route]Direction{
				{a, true}:  Up,
				{a, false}: Down,
			},
		}
	}
	return s
}

func (s *scene) Attacker() Attacker      { return s.att }
func (s *scene) Defender(i int) Defender { return s.defs[i] }
func (s *scene) PowerPills() []Node      { return s.pills }

// addPill appends a pill at the given path distance from the attacker.
func (s *scene) addPill(name string, dist int) *fakeNode {
	p := newNode(name)
	s.att.loc.dist[p] = dist
	s.pills = append(s.pills, p)
	return p
}

// setDefenderDistance sets defender i's path distance to the attacker.
func (s *scene) setDefenderDistance(i, dist int) {
	s.defs[i].loc.dist[s.att.loc] = dist
}
