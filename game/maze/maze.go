package maze

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kasuganosora/pacdefender/game/ai"
)

// Layout characters.
const (
	CellWall     = '#'
	CellPellet   = '.'
	CellPill     = 'o'
	CellEmpty    = ' '
	CellAttacker = 'P'
	CellDefender = 'G'
)

var (
	ErrEmptyLayout       = errors.New("layout has no rows")
	ErrRaggedRows        = errors.New("layout rows differ in width")
	ErrUnknownCell       = errors.New("unknown layout character")
	ErrNoAttackerStart   = errors.New("layout has no attacker start")
	ErrMultipleAttackers = errors.New("layout has more than one attacker start")
	ErrNoDefenderStart   = errors.New("layout has no defender start")
	ErrTooManyDefenders  = errors.New("layout has more than four defender starts")
	ErrOffMaze           = errors.New("position is a wall or outside the maze")
)

// Point is a grid coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Maze is an immutable grid graph. Path distances are memoised, so one Maze
// may back many concurrent games.
type Maze struct {
	Name          string
	Width, Height int

	nodes          []*Node // y*Width+x; nil for walls
	adj            [][4]int
	pellets        []*Node
	pills          []*Node
	attackerStart  *Node
	defenderStarts [ai.NumDefenders]*Node

	mu    sync.Mutex
	dists map[int][]int32 // target index -> distance from every cell
}

// Node is one walkable cell. It implements ai.Node.
type Node struct {
	m    *Maze
	X, Y int
	idx  int
}

var _ ai.Node = (*Node)(nil)

// Point returns the node's grid coordinate.
func (n *Node) Point() Point { return Point{X: n.X, Y: n.Y} }

// Neighbor returns the adjacent walkable cell in direction d.
func (n *Node) Neighbor(d ai.Direction) (ai.Node, bool) {
	if !d.Valid() {
		return nil, false
	}
	j := n.m.adj[n.idx][d]
	if j < 0 {
		return nil, false
	}
	return n.m.nodes[j], true
}

// PathDistance returns the number of steps to other, or -1 when other is
// unreachable or belongs to another maze.
func (n *Node) PathDistance(other ai.Node) int {
	o, ok := other.(*Node)
	if !ok || o == nil || o.m != n.m {
		return -1
	}
	return int(n.m.distancesTo(o.idx)[n.idx])
}

// Parse builds a Maze from layout rows.
func Parse(name string, rows []string) (*Maze, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("maze %q: %w", name, ErrEmptyLayout)
	}
	w := len(rows[0])
	if w == 0 {
		return nil, fmt.Errorf("maze %q: %w", name, ErrEmptyLayout)
	}
	m := &Maze{
		Name:   name,
		Width:  w,
		Height: len(rows),
		nodes:  make([]*Node, w*len(rows)),
		dists:  make(map[int][]int32),
	}

	var starts []*Node
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("maze %q row %d: %w", name, y, ErrRaggedRows)
		}
		for x := 0; x < w; x++ {
			c := row[x]
			if c == CellWall {
				continue
			}
			n := &Node{m: m, X: x, Y: y, idx: y*w + x}
			m.nodes[n.idx] = n
			switch c {
			case CellPellet:
				m.pellets = append(m.pellets, n)
			case CellPill, 'O':
				m.pills = append(m.pills, n)
			case CellAttacker:
				if m.attackerStart != nil {
					return nil, fmt.Errorf("maze %q: %w", name, ErrMultipleAttackers)
				}
				m.attackerStart = n
			case CellDefender:
				starts = append(starts, n)
			case CellEmpty:
			default:
				return nil, fmt.Errorf("maze %q (%d,%d) %q: %w", name, x, y, c, ErrUnknownCell)
			}
		}
	}

	if m.attackerStart == nil {
		return nil, fmt.Errorf("maze %q: %w", name, ErrNoAttackerStart)
	}
	switch {
	case len(starts) == 0:
		return nil, fmt.Errorf("maze %q: %w", name, ErrNoDefenderStart)
	case len(starts) > ai.NumDefenders:
		return nil, fmt.Errorf("maze %q: %w", name, ErrTooManyDefenders)
	}
	for i := range m.defenderStarts {
		m.defenderStarts[i] = starts[min(i, len(starts)-1)]
	}

	m.buildAdjacency()
	return m, nil
}

// dirOffsets is indexed by ai.Direction.
var dirOffsets = [4]Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// buildAdjacency links walkable cells. Rows wrap horizontally (tunnels);
// columns do not.
func (m *Maze) buildAdjacency() {
	m.adj = make([][4]int, len(m.nodes))
	for i, n := range m.nodes {
		m.adj[i] = [4]int{-1, -1, -1, -1}
		if n == nil {
			continue
		}
		for d, off := range dirOffsets {
			nx, ny := n.X+off.X, n.Y+off.Y
			if ny < 0 || ny >= m.Height {
				continue
			}
			nx = (nx + m.Width) % m.Width
			j := ny*m.Width + nx
			if j == i || m.nodes[j] == nil {
				continue
			}
			m.adj[i][d] = j
		}
	}
}

// At returns the walkable node at (x, y).
func (m *Maze) At(x, y int) (*Node, bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return nil, false
	}
	n := m.nodes[y*m.Width+x]
	return n, n != nil
}

// AttackerStart returns the attacker's spawn cell.
func (m *Maze) AttackerStart() *Node { return m.attackerStart }

// DefenderStart returns defender i's spawn cell.
func (m *Maze) DefenderStart(i int) *Node { return m.defenderStarts[i] }

// PowerPills returns the initial power pills in reading order.
func (m *Maze) PowerPills() []*Node { return append([]*Node(nil), m.pills...) }

// PelletCount returns the initial number of pellets.
func (m *Maze) PelletCount() int { return len(m.pellets) }
