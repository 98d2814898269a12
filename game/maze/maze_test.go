package maze

import (
	"testing"

	"github.com/kasuganosora/pacdefender/game/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopRows is a ring corridor with two pills and a single shared defender start.
var loopRows = []string{
	"#######",
	"#P...o#",
	"#.###.#",
	"#o.G..#",
	"#######",
}

func mustParse(t *testing.T, rows []string) *Maze {
	t.Helper()
	m, err := Parse("test", rows)
	require.NoError(t, err)
	return m
}

func mustAt(t *testing.T, m *Maze, x, y int) *Node {
	t.Helper()
	n, ok := m.At(x, y)
	require.True(t, ok, "(%d,%d) should be walkable", x, y)
	return n
}

// ---- Parse ----

func TestParse_Loop(t *testing.T) {
	m := mustParse(t, loopRows)
	assert.Equal(t, 7, m.Width)
	assert.Equal(t, 5, m.Height)
	assert.Equal(t, Point{1, 1}, m.AttackerStart().Point())
	for i := 0; i < ai.NumDefenders; i++ {
		assert.Equal(t, Point{3, 3}, m.DefenderStart(i).Point(), "defender %d shares the only start", i)
	}
	pills := m.PowerPills()
	require.Len(t, pills, 2)
	assert.Equal(t, Point{5, 1}, pills[0].Point(), "pills are in reading order")
	assert.Equal(t, Point{1, 3}, pills[1].Point())
	assert.Equal(t, 8, m.PelletCount())
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		rows []string
		want error
	}{
		{"empty", nil, ErrEmptyLayout},
		{"blank row", []string{""}, ErrEmptyLayout},
		{"ragged", []string{"#P#", "#G"}, ErrRaggedRows},
		{"unknown cell", []string{"#PGx#"}, ErrUnknownCell},
		{"no attacker", []string{"#.G#"}, ErrNoAttackerStart},
		{"two attackers", []string{"#PPG#"}, ErrMultipleAttackers},
		{"no defender", []string{"#P.#"}, ErrNoDefenderStart},
		{"five defenders", []string{"#PGGGGG#"}, ErrTooManyDefenders},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("bad", tc.rows)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// ---- Graph ----

func TestNeighbor(t *testing.T) {
	m := mustParse(t, loopRows)
	start := m.AttackerStart()

	right, ok := start.Neighbor(ai.Right)
	require.True(t, ok)
	assert.Equal(t, Point{2, 1}, right.(*Node).Point())

	_, ok = start.Neighbor(ai.Up)
	assert.False(t, ok, "wall above")
	_, ok = start.Neighbor(ai.Direction(7))
	assert.False(t, ok, "invalid direction")
}

func TestNeighbor_TunnelWraps(t *testing.T) {
	m := mustParse(t, []string{
		"#####",
		"P.G..",
		"#####",
	})
	west := mustAt(t, m, 0, 1)
	east := mustAt(t, m, 4, 1)

	n, ok := west.Neighbor(ai.Left)
	require.True(t, ok)
	assert.Same(t, east, n)
	assert.Equal(t, 1, west.PathDistance(east))
}

func TestPathDistance(t *testing.T) {
	m := mustParse(t, loopRows)
	start := m.AttackerStart()

	assert.Equal(t, 0, start.PathDistance(start))
	assert.Equal(t, 4, start.PathDistance(mustAt(t, m, 5, 1)))
	assert.Equal(t, 2, start.PathDistance(mustAt(t, m, 1, 3)))
	assert.Equal(t, 4, start.PathDistance(m.DefenderStart(0)))
	assert.Equal(t, start.PathDistance(mustAt(t, m, 4, 3)), mustAt(t, m, 4, 3).PathDistance(start))

	other := mustParse(t, loopRows)
	assert.Equal(t, -1, start.PathDistance(other.AttackerStart()), "foreign maze")
}

func TestPathDistance_Unreachable(t *testing.T) {
	m := mustParse(t, []string{
		"#P#G#",
	})
	assert.Equal(t, -1, m.AttackerStart().PathDistance(m.DefenderStart(0)))
}

func TestNextDir_ApproachAndEvade(t *testing.T) {
	m := mustParse(t, loopRows)
	from := mustAt(t, m, 2, 1)
	target := mustAt(t, m, 1, 3)

	d, ok := m.NextDir(from, target, true)
	require.True(t, ok)
	assert.Equal(t, ai.Left, d)

	d, ok = m.NextDir(from, target, false)
	require.True(t, ok)
	assert.Equal(t, ai.Right, d)
}

func TestNextDir_TieTakesEngineOrder(t *testing.T) {
	m := mustParse(t, loopRows)
	// (5,3) is opposite the start on the ring: six steps either way. Right
	// comes before Down in engine order.
	from := m.AttackerStart()
	target := mustAt(t, m, 5, 3)
	require.Equal(t, 6, from.PathDistance(target))

	d, ok := m.NextDir(from, target, true)
	require.True(t, ok)
	assert.Equal(t, ai.Right, d)
}

func TestNextDir_Isolated(t *testing.T) {
	m := mustParse(t, []string{"#P#G#"})
	_, ok := m.NextDir(m.AttackerStart(), m.DefenderStart(0), true)
	assert.False(t, ok)
}

func TestClosestOf(t *testing.T) {
	m := mustParse(t, loopRows)
	pills := []ai.Node{mustAt(t, m, 5, 1), mustAt(t, m, 1, 3)}

	got, ok := m.ClosestOf(m.AttackerStart(), pills)
	require.True(t, ok)
	assert.Equal(t, Point{1, 3}, got.(*Node).Point())

	_, ok = m.ClosestOf(m.AttackerStart(), nil)
	assert.False(t, ok)
}
