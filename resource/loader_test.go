package resource

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kasuganosora/pacdefender/game/maze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tinyRows = []string{
	"#####",
	"#P.G#",
	"#####",
}

// writeJSON writes v as JSON to dir/filename.
func writeJSON(t *testing.T, dir, filename string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0644))
}

func TestLoader_Load_Success(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "b.json", MazeFile{Name: "beta", Rows: tinyRows})
	writeJSON(t, dir, "alpha.json", MazeFile{Rows: tinyRows})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0644))

	rl := NewLoader(dir)
	require.NoError(t, rl.Load())

	assert.Equal(t, []string{"alpha", "beta"}, rl.Names())
	m, err := rl.Maze("beta")
	require.NoError(t, err)
	assert.Equal(t, 5, m.Width)
	assert.Equal(t, "beta", m.Name)
}

func TestLoader_UnknownMaze(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "a.json", MazeFile{Name: "a", Rows: tinyRows})
	rl := NewLoader(dir)
	require.NoError(t, rl.Load())

	_, err := rl.Maze("nope")
	assert.ErrorIs(t, err, ErrUnknownMaze)
}

func TestLoader_MissingDir(t *testing.T) {
	rl := NewLoader(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, rl.Load())
}

func TestLoader_EmptyDir(t *testing.T) {
	rl := NewLoader(t.TempDir())
	err := rl.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no maze layouts")
}

func TestLoader_BadJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))

	err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.json")
}

func TestLoader_BadLayout(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "bad.json", MazeFile{Name: "bad", Rows: []string{"#.G#"}})

	err := NewLoader(dir).Load()
	assert.ErrorIs(t, err, maze.ErrNoAttackerStart)
}

func TestLoader_DuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "one.json", MazeFile{Name: "same", Rows: tinyRows})
	writeJSON(t, dir, "two.json", MazeFile{Name: "same", Rows: tinyRows})

	err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoader_ShippedMazes(t *testing.T) {
	rl := NewLoader(filepath.Join("..", "data", "mazes"))
	require.NoError(t, rl.Load())

	assert.Equal(t, []string{"arcade", "classic", "ring"}, rl.Names())
	for _, name := range rl.Names() {
		m, err := rl.Maze(name)
		require.NoError(t, err)
		assert.NotEmpty(t, m.PowerPills(), name)
		// Every pill must be reachable from the attacker start.
		for _, p := range m.PowerPills() {
			assert.Positive(t, m.AttackerStart().PathDistance(p), name)
		}
	}

	arcade, err := rl.Maze("arcade")
	require.NoError(t, err)
	assert.Equal(t, 53, arcade.Width)
	assert.Equal(t, 59, arcade.Height)
	assert.Len(t, arcade.PowerPills(), 4)
}
