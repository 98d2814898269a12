package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kasuganosora/pacdefender/game/maze"
)

// ErrUnknownMaze is returned by Maze for names that were never loaded.
var ErrUnknownMaze = errors.New("resource: unknown maze")

// MazeFile is the on-disk layout document.
type MazeFile struct {
	Name string   `json:"name"`
	Rows []string `json:"rows"`
}

// ResourceLoader holds every maze parsed from DataPath. It is read-only after Load.
type ResourceLoader struct {
	DataPath string
	Mazes    map[string]*maze.Maze
}

// NewLoader creates a ResourceLoader for the given directory.
func NewLoader(dataPath string) *ResourceLoader {
	return &ResourceLoader{
		DataPath: dataPath,
		Mazes:    make(map[string]*maze.Maze),
	}
}

// Load parses every *.json layout in DataPath. A file without a name uses its
// base file name.
func (rl *ResourceLoader) Load() error {
	entries, err := os.ReadDir(rl.DataPath)
	if err != nil {
		return fmt.Errorf("resource: read dir %s: %w", rl.DataPath, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(rl.DataPath, e.Name())
		var mf MazeFile
		if err := loadJSONObject(path, &mf); err != nil {
			return err
		}
		if mf.Name == "" {
			mf.Name = strings.TrimSuffix(e.Name(), ".json")
		}
		if _, dup := rl.Mazes[mf.Name]; dup {
			return fmt.Errorf("resource: %s: duplicate maze name %q", path, mf.Name)
		}
		m, err := maze.Parse(mf.Name, mf.Rows)
		if err != nil {
			return fmt.Errorf("resource: %s: %w", path, err)
		}
		rl.Mazes[mf.Name] = m
	}
	if len(rl.Mazes) == 0 {
		return fmt.Errorf("resource: no maze layouts in %s", rl.DataPath)
	}
	return nil
}

// Maze returns the named maze.
func (rl *ResourceLoader) Maze(name string) (*maze.Maze, error) {
	m, ok := rl.Mazes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMaze, name)
	}
	return m, nil
}

// Names returns the loaded maze names in sorted order.
func (rl *ResourceLoader) Names() []string {
	names := make([]string, 0, len(rl.Mazes))
	for name := range rl.Mazes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadJSONObject[T any](path string, out *T) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("resource: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("resource: parse %s: %w", path, err)
	}
	return nil
}
