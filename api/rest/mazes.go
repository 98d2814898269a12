package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/pacdefender/game/ai"
	"github.com/kasuganosora/pacdefender/game/maze"
	"github.com/kasuganosora/pacdefender/resource"
)

// MazeHandler serves the loaded maze layouts.
type MazeHandler struct {
	res *resource.ResourceLoader
}

// NewMazeHandler creates a MazeHandler.
func NewMazeHandler(res *resource.ResourceLoader) *MazeHandler {
	return &MazeHandler{res: res}
}

// MazeInfo describes one layout.
type MazeInfo struct {
	Name      string       `json:"name"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Attacker  maze.Point   `json:"attacker"`
	Defenders []maze.Point `json:"defenders"`
	Pills     []maze.Point `json:"pills"`
	Pellets   int          `json:"pellets"`
}

// List returns the maze names.
// GET /api/mazes
func (h *MazeHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mazes": h.res.Names()})
}

// Get returns one maze's dimensions and spawn points.
// GET /api/mazes/:name
func (h *MazeHandler) Get(c *gin.Context) {
	m, err := h.res.Maze(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "maze not found"})
		return
	}
	pills := m.PowerPills()
	info := MazeInfo{
		Name:      m.Name,
		Width:     m.Width,
		Height:    m.Height,
		Attacker:  m.AttackerStart().Point(),
		Defenders: make([]maze.Point, ai.NumDefenders),
		Pills:     make([]maze.Point, 0, len(pills)),
		Pellets:   m.PelletCount(),
	}
	for i := range info.Defenders {
		info.Defenders[i] = m.DefenderStart(i).Point()
	}
	for _, p := range pills {
		info.Pills = append(info.Pills, p.Point())
	}
	c.JSON(http.StatusOK, info)
}
