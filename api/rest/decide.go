package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/pacdefender/game/ai"
	"github.com/kasuganosora/pacdefender/game/maze"
	mw "github.com/kasuganosora/pacdefender/middleware"
	"github.com/kasuganosora/pacdefender/resource"
	"go.uber.org/zap"
)

// DecideHandler answers one-off strategy queries for a posed position.
type DecideHandler struct {
	res    *resource.ResourceLoader
	strat  *ai.Strategy
	rules  maze.Rules
	logger *zap.Logger
}

// NewDecideHandler creates a DecideHandler.
func NewDecideHandler(res *resource.ResourceLoader, strat *ai.Strategy, rules maze.Rules, logger *zap.Logger) *DecideHandler {
	return &DecideHandler{res: res, strat: strat, rules: rules, logger: logger}
}

// AttackerState is the attacker's cell and heading.
type AttackerState struct {
	X   int    `json:"x"`
	Y   int    `json:"y"`
	Dir string `json:"dir" binding:"required"`
}

// DecideRequest poses a position on a loaded maze. A missing pills list keeps
// the maze's own pills; an empty list means all were eaten.
type DecideRequest struct {
	Maze      string        `json:"maze" binding:"required"`
	Attacker  AttackerState `json:"attacker"`
	Defenders []maze.Point  `json:"defenders" binding:"required"`
	Pills     *[]maze.Point `json:"pills"`
}

// DecideResponse carries one direction per defender index.
type DecideResponse struct {
	Directions [ai.NumDefenders]ai.Direction `json:"directions"`
	NearPill   bool                          `json:"near_pill"`
}

// Decide runs the strategy once.
// POST /api/decide
func (h *DecideHandler) Decide(c *gin.Context) {
	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.res.Maze(req.Maze)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown maze"})
		return
	}
	if len(req.Defenders) != ai.NumDefenders {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly 4 defender positions required"})
		return
	}
	facing, ok := ai.ParseDirection(req.Attacker.Dir)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attacker dir"})
		return
	}

	p := maze.Placement{
		Attacker: maze.Point{X: req.Attacker.X, Y: req.Attacker.Y},
		Facing:   facing,
	}
	copy(p.Defenders[:], req.Defenders)
	if req.Pills != nil {
		p.Pills = append([]maze.Point{}, *req.Pills...)
	}
	g, err := m.Place(p, h.rules)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dirs := h.strat.Decide(g)
	mw.RequestLogger(c, h.logger).Debug("decide",
		zap.String("maze", m.Name),
		zap.Stringers("directions", dirs[:]))
	c.JSON(http.StatusOK, DecideResponse{
		Directions: dirs,
		NearPill:   ai.NearPowerPill(g, h.strat.Tuning().NearPillDistance),
	})
}
