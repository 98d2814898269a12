package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/pacdefender/game/ai"
	"github.com/kasuganosora/pacdefender/game/maze"
	"github.com/kasuganosora/pacdefender/game/sim"
	mw "github.com/kasuganosora/pacdefender/middleware"
	"github.com/kasuganosora/pacdefender/model"
	"github.com/kasuganosora/pacdefender/record"
	"github.com/kasuganosora/pacdefender/resource"
	"go.uber.org/zap"
)

// MatchSettings bounds on-demand matches.
type MatchSettings struct {
	DefaultMaze string
	MaxTicks    int
	Timeout     time.Duration
	Rules       maze.Rules
}

// MatchHandler runs and looks up simulated matches.
type MatchHandler struct {
	res    *resource.ResourceLoader
	strat  *ai.Strategy
	rec    *record.Service
	cfg    MatchSettings
	logger *zap.Logger
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(res *resource.ResourceLoader, strat *ai.Strategy, rec *record.Service, cfg MatchSettings, logger *zap.Logger) *MatchHandler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &MatchHandler{res: res, strat: strat, rec: rec, cfg: cfg, logger: logger}
}

// CreateMatchRequest is the optional body of POST /api/matches.
type CreateMatchRequest struct {
	Maze     string `json:"maze"`
	MaxTicks int    `json:"max_ticks" binding:"omitempty,min=1"`
}

// Create plays one match synchronously and records it.
// POST /api/matches
func (h *MatchHandler) Create(c *gin.Context) {
	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := req.Maze
	if name == "" {
		name = h.cfg.DefaultMaze
	}
	m, err := h.res.Maze(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown maze"})
		return
	}
	maxTicks := h.cfg.MaxTicks
	if req.MaxTicks > 0 && (maxTicks <= 0 || req.MaxTicks < maxTicks) {
		maxTicks = req.MaxTicks
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.Timeout)
	defer cancel()
	res, err := sim.Run(ctx, maze.NewGame(m, h.cfg.Rules), h.strat, sim.GreedyAttacker{}, sim.Options{MaxTicks: maxTicks})
	if err != nil {
		mw.RequestLogger(c, h.logger).Warn("match aborted",
			zap.String("maze", name), zap.Int("ticks", res.Ticks), zap.Error(err))
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "match timed out"})
		return
	}

	id := h.rec.Record(res, model.SourceAPI)
	mw.RequestLogger(c, h.logger).Info("match finished",
		zap.String("id", id),
		zap.String("maze", name),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("defender_score", res.DefenderScore))
	c.JSON(http.StatusCreated, gin.H{"id": id, "result": res})
}

// Get returns a recorded match.
// GET /api/matches/:id
func (h *MatchHandler) Get(c *gin.Context) {
	rec, err := h.rec.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, record.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}
	if err != nil {
		mw.RequestLogger(c, h.logger).Error("match lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, rec)
}
