package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/pacdefender/cache"
	mw "github.com/kasuganosora/pacdefender/middleware"
	"github.com/kasuganosora/pacdefender/model"
	"github.com/kasuganosora/pacdefender/record"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RankingHandler handles leaderboard REST endpoints.
type RankingHandler struct {
	db          *gorm.DB
	cache       cache.Cache
	defaultMaze string
	logger      *zap.Logger
}

// NewRankingHandler creates a RankingHandler.
func NewRankingHandler(db *gorm.DB, c cache.Cache, defaultMaze string, logger *zap.Logger) *RankingHandler {
	return &RankingHandler{db: db, cache: c, defaultMaze: defaultMaze, logger: logger}
}

// RankEntry is one row in the leaderboard.
type RankEntry struct {
	Rank          int    `json:"rank"`
	MatchID       string `json:"match_id"`
	DefenderScore int    `json:"defender_score"`
	Outcome       string `json:"outcome,omitempty"`
	Ticks         int    `json:"ticks,omitempty"`
	Captures      int    `json:"captures,omitempty"`
	Source        string `json:"source,omitempty"`
}

// Top returns the best matches on a maze by defender score.
// GET /api/ranking?maze=classic&limit=20
func (h *RankingHandler) Top(c *gin.Context) {
	mazeName := c.DefaultQuery("maze", h.defaultMaze)
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= record.RankingTop {
		limit = l
	}
	key := record.RankingKey(mazeName)

	ctx := c.Request.Context()
	log := mw.RequestLogger(c, h.logger).With(zap.String("maze", mazeName))

	members, scores, err := h.cache.ZRevRangeWithScores(ctx, key, 0, int64(limit-1))
	if err != nil {
		log.Warn("ranking cache read failed, using DB", zap.Error(err))
	}
	if len(members) > 0 {
		entries := make([]RankEntry, len(members))
		for i, m := range members {
			entries[i] = RankEntry{Rank: i + 1, MatchID: m, DefenderScore: int(scores[i])}
		}
		if err := h.enrich(c, entries); err != nil {
			log.Warn("ranking enrich failed", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"maze": mazeName, "ranking": entries})
		return
	}

	// Cold leaderboard: read the DB and warm the sorted set.
	var recs []model.MatchRecord
	err = h.db.WithContext(ctx).
		Select("id, outcome, ticks, captures, source, defender_score").
		Where("maze = ?", mazeName).
		Order("defender_score DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		log.Error("ranking query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	entries := make([]RankEntry, len(recs))
	for i, r := range recs {
		entries[i] = entryFrom(i+1, &r)
		if err := h.cache.ZAddCapped(ctx, key, float64(r.DefenderScore), r.ID, record.RankingTop); err != nil {
			log.Warn("ranking cache refresh failed", zap.String("match_id", r.ID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"maze": mazeName, "ranking": entries})
}

func entryFrom(rank int, r *model.MatchRecord) RankEntry {
	return RankEntry{
		Rank:          rank,
		MatchID:       r.ID,
		DefenderScore: r.DefenderScore,
		Outcome:       r.Outcome,
		Ticks:         r.Ticks,
		Captures:      r.Captures,
		Source:        r.Source,
	}
}

// enrich fills match details for ids already flushed to the DB. Entries
// still queued for writing keep their id and score only.
func (h *RankingHandler) enrich(c *gin.Context, entries []RankEntry) error {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.MatchID
	}
	var recs []model.MatchRecord
	err := h.db.WithContext(c.Request.Context()).
		Select("id, outcome, ticks, captures, source, defender_score").
		Where("id IN ?", ids).
		Find(&recs).Error
	if err != nil {
		return err
	}
	byID := make(map[string]*model.MatchRecord, len(recs))
	for i := range recs {
		byID[recs[i].ID] = &recs[i]
	}
	for i := range entries {
		if r, ok := byID[entries[i].MatchID]; ok {
			entries[i] = entryFrom(entries[i].Rank, r)
		}
	}
	return nil
}
