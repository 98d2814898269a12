// Package record persists finished matches and keeps the per-maze
// leaderboards in the cache.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/pacdefender/cache"
	"github.com/kasuganosora/pacdefender/game/sim"
	"github.com/kasuganosora/pacdefender/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned by Get for unknown match ids.
var ErrNotFound = errors.New("record: match not found")

const (
	// RankingTop bounds every leaderboard.
	RankingTop = 100

	batchSize     = 100
	flushInterval = 2 * time.Second
	cacheTimeout  = 2 * time.Second
)

// RankingKey is the leaderboard sorted set for a maze.
func RankingKey(maze string) string { return "ranking:" + maze }

// MatchKey caches one serialized MatchRecord.
func MatchKey(id string) string { return "match:" + id }

// Service writes match records asynchronously in batches.
type Service struct {
	db       *gorm.DB
	cache    cache.Cache
	matchTTL time.Duration
	ch       chan *model.MatchRecord
	stopCh   chan struct{}
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// New creates a Service and starts its background worker.
func New(db *gorm.DB, c cache.Cache, matchTTL time.Duration, logger *zap.Logger) *Service {
	svc := &Service{
		db:       db,
		cache:    c,
		matchTTL: matchTTL,
		ch:       make(chan *model.MatchRecord, 1024),
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// NewRecord converts a simulator result into a row.
func NewRecord(id string, res sim.Result, source string) *model.MatchRecord {
	final, _ := json.Marshal(res.Final)
	return &model.MatchRecord{
		ID:             id,
		Maze:           res.Maze,
		Outcome:        string(res.Outcome),
		Ticks:          res.Ticks,
		Captures:       res.Captures,
		DefendersEaten: res.DefendersEaten,
		AttackerScore:  res.AttackerScore,
		DefenderScore:  res.DefenderScore,
		PillsLeft:      res.PillsLeft,
		PelletsLeft:    res.PelletsLeft,
		Final:          datatypes.JSON(final),
		DurationMs:     res.Duration.Milliseconds(),
		Source:         source,
		CreatedAt:      time.Now(),
	}
}

// Record assigns an id to res, makes it visible in the cache and the
// leaderboard right away, and enqueues the DB write. It returns the id.
func (svc *Service) Record(res sim.Result, source string) string {
	rec := NewRecord(uuid.NewString(), res, source)

	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	if data, err := json.Marshal(rec); err == nil {
		if err := svc.cache.Set(ctx, MatchKey(rec.ID), string(data), svc.matchTTL); err != nil {
			svc.logger.Warn("match cache write failed", zap.String("id", rec.ID), zap.Error(err))
		}
	}
	svc.addToRanking(ctx, rec)

	select {
	case svc.ch <- rec:
	default:
		svc.logger.Warn("record channel full, dropping match",
			zap.String("id", rec.ID), zap.String("maze", rec.Maze))
	}
	return rec.ID
}

func (svc *Service) addToRanking(ctx context.Context, rec *model.MatchRecord) {
	err := svc.cache.ZAddCapped(ctx, RankingKey(rec.Maze), float64(rec.DefenderScore), rec.ID, RankingTop)
	if err != nil {
		svc.logger.Warn("ranking update failed",
			zap.String("maze", rec.Maze), zap.String("id", rec.ID), zap.Error(err))
	}
}

// Get returns a match from the cache, falling back to the DB.
func (svc *Service) Get(ctx context.Context, id string) (*model.MatchRecord, error) {
	if data, err := svc.cache.Get(ctx, MatchKey(id)); err == nil {
		var rec model.MatchRecord
		if err := json.Unmarshal([]byte(data), &rec); err == nil {
			return &rec, nil
		}
	}
	var rec model.MatchRecord
	err := svc.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RebuildRanking reloads every maze's leaderboard from the DB. Called
// periodically by the scheduler.
func (svc *Service) RebuildRanking(ctx context.Context) (int, error) {
	var mazes []string
	if err := svc.db.WithContext(ctx).Model(&model.MatchRecord{}).Distinct("maze").Pluck("maze", &mazes).Error; err != nil {
		return 0, err
	}
	total := 0
	for _, maze := range mazes {
		var recs []model.MatchRecord
		err := svc.db.WithContext(ctx).Select("id, maze, defender_score").
			Where("maze = ?", maze).
			Order("defender_score DESC").
			Limit(RankingTop).
			Find(&recs).Error
		if err != nil {
			return total, err
		}
		for i := range recs {
			svc.addToRanking(ctx, &recs[i])
		}
		total += len(recs)
	}
	return total, nil
}

// Stop flushes remaining records and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.MatchRecord, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("match batch write failed", zap.Int("count", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-svc.ch:
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining records.
			for {
				select {
				case rec := <-svc.ch:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}
