package sim

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/kasuganosora/pacdefender/game/ai"
	"github.com/kasuganosora/pacdefender/game/maze"
	"go.uber.org/zap"
)

// FramesChannel is the pub/sub channel carrying live arena frames.
const FramesChannel = "arena:frames"

// SourceArena marks results produced by the arena.
const SourceArena = "arena"

// Publisher is the subset of cache.PubSub the arena needs.
type Publisher interface {
	Publish(ctx context.Context, channel, message string) error
}

// Recorder stores finished match results.
type Recorder interface {
	Record(res Result, source string) string
}

// ArenaConfig configures the exhibition loop.
type ArenaConfig struct {
	Maze         *maze.Maze
	Rules        maze.Rules
	Controller   ai.Controller // shared with the REST handlers; nil uses default tuning
	TickInterval time.Duration
	MaxTicks     int
	Pause        time.Duration // idle time between matches
}

// Arena plays matches back to back on one maze and streams every frame.
type Arena struct {
	cfg     ArenaConfig
	pub     Publisher
	rec     Recorder
	logger  *zap.Logger
	matches atomic.Int64
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewArena creates an Arena but does not start it. pub and rec may be nil.
func NewArena(cfg ArenaConfig, pub Publisher, rec Recorder, logger *zap.Logger) *Arena {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Arena{
		cfg:    cfg,
		pub:    pub,
		rec:    rec,
		logger: logger.With(zap.String("maze", cfg.Maze.Name)),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Run loops until Stop is called. Call in a goroutine.
func (a *Arena) Run() {
	defer close(a.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-a.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ctrl := a.cfg.Controller
	if ctrl == nil {
		ctrl = ai.NewStrategy(ai.DefaultTuning(), a.logger)
	}
	for {
		g := maze.NewGame(a.cfg.Maze, a.cfg.Rules)
		res, err := Run(ctx, g, ctrl, GreedyAttacker{}, Options{
			MaxTicks:     a.cfg.MaxTicks,
			TickInterval: a.cfg.TickInterval,
			OnFrame:      func(f maze.Frame) { a.publish(ctx, f) },
		})
		if err != nil {
			a.logger.Info("arena stopped", zap.Int64("matches", a.matches.Load()))
			return
		}
		a.matches.Add(1)
		if a.rec != nil {
			a.rec.Record(res, SourceArena)
		}
		a.logger.Info("arena match finished",
			zap.String("outcome", string(res.Outcome)),
			zap.Int("ticks", res.Ticks),
			zap.Int("defender_score", res.DefenderScore))

		select {
		case <-a.stopCh:
			a.logger.Info("arena stopped", zap.Int64("matches", a.matches.Load()))
			return
		case <-time.After(a.cfg.Pause):
		}
	}
}

func (a *Arena) publish(ctx context.Context, f maze.Frame) {
	if a.pub == nil {
		return
	}
	data, err := json.Marshal(f)
	if err != nil {
		a.logger.Error("arena frame marshal failed", zap.Error(err))
		return
	}
	if err := a.pub.Publish(ctx, FramesChannel, string(data)); err != nil {
		a.logger.Warn("arena frame publish failed", zap.Error(err))
	}
}

// Stop signals the loop to exit. Safe to call more than once.
func (a *Arena) Stop() {
	select {
	case <-a.stopCh:
	default:
		close(a.stopCh)
	}
}

// Done is closed once Run has returned.
func (a *Arena) Done() <-chan struct{} { return a.doneCh }

// Matches returns the number of completed matches.
func (a *Arena) Matches() int64 { return a.matches.Load() }
