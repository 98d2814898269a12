package sim

import (
	"context"
	"time"

	"github.com/kasuganosora/pacdefender/game/ai"
	"github.com/kasuganosora/pacdefender/game/maze"
)

// Outcome is how a match ended.
type Outcome string

const (
	OutcomeCaught    Outcome = "caught"     // attacker ran out of lives
	OutcomeCleared   Outcome = "cleared"    // attacker ate all food
	OutcomeTickLimit Outcome = "tick_limit" // MaxTicks reached
	OutcomeCancelled Outcome = "cancelled"  // context done before the end
)

const (
	defaultMaxTicks = 2000
	defaultDeadline = 40 * time.Millisecond
)

// Options controls a single match.
type Options struct {
	MaxTicks     int
	TickInterval time.Duration // 0 runs as fast as possible
	Deadline     time.Duration // per-tick decision budget passed to Update
	OnFrame      func(maze.Frame)
}

func (o Options) withDefaults() Options {
	if o.MaxTicks <= 0 {
		o.MaxTicks = defaultMaxTicks
	}
	if o.Deadline <= 0 {
		o.Deadline = defaultDeadline
	}
	return o
}

// Result summarises a finished (or cancelled) match.
type Result struct {
	Maze           string        `json:"maze"`
	Outcome        Outcome       `json:"outcome"`
	Ticks          int           `json:"ticks"`
	Captures       int           `json:"captures"`
	DefendersEaten int           `json:"defenders_eaten"`
	AttackerScore  int           `json:"attacker_score"`
	DefenderScore  int           `json:"defender_score"`
	PillsLeft      int           `json:"pills_left"`
	PelletsLeft    int           `json:"pellets_left"`
	Duration       time.Duration `json:"duration_ns"`
	Final          maze.Frame    `json:"final"`
}

// DefenderScore rates the defenders: captures dominate, then uneaten food.
func DefenderScore(captures, pillsLeft, pelletsLeft int) int {
	return captures*maze.DefenderScore + pillsLeft*maze.PillScore + pelletsLeft
}

// Run plays g to the end with ctrl driving the defenders. On context
// cancellation it returns the partial result together with ctx.Err().
func Run(ctx context.Context, g *maze.Game, ctrl ai.Controller, attacker AttackerPolicy, opts Options) (Result, error) {
	opts = opts.withDefaults()
	start := time.Now()

	ctrl.Init(g)
	defer ctrl.Shutdown(g)

	var tickC <-chan time.Time
	if opts.TickInterval > 0 {
		ticker := time.NewTicker(opts.TickInterval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	var err error
loop:
	for !g.Over() && g.Tick() < opts.MaxTicks {
		if tickC != nil {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break loop
			case <-tickC:
			}
		} else if err = ctx.Err(); err != nil {
			break
		}

		defenders := ctrl.Update(g, time.Now().Add(opts.Deadline))
		g.Step(attacker.Next(g), defenders)
		if opts.OnFrame != nil {
			opts.OnFrame(g.Frame())
		}
	}

	res := summarize(g, time.Since(start))
	if err != nil {
		res.Outcome = OutcomeCancelled
	}
	return res, err
}

func summarize(g *maze.Game, elapsed time.Duration) Result {
	res := Result{
		Maze:           g.Maze().Name,
		Ticks:          g.Tick(),
		Captures:       g.Captures(),
		DefendersEaten: g.DefendersEaten(),
		AttackerScore:  g.Score(),
		PillsLeft:      g.PillsLeft(),
		PelletsLeft:    g.PelletsLeft(),
		Duration:       elapsed,
		Final:          g.Frame(),
	}
	res.DefenderScore = DefenderScore(res.Captures, res.PillsLeft, res.PelletsLeft)
	switch {
	case g.Lives() <= 0:
		res.Outcome = OutcomeCaught
	case res.PillsLeft == 0 && res.PelletsLeft == 0:
		res.Outcome = OutcomeCleared
	default:
		res.Outcome = OutcomeTickLimit
	}
	return res
}
