package sim

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/kasuganosora/pacdefender/game/ai"
	"github.com/kasuganosora/pacdefender/game/maze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, rows ...string) *maze.Maze {
	t.Helper()
	m, err := maze.Parse("test", rows)
	require.NoError(t, err)
	return m
}

func fixed(d ai.Direction) AttackerPolicy {
	return AttackerFunc(func(*maze.Game) ai.Direction { return d })
}

// stubController returns the same directions every tick and counts lifecycle calls.
type stubController struct {
	dirs      [ai.NumDefenders]ai.Direction
	inits     int
	shutdowns int
	dues      []time.Time
}

func (c *stubController) Init(ai.Snapshot)     { c.inits++ }
func (c *stubController) Shutdown(ai.Snapshot) { c.shutdowns++ }
func (c *stubController) Update(_ ai.Snapshot, due time.Time) [ai.NumDefenders]ai.Direction {
	c.dues = append(c.dues, due)
	return c.dirs
}

func allDirs(d ai.Direction) [ai.NumDefenders]ai.Direction {
	return [ai.NumDefenders]ai.Direction{d, d, d, d}
}

// ---- Run ----

func TestRun_TickLimit(t *testing.T) {
	// Nobody can move: the attacker faces a wall and defenders push into one.
	m := mustParse(t,
		"#####",
		"#P.G#",
		"#o###",
		"#####",
	)
	ctrl := &stubController{dirs: allDirs(ai.Up)}
	frames := 0

	res, err := Run(context.Background(), maze.NewGame(m, maze.DefaultRules()), ctrl, fixed(ai.Left), Options{
		MaxTicks: 5,
		OnFrame:  func(maze.Frame) { frames++ },
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeTickLimit, res.Outcome)
	assert.Equal(t, 5, res.Ticks)
	assert.Equal(t, 5, frames)
	assert.Equal(t, 1, res.PillsLeft)
	assert.Equal(t, 1, res.PelletsLeft)
	assert.Equal(t, 51, res.DefenderScore)
	assert.Equal(t, "test", res.Maze)
	assert.Equal(t, 1, ctrl.inits)
	assert.Equal(t, 1, ctrl.shutdowns)
	assert.Len(t, ctrl.dues, 5)
}

func TestRun_Cleared(t *testing.T) {
	m := mustParse(t, "#P.G#")
	res, err := Run(context.Background(), maze.NewGame(m, maze.DefaultRules()),
		&stubController{dirs: allDirs(ai.Up)}, fixed(ai.Right), Options{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeCleared, res.Outcome)
	assert.Equal(t, 1, res.Ticks)
	assert.Equal(t, maze.PelletScore, res.AttackerScore)
	assert.Zero(t, res.DefenderScore)
	assert.Equal(t, 2, res.Final.Attacker.X)
}

func TestRun_Caught(t *testing.T) {
	m := mustParse(t, "#P G.#")
	res, err := Run(context.Background(), maze.NewGame(m, maze.Rules{Lives: 1}),
		&stubController{dirs: allDirs(ai.Left)}, fixed(ai.Right), Options{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeCaught, res.Outcome)
	assert.Equal(t, 1, res.Ticks)
	assert.Equal(t, 1, res.Captures)
	assert.Equal(t, DefenderScore(1, 0, 1), res.DefenderScore)
	assert.Equal(t, 201, res.DefenderScore)
}

func TestRun_Cancelled(t *testing.T) {
	m := mustParse(t, "#P.G#")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctrl := &stubController{dirs: allDirs(ai.Up)}

	res, err := Run(ctx, maze.NewGame(m, maze.DefaultRules()), ctrl, fixed(ai.Right), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Zero(t, res.Ticks)
	assert.Equal(t, 1, ctrl.shutdowns, "shutdown runs on cancellation too")
}

func TestRun_PacedCancellation(t *testing.T) {
	m := mustParse(t,
		"#####",
		"#P.G#",
		"#o###",
		"#####",
	)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	res, err := Run(ctx, maze.NewGame(m, maze.DefaultRules()), &stubController{dirs: allDirs(ai.Up)}, fixed(ai.Left), Options{
		MaxTicks:     1000,
		TickInterval: 5 * time.Millisecond,
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, res.Ticks, 1000)
}

func TestRun_DeadlineIsInTheFuture(t *testing.T) {
	m := mustParse(t, "#P.G#")
	ctrl := &stubController{dirs: allDirs(ai.Up)}
	before := time.Now()
	_, err := Run(context.Background(), maze.NewGame(m, maze.DefaultRules()), ctrl, fixed(ai.Right), Options{Deadline: time.Second})
	require.NoError(t, err)
	require.Len(t, ctrl.dues, 1)
	assert.True(t, ctrl.dues[0].After(before.Add(500*time.Millisecond)))
}

func TestRun_StrategyAgainstGreedy(t *testing.T) {
	m := mustParse(t,
		"#########",
		"#o..P..o#",
		"#.##.##.#",
		"#...G...#",
		"#########",
	)
	strat := ai.NewStrategy(ai.DefaultTuning(), nil)
	res, err := Run(context.Background(), maze.NewGame(m, maze.DefaultRules()), strat, GreedyAttacker{}, Options{MaxTicks: 300})
	require.NoError(t, err)

	assert.Contains(t, []Outcome{OutcomeCaught, OutcomeCleared, OutcomeTickLimit}, res.Outcome)
	assert.LessOrEqual(t, res.Ticks, 300)
	assert.Len(t, res.Final.Defenders, ai.NumDefenders)
}

// ---- GreedyAttacker ----

func TestGreedy_NearestFood(t *testing.T) {
	m := mustParse(t,
		"##########",
		"# P..  G #",
		"##########",
	)
	g := maze.NewGame(m, maze.DefaultRules())
	assert.Equal(t, ai.Right, GreedyAttacker{Danger: 2}.Next(g))
}

func TestGreedy_EvadesDanger(t *testing.T) {
	m := mustParse(t,
		"##########",
		"# P..  G #",
		"##########",
	)
	g := maze.NewGame(m, maze.DefaultRules())
	assert.Equal(t, ai.Left, GreedyAttacker{Danger: 6}.Next(g))
}

func TestGreedy_HuntsEdible(t *testing.T) {
	m := mustParse(t,
		"##########",
		"#.oP    G#",
		"##########",
	)
	g := maze.NewGame(m, maze.DefaultRules())
	g.Step(ai.Left, allDirs(ai.Up))
	require.True(t, g.Edible(0))

	assert.Equal(t, ai.Right, GreedyAttacker{}.Next(g), "edible defender within range")
	assert.Equal(t, ai.Left, GreedyAttacker{Hunt: 3}.Next(g), "out of hunting range: back to food")
}

func TestGreedy_NoFoodKeepsHeading(t *testing.T) {
	m := mustParse(t, "#P G#")
	g := maze.NewGame(m, maze.DefaultRules())
	assert.Equal(t, ai.Left, GreedyAttacker{Danger: 1}.Next(g))
}

// ---- Arena ----

type memPublisher struct {
	mu   sync.Mutex
	msgs []string
}

func (p *memPublisher) Publish(_ context.Context, channel, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if channel == FramesChannel {
		p.msgs = append(p.msgs, message)
	}
	return nil
}

func (p *memPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

type memRecorder struct {
	mu      sync.Mutex
	results []Result
	sources []string
}

func (r *memRecorder) Record(res Result, source string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	r.sources = append(r.sources, source)
	return "id"
}

func (r *memRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func TestArena_RunsAndStops(t *testing.T) {
	pub := &memPublisher{}
	rec := &memRecorder{}
	a := NewArena(ArenaConfig{
		Maze:         mustParse(t, "#P.G#"),
		Rules:        maze.DefaultRules(),
		TickInterval: time.Millisecond,
		MaxTicks:     10,
		Pause:        time.Millisecond,
	}, pub, rec, nil)

	go a.Run()
	require.Eventually(t, func() bool { return rec.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	a.Stop()
	a.Stop()

	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("arena did not stop")
	}

	assert.GreaterOrEqual(t, a.Matches(), int64(2))
	assert.GreaterOrEqual(t, pub.count(), 2)

	rec.mu.Lock()
	assert.Equal(t, SourceArena, rec.sources[0])
	assert.Equal(t, 1, rec.results[0].Ticks)
	rec.mu.Unlock()

	pub.mu.Lock()
	var f maze.Frame
	require.NoError(t, json.Unmarshal([]byte(pub.msgs[0]), &f))
	pub.mu.Unlock()
	assert.Equal(t, "test", f.Maze)
	assert.Equal(t, 1, f.Tick)
}

func TestArena_UsesSharedController(t *testing.T) {
	ctrl := &lockedController{}
	rec := &memRecorder{}
	a := NewArena(ArenaConfig{
		Maze:         mustParse(t, "#P.G#"),
		Rules:        maze.DefaultRules(),
		Controller:   ctrl,
		TickInterval: time.Millisecond,
		MaxTicks:     3,
		Pause:        time.Millisecond,
	}, nil, rec, nil)

	go a.Run()
	require.Eventually(t, func() bool { return rec.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	a.Stop()
	<-a.Done()

	inits, updates := ctrl.counts()
	assert.GreaterOrEqual(t, inits, 2, "one Init per match on the same controller")
	assert.GreaterOrEqual(t, updates, 2)
}

// lockedController counts calls from the arena goroutine.
type lockedController struct {
	mu      sync.Mutex
	inits   int
	updates int
}

func (c *lockedController) Init(ai.Snapshot) {
	c.mu.Lock()
	c.inits++
	c.mu.Unlock()
}

func (c *lockedController) Shutdown(ai.Snapshot) {}

func (c *lockedController) Update(ai.Snapshot, time.Time) [ai.NumDefenders]ai.Direction {
	c.mu.Lock()
	c.updates++
	c.mu.Unlock()
	return allDirs(ai.Left)
}

func (c *lockedController) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inits, c.updates
}
