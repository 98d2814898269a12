// Package local is the in-process backend used when no Redis address is
// configured: one server, records and leaderboards kept in memory.
package local

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned for a missing key or leaderboard member.
var ErrNotFound = errors.New("local: not found")

const defaultGCInterval = 30 * time.Second

// Config holds LocalCache settings.
type Config struct {
	GCInterval time.Duration // sweep for expired match records
}

type item struct {
	data     string
	expireAt time.Time // zero means no expiry
}

func (it item) expired(now time.Time) bool {
	return !it.expireAt.IsZero() && now.After(it.expireAt)
}

// LocalCache keeps values with optional TTL and sorted leaderboards.
type LocalCache struct {
	mu     sync.RWMutex
	items  map[string]item
	boards map[string]*board

	stopOnce sync.Once
	stop     chan struct{}
}

// NewCache creates a LocalCache and starts the expiry sweeper.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = defaultGCInterval
	}
	c := &LocalCache{
		items:  make(map[string]item),
		boards: make(map[string]*board),
		stop:   make(chan struct{}),
	}
	go c.sweep(interval)
	return c, nil
}

// Close stops the sweeper. Safe to call more than once.
func (c *LocalCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *LocalCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			c.mu.Lock()
			for k, it := range c.items {
				if it.expired(now) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// ---- match records ----

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || it.expired(time.Now()) {
		return "", ErrNotFound
	}
	return it.data, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	it := item{data: value}
	if ttl > 0 {
		it.expireAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
		delete(c.boards, k)
	}
	return nil
}

// ---- leaderboards ----

type scored struct {
	member string
	score  float64
}

// before orders a leaderboard from the top: higher score first, equal scores
// by member descending, the same order Redis ZREVRANGE returns.
func (a scored) before(b scored) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.member > b.member
}

// board is kept sorted top first.
type board struct {
	entries []scored
}

func (b *board) upsert(member string, score float64) {
	for i, e := range b.entries {
		if e.member == member {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			break
		}
	}
	s := scored{member: member, score: score}
	i := sort.Search(len(b.entries), func(i int) bool { return s.before(b.entries[i]) })
	b.entries = append(b.entries, scored{})
	copy(b.entries[i+1:], b.entries[i:])
	b.entries[i] = s
}

// span resolves Redis-style start/stop (negative counts from the end) to a
// half-open index range.
func (b *board) span(start, stop int64) (int, int) {
	n := int64(len(b.entries))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return 0, 0
	}
	return int(start), int(stop) + 1
}

func (c *LocalCache) board(key string) *board {
	b, ok := c.boards[key]
	if !ok {
		b = &board{}
		c.boards[key] = b
	}
	return b
}

func (c *LocalCache) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return c.ZAddCapped(ctx, key, score, member, 0)
}

// ZAddCapped adds member and keeps only the keep highest entries. keep <= 0
// leaves the board uncapped.
func (c *LocalCache) ZAddCapped(_ context.Context, key string, score float64, member string, keep int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.board(key)
	b.upsert(member, score)
	if keep > 0 && int64(len(b.entries)) > keep {
		b.entries = b.entries[:keep]
	}
	return nil
}

func (c *LocalCache) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	members, _, err := c.ZRevRangeWithScores(ctx, key, start, stop)
	return members, err
}

// ZRevRangeWithScores returns members from the highest score down together
// with their scores.
func (c *LocalCache) ZRevRangeWithScores(_ context.Context, key string, start, stop int64) ([]string, []float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.boards[key]
	if !ok {
		return nil, nil, nil
	}
	lo, hi := b.span(start, stop)
	members := make([]string, 0, hi-lo)
	scores := make([]float64, 0, hi-lo)
	for _, e := range b.entries[lo:hi] {
		members = append(members, e.member)
		scores = append(scores, e.score)
	}
	return members, scores, nil
}

func (c *LocalCache) ZScore(_ context.Context, key, member string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if b, ok := c.boards[key]; ok {
		for _, e := range b.entries {
			if e.member == member {
				return e.score, nil
			}
		}
	}
	return 0, ErrNotFound
}
