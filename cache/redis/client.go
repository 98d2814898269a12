// Package redis is the shared backend for match records, leaderboards and
// arena frames when several server processes run against one Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for a missing key or leaderboard member.
var ErrNotFound = errors.New("redis: not found")

const (
	pingTimeout = 5 * time.Second
	streamBuf   = 256
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client serves both the cache and the pub/sub side over one connection pool.
type Client struct {
	rdb *goredis.Client
}

// New connects and pings the server.
func New(cfg Config) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error { return c.rdb.Close() }

// ---- match records ----

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// ---- leaderboards ----

func (c *Client) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return c.rdb.ZAdd(ctx, key, goredis.Z{Score: score, Member: member}).Err()
}

// ZAddCapped adds member and trims key to its keep highest scores in one
// MULTI/EXEC, so readers never see the board above its cap. keep <= 0 leaves
// the board uncapped.
func (c *Client) ZAddCapped(ctx context.Context, key string, score float64, member string, keep int64) error {
	_, err := c.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.ZAdd(ctx, key, goredis.Z{Score: score, Member: member})
		if keep > 0 {
			p.ZRemRangeByRank(ctx, key, 0, -(keep + 1))
		}
		return nil
	})
	return err
}

func (c *Client) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return c.rdb.ZRevRange(ctx, key, start, stop).Result()
}

// ZRevRangeWithScores returns members from the highest score down together
// with their scores.
func (c *Client) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]string, []float64, error) {
	zs, err := c.rdb.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, nil, err
	}
	members := make([]string, len(zs))
	scores := make([]float64, len(zs))
	for i, z := range zs {
		members[i] = fmt.Sprint(z.Member)
		scores[i] = z.Score
	}
	return members, scores, nil
}

func (c *Client) ZScore(ctx context.Context, key, member string) (float64, error) {
	v, err := c.rdb.ZScore(ctx, key, member).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, ErrNotFound
	}
	return v, err
}

// ---- arena frames ----

// Message is one received pub/sub payload.
type Message struct {
	Channel string
	Payload string
}

func (c *Client) Publish(ctx context.Context, channel, message string) error {
	return c.rdb.Publish(ctx, channel, message).Err()
}

// Subscribe waits for the server to confirm the subscription before
// returning, so a dead connection surfaces as an error here.
func (c *Client) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	ps := c.rdb.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, fmt.Errorf("redis: subscribe %v: %w", channels, err)
	}

	ch := make(chan *Message, streamBuf)
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			ch <- &Message{Channel: msg.Channel, Payload: msg.Payload}
		}
	}()
	return ch, func() { _ = ps.Close() }, nil
}
