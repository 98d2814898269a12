// Package cache provides the KV, leaderboard and pub/sub backends: Redis when
// an address is configured, otherwise an in-process implementation.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kasuganosora/pacdefender/cache/local"
	cacheredis "github.com/kasuganosora/pacdefender/cache/redis"
	"github.com/kasuganosora/pacdefender/config"
)

// Cache holds cached match records and per-maze leaderboards.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error

	ZAdd(ctx context.Context, key string, score float64, member string) error
	// ZAddCapped adds member and trims key to its keep highest scores atomically.
	ZAddCapped(ctx context.Context, key string, score float64, member string, keep int64) error
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]string, []float64, error)
	ZScore(ctx context.Context, key, member string) (float64, error)
}

// Message is a received pub/sub message.
type Message struct {
	Channel string
	Payload string
}

// PubSub fans arena frames out to stream subscribers.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	// Subscribe returns the message stream and a cancel function. cancel may
	// be called more than once; the stream is closed after it.
	Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error)
}

const defaultPubSubBuf = 256

func pubSubBuf(cfg config.CacheConfig) int {
	if cfg.LocalPubSubBuf > 0 {
		return cfg.LocalPubSubBuf
	}
	return defaultPubSubBuf
}

// Open returns the Cache and PubSub for cfg: both share one Redis client when
// cfg.RedisAddr is set, otherwise both are in-process.
func Open(cfg config.CacheConfig) (Cache, PubSub, error) {
	buf := pubSubBuf(cfg)
	if cfg.RedisAddr != "" {
		rc, err := cacheredis.New(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rc, &pubSub[*cacheredis.Message]{
			publish:   rc.Publish,
			subscribe: rc.Subscribe,
			convert: func(m *cacheredis.Message) *Message {
				return &Message{Channel: m.Channel, Payload: m.Payload}
			},
			buf: buf,
		}, nil
	}

	lc, err := local.NewCache(local.Config{GCInterval: cfg.LocalGCInterval})
	if err != nil {
		return nil, nil, err
	}
	lps := local.NewPubSub(buf)
	return lc, &pubSub[*local.LocalMessage]{
		publish:   lps.Publish,
		subscribe: lps.Subscribe,
		convert: func(m *local.LocalMessage) *Message {
			return &Message{Channel: m.Channel, Payload: m.Payload}
		},
		buf: buf,
	}, nil
}

// pubSub bridges a backend's message type to Message.
type pubSub[M any] struct {
	publish   func(ctx context.Context, channel, message string) error
	subscribe func(ctx context.Context, channels ...string) (<-chan M, func(), error)
	convert   func(M) *Message
	buf       int
}

func (p *pubSub[M]) Publish(ctx context.Context, channel, message string) error {
	return p.publish(ctx, channel, message)
}

func (p *pubSub[M]) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	src, cancelSrc, err := p.subscribe(ctx, channels...)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan *Message, p.buf)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			cancelSrc()
		})
	}
	go func() {
		defer close(out)
		for m := range src {
			select {
			case out <- p.convert(m):
			case <-done:
				// Nobody reads any more; keep draining src until the backend closes it.
			}
		}
	}()
	return out, cancel, nil
}
