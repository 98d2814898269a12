package local

import (
	"context"
	"sync"
	"sync/atomic"
)

// LocalMessage is one frame delivered to an in-process viewer.
type LocalMessage struct {
	Channel string
	Payload string
}

// viewer is one Subscribe call; it may listen on several channels.
type viewer struct {
	ch chan *LocalMessage
}

// LocalPubSub fans frames out to in-process viewers. Publish never blocks:
// a viewer whose buffer is full misses the frame.
type LocalPubSub struct {
	mu      sync.RWMutex
	viewers map[string]map[*viewer]struct{}
	bufSize int
	dropped atomic.Int64
}

// NewPubSub creates a LocalPubSub with bufSize frames of backlog per viewer.
func NewPubSub(bufSize int) *LocalPubSub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &LocalPubSub{viewers: make(map[string]map[*viewer]struct{}), bufSize: bufSize}
}

func (ps *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &LocalMessage{Channel: channel, Payload: message}
	// The read lock keeps cancel from closing a viewer channel mid-send.
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for v := range ps.viewers[channel] {
		select {
		case v.ch <- msg:
		default:
			ps.dropped.Add(1)
		}
	}
	return nil
}

// Subscribe registers one viewer on channels. cancel is idempotent and closes
// the returned stream.
func (ps *LocalPubSub) Subscribe(_ context.Context, channels ...string) (<-chan *LocalMessage, func(), error) {
	v := &viewer{ch: make(chan *LocalMessage, ps.bufSize)}

	ps.mu.Lock()
	for _, c := range channels {
		set, ok := ps.viewers[c]
		if !ok {
			set = make(map[*viewer]struct{})
			ps.viewers[c] = set
		}
		set[v] = struct{}{}
	}
	ps.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			ps.mu.Lock()
			defer ps.mu.Unlock()
			for _, c := range channels {
				delete(ps.viewers[c], v)
				if len(ps.viewers[c]) == 0 {
					delete(ps.viewers, c)
				}
			}
			close(v.ch)
		})
	}
	return v.ch, cancel, nil
}

// Viewers returns how many viewers listen on channel.
func (ps *LocalPubSub) Viewers(channel string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.viewers[channel])
}

// Dropped returns the number of frames skipped for slow viewers.
func (ps *LocalPubSub) Dropped() int64 { return ps.dropped.Load() }
