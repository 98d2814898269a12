// Package sse streams the exhibition arena to browsers.
package sse

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/pacdefender/cache"
	"github.com/kasuganosora/pacdefender/game/sim"
	mw "github.com/kasuganosora/pacdefender/middleware"
	"go.uber.org/zap"
)

const defaultKeepalive = 30 * time.Second

// Handler relays arena frames from the pub/sub backend to SSE clients.
type Handler struct {
	pubsub    cache.PubSub
	keepalive time.Duration
	logger    *zap.Logger
}

func NewHandler(pubsub cache.PubSub, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, keepalive: defaultKeepalive, logger: logger}
}

func writeEvent(w io.Writer, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

// ServeArena handles GET /api/arena/stream. It sends "connected" once the
// subscription is live, then one "frame" event per published tick, with a
// comment line every keepalive period.
func (h *Handler) ServeArena(c *gin.Context) {
	log := mw.RequestLogger(c, h.logger)
	ctx := c.Request.Context()
	frames, unsubscribe, err := h.pubsub.Subscribe(ctx, sim.FramesChannel)
	if err != nil {
		log.Error("arena stream subscribe failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "arena stream unavailable"})
		return
	}
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	w := c.Writer
	writeEvent(w, "connected", "{}")
	w.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	sent := 0
	defer func() { log.Debug("arena viewer left", zap.Int("frames", sent)) }()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-frames:
			if !ok {
				return
			}
			writeEvent(w, "frame", msg.Payload)
			w.Flush()
			sent++
		case <-keepalive.C:
			io.WriteString(w, ": keepalive\n\n")
			w.Flush()
		}
	}
}
