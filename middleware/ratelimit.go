package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ClientIdleTTL is how long a client's bucket survives without requests.
const ClientIdleTTL = 10 * time.Minute

type clientBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP. Idle buckets are
// dropped by Sweep, which main registers on the scheduler.
type RateLimiter struct {
	r     rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientBucket
}

// NewRateLimiter allows r requests per second with bursts of b per IP.
// r <= 0 disables limiting.
func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	if b < 1 {
		b = 1
	}
	return &RateLimiter{r: r, burst: b, now: time.Now, clients: make(map[string]*clientBucket)}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cb, ok := rl.clients[ip]
	if !ok {
		cb = &clientBucket{lim: rate.NewLimiter(rl.r, rl.burst)}
		rl.clients[ip] = cb
	}
	cb.lastSeen = rl.now()
	return cb.lim.AllowN(cb.lastSeen, 1)
}

// Sweep forgets clients idle for longer than ClientIdleTTL.
func (rl *RateLimiter) Sweep(context.Context) {
	cutoff := rl.now().Add(-ClientIdleTTL)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, cb := range rl.clients {
		if cb.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// Clients returns the number of tracked IPs.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Handler rejects over-limit requests with 429 and a Retry-After hint.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	if rl.r <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	retryAfter := strconv.Itoa(int(math.Ceil(1 / float64(rl.r))))
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
