package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const clientIdleTTL = 5 * time.Minute

// ClientRateLimiter throttles inbound requests per client IP with a token
// bucket, so one caller cannot drain the shared upstream budget. Requests
// over the limit get 429 with Retry-After; they are not queued.
type ClientRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	limit     rate.Limit
	burst     int
	exempt    map[string]bool
	lastSweep time.Time
	now       func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientRateLimiter admits perSecond requests per second per client with
// a burst of the same size. exemptPaths (probes, metrics) are never limited.
func NewClientRateLimiter(perSecond int, exemptPaths ...string) *ClientRateLimiter {
	exempt := make(map[string]bool, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[p] = true
	}
	return &ClientRateLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Limit(perSecond),
		burst:   perSecond,
		exempt:  exempt,
		now:     time.Now,
	}
}

func (l *ClientRateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > clientIdleTTL {
		for k, b := range l.clients {
			if now.Sub(b.lastSeen) > clientIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Handler returns the Fiber middleware.
func (l *ClientRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l.exempt[c.Path()] {
			return c.Next()
		}
		lim := l.bucket(c.IP())
		if lim.AllowN(l.now(), 1) {
			return c.Next()
		}

		retry := time.Second
		if l.limit > 0 {
			retry = time.Duration(float64(time.Second) / float64(l.limit))
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		c.Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
		c.Set("X-RateLimit-Remaining", "0")
		return fiber.ErrTooManyRequests
	}
}

// Clients returns the number of tracked client buckets.
func (l *ClientRateLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
