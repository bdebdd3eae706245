package middleware

import (
	"net/http"
	"sync"
	"time"

	"sipndash/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter ──────────────────────────────────────────────────────

// windowEntry tracks requests from one IP within the current window.
type windowEntry struct {
	count     int
	windowEnd time.Time
}

// windowLimiter allows limit requests per IP per window. Expired entries are
// purged lazily every purgeInterval so IPs that never return do not pile up.
type windowLimiter struct {
	name      string
	limit     int
	window    time.Duration
	mu        sync.Mutex
	entries   map[string]*windowEntry
	nextPurge time.Time
	now       func() time.Time
}

const purgeInterval = 5 * time.Minute

func newWindowLimiter(name string, limit int, window time.Duration) *windowLimiter {
	return &windowLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// allow records one request from ip and reports whether it is within the limit,
// plus the end of the current window.
func (l *windowLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.nextPurge) {
		l.purge(now)
		l.nextPurge = now.Add(purgeInterval)
	}

	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

func (l *windowLimiter) purge(now time.Time) {
	purged := 0
	for ip, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().
			Str("limiter", l.name).
			Int("entries_purged", purged).
			Int("entries_remaining", len(l.entries)).
			Msg("rate limiter purged")
	}
}

func (l *windowLimiter) middleware(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(message))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newWindowLimiter("login", 20, time.Minute).
		middleware("too many login attempts, try again in a minute")
}

// PublicWriteLimiter guards unauthenticated write endpoints (orders, contact form,
// analytics events).
func PublicWriteLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newWindowLimiter("public_write", limit, window).
		middleware("too many requests, try again shortly")
}

// RateLimiter is the general API limiter applied to every route.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newWindowLimiter("api", limit, window).
		middleware("too many requests, try again shortly")
}
