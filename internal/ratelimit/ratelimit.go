// Package ratelimit throttles requests per key, either in process or shared
// across instances through Redis.
package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/MKale112/devConnector/internal/apperr"
	"github.com/MKale112/devConnector/internal/httpx"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Redis counts hits in a fixed window per key. The window starts with the
// first hit and is not extended by later ones.
type Redis struct {
	R      *redis.Client
	Limit  int64
	Window time.Duration
}

func NewRedis(r *redis.Client, limit int64, window time.Duration) *Redis {
	return &Redis{R: r, Limit: limit, Window: window}
}

var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n`)

func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	n, err := hitScript.Run(ctx, l.R, []string{"rl:" + key}, l.Window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n <= l.Limit, nil
}

// Local is a token bucket per key held in memory. Buckets idle for longer
// than the window are dropped on the next call.
type Local struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idle    time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewLocal allows limit requests per window with bursts up to limit.
func NewLocal(limit int, window time.Duration) *Local {
	return &Local{
		limit:   rate.Limit(float64(limit) / window.Seconds()),
		burst:   limit,
		idle:    window,
		buckets: map[string]*bucket{},
		now:     time.Now,
	}
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.idle {
			delete(l.buckets, k)
		}
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1), nil
}

var errTooMany = apperr.RateLimited("Too many requests")

// Middleware rejects requests over the limit with 429. A limiter failure lets
// the request through.
func Middleware(l Limiter, scope string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := scope + ":" + ClientIP(r)
		ok, err := l.Allow(r.Context(), key)
		if err != nil {
			slog.WarnContext(r.Context(), "rate limiter unavailable", "scope", scope, "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			httpx.WriteError(w, r, errTooMany)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
