package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_BurstThenRefill(t *testing.T) {
	l := NewLocal(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "k")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "other")
	assert.True(t, ok, "keys are independent")

	now = now.Add(31 * time.Second)
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)
}

func newRedis(t *testing.T, limit int64, window time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedis(rdb, limit, window), mr
}

func TestRedis_WindowIsNotExtendedByBlockedHits(t *testing.T) {
	l, mr := newRedis(t, 2, 10*time.Second)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "login:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 10*time.Second, mr.TTL("rl:login:1.2.3.4"))

	mr.FastForward(6 * time.Second)
	ok, err = l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 4*time.Second, mr.TTL("rl:login:1.2.3.4"))

	mr.FastForward(5 * time.Second)
	ok, err = l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok, "a new window starts once the first one ends")
}

func TestRedis_KeysAreIndependent(t *testing.T) {
	l, _ := newRedis(t, 1, time.Minute)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "register:a")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "register:a")
	assert.False(t, ok)
	ok, _ = l.Allow(ctx, "register:b")
	assert.True(t, ok)
}

func TestRedis_Unreachable(t *testing.T) {
	l, mr := newRedis(t, 1, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "login:x")
	assert.Error(t, err)
}

func TestLocal_DropsIdleBuckets(t *testing.T) {
	l := NewLocal(1, time.Second)
	now := time.Now()
	l.now = func() time.Time { return now }
	_, _ = l.Allow(context.Background(), "a")
	now = now.Add(2 * time.Second)
	_, _ = l.Allow(context.Background(), "b")
	assert.Len(t, l.buckets, 1)
}

type fixed struct {
	ok  bool
	err error
}

func (f fixed) Allow(context.Context, string) (bool, error) { return f.ok, f.err }

func TestMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	cases := []struct {
		name string
		lim  Limiter
		code int
	}{
		{"allowed", fixed{ok: true}, http.StatusNoContent},
		{"limited", fixed{ok: false}, http.StatusTooManyRequests},
		{"limiter down", fixed{err: errors.New("dial")}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Middleware(tc.lim, "auth", next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth", nil))
			assert.Equal(t, tc.code, rec.Code)
			if tc.code == http.StatusTooManyRequests {
				assert.JSONEq(t, `{"msg":"Too many requests"}`, rec.Body.String())
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))
	r.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", ClientIP(r))
}
