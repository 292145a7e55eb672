package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"golang.org/x/time/rate"
)

// Limiter decides whether a client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Decision is the outcome of one Limiter check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Counter is a shared fixed-window counter, such as viewcache.Redis.
type Counter interface {
	IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error)
}

// WindowLimiter allows perMinute requests per key per one-minute window,
// counted in a shared store so every replica sees the same totals.
type WindowLimiter struct {
	counter   Counter
	perMinute int
}

func NewWindowLimiter(counter Counter, perMinute int) *WindowLimiter {
	return &WindowLimiter{counter: counter, perMinute: perMinute}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, err := l.counter.IncrWithExpire(ctx, "ratelimit:"+key, time.Minute)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   int(count) <= l.perMinute,
		Limit:     l.perMinute,
		Remaining: max(l.perMinute-int(count), 0),
		Reset:     time.Now().Add(time.Minute),
	}, nil
}

// bucketIdle is how long an unused bucket is kept. A full minute without
// requests refills any bucket, so dropping it changes nothing.
const bucketIdle = time.Minute

// LocalLimiter is a per-process token bucket per key, for single-node
// deployments without Redis. Idle buckets are swept once a minute.
type LocalLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perMinute int
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(perMinute int) *LocalLimiter {
	return &LocalLimiter{buckets: make(map[string]*bucket), perMinute: perMinute, now: time.Now}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= bucketIdle {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	remaining := max(int(b.limiter.TokensAt(now)), 0)
	l.mu.Unlock()

	return Decision{
		Allowed:   allowed,
		Limit:     l.perMinute,
		Remaining: remaining,
		Reset:     now.Add(time.Minute / time.Duration(l.perMinute)),
	}, nil
}

// sweep drops buckets idle since before now-bucketIdle. Caller holds mu.
func (l *LocalLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) >= bucketIdle {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}

// Len reports how many buckets are held.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// rateLimit throttles by client IP. Limiter failures let the request
// through.
func rateLimit(limiter Limiter, logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := limiter.Allow(r.Context(), "login:"+clientIP(r))
			if err != nil {
				logger.Warn(r.Context(), "rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(d.Reset).Seconds())+1))
				writeError(w, common.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port. Proxy headers only count when chi's RealIP ran
// before this, which Options.TrustProxy controls.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
