package memory

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// AlwaysAllow is a stub RateLimiter that permits every request.
type AlwaysAllow struct{}

func (AlwaysAllow) Allow(_, _ string) bool { return true }

const (
	defaultIdleTTL = 10 * time.Minute
	sweepInterval  = time.Minute
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// TokenBucket keeps one token-bucket limiter per client IP. Buckets idle for
// longer than the idle TTL are dropped.
type TokenBucket struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewTokenBucket allows rps sustained requests with bursts of burst per IP.
func NewTokenBucket(rps float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: defaultIdleTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow charges the caller's IP. The token is unverified at this point, so it
// does not select the bucket.
func (b *TokenBucket) Allow(ip, _ string) bool {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) >= sweepInterval {
		b.sweepLocked(now)
	}
	bk, ok := b.buckets[ip]
	if !ok {
		bk = &bucket{lim: rate.NewLimiter(b.limit, b.burst)}
		b.buckets[ip] = bk
	}
	bk.seen = now
	return bk.lim.AllowN(now, 1)
}

func (b *TokenBucket) sweepLocked(now time.Time) {
	for ip, bk := range b.buckets {
		if now.Sub(bk.seen) > b.idleTTL {
			delete(b.buckets, ip)
		}
	}
	b.lastSweep = now
}

func (b *TokenBucket) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buckets)
}
