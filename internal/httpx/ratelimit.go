package httpx

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type buyerLimiter struct {
	limiter    *rate.Limiter
	lastActive time.Time
}

// BuyerRateLimiter keeps one token bucket per buyer id.
type BuyerRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*buyerLimiter
	rps      rate.Limit
	burst    int
	maxIdle  time.Duration
}

func NewBuyerRateLimiter(rps float64, burst int) *BuyerRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &BuyerRateLimiter{
		limiters: make(map[string]*buyerLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		maxIdle:  10 * time.Minute,
	}
}

func (l *BuyerRateLimiter) Allow(buyerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	bl, ok := l.limiters[buyerID]
	if !ok {
		bl = &buyerLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[buyerID] = bl
		// bersihkan buyer idle sesekali biar map tidak tumbuh terus
		if len(l.limiters)%1024 == 0 {
			l.evictIdle(now)
		}
	}
	bl.lastActive = now
	return bl.limiter.AllowN(now, 1)
}

func (l *BuyerRateLimiter) evictIdle(now time.Time) {
	for id, bl := range l.limiters {
		if now.Sub(bl.lastActive) > l.maxIdle {
			delete(l.limiters, id)
		}
	}
}
