package transport

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PlayerLimiter 每个玩家一个令牌桶，HTTP 和 WS 指令共用；长时间不用的桶会被回收。
type PlayerLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	buckets map[int64]*bucket
	sweepAt time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewPlayerLimiter perSecond<=0 返回 nil，nil 限流器放行一切。
func NewPlayerLimiter(perSecond float64, burst int) *PlayerLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &PlayerLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    10 * time.Minute,
		buckets: make(map[int64]*bucket),
	}
}

func (l *PlayerLimiter) Allow(playerID int64, now time.Time) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.sweepAt) > l.idle {
		for id, b := range l.buckets {
			if now.Sub(b.seen) > l.idle {
				delete(l.buckets, id)
			}
		}
		l.sweepAt = now
	}
	b, ok := l.buckets[playerID]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[playerID] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}
