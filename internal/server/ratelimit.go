package server

import (
	"sync"

	"golang.org/x/time/rate"
)

// visitorLimiter hands out one token bucket per caller identity. The
// per-minute budget refills continuously rather than resetting on a window
// boundary.
type visitorLimiter struct {
	mtx      sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*rate.Limiter
}

func newVisitorLimiter(perMinute, burst int) *visitorLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	if burst < 1 {
		burst = 1
	}

	return &visitorLimiter{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		visitors: map[string]*rate.Limiter{},
	}
}

func (v *visitorLimiter) Allow(identity string) bool {
	v.mtx.Lock()
	limiter, ok := v.visitors[identity]
	if !ok {
		limiter = rate.NewLimiter(v.limit, v.burst)
		v.visitors[identity] = limiter
	}
	v.mtx.Unlock()

	return limiter.Allow()
}
