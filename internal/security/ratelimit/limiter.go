package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window rate limiter keyed by caller identity
// (user id for authenticated requests, remote address otherwise).
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxReqs int
	window  time.Duration
	cleanup *time.Ticker
	done    chan struct{}
}

type bucket struct {
	requests []time.Time
	lastSeen time.Time
}

// take records one request against the bucket if it fits inside the
// window. Must be called with l.mu held.
func (b *bucket) take(now time.Time, window time.Duration, max int) bool {
	cutoff := now.Add(-window)
	live := b.requests[:0]
	for _, t := range b.requests {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}
	b.requests = live
	b.lastSeen = now

	if len(b.requests) >= max {
		return false
	}
	b.requests = append(b.requests, now)
	return true
}

func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		maxReqs: maxRequests,
		window:  window,
		cleanup: time.NewTicker(5 * time.Minute),
		done:    make(chan struct{}),
	}
	go l.evictStale()
	return l
}

func (l *Limiter) bucketFor(key string) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{}
		l.buckets[key] = b
	}
	return b
}

// Allow checks the caller's general bucket against the configured
// limit. An empty key is never limited.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bucketFor(key).take(time.Now(), l.window, l.maxReqs)
}

// AllowStrict applies a tighter limit for sensitive endpoints (login,
// registration) independent of the caller's general bucket.
func (l *Limiter) AllowStrict(identifier string, maxReqs int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bucketFor("strict:"+identifier).take(time.Now(), window, maxReqs)
}

func (l *Limiter) evictStale() {
	for {
		select {
		case <-l.done:
			return
		case <-l.cleanup.C:
		}
		stale := time.Now().Add(-15 * time.Minute)
		l.mu.Lock()
		for key, b := range l.buckets {
			if b.lastSeen.Before(stale) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

func (l *Limiter) Stop() {
	l.cleanup.Stop()
	close(l.done)
}
