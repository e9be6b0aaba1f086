package store

import (
	"math/rand"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
)

// RateLimiter is a per-actor sliding window request counter.
//
// Windows are kept in a bounded LRU so a flood of distinct actors cannot grow
// memory without limit; the least recently active actor is forgotten first.
// The limiter is per process and therefore best effort: several instances do
// not share their windows.
type RateLimiter struct {
	mu      sync.Mutex
	windows *simplelru.LRU

	maxQueries       int
	window           time.Duration
	sweepProbability float64

	now    func() time.Time
	random func() float64
}

// NewRateLimiter creates a limiter from cfg; zero fields take their defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	cfg = cfg.withDefaults()

	windows, err := simplelru.NewLRU(cfg.MaxActors, nil)
	if err != nil {
		// Only returned for a non-positive size, which withDefaults rules out.
		panic(err)
	}

	return &RateLimiter{
		windows:          windows,
		maxQueries:       cfg.MaxQueries,
		window:           cfg.Window,
		sweepProbability: cfg.SweepProbability,
		now:              time.Now,
		random:           rand.Float64,
	}
}

// Check records one request for actorID, or fails RATE_LIMIT_EXCEEDED when the
// actor already has MaxQueries requests inside the window. A rejected request
// is not recorded.
func (r *RateLimiter) Check(actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)

	var stamps []time.Time
	if v, ok := r.windows.Get(actorID); ok {
		stamps = prune(v.([]time.Time), cutoff)
	}

	if len(stamps) >= r.maxQueries {
		r.windows.Add(actorID, stamps)
		retryAfter := stamps[0].Add(r.window).Sub(now)
		return newError(CodeRateLimitExceeded, "rate limit exceeded", map[string]any{
			"actor_id":       actorID,
			"count":          len(stamps),
			"limit":          r.maxQueries,
			"window_ms":      r.window.Milliseconds(),
			"retry_after_ms": retryAfter.Milliseconds(),
		}, nil)
	}

	r.windows.Add(actorID, append(stamps, now))

	if r.random() < r.sweepProbability {
		r.sweep(cutoff)
	}
	return nil
}

// Count returns the number of requests of actorID inside the current window.
func (r *RateLimiter) Count(actorID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.windows.Peek(actorID)
	if !ok {
		return 0
	}
	return len(prune(v.([]time.Time), r.now().Add(-r.window)))
}

// Actors returns the number of actors currently tracked.
func (r *RateLimiter) Actors() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.windows.Len()
}

// Reset forgets every actor.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows.Purge()
}

// sweep evicts actors without requests inside the window, leaving the recency
// order of the others untouched. Caller holds mu.
func (r *RateLimiter) sweep(cutoff time.Time) {
	for _, key := range r.windows.Keys() {
		v, ok := r.windows.Peek(key)
		if !ok {
			continue
		}
		stamps := v.([]time.Time)
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			r.windows.Remove(key)
		}
	}
}

// prune drops timestamps at or before cutoff. Timestamps are appended in
// order, so the first one inside the window ends the scan.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return stamps
	}
	return append([]time.Time(nil), stamps[i:]...)
}
