package store

import (
	"sync"
	"time"
)

// SlowQuery is one entry of the slow query log. Query is redacted.
type SlowQuery struct {
	Query     string
	Table     string
	Operation OperationKind
	Duration  time.Duration
	At        time.Time
}

// QueryMetrics is a snapshot of the running query counters.
type QueryMetrics struct {
	TotalQueries  int64
	FailedQueries int64
	AvgQueryTime  time.Duration
	SlowQueries   []SlowQuery
}

// queryStats holds the process-wide counters. All mutation happens under mu and
// never spans an engine call.
type queryStats struct {
	mu        sync.Mutex
	total     int64
	failed    int64
	totalTime time.Duration

	// slow is a ring buffer; next is the slot written next.
	slow []SlowQuery
	next int
	size int
}

func newQueryStats(slowLogSize int) *queryStats {
	return &queryStats{slow: make([]SlowQuery, 0, slowLogSize), size: slowLogSize}
}

func (s *queryStats) record(d time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.totalTime += d
	if failed {
		s.failed++
	}
}

func (s *queryStats) recordSlow(q SlowQuery) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.slow) < s.size {
		s.slow = append(s.slow, q)
		return
	}
	s.slow[s.next] = q
	s.next = (s.next + 1) % s.size
}

func (s *queryStats) snapshot() QueryMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := QueryMetrics{
		TotalQueries:  s.total,
		FailedQueries: s.failed,
		SlowQueries:   make([]SlowQuery, 0, len(s.slow)),
	}
	if s.total > 0 {
		m.AvgQueryTime = s.totalTime / time.Duration(s.total)
	}
	// Oldest first.
	m.SlowQueries = append(m.SlowQueries, s.slow[s.next:]...)
	m.SlowQueries = append(m.SlowQueries, s.slow[:s.next]...)
	return m
}

func (s *queryStats) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = 0
	s.failed = 0
	s.totalTime = 0
	s.slow = s.slow[:0]
	s.next = 0
}
