package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlowQueryLogKeepsNewest(t *testing.T) {
	s := newQueryStats(3)

	for i := 0; i < 5; i++ {
		s.recordSlow(SlowQuery{Query: fmt.Sprintf("q%d", i), Duration: time.Duration(i) * time.Second})
	}

	m := s.snapshot()
	require.Len(t, m.SlowQueries, 3)
	assert.Equal(t, "q2", m.SlowQueries[0].Query)
	assert.Equal(t, "q3", m.SlowQueries[1].Query)
	assert.Equal(t, "q4", m.SlowQueries[2].Query)
}

func TestQueryStatsAverages(t *testing.T) {
	s := newQueryStats(10)
	s.record(100*time.Millisecond, false)
	s.record(300*time.Millisecond, true)

	m := s.snapshot()
	assert.Equal(t, int64(2), m.TotalQueries)
	assert.Equal(t, int64(1), m.FailedQueries)
	assert.Equal(t, 200*time.Millisecond, m.AvgQueryTime)

	s.reset()
	m = s.snapshot()
	assert.Zero(t, m.TotalQueries)
	assert.Zero(t, m.AvgQueryTime)
	assert.Empty(t, m.SlowQueries)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newQueryStats(2)
	s.recordSlow(SlowQuery{Query: "q0"})

	m := s.snapshot()
	m.SlowQueries[0].Query = "changed"

	assert.Equal(t, "q0", s.snapshot().SlowQueries[0].Query)
}
