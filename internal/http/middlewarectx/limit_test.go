package middlewarectx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_EvictsIdleUsers(t *testing.T) {
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	now := start
	l := NewRateLimiter(10, 3)
	l.now = func() time.Time { return now }

	for _, user := range []string{"u1", "u2", "u3"} {
		assert.True(t, l.Allow(user))
	}
	assert.Len(t, l.limiters, 3)

	now = start.Add(30 * time.Second)
	assert.True(t, l.Allow("u1"))
	assert.Len(t, l.limiters, 3, "nothing is idle yet")

	now = start.Add(70 * time.Second)
	assert.True(t, l.Allow("u4"))
	assert.Len(t, l.limiters, 2, "u2 and u3 are evicted, u1 is still recent")
	assert.Contains(t, l.limiters, "u1")
	assert.Contains(t, l.limiters, "u4")
	assert.NotContains(t, l.limiters, "u2")
}

func TestNewRateLimiter_IdleTTL(t *testing.T) {
	tests := []struct {
		name      string
		perMinute int
		burst     int
		want      time.Duration
	}{
		{name: "fast refill uses floor", perMinute: 60, burst: 3, want: time.Minute},
		{name: "slow refill", perMinute: 1, burst: 5, want: 5 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRateLimiter(tt.perMinute, tt.burst).idleTTL)
		})
	}
}
