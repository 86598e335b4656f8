package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, 15*time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	r, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.Equal(t, int64(1), r.Remaining)

	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, r.Allowed)
	assert.Equal(t, int64(0), r.Remaining)

	now = now.Add(time.Minute)
	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.False(t, r.Allowed)
	assert.Equal(t, 14*time.Minute, r.RetryAfter)

	r, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, r.Allowed, "keys are independent")

	now = now.Add(15 * time.Minute)
	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, r.Allowed, "a new window starts after expiry")
	assert.Equal(t, int64(1), r.Hits)
}

func TestDecide_RetryAfterFallsBackToWindow(t *testing.T) {
	r := decide(3, 2, -1, time.Minute)
	assert.False(t, r.Allowed)
	assert.Equal(t, time.Minute, r.RetryAfter)
	assert.Equal(t, int64(0), r.Remaining)
}
