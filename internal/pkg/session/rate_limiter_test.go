// internal/pkg/session/rate_limiter_test.go
package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLoginAttempt_AllowsFiveThenBlocks(t *testing.T) {
	limiter := NewRateLimiter(newTestRedis(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, remaining, err := limiter.CheckLoginAttempt(ctx, "1.2.3.4", "jo@example.com")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(4-i), remaining)
	}

	ok, remaining, err := limiter.CheckLoginAttempt(ctx, "1.2.3.4", "jo@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, remaining)
}

func TestCheckLoginAttempt_ScopedToIPAndEmail(t *testing.T) {
	limiter := NewRateLimiter(newTestRedis(t))
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		limiter.CheckLoginAttempt(ctx, "1.2.3.4", "jo@example.com")
	}

	ok, _, err := limiter.CheckLoginAttempt(ctx, "5.6.7.8", "jo@example.com")
	require.NoError(t, err)
	assert.True(t, ok, "a different IP has its own budget")

	ok, _, err = limiter.CheckLoginAttempt(ctx, "1.2.3.4", "other@example.com")
	require.NoError(t, err)
	assert.True(t, ok, "a different account has its own budget")
}

func TestResetLoginAttempts(t *testing.T) {
	limiter := NewRateLimiter(newTestRedis(t))
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		limiter.CheckLoginAttempt(ctx, "1.2.3.4", "jo@example.com")
	}
	require.NoError(t, limiter.ResetLoginAttempts(ctx, "1.2.3.4", "jo@example.com"))

	ok, remaining, err := limiter.CheckLoginAttempt(ctx, "1.2.3.4", "jo@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4), remaining)
}

func TestCheckSignupAttempt(t *testing.T) {
	limiter := NewRateLimiter(newTestRedis(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.CheckSignupAttempt(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := limiter.CheckSignupAttempt(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
}
