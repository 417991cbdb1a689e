package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGovernorStatusSafeBelowThreshold(t *testing.T) {
	g := NewGovernor(1000, 1000)
	g.RecordUsage(100, 100)
	require.Equal(t, RateSafe, g.Status())
}

func TestGovernorStatusThrottleAt95Percent(t *testing.T) {
	g := NewGovernor(1000, 1000)
	g.RecordUsage(950, 0)
	require.Equal(t, RateThrottle, g.Status())
}

func TestGovernorStatusLimitedAt100Percent(t *testing.T) {
	g := NewGovernor(1000, 1000)
	g.RecordUsage(1000, 0)
	require.Equal(t, RateLimited, g.Status())
}

func TestGovernorEvictsEntriesOutsideWindow(t *testing.T) {
	g := NewGovernor(1000, 1000)
	g.mu.Lock()
	g.entries = append(g.entries, usageEntry{at: time.Now().Add(-90 * time.Second), inputTokens: 1000})
	g.mu.Unlock()

	require.Equal(t, RateSafe, g.Status())
}

func TestExecuteWithRetrySucceedsWithoutRetry(t *testing.T) {
	g := NewGovernor(1000, 1000)
	calls := 0
	err := g.ExecuteWithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestExecuteWithRetryFailsFastOnNonRateLimitError(t *testing.T) {
	g := NewGovernor(1000, 1000)
	calls := 0
	boom := errors.New("permission denied")
	err := g.ExecuteWithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestExecuteWithRetryRetriesRateLimitSignature(t *testing.T) {
	g := NewGovernor(1000, 1000)
	calls := 0
	err := g.ExecuteWithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("rate limit exceeded, 429")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestBackoffForIsCappedAtMax(t *testing.T) {
	d := backoffFor(10)
	require.LessOrEqual(t, d, maxBackoff+time.Duration(float64(maxBackoff)*jitterFraction))
}

func TestProfileCooldownScalesWithConsecutiveErrors(t *testing.T) {
	g := NewGovernor(1000, 1000)
	require.Zero(t, g.ProfileCooldownRemaining("work"))

	g.RecordProfileError("work", time.Second)
	first := g.ProfileCooldownRemaining("work")
	require.Greater(t, first, 500*time.Millisecond)

	g.RecordProfileError("work", time.Second)
	second := g.ProfileCooldownRemaining("work")
	require.Greater(t, second, first)

	g.RecordProfileSuccess("work")
	require.Zero(t, g.ProfileCooldownRemaining("work"))
}

func TestExecuteWithRetrySuccessClearsProfileCooldown(t *testing.T) {
	g := NewGovernor(1000, 1000).WithProfile("work")
	g.RecordProfileError("work", 50*time.Millisecond)

	err := g.ExecuteWithRetry(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	require.Zero(t, g.ProfileCooldownRemaining("work"))
}

func TestIsRateLimitSignatureMatchesKnownPatterns(t *testing.T) {
	require.True(t, IsRateLimitSignature(errors.New("Rate Limit hit")))
	require.True(t, IsRateLimitSignature(errors.New("HTTP 429")))
	require.True(t, IsRateLimitSignature(errors.New("tokens per minute exceeded")))
	require.False(t, IsRateLimitSignature(errors.New("permission denied")))
}
