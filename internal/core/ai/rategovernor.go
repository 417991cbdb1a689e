package ai

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentcore/core/internal/core/metrics"
)

var governorTracer trace.Tracer = otel.Tracer("agentcore/ai")

// RateStatus classifies how close the current window is to its limits.
type RateStatus string

const (
	RateSafe     RateStatus = "safe"
	RateThrottle RateStatus = "throttle"
	RateLimited  RateStatus = "limited"
)

const (
	throttleFraction = 0.95
	windowDuration   = 60 * time.Second
	minThrottleSleep = 5 * time.Second

	maxRetryAttempts = 5
	baseBackoff      = 1 * time.Second
	maxBackoff       = 60 * time.Second
	jitterFraction   = 0.25
)

type usageEntry struct {
	at           time.Time
	inputTokens  int
	outputTokens int
}

// Governor tracks a sliding 60s window of token usage per tier and wraps
// LLM calls with rate-limit-aware retry.
type Governor struct {
	mu sync.Mutex

	inputLimit  int
	outputLimit int
	entries     []usageEntry

	profile  string
	profiles map[string]*profileState

	metrics *metrics.Registry
}

// profileState tracks consecutive rate-limit failures and the resulting
// cooldown deadline for one named auth profile.
type profileState struct {
	consecutiveErrors int
	cooldownUntil     time.Time
}

// NewGovernor builds a Governor enforcing the given per-minute token limits.
func NewGovernor(inputTokensPerMinute, outputTokensPerMinute int) *Governor {
	return &Governor{
		inputLimit:  inputTokensPerMinute,
		outputLimit: outputTokensPerMinute,
		profile:     "default",
		profiles:    make(map[string]*profileState),
	}
}

// WithProfile names the auth profile this Governor's calls run under, so
// cooldowns recorded against it survive across ExecuteWithRetry calls.
func (g *Governor) WithProfile(profile string) *Governor {
	g.profile = profile
	return g
}

// WithMetrics attaches a metrics.Registry the Governor reports window
// totals, status, and retry counts into. Optional — a Governor with no
// Registry attached behaves exactly as before.
func (g *Governor) WithMetrics(m *metrics.Registry) *Governor {
	g.metrics = m
	return g
}

// RecordUsage appends a usage entry and evicts anything older than the
// window.
func (g *Governor) RecordUsage(inputTokens, outputTokens int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = append(g.entries, usageEntry{at: time.Now(), inputTokens: inputTokens, outputTokens: outputTokens})
	g.evictLocked()
	input, output := g.totalsLocked()
	g.metrics.SetGovernorUsage(input, output)
}

func (g *Governor) evictLocked() {
	cutoff := time.Now().Add(-windowDuration)
	i := 0
	for ; i < len(g.entries); i++ {
		if g.entries[i].at.After(cutoff) {
			break
		}
	}
	g.entries = g.entries[i:]
}

func (g *Governor) totalsLocked() (input, output int) {
	for _, e := range g.entries {
		input += e.inputTokens
		output += e.outputTokens
	}
	return
}

// Status classifies the current window against the configured limits.
func (g *Governor) Status() RateStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.evictLocked()
	input, output := g.totalsLocked()

	status := RateSafe
	switch {
	case atOrAbove(input, g.inputLimit, 1.0) || atOrAbove(output, g.outputLimit, 1.0):
		status = RateLimited
	case atOrAbove(input, g.inputLimit, throttleFraction) || atOrAbove(output, g.outputLimit, throttleFraction):
		status = RateThrottle
	}
	g.metrics.SetGovernorStatus(string(status))
	return status
}

func atOrAbove(used, limit int, fraction float64) bool {
	if limit <= 0 {
		return false
	}
	return float64(used) >= float64(limit)*fraction
}

// RecordProfileSuccess clears the named profile's error streak and cooldown.
func (g *Governor) RecordProfileSuccess(profile string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.profiles, profile)
}

// RecordProfileError bumps the named profile's error streak and extends its
// cooldown, scaling with consecutive failures so a profile that keeps
// hitting limits backs off longer each time.
func (g *Governor) RecordProfileError(profile string, cooldown time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.profiles[profile]
	if st == nil {
		st = &profileState{}
		g.profiles[profile] = st
	}
	st.consecutiveErrors++
	scaled := cooldown * time.Duration(st.consecutiveErrors)
	if scaled > maxBackoff {
		scaled = maxBackoff
	}
	until := time.Now().Add(scaled)
	if until.After(st.cooldownUntil) {
		st.cooldownUntil = until
	}
}

// ProfileCooldownRemaining reports how long the named profile must still
// wait before its next call. Zero when no cooldown is active.
func (g *Governor) ProfileCooldownRemaining(profile string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.profiles[profile]
	if st == nil {
		return 0
	}
	if remaining := time.Until(st.cooldownUntil); remaining > 0 {
		return remaining
	}
	return 0
}

// ThrottleIfNeeded blocks until the oldest window entry would have expired
// when Status is Limited, with a 5s floor. It also honors any active
// cooldown on the Governor's profile. It is a no-op at Safe/Throttle with
// no cooldown pending.
func (g *Governor) ThrottleIfNeeded(ctx context.Context) {
	if cooldown := g.ProfileCooldownRemaining(g.profile); cooldown > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(cooldown):
		}
	}
	if g.Status() != RateLimited {
		return
	}

	g.mu.Lock()
	sleep := minThrottleSleep
	if len(g.entries) > 0 {
		untilExpiry := time.Until(g.entries[0].at.Add(windowDuration))
		if untilExpiry > sleep {
			sleep = untilExpiry
		}
	}
	g.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-time.After(sleep):
	}
}

// Op is the operation ExecuteWithRetry wraps: typically a single LLM call
// that consumes a fixed, unmodified message history.
type Op func(ctx context.Context) error

// ExecuteWithRetry runs op, making up to 5 attempts with exponential backoff
// (1s*2^attempt, capped at 60s, plus +/-25% jitter) when op fails with an
// error matching a rate-limit signature. Any other error fails fast. The
// caller's context/history is never mutated between retries.
func (g *Governor) ExecuteWithRetry(ctx context.Context, op Op) error {
	ctx, span := governorTracer.Start(ctx, "ai.Governor.ExecuteWithRetry")
	defer span.End()

	var lastErr error
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		g.ThrottleIfNeeded(ctx)

		err := op(ctx)
		if err == nil {
			g.RecordProfileSuccess(g.profile)
			return nil
		}
		if !IsRateLimitSignature(err) {
			span.RecordError(err)
			return err
		}
		lastErr = err
		g.metrics.IncGovernorRetry()

		delay := backoffFor(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	// Exhausted: put the profile on cooldown so the next call through this
	// Governor waits out the window instead of immediately burning its own
	// five attempts against the same limit.
	g.RecordProfileError(g.profile, minThrottleSleep)
	return lastErr
}

func backoffFor(attempt int) time.Duration {
	d := baseBackoff * time.Duration(1<<uint(attempt))
	if d > maxBackoff {
		d = maxBackoff
	}
	jitter := time.Duration(float64(d) * jitterFraction * (rand.Float64()*2 - 1))
	d += jitter
	if d < 0 {
		d = 0
	}
	return d
}
