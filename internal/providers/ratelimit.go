package providers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Gate throttles outgoing calls. Wait blocks until the next call may be
// issued or ctx is done.
type Gate interface {
	Wait(ctx context.Context) error
}

// RateLimitObserver is implemented by gates that react to explicit
// rate-limit signals from a provider.
type RateLimitObserver interface {
	ObserveRateLimit(retryAfter time.Duration)
	ObserveSuccess()
}

// FixedIntervalGate enforces a fixed delay between consecutive calls. The
// first call passes immediately.
type FixedIntervalGate struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewFixedIntervalGate creates a gate that spaces calls interval apart.
// A non-positive interval disables throttling.
func NewFixedIntervalGate(interval time.Duration) *FixedIntervalGate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &FixedIntervalGate{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Wait blocks until the interval since the previous call has elapsed.
func (g *FixedIntervalGate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// Interval returns the configured delay.
func (g *FixedIntervalGate) Interval() time.Duration {
	return g.interval
}

// AdaptiveGate is a token bucket that backs off when the provider signals
// a rate limit and recovers on success.
type AdaptiveGate struct {
	mu sync.Mutex

	// Configuration
	requestsPerMinute int
	windowSeconds     float64
	baseBackoff       time.Duration
	maxBackoff        time.Duration

	// Token bucket state
	tokens     float64
	lastUpdate time.Time

	// Backoff state
	backoff      time.Duration
	pausedUntil  time.Time
	now          func() time.Time
	totalWaited  time.Duration
	totalBackoff int64
	last429Time  time.Time
}

// AdaptiveGateStatus reports current gate state.
type AdaptiveGateStatus struct {
	TokensAvailable int           `json:"tokens_available"`
	TokensLimit     int           `json:"tokens_limit"`
	Backoff         time.Duration `json:"backoff"`
	PausedFor       time.Duration `json:"paused_for"`
	TotalWaited     time.Duration `json:"total_waited"`
	RateLimits      int64         `json:"rate_limits"`
	Last429Time     time.Time     `json:"last_429_time,omitempty"`
}

// NewAdaptiveGate creates a gate allowing requestsPerMinute with a burst of
// one, backing off from baseBackoff up to maxBackoff on rate limits.
func NewAdaptiveGate(requestsPerMinute int, baseBackoff, maxBackoff time.Duration) *AdaptiveGate {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if baseBackoff <= 0 {
		baseBackoff = time.Second
	}
	if maxBackoff < baseBackoff {
		maxBackoff = 64 * baseBackoff
	}
	g := &AdaptiveGate{
		requestsPerMinute: requestsPerMinute,
		windowSeconds:     60.0,
		baseBackoff:       baseBackoff,
		maxBackoff:        maxBackoff,
		tokens:            1,
		now:               time.Now,
	}
	g.lastUpdate = g.now()
	return g
}

// Wait blocks until a token is available and any backoff pause has passed.
func (g *AdaptiveGate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		now := g.now()
		g.refill(now)

		var waitTime time.Duration
		switch {
		case now.Before(g.pausedUntil):
			waitTime = g.pausedUntil.Sub(now)
		case g.tokens >= 1.0:
			g.tokens--
			g.mu.Unlock()
			return nil
		default:
			tokensNeeded := 1.0 - g.tokens
			waitTime = time.Duration(tokensNeeded / g.refillRate() * float64(time.Second))
		}
		g.mu.Unlock()

		// Wait outside lock
		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			g.mu.Lock()
			g.totalWaited += waitTime
			g.mu.Unlock()
		}
	}
}

// ObserveRateLimit drains the bucket and pauses for retryAfter, or for an
// exponentially growing backoff when the provider gave no hint.
func (g *AdaptiveGate) ObserveRateLimit(retryAfter time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.last429Time = now
	g.totalBackoff++
	g.tokens = 0

	if g.backoff == 0 {
		g.backoff = g.baseBackoff
	} else {
		g.backoff *= 2
	}
	if g.backoff > g.maxBackoff {
		g.backoff = g.maxBackoff
	}

	pause := g.backoff
	if retryAfter > pause {
		pause = retryAfter
	}
	if until := now.Add(pause); until.After(g.pausedUntil) {
		g.pausedUntil = until
	}
}

// ObserveSuccess resets the backoff.
func (g *AdaptiveGate) ObserveSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.backoff = 0
}

// SetRequestsPerMinute changes the refill rate of a running gate. Values
// <= 0 are ignored.
func (g *AdaptiveGate) SetRequestsPerMinute(n int) {
	if n <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refill(g.now())
	g.requestsPerMinute = n
}

// RequestsPerMinute returns the current refill rate.
func (g *AdaptiveGate) RequestsPerMinute() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requestsPerMinute
}

// Status returns current gate status.
func (g *AdaptiveGate) Status() AdaptiveGateStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.refill(now)

	var paused time.Duration
	if now.Before(g.pausedUntil) {
		paused = g.pausedUntil.Sub(now)
	}
	return AdaptiveGateStatus{
		TokensAvailable: int(g.tokens),
		TokensLimit:     1,
		Backoff:         g.backoff,
		PausedFor:       paused,
		TotalWaited:     g.totalWaited,
		RateLimits:      g.totalBackoff,
		Last429Time:     g.last429Time,
	}
}

func (g *AdaptiveGate) refillRate() float64 {
	return float64(g.requestsPerMinute) / g.windowSeconds
}

// refill adds tokens based on elapsed time. Must be called with lock held.
func (g *AdaptiveGate) refill(now time.Time) {
	elapsed := now.Sub(g.lastUpdate).Seconds()
	g.lastUpdate = now
	if elapsed <= 0 {
		return
	}

	g.tokens += elapsed * g.refillRate()
	// Burst of one keeps calls spaced.
	if g.tokens > 1 {
		g.tokens = 1
	}
}

var (
	_ Gate              = (*FixedIntervalGate)(nil)
	_ Gate              = (*AdaptiveGate)(nil)
	_ RateLimitObserver = (*AdaptiveGate)(nil)
)
