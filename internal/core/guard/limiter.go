// Package guard enforces per-action attempt budgets over fixed windows.
// State is held in process memory: restarting the process clears all
// windows, which is acceptable for abuse throttling on auth endpoints.
package guard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stockhub-kr/stockhub/internal/metrics"
	"github.com/stockhub-kr/stockhub/internal/observability"
	"go.uber.org/zap"
)

// Default budget applied when no policy matches and no explicit
// limits are supplied.
const (
	DefaultMax    = 5
	DefaultWindow = 5 * time.Minute

	// DefaultSweepInterval controls how often expired windows are evicted.
	DefaultSweepInterval = time.Minute
)

// Policy is a per-action attempt budget.
type Policy struct {
	Max    int
	Window time.Duration
}

// Decision reports the outcome of a single attempt check.
type Decision struct {
	Allowed    bool `json:"allowed"`
	Remaining  int  `json:"remaining"`
	RetryAfter int  `json:"retryAfter,omitempty"`
}

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter tracks attempt counts per key over fixed windows.
// All checks on a given Limiter are serialized, so a check observes
// either the state before or after any concurrent check, never a
// partial update.
type Limiter struct {
	mu       sync.Mutex
	entries  map[string]*entry
	Policies map[string]Policy
	// Default overrides the package-level fallback budget for keys
	// without a matching policy. Zero fields keep the package defaults.
	Default Policy
	Clock   func() time.Time
}

// DefaultPolicies provides the standard auth-action budgets.
var DefaultPolicies = map[string]Policy{
	"signup": {Max: 3, Window: 5 * time.Minute},
	"signin": {Max: 5, Window: 5 * time.Minute},
	"reset":  {Max: 3, Window: 5 * time.Minute},
}

// NewLimiter constructs a Limiter with the supplied per-action policies.
// A nil policies map falls back to DefaultPolicies.
func NewLimiter(policies map[string]Policy) *Limiter {
	if policies == nil {
		policies = DefaultPolicies
	}
	return &Limiter{
		entries:  make(map[string]*entry),
		Policies: policies,
	}
}

// Allow checks one attempt for an action/key pair using the action's
// configured policy. The composite key keeps actions isolated: hitting
// the signin budget never consumes the signup budget for the same key.
func (l *Limiter) Allow(action, key string) Decision {
	policy := l.getPolicy(action)
	d := l.Check(action+":"+key, policy.Max, policy.Window)

	outcome := "allowed"
	if !d.Allowed {
		outcome = "denied"
	}
	metrics.RecordGuardDecision(action, outcome)
	return d
}

// Check records one attempt against key and reports whether it is
// within budget. Non-positive max or window fall back to the limiter's
// default budget.
//
// Any internal failure fails open: an unavailable guard must never
// lock users out of auth endpoints.
func (l *Limiter) Check(key string, max int, window time.Duration) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			if observability.ServerLogger != nil {
				observability.ServerLogger.Error("guard check panic, failing open",
					zap.Any("panic", r),
					zap.String("key", key),
				)
			}
			metrics.RecordGuardDecision("unknown", "fail_open")
			d = Decision{Allowed: true, Remaining: max}
		}
	}()

	fallback := l.defaultPolicy()
	if max <= 0 {
		max = fallback.Max
	}
	if window <= 0 {
		window = fallback.Window
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		// First attempt, or the previous window has expired.
		l.entries[key] = &entry{count: 1, resetAt: now.Add(window)}
		return Decision{Allowed: true, Remaining: max - 1}
	}

	if e.count >= max {
		// Do not increment: rejected attempts never extend the window.
		retryAfter := int((e.resetAt.Sub(now) + time.Second - 1) / time.Second)
		if retryAfter < 1 {
			retryAfter = 1
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}
	}

	e.count++
	return Decision{Allowed: true, Remaining: max - e.count}
}

// Peek reports the current window state for a key without consuming an
// attempt. ok is false when no live window exists for the key.
func (l *Limiter) Peek(key string) (count int, resetAt time.Time, ok bool) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, found := l.entries[key]
	if !found || now.After(e.resetAt) {
		return 0, time.Time{}, false
	}
	return e.count, e.resetAt, true
}

// Reset clears any live window for a key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Sweep evicts expired windows and returns the number removed.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked windows, live or expired.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// RunJanitor sweeps expired windows on the given interval until the
// context is cancelled. A non-positive interval uses the default.
func (l *Limiter) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := l.Sweep()
			if removed > 0 && observability.ServerLogger != nil {
				observability.ServerLogger.Debug("guard janitor sweep",
					zap.Int("removed", removed),
				)
			}
		}
	}
}

func (l *Limiter) getPolicy(action string) Policy {
	action = strings.TrimSpace(action)

	policies := l.Policies
	if policies == nil {
		policies = DefaultPolicies
	}

	if p, ok := policies[action]; ok && p.Max > 0 && p.Window > 0 {
		return p
	}
	return l.defaultPolicy()
}

// defaultPolicy resolves the fallback budget, preferring the limiter's
// configured Default over the package constants field by field.
func (l *Limiter) defaultPolicy() Policy {
	p := Policy{Max: DefaultMax, Window: DefaultWindow}
	if l.Default.Max > 0 {
		p.Max = l.Default.Max
	}
	if l.Default.Window > 0 {
		p.Window = l.Default.Window
	}
	return p
}

func (l *Limiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}
