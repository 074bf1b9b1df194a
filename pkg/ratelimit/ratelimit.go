// Package ratelimit applies fixed-window request limits on top of
// github.com/ulule/limiter. The in-memory store serves a single instance;
// the Redis store shares counters across instances.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"

	"github.com/JaimeStill/intake/pkg/lifecycle"
)

const keyPrefix = "ratelimit"

// ErrStoreNotReady indicates a store was used before its startup hook completed.
var ErrStoreNotReady = errors.New("rate limit store not ready")

// Store is a limiter counter backend that joins the application lifecycle.
type Store interface {
	limiter.Store
	// Start registers any startup work (such as script loading) with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// Rule bounds the number of hits a client may make within a window.
type Rule struct {
	Limit   int
	Window  time.Duration
	Message string
}

// Result reports the outcome of a single Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter applies one Rule to a namespace of client keys.
type Limiter struct {
	name    string
	rule    Rule
	limiter *limiter.Limiter
}

// New creates a Limiter. The name prefixes every key so several limiters can share a store.
func New(name string, rule Rule, store Store) *Limiter {
	rate := limiter.Rate{
		Period: rule.Window,
		Limit:  int64(rule.Limit),
	}

	return &Limiter{
		name:    name,
		rule:    rule,
		limiter: limiter.New(store, rate),
	}
}

// Rule returns the limiter's rule.
func (l *Limiter) Rule() Rule {
	return l.rule
}

// Allow records a hit for client and reports whether it is within the limit.
// Store failures are returned with Allowed set so callers can fail open.
func (l *Limiter) Allow(ctx context.Context, client string) (Result, error) {
	lctx, err := l.limiter.Get(ctx, l.key(client))
	if err != nil {
		return Result{Allowed: true, Limit: l.rule.Limit, Remaining: l.rule.Limit}, fmt.Errorf("increment %s: %w", l.name, err)
	}

	resetAt := time.Unix(lctx.Reset, 0)
	res := Result{
		Allowed:   !lctx.Reached,
		Limit:     int(lctx.Limit),
		Remaining: int(lctx.Remaining),
		ResetAt:   resetAt,
	}

	if lctx.Reached {
		res.RetryAfter = max(time.Until(resetAt), 0)
	}

	return res, nil
}

func (l *Limiter) key(client string) string {
	return l.name + ":" + client
}
