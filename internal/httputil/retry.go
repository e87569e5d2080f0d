// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the pacing and backoff primitives used by the
// Starter API client: a minimum-interval limiter, exponential backoff with
// jitter, and Retry-After parsing.
package httputil

import (
	"context"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/starter-export/pkg/types"
)

// Sleeper blocks for d or until ctx is done. Tests substitute a recorder.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the wall-clock Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff computes the delay before the next attempt. attempt is the
// zero-based index of the attempt that just failed. The exponential part
// is BaseDelay * Multiplier^attempt, capped at MaxDelay when set and
// raised to floor. A random share of Jitter is added on top; rnd returns
// values in [0, 1) and may be nil to use math/rand.
func Backoff(cfg types.BackoffConfig, attempt int, floor time.Duration, rnd func() float64) time.Duration {
	mult := cfg.Multiplier
	if mult <= 0 {
		mult = 2
	}
	delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(mult, float64(attempt)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if delay < floor {
		delay = floor
	}
	if cfg.Jitter > 0 {
		if rnd == nil {
			rnd = rand.Float64
		}
		delay += time.Duration(rnd() * float64(cfg.Jitter))
	}
	return delay
}

// RetryAfter reads the Retry-After header as delta seconds (fractional
// values allowed) or as an HTTP date. It reports false when the header is
// missing, unparsable, or already in the past.
func RetryAfter(h http.Header, now time.Time) (time.Duration, bool) {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d, true
		}
	}
	return 0, false
}
