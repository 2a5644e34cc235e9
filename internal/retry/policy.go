// Package retry runs operations with bounded backoff.
package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/foundation/normalization"
)

// Backoff selects how the delay grows between attempts.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

var backoffNormalizer = normalization.NewNormalizer("backoff", map[string]Backoff{
	"fixed":       BackoffFixed,
	"linear":      BackoffLinear,
	"exponential": BackoffExponential,
	"exp":         BackoffExponential,
}, BackoffLinear)

// ParseBackoff returns the backoff for raw; empty yields linear.
func ParseBackoff(raw string) (Backoff, error) {
	return backoffNormalizer.Parse(raw)
}

// Policy is an immutable retry/backoff setting.
type Policy struct {
	Backoff    Backoff
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // attempts after the first failure
}

// DefaultPolicy is linear, 250ms initial, 5s cap, 2 retries.
func DefaultPolicy() Policy {
	return Policy{Backoff: BackoffLinear, Initial: 250 * time.Millisecond, Max: 5 * time.Second, MaxRetries: 2}
}

// NewPolicy builds a policy; zero or unknown values fall back to the defaults.
func NewPolicy(backoff Backoff, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	switch backoff {
	case BackoffFixed, BackoffLinear, BackoffExponential:
		p.Backoff = backoff
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the wait before retry n (1-based).
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Backoff {
	case BackoffFixed:
		return p.Initial
	case BackoffExponential:
		if n > 30 {
			return p.Max
		}
		d = p.Initial * (1 << (n - 1))
	default:
		d = time.Duration(n) * p.Initial
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

// Validate reports policies that cannot be applied.
func (p Policy) Validate() error {
	switch {
	case p.Initial <= 0:
		return errors.ValidationError("retry initial delay must be > 0").Build()
	case p.Max <= 0:
		return errors.ValidationError("retry max delay must be > 0").Build()
	case p.MaxRetries < 0:
		return errors.ValidationError("retry count cannot be negative").Build()
	}
	return nil
}

// Do runs op until it succeeds, the retries are exhausted or ctx ends. The
// last error is returned.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(p.Delay(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return err
			case <-t.C:
			}
		}
		if err = op(ctx); err == nil {
			return nil
		}
	}
	return err
}
