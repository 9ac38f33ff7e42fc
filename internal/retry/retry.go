// Package retry runs collaborator calls with bounded attempts and
// exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
)

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	Attempts int
	Delay    time.Duration
	Factor   float64
	MaxDelay time.Duration
	// Sleep waits between attempts. Tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default is the policy used for index and diff lookups.
func Default() Policy {
	return Policy{
		Attempts: 5,
		Delay:    time.Second,
		Factor:   2,
		MaxDelay: 30 * time.Second,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error
// immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls op until it succeeds, returns a permanent error, the context is
// done, or the attempts are exhausted.
func Do(ctx context.Context, p Policy, name string, op func(ctx context.Context) error) error {
	logger := ctxlog.FromContext(ctx)
	attempts := max(p.Attempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = wait
	}

	delay := p.Delay
	var last error
	for i := 1; i <= attempts; i++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		last = err
		if i == attempts {
			break
		}
		logger.Warn("Retrying after failure.", "op", name, "attempt", i, "of", attempts, "delay", delay, "error", err)
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		delay = next(delay, p.Factor, p.MaxDelay)
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", name, attempts, last)
}

func next(d time.Duration, factor float64, limit time.Duration) time.Duration {
	if factor < 1 {
		factor = 1
	}
	d = time.Duration(float64(d) * factor)
	if limit > 0 && d > limit {
		return limit
	}
	return d
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
