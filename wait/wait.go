// Package wait polls service readiness checks until they pass or a timeout
// elapses.
//
// The loop is deliberately simple: sample the clock, run the check, sleep,
// sample again. Both the clock and the sleep are injectable so timeout
// behaviour can be tested without real waiting.
package wait

import (
	"errors"
	"time"
)

// ErrTimeout is returned when a check did not pass before the timeout.
var ErrTimeout = errors.New("Timeout reached while waiting on service!") //nolint:staticcheck

// Clock returns the elapsed time since an arbitrary, fixed origin.
type Clock func() time.Duration

// WallClock returns a Clock measuring monotonic time since the call.
func WallClock() Clock {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

type config struct {
	clock Clock
	sleep func(time.Duration)
}

// Option customises a wait.
type Option func(cfg *config)

// WithClock replaces the wall clock used to measure the timeout.
func WithClock(clock Clock) Option {
	return func(cfg *config) {
		cfg.clock = clock
	}
}

// WithSleep replaces time.Sleep between two polls.
func WithSleep(sleep func(time.Duration)) Option {
	return func(cfg *config) {
		cfg.sleep = sleep
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		clock: WallClock(),
		sleep: time.Sleep,
	}
	for i := range opts {
		opts[i](&cfg)
	}
	return cfg
}

// UntilResponsive calls check every pause until it returns true or timeout
// has elapsed, in which case ErrTimeout is returned.
//
// The elapsed time is compared with a strict less-than, so a check that only
// becomes true right at the timeout may not be observed. The overshoot is
// bounded by one pause.
func UntilResponsive(check func() bool, timeout, pause time.Duration, opts ...Option) error {
	return UntilResponsiveE(func() (bool, error) {
		return check(), nil
	}, timeout, pause, opts...)
}

// UntilResponsiveE is UntilResponsive for checks that can fail. The first
// error returned by check stops the loop and is returned as is.
func UntilResponsiveE(check func() (bool, error), timeout, pause time.Duration, opts ...Option) error {
	cfg := newConfig(opts)

	ref := cfg.clock()
	now := ref
	for now-ref < timeout {
		ok, err := check()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		cfg.sleep(pause)
		now = cfg.clock()
	}

	return ErrTimeout
}
