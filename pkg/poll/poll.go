// Package poll implements the bounded poll-until-ready primitive used for
// every readiness wait in the harness.
//
// UntilReady never returns an error. A predicate that fails or panics counts
// as "not ready yet", and exhaustion comes back as false so the caller decides
// whether running out of time is fatal.
package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// Config bounds a poll loop.
type Config struct {
	Timeout      time.Duration // total budget measured from the first attempt
	Interval     time.Duration // pause between attempts
	InitialDelay time.Duration // wait before the first attempt
}

func (c Config) String() string {
	return fmt.Sprintf("timeout=%s interval=%s delay=%s", c.Timeout, c.Interval, c.InitialDelay)
}

// Once is a config that makes exactly one attempt.
var Once = Config{}

// Clock is the time source the loop sleeps on. Tests substitute a fake.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Until is UntilReady on the wall clock.
func Until(ctx context.Context, cfg Config, op func() (bool, error)) bool {
	return UntilReady(ctx, RealClock, cfg, op)
}

// UntilReady waits cfg.InitialDelay, then calls op until it reports true or
// cfg.Timeout has elapsed since the first call. Between calls it sleeps
// cfg.Interval, cut short so the loop never runs past the deadline; the last
// attempt therefore lands on the deadline itself. A non-positive Interval
// means a single retry at the deadline, a non-positive Timeout means exactly
// one attempt. Cancelling ctx ends the loop at the next sleep.
func UntilReady(ctx context.Context, clock Clock, cfg Config, op func() (bool, error)) bool {
	if clock == nil {
		clock = RealClock
	}
	if cfg.InitialDelay > 0 && !sleep(ctx, clock, cfg.InitialDelay) {
		return false
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = cfg.Timeout
	}

	start := clock.Now()
	for attempt := 1; ; attempt++ {
		if invoke(op, attempt) {
			return true
		}
		elapsed := clock.Now().Sub(start)
		if elapsed >= cfg.Timeout {
			util.Debugf("poll: gave up after %d attempts in %s (%s)", attempt, elapsed, cfg)
			return false
		}
		wait := interval
		if remaining := cfg.Timeout - elapsed; remaining < wait {
			wait = remaining
		}
		if !sleep(ctx, clock, wait) {
			util.Debugf("poll: cancelled after %d attempts: %v", attempt, ctx.Err())
			return false
		}
	}
}

// invoke runs one attempt, folding errors and panics into "not ready".
func invoke(op func() (bool, error), attempt int) (ready bool) {
	defer func() {
		if r := recover(); r != nil {
			util.Debugf("poll: attempt %d panicked: %v", attempt, r)
			ready = false
		}
	}()
	ok, err := op()
	if err != nil {
		util.Debugf("poll: attempt %d: %v", attempt, err)
		return false
	}
	return ok
}

// Sleep pauses for d on clock. It returns ctx.Err() if ctx ends first.
func Sleep(ctx context.Context, clock Clock, d time.Duration) error {
	if clock == nil {
		clock = RealClock
	}
	if !sleep(ctx, clock, d) {
		return ctx.Err()
	}
	return nil
}

func sleep(ctx context.Context, clock Clock, d time.Duration) bool {
	if err := ctx.Err(); err != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-clock.After(d):
		return true
	}
}
