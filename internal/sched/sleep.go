package sched

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// adaptiveSleeper escalates the sleep duration applied after a worker
// pass makes no progress, resetting on the next successful procedure
// call. Backed by cenkalti/backoff/v5's ExponentialBackOff, with
// randomization disabled so the escalation is deterministic: sleep grows
// by Multiplier per consecutive no-progress pass, capped at MaxInterval,
// exactly the "min(base*multiplier^n, max_us)" rule from spec.md §4.6.
type adaptiveSleeper struct {
	enabled bool
	bo      *backoff.ExponentialBackOff
	sleep   func(time.Duration)
}

func newAdaptiveSleeper(cfg Config, sleepFn func(time.Duration)) *adaptiveSleeper {
	if sleepFn == nil {
		sleepFn = time.Sleep
	}
	if !cfg.AdaptiveSleep {
		return &adaptiveSleeper{enabled: false, sleep: sleepFn}
	}
	initial := cfg.SleepInitial
	if initial <= 0 {
		initial = time.Microsecond
	}
	mult := cfg.SleepMultiplier
	if mult <= 1 {
		mult = 1.5
	}
	max := cfg.SleepMax
	if max <= 0 {
		max = 5 * time.Millisecond
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.Multiplier = mult
	bo.MaxInterval = max
	bo.RandomizationFactor = 0
	return &adaptiveSleeper{enabled: true, bo: bo, sleep: sleepFn}
}

// NoProgress is called once per worker pass that made no progress; it
// sleeps for the current escalated interval and advances the backoff.
// v5 widened NextBackOff to also report a permanent-stop error (used by
// backoff.Retry to bail out of retry loops); a sleeper never stops on its
// own, so that case just falls back to MaxInterval instead of treating it
// as an escalation signal.
func (a *adaptiveSleeper) NoProgress() time.Duration {
	if !a.enabled {
		return 0
	}
	d, err := a.bo.NextBackOff()
	if err != nil {
		d = a.bo.MaxInterval
	}
	a.sleep(d)
	return d
}

// Reset is called after any successful procedure call, collapsing the
// sleep interval back to SleepInitial.
func (a *adaptiveSleeper) Reset() {
	if a.enabled {
		a.bo.Reset()
	}
}
