package sim

import (
	"context"
	"time"
)

// StepResult describes one completed tick for the after-step hook.
type StepResult struct {
	Tick         uint64
	Now          time.Time
	Delta        float64
	Duration     time.Duration
	Budget       time.Duration
	ClampedDelta bool
}

// Run drives the fixed-timestep loop until the context is cancelled. The
// clamp bounds catch-up work after a stall so a long pause never turns into
// a burst of simulated seconds.
func (e *Engine) Run(ctx context.Context, afterStep func(context.Context, StepResult)) error {
	if e == nil {
		return nil
	}
	tickRate := e.cfg.TickRate
	budget := time.Second / time.Duration(tickRate)
	budgetSeconds := 1.0 / float64(tickRate)
	maxDelta := budgetSeconds
	if e.cfg.CatchupMaxTicks > 1 {
		maxDelta = budgetSeconds * float64(e.cfg.CatchupMaxTicks)
	}

	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	clock := e.deps.Clock
	last := clock.Now()
	e.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := clock.Now()
			delta := now.Sub(last).Seconds()
			clamped := false
			if delta <= 0 {
				delta = budgetSeconds
			} else if delta > maxDelta {
				delta = maxDelta
				clamped = true
			}
			last = now

			start := clock.Now()
			tick := e.Step(ctx, delta)
			result := StepResult{
				Tick:         tick,
				Now:          now,
				Delta:        delta,
				Duration:     clock.Now().Sub(start),
				Budget:       budget,
				ClampedDelta: clamped,
			}
			if afterStep != nil {
				afterStep(ctx, result)
			}
		}
	}
}
