package dispatcher

import (
	"context"

	"github.com/fla-os/timeline-scheduler/internal/clock"
	"github.com/fla-os/timeline-scheduler/internal/trace"
)

// schedulerName is the diagnostic name used for dispatcher-emitted trace
// lines, matching the original's trace output for the scheduler itself.
const schedulerName = "Scheduler"

// frameLoop implements §4.4.2's dispatch algorithm: the major-frame epoch
// advances by exactly major_frame_ticks per cycle from a fixed E0, so
// cumulative drift is zero across arbitrarily many frames. It runs until ctx
// is done.
func (d *Dispatcher) frameLoop(ctx context.Context) {
	d.mu.RLock()
	p := d.plan
	d.mu.RUnlock()

	e0 := d.clock.Now()

	for c := clock.Tick(0); ; c++ {
		frameEpoch := e0 + c*p.MajorFrameTicks

		if !d.sleepUntilCtx(ctx, frameEpoch) {
			return
		}
		d.sink.Log(trace.MajorFrameStart, schedulerName, d.clock.Now())

		for s := 0; s < p.NSubframes; s++ {
			subEpoch := frameEpoch + clock.Tick(s)*p.SubframeTicks

			if !d.sleepUntilCtx(ctx, subEpoch) {
				return
			}
			d.sink.Log(trace.SubframeStart, schedulerName, d.clock.Now())

			if !d.runHRTPhase(ctx, s, subEpoch) {
				return
			}
			d.runSRTPhase(ctx, s, subEpoch)
		}

		d.sink.Log(trace.IdleStart, schedulerName, d.clock.Now())
		if !d.sleepUntilCtx(ctx, frameEpoch+p.MajorFrameTicks) {
			return
		}
		d.sink.Log(trace.IdleEnd, schedulerName, d.clock.Now())
	}
}

// sleepUntilCtx sleeps until the clock reaches deadline, or returns false
// early if ctx is done first. clock.Clock.SleepUntil has no cancellation of
// its own (the original kernel primitive has none - "no external
// cancellation of the dispatcher" per §5), so an early return here abandons
// the in-flight sleep rather than interrupting it; the abandoned goroutine
// keeps sleeping in the background until the clock reaches deadline.
func (d *Dispatcher) sleepUntilCtx(ctx context.Context, deadline clock.Tick) bool {
	done := make(chan struct{})
	go func() {
		d.clock.SleepUntil(deadline)
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
