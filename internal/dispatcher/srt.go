package dispatcher

import (
	"context"

	"github.com/fla-os/timeline-scheduler/internal/clock"
)

// runSRTPhase invokes each SRT TaskSpec of sub-frame s in-line on the
// dispatcher worker, in configured order, up to the sub-frame's budget. Per
// §4.4.4, once the budget is exhausted the remaining SRTs are silently
// dropped for this cycle - no log entry, by design: SRT is best-effort, and
// logging a skip would contradict that.
func (d *Dispatcher) runSRTPhase(ctx context.Context, s int, subEpoch clock.Tick) {
	d.mu.RLock()
	specs := d.subframes[s].SRT
	budget := subEpoch + d.plan.SubframeTicks
	d.mu.RUnlock()

	for _, spec := range specs {
		if d.clock.Now() >= budget {
			return
		}
		spec.Entry(ctx)
	}
}
