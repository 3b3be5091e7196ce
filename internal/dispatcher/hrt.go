package dispatcher

import (
	"context"

	"github.com/fla-os/timeline-scheduler/internal/clock"
	"github.com/fla-os/timeline-scheduler/internal/plan"
	"github.com/fla-os/timeline-scheduler/internal/taskrt"
	"github.com/fla-os/timeline-scheduler/internal/trace"
)

// ManagedState is the per-slot state machine of §4.4.5:
// IDLE -> SPAWNED -> (COMPLETED | KILLED) -> IDLE.
type ManagedState int

const (
	ManagedIdle ManagedState = iota
	ManagedSpawned
	ManagedCompleted
	ManagedKilled
)

func (s ManagedState) String() string {
	switch s {
	case ManagedSpawned:
		return "SPAWNED"
	case ManagedCompleted:
		return "COMPLETED"
	case ManagedKilled:
		return "KILLED"
	default:
		return "IDLE"
	}
}

// runHRTPhase runs the HRT set of sub-frame s in start-offset order.
// Returns false if ctx was cancelled mid-phase, signalling the frame loop to
// stop entirely.
func (d *Dispatcher) runHRTPhase(ctx context.Context, s int, subEpoch clock.Tick) bool {
	d.mu.RLock()
	specs := d.subframes[s].HRT
	d.mu.RUnlock()

	for _, spec := range specs {
		absStart := subEpoch + spec.StartOffset
		absDeadline := subEpoch + spec.DeadlineOffset

		// Edge case: if a prior HRT ran long and was killed at its deadline,
		// now() may already be past absStart. Start immediately - never
		// skip - the deadline is still computed from the same subEpoch.
		if !d.sleepUntilCtx(ctx, absStart) {
			return false
		}
		// A slot left in a terminal state by the previous activation returns
		// to IDLE at the start of this one.
		d.setManaged(spec.Name, ManagedIdle)

		// Edge case: the previous spec's overrun consumed so much time that
		// this spec's deadline has already passed before it could spawn.
		if d.clock.Now() >= absDeadline {
			d.sink.Log(trace.DeadlineMiss, spec.Name, d.clock.Now())
			d.setManaged(spec.Name, ManagedKilled)
			continue
		}

		if !d.activateHRT(ctx, spec, absDeadline) {
			return false
		}
	}

	return true
}

// activateHRT spawns one HRT worker and runs the monitor loop of §4.4.3
// until it reaches a terminal state (COMPLETED or KILLED). Returns false if
// ctx was cancelled mid-monitor.
func (d *Dispatcher) activateHRT(ctx context.Context, spec plan.TaskSpec, absDeadline clock.Tick) bool {
	handle, err := d.rt.Spawn(ctx, spec.Entry, taskrt.SpawnOptions{
		Name:      spec.Name,
		StackSize: minStackSize,
		Priority:  d.dispatcherPriority + 1,
	})
	if err != nil {
		d.sink.Log(trace.TaskCreateFailed, spec.Name, d.clock.Now())
		d.logger.Warning().Str("task", spec.Name).Err(err).Log("spawn failed, continuing with next spec")
		return true
	}

	d.sink.Log(trace.TaskSpawn, spec.Name, d.clock.Now())
	d.setManaged(spec.Name, ManagedSpawned)

	for {
		select {
		case <-ctx.Done():
			d.rt.Kill(handle)
			return false
		default:
		}

		if d.rt.State(handle) == taskrt.StateDeleted {
			d.sink.Log(trace.TaskComplete, spec.Name, d.clock.Now())
			d.setManaged(spec.Name, ManagedCompleted)
			return true
		}

		if d.clock.Now() >= absDeadline {
			d.rt.Kill(handle)
			d.sink.Log(trace.DeadlineMiss, spec.Name, d.clock.Now())
			d.setManaged(spec.Name, ManagedKilled)
			return true
		}

		// Bounded sampling: one tick quantum, per §9's documented
		// poll-vs-notify tradeoff (worst-case one tick of latency).
		d.clock.YieldOnce()
	}
}
