// Package demotasks reproduces the original firmware's demonstration task
// table (tasks_app.c, timeline_config.c): a 4-sub-frame, 100-tick major
// frame with ReadSensor/ControlLoop HRT pairs and Logging/Diagnostics SRT
// fillers. It is the default boot configuration wired into cmd/timelinesched
// - richer than the single-sub-frame two-task table of Demo/main.c, and the
// variant that actually exercises multiple sub-frames (scenario S5).
package demotasks

import (
	"context"
	"time"

	"github.com/fla-os/timeline-scheduler/internal/plan"
)

// busyWork simulates a bounded amount of CPU-bound task work. The original
// task bodies (vTaskReadSensor, vTaskControlLoop, ...) are tight busy loops
// over a fixed iteration count; a short sleep is the idiomatic Go stand-in,
// since a real busy loop would peg a CPU core for no testing benefit.
func busyWork(d time.Duration) plan.Entry {
	return func(ctx context.Context) {
		select {
		case <-time.After(d):
		case <-ctx.Done():
		}
	}
}

// Plan builds the demo TimelinePlan: major frame of 100 ticks, split into 4
// sub-frames of 25 ticks each.
//
//	sub-frame 0: ReadSensor (HRT, 0..10), ControlLoop (HRT, 10..20), Logging (SRT)
//	sub-frame 1: ReadSensor (HRT, 0..10), Diagnostics (SRT)
//	sub-frame 2: (idle filler sub-frame)
//	sub-frame 3: (idle filler sub-frame)
func Plan(tick time.Duration) (*plan.TimelinePlan, error) {
	return plan.NewTimelinePlan(
		plan.WithMajorFrame(100),
		plan.WithSubframes(4, 25),

		plan.WithTask(plan.TaskSpec{
			Name: "ReadSensor", Entry: busyWork(3 * tick), Kind: plan.HardRT,
			StartOffset: 0, DeadlineOffset: 10, SubframeID: 0,
		}),
		plan.WithTask(plan.TaskSpec{
			Name: "ControlLoop", Entry: busyWork(6 * tick), Kind: plan.HardRT,
			StartOffset: 10, DeadlineOffset: 20, SubframeID: 0,
		}),
		plan.WithTask(plan.TaskSpec{
			Name: "Logging", Entry: busyWork(2 * tick), Kind: plan.SoftRT,
			SubframeID: 0,
		}),

		plan.WithTask(plan.TaskSpec{
			Name: "ReadSensor", Entry: busyWork(3 * tick), Kind: plan.HardRT,
			StartOffset: 0, DeadlineOffset: 10, SubframeID: 1,
		}),
		plan.WithTask(plan.TaskSpec{
			Name: "Diagnostics", Entry: busyWork(4 * tick), Kind: plan.SoftRT,
			SubframeID: 1,
		}),
	)
}
