// Package dispatcher implements the timeline dispatcher: the cyclic
// controller that owns the static task plan, drives sub-frame boundaries,
// serially activates the HRT set per sub-frame honoring offsets and
// deadlines, fills residual sub-frame time with best-effort SRT activations,
// and logs every transition to the trace sink.
package dispatcher

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fla-os/timeline-scheduler/internal/clock"
	"github.com/fla-os/timeline-scheduler/internal/obslog"
	"github.com/fla-os/timeline-scheduler/internal/plan"
	"github.com/fla-os/timeline-scheduler/internal/taskrt"
	"github.com/fla-os/timeline-scheduler/internal/trace"
)

// defaultDispatcherPriority is one above the kernel idle priority floor, per
// §4.4.1: the dispatcher worker is created "at priority one above the kernel
// idle priority (and strictly below spawned HRT priority)".
const defaultDispatcherPriority = 1

// minStackSize is carried through to taskrt.SpawnOptions for contract
// fidelity with the kernel's spawn primitive; the goroutine adapter does not
// use it.
const minStackSize = 0

// Dispatcher is the timeline dispatcher. The zero value is not usable; build
// one with New.
type Dispatcher struct {
	clock              clock.Clock
	sink               *trace.Sink
	rt                 *taskrt.Runtime
	logger             obslog.Logger
	dispatcherPriority int

	state atomic.Int32

	mu        sync.RWMutex
	plan      *plan.TimelinePlan
	subframes []plan.SubframePlan
	managed   map[string]ManagedState

	cancel  func()
	doneCh  chan struct{}
	lcMutex sync.Mutex
}

// Option configures a Dispatcher under construction.
type Option func(*Dispatcher)

// WithClock overrides the Clock used for all timing. Defaults to a
// SystemClock with a 1ms tick.
func WithClock(c clock.Clock) Option { return func(d *Dispatcher) { d.clock = c } }

// WithSink overrides the trace.Sink events are logged to. Defaults to a Sink
// writing to os.Stdout.
func WithSink(s *trace.Sink) Option { return func(d *Dispatcher) { d.sink = s } }

// WithRuntime overrides the taskrt.Runtime used to spawn/observe/kill HRT
// workers. Defaults to an unbounded Runtime at the dispatcher's priority.
func WithRuntime(rt *taskrt.Runtime) Option { return func(d *Dispatcher) { d.rt = rt } }

// WithLogger overrides the operational logger. Defaults to obslog.Default.
func WithLogger(l obslog.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// WithDispatcherPriority overrides the dispatcher worker's own priority.
// HRT workers are always spawned at dispatcherPriority+1, per §4.4.3.
func WithDispatcherPriority(p int) Option {
	return func(d *Dispatcher) { d.dispatcherPriority = p }
}

// New constructs a Dispatcher in the uninitialized state.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		dispatcherPriority: defaultDispatcherPriority,
		logger:             obslog.Default,
	}
	for _, o := range opts {
		o(d)
	}
	if d.clock == nil {
		d.clock = clock.NewSystemClock(time.Millisecond)
	}
	if d.sink == nil {
		d.sink = trace.NewSink(os.Stdout)
	}
	if d.rt == nil {
		d.rt = taskrt.NewRuntime(d.dispatcherPriority, 0)
	}
	return d
}

// Sink returns the dispatcher's trace sink, for callers that want to Replay
// recorded history.
func (d *Dispatcher) Sink() *trace.Sink { return d.sink }

// Init validates p against every invariant of spec.md §3/§7, derives the
// per-sub-frame dispatch tables, and zeroes the managed-task table. It may be
// called more than once before Start: since Validate has no side effects,
// repeated calls with the same plan both fully validate or both fail
// identically (the idempotence property of §8). Init after Start returns an
// error; the plan is immutable for the dispatcher's running lifetime
// (Non-goal: dynamic timeline mutation).
func (d *Dispatcher) Init(p *plan.TimelinePlan) error {
	if st := d.loadState(); st == stateRunning || st == stateStopped {
		return newLifecycleError("init", st)
	}

	if err := plan.Validate(p); err != nil {
		return err
	}
	subframes := plan.Derive(p)

	managed := make(map[string]ManagedState, len(p.Tasks))
	for _, sf := range subframes {
		for _, t := range sf.HRT {
			managed[t.Name] = ManagedIdle
		}
	}

	d.mu.Lock()
	d.plan = p
	d.subframes = subframes
	d.managed = managed
	d.mu.Unlock()

	d.storeState(stateInitialized)
	d.logger.Info().Int("tasks", len(p.Tasks)).Int("subframes", p.NSubframes).Log("dispatcher initialized")
	return nil
}

// ManagedState reports the current state of the managed slot for the HRT
// task with the given name, or ManagedIdle if name does not identify a
// configured HRT task.
func (d *Dispatcher) ManagedState(name string) ManagedState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.managed[name]
}

func (d *Dispatcher) setManaged(name string, st ManagedState) {
	d.mu.Lock()
	d.managed[name] = st
	d.mu.Unlock()
}
