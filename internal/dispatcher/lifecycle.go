package dispatcher

import (
	"context"
	"fmt"
)

// lifecycleState models the dispatcher's own boot/shutdown state machine.
// This is additive relative to the original FreeRTOS design (whose main
// never returns, so it has no equivalent), enriched from elsewhere in the
// example pack: a simplified, non-WASM adaptation of a kernel boot/shutdown
// state machine, giving the host program a way to stop the dispatcher on
// SIGINT/SIGTERM. It does not change any invariant of the frame loop itself.
type lifecycleState int32

const (
	stateUninitialized lifecycleState = iota
	stateInitialized
	stateRunning
	stateStopped
)

func (s lifecycleState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInitialized:
		return "initialized"
	case stateRunning:
		return "running"
	case stateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// LifecycleError is returned by Init/Start/Shutdown when called in a state
// that does not permit the requested transition.
type LifecycleError struct {
	Op    string
	State lifecycleState
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("dispatcher: %s: invalid in state %s", e.Op, e.State)
}

func newLifecycleError(op string, st lifecycleState) *LifecycleError {
	return &LifecycleError{Op: op, State: st}
}

func (d *Dispatcher) loadState() lifecycleState { return lifecycleState(d.state.Load()) }
func (d *Dispatcher) storeState(s lifecycleState) { d.state.Store(int32(s)) }

// State reports the dispatcher's current lifecycle state.
func (d *Dispatcher) State() string { return d.loadState().String() }

// Start releases the dispatcher worker to begin the first major frame. It
// must follow a successful Init. If the dispatcher is already running,
// Start is a no-op, per §4.4.1 ("if init already arms the worker, start is a
// no-op") generalized to "if already started, start is a no-op".
func (d *Dispatcher) Start(ctx context.Context) error {
	d.lcMutex.Lock()
	defer d.lcMutex.Unlock()

	if d.loadState() == stateRunning {
		return nil
	}
	if !d.state.CompareAndSwap(int32(stateInitialized), int32(stateRunning)) {
		return newLifecycleError("start", d.loadState())
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.doneCh = make(chan struct{})

	go func() {
		defer close(d.doneCh)
		d.frameLoop(runCtx)
	}()

	d.logger.Info().Log("dispatcher started")
	return nil
}

// Shutdown stops the frame loop and waits for it to exit, or for ctx to be
// done, whichever comes first. Idempotent: calling Shutdown when not running
// is a no-op. There is no resumption; a stopped Dispatcher must be discarded.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.lcMutex.Lock()
	if !d.state.CompareAndSwap(int32(stateRunning), int32(stateStopped)) {
		d.lcMutex.Unlock()
		return nil
	}
	cancel, done := d.cancel, d.doneCh
	d.lcMutex.Unlock()

	cancel()
	select {
	case <-done:
		d.logger.Info().Log("dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
