// Package plan holds the scheduler's immutable configuration surface: the
// TimelinePlan a host program assembles at boot, its TaskSpecs, and the
// derived per-sub-frame dispatch tables the dispatcher actually iterates.
package plan

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/fla-os/timeline-scheduler/internal/clock"
)

// TaskKind distinguishes the two dispatch disciplines a TaskSpec can have.
type TaskKind int

const (
	HardRT TaskKind = iota
	SoftRT
)

func (k TaskKind) String() string {
	if k == SoftRT {
		return "SOFT_RT"
	}
	return "HARD_RT"
}

// MaxTasks bounds the number of TaskSpecs a TimelinePlan may hold.
const MaxTasks = 16

// MaxPerSubframe bounds how many tasks of a single kind may be assigned to
// one sub-frame, matching the original configuration's
// MAX_HRT_PER_SUBFRAME/MAX_SRT_PER_SUBFRAME.
const MaxPerSubframe = 8

// Entry is a worker body: a one-shot closure that terminates by returning.
// Defined as an alias (not a distinct named type) so it is directly
// assignable to taskrt.Entry without this package importing taskrt.
type Entry = func(ctx context.Context)

// TaskSpec is an immutable task configuration, assigned to a sub-frame.
type TaskSpec struct {
	Name           string
	Entry          Entry
	Kind           TaskKind
	StartOffset    clock.Tick
	DeadlineOffset clock.Tick
	SubframeID     int
}

// TimelinePlan is the scheduler's immutable top-level configuration.
type TimelinePlan struct {
	MajorFrameTicks clock.Tick
	NSubframes      int
	SubframeTicks   clock.Tick
	Tasks           []TaskSpec
}

// Option configures a TimelinePlan under construction, in the style of the
// monorepo's BatcherConfig/logiface Option[E] pattern: a struct built up by
// composable functions, then validated once.
type Option func(*TimelinePlan)

// WithMajorFrame sets the major frame's total length in ticks.
func WithMajorFrame(ticks clock.Tick) Option {
	return func(p *TimelinePlan) { p.MajorFrameTicks = ticks }
}

// WithSubframes sets the sub-frame count and the length of each, in ticks.
func WithSubframes(n int, subframeTicks clock.Tick) Option {
	return func(p *TimelinePlan) {
		p.NSubframes = n
		p.SubframeTicks = subframeTicks
	}
}

// WithTask appends one TaskSpec to the plan.
func WithTask(spec TaskSpec) Option {
	return func(p *TimelinePlan) { p.Tasks = append(p.Tasks, spec) }
}

// NewTimelinePlan assembles a TimelinePlan from options and validates it.
// n_subframes defaults to 1 if WithSubframes is never called, accepting the
// "single implicit sub-frame" configuration variant alongside the explicit
// multi-sub-frame one (see design note on zero-sub-frame configurations).
func NewTimelinePlan(opts ...Option) (*TimelinePlan, error) {
	p := &TimelinePlan{NSubframes: 1}
	for _, o := range opts {
		o(p)
	}
	if p.SubframeTicks == 0 && p.MajorFrameTicks != 0 && p.NSubframes == 1 {
		p.SubframeTicks = p.MajorFrameTicks
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Sentinel errors every ValidationError wraps, so callers can use errors.Is
// against a stable taxonomy instead of matching message text.
var (
	ErrNilPlan            = errors.New("plan: nil plan")
	ErrNoTasks            = errors.New("plan: no tasks configured")
	ErrTooManyTasks       = errors.New("plan: too many tasks")
	ErrBadFrameTicks      = errors.New("plan: major_frame_ticks must equal n_subframes * subframe_ticks")
	ErrSubframeOutOfRange = errors.New("plan: subframe_id out of range")
	ErrBadDeadline        = errors.New("plan: deadline_offset must be greater than start_offset, and at most subframe_ticks, for HARD_RT tasks")
	ErrOverlap            = errors.New("plan: HARD_RT tasks within one sub-frame must be non-overlapping and strictly increasing")
	ErrTooManyPerSubframe = errors.New("plan: too many tasks of one kind assigned to a sub-frame")
)

// ValidationError is the error family returned by Validate and
// NewTimelinePlan/Dispatcher.Init on a configuration error (spec.md §7,
// taxonomy 1). It is always Unwrap-compatible with one of the sentinel
// errors above.
type ValidationError struct {
	sentinel error
	detail   string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.sentinel, e.detail) }
func (e *ValidationError) Unwrap() error { return e.sentinel }

func newValidationError(sentinel error, format string, args ...any) *ValidationError {
	return &ValidationError{sentinel: sentinel, detail: fmt.Sprintf(format, args...)}
}

// Validate checks a TimelinePlan against every invariant of spec.md §3/§7.
// It has no side effects; a nil error means SubframePlans may safely be
// derived from p via Derive.
func Validate(p *TimelinePlan) error {
	if p == nil {
		return newValidationError(ErrNilPlan, "plan is nil")
	}
	if len(p.Tasks) == 0 {
		return newValidationError(ErrNoTasks, "at least one task is required")
	}
	if len(p.Tasks) > MaxTasks {
		return newValidationError(ErrTooManyTasks, "got %d, max %d", len(p.Tasks), MaxTasks)
	}
	if p.NSubframes < 1 {
		return newValidationError(ErrBadFrameTicks, "n_subframes must be >= 1, got %d", p.NSubframes)
	}
	if p.MajorFrameTicks == 0 || p.SubframeTicks == 0 ||
		clock.Tick(p.NSubframes)*p.SubframeTicks != p.MajorFrameTicks {
		return newValidationError(ErrBadFrameTicks, "n_subframes=%d subframe_ticks=%d major_frame_ticks=%d",
			p.NSubframes, p.SubframeTicks, p.MajorFrameTicks)
	}

	for _, t := range p.Tasks {
		if t.SubframeID < 0 || t.SubframeID >= p.NSubframes {
			return newValidationError(ErrSubframeOutOfRange, "task %q: subframe_id=%d, n_subframes=%d",
				t.Name, t.SubframeID, p.NSubframes)
		}
		if t.Kind == HardRT {
			if t.DeadlineOffset <= t.StartOffset || t.DeadlineOffset > p.SubframeTicks {
				return newValidationError(ErrBadDeadline, "task %q: start_offset=%d deadline_offset=%d subframe_ticks=%d",
					t.Name, t.StartOffset, t.DeadlineOffset, p.SubframeTicks)
			}
		}
	}

	for s := 0; s < p.NSubframes; s++ {
		var hrt, srt []TaskSpec
		for _, t := range p.Tasks {
			if t.SubframeID != s {
				continue
			}
			if t.Kind == HardRT {
				hrt = append(hrt, t)
			} else {
				srt = append(srt, t)
			}
		}

		if len(hrt) > MaxPerSubframe {
			return newValidationError(ErrTooManyPerSubframe, "sub-frame %d: %d HARD_RT tasks, max %d", s, len(hrt), MaxPerSubframe)
		}
		if len(srt) > MaxPerSubframe {
			return newValidationError(ErrTooManyPerSubframe, "sub-frame %d: %d SOFT_RT tasks, max %d", s, len(srt), MaxPerSubframe)
		}

		// Sort then walk adjacent pairs, checking the non-overlapping,
		// strictly-increasing invariant: the same shape of problem as
		// parseRates' sort-then-adjacent-monotonicity check, generalized
		// from durations to a pair of offsets per element.
		slices.SortFunc(hrt, func(a, b TaskSpec) int {
			switch {
			case a.StartOffset < b.StartOffset:
				return -1
			case a.StartOffset > b.StartOffset:
				return 1
			default:
				return 0
			}
		})
		for i := 0; i < len(hrt)-1; i++ {
			if hrt[i].DeadlineOffset > hrt[i+1].StartOffset {
				return newValidationError(ErrOverlap, "sub-frame %d: %q (deadline %d) overlaps %q (start %d)",
					s, hrt[i].Name, hrt[i].DeadlineOffset, hrt[i+1].Name, hrt[i+1].StartOffset)
			}
		}
	}

	return nil
}

// SubframePlan is the per-sub-frame dispatch table derived once at init: an
// ordered HRT list (by start_offset) and an ordered SRT list (configuration
// order), matching the original's SubframeSchedule_t.
type SubframePlan struct {
	HRT []TaskSpec
	SRT []TaskSpec
}

// Derive builds the per-sub-frame dispatch tables for a validated plan. The
// caller must have already called Validate (or gone through
// NewTimelinePlan) — Derive does not re-validate.
func Derive(p *TimelinePlan) []SubframePlan {
	plans := make([]SubframePlan, p.NSubframes)
	for _, t := range p.Tasks {
		sp := &plans[t.SubframeID]
		if t.Kind == HardRT {
			sp.HRT = append(sp.HRT, t)
		} else {
			sp.SRT = append(sp.SRT, t)
		}
	}
	for i := range plans {
		slices.SortFunc(plans[i].HRT, func(a, b TaskSpec) int {
			switch {
			case a.StartOffset < b.StartOffset:
				return -1
			case a.StartOffset > b.StartOffset:
				return 1
			default:
				return 0
			}
		})
	}
	return plans
}
