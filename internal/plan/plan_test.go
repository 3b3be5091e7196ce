package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func noop(context.Context) {}

func TestNewTimelinePlan_ValidSingleSubframe(t *testing.T) {
	p, err := NewTimelinePlan(
		WithMajorFrame(100),
		WithTask(TaskSpec{Name: "A", Entry: noop, Kind: HardRT, StartOffset: 10, DeadlineOffset: 40}),
	)
	require.NoError(t, err)
	require.EqualValues(t, 1, p.NSubframes)
	require.EqualValues(t, 100, p.SubframeTicks)
}

func TestNewTimelinePlan_NilTasksRejected(t *testing.T) {
	_, err := NewTimelinePlan(WithMajorFrame(100))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoTasks)
}

func TestValidate_TooManyTasks(t *testing.T) {
	p := &TimelinePlan{MajorFrameTicks: 100, NSubframes: 1, SubframeTicks: 100}
	for i := 0; i < MaxTasks+1; i++ {
		p.Tasks = append(p.Tasks, TaskSpec{Name: "x", Entry: noop, Kind: SoftRT})
	}
	err := Validate(p)
	require.ErrorIs(t, err, ErrTooManyTasks)
}

func TestValidate_FrameTicksMismatch(t *testing.T) {
	p := &TimelinePlan{
		MajorFrameTicks: 99,
		NSubframes:      4,
		SubframeTicks:   25,
		Tasks:           []TaskSpec{{Name: "A", Entry: noop, Kind: SoftRT}},
	}
	require.ErrorIs(t, Validate(p), ErrBadFrameTicks)
}

func TestValidate_SubframeOutOfRange(t *testing.T) {
	p := &TimelinePlan{
		MajorFrameTicks: 100,
		NSubframes:      1,
		SubframeTicks:   100,
		Tasks:           []TaskSpec{{Name: "A", Entry: noop, Kind: SoftRT, SubframeID: 1}},
	}
	require.ErrorIs(t, Validate(p), ErrSubframeOutOfRange)
}

func TestValidate_DeadlineNotAfterStart(t *testing.T) {
	p := &TimelinePlan{
		MajorFrameTicks: 100,
		NSubframes:      1,
		SubframeTicks:   100,
		Tasks:           []TaskSpec{{Name: "A", Entry: noop, Kind: HardRT, StartOffset: 40, DeadlineOffset: 40}},
	}
	require.ErrorIs(t, Validate(p), ErrBadDeadline)
}

func TestValidate_DeadlineExceedsSubframe(t *testing.T) {
	p := &TimelinePlan{
		MajorFrameTicks: 100,
		NSubframes:      1,
		SubframeTicks:   100,
		Tasks:           []TaskSpec{{Name: "A", Entry: noop, Kind: HardRT, StartOffset: 10, DeadlineOffset: 101}},
	}
	require.ErrorIs(t, Validate(p), ErrBadDeadline)
}

func TestValidate_HRTOverlapRejected(t *testing.T) {
	p := &TimelinePlan{
		MajorFrameTicks: 100,
		NSubframes:      1,
		SubframeTicks:   100,
		Tasks: []TaskSpec{
			{Name: "A", Entry: noop, Kind: HardRT, StartOffset: 0, DeadlineOffset: 25},
			{Name: "B", Entry: noop, Kind: HardRT, StartOffset: 20, DeadlineOffset: 40},
		},
	}
	require.ErrorIs(t, Validate(p), ErrOverlap)
}

func TestValidate_HRTOrderIndependentOfConfigOrder(t *testing.T) {
	// B is listed first but starts after A; validation must sort before
	// checking the overlap invariant.
	p := &TimelinePlan{
		MajorFrameTicks: 100,
		NSubframes:      1,
		SubframeTicks:   100,
		Tasks: []TaskSpec{
			{Name: "B", Entry: noop, Kind: HardRT, StartOffset: 20, DeadlineOffset: 40},
			{Name: "A", Entry: noop, Kind: HardRT, StartOffset: 0, DeadlineOffset: 20},
		},
	}
	require.NoError(t, Validate(p))
}

func TestValidate_TooManyPerSubframe(t *testing.T) {
	p := &TimelinePlan{MajorFrameTicks: 800, NSubframes: 1, SubframeTicks: 800}
	for i := 0; i < MaxPerSubframe+1; i++ {
		p.Tasks = append(p.Tasks, TaskSpec{Name: "srt", Entry: noop, Kind: SoftRT})
	}
	require.ErrorIs(t, Validate(p), ErrTooManyPerSubframe)
}

func TestDerive_OrdersHRTByStartOffset(t *testing.T) {
	p := &TimelinePlan{
		MajorFrameTicks: 100,
		NSubframes:      1,
		SubframeTicks:   100,
		Tasks: []TaskSpec{
			{Name: "B", Entry: noop, Kind: HardRT, StartOffset: 20, DeadlineOffset: 40},
			{Name: "A", Entry: noop, Kind: HardRT, StartOffset: 0, DeadlineOffset: 20},
			{Name: "L", Entry: noop, Kind: SoftRT},
		},
	}
	require.NoError(t, Validate(p))
	subframes := Derive(p)
	require.Len(t, subframes, 1)
	require.Equal(t, []string{"A", "B"}, []string{subframes[0].HRT[0].Name, subframes[0].HRT[1].Name})
	require.Len(t, subframes[0].SRT, 1)
}

func TestValidationError_UnwrapsToSentinel(t *testing.T) {
	_, err := NewTimelinePlan()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.ErrorIs(t, err, ErrNoTasks)
}
