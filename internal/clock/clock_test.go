package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSystemClock_NowAdvances(t *testing.T) {
	c := NewSystemClock(time.Millisecond)
	start := c.Now()
	time.Sleep(5 * time.Millisecond)
	require.Greater(t, c.Now(), start)
}

func TestSystemClock_SleepUntil_PastDeadlineReturnsImmediately(t *testing.T) {
	c := NewSystemClock(time.Millisecond)
	before := time.Now()
	c.SleepUntil(0)
	require.Less(t, time.Since(before), 20*time.Millisecond)
}

func TestSystemClock_SleepUntil_WaitsForFutureDeadline(t *testing.T) {
	c := NewSystemClock(time.Millisecond)
	target := c.Now() + 20
	before := time.Now()
	c.SleepUntil(target)
	require.GreaterOrEqual(t, c.Now(), target)
	require.GreaterOrEqual(t, time.Since(before), 15*time.Millisecond)
}

func TestFake_SleepUntilBlocksUntilAdvance(t *testing.T) {
	f := NewFake(0)
	done := make(chan struct{})
	go func() {
		f.SleepUntil(10)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("SleepUntil returned before the fake clock reached the deadline")
	case <-time.After(20 * time.Millisecond):
	}

	f.Advance(10)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SleepUntil did not unblock after Advance")
	}
}

func TestFake_SetNeverGoesBackwards(t *testing.T) {
	f := NewFake(5)
	f.Set(3)
	require.EqualValues(t, 5, f.Now())
	f.Set(9)
	require.EqualValues(t, 9, f.Now())
}
