package taskrt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRuntime_SpawnPriorityAssertion(t *testing.T) {
	r := NewRuntime(5, 0)
	require.Panics(t, func() {
		_, _ = r.Spawn(context.Background(), func(context.Context) {}, SpawnOptions{Name: "A", Priority: 5})
	})
	require.Panics(t, func() {
		_, _ = r.Spawn(context.Background(), func(context.Context) {}, SpawnOptions{Name: "A", Priority: 4})
	})
}

func TestRuntime_SpawnAndObserveNaturalCompletion(t *testing.T) {
	r := NewRuntime(5, 0)
	started := make(chan struct{})
	finish := make(chan struct{})

	h, err := r.Spawn(context.Background(), func(ctx context.Context) {
		close(started)
		<-finish
	}, SpawnOptions{Name: "A", Priority: 6})
	require.NoError(t, err)

	<-started
	require.Equal(t, StateRunning, r.State(h))

	close(finish)
	require.Eventually(t, func() bool {
		return r.State(h) == StateDeleted
	}, time.Second, time.Millisecond)
}

func TestRuntime_KillIsIdempotentAndImmediatelyObservable(t *testing.T) {
	r := NewRuntime(5, 0)
	block := make(chan struct{})
	h, err := r.Spawn(context.Background(), func(ctx context.Context) {
		<-block
	}, SpawnOptions{Name: "A", Priority: 6})
	require.NoError(t, err)

	r.Kill(h)
	require.Equal(t, StateDeleted, r.State(h))
	require.NotPanics(t, func() { r.Kill(h) })
	close(block)
}

func TestRuntime_SpawnFailsWhenOutOfResources(t *testing.T) {
	r := NewRuntime(5, 1)
	block := make(chan struct{})
	defer close(block)

	h1, err := r.Spawn(context.Background(), func(ctx context.Context) { <-block }, SpawnOptions{Name: "A", Priority: 6})
	require.NoError(t, err)
	require.NotNil(t, h1)

	_, err = r.Spawn(context.Background(), func(ctx context.Context) {}, SpawnOptions{Name: "B", Priority: 6})
	require.ErrorIs(t, err, ErrOutOfResources)
}

func TestRuntime_KilledWorkerReleasesCapacityOnlyAfterReturn(t *testing.T) {
	r := NewRuntime(5, 1)
	unblock := make(chan struct{})
	h1, err := r.Spawn(context.Background(), func(ctx context.Context) {
		<-ctx.Done()
		<-unblock
	}, SpawnOptions{Name: "A", Priority: 6})
	require.NoError(t, err)

	r.Kill(h1)
	require.Equal(t, StateDeleted, r.State(h1))

	// the capacity slot is still held, since the goroutine has not returned
	_, err = r.Spawn(context.Background(), func(ctx context.Context) {}, SpawnOptions{Name: "B", Priority: 6})
	require.ErrorIs(t, err, ErrOutOfResources)

	close(unblock)
}
