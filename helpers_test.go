package rstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const settleTimeout = 2 * time.Second

// newManual returns a stream whose controller is captured for the test
// to drive by hand.
func newManual[T any](opts ...Option) (*Stream[T], Controller[T]) {
	var ctrl Controller[T]
	s := New(Source[T]{
		Start: func(_ context.Context, c Controller[T]) error {
			ctrl = c
			return nil
		},
	}, opts...)
	return s, ctrl
}

// await waits for f, failing the test if it does not settle in time.
func await[T any](t *testing.T, f *Future[T]) (T, error) {
	t.Helper()
	select {
	case <-f.Done():
	case <-time.After(settleTimeout):
		t.Fatal("future did not settle")
	}
	return f.Wait()
}

func requireChunk[T any](t *testing.T, f *Future[ReadResult[T]], want T) {
	t.Helper()
	res, err := await(t, f)
	require.NoError(t, err)
	require.False(t, res.Done, "expected a chunk, got done")
	require.Equal(t, want, res.Value)
}

func requireDone[T any](t *testing.T, f *Future[ReadResult[T]]) {
	t.Helper()
	res, err := await(t, f)
	require.NoError(t, err)
	require.True(t, res.Done, "expected done, got chunk %v", res.Value)
}

func requirePending[T any](t *testing.T, f *Future[T]) {
	t.Helper()
	select {
	case <-f.Done():
		v, err := f.Wait()
		t.Fatalf("future settled early with %v, %v", v, err)
	case <-time.After(20 * time.Millisecond):
	}
}
