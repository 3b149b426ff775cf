package rstream

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartRunsBeforeReturn(t *testing.T) {
	started := false
	s := New(Source[int]{
		Start: func(_ context.Context, c Controller[int]) error {
			started = true
			return nil
		},
	})

	assert.True(t, started)
	assert.Equal(t, Readable, s.State())
	assert.False(t, s.Locked())
}

func TestNew_NoCallbacks(t *testing.T) {
	s := New(Source[string]{})

	r, err := s.GetReader()
	require.NoError(t, err)

	f := r.Read()
	requirePending(t, f)
}

func TestNew_StartFailureErrorsStream(t *testing.T) {
	boom := errors.New("boom")
	s := New(Source[int]{
		Start: func(context.Context, Controller[int]) error { return boom },
	})

	assert.Equal(t, Errored, s.State())
	assert.ErrorIs(t, s.Err(), boom)
	name, ok := CallbackOf(s.Err())
	assert.True(t, ok)
	assert.Equal(t, "start", name)

	r, err := s.GetReader()
	require.NoError(t, err, "acquiring a reader on an errored stream must succeed")

	_, err = await(t, r.Read())
	assert.ErrorIs(t, err, boom)

	_, err = await(t, r.Closed())
	assert.ErrorIs(t, err, boom)
}

func TestNew_StartPanicErrorsStream(t *testing.T) {
	s := New(Source[int]{
		Start: func(context.Context, Controller[int]) error { panic("bad start") },
	})

	require.Equal(t, Errored, s.State())

	var pe *PanicError
	require.ErrorAs(t, s.Err(), &pe)
	assert.Equal(t, "bad start", pe.Value)
	assert.NotEmpty(t, pe.Stack)
}

func TestNew_StartErrorAfterControllerError(t *testing.T) {
	theErr := errors.New("from controller")
	s := New(Source[int]{
		Start: func(_ context.Context, c Controller[int]) error {
			_ = c.Error(theErr)
			return errors.New("ignored")
		},
	})

	assert.Same(t, theErr, s.Err(), "the first terminal transition wins")
}

func TestGetReader_LocksStream(t *testing.T) {
	s := New(Source[int]{})

	r, err := s.GetReader()
	require.NoError(t, err)
	assert.True(t, s.Locked())

	r.ReleaseLock()
	assert.False(t, s.Locked())
}

func TestGetReader_SecondAcquisitionFails(t *testing.T) {
	cases := []struct {
		name   string
		first  func(*Stream[int]) (*Reader[int], error)
		second func(*Stream[int]) (*Reader[int], error)
	}{
		{"getReader then getReader", getReader, getReader},
		{"getReader then direct", getReader, NewReader[int]},
		{"direct then getReader", NewReader[int], getReader},
		{"direct then direct", NewReader[int], NewReader[int]},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(Source[int]{})

			_, err := tc.first(s)
			require.NoError(t, err)

			r, err := tc.second(s)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, ErrLocked)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func getReader(s *Stream[int]) (*Reader[int], error) { return s.GetReader() }

func TestGetReader_ClosedOrErroredStream(t *testing.T) {
	t.Run("closed", func(t *testing.T) {
		s := New(Source[int]{
			Start: func(_ context.Context, c Controller[int]) error { return c.Close() },
		})
		r, err := NewReader(s)
		require.NoError(t, err)

		_, err = await(t, r.Closed())
		assert.NoError(t, err)
	})

	t.Run("errored", func(t *testing.T) {
		theErr := errors.New("don't say i didn't warn ya")
		s := New(Source[int]{
			Start: func(_ context.Context, c Controller[int]) error { return c.Error(theErr) },
		})
		r, err := NewReader(s)
		require.NoError(t, err)

		_, err = await(t, r.Closed())
		assert.Same(t, theErr, err)
	})
}

func TestGetReader_Mode(t *testing.T) {
	s := New(Source[int]{})

	_, err := s.GetReader(WithMode(ModeBYOB))
	assert.ErrorIs(t, err, ErrUnsupportedMode)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = s.GetReader(WithMode("potato"))
	assert.ErrorIs(t, err, ErrUnsupportedMode)
	assert.False(t, s.Locked(), "a rejected mode must not lock the stream")

	_, err = s.GetReader(WithMode(ModeDefault))
	assert.NoError(t, err)
}

func TestNewReader_NilStream(t *testing.T) {
	_, err := NewReader[int](nil)
	assert.ErrorIs(t, err, ErrNilStream)
}

func TestStreamCancel_Locked(t *testing.T) {
	called := false
	s := New(Source[int]{
		Cancel: func(context.Context, error) error {
			called = true
			return nil
		},
	})
	_, err := s.GetReader()
	require.NoError(t, err)

	fut, err := s.Cancel(nil)
	assert.Nil(t, fut)
	assert.ErrorIs(t, err, ErrLocked)
	assert.False(t, called)
	assert.Equal(t, Readable, s.State())
}

func TestStreamCancel_Unlocked(t *testing.T) {
	reason := errors.New("no longer needed")
	var got error
	causeCh := make(chan error, 1)
	s := New(Source[int]{
		Start: func(ctx context.Context, c Controller[int]) error {
			_ = c.Enqueue(1)
			go func() {
				<-ctx.Done()
				causeCh <- context.Cause(ctx)
			}()
			return nil
		},
		Cancel: func(_ context.Context, r error) error {
			got = r
			return nil
		},
	})

	fut, err := s.Cancel(reason)
	require.NoError(t, err)
	_, err = await(t, fut)
	require.NoError(t, err)

	assert.Same(t, reason, got)
	assert.Equal(t, Closed, s.State())
	assert.Equal(t, 0, s.Stats().Buffered, "cancel discards the backlog")

	r, err := s.GetReader()
	require.NoError(t, err)
	requireDone(t, r.Read())

	select {
	case cause := <-causeCh:
		assert.ErrorIs(t, cause, ErrStreamClosed)
	case <-time.After(settleTimeout):
		t.Fatal("producer context was not canceled")
	}
}

func TestStreamCancel_Terminal(t *testing.T) {
	var calls atomic.Int32
	cancel := func(context.Context, error) error {
		calls.Add(1)
		return nil
	}

	t.Run("closed resolves without callback", func(t *testing.T) {
		s := New(Source[int]{
			Start:  func(_ context.Context, c Controller[int]) error { return c.Close() },
			Cancel: cancel,
		})
		fut, err := s.Cancel(nil)
		require.NoError(t, err)
		_, err = await(t, fut)
		assert.NoError(t, err)
	})

	t.Run("errored rejects with stored error", func(t *testing.T) {
		theErr := errors.New("stored")
		s := New(Source[int]{
			Start:  func(_ context.Context, c Controller[int]) error { return c.Error(theErr) },
			Cancel: cancel,
		})
		fut, err := s.Cancel(nil)
		require.NoError(t, err)
		_, err = await(t, fut)
		assert.Same(t, theErr, err)
	})

	assert.Zero(t, calls.Load())
}

func TestStreamCancel_ClosedWithBacklog(t *testing.T) {
	reasons := make(chan error, 1)
	s := New(Source[int]{
		Start: func(_ context.Context, c Controller[int]) error {
			_ = c.Enqueue(1)
			_ = c.Enqueue(2)
			return c.Close()
		},
		Cancel: func(_ context.Context, reason error) error {
			reasons <- reason
			return nil
		},
	})
	require.Equal(t, Closed, s.State())
	require.Equal(t, 2, s.Stats().Buffered)

	reason := errors.New("stop early")
	fut, err := s.Cancel(reason)
	require.NoError(t, err)
	_, err = await(t, fut)
	require.NoError(t, err)

	select {
	case got := <-reasons:
		assert.Same(t, reason, got)
	default:
		t.Fatal("cancel callback was not invoked for unread chunks")
	}
	assert.Zero(t, s.Stats().Buffered)

	r, err := s.GetReader()
	require.NoError(t, err)
	requireDone(t, r.Read())
	r.ReleaseLock()

	// A second cancel finds the stream drained and skips the callback.
	fut, err = s.Cancel(nil)
	require.NoError(t, err)
	_, err = await(t, fut)
	require.NoError(t, err)
	s.Wait()
	assert.Empty(t, reasons)
}

func TestStreamCancel_CallbackFailure(t *testing.T) {
	boom := errors.New("cannot stop")
	s := New(Source[int]{
		Cancel: func(context.Context, error) error { return boom },
	})

	fut, err := s.Cancel(nil)
	require.NoError(t, err)

	_, err = await(t, fut)
	assert.ErrorIs(t, err, boom)
	name, _ := CallbackOf(err)
	assert.Equal(t, "cancel", name)
	assert.Equal(t, Closed, s.State(), "a failing cancel callback does not error the stream")
}

func TestStreamCancel_CallbackPanic(t *testing.T) {
	s := New(Source[int]{
		Cancel: func(context.Context, error) error { panic("cancel exploded") },
	})

	fut, err := s.Cancel(nil)
	require.NoError(t, err)

	_, err = await(t, fut)
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "cancel exploded", pe.Value)
	s.Wait()
}

func TestStream_Stats(t *testing.T) {
	s, ctrl := newManual[string]()
	r, err := s.GetReader()
	require.NoError(t, err)

	require.NoError(t, ctrl.Enqueue("a"))
	require.NoError(t, ctrl.Enqueue("b"))
	requireChunk(t, r.Read(), "a")

	st := s.Stats()
	assert.EqualValues(t, 2, st.Enqueued)
	assert.EqualValues(t, 1, st.Delivered)
	assert.Equal(t, 1, st.Buffered)
	assert.Equal(t, Readable, st.State)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "readable", Readable.String())
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "errored", Errored.String())
	assert.Equal(t, "State(9)", State(9).String())
}
