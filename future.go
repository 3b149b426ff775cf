package rstream

import (
	"context"
	"sync"
)

// Future is a single-resolution value produced asynchronously by the
// stream. It settles exactly once, either with a value or an error;
// later attempts to settle it are ignored.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// ReadResult is the value a read future settles with. Done reports that
// the stream has closed and no more chunks will follow; Value is then the
// zero value of T.
type ReadResult[T any] struct {
	Value T
	Done  bool
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func resolvedFuture[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.resolve(v)
	return f
}

func rejectedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.reject(err)
	return f
}

func (f *Future[T]) resolve(v T) bool {
	return f.settle(v, nil)
}

func (f *Future[T]) reject(err error) bool {
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.val = v
		f.err = err
		settled = true
		close(f.done)
	})
	return settled
}

// Done returns a channel that is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has already settled.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future settles and returns its outcome.
// A future may never settle (for example a read on a stream whose
// producer stays silent); use [Future.Await] to bound the wait.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// Await is like [Future.Wait] but gives up when ctx is done, returning
// ctx.Err(). Giving up does not cancel the operation behind the future.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		if f.Settled() {
			return f.val, f.err
		}
		var zero T
		return zero, ctx.Err()
	}
}
