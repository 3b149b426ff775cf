package rstream

import (
	"context"
	"io"
)

// Reader is one exclusive consumer session on a [Stream], obtained from
// [Stream.GetReader] or [NewReader]. It stays valid until
// [Reader.ReleaseLock]; afterwards reads and cancels are rejected with
// [ErrReleased].
//
// All methods are safe for concurrent use.
type Reader[T any] struct {
	stream *Stream[T]
	token  lockToken

	// Guarded by stream.mu.
	reads  pendingReads[T]
	closed *Future[struct{}]
	gen    uint64
}

// Read requests the next chunk. Every call returns a distinct future;
// futures of reads waiting on an empty stream settle in call order.
//
// The future resolves with the next buffered chunk, with Done set once the
// stream is closed and drained, or is rejected with the stream's stored
// error. On a released reader the returned future is already rejected
// with [ErrReleased].
func (r *Reader[T]) Read() *Future[ReadResult[T]] {
	s := r.stream

	s.mu.Lock()
	if !s.lock.holds(r.token) {
		s.mu.Unlock()
		return rejectedFuture[ReadResult[T]](ErrReleased)
	}

	if v, ok := s.queue.pop(); ok {
		s.mu.Unlock()
		s.delivered.Add(1)
		return resolvedFuture(ReadResult[T]{Value: v})
	}

	switch s.state {
	case Closed:
		s.mu.Unlock()
		return resolvedFuture(ReadResult[T]{Done: true})
	case Errored:
		err := s.storedErr
		s.mu.Unlock()
		return rejectedFuture[ReadResult[T]](err)
	}

	f := newFuture[ReadResult[T]]()
	r.reads.push(f)
	pull := s.schedulePullLocked()
	s.mu.Unlock()

	if pull {
		s.startPull()
	}
	return f
}

// Next blocks until the next chunk is available and returns it.
// It returns io.EOF once the stream is closed and drained, the stored
// error of an errored stream, and [ErrReleased] on a released reader.
//
// If ctx is done first, the pending read is withdrawn so that no chunk is
// lost, and ctx.Err() is returned.
func (r *Reader[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	f := r.Read()
	select {
	case <-f.Done():
	case <-ctx.Done():
		if r.withdraw(f) {
			return zero, ctx.Err()
		}
	}

	res, err := f.Wait()
	if err != nil {
		return zero, err
	}
	if res.Done {
		return zero, io.EOF
	}
	return res.Value, nil
}

// withdraw removes a still-pending read. It reports false if f already
// settled or was handed a chunk concurrently.
func (r *Reader[T]) withdraw(f *Future[ReadResult[T]]) bool {
	s := r.stream
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.reads.remove(f)
}

// Cancel cancels the stream through this reader without releasing the
// lock. Subsequent reads report Done. The returned future settles when the
// producer's Cancel callback returns.
//
// On a released reader Cancel does nothing: the producer is not notified
// and the returned future is rejected with [ErrReleased].
func (r *Reader[T]) Cancel(reason error) *Future[struct{}] {
	s := r.stream

	s.mu.Lock()
	if !s.lock.holds(r.token) {
		s.mu.Unlock()
		return rejectedFuture[struct{}](ErrReleased)
	}
	fut, transitioned := s.cancelLocked()
	s.mu.Unlock()

	if transitioned {
		s.finishCancel(fut, reason)
	}
	return fut
}

// ReleaseLock gives up the reader's lock on the stream. Pending reads and
// a still-pending closed future are rejected with [ErrReleased], and
// [Reader.Closed] is replaced by a new future that is already rejected
// with ErrReleased. Calling ReleaseLock again is a no-op.
func (r *Reader[T]) ReleaseLock() {
	s := r.stream

	s.mu.Lock()
	if !s.lock.release(r.token) {
		s.mu.Unlock()
		return
	}
	r.closed.reject(ErrReleased)
	r.closed = rejectedFuture[struct{}](ErrReleased)
	r.gen++
	for _, f := range r.reads.drain() {
		f.reject(ErrReleased)
	}
	s.mu.Unlock()

	s.log.Debug().Uint64("token", uint64(r.token)).Msg("reader released")
	s.emit(EventReleased, nil)
}

// Closed returns a future that resolves when the stream closes, or is
// rejected with the stored error if it errors. After [Reader.ReleaseLock]
// it returns a different future, rejected with [ErrReleased].
func (r *Reader[T]) Closed() *Future[struct{}] {
	s := r.stream
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.closed
}

// Generation counts how many times the closed future has been replaced.
func (r *Reader[T]) Generation() uint64 {
	s := r.stream
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.gen
}

// Released reports whether the reader has given up its lock.
func (r *Reader[T]) Released() bool {
	s := r.stream
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lock.holds(r.token)
}
