package rstream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

// State is the lifecycle state of a [Stream]. Closed and Errored are
// terminal: a stream never leaves them.
type State int

const (
	// Readable streams accept chunks from the producer.
	Readable State = iota
	// Closed streams accept no more chunks; buffered chunks stay readable.
	Closed
	// Errored streams report their stored error to every reader.
	Errored
)

func (s State) String() string {
	switch s {
	case Readable:
		return "readable"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source is the set of producer callbacks a [Stream] is built from.
// Every field is optional; a nil callback behaves as a no-op.
type Source[T any] struct {
	// Start runs once, synchronously, inside [New]. Returning an error (or
	// panicking) errors the stream.
	Start func(ctx context.Context, c Controller[T]) error

	// Pull is invoked on its own goroutine when a read finds the queue
	// empty. It is advisory: reads never wait for it to return. At most one
	// Pull runs at a time. Returning an error errors the stream.
	Pull func(ctx context.Context, c Controller[T]) error

	// Cancel is invoked when a consumer cancels the stream. The future
	// returned by the cancel call settles when Cancel returns.
	Cancel func(ctx context.Context, reason error) error
}

// Stream is a single-consumer readable stream. Chunks are supplied by the
// producer callbacks of a [Source] through a [Controller] and consumed
// through at most one [Reader] at a time.
//
// All methods are safe for concurrent use.
type Stream[T any] struct {
	cfg  config
	log  zerolog.Logger
	src  Source[T]
	ctrl *controller[T]

	// ctx is handed to Start and Pull; it is canceled when the stream
	// reaches a terminal state.
	ctx       context.Context
	cancelCtx context.CancelCauseFunc

	mu        sync.Mutex
	state     State
	storedErr error
	queue     chunkQueue[T]
	lock      readerLock[T]
	pulling   bool
	pullAgain bool

	callbacks conc.WaitGroup

	// Observability counters.
	enqueued  atomic.Int64
	delivered atomic.Int64
	pulls     atomic.Int64
}

// New creates a stream from src and runs src.Start before returning.
//
// If Start fails, the stream is returned already [Errored] with a
// [*CallbackError] as its stored error.
func New[T any](src Source[T], opts ...Option) *Stream[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancelCause(cfg.ctx)
	s := &Stream[T]{
		cfg:       cfg,
		log:       cfg.logger.With().Str("stream", cfg.name).Logger(),
		src:       src,
		ctx:       ctx,
		cancelCtx: cancel,
	}
	s.ctrl = &controller[T]{s: s}

	if src.Start != nil {
		err := invoke("start", func() error { return src.Start(ctx, s.ctrl) })
		if err != nil {
			s.fail(err)
			return s
		}
	}

	// Start may already have closed or errored the stream.
	if s.State() == Readable {
		s.log.Debug().Msg("stream started")
		s.emit(EventStarted, nil)
	}
	return s
}

// GetReader acquires the stream's lock and returns a new [Reader].
// It fails with [ErrLocked] if another reader holds the lock, and with
// [ErrUnsupportedMode] if a mode other than [ModeDefault] is requested.
func (s *Stream[T]) GetReader(opts ...ReaderOption) (*Reader[T], error) {
	var rc readerConfig
	for _, opt := range opts {
		opt(&rc)
	}
	if rc.mode != ModeDefault {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, string(rc.mode))
	}
	return s.acquire()
}

// NewReader constructs a reader for s directly. It obeys the same locking
// rules as [Stream.GetReader]: it fails with [ErrLocked] while any reader,
// however obtained, holds the lock.
func NewReader[T any](s *Stream[T]) (*Reader[T], error) {
	if s == nil {
		return nil, ErrNilStream
	}
	return s.acquire()
}

func (s *Stream[T]) acquire() (*Reader[T], error) {
	r := &Reader[T]{stream: s}

	s.mu.Lock()
	tok, err := s.lock.acquire(r)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	r.token = tok

	switch s.state {
	case Readable:
		r.closed = newFuture[struct{}]()
	case Closed:
		r.closed = resolvedFuture(struct{}{})
	case Errored:
		r.closed = rejectedFuture[struct{}](s.storedErr)
	}
	s.mu.Unlock()

	s.log.Debug().Uint64("token", uint64(tok)).Msg("reader acquired")
	s.emit(EventLocked, nil)
	return r, nil
}

// Cancel signals loss of interest in an unlocked stream. It fails
// synchronously with [ErrLocked] while a reader holds the lock; cancel
// through the reader instead.
//
// Canceling a readable stream closes it, discards buffered chunks and
// invokes the producer's Cancel callback. The returned future settles when
// that callback returns. A closed stream that still holds unread chunks is
// canceled the same way. Canceling a drained closed stream resolves
// immediately; canceling an errored stream rejects with the stored error.
func (s *Stream[T]) Cancel(reason error) (*Future[struct{}], error) {
	s.mu.Lock()
	if s.lock.held() {
		s.mu.Unlock()
		return nil, ErrLocked
	}
	fut, transitioned := s.cancelLocked()
	s.mu.Unlock()

	if transitioned {
		s.finishCancel(fut, reason)
	}
	return fut, nil
}

// cancelLocked moves the stream to Closed on behalf of a consumer.
// When it reports a transition the caller must run finishCancel after
// releasing s.mu.
func (s *Stream[T]) cancelLocked() (*Future[struct{}], bool) {
	switch s.state {
	case Closed:
		// A closed stream with unread chunks is still readable, so the
		// producer hears about the cancel.
		if s.queue.len() == 0 {
			return resolvedFuture(struct{}{}), false
		}
		s.queue.reset()
		return newFuture[struct{}](), true
	case Errored:
		return rejectedFuture[struct{}](s.storedErr), false
	}

	s.queue.reset()
	s.closeLocked()
	return newFuture[struct{}](), true
}

// finishCancel invokes the producer's Cancel callback on its own
// goroutine and settles fut with the outcome.
func (s *Stream[T]) finishCancel(fut *Future[struct{}], reason error) {
	s.log.Debug().AnErr("reason", reason).Msg("stream canceled")
	s.emit(EventCanceled, reason)

	if s.src.Cancel == nil {
		fut.resolve(struct{}{})
		return
	}

	s.callbacks.Go(func() {
		// The stream context is already canceled; the callback gets the parent.
		err := invoke("cancel", func() error { return s.src.Cancel(s.cfg.ctx, reason) })
		if err != nil {
			s.log.Warn().Err(err).Msg("cancel callback failed")
			fut.reject(err)
			return
		}
		fut.resolve(struct{}{})
	})
}

// Locked reports whether a reader currently holds the stream.
func (s *Stream[T]) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.held()
}

// State returns the current lifecycle state.
func (s *Stream[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the stored error of an errored stream, nil otherwise.
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storedErr
}

// Stats returns a snapshot of the stream's counters.
func (s *Stream[T]) Stats() Stats {
	s.mu.Lock()
	buffered, state := s.queue.len(), s.state
	s.mu.Unlock()

	return Stats{
		Enqueued:  s.enqueued.Load(),
		Delivered: s.delivered.Load(),
		Pulls:     s.pulls.Load(),
		Buffered:  buffered,
		State:     state,
	}
}

// Wait blocks until every in-flight Pull and Cancel callback has returned.
// Calls that may start new callbacks (reads, enqueues, cancels) must not
// race with Wait.
func (s *Stream[T]) Wait() {
	s.callbacks.Wait()
}

// schedulePullLocked reports whether the caller must start a pull
// goroutine. A request made while a pull is running is coalesced into one
// follow-up pull.
func (s *Stream[T]) schedulePullLocked() bool {
	if s.src.Pull == nil || s.state != Readable {
		return false
	}
	if s.pulling {
		s.pullAgain = true
		return false
	}
	s.pulling = true
	return true
}

func (s *Stream[T]) startPull() {
	s.callbacks.Go(s.runPull)
}

func (s *Stream[T]) runPull() {
	for {
		s.pulls.Add(1)
		s.emit(EventPull, nil)

		err := invoke("pull", func() error { return s.src.Pull(s.ctx, s.ctrl) })

		s.mu.Lock()
		if err != nil {
			s.pulling = false
			s.pullAgain = false
			if s.state != Readable {
				s.mu.Unlock()
				return
			}
			s.errorLocked(err)
			s.mu.Unlock()

			s.log.Warn().Err(err).Msg("pull callback failed")
			s.emit(EventErrored, err)
			return
		}

		again := s.pullAgain && s.state == Readable && s.pendingLocked() > 0
		s.pullAgain = false
		if !again {
			s.pulling = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

// pendingLocked returns the number of reads waiting on the current holder.
func (s *Stream[T]) pendingLocked() int {
	if r := s.lock.holder(); r != nil {
		return r.reads.len()
	}
	return 0
}

// closeLocked moves a readable stream to Closed, settling the holder's
// closed future and every pending read.
func (s *Stream[T]) closeLocked() {
	s.state = Closed
	if r := s.lock.holder(); r != nil {
		r.closed.resolve(struct{}{})
		for _, f := range r.reads.drain() {
			f.resolve(ReadResult[T]{Done: true})
		}
	}
	s.cancelCtx(ErrStreamClosed)
}

// errorLocked moves a readable stream to Errored. Buffered chunks are
// discarded; reason reaches every observer unchanged.
func (s *Stream[T]) errorLocked(reason error) {
	s.state = Errored
	s.storedErr = reason
	s.queue.reset()
	if r := s.lock.holder(); r != nil {
		r.closed.reject(reason)
		for _, f := range r.reads.drain() {
			f.reject(reason)
		}
	}
	s.cancelCtx(reason)
}

// fail errors the stream after a producer callback failure, unless the
// producer already terminated it.
func (s *Stream[T]) fail(err error) {
	s.mu.Lock()
	if s.state != Readable {
		s.mu.Unlock()
		return
	}
	s.errorLocked(err)
	s.mu.Unlock()

	s.log.Warn().Err(err).Msg("stream failed")
	s.emit(EventErrored, err)
}
