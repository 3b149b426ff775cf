package rstream

// Controller is the producer's handle on a [Stream]. It is passed to the
// Start and Pull callbacks of a [Source] and offers nothing a consumer
// could use to read.
//
// Every method fails with [ErrNotReadable] once the stream is closed or
// errored, including a second Close or Error.
type Controller[T any] interface {
	// Enqueue appends chunk to the stream. If a read is waiting, the
	// oldest one receives chunk directly.
	Enqueue(chunk T) error

	// Close ends the stream. Chunks already enqueued remain readable.
	Close() error

	// Error moves the stream to [Errored]. Buffered chunks are discarded
	// and every pending and future read is rejected with reason, unchanged.
	// A nil reason is stored as [ErrErrored].
	Error(reason error) error
}

type controller[T any] struct {
	s *Stream[T]
}

var _ Controller[int] = (*controller[int])(nil)

func (c *controller[T]) Enqueue(chunk T) error {
	s := c.s

	s.mu.Lock()
	if s.state != Readable {
		s.mu.Unlock()
		return ErrNotReadable
	}
	s.enqueued.Add(1)

	pull := false
	if r := s.lock.holder(); r != nil && r.reads.len() > 0 {
		f, _ := r.reads.shift()
		f.resolve(ReadResult[T]{Value: chunk})
		s.delivered.Add(1)
		if r.reads.len() > 0 {
			pull = s.schedulePullLocked()
		}
	} else {
		s.queue.push(chunk)
	}
	s.mu.Unlock()

	s.emit(EventEnqueued, nil)
	if pull {
		s.startPull()
	}
	return nil
}

func (c *controller[T]) Close() error {
	s := c.s

	s.mu.Lock()
	if s.state != Readable {
		s.mu.Unlock()
		return ErrNotReadable
	}
	s.closeLocked()
	buffered := s.queue.len()
	s.mu.Unlock()

	s.log.Debug().Int("buffered", buffered).Msg("stream closed")
	s.emit(EventClosed, nil)
	return nil
}

func (c *controller[T]) Error(reason error) error {
	if reason == nil {
		reason = ErrErrored
	}
	s := c.s

	s.mu.Lock()
	if s.state != Readable {
		s.mu.Unlock()
		return ErrNotReadable
	}
	s.errorLocked(reason)
	s.mu.Unlock()

	s.log.Debug().AnErr("reason", reason).Msg("stream errored")
	s.emit(EventErrored, reason)
	return nil
}
