// Package rstream provides a single-consumer readable stream: a sequential
// data source fed by producer callbacks and drained by exactly one reader
// at a time.
//
// # Producers
//
// A [Stream] is built from a [Source], a set of three optional callbacks.
// Start runs synchronously inside [New]; Pull runs on its own goroutine
// whenever a read finds the queue empty; Cancel runs when a consumer loses
// interest. Start and Pull receive a [Controller] with exactly three
// operations:
//
//	s := rstream.New(rstream.Source[string]{
//	    Start: func(ctx context.Context, c rstream.Controller[string]) error {
//	        c.Enqueue("a")
//	        c.Enqueue("b")
//	        return c.Close()
//	    },
//	})
//
// [FromSlice], [FromChan] and [FromFunc] cover the common cases.
//
// # Readers and the Lock
//
// [Stream.GetReader] and [NewReader] acquire the stream's lock and return
// a [Reader]. While the lock is held any further acquisition, and
// [Stream.Cancel], fails with [ErrLocked]. [Reader.ReleaseLock] gives the
// lock back; the released reader rejects every later call with
// [ErrReleased].
//
// [Reader.Read] returns a [Future] per call. Reads waiting on an empty
// stream settle strictly in call order, each woken exactly once by the
// next Enqueue, Close or Error. [Reader.Next] is the blocking form and
// reports end of stream as [io.EOF], following the [io.Reader]
// conventions. [Reader.ToSlice], [Reader.ForEach], [Reader.Count] and
// [Reader.ToChan] consume the rest of the stream.
//
// # Termination
//
// A stream is [Readable] until the producer calls Close or Error, or a
// consumer cancels it. Close keeps buffered chunks readable; Error discards
// them and rejects every read with the producer's error, unchanged.
// Failures inside callbacks are reported as [*CallbackError], panics as a
// [*PanicError] inside one. Calling a controller method after termination
// fails with [ErrNotReadable].
//
// Cancellation is cooperative: the consumer-visible state changes at once,
// while the future returned by Cancel settles only when the producer's
// Cancel callback returns.
//
// # Observability
//
// [WithLogger] attaches a zerolog logger, [WithOnEvent] a hook receiving
// an [Event] per state change, and [Stream.Stats] returns counters.
//
// The [github.com/baxromumarov/rstream/filesource] subpackage turns files
// into byte streams.
package rstream
