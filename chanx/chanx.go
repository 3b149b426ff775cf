// Package chanx holds the context-aware channel operations used to bridge
// streams and Go channels.
package chanx

import "context"

// Send delivers v on ch unless ctx is done first, in which case it
// returns ctx.Err() and v is not sent.
func Send[T any](ctx context.Context, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv waits for a value on ch. ok is false when ch has been closed.
// If ctx is done first, Recv returns ctx.Err().
func Recv[T any](ctx context.Context, ch <-chan T) (v T, ok bool, err error) {
	select {
	case v, ok = <-ch:
		return v, ok, nil
	case <-ctx.Done():
		return v, false, ctx.Err()
	}
}

// Drain discards values from ch until it is closed, unblocking a producer
// that is still sending.
func Drain[T any](ch <-chan T) {
	for range ch {
	}
}
