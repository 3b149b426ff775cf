package rstream

import (
	"context"
	"io"

	"github.com/baxromumarov/rstream/chanx"
)

// ToSlice reads every remaining chunk into a slice. On error it returns
// the chunks read so far together with the error.
func (r *Reader[T]) ToSlice(ctx context.Context) ([]T, error) {
	var items []T
	for {
		val, err := r.Next(ctx)
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, val)
	}
}

// ForEach applies fn to each remaining chunk, stopping at the first error.
func (r *Reader[T]) ForEach(ctx context.Context, fn func(T) error) error {
	for {
		val, err := r.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(val); err != nil {
			return err
		}
	}
}

// Count consumes the stream and returns the number of chunks read.
func (r *Reader[T]) Count(ctx context.Context) (int, error) {
	var count int
	for {
		_, err := r.Next(ctx)
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		count++
	}
}

// ToChan forwards every remaining chunk to the returned channel from a
// new goroutine. The error channel receives exactly one value (nil when
// the stream closed normally) before both channels are closed.
//
// The goroutine exits when the stream ends or ctx is done; the caller
// must keep draining the chunk channel or cancel ctx.
func (r *Reader[T]) ToChan(ctx context.Context) (<-chan T, <-chan error) {
	ch := make(chan T)
	errCh := make(chan error, 1)
	go func() {
		defer close(ch)
		defer close(errCh)
		for {
			val, err := r.Next(ctx)
			if err == io.EOF {
				errCh <- nil
				return
			}
			if err != nil {
				errCh <- err
				return
			}
			if err := chanx.Send(ctx, ch, val); err != nil {
				errCh <- err
				return
			}
		}
	}()
	return ch, errCh
}
