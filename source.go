package rstream

import (
	"context"
	"errors"
	"io"

	"github.com/baxromumarov/rstream/chanx"
)

// FromSlice creates a stream whose Start enqueues every item and closes.
func FromSlice[T any](items []T, opts ...Option) *Stream[T] {
	return New(Source[T]{
		Start: func(_ context.Context, c Controller[T]) error {
			for _, v := range items {
				if err := c.Enqueue(v); err != nil {
					return err
				}
			}
			return c.Close()
		},
	}, opts...)
}

// FromChan creates a stream that pulls from ch, one value per pull, and
// closes when ch is closed. A pull blocks until ch yields, the stream is
// canceled, or the context given via [WithContext] is done; in the last
// case the stream errors with the context's cause.
func FromChan[T any](ch <-chan T, opts ...Option) *Stream[T] {
	return New(Source[T]{
		Pull: func(ctx context.Context, c Controller[T]) error {
			v, ok, err := chanx.Recv(ctx, ch)
			if err != nil {
				return context.Cause(ctx)
			}
			if !ok {
				return c.Close()
			}
			return c.Enqueue(v)
		},
	}, opts...)
}

// FromFunc creates a stream that calls next once per pull. io.EOF closes
// the stream; any other error errors it with that error unchanged.
func FromFunc[T any](next func(context.Context) (T, error), opts ...Option) *Stream[T] {
	return New(Source[T]{
		Pull: func(ctx context.Context, c Controller[T]) error {
			v, err := next(ctx)
			if errors.Is(err, io.EOF) {
				return c.Close()
			}
			if err != nil {
				return c.Error(err)
			}
			return c.Enqueue(v)
		},
	}, opts...)
}
