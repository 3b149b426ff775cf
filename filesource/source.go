package filesource

import (
	"context"
	"errors"
	"io"

	"github.com/baxromumarov/rstream"
)

// DefaultChunkSize is the chunk size used when a non-positive size is given.
const DefaultChunkSize = 64 * 1024

// NewSource returns producer callbacks that read f from its current
// offset. Every pull enqueues one chunk of at most chunkSize bytes; end of
// data closes the stream and a read failure errors it. Canceling the
// stream closes f.
func NewSource(f *File, chunkSize int) rstream.Source[[]byte] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return rstream.Source[[]byte]{
		Pull: func(ctx context.Context, c rstream.Controller[[]byte]) error {
			if err := ctx.Err(); err != nil {
				return nil
			}

			buf := make([]byte, chunkSize)
			n, err := f.Read(buf)
			if n > 0 {
				if qerr := c.Enqueue(buf[:n]); qerr != nil {
					return qerr
				}
			}
			switch {
			case errors.Is(err, io.EOF):
				return c.Close()
			case err != nil:
				return c.Error(err)
			case n == 0:
				// A zero-byte read without an error still means end of data.
				return c.Close()
			}
			return nil
		},
		Cancel: func(_ context.Context, _ error) error {
			if err := f.Close(); err != nil && !errors.Is(err, ErrFileClosed) {
				return err
			}
			return nil
		},
	}
}

// Stream wraps f in a byte stream. The stream is named after the file
// unless opts override it.
func Stream(f *File, chunkSize int, opts ...rstream.Option) *rstream.Stream[[]byte] {
	opts = append([]rstream.Option{rstream.WithName(f.Name())}, opts...)
	return rstream.New(NewSource(f, chunkSize), opts...)
}
