package rstream

import (
	"context"

	"github.com/rs/zerolog"
)

type config struct {
	name    string
	ctx     context.Context
	logger  zerolog.Logger
	onEvent func(Event)
}

// Option configures a [Stream].
type Option func(*config)

func defaultConfig() config {
	return config{
		ctx:    context.Background(),
		logger: zerolog.Nop(),
	}
}

// WithName sets the name reported in log lines and events.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithContext sets the parent of the context handed to producer
// callbacks. Canceling it does not terminate the stream; producers are
// expected to observe it and report through the controller.
// It panics if ctx is nil.
func WithContext(ctx context.Context) Option {
	if ctx == nil {
		panic("rstream: WithContext requires non-nil context")
	}
	return func(c *config) {
		c.ctx = ctx
	}
}

// WithLogger sets the logger used for lifecycle and failure logging.
// The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithOnEvent registers a hook that receives an [Event] for every state
// change of the stream. The hook is never called with the stream's
// internal lock held, so it may call back into the stream.
func WithOnEvent(fn func(Event)) Option {
	return func(c *config) {
		c.onEvent = fn
	}
}

// ReaderMode selects the kind of reader returned by [Stream.GetReader].
type ReaderMode string

const (
	// ModeDefault is the only supported mode: a reader that yields whole chunks.
	ModeDefault ReaderMode = ""

	// ModeBYOB names the bring-your-own-buffer reader. It is recognized so
	// that it can be rejected explicitly.
	ModeBYOB ReaderMode = "byob"
)

type readerConfig struct {
	mode ReaderMode
}

// ReaderOption configures [Stream.GetReader].
type ReaderOption func(*readerConfig)

// WithMode requests a reader mode. Any mode other than [ModeDefault]
// makes GetReader fail with [ErrUnsupportedMode].
func WithMode(m ReaderMode) ReaderOption {
	return func(c *readerConfig) {
		c.mode = m
	}
}
