package rstream

import (
	"errors"
	"fmt"
)

// ErrInvalidState is the root of every lock or state-machine violation.
// All errors below wrap it, so errors.Is(err, ErrInvalidState) matches any
// of them.
var ErrInvalidState = errors.New("rstream: invalid state")

var (
	// ErrLocked is returned when a reader is requested, or the stream is
	// canceled directly, while another reader holds the lock.
	ErrLocked = fmt.Errorf("%w: stream is locked", ErrInvalidState)

	// ErrReleased is reported by operations on a reader that has released
	// its lock.
	ErrReleased = fmt.Errorf("%w: reader has released its lock", ErrInvalidState)

	// ErrUnsupportedMode is returned by [Stream.GetReader] for any mode other
	// than [ModeDefault].
	ErrUnsupportedMode = fmt.Errorf("%w: unsupported reader mode", ErrInvalidState)

	// ErrNotReadable is returned by controller methods once the stream has
	// been closed or errored.
	ErrNotReadable = fmt.Errorf("%w: stream is not readable", ErrInvalidState)

	// ErrNilStream is returned by [NewReader] when given a nil stream.
	ErrNilStream = fmt.Errorf("%w: nil stream", ErrInvalidState)
)

var (
	// ErrStreamClosed is the cancellation cause of the producer context
	// after the stream closes.
	ErrStreamClosed = errors.New("rstream: stream closed")

	// ErrErrored is stored when a producer errors the stream with a nil
	// reason.
	ErrErrored = errors.New("rstream: stream errored")
)

// CallbackError wraps a failure raised inside a producer callback together
// with the name of the callback ("start", "pull" or "cancel").
type CallbackError struct {
	Callback string
	Err      error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s callback failed: %v", e.Callback, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// IsCallbackError reports whether err (or any error in its chain) is a [*CallbackError].
func IsCallbackError(err error) bool {
	if err == nil {
		return false
	}
	var ce *CallbackError
	return errors.As(err, &ce)
}

// CallbackOf returns the callback name from the first [*CallbackError] in
// err's chain. Returns false if no CallbackError is found.
func CallbackOf(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var ce *CallbackError
	if errors.As(err, &ce) {
		return ce.Callback, true
	}
	return "", false
}

// CauseOf unwraps the first [*CallbackError] in err's chain and returns its
// underlying cause. If err is not a CallbackError, it is returned as-is.
func CauseOf(err error) error {
	if err == nil {
		return nil
	}

	var ce *CallbackError
	if errors.As(err, &ce) {
		return ce.Err
	}

	return err
}

func newCallbackError(callback string, err error) *CallbackError {
	return &CallbackError{Callback: callback, Err: err}
}
