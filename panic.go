package rstream

import (
	"fmt"
	"runtime"
)

// PanicError carries a panic recovered from a producer callback together
// with the goroutine stack captured at the point of the panic. It always
// reaches callers wrapped in a [*CallbackError].
type PanicError struct {
	// Value is the original value passed to panic().
	Value any

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

func newPanicError(v any) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{
		Value: v,
		Stack: string(buf[:n]),
	}
}

// invoke runs a producer callback, converting both a returned error and a
// panic into a *CallbackError.
func invoke(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newCallbackError(name, newPanicError(r))
		}
	}()
	if cbErr := fn(); cbErr != nil {
		return newCallbackError(name, cbErr)
	}
	return nil
}
