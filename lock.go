package rstream

// lockToken identifies one acquisition of a stream's reader lock.
// Tokens are never reused, so a released reader cannot present a token
// that matches a later acquisition.
type lockToken uint64

// readerLock records which reader, if any, owns the stream. The stream's
// mutex guards it.
type readerLock[T any] struct {
	token lockToken
	owner *Reader[T]
	next  lockToken
}

// acquire hands out a fresh token to r, or fails with ErrLocked.
func (l *readerLock[T]) acquire(r *Reader[T]) (lockToken, error) {
	if l.owner != nil {
		return 0, ErrLocked
	}
	l.next++
	l.token = l.next
	l.owner = r
	return l.token, nil
}

// release clears the lock if tok is the current token.
func (l *readerLock[T]) release(tok lockToken) bool {
	if !l.holds(tok) {
		return false
	}
	l.owner = nil
	l.token = 0
	return true
}

func (l *readerLock[T]) holds(tok lockToken) bool {
	return l.owner != nil && tok != 0 && l.token == tok
}

func (l *readerLock[T]) held() bool {
	return l.owner != nil
}

// holder returns the reader owning the lock, or nil.
func (l *readerLock[T]) holder() *Reader[T] {
	return l.owner
}
