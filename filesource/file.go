package filesource

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

var (
	// ErrFileClosed is returned by operations on a closed [File].
	ErrFileClosed = errors.New("filesource: file already closed")

	// ErrInvalidSeekMode is returned by [File.SeekTo] for an unknown mode.
	ErrInvalidSeekMode = errors.New("filesource: invalid seek mode")
)

// SeekMode selects the origin of a [File.SeekTo].
type SeekMode int

const (
	// SeekStart seeks relative to the start of the file.
	SeekStart SeekMode = iota
	// SeekCurrent seeks relative to the current offset.
	SeekCurrent
	// SeekEnd seeks backwards from the end of the file: an offset of n
	// positions the file n bytes before its end.
	SeekEnd
)

func (m SeekMode) String() string {
	switch m {
	case SeekStart:
		return "start"
	case SeekCurrent:
		return "current"
	case SeekEnd:
		return "end"
	default:
		return fmt.Sprintf("SeekMode(%d)", int(m))
	}
}

// ParseSeekMode converts "start", "current" or "end" into a SeekMode.
func ParseSeekMode(s string) (SeekMode, error) {
	switch s {
	case "start", "":
		return SeekStart, nil
	case "current":
		return SeekCurrent, nil
	case "end":
		return SeekEnd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSeekMode, s)
	}
}

// FileInfo describes an opened file.
type FileInfo struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// File is a read-only view of a registry entry with its own offset.
// It is safe for concurrent use.
type File struct {
	name string
	data *fileData

	mu     sync.Mutex
	offset int
	closed bool
}

// Read copies up to len(p) bytes from the current offset into p and
// advances the offset. At end of data it returns 0, io.EOF.
func (f *File) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrFileClosed
	}
	if f.offset >= len(f.data.bytes) {
		return 0, io.EOF
	}

	n := copy(p, f.data.bytes[f.offset:])
	f.offset += n
	return n, nil
}

// SeekTo moves the offset and returns its new value, in bytes from the
// start. The result is clamped to [0, size].
func (f *File) SeekTo(offset int64, mode SeekMode) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrFileClosed
	}

	size := int64(len(f.data.bytes))
	var next int64
	switch mode {
	case SeekStart:
		next = offset
	case SeekCurrent:
		next = int64(f.offset) + offset
	case SeekEnd:
		next = size - offset
	default:
		return int64(f.offset), fmt.Errorf("%w: %d", ErrInvalidSeekMode, int(mode))
	}

	next = max(0, min(next, size))
	f.offset = int(next)
	return next, nil
}

// ReadAll returns a copy of the whole file, regardless of the offset.
func (f *File) ReadAll() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrFileClosed
	}
	out := make([]byte, len(f.data.bytes))
	copy(out, f.data.bytes)
	return out, nil
}

// Stat describes the file.
func (f *File) Stat() FileInfo {
	return FileInfo{Name: f.name, Size: len(f.data.bytes)}
}

// Name returns the path the file was opened with.
func (f *File) Name() string {
	return f.name
}

// Close marks the file closed. Closing twice returns [ErrFileClosed].
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFileClosed
	}
	f.closed = true
	return nil
}
