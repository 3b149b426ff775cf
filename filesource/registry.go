// Package filesource opens files as read-only, seekable byte sources and
// feeds them into an [rstream.Stream] chunk by chunk.
//
// File contents are loaded once per path into a [Registry] and shared by
// every [File] opened on that path; each File keeps its own offset.
package filesource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrEmptyName is returned by [Registry.Open] for an empty path.
	ErrEmptyName = errors.New("filesource: empty file name")

	// ErrNotFound is returned when the file does not exist.
	ErrNotFound = errors.New("filesource: file not found")

	// ErrPermissionDenied is returned when the file cannot be read.
	ErrPermissionDenied = errors.New("filesource: permission denied")

	// ErrIsDirectory is returned when the path names a directory.
	ErrIsDirectory = errors.New("filesource: is a directory")
)

// Registry caches file contents read from a filesystem.
type Registry struct {
	fsys afero.Fs

	mu    sync.Mutex
	files map[string]*fileData

	loads singleflight.Group
}

type fileData struct {
	bytes []byte
}

// NewRegistry returns a registry reading from fsys.
// It panics if fsys is nil.
func NewRegistry(fsys afero.Fs) *Registry {
	if fsys == nil {
		panic("filesource: NewRegistry requires non-nil filesystem")
	}
	return &Registry{
		fsys:  fsys,
		files: make(map[string]*fileData),
	}
}

// NewOSRegistry returns a registry reading from the host filesystem.
func NewOSRegistry() *Registry {
	return NewRegistry(afero.NewOsFs())
}

// Open returns a new [File] positioned at offset 0.
func (r *Registry) Open(name string) (*File, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	data, err := r.load(name)
	if err != nil {
		return nil, err
	}
	return &File{name: name, data: data}, nil
}

// ReadFile returns a copy of the whole contents of name. It shares the
// cache with [Registry.Open] and fails with the same errors.
func (r *Registry) ReadFile(name string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	data, err := r.load(name)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data.bytes))
	copy(out, data.bytes)
	return out, nil
}

// Len reports how many files are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

func (r *Registry) load(name string) (*fileData, error) {
	r.mu.Lock()
	if fd, ok := r.files[name]; ok {
		r.mu.Unlock()
		return fd, nil
	}
	r.mu.Unlock()

	v, err, _ := r.loads.Do(name, func() (any, error) {
		r.mu.Lock()
		fd, ok := r.files[name]
		r.mu.Unlock()
		if ok {
			return fd, nil
		}

		fd, err := r.read(name)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.files[name] = fd
		r.mu.Unlock()
		return fd, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*fileData), nil
}

func (r *Registry) read(name string) (*fileData, error) {
	isDir, err := afero.IsDir(r.fsys, name)
	if err != nil {
		return nil, classify(name, err)
	}
	if isDir {
		return nil, fmt.Errorf("%w: %q", ErrIsDirectory, name)
	}

	f, err := r.fsys.Open(name)
	if err != nil {
		return nil, classify(name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, classify(name, err)
	}
	return &fileData{bytes: data}, nil
}

// classify maps filesystem errors onto the package's sentinels while
// keeping the original error in the chain.
func classify(name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %q: %w", ErrNotFound, name, err)
	case errors.Is(err, fs.ErrPermission), os.IsPermission(err):
		return fmt.Errorf("%w: %q: %w", ErrPermissionDenied, name, err)
	default:
		return fmt.Errorf("filesource: open %q: %w", name, err)
	}
}
