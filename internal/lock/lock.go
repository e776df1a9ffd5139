// Package lock excludes concurrent runs with a marker file.
//
// The lock is advisory: a process that crashes leaves the file behind and later runs
// refuse to start until it is removed. The file records the holder's pid and start time.
package lock

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ErrLocked is returned by Acquire while another run holds the lock.
var ErrLocked = errors.New("another run is in progress")

type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

// Acquire creates the marker file. The returned release removes it and is safe to call twice.
func (f *File) Acquire() (release func() error, err error) {
	fd, err := os.OpenFile(f.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, ErrLocked
	} else if err != nil {
		return nil, fmt.Errorf("create lock file %s: %w", f.path, err)
	}

	_, werr := fmt.Fprintf(fd, "pid=%d started=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	if cerr := fd.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(f.path)
		return nil, fmt.Errorf("write lock file %s: %w", f.path, werr)
	}

	var once sync.Once
	return func() error {
		var rerr error
		once.Do(func() {
			if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
				rerr = fmt.Errorf("remove lock file %s: %w", f.path, err)
			}
		})
		return rerr
	}, nil
}

// Held reports whether the marker file exists.
func (f *File) Held() bool {
	_, err := os.Stat(f.path)
	return err == nil
}
