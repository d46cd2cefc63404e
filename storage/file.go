package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// File keeps the value in a single file. Writes go to a temp file that is
// renamed over the target, so readers never see a partial write.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

// Available checks that the nearest existing ancestor of the file is a
// directory. Missing directories are created by Write, not here.
func (f *File) Available(_ context.Context) error {
	if f.path == "" {
		return errors.Wrap(ErrUnavailable, "file medium: empty path")
	}
	dir := filepath.Dir(f.path)
	for {
		info, err := os.Stat(dir)
		switch {
		case err == nil && info.IsDir():
			return nil
		case err == nil:
			return errors.Wrapf(ErrUnavailable, "file medium: %s is not a directory", dir)
		case !errors.Is(err, os.ErrNotExist):
			return errors.Wrapf(ErrUnavailable, "file medium: %v", err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return errors.Wrapf(ErrUnavailable, "file medium: no directory for %s", f.path)
		}
		dir = parent
	}
}

// Read returns nil, nil when the file does not exist yet.
func (f *File) Read(_ context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read %s", f.path)
	}
	return data, nil
}

func (f *File) Write(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return errors.Wrap(err, "create storage dir")
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	return errors.Wrap(os.Rename(tmp, f.path), "replace views file")
}
