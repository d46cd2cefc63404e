// Package storage holds the media a view collection can be persisted to.
// Every medium stores one opaque value under a single key.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// DefaultKey is the key the collection is stored under.
const DefaultKey = "saved-table-views"

// ErrUnavailable is returned by Available when a medium cannot be used.
var ErrUnavailable = errors.New("storage medium unavailable")

// Medium matches view.Medium.
type Medium interface {
	Available(ctx context.Context) error
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Open builds the named medium at path. BackendNone returns a nil Medium,
// which the view store treats as an environment without storage. The
// returned closer is never nil.
func Open(backend, path string) (Medium, io.Closer, error) {
	switch backend {
	case BackendFile, "":
		return NewFile(path), nopCloser{}, nil
	case BackendBadger:
		b, err := OpenBadger(path, DefaultKey)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return b, b, nil
	case BackendSQLite:
		s, err := OpenSQLite(path, DefaultKey)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return s, s, nil
	case BackendMemory:
		return NewMemory(), nopCloser{}, nil
	case BackendNone:
		return nil, nopCloser{}, nil
	default:
		return nil, nopCloser{}, fmt.Errorf("unknown storage backend %q", backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
