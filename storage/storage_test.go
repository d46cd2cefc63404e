package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-views/storage"
)

type opener func(t *testing.T) storage.Medium

func media() map[string]opener {
	return map[string]opener{
		"file": func(t *testing.T) storage.Medium {
			return storage.NewFile(filepath.Join(t.TempDir(), "nested", "views.json"))
		},
		"badger": func(t *testing.T) storage.Medium {
			b, err := storage.OpenBadger(t.TempDir(), storage.DefaultKey)
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })
			return b
		},
		"sqlite": func(t *testing.T) storage.Medium {
			s, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "views.db"), storage.DefaultKey)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"memory": func(t *testing.T) storage.Medium {
			return storage.NewMemory()
		},
	}
}

func TestMediaReadAbsent(t *testing.T) {
	for name, open := range media() {
		t.Run(name, func(t *testing.T) {
			m := open(t)
			ctx := context.Background()
			require.NoError(t, m.Available(ctx))

			data, err := m.Read(ctx)
			require.NoError(t, err)
			assert.Nil(t, data)
		})
	}
}

func TestMediaWriteReplaces(t *testing.T) {
	for name, open := range media() {
		t.Run(name, func(t *testing.T) {
			m := open(t)
			ctx := context.Background()

			require.NoError(t, m.Write(ctx, []byte(`[{"id":"a"}]`)))
			require.NoError(t, m.Write(ctx, []byte(`[]`)))

			data, err := m.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(data))
		})
	}
}

func TestFilePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "views.json")
	ctx := context.Background()
	require.NoError(t, storage.NewFile(path).Write(ctx, []byte(`[1]`)))

	data, err := storage.NewFile(path).Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(data))
	assert.NoFileExists(t, path+".tmp")
}

func TestFileEmptyPathUnavailable(t *testing.T) {
	err := storage.NewFile("").Available(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestFileAvailableHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "a", "b")
	f := storage.NewFile(filepath.Join(dir, "views.json"))

	require.NoError(t, f.Available(ctx))
	assert.NoDirExists(t, dir)

	require.NoError(t, f.Write(ctx, []byte(`[]`)))
	assert.DirExists(t, dir)
}

func TestFileUnderRegularFileUnavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := storage.NewFile(filepath.Join(blocker, "views.json")).Available(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := storage.OpenBadger(dir, storage.DefaultKey)
	require.NoError(t, err)
	require.NoError(t, b.Write(ctx, []byte(`["x"]`)))
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Available(ctx), storage.ErrUnavailable)

	b, err = storage.OpenBadger(dir, storage.DefaultKey)
	require.NoError(t, err)
	defer b.Close()
	data, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `["x"]`, string(data))
}

func TestSQLiteClosedUnavailable(t *testing.T) {
	s, err := storage.OpenSQLite(":memory:", storage.DefaultKey)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Available(context.Background()), storage.ErrUnavailable)
}

func TestMemorySwitches(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemoryWith([]byte(`[]`))

	m.SetAvailable(false)
	assert.ErrorIs(t, m.Available(ctx), storage.ErrUnavailable)
	m.SetAvailable(true)
	assert.NoError(t, m.Available(ctx))

	m.FailWrites(io.ErrShortWrite)
	assert.ErrorIs(t, m.Write(ctx, []byte(`[1]`)), io.ErrShortWrite)
	assert.Equal(t, `[]`, string(m.Data()))
	assert.Equal(t, 0, m.Writes())
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()

	m, closer, err := storage.Open(storage.BackendNone, "")
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.NoError(t, closer.Close())

	m, closer, err = storage.Open(storage.BackendSQLite, filepath.Join(dir, "v.db"))
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLite{}, m)
	assert.NoError(t, closer.Close())

	m, closer, err = storage.Open(storage.BackendBadger, filepath.Join(dir, "badger"))
	require.NoError(t, err)
	assert.IsType(t, &storage.Badger{}, m)
	assert.NoError(t, closer.Close())

	_, _, err = storage.Open("floppy", dir)
	assert.Error(t, err)
}
