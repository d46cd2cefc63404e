package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-views/storage"
	"table-views/view"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func seed(t *testing.T, path string, names ...string) {
	t.Helper()
	ctx := context.Background()
	store := view.NewStore(ctx, storage.NewFile(path))
	for _, name := range names {
		_, err := store.Save(ctx, view.SavedViewInput{Name: name})
		require.NoError(t, err)
	}
}

func TestViewsCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "views.json")
	seed(t, path, "Open tickets", "Closed")
	common := []string{"--env-file", filepath.Join(dir, "none.env"), "--backend", "file", "--path", path, "--log-level", "error"}

	out := run(t, append([]string{"views", "stats"}, common...)...)
	assert.Equal(t, "2 of 50 views (4% full)\n", out)

	out = run(t, append([]string{"views", "list", "-q", "open"}, common...)...)
	assert.Contains(t, out, "Open tickets")
	assert.NotContains(t, out, "Closed")

	out = run(t, append([]string{"views", "export"}, common...)...)
	var views []view.SavedView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	assert.Len(t, views, 2)
}

func TestUnknownBackendFails(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"views", "stats", "--env-file", filepath.Join(t.TempDir(), "x.env"), "--backend", "floppy"})
	assert.Error(t, cmd.Execute())
}

func TestReadOnlyCommandsCreateNothing(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	common := []string{"--env-file", filepath.Join(dir, "none.env"), "--backend", "file",
		"--path", filepath.Join(dataDir, "views.json"), "--log-level", "error"}

	assert.Equal(t, "0 of 50 views (0% full)\n", run(t, append([]string{"views", "stats"}, common...)...))
	run(t, append([]string{"views", "list"}, common...)...)
	run(t, append([]string{"views", "export"}, common...)...)
	assert.NoDirExists(t, dataDir)
}
