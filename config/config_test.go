package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "VIEWS_BACKEND", "VIEWS_PATH", "LOG_LEVEL", "LOG_PRETTY", "CORS_ORIGINS"} {
		// Setenv restores the original value on cleanup; Unsetenv makes the
		// variable absent so godotenv can fill it.
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.env")

	cfg, err := Load(newFlags(t, "--env-file", missing))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Port:      "8080",
		Backend:   "file",
		Path:      "./data/views.json",
		LogLevel:  "info",
		LogPretty: true,
	}, cfg)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORT=7000\nVIEWS_BACKEND=sqlite\nLOG_LEVEL=debug\n"), 0644))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(newFlags(t, "--env-file", envFile, "--port", "9090"))
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port, "flag beats .env")
	assert.Equal(t, "sqlite", cfg.Backend, ".env fills what is unset")
	assert.Equal(t, "./data/views.db", cfg.Path, "path follows the backend")
	assert.Equal(t, "warn", cfg.LogLevel, "environment beats .env")
}

func TestLoadCORSOrigins(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.env")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := Load(newFlags(t, "--env-file", missing))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.env")

	_, err := Load(newFlags(t, "--env-file", missing, "--backend", "floppy"))
	assert.Error(t, err)

	_, err = Load(newFlags(t, "--env-file", missing, "--log-pretty", "sometimes"))
	assert.Error(t, err)
}

func TestLoadNilFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIEWS_BACKEND", "none")
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Backend)
	assert.Empty(t, cfg.Path)
}
