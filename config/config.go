// Package config loads server settings. Precedence, highest first: command
// line flags, environment variables, the .env file, defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"table-views/storage"
)

type Config struct {
	Port      string
	Backend   string
	Path      string
	LogLevel  string
	LogPretty bool

	// CORSOrigins lists browser origins allowed to call the API. Empty
	// disables CORS handling.
	CORSOrigins []string
}

// Flag names registered by RegisterFlags.
const (
	FlagPort      = "port"
	FlagBackend   = "backend"
	FlagPath      = "path"
	FlagLogLevel  = "log-level"
	FlagLogPretty = "log-pretty"
	FlagEnvFile   = "env-file"
	FlagCORS      = "cors-origins"
)

// RegisterFlags adds the config flags to flags. Flag defaults are empty so an
// unset flag never hides the environment.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(FlagPort, "", "HTTP port (env PORT, default 8080)")
	flags.String(FlagBackend, "", "storage backend: file, badger, sqlite, memory, none (env VIEWS_BACKEND)")
	flags.String(FlagPath, "", "storage location for the backend (env VIEWS_PATH)")
	flags.String(FlagLogLevel, "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.String(FlagLogPretty, "", "human-readable logs (env LOG_PRETTY, default true)")
	flags.String(FlagCORS, "", "comma-separated origins allowed by CORS (env CORS_ORIGINS)")
	flags.String(FlagEnvFile, ".env", "path to a .env file")
}

// Load resolves the configuration. flags may be nil.
func Load(flags *pflag.FlagSet) (Config, error) {
	envFile := flagValue(flags, FlagEnvFile)
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables already set in the environment.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Config{
		Port:     pick(flags, FlagPort, "PORT", "8080"),
		Backend:  pick(flags, FlagBackend, "VIEWS_BACKEND", storage.BackendFile),
		LogLevel: pick(flags, FlagLogLevel, "LOG_LEVEL", "info"),
	}
	cfg.Path = pick(flags, FlagPath, "VIEWS_PATH", DefaultPath(cfg.Backend))

	pretty, err := strconv.ParseBool(pick(flags, FlagLogPretty, "LOG_PRETTY", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid log-pretty value: %w", err)
	}
	cfg.LogPretty = pretty
	cfg.CORSOrigins = splitList(pick(flags, FlagCORS, "CORS_ORIGINS", ""))

	switch cfg.Backend {
	case storage.BackendFile, storage.BackendBadger, storage.BackendSQLite,
		storage.BackendMemory, storage.BackendNone:
	default:
		return Config{}, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	return cfg, nil
}

// DefaultPath is where a backend keeps its data when no path is configured.
func DefaultPath(backend string) string {
	switch backend {
	case storage.BackendBadger:
		return "./data/views.badger"
	case storage.BackendSQLite:
		return "./data/views.db"
	case storage.BackendMemory, storage.BackendNone:
		return ""
	default:
		return "./data/views.json"
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func pick(flags *pflag.FlagSet, flag, env, def string) string {
	if v := flagValue(flags, flag); v != "" {
		return v
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

func flagValue(flags *pflag.FlagSet, name string) string {
	if flags == nil {
		return ""
	}
	f := flags.Lookup(name)
	if f == nil || !f.Changed {
		return ""
	}
	return f.Value.String()
}
