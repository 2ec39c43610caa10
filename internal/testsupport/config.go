package testsupport

import (
	"path/filepath"
	"testing"

	"shelver/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryRoots = []string{filepath.Join(base, "library")}
	cfg.Paths.DatabaseDir = filepath.Join(base, "db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	// No pacing in tests: batches reconfigure the rate gate from the
	// config they load, and the defaults would make lookups sleep.
	cfg.RateLimit.MaxRequestsPerHour = 0
	cfg.RateLimit.MinDelayMS = nil
	cfg.RateLimit.BatchDelaySeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAutoFix flips the global auto-apply switch on the test config.
func WithAutoFix(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Identify.AutoFix = enabled
	}
}

// WithLibraryRoot replaces the library roots on the test config.
func WithLibraryRoot(roots ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.LibraryRoots = roots
	}
}

// LibraryRoot returns the first library root of a generated config.
func LibraryRoot(cfg *config.Config) string {
	if len(cfg.Paths.LibraryRoots) == 0 {
		return ""
	}
	return cfg.Paths.LibraryRoots[0]
}
