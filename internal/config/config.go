package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryRoots []string `toml:"library_roots"`
	LogDir       string   `toml:"log_dir"`
	DatabaseDir  string   `toml:"database_dir"`
}

// Naming controls the canonical destination layout for identified items.
type Naming struct {
	// Format selects the folder template: "author_only" (Author/Title) or
	// "author_series" (Author/Series/NN - Title).
	Format          string `toml:"format"`
	IncludeNarrator bool   `toml:"include_narrator"`
	IncludeYear     bool   `toml:"include_year"`
	// MinDepth is the minimum number of path segments below a library root a
	// destination must have. Two means author/title.
	MinDepth int `toml:"min_depth"`
}

// Identify contains reconciliation thresholds and source ordering.
type Identify struct {
	AutoFix bool `toml:"auto_fix"`
	// GarbageSimilarity rejects candidates below this Jaccard overlap.
	GarbageSimilarity float64 `toml:"garbage_similarity"`
	// LenientGarbageSimilarity replaces GarbageSimilarity for very short titles.
	LenientGarbageSimilarity float64 `toml:"lenient_garbage_similarity"`
	// AutoApplySimilarity is the overlap at or above which a non-diverging
	// candidate is eligible for automatic application.
	AutoApplySimilarity float64 `toml:"auto_apply_similarity"`
	// DrasticOverlapRatio is the author token overlap below which a change
	// counts as drastic.
	DrasticOverlapRatio  float64  `toml:"drastic_overlap_ratio"`
	LookupTimeoutSeconds int      `toml:"lookup_timeout_seconds"`
	SourceOrder          []string `toml:"source_order"`
}

// Provider contains connection settings for one metadata provider.
type Provider struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// LLM contains connection settings for the AI verification service.
type LLM struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// RateLimit contains external-call pacing configuration.
type RateLimit struct {
	MaxRequestsPerHour int            `toml:"max_requests_per_hour"`
	BatchDelaySeconds  int            `toml:"batch_delay_seconds"`
	BatchSize          int            `toml:"batch_size"`
	MinDelayMS         map[string]int `toml:"min_delay_ms"`
}

// Workflow contains background worker timing and retry configuration.
type Workflow struct {
	PollIntervalSeconds       int `toml:"poll_interval_seconds"`
	ErrorRetryIntervalSeconds int `toml:"error_retry_interval_seconds"`
	MaxRetries                int `toml:"max_retries"`
}

// Notifications contains push notification settings. An empty topic
// disables the feature.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shelver.
//
// Configuration sections by subsystem:
//   - Paths: library roots, database and log directories
//   - Naming: destination folder templates
//   - Identify: similarity thresholds, auto-fix, source ordering
//   - Audnexus/OpenLibrary/GoogleBooks/Hardcover: metadata provider settings
//   - LLM: AI verification connection settings
//   - RateLimit: external-call pacing
//   - Workflow: worker polling and retry limits
//   - Notifications: ntfy push notifications
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Naming        Naming        `toml:"naming"`
	Identify      Identify      `toml:"identify"`
	Audnexus      Provider      `toml:"audnexus"`
	OpenLibrary   Provider      `toml:"openlibrary"`
	GoogleBooks   Provider      `toml:"googlebooks"`
	Hardcover     Provider      `toml:"hardcover"`
	LLM           LLM           `toml:"llm"`
	RateLimit     RateLimit     `toml:"ratelimit"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shelver/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shelver.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the engine needs to operate.
// Library roots are created on a best-effort basis so startup survives a
// temporarily unmounted share.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.DatabaseDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, root := range c.Paths.LibraryRoots {
		if strings.TrimSpace(root) != "" {
			_ = os.MkdirAll(root, 0o755)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the AI verification connection settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// GetLLM returns the AI verification connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

// DatabasePath returns the queue/history database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DatabaseDir, "shelver.db")
}

// BookIndexPath returns the local offline book index location.
func (c *Config) BookIndexPath() string {
	return filepath.Join(c.Paths.DatabaseDir, "bookindex.db")
}
