package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIdentify(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateRateLimit(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if len(c.Paths.LibraryRoots) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/shelver/config.toml"
		}
		return fmt.Errorf("paths.library_roots must list at least one directory; edit %s (create with 'shelver config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateIdentify() error {
	if c.Identify.GarbageSimilarity >= c.Identify.AutoApplySimilarity {
		return errors.New("identify.garbage_similarity must be below identify.auto_apply_similarity")
	}
	if c.Identify.LenientGarbageSimilarity > c.Identify.GarbageSimilarity {
		return errors.New("identify.lenient_garbage_similarity must not exceed identify.garbage_similarity")
	}
	known := map[string]struct{}{
		SourceLocal: {}, SourceAudnexus: {}, SourceOpenLibrary: {},
		SourceGoogleBooks: {}, SourceHardcover: {},
	}
	for _, name := range c.Identify.SourceOrder {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("identify.source_order contains unknown source %q", name)
		}
	}
	return nil
}

func (c *Config) validateProviders() error {
	if c.Hardcover.Enabled && strings.TrimSpace(c.Hardcover.APIKey) == "" {
		return errors.New("hardcover.api_key must be set when hardcover.enabled is true (or set HARDCOVER_API_TOKEN)")
	}
	if c.LLM.Enabled && strings.TrimSpace(c.LLM.APIKey) == "" {
		return errors.New("llm.api_key must be set when llm.enabled is true (or set OPENROUTER_API_KEY)")
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	if err := ensurePositiveMap(map[string]int{
		"ratelimit.max_requests_per_hour": c.RateLimit.MaxRequestsPerHour,
		"ratelimit.batch_size":            c.RateLimit.BatchSize,
	}); err != nil {
		return err
	}
	for name, delay := range c.RateLimit.MinDelayMS {
		if delay < 0 {
			return fmt.Errorf("ratelimit.min_delay_ms.%s must be >= 0", name)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.poll_interval_seconds":        c.Workflow.PollIntervalSeconds,
		"workflow.error_retry_interval_seconds": c.Workflow.ErrorRetryIntervalSeconds,
		"workflow.max_retries":                  c.Workflow.MaxRetries,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
