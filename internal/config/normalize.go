package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNaming()
	c.normalizeIdentify()
	c.normalizeProviders()
	c.normalizeLLM()
	c.normalizeRateLimit()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	roots := make([]string, 0, len(c.Paths.LibraryRoots))
	seen := make(map[string]struct{}, len(c.Paths.LibraryRoots))
	for _, root := range c.Paths.LibraryRoots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		expanded, expandErr := expandPath(root)
		if expandErr != nil {
			return fmt.Errorf("paths.library_roots: %w", expandErr)
		}
		if _, dup := seen[expanded]; dup {
			continue
		}
		seen[expanded] = struct{}{}
		roots = append(roots, expanded)
	}
	c.Paths.LibraryRoots = roots

	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabaseDir) == "" {
		c.Paths.DatabaseDir = defaultDatabaseDir
	}
	if c.Paths.DatabaseDir, err = expandPath(c.Paths.DatabaseDir); err != nil {
		return fmt.Errorf("paths.database_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNaming() {
	c.Naming.Format = strings.ToLower(strings.TrimSpace(c.Naming.Format))
	switch c.Naming.Format {
	case NamingAuthorOnly, NamingAuthorSeries:
	default:
		c.Naming.Format = defaultNamingFormat
	}
	if c.Naming.MinDepth < defaultNamingDepth {
		c.Naming.MinDepth = defaultNamingDepth
	}
}

func (c *Config) normalizeIdentify() {
	if c.Identify.GarbageSimilarity <= 0 || c.Identify.GarbageSimilarity >= 1 {
		c.Identify.GarbageSimilarity = defaultGarbageSimilarity
	}
	if c.Identify.LenientGarbageSimilarity <= 0 || c.Identify.LenientGarbageSimilarity >= 1 {
		c.Identify.LenientGarbageSimilarity = defaultLenientGarbageSimilarity
	}
	if c.Identify.AutoApplySimilarity <= 0 || c.Identify.AutoApplySimilarity > 1 {
		c.Identify.AutoApplySimilarity = defaultAutoApplySimilarity
	}
	if c.Identify.DrasticOverlapRatio <= 0 || c.Identify.DrasticOverlapRatio >= 1 {
		c.Identify.DrasticOverlapRatio = defaultDrasticOverlapRatio
	}
	if c.Identify.LookupTimeoutSeconds <= 0 {
		c.Identify.LookupTimeoutSeconds = defaultLookupTimeoutSeconds
	}

	order := make([]string, 0, len(c.Identify.SourceOrder))
	seen := make(map[string]struct{}, len(c.Identify.SourceOrder))
	for _, name := range c.Identify.SourceOrder {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		order = append(order, normalized)
	}
	if len(order) == 0 {
		order = defaultSourceOrder()
	}
	c.Identify.SourceOrder = order
}

func (c *Config) normalizeProviders() {
	trim := func(p *Provider, fallbackURL string) {
		p.BaseURL = strings.TrimSpace(p.BaseURL)
		if p.BaseURL == "" {
			p.BaseURL = fallbackURL
		}
		p.APIKey = strings.TrimSpace(p.APIKey)
	}
	trim(&c.Audnexus, defaultAudnexusBaseURL)
	trim(&c.OpenLibrary, defaultOpenLibraryBaseURL)
	trim(&c.GoogleBooks, defaultGoogleBooksBaseURL)
	trim(&c.Hardcover, defaultHardcoverBaseURL)

	if c.GoogleBooks.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_BOOKS_API_KEY"); ok {
			c.GoogleBooks.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Hardcover.APIKey == "" {
		if value, ok := os.LookupEnv("HARDCOVER_API_TOKEN"); ok {
			c.Hardcover.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeRateLimit() {
	if c.RateLimit.MaxRequestsPerHour <= 0 {
		c.RateLimit.MaxRequestsPerHour = defaultMaxRequestsPerHour
	}
	if c.RateLimit.BatchDelaySeconds < 0 {
		c.RateLimit.BatchDelaySeconds = defaultBatchDelaySeconds
	}
	if c.RateLimit.BatchSize <= 0 {
		c.RateLimit.BatchSize = defaultBatchSize
	}
	if len(c.RateLimit.MinDelayMS) == 0 {
		c.RateLimit.MinDelayMS = defaultMinDelayMS()
	} else {
		for name, delay := range defaultMinDelayMS() {
			if _, ok := c.RateLimit.MinDelayMS[name]; !ok {
				c.RateLimit.MinDelayMS[name] = delay
			}
		}
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollIntervalSeconds <= 0 {
		c.Workflow.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Workflow.ErrorRetryIntervalSeconds <= 0 {
		c.Workflow.ErrorRetryIntervalSeconds = defaultErrorRetryIntervalSeconds
	}
	if c.Workflow.MaxRetries <= 0 {
		c.Workflow.MaxRetries = defaultMaxRetries
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
