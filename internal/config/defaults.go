package config

const (
	defaultLogDir      = "~/.local/share/shelver/logs"
	defaultDatabaseDir = "~/.local/share/shelver"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"

	// NamingAuthorOnly lays books out as Author/Title.
	NamingAuthorOnly = "author_only"
	// NamingAuthorSeries lays series books out as Author/Series/NN - Title.
	NamingAuthorSeries = "author_series"

	defaultNamingFormat = NamingAuthorSeries
	defaultNamingDepth  = 2

	// Similarity thresholds are empirically tuned; changing them changes
	// which renames are considered safe. Keep overrides deliberate.
	defaultGarbageSimilarity        = 0.30
	defaultLenientGarbageSimilarity = 0.20
	defaultAutoApplySimilarity      = 0.85
	defaultDrasticOverlapRatio      = 0.30
	defaultLookupTimeoutSeconds     = 15

	defaultAudnexusBaseURL    = "https://api.audnex.us"
	defaultOpenLibraryBaseURL = "https://openlibrary.org"
	defaultGoogleBooksBaseURL = "https://www.googleapis.com/books/v1"
	defaultHardcoverBaseURL   = "https://api.hardcover.app/v1/graphql"

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds = 60

	defaultMaxRequestsPerHour = 600
	defaultBatchDelaySeconds  = 2
	defaultBatchSize          = 25

	defaultPollIntervalSeconds       = 300
	defaultErrorRetryIntervalSeconds = 60
	defaultMaxRetries                = 3

	defaultNtfyTimeoutSeconds = 10
)

// SourceLocal through SourceLLM are the canonical metadata source names used
// in config ordering, rate-limit keys, and logging.
const (
	SourceLocal       = "local"
	SourceAudnexus    = "audnexus"
	SourceOpenLibrary = "openlibrary"
	SourceGoogleBooks = "googlebooks"
	SourceHardcover   = "hardcover"
	SourceLLM         = "llm"
)

func defaultSourceOrder() []string {
	return []string{SourceLocal, SourceAudnexus, SourceOpenLibrary, SourceGoogleBooks, SourceHardcover}
}

func defaultMinDelayMS() map[string]int {
	return map[string]int{
		SourceAudnexus:    500,
		SourceOpenLibrary: 1000,
		SourceGoogleBooks: 1000,
		SourceHardcover:   1000,
		SourceLLM:         2000,
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:      defaultLogDir,
			DatabaseDir: defaultDatabaseDir,
		},
		Naming: Naming{
			Format:          defaultNamingFormat,
			IncludeNarrator: true,
			MinDepth:        defaultNamingDepth,
		},
		Identify: Identify{
			GarbageSimilarity:        defaultGarbageSimilarity,
			LenientGarbageSimilarity: defaultLenientGarbageSimilarity,
			AutoApplySimilarity:      defaultAutoApplySimilarity,
			DrasticOverlapRatio:      defaultDrasticOverlapRatio,
			LookupTimeoutSeconds:     defaultLookupTimeoutSeconds,
			SourceOrder:              defaultSourceOrder(),
		},
		Audnexus: Provider{
			Enabled: true,
			BaseURL: defaultAudnexusBaseURL,
		},
		OpenLibrary: Provider{
			Enabled: true,
			BaseURL: defaultOpenLibraryBaseURL,
		},
		GoogleBooks: Provider{
			Enabled: true,
			BaseURL: defaultGoogleBooksBaseURL,
		},
		Hardcover: Provider{
			BaseURL: defaultHardcoverBaseURL,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		RateLimit: RateLimit{
			MaxRequestsPerHour: defaultMaxRequestsPerHour,
			BatchDelaySeconds:  defaultBatchDelaySeconds,
			BatchSize:          defaultBatchSize,
			MinDelayMS:         defaultMinDelayMS(),
		},
		Workflow: Workflow{
			PollIntervalSeconds:       defaultPollIntervalSeconds,
			ErrorRetryIntervalSeconds: defaultErrorRetryIntervalSeconds,
			MaxRetries:                defaultMaxRetries,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
