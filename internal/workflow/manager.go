// Package workflow runs the background identification worker: a single loop
// that pulls bounded batches of queued entries, pushes each one through
// classification, reconciliation, and the decision policy, and applies the
// renames that clear it. One batch runs at a time; configuration is reloaded
// from disk at the start of every batch so threshold and batch-size changes
// take effect without a restart.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"shelver/internal/bookindex"
	"shelver/internal/config"
	"shelver/internal/identification"
	"shelver/internal/logging"
	"shelver/internal/metadata"
	"shelver/internal/metadata/audnexus"
	"shelver/internal/metadata/googlebooks"
	"shelver/internal/metadata/hardcover"
	"shelver/internal/metadata/openlibrary"
	"shelver/internal/notifications"
	"shelver/internal/queue"
	"shelver/internal/ratelimit"
	"shelver/internal/services/openrouter"
)

// ErrBatchInProgress reports that a batch trigger arrived while another batch
// was still running. Triggers are serialized, never overlapped.
var ErrBatchInProgress = errors.New("batch already in progress")

// BatchSummary reports what one batch accomplished.
type BatchSummary struct {
	BatchID        string
	Processed      int
	Applied        int
	PendingCreated int
	Errors         int
}

// Manager owns the worker loop and the process-wide rate gate.
type Manager struct {
	store  *queue.Store
	logger *slog.Logger
	gate   *ratelimit.Gate
	index  *bookindex.Store

	loadConfig  func() (*config.Config, error)
	newSources  func(cfg *config.Config) []metadata.Source
	newVerifier func(cfg *config.Config) identification.Verifier
	newNotifier func(cfg *config.Config) notifications.Service

	pollInterval       time.Duration
	batchDelay         time.Duration
	errorRetryInterval time.Duration

	mu          sync.Mutex
	running     bool
	batchActive bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastSummary *BatchSummary
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithConfigLoader replaces the per-batch configuration reload.
func WithConfigLoader(load func() (*config.Config, error)) Option {
	return func(m *Manager) {
		if load != nil {
			m.loadConfig = load
		}
	}
}

// WithSources replaces the metadata source chain construction.
func WithSources(factory func(cfg *config.Config) []metadata.Source) Option {
	return func(m *Manager) {
		if factory != nil {
			m.newSources = factory
		}
	}
}

// WithVerifier replaces the AI verification adapter construction.
func WithVerifier(factory func(cfg *config.Config) identification.Verifier) Option {
	return func(m *Manager) {
		if factory != nil {
			m.newVerifier = factory
		}
	}
}

// WithNotifier replaces the push notification construction.
func WithNotifier(factory func(cfg *config.Config) notifications.Service) Option {
	return func(m *Manager) {
		if factory != nil {
			m.newNotifier = factory
		}
	}
}

// WithBookIndex attaches the offline book index used by the "local" source.
func WithBookIndex(index *bookindex.Store) Option {
	return func(m *Manager) { m.index = index }
}

// WithGate replaces the outbound rate gate.
func WithGate(gate *ratelimit.Gate) Option {
	return func(m *Manager) {
		if gate != nil {
			m.gate = gate
		}
	}
}

// NewManager constructs the worker. configPath is re-read at the start of
// every batch; cfg supplies the loop timing and the initial rate budget.
func NewManager(cfg *config.Config, configPath string, store *queue.Store, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		store:              store,
		logger:             logging.NewComponentLogger(logger, "workflow"),
		gate:               ratelimit.NewGate(cfg.RateLimit.MaxRequestsPerHour, cfg.RateLimit.MinDelayMS),
		pollInterval:       time.Duration(cfg.Workflow.PollIntervalSeconds) * time.Second,
		batchDelay:         time.Duration(cfg.RateLimit.BatchDelaySeconds) * time.Second,
		errorRetryInterval: time.Duration(cfg.Workflow.ErrorRetryIntervalSeconds) * time.Second,
	}
	m.loadConfig = func() (*config.Config, error) {
		loaded, _, _, err := config.Load(configPath)
		return loaded, err
	}
	m.newSources = m.defaultSources
	m.newVerifier = defaultVerifier
	m.newNotifier = notifications.NewService
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("worker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop halts the loop and waits for the in-flight entry to finish. Renames
// are never interrupted mid-move; pending lookups are abandoned.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the background loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastSummary returns the most recent batch summary, if any batch has run.
func (m *Manager) LastSummary() (BatchSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastSummary == nil {
		return BatchSummary{}, false
	}
	return *m.lastSummary, true
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	if reclaimed, err := m.store.ResetStuckProcessing(ctx); err != nil {
		m.logger.Warn("reset stuck processing failed", logging.Error(err))
	} else if reclaimed > 0 {
		m.logger.Info("requeued stuck entries", logging.Int64("count", reclaimed))
	}

	for {
		summary, err := m.RunBatch(ctx)

		wait := m.pollInterval
		switch {
		case err != nil && !errors.Is(err, ErrBatchInProgress) && !errors.Is(err, context.Canceled):
			m.logger.Error("batch failed", logging.Error(err))
			wait = m.errorRetryInterval
		case err == nil && summary.Processed > 0:
			m.mu.Lock()
			wait = m.batchDelay
			m.mu.Unlock()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// defaultSources builds the ranked source chain from the configured order,
// skipping disabled providers.
func (m *Manager) defaultSources(cfg *config.Config) []metadata.Source {
	timeout := time.Duration(cfg.Identify.LookupTimeoutSeconds) * time.Second
	sources := make([]metadata.Source, 0, len(cfg.Identify.SourceOrder))
	for _, name := range cfg.Identify.SourceOrder {
		switch name {
		case config.SourceLocal:
			if m.index != nil {
				sources = append(sources, bookindex.NewLocalSource(m.index))
			}
		case config.SourceAudnexus:
			if cfg.Audnexus.Enabled {
				sources = append(sources, audnexus.NewClient(cfg.Audnexus, timeout))
			}
		case config.SourceOpenLibrary:
			if cfg.OpenLibrary.Enabled {
				sources = append(sources, openlibrary.NewClient(cfg.OpenLibrary, timeout))
			}
		case config.SourceGoogleBooks:
			if cfg.GoogleBooks.Enabled {
				sources = append(sources, googlebooks.NewClient(cfg.GoogleBooks, timeout))
			}
		case config.SourceHardcover:
			if cfg.Hardcover.Enabled {
				sources = append(sources, hardcover.NewClient(cfg.Hardcover, timeout))
			}
		case config.SourceLLM:
			// The model is the verifier fallback, not a ranked source.
		}
	}
	return sources
}

func defaultVerifier(cfg *config.Config) identification.Verifier {
	llm := cfg.GetLLM()
	if !cfg.LLM.Enabled || llm.APIKey == "" {
		return nil
	}
	client := openrouter.NewClient(openrouter.Config{
		APIKey:         llm.APIKey,
		BaseURL:        llm.BaseURL,
		Model:          llm.Model,
		TimeoutSeconds: llm.TimeoutSeconds,
	})
	return &llmVerifier{client: client}
}

// llmVerifier adapts the OpenRouter client to the reconciler's Verifier
// contract.
type llmVerifier struct {
	client *openrouter.Client
}

func (v *llmVerifier) Verify(ctx context.Context, query identification.VerifyQuery) (identification.Verification, error) {
	req := openrouter.VerifyRequest{
		Name: query.OriginalTitle,
		Hints: map[string]string{
			"author": query.OriginalAuthor,
		},
		Candidates: make([]string, 0, len(query.Candidates)),
	}
	for _, candidate := range query.Candidates {
		req.Candidates = append(req.Candidates, formatCandidate(candidate))
	}
	result, err := v.client.Verify(ctx, req)
	if err != nil {
		return identification.Verification{}, err
	}
	return identification.Verification{
		Author:       result.Author,
		Title:        result.Title,
		Series:       result.Series,
		SeriesNumber: result.SeriesNumber,
		Confident:    result.Confident,
	}, nil
}

func formatCandidate(candidate metadata.Candidate) string {
	if candidate.Author == "" {
		return candidate.Title + " (" + candidate.Source + ")"
	}
	return candidate.Title + " by " + candidate.Author + " (" + candidate.Source + ")"
}
