package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"shelver/internal/config"
	"shelver/internal/decision"
	"shelver/internal/identification"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/organizer"
	"shelver/internal/queue"
	"shelver/internal/services"
	"shelver/internal/structure"
)

// RunBatch pulls one bounded batch of queued entries and processes them
// sequentially. Only one batch runs at a time; a second trigger returns
// ErrBatchInProgress instead of overlapping. Configuration is reloaded from
// disk before the batch starts.
func (m *Manager) RunBatch(ctx context.Context) (BatchSummary, error) {
	m.mu.Lock()
	if m.batchActive {
		m.mu.Unlock()
		return BatchSummary{}, ErrBatchInProgress
	}
	m.batchActive = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.batchActive = false
		m.mu.Unlock()
	}()

	cfg, err := m.loadConfig()
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reload config: %w", err)
	}
	m.applyRateConfig(cfg)

	summary := BatchSummary{BatchID: uuid.NewString()}
	logger := m.logger.With(logging.String(logging.FieldBatchID, summary.BatchID))

	if requeued, err := m.requeueRetryable(ctx, cfg.Workflow.MaxRetries); err != nil {
		logger.Warn("requeue errored entries failed", logging.Error(err))
	} else if requeued > 0 {
		logger.Info("requeued errored entries for retry", logging.Int("count", requeued))
	}

	entries, err := m.store.NextBatch(ctx, cfg.RateLimit.BatchSize)
	if err != nil {
		return summary, fmt.Errorf("fetch batch: %w", err)
	}
	if len(entries) == 0 {
		m.recordSummary(summary)
		return summary, nil
	}

	reconciler := m.newReconciler(cfg)
	org := organizer.New(m.store, cfg.Paths.LibraryRoots, cfg.Naming.MinDepth, m.logger)
	notifier := m.newNotifier(cfg)

	for _, entry := range entries {
		// A stop request finishes the in-flight entry, then halts here.
		if ctx.Err() != nil {
			break
		}
		status := m.processEntry(ctx, cfg, reconciler, org, notifier, logger, entry)
		summary.Processed++
		switch status {
		case queue.StatusApplied:
			summary.Applied++
		case queue.StatusPendingApproval:
			summary.PendingCreated++
		case queue.StatusError:
			summary.Errors++
		}
	}

	logger.Info("batch complete",
		logging.Int("processed", summary.Processed),
		logging.Int("applied", summary.Applied),
		logging.Int("pending", summary.PendingCreated),
		logging.Int("errors", summary.Errors),
	)
	if err := notifier.BatchCompleted(context.WithoutCancel(ctx),
		summary.Processed, summary.Applied, summary.PendingCreated, summary.Errors); err != nil {
		logger.Warn("batch notification failed", logging.Error(err))
	}
	m.recordSummary(summary)
	return summary, nil
}

func (m *Manager) recordSummary(summary BatchSummary) {
	m.mu.Lock()
	m.lastSummary = &summary
	m.mu.Unlock()
}

// applyRateConfig pushes the freshly loaded pacing settings onto the gate
// and the inter-batch delay, keeping the gate's current window intact.
func (m *Manager) applyRateConfig(cfg *config.Config) {
	m.gate.Reconfigure(cfg.RateLimit.MaxRequestsPerHour, cfg.RateLimit.MinDelayMS)
	m.mu.Lock()
	m.batchDelay = time.Duration(cfg.RateLimit.BatchDelaySeconds) * time.Second
	m.mu.Unlock()
}

func (m *Manager) newReconciler(cfg *config.Config) *identification.Reconciler {
	opts := []identification.Option{
		identification.WithPacer(m.gate),
		identification.WithPolicy(identification.Policy{
			GarbageSimilarity:        cfg.Identify.GarbageSimilarity,
			LenientGarbageSimilarity: cfg.Identify.LenientGarbageSimilarity,
			AutoApplySimilarity:      cfg.Identify.AutoApplySimilarity,
			DrasticOverlapRatio:      cfg.Identify.DrasticOverlapRatio,
		}),
		identification.WithLookupTimeout(time.Duration(cfg.Identify.LookupTimeoutSeconds) * time.Second),
		identification.WithLogger(m.logger),
	}
	if verifier := m.newVerifier(cfg); verifier != nil {
		opts = append(opts, identification.WithVerifier(verifier))
	}
	return identification.NewReconciler(m.newSources(cfg), opts...)
}

// requeueRetryable moves errored entries that still have retry budget back to
// queued. Dismissed entries and entries past the retry limit stay put.
func (m *Manager) requeueRetryable(ctx context.Context, maxRetries int) (int, error) {
	entries, err := m.store.List(ctx, queue.StatusError)
	if err != nil {
		return 0, err
	}
	requeued := 0
	for _, entry := range entries {
		if entry.Dismissed || entry.RetryCount >= maxRetries {
			continue
		}
		entry.Status = queue.StatusQueued
		if err := m.store.Update(ctx, entry); err != nil {
			return requeued, err
		}
		requeued++
	}
	return requeued, nil
}

// processEntry runs one entry through the full pipeline and persists every
// transition, so a crash mid-batch loses at most the current entry's work.
// Persistence and the rename itself run on a detached context: once a move
// has started it always completes and is always recorded.
func (m *Manager) processEntry(
	ctx context.Context,
	cfg *config.Config,
	reconciler *identification.Reconciler,
	org *organizer.Organizer,
	notifier notifications.Service,
	logger *slog.Logger,
	entry *queue.Entry,
) queue.Status {
	persistCtx := context.WithoutCancel(ctx)

	entry.Status = queue.StatusProcessing
	entry.ErrorMessage = ""
	if err := m.store.Update(persistCtx, entry); err != nil {
		logger.Error("persist processing status failed",
			logging.Int64(logging.FieldEntryID, entry.ID),
			logging.Error(err),
		)
		return entry.Status
	}

	classification, input, err := m.classify(entry)
	if err != nil {
		return m.fail(persistCtx, notifier, logger, entry, err)
	}
	entry.StructuralTag = string(classification.Tag)

	var result identification.Result
	if needsReconciliation(classification.Tag) {
		hints := entry.Hints
		if strings.TrimSpace(hints.Title) == "" {
			hints = structure.ParseHints(input, classification.Tag)
			entry.Hints = hints
		}
		result = reconciler.Reconcile(ctx, hints)
		applyResult(cfg, entry, result)
		if result.Candidate != nil {
			rel, err := organizer.BuildDestination(cfg.Naming, entry.Proposal)
			if err != nil {
				return m.fail(persistCtx, notifier, logger, entry, err)
			}
			entry.Proposal.Path = rel
		}
	}

	outcome := decision.Decide(decision.Input{
		Classification: classification,
		Reconciliation: result,
		AutoFix:        cfg.Identify.AutoFix,
		WellFormed:     m.wellFormed(cfg, entry, classification),
	})

	if outcome.Status == queue.StatusApplied {
		if _, err := org.Apply(persistCtx, entry); err != nil {
			return m.fail(persistCtx, notifier, logger, entry, err)
		}
	}

	entry.Status = outcome.Status
	entry.Rationale = outcome.Reason
	if outcome.Status == queue.StatusError {
		entry.ErrorMessage = outcome.Reason
		entry.RetryCount++
	}
	if outcome.Status == queue.StatusPendingApproval {
		if err := notifier.PendingReview(persistCtx, filepath.Base(entry.SourcePath), entry.Proposal.Path); err != nil {
			logger.Warn("review notification failed", logging.Error(err))
		}
	}
	if err := m.store.Update(persistCtx, entry); err != nil {
		logger.Error("persist entry outcome failed",
			logging.Int64(logging.FieldEntryID, entry.ID),
			logging.Error(err),
		)
	}

	logger.Debug("entry processed",
		logging.Int64(logging.FieldEntryID, entry.ID),
		logging.String(logging.FieldPath, entry.SourcePath),
		logging.String("structural_tag", entry.StructuralTag),
		logging.String(logging.FieldStatus, string(entry.Status)),
	)
	return entry.Status
}

// needsReconciliation reports whether a tag's entries go through metadata
// lookup at all. Only terminal containers are decided on shape alone;
// reversed structures are reconciled with their swapped hints so the review
// item carries a concrete proposal.
func needsReconciliation(tag structure.Tag) bool {
	return !tag.Terminal()
}

// applyResult copies the reconciliation verdict onto the entry, falling back
// to path hints for fields the winning candidate does not carry.
func applyResult(cfg *config.Config, entry *queue.Entry, result identification.Result) {
	entry.ConfidenceTier = result.Tier
	entry.Rationale = result.Rationale
	if result.Candidate == nil {
		return
	}
	candidate := result.Candidate
	entry.MatchSource = candidate.Source
	entry.Similarity = candidate.Similarity
	entry.Proposal = queue.Proposal{
		Author:    candidate.Author,
		Title:     candidate.Title,
		Series:    fallback(candidate.Series, entry.Hints.Series),
		SeriesPos: fallback(candidate.SeriesPos, entry.Hints.SeriesPos),
		Narrator:  fallback(candidate.Narrator, entry.Hints.Narrator),
		Year:      candidate.Year,
	}
	if entry.Proposal.Year == 0 {
		entry.Proposal.Year = entry.Hints.Year
	}
	if !cfg.Naming.IncludeNarrator {
		entry.Proposal.Narrator = ""
	}
}

func fallback(primary, secondary string) string {
	if strings.TrimSpace(primary) != "" {
		return primary
	}
	return secondary
}

func (m *Manager) fail(ctx context.Context, notifier notifications.Service, logger *slog.Logger, entry *queue.Entry, failure error) queue.Status {
	status := services.FailureStatus(failure)
	entry.Status = status
	entry.ErrorMessage = failure.Error()
	if status == queue.StatusError {
		entry.RetryCount++
		if err := notifier.Error(ctx, filepath.Base(entry.SourcePath), failure); err != nil {
			logger.Warn("error notification failed", logging.Error(err))
		}
	}
	if err := m.store.Update(ctx, entry); err != nil {
		logger.Error("persist failure status failed",
			logging.Int64(logging.FieldEntryID, entry.ID),
			logging.Error(err),
		)
	}
	logger.Warn("entry failed",
		logging.Int64(logging.FieldEntryID, entry.ID),
		logging.String(logging.FieldPath, entry.SourcePath),
		logging.String(logging.FieldStatus, string(status)),
		logging.Error(failure),
	)
	return status
}

// classify re-derives the structural classification from the filesystem at
// processing time, so a folder reorganized between scan and batch is judged
// on its current shape.
func (m *Manager) classify(entry *queue.Entry) (structure.Classification, structure.Input, error) {
	var input structure.Input

	rel, err := filepath.Rel(entry.LibraryRoot, entry.SourcePath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return structure.Classification{}, input, services.Wrap(
			services.ErrValidation, "classifying", "resolve path",
			fmt.Sprintf("source %q is not under root %q", entry.SourcePath, entry.LibraryRoot), err)
	}
	input.Segments = strings.Split(rel, string(filepath.Separator))

	info, err := os.Stat(entry.SourcePath)
	if err != nil {
		return structure.Classification{}, input, services.Wrap(
			services.ErrIOFailure, "classifying", "stat source", "source path unavailable", err)
	}
	input.IsDir = info.IsDir()
	if input.IsDir {
		if children, err := os.ReadDir(entry.SourcePath); err == nil {
			for _, child := range children {
				if child.IsDir() && !structure.SkipSegment(child.Name()) {
					input.ChildDirs = append(input.ChildDirs, child.Name())
				}
			}
		}
	}
	return structure.Classify(input), input, nil
}

// wellFormed reports whether the entry already sits exactly where its own
// hints would place it, meaning a no-match outcome is no cause for review.
func (m *Manager) wellFormed(cfg *config.Config, entry *queue.Entry, classification structure.Classification) bool {
	if entry.Kind != queue.KindFolder || classification.LowConfidence {
		return false
	}
	hints := entry.Hints
	want, err := organizer.BuildDestination(cfg.Naming, queue.Proposal{
		Author:    hints.Author,
		Title:     hints.Title,
		Series:    hints.Series,
		SeriesPos: hints.SeriesPos,
		Narrator:  hints.Narrator,
		Year:      hints.Year,
	})
	if err != nil {
		return false
	}
	current, err := filepath.Rel(entry.LibraryRoot, entry.SourcePath)
	if err != nil {
		return false
	}
	return current == want
}
