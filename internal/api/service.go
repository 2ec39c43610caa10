// Package api is the control facade over the engine: scanning and enqueueing,
// queue snapshots, manual accept/reject decisions, undo, batch triggers, and
// error dismissal. The CLI talks only to this package, never to the stores or
// the organizer directly.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shelver/internal/config"
	"shelver/internal/logging"
	"shelver/internal/organizer"
	"shelver/internal/queue"
	"shelver/internal/scanner"
	"shelver/internal/services"
	"shelver/internal/workflow"
)

// Decision is a manual verdict on a pending entry.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision validates a raw decision string.
func ParseDecision(raw string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(raw))) {
	case DecisionAccept:
		return DecisionAccept, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", fmt.Errorf("unknown decision %q", raw)
	}
}

// ScanSummary reports what one library scan enqueued.
type ScanSummary struct {
	Scanned int
	Added   int
	Updated int
}

// Service wires the engine's operations together for the control layer.
type Service struct {
	cfg       *config.Config
	store     *queue.Store
	manager   *workflow.Manager
	tagReader scanner.TagReader
	logger    *slog.Logger
}

// Option configures optional Service behavior.
type Option func(*Service)

// WithTagReader attaches an embedded-tag reader used as a best-effort hint
// source during scans.
func WithTagReader(reader scanner.TagReader) Option {
	return func(s *Service) { s.tagReader = reader }
}

// NewService constructs the facade. manager may be nil when no worker is
// wired, in which case RunBatch fails with a configuration error.
func NewService(cfg *config.Config, store *queue.Store, manager *workflow.Manager, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Service{
		cfg:     cfg,
		store:   store,
		manager: manager,
		logger:  logging.NewComponentLogger(logger, "api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks the library roots and enqueues every discovered item. Paths
// already tracked are left alone unless deep is set, in which case queued
// entries pick up freshly parsed hints.
func (s *Service) Scan(ctx context.Context, deep bool) (ScanSummary, error) {
	items, err := scanner.New(s.cfg.Paths.LibraryRoots, s.tagReader, s.logger).Scan(ctx)
	if err != nil {
		return ScanSummary{}, err
	}
	return s.EnqueueScanResults(ctx, items, deep)
}

// EnqueueScanResults records scan output in the queue.
func (s *Service) EnqueueScanResults(ctx context.Context, items []scanner.Item, deep bool) (ScanSummary, error) {
	summary := ScanSummary{Scanned: len(items)}
	for _, item := range items {
		existing, err := s.store.GetBySourcePath(ctx, item.SourcePath)
		if err != nil {
			return summary, err
		}
		if existing == nil {
			if _, err := s.store.Add(ctx, &queue.Entry{
				SourcePath:    item.SourcePath,
				LibraryRoot:   item.LibraryRoot,
				Kind:          item.Kind,
				StructuralTag: string(item.Classification.Tag),
				Hints:         item.Hints,
			}); err != nil {
				return summary, err
			}
			summary.Added++
			continue
		}
		if deep && refreshOnDeepScan(existing, item) {
			existing.Hints = item.Hints
			existing.StructuralTag = string(item.Classification.Tag)
			if existing.Status != queue.StatusQueued {
				existing.Status = queue.StatusQueued
			}
			if err := s.store.Update(ctx, existing); err != nil {
				return summary, err
			}
			summary.Updated++
		}
	}
	s.logger.Info("scan enqueued",
		logging.Bool("deep", deep),
		logging.Int("scanned", summary.Scanned),
		logging.Int("added", summary.Added),
		logging.Int("updated", summary.Updated),
	)
	return summary, nil
}

// refreshOnDeepScan reports whether a deep rescan should refresh a tracked
// entry. Queued entries always pick up fresh hints; entries parked by a
// structural classification go back to queued when the folder's shape no
// longer matches the tag that parked them.
func refreshOnDeepScan(existing *queue.Entry, item scanner.Item) bool {
	if existing.Status == queue.StatusQueued {
		return true
	}
	switch existing.Status {
	case queue.StatusSkipped, queue.StatusSeries, queue.StatusCollection:
		return existing.StructuralTag != string(item.Classification.Tag)
	default:
		return false
	}
}

// Snapshot returns queue entries, optionally filtered by status. Dismissed
// entries are excluded unless includeDismissed is set.
func (s *Service) Snapshot(ctx context.Context, includeDismissed bool, statuses ...queue.Status) ([]*queue.Entry, error) {
	entries, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	if includeDismissed {
		return entries, nil
	}
	filtered := entries[:0]
	for _, entry := range entries {
		if !entry.Dismissed {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

// Entry fetches one queue entry.
func (s *Service) Entry(ctx context.Context, id int64) (*queue.Entry, error) {
	entry, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "get entry", fmt.Sprintf("entry %d", id), nil)
	}
	return entry, nil
}

// Decide applies a manual verdict to a pending entry. Accepting performs the
// rename; rejecting records the refusal and touches nothing on disk.
func (s *Service) Decide(ctx context.Context, id int64, verdict Decision) (*queue.Entry, error) {
	entry, err := s.Entry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != queue.StatusPendingApproval {
		return nil, services.Wrap(services.ErrValidation, "api", "decide",
			fmt.Sprintf("entry %d is %s, not pending approval", id, entry.Status), nil)
	}

	switch verdict {
	case DecisionAccept:
		if entry.Proposal.Empty() || entry.Proposal.Path == "" {
			return nil, services.Wrap(services.ErrValidation, "api", "decide",
				fmt.Sprintf("entry %d has no proposal to apply", id), nil)
		}
		org := organizer.New(s.store, s.cfg.Paths.LibraryRoots, s.cfg.Naming.MinDepth, s.logger)
		if _, err := org.Apply(ctx, entry); err != nil {
			entry.Status = queue.StatusError
			entry.ErrorMessage = err.Error()
			if updateErr := s.store.Update(ctx, entry); updateErr != nil {
				s.logger.Error("persist decide failure", logging.Error(updateErr))
			}
			return nil, err
		}
		entry.Status = queue.StatusApplied
	case DecisionReject:
		entry.Status = queue.StatusRejected
	default:
		return nil, fmt.Errorf("unknown decision %q", verdict)
	}

	entry.ErrorMessage = ""
	if err := s.store.Update(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("manual decision applied",
		logging.Int64(logging.FieldEntryID, entry.ID),
		logging.String("decision", string(verdict)),
		logging.String(logging.FieldStatus, string(entry.Status)),
	)
	return entry, nil
}

// Undo reverses one applied rename by history record. The entry returns to
// undone status; the move back is itself recorded in history.
func (s *Service) Undo(ctx context.Context, historyID int64) (*queue.History, error) {
	org := organizer.New(s.store, s.cfg.Paths.LibraryRoots, s.cfg.Naming.MinDepth, s.logger)
	record, err := org.Undo(ctx, historyID)
	if err != nil {
		return nil, err
	}

	entry, err := s.store.GetByID(ctx, record.EntryID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		entry.Status = queue.StatusUndone
		if err := s.store.Update(ctx, entry); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// RunBatch triggers one worker batch and reports its summary.
func (s *Service) RunBatch(ctx context.Context) (workflow.BatchSummary, error) {
	if s.manager == nil {
		return workflow.BatchSummary{}, services.Wrap(services.ErrConfiguration, "api", "run batch", "no worker configured", nil)
	}
	return s.manager.RunBatch(ctx)
}

// Retry requeues errored entries for another attempt, resetting their retry
// budget.
func (s *Service) Retry(ctx context.Context, ids ...int64) (int64, error) {
	return s.store.RetryErrored(ctx, ids...)
}

// DismissError hides an errored entry from default snapshots without
// deleting it.
func (s *Service) DismissError(ctx context.Context, id int64) error {
	return s.store.DismissError(ctx, id)
}

// History lists recent rename history, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*queue.History, error) {
	return s.store.ListHistory(ctx, limit)
}

// HistoryForEntry lists the rename history of one entry.
func (s *Service) HistoryForEntry(ctx context.Context, entryID int64) ([]*queue.History, error) {
	return s.store.HistoryForEntry(ctx, entryID)
}

// Stats returns entry counts keyed by status.
func (s *Service) Stats(ctx context.Context) (map[queue.Status]int, error) {
	return s.store.Stats(ctx)
}
