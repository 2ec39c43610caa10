package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shelver/internal/fileutil"
	"shelver/internal/logging"
	"shelver/internal/queue"
	"shelver/internal/services"
)

// Organizer executes renames and undos against the library tree, recording
// every applied move in history before any queue status changes.
type Organizer struct {
	store    *queue.Store
	roots    []string
	minDepth int
	logger   *slog.Logger
}

// New constructs an organizer over the configured library roots.
func New(store *queue.Store, roots []string, minDepth int, logger *slog.Logger) *Organizer {
	if minDepth < 2 {
		minDepth = 2
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Organizer{
		store:    store,
		roots:    roots,
		minDepth: minDepth,
		logger:   logging.NewComponentLogger(logger, "organizer"),
	}
}

// Apply moves the entry to its proposed destination. The history record is
// persisted before the caller advances the entry status; after a crash the
// filesystem plus history are the source of truth and the queue status is
// advisory.
func (o *Organizer) Apply(ctx context.Context, entry *queue.Entry) (*queue.History, error) {
	if entry == nil || entry.Proposal.Empty() || entry.Proposal.Path == "" {
		return nil, services.Wrap(services.ErrValidation, "organizing", "apply", "entry has no destination proposal", nil)
	}

	destination, err := o.resolveDestination(entry.LibraryRoot, entry.Proposal.Path)
	if err != nil {
		return nil, err
	}

	source := entry.SourcePath
	info, err := os.Stat(source)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "organizing", "apply", "stat source", err)
	}
	target := destination
	if !info.IsDir() {
		// Loose files and ebooks keep their original filename inside the new
		// book folder.
		target = filepath.Join(destination, filepath.Base(source))
	}
	if filepath.Clean(source) == filepath.Clean(target) {
		return nil, services.Wrap(services.ErrValidation, "organizing", "apply", "entry already at destination", nil)
	}
	if err := o.ensureDestinationFree(target); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "organizing", "apply", "create destination parent", err)
	}
	if err := fileutil.MovePath(source, target); err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "organizing", "apply", fmt.Sprintf("move %s", source), err)
	}

	record, err := o.store.AddHistory(ctx, &queue.History{
		EntryID:      entry.ID,
		OriginalPath: source,
		NewPath:      target,
		AppliedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "organizing", "apply", "record history", err)
	}

	fileutil.RemoveEmptyParents(filepath.Dir(source), entry.LibraryRoot)
	o.logger.Info("applied rename",
		logging.Int64(logging.FieldEntryID, entry.ID),
		logging.String("from", source),
		logging.String("to", target),
	)
	return record, nil
}

// Undo reverses a previously applied rename. Each history record can be
// undone at most once; the reversal itself becomes a new history record
// pointing back at the original.
func (o *Organizer) Undo(ctx context.Context, historyID int64) (*queue.History, error) {
	record, err := o.store.HistoryByID(ctx, historyID)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "organizing", "undo", "load history", err)
	}
	if record == nil {
		return nil, services.Wrap(services.ErrNotFound, "organizing", "undo", fmt.Sprintf("history %d", historyID), nil)
	}
	if record.UndoOf != nil {
		return nil, services.Wrap(services.ErrValidation, "organizing", "undo", "cannot undo an undo record", nil)
	}
	if existing, err := o.store.UndoneOf(ctx, historyID); err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "organizing", "undo", "check undo state", err)
	} else if existing != nil {
		return nil, services.Wrap(services.ErrValidation, "organizing", "undo", "history already undone", nil)
	}

	if _, err := os.Stat(record.NewPath); err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "organizing", "undo", "renamed item no longer present", err)
	}
	if err := o.ensureDestinationFree(record.OriginalPath); err != nil {
		return nil, err
	}
	if _, err := o.rootFor(record.OriginalPath); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(record.OriginalPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "organizing", "undo", "create original parent", err)
	}
	if err := fileutil.MovePath(record.NewPath, record.OriginalPath); err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "organizing", "undo", fmt.Sprintf("move %s", record.NewPath), err)
	}

	undoID := record.ID
	reversal, err := o.store.AddHistory(ctx, &queue.History{
		EntryID:      record.EntryID,
		OriginalPath: record.NewPath,
		NewPath:      record.OriginalPath,
		AppliedAt:    time.Now().UTC(),
		UndoOf:       &undoID,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "organizing", "undo", "record history", err)
	}

	if root, rootErr := o.rootFor(record.NewPath); rootErr == nil {
		fileutil.RemoveEmptyParents(filepath.Dir(record.NewPath), root)
	}
	o.logger.Info("undid rename",
		logging.Int64(logging.FieldEntryID, record.EntryID),
		logging.String("from", record.NewPath),
		logging.String("to", record.OriginalPath),
	)
	return reversal, nil
}

// resolveDestination validates relPath against the boundary and depth rules
// and returns the absolute destination.
func (o *Organizer) resolveDestination(libraryRoot, relPath string) (string, error) {
	relPath = filepath.Clean(relPath)
	if relPath == "." || filepath.IsAbs(relPath) {
		return "", services.Wrap(services.ErrBoundaryViolation, "organizing", "validate destination", fmt.Sprintf("invalid relative path %q", relPath), nil)
	}
	if depth := len(strings.Split(relPath, string(filepath.Separator))); depth < o.minDepth {
		return "", services.Wrap(services.ErrPathTooShallow, "organizing", "validate destination", fmt.Sprintf("destination %q is shallower than %d segments", relPath, o.minDepth), nil)
	}

	absolute := filepath.Join(libraryRoot, relPath)
	if err := o.checkBoundary(libraryRoot, absolute); err != nil {
		return "", err
	}
	return absolute, nil
}

// checkBoundary resolves symlinks on the nearest existing ancestor and
// rejects any destination that escapes the library root.
func (o *Organizer) checkBoundary(libraryRoot, absolute string) error {
	resolvedRoot, err := filepath.EvalSymlinks(libraryRoot)
	if err != nil {
		return services.Wrap(services.ErrBoundaryViolation, "organizing", "validate destination", "resolve library root", err)
	}

	probe := absolute
	for {
		resolved, evalErr := filepath.EvalSymlinks(probe)
		if evalErr == nil {
			probe = resolved
			break
		}
		if !os.IsNotExist(evalErr) {
			return services.Wrap(services.ErrBoundaryViolation, "organizing", "validate destination", "resolve destination", evalErr)
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	if !within(resolvedRoot, probe) {
		return services.Wrap(services.ErrBoundaryViolation, "organizing", "validate destination", fmt.Sprintf("%s escapes library root %s", absolute, libraryRoot), nil)
	}
	return nil
}

// ensureDestinationFree rejects occupied destinations instead of merging,
// protecting narrator and edition variants from collapsing into one folder.
func (o *Organizer) ensureDestinationFree(target string) error {
	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return services.Wrap(services.ErrIOFailure, "organizing", "validate destination", "stat destination", err)
	}
	if info.IsDir() {
		entries, readErr := os.ReadDir(target)
		if readErr != nil {
			return services.Wrap(services.ErrIOFailure, "organizing", "validate destination", "read destination", readErr)
		}
		if len(entries) == 0 {
			return nil
		}
	}
	return services.Wrap(services.ErrDestinationConflict, "organizing", "validate destination", fmt.Sprintf("%s already exists", target), nil)
}

func (o *Organizer) rootFor(path string) (string, error) {
	for _, root := range o.roots {
		if within(root, path) {
			return root, nil
		}
	}
	return "", services.Wrap(services.ErrBoundaryViolation, "organizing", "validate destination", fmt.Sprintf("%s is outside every library root", path), nil)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
