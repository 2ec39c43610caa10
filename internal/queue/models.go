package queue

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a queue entry.
type Status string

const (
	// StatusQueued marks an entry awaiting processing.
	StatusQueued Status = "queued"
	// StatusProcessing marks an entry a worker is currently handling.
	StatusProcessing Status = "processing"
	// StatusPendingApproval marks an entry waiting for a manual accept/reject.
	StatusPendingApproval Status = "pending_approval"
	// StatusApplied marks an entry whose rename has been performed.
	StatusApplied Status = "applied"
	// StatusRejected marks an entry a user declined. No filesystem change.
	StatusRejected Status = "rejected"
	// StatusUndone marks an applied entry whose rename was reversed.
	StatusUndone Status = "undone"
	// StatusError marks an entry whose processing failed after retries.
	StatusError Status = "error"

	// Terminal classification statuses. These entries never carry processable
	// work but stay visible for manual override.
	StatusSkipped    Status = "skipped"
	StatusSeries     Status = "series"
	StatusCollection Status = "collection"
)

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusPendingApproval,
	StatusApplied,
	StatusRejected,
	StatusUndone,
	StatusError,
	StatusSkipped,
	StatusSeries,
	StatusCollection,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := statusSet[status]; !ok {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return status, nil
}

// AllStatuses returns every valid status in display order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// IsTerminal reports whether a status never transitions further without an
// explicit user action.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusUndone, StatusSkipped, StatusSeries, StatusCollection:
		return true
	default:
		return false
	}
}

// Kind identifies what kind of on-disk unit an entry refers to.
type Kind string

const (
	KindFolder    Kind = "folder"
	KindLooseFile Kind = "loose_file"
	KindEbook     Kind = "ebook"
)

// Hints holds the metadata parsed out of an entry's original path. Absent
// values are empty strings (or zero for the year).
type Hints struct {
	Author    string
	Title     string
	Series    string
	SeriesPos string
	Narrator  string
	Edition   string
	Year      int
}

// Proposal holds the reconciled metadata and destination for an entry.
type Proposal struct {
	Author    string
	Title     string
	Series    string
	SeriesPos string
	Narrator  string
	Year      int
	// Path is the destination relative to the entry's library root.
	Path string
}

// Empty reports whether the proposal carries no reconciled metadata.
func (p Proposal) Empty() bool {
	return p.Author == "" && p.Title == "" && p.Path == ""
}

// Entry is one unit of identification and rename work.
type Entry struct {
	ID            int64
	SourcePath    string
	LibraryRoot   string
	Kind          Kind
	StructuralTag string
	Status        Status

	Hints    Hints
	Proposal Proposal

	MatchSource    string
	Similarity     float64
	ConfidenceTier string
	Rationale      string

	ErrorMessage string
	RetryCount   int
	Dismissed    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// History is an immutable audit record of an applied or attempted rename.
type History struct {
	ID           int64
	EntryID      int64
	OriginalPath string
	NewPath      string
	AppliedAt    time.Time
	UndoOf       *int64
	ErrorMessage string
	Dismissed    bool
}
