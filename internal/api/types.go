package api

import (
	"time"

	"shelver/internal/queue"
)

// timestampFormat is used for RFC3339 timestamps in JSON payloads.
const timestampFormat = "2006-01-02T15:04:05Z07:00"

// QueueItem is the transport representation of a queue entry.
type QueueItem struct {
	ID            int64   `json:"id"`
	SourcePath    string  `json:"sourcePath"`
	LibraryRoot   string  `json:"libraryRoot"`
	Kind          string  `json:"kind"`
	StructuralTag string  `json:"structuralTag,omitempty"`
	Status        string  `json:"status"`
	HintAuthor    string  `json:"hintAuthor,omitempty"`
	HintTitle     string  `json:"hintTitle,omitempty"`
	Author        string  `json:"author,omitempty"`
	Title         string  `json:"title,omitempty"`
	Series        string  `json:"series,omitempty"`
	SeriesPos     string  `json:"seriesPos,omitempty"`
	Narrator      string  `json:"narrator,omitempty"`
	Year          int     `json:"year,omitempty"`
	ProposedPath  string  `json:"proposedPath,omitempty"`
	MatchSource   string  `json:"matchSource,omitempty"`
	Similarity    float64 `json:"similarity,omitempty"`
	Tier          string  `json:"tier,omitempty"`
	Rationale     string  `json:"rationale,omitempty"`
	ErrorMessage  string  `json:"errorMessage,omitempty"`
	RetryCount    int     `json:"retryCount,omitempty"`
	Dismissed     bool    `json:"dismissed,omitempty"`
	CreatedAt     string  `json:"createdAt,omitempty"`
	UpdatedAt     string  `json:"updatedAt,omitempty"`
}

// FromEntry converts a queue entry to its transport shape.
func FromEntry(entry *queue.Entry) QueueItem {
	if entry == nil {
		return QueueItem{}
	}
	return QueueItem{
		ID:            entry.ID,
		SourcePath:    entry.SourcePath,
		LibraryRoot:   entry.LibraryRoot,
		Kind:          string(entry.Kind),
		StructuralTag: entry.StructuralTag,
		Status:        string(entry.Status),
		HintAuthor:    entry.Hints.Author,
		HintTitle:     entry.Hints.Title,
		Author:        entry.Proposal.Author,
		Title:         entry.Proposal.Title,
		Series:        entry.Proposal.Series,
		SeriesPos:     entry.Proposal.SeriesPos,
		Narrator:      entry.Proposal.Narrator,
		Year:          entry.Proposal.Year,
		ProposedPath:  entry.Proposal.Path,
		MatchSource:   entry.MatchSource,
		Similarity:    entry.Similarity,
		Tier:          entry.ConfidenceTier,
		Rationale:     entry.Rationale,
		ErrorMessage:  entry.ErrorMessage,
		RetryCount:    entry.RetryCount,
		Dismissed:     entry.Dismissed,
		CreatedAt:     formatTime(entry.CreatedAt),
		UpdatedAt:     formatTime(entry.UpdatedAt),
	}
}

// FromEntries converts a slice of queue entries.
func FromEntries(entries []*queue.Entry) []QueueItem {
	items := make([]QueueItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, FromEntry(entry))
	}
	return items
}

// HistoryItem is the transport representation of a rename history record.
type HistoryItem struct {
	ID           int64  `json:"id"`
	EntryID      int64  `json:"entryId"`
	OriginalPath string `json:"originalPath"`
	NewPath      string `json:"newPath"`
	AppliedAt    string `json:"appliedAt,omitempty"`
	UndoOf       *int64 `json:"undoOf,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Dismissed    bool   `json:"dismissed,omitempty"`
}

// FromHistory converts a history record to its transport shape.
func FromHistory(record *queue.History) HistoryItem {
	if record == nil {
		return HistoryItem{}
	}
	return HistoryItem{
		ID:           record.ID,
		EntryID:      record.EntryID,
		OriginalPath: record.OriginalPath,
		NewPath:      record.NewPath,
		AppliedAt:    formatTime(record.AppliedAt),
		UndoOf:       record.UndoOf,
		ErrorMessage: record.ErrorMessage,
		Dismissed:    record.Dismissed,
	}
}

// FromHistories converts a slice of history records.
func FromHistories(records []*queue.History) []HistoryItem {
	items := make([]HistoryItem, 0, len(records))
	for _, record := range records {
		items = append(items, FromHistory(record))
	}
	return items
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampFormat)
}
