package queue

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const entryColumns = "id, source_path, library_root, kind, structural_tag, status, " +
	"hint_author, hint_title, hint_series, hint_series_pos, hint_narrator, hint_edition, hint_year, " +
	"proposed_author, proposed_title, proposed_series, proposed_series_pos, proposed_narrator, proposed_year, proposed_path, " +
	"match_source, similarity, confidence_tier, rationale, " +
	"error_message, retry_count, dismissed, created_at, updated_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id             int64
		sourcePath     string
		libraryRoot    sql.NullString
		kind           sql.NullString
		structuralTag  sql.NullString
		statusStr      string
		hintAuthor     sql.NullString
		hintTitle      sql.NullString
		hintSeries     sql.NullString
		hintSeriesPos  sql.NullString
		hintNarrator   sql.NullString
		hintEdition    sql.NullString
		hintYear       sql.NullInt64
		propAuthor     sql.NullString
		propTitle      sql.NullString
		propSeries     sql.NullString
		propSeriesPos  sql.NullString
		propNarrator   sql.NullString
		propYear       sql.NullInt64
		propPath       sql.NullString
		matchSource    sql.NullString
		similarity     sql.NullFloat64
		confidenceTier sql.NullString
		rationale      sql.NullString
		errorMessage   sql.NullString
		retryCount     sql.NullInt64
		dismissed      sql.NullInt64
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&libraryRoot,
		&kind,
		&structuralTag,
		&statusStr,
		&hintAuthor,
		&hintTitle,
		&hintSeries,
		&hintSeriesPos,
		&hintNarrator,
		&hintEdition,
		&hintYear,
		&propAuthor,
		&propTitle,
		&propSeries,
		&propSeriesPos,
		&propNarrator,
		&propYear,
		&propPath,
		&matchSource,
		&similarity,
		&confidenceTier,
		&rationale,
		&errorMessage,
		&retryCount,
		&dismissed,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:            id,
		SourcePath:    sourcePath,
		LibraryRoot:   libraryRoot.String,
		Kind:          Kind(kind.String),
		StructuralTag: structuralTag.String,
		Status:        Status(statusStr),
		Hints: Hints{
			Author:    hintAuthor.String,
			Title:     hintTitle.String,
			Series:    hintSeries.String,
			SeriesPos: hintSeriesPos.String,
			Narrator:  hintNarrator.String,
			Edition:   hintEdition.String,
			Year:      int(hintYear.Int64),
		},
		Proposal: Proposal{
			Author:    propAuthor.String,
			Title:     propTitle.String,
			Series:    propSeries.String,
			SeriesPos: propSeriesPos.String,
			Narrator:  propNarrator.String,
			Year:      int(propYear.Int64),
			Path:      propPath.String,
		},
		MatchSource:    matchSource.String,
		Similarity:     similarity.Float64,
		ConfidenceTier: confidenceTier.String,
		Rationale:      rationale.String,
		ErrorMessage:   errorMessage.String,
		RetryCount:     int(retryCount.Int64),
		Dismissed:      dismissed.Int64 != 0,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}
