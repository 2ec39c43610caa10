package services

import (
	"errors"
	"fmt"
	"strings"

	"shelver/internal/queue"
)

var (
	// ErrLookupUnavailable marks a network or timeout failure on a metadata or
	// AI source. Never conflated with ErrNotFound: a down provider must not
	// read as "this book does not exist".
	ErrLookupUnavailable = errors.New("lookup unavailable")
	// ErrNotFound marks a deterministic "no such record" outcome.
	ErrNotFound = errors.New("not found")
	// ErrNoConfidentMatch marks a reconciliation that produced no candidate
	// clearing the filters. Safe to act on.
	ErrNoConfidentMatch = errors.New("no confident match")
	// ErrGarbageMatch marks a candidate filtered for insufficient overlap.
	ErrGarbageMatch = errors.New("garbage match")
	// ErrStructuralAmbiguity marks uncertain structure detection that must
	// degrade to review instead of a guess.
	ErrStructuralAmbiguity = errors.New("structural ambiguity")
	// ErrBoundaryViolation marks a destination outside the configured library
	// roots or above minimum depth.
	ErrBoundaryViolation = errors.New("boundary violation")
	// ErrDestinationConflict marks a non-empty destination that a rename
	// refuses to merge into.
	ErrDestinationConflict = errors.New("destination conflict")
	// ErrPathTooShallow marks a destination above the minimum author/title
	// depth, such as a move directly into the library root.
	ErrPathTooShallow = errors.New("path too shallow")
	// ErrIOFailure marks a rename-time filesystem error.
	ErrIOFailure = errors.New("io failure")

	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a processing error to the queue status the worker should
// persist after the entry fails.
func FailureStatus(err error) queue.Status {
	switch {
	case errors.Is(err, ErrNoConfidentMatch),
		errors.Is(err, ErrStructuralAmbiguity),
		errors.Is(err, ErrPathTooShallow),
		errors.Is(err, ErrValidation):
		return queue.StatusPendingApproval
	default:
		return queue.StatusError
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
