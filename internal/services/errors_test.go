package services

import (
	"errors"
	"testing"

	"shelver/internal/queue"
)

func TestWrapPreservesMarker(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrLookupUnavailable, "identifying", "openlibrary search", "request failed", cause)

	if !errors.Is(err, ErrLookupUnavailable) {
		t.Error("wrapped error lost its marker")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error lost its cause")
	}
	want := "lookup unavailable: identifying: openlibrary search: request failed: connection refused"
	if err.Error() != want {
		t.Errorf("Wrap() message = %q, want %q", err.Error(), want)
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "organizing", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Error("nil marker should default to ErrTransient")
	}
}

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want queue.Status
	}{
		{name: "no confident match", err: Wrap(ErrNoConfidentMatch, "identifying", "", "", nil), want: queue.StatusPendingApproval},
		{name: "structural ambiguity", err: ErrStructuralAmbiguity, want: queue.StatusPendingApproval},
		{name: "validation", err: ErrValidation, want: queue.StatusPendingApproval},
		{name: "path too shallow", err: Wrap(ErrPathTooShallow, "organizing", "", "", nil), want: queue.StatusPendingApproval},
		{name: "lookup unavailable", err: ErrLookupUnavailable, want: queue.StatusError},
		{name: "io failure", err: ErrIOFailure, want: queue.StatusError},
		{name: "plain error", err: errors.New("boom"), want: queue.StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailureStatus(tt.err); got != tt.want {
				t.Errorf("FailureStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
