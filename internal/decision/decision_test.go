package decision_test

import (
	"testing"

	"shelver/internal/decision"
	"shelver/internal/identification"
	"shelver/internal/metadata"
	"shelver/internal/queue"
	"shelver/internal/structure"
)

func candidate(author, title string, similarity float64) *metadata.Candidate {
	return &metadata.Candidate{Source: "openlibrary", Author: author, Title: title, Similarity: similarity}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		in   decision.Input
		want queue.Status
	}{
		{
			name: "system skip is terminal",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagSystemSkip},
			},
			want: queue.StatusSkipped,
		},
		{
			name: "series container is terminal",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagSeriesContainer},
			},
			want: queue.StatusSeries,
		},
		{
			name: "collection is terminal",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagMultiBookCollection},
			},
			want: queue.StatusCollection,
		},
		{
			name: "reversed always reviewed",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagReversed},
				Reconciliation: identification.Result{
					Candidate:   candidate("Dmitry Glukhovsky", "Metro 2033", 1.0),
					Tier:        identification.TierAuto,
					MinorChange: true,
				},
				AutoFix: true,
			},
			want: queue.StatusPendingApproval,
		},
		{
			name: "drastic author change overrides auto fix",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagStandard},
				Reconciliation: identification.Result{
					Candidate:           candidate("Paul Sussman", "The Hollow Man", 0.85),
					Tier:                identification.TierReview,
					DrasticAuthorChange: true,
				},
				AutoFix: true,
			},
			want: queue.StatusPendingApproval,
		},
		{
			name: "minor change applied without auto fix",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagStandard},
				Reconciliation: identification.Result{
					Candidate:   candidate("Steven Boyett", "Ariel", 1.0),
					Tier:        identification.TierAuto,
					MinorChange: true,
				},
				AutoFix: false,
			},
			want: queue.StatusApplied,
		},
		{
			name: "auto tier applied with auto fix",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagStandard},
				Reconciliation: identification.Result{
					Candidate: candidate("Frank Herbert", "Dune", 0.9),
					Tier:      identification.TierAuto,
				},
				AutoFix: true,
			},
			want: queue.StatusApplied,
		},
		{
			name: "auto tier pends without auto fix",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagStandard},
				Reconciliation: identification.Result{
					Candidate: candidate("Frank Herbert", "Dune", 0.9),
					Tier:      identification.TierAuto,
				},
				AutoFix: false,
			},
			want: queue.StatusPendingApproval,
		},
		{
			name: "uncertain structure never auto applies",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagStandard, LowConfidence: true, Reason: "no author folder above title"},
				Reconciliation: identification.Result{
					Candidate: candidate("Frank Herbert", "Dune", 0.9),
					Tier:      identification.TierAuto,
				},
				AutoFix: true,
			},
			want: queue.StatusPendingApproval,
		},
		{
			name: "no candidate with well formed name stays queued",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagStandard},
				Reconciliation: identification.Result{Tier: identification.TierRejected},
				AutoFix:        true,
				WellFormed:     true,
			},
			want: queue.StatusQueued,
		},
		{
			name: "no candidate otherwise pends",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagStandard},
				Reconciliation: identification.Result{Tier: identification.TierRejected},
			},
			want: queue.StatusPendingApproval,
		},
		{
			name: "sources unavailable becomes retryable error",
			in: decision.Input{
				Classification: structure.Classification{Tag: structure.TagStandard},
				Reconciliation: identification.Result{Tier: identification.TierReview, Unavailable: true},
				AutoFix:        true,
			},
			want: queue.StatusError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := decision.Decide(tc.in)
			if got.Status != tc.want {
				t.Fatalf("Decide() = %q (%s), want %q", got.Status, got.Reason, tc.want)
			}
		})
	}
}
