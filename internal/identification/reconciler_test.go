package identification_test

import (
	"context"
	"testing"

	"shelver/internal/identification"
	"shelver/internal/metadata"
	"shelver/internal/queue"
	"shelver/internal/services"
)

type stubSource struct {
	name       string
	candidates []metadata.Candidate
	err        error
	calls      int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Lookup(ctx context.Context, query metadata.Query) ([]metadata.Candidate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

type stubVerifier struct {
	verification identification.Verification
	err          error
	lastQuery    identification.VerifyQuery
}

func (v *stubVerifier) Verify(ctx context.Context, query identification.VerifyQuery) (identification.Verification, error) {
	v.lastQuery = query
	if v.err != nil {
		return identification.Verification{}, v.err
	}
	return v.verification, nil
}

func TestReconcileExactMatchIsAuto(t *testing.T) {
	source := &stubSource{
		name:       "local",
		candidates: []metadata.Candidate{{Source: "local", Author: "Steven Boyett", Title: "Ariel"}},
	}
	r := identification.NewReconciler([]metadata.Source{source})

	result := r.Reconcile(context.Background(), queue.Hints{Author: "Boyett", Title: "Ariel"})
	if result.Candidate == nil {
		t.Fatalf("expected a candidate, got %#v", result)
	}
	if result.Tier != identification.TierAuto {
		t.Fatalf("expected auto tier, got %q (%s)", result.Tier, result.Rationale)
	}
	if !result.MinorChange {
		t.Fatal("completing a surname to the full author name must count as a minor change")
	}
	if result.DrasticAuthorChange {
		t.Fatal("shared surname token must not read as a drastic change")
	}
}

func TestReconcileDrasticAuthorChangeNeverAuto(t *testing.T) {
	source := &stubSource{
		name:       "openlibrary",
		candidates: []metadata.Candidate{{Source: "openlibrary", Author: "Paul Sussman", Title: "The Hollow Man"}},
	}
	r := identification.NewReconciler([]metadata.Source{source})

	result := r.Reconcile(context.Background(), queue.Hints{Author: "Christopher Golden", Title: "The Hollow Man"})
	if result.Candidate == nil {
		t.Fatalf("expected a candidate, got %#v", result)
	}
	if !result.DrasticAuthorChange {
		t.Fatal("token-disjoint authors must be flagged drastic")
	}
	if result.Tier != identification.TierReview {
		t.Fatalf("drastic author change must demand review, got %q", result.Tier)
	}
}

func TestReconcilePlaceholderAuthorIsNotDrastic(t *testing.T) {
	source := &stubSource{
		name:       "local",
		candidates: []metadata.Candidate{{Source: "local", Author: "Andy Weir", Title: "The Martian"}},
	}
	r := identification.NewReconciler([]metadata.Source{source})

	result := r.Reconcile(context.Background(), queue.Hints{Author: "Unknown", Title: "The Martian"})
	if result.DrasticAuthorChange {
		t.Fatal("filling in a placeholder author must not count as drastic")
	}
	if result.Tier != identification.TierAuto {
		t.Fatalf("expected auto tier, got %q (%s)", result.Tier, result.Rationale)
	}
}

func TestReconcileGarbageFiltered(t *testing.T) {
	source := &stubSource{
		name:       "googlebooks",
		candidates: []metadata.Candidate{{Source: "googlebooks", Author: "Somebody Else", Title: "Entirely Different Words Here"}},
	}
	r := identification.NewReconciler([]metadata.Source{source})

	result := r.Reconcile(context.Background(), queue.Hints{Title: "The Hollow Man"})
	if result.Candidate != nil {
		t.Fatalf("garbage candidate must never surface, got %#v", result.Candidate)
	}
	if result.Tier != identification.TierRejected {
		t.Fatalf("expected rejected tier, got %q", result.Tier)
	}
}

func TestReconcileSimilarNotExactDivergingAuthorFiltered(t *testing.T) {
	source := &stubSource{
		name:       "openlibrary",
		candidates: []metadata.Candidate{{Source: "openlibrary", Author: "Paul Sussman", Title: "The Hollow Men Rise"}},
	}
	r := identification.NewReconciler([]metadata.Source{source})

	result := r.Reconcile(context.Background(), queue.Hints{Author: "Christopher Golden", Title: "The Hollow Men"})
	if result.Candidate != nil {
		t.Fatalf("near-duplicate title by an unrelated author must never surface, got %#v", result.Candidate)
	}
}

func TestReconcileAllSourcesDownIsUnknown(t *testing.T) {
	failed := services.Wrap(services.ErrLookupUnavailable, "identifying", "test", "down", nil)
	sources := []metadata.Source{
		&stubSource{name: "openlibrary", err: failed},
		&stubSource{name: "googlebooks", err: failed},
	}
	r := identification.NewReconciler(sources)

	result := r.Reconcile(context.Background(), queue.Hints{Author: "Frank Herbert", Title: "Dune"})
	if !result.Unavailable {
		t.Fatal("every source failing must report unavailable, not not-found")
	}
	if result.Tier == identification.TierRejected {
		t.Fatal("unknown must never be treated as a deterministic rejection")
	}
}

func TestReconcileUnsearchableTitleNeverQueried(t *testing.T) {
	source := &stubSource{name: "openlibrary"}
	r := identification.NewReconciler([]metadata.Source{source})

	result := r.Reconcile(context.Background(), queue.Hints{Title: "chapter1"})
	if result.Tier != identification.TierRejected {
		t.Fatalf("expected rejected tier, got %q", result.Tier)
	}
	if source.calls != 0 {
		t.Fatalf("unsearchable names must not be queried, got %d calls", source.calls)
	}
}

func TestReconcileShortCircuitSkipsLaterSources(t *testing.T) {
	first := &stubSource{
		name:       "local",
		candidates: []metadata.Candidate{{Source: "local", Author: "Frank Herbert", Title: "Dune"}},
	}
	second := &stubSource{name: "openlibrary"}
	r := identification.NewReconciler([]metadata.Source{first, second})

	result := r.Reconcile(context.Background(), queue.Hints{Author: "Frank Herbert", Title: "Dune"})
	if result.Tier != identification.TierAuto {
		t.Fatalf("expected auto tier, got %q", result.Tier)
	}
	if second.calls != 0 {
		t.Fatalf("later sources must not be queried after a confident match, got %d calls", second.calls)
	}
}

func TestReconcileVerifierFallback(t *testing.T) {
	source := &stubSource{name: "openlibrary"}
	verifier := &stubVerifier{
		verification: identification.Verification{
			Author:    "Andy Weir",
			Title:     "Project Hail Mary",
			Confident: true,
		},
	}
	r := identification.NewReconciler([]metadata.Source{source}, identification.WithVerifier(verifier))

	result := r.Reconcile(context.Background(), queue.Hints{Author: "A Weir", Title: "Project Hail Mary"})
	if result.Candidate == nil {
		t.Fatalf("expected the verifier candidate, got %#v", result)
	}
	if result.Candidate.Source != "llm" {
		t.Fatalf("expected llm source, got %q", result.Candidate.Source)
	}
	if verifier.lastQuery.OriginalTitle != "Project Hail Mary" {
		t.Fatalf("verifier received wrong query: %#v", verifier.lastQuery)
	}
}

func TestReconcileVerifierUnavailableDegrades(t *testing.T) {
	source := &stubSource{name: "openlibrary"}
	verifier := &stubVerifier{err: services.Wrap(services.ErrLookupUnavailable, "identifying", "ai verify", "down", nil)}
	r := identification.NewReconciler([]metadata.Source{source}, identification.WithVerifier(verifier))

	result := r.Reconcile(context.Background(), queue.Hints{Title: "Some Obscure Book"})
	if result.Candidate != nil {
		t.Fatalf("expected no candidate, got %#v", result.Candidate)
	}
	if result.Tier != identification.TierRejected {
		t.Fatalf("expected rejected tier, got %q", result.Tier)
	}
}
