// Package identification reconciles a scanned item's name hints against
// ranked metadata sources and decides how much to trust the best candidate.
package identification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shelver/internal/logging"
	"shelver/internal/metadata"
	"shelver/internal/queue"
	"shelver/internal/services"
	"shelver/internal/textutil"
)

// Confidence tiers assigned to a reconciliation result.
const (
	TierAuto     = "auto"
	TierReview   = "review"
	TierRejected = "rejected"
)

// Verification is the AI adapter's answer for one item.
type Verification struct {
	Author       string
	Title        string
	Series       string
	SeriesNumber string
	Confident    bool
}

// VerifyQuery carries the cleaned identity plus the candidates that were
// rejected but looked plausible, as context for the model.
type VerifyQuery struct {
	OriginalAuthor string
	OriginalTitle  string
	Candidates     []metadata.Candidate
}

// Verifier is the AI fallback consulted when no deterministic source
// produces a usable candidate. Implementations report unreachability via an
// error wrapping services.ErrLookupUnavailable.
type Verifier interface {
	Verify(ctx context.Context, query VerifyQuery) (Verification, error)
}

// Pacer throttles outbound lookups. The zero behavior (nil Pacer) performs
// no pacing.
type Pacer interface {
	Wait(ctx context.Context, source string) error
}

// Result is the reconciler's verdict for one item.
type Result struct {
	// Candidate is the chosen match, nil when nothing survived filtering.
	Candidate *metadata.Candidate
	// Tier is one of TierAuto, TierReview, TierRejected.
	Tier string
	// Rationale explains the verdict in one human-readable line.
	Rationale string
	// Unavailable is true when every consulted source failed, which must
	// never be read as "this book does not exist".
	Unavailable bool
	// DrasticAuthorChange marks a candidate whose author shares no tokens
	// with the original author hint.
	DrasticAuthorChange bool
	// MinorChange marks a candidate that keeps the author and matches the
	// title closely enough to be applied without review.
	MinorChange bool
}

// Reconciler runs the source cascade and filter pipeline.
type Reconciler struct {
	sources  []metadata.Source
	verifier Verifier
	pacer    Pacer
	policy   Policy
	timeout  time.Duration
	logger   *slog.Logger
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithVerifier installs the AI fallback.
func WithVerifier(v Verifier) Option {
	return func(r *Reconciler) { r.verifier = v }
}

// WithPacer installs an outbound rate gate.
func WithPacer(p Pacer) Option {
	return func(r *Reconciler) { r.pacer = p }
}

// WithPolicy overrides the default thresholds.
func WithPolicy(policy Policy) Option {
	return func(r *Reconciler) { r.policy = policy }
}

// WithLookupTimeout bounds each individual source call.
func WithLookupTimeout(timeout time.Duration) Option {
	return func(r *Reconciler) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithLogger attaches a logger for per-decision diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logging.NewComponentLogger(logger, "identification")
		}
	}
}

// NewReconciler builds a reconciler over the given sources, consulted in
// order.
func NewReconciler(sources []metadata.Source, opts ...Option) *Reconciler {
	r := &Reconciler{
		sources: sources,
		policy:  DefaultPolicy(),
		timeout: 15 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.policy = r.policy.normalized()
	return r
}

// Reconcile resolves the best metadata candidate for the supplied hints.
// Source failures are absorbed into the result; the only error-like outcome
// is Result.Unavailable.
func (r *Reconciler) Reconcile(ctx context.Context, hints queue.Hints) Result {
	title := strings.TrimSpace(hints.Title)
	if title == "" || textutil.IsUnsearchable(title) {
		return Result{
			Tier:      TierRejected,
			Rationale: fmt.Sprintf("name %q is not a searchable title", title),
		}
	}

	query := metadata.Query{Title: title, Author: strings.TrimSpace(hints.Author)}
	collected, failures := r.collect(ctx, query)

	if len(collected) == 0 && failures == len(r.sources) && len(r.sources) > 0 {
		return Result{
			Tier:        TierReview,
			Rationale:   "all metadata sources unavailable",
			Unavailable: true,
		}
	}

	survivors, rejected := r.filter(collected, query)
	if len(survivors) == 0 && r.verifier != nil {
		if aiCandidate, ok := r.consultVerifier(ctx, query, rejected); ok {
			aiSurvivors, _ := r.filter([]metadata.Candidate{aiCandidate}, query)
			survivors = aiSurvivors
		}
	}
	if len(survivors) == 0 {
		return Result{
			Tier:      TierRejected,
			Rationale: "no confident match",
		}
	}

	best := survivors[0]
	result := Result{Candidate: &best}
	result.DrasticAuthorChange = r.isDrasticAuthorChange(query.Author, best.Author)
	result.MinorChange = !result.DrasticAuthorChange &&
		best.Similarity >= r.policy.AutoApplySimilarity &&
		(query.Author == "" || textutil.SharesToken(query.Author, best.Author))

	switch {
	case result.DrasticAuthorChange:
		result.Tier = TierReview
		result.Rationale = fmt.Sprintf("author would change from %q to %q", query.Author, best.Author)
	case best.Similarity >= r.policy.AutoApplySimilarity && !best.AuthorDiverges:
		result.Tier = TierAuto
		result.Rationale = fmt.Sprintf("matched %q by %q via %s (similarity %.2f)", best.Title, best.Author, best.Source, best.Similarity)
	default:
		result.Tier = TierReview
		result.Rationale = fmt.Sprintf("uncertain match %q by %q via %s (similarity %.2f)", best.Title, best.Author, best.Source, best.Similarity)
	}

	r.logger.Debug("reconciled item",
		logging.String("title", title),
		logging.String(logging.FieldSource, best.Source),
		logging.Float64("similarity", best.Similarity),
		logging.String("tier", result.Tier),
	)
	return result
}

// collect queries every source in priority order, scoring candidates as they
// arrive and short-circuiting on an auto-apply-grade match. It returns the
// scored candidates plus the number of sources that failed outright.
func (r *Reconciler) collect(ctx context.Context, query metadata.Query) ([]metadata.Candidate, int) {
	var collected []metadata.Candidate
	failures := 0

	for priority, source := range r.sources {
		if ctx.Err() != nil {
			failures++
			continue
		}
		if r.pacer != nil {
			if err := r.pacer.Wait(ctx, source.Name()); err != nil {
				failures++
				continue
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		candidates, err := source.Lookup(callCtx, query)
		cancel()
		if err != nil {
			// A failed call means "unknown", never "not found".
			failures++
			r.logger.Warn("metadata source unavailable",
				logging.String(logging.FieldSource, source.Name()),
				logging.Error(err),
			)
			continue
		}

		shortCircuit := false
		for _, candidate := range candidates {
			scored := r.score(candidate, query, priority)
			collected = append(collected, scored)
			if scored.Similarity >= r.policy.AutoApplySimilarity && !scored.AuthorDiverges {
				shortCircuit = true
			}
		}
		if shortCircuit {
			break
		}
	}
	return collected, failures
}

func (r *Reconciler) score(candidate metadata.Candidate, query metadata.Query, priority int) metadata.Candidate {
	candidate.Author = textutil.NormalizePersonName(candidate.Author)
	candidate.Similarity = textutil.JaccardSimilarity(textutil.CleanTitle(candidate.Title), query.Title)
	candidate.Priority = priority
	candidate.AuthorDiverges = query.Author != "" &&
		!textutil.IsPlaceholderAuthor(query.Author) &&
		candidate.Author != "" &&
		!textutil.SharesToken(query.Author, candidate.Author)
	return candidate
}

// filter applies the rejection cascade and ranks the survivors by similarity
// descending, breaking ties toward earlier sources.
func (r *Reconciler) filter(candidates []metadata.Candidate, query metadata.Query) (survivors, rejected []metadata.Candidate) {
	floor := r.policy.GarbageSimilarity
	if len(textutil.TokenList(query.Title)) <= r.policy.ShortTitleTokens {
		floor = r.policy.LenientGarbageSimilarity
	}

	for _, candidate := range candidates {
		switch {
		case candidate.Similarity < floor:
			// Garbage match: logged, never surfaced as a suggestion.
			r.logger.Debug("discarded garbage candidate",
				logging.String(logging.FieldSource, candidate.Source),
				logging.String("candidate", candidate.Title),
				logging.Float64("similarity", candidate.Similarity),
			)
		case candidate.Similarity < 1.0 && candidate.AuthorDiverges:
			// Similar but not exact with a completely different author: the
			// dangerous near-duplicate case. Keep it only as AI context.
			rejected = append(rejected, candidate)
		default:
			survivors = append(survivors, candidate)
		}
	}

	for i := 1; i < len(survivors); i++ {
		for j := i; j > 0; j-- {
			a, b := survivors[j-1], survivors[j]
			if b.Similarity > a.Similarity || (b.Similarity == a.Similarity && b.Priority < a.Priority) {
				survivors[j-1], survivors[j] = b, a
				continue
			}
			break
		}
	}
	return survivors, rejected
}

func (r *Reconciler) consultVerifier(ctx context.Context, query metadata.Query, rejected []metadata.Candidate) (metadata.Candidate, bool) {
	verification, err := r.verifier.Verify(ctx, VerifyQuery{
		OriginalAuthor: query.Author,
		OriginalTitle:  query.Title,
		Candidates:     rejected,
	})
	if err != nil {
		if !errors.Is(err, services.ErrLookupUnavailable) {
			r.logger.Warn("ai verification failed", logging.Error(err))
		}
		return metadata.Candidate{}, false
	}
	if !verification.Confident || verification.Title == "" {
		return metadata.Candidate{}, false
	}
	candidate := metadata.Candidate{
		Source:    "llm",
		Author:    verification.Author,
		Title:     verification.Title,
		Series:    verification.Series,
		SeriesPos: verification.SeriesNumber,
	}
	return r.score(candidate, query, len(r.sources)), true
}

// isDrasticAuthorChange reports whether replacing original with proposed
// amounts to an author swap rather than a spelling or completeness fix.
// Placeholder authors are exempt: filling in "Unknown" is not a swap.
func (r *Reconciler) isDrasticAuthorChange(original, proposed string) bool {
	original = strings.TrimSpace(original)
	proposed = strings.TrimSpace(proposed)
	if original == "" || proposed == "" {
		return false
	}
	if textutil.IsPlaceholderAuthor(original) {
		return false
	}
	if strings.EqualFold(original, proposed) {
		return false
	}
	return textutil.TokenOverlapRatio(original, proposed) < r.policy.DrasticOverlapRatio
}
