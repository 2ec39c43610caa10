// Package decision maps a structural classification plus a reconciliation
// verdict to the queue status an entry should take. It is the single gate
// between "we think we know what this book is" and "the filesystem changes".
package decision

import (
	"fmt"

	"shelver/internal/identification"
	"shelver/internal/queue"
	"shelver/internal/structure"
)

// Input is everything the policy needs for one entry.
type Input struct {
	Classification structure.Classification
	Reconciliation identification.Result
	// AutoFix is the operator's global auto-apply switch.
	AutoFix bool
	// WellFormed is true when the item already sits at a clean
	// author/title location matching its hints.
	WellFormed bool
}

// Outcome is the decided status with its reason.
type Outcome struct {
	Status queue.Status
	Reason string
}

// Decide applies the confidence policy. The hard rules, in order: terminal
// structural tags never reach reconciliation; reversed structures always
// demand review; a drastic author change always demands review no matter
// what any source or model claims; a minor change is always applied; only
// then does the auto-fix switch matter.
func Decide(in Input) Outcome {
	switch in.Classification.Tag {
	case structure.TagSystemSkip:
		return Outcome{Status: queue.StatusSkipped, Reason: in.Classification.Reason}
	case structure.TagSeriesContainer:
		return Outcome{Status: queue.StatusSeries, Reason: "series container, children are the books"}
	case structure.TagMultiBookCollection:
		return Outcome{Status: queue.StatusCollection, Reason: "multi-book collection needs a manual split"}
	}

	reversed := in.Classification.Tag == structure.TagReversed

	recon := in.Reconciliation
	if recon.Unavailable {
		return Outcome{Status: queue.StatusError, Reason: "metadata sources unavailable"}
	}
	if recon.Candidate == nil {
		if reversed {
			return Outcome{Status: queue.StatusPendingApproval, Reason: "author and title folders appear swapped; no confident match"}
		}
		if in.AutoFix && in.WellFormed {
			// Nothing confident to change and the item already looks right:
			// leave it alone rather than manufacturing review work.
			return Outcome{Status: queue.StatusQueued, Reason: "no confident match, name already well-formed"}
		}
		return Outcome{Status: queue.StatusPendingApproval, Reason: "no confident match"}
	}

	if reversed {
		// A swapped hierarchy is never silently corrected, however good the
		// match looks.
		return Outcome{Status: queue.StatusPendingApproval, Reason: fmt.Sprintf("author and title folders appear swapped (%s)", recon.Rationale)}
	}
	if recon.DrasticAuthorChange {
		return Outcome{Status: queue.StatusPendingApproval, Reason: recon.Rationale}
	}
	if recon.MinorChange && !in.Classification.LowConfidence {
		return Outcome{Status: queue.StatusApplied, Reason: recon.Rationale}
	}
	if in.AutoFix && recon.Tier == identification.TierAuto && !in.Classification.LowConfidence {
		return Outcome{Status: queue.StatusApplied, Reason: recon.Rationale}
	}

	reason := recon.Rationale
	if in.Classification.LowConfidence {
		reason = fmt.Sprintf("%s (structure uncertain: %s)", recon.Rationale, in.Classification.Reason)
	}
	return Outcome{Status: queue.StatusPendingApproval, Reason: reason}
}
