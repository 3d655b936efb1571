package policy

import (
	"strings"

	"github.com/spec-kit/hostres/internal/domain"
)

// ComputeDiff returns the fields of incoming whose value differs from current.
// String values are trimmed before comparison.
func ComputeDiff(current *domain.Issue, incoming domain.IssueChanges) domain.IssuePatch {
	var patch domain.IssuePatch
	if v, ok := changedString(current.Description, incoming.Description); ok {
		patch.Description = v
	}
	if v, ok := changedString(current.ConcernTo, incoming.ConcernTo); ok {
		patch.ConcernTo = v
	}
	if incoming.Status != nil && *incoming.Status != current.Status {
		status := *incoming.Status
		patch.Status = &status
	}
	if v, ok := changedString(current.Floor, incoming.Floor); ok {
		patch.Floor = v
	}
	if v, ok := changedString(current.HostelBlock, incoming.HostelBlock); ok {
		patch.HostelBlock = v
	}
	if incoming.IsPrivate != nil && *incoming.IsPrivate != current.IsPrivate {
		private := *incoming.IsPrivate
		patch.IsPrivate = &private
	}
	if incoming.Upvotes != nil && *incoming.Upvotes != current.Upvotes {
		upvotes := *incoming.Upvotes
		patch.Upvotes = &upvotes
	}
	return patch
}

// TrackResolution sets resolvedBy when the patch resolves the issue and clears it
// when the patch moves a resolved issue back.
func TrackResolution(patch domain.IssuePatch, current *domain.Issue, actorID string) domain.IssuePatch {
	if patch.Status == nil {
		return patch
	}
	switch {
	case *patch.Status == domain.IssueStatusResolved:
		actor := actorID
		patch.ResolvedBy = &actor
		patch.ClearResolved = false
	case current.Status == domain.IssueStatusResolved || current.ResolvedBy != nil:
		patch.ResolvedBy = nil
		patch.ClearResolved = true
	}
	return patch
}

func changedString(current string, incoming *string) (*string, bool) {
	if incoming == nil {
		return nil, false
	}
	v := strings.TrimSpace(*incoming)
	if v == current {
		return nil, false
	}
	return &v, true
}
