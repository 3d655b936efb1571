package policy

import (
	"fmt"

	"github.com/spec-kit/hostres/internal/domain"
	apperrors "github.com/spec-kit/hostres/pkg/util"
)

// Relation describes how a caller relates to a specific issue.
type Relation string

const (
	RelationOwner    Relation = "owner"
	RelationResolver Relation = "resolver"
	RelationOther    Relation = "other"
)

// RelationOf classifies the caller against the issue. Ownership wins over designation.
func RelationOf(identity domain.Identity, designation string, issue *domain.Issue) Relation {
	switch {
	case issue.CreatedBy == identity.UserID:
		return RelationOwner
	case identity.IsResolver() && designation != "" && issue.ConcernTo == designation:
		return RelationResolver
	default:
		return RelationOther
	}
}

var ownerFields = map[domain.IssueField]bool{
	domain.FieldDescription: true,
	domain.FieldConcernTo:   true,
	domain.FieldFloor:       true,
	domain.FieldHostelBlock: true,
	domain.FieldIsPrivate:   true,
}

// FieldPolicy is a permission table keyed by (relation, field).
type FieldPolicy struct {
	name    string
	allowed map[Relation]map[domain.IssueField]bool
	// strict mode: upvotes may only move by +1 and owners edit only before resolution
	strict bool
}

// Permissive allows owners to edit every field and lets any authenticated caller
// write status and upvotes.
func Permissive() FieldPolicy {
	anyone := map[domain.IssueField]bool{
		domain.FieldStatus:  true,
		domain.FieldUpvotes: true,
	}
	owner := map[domain.IssueField]bool{}
	for f := range ownerFields {
		owner[f] = true
	}
	for f := range anyone {
		owner[f] = true
	}
	return FieldPolicy{
		name: "permissive",
		allowed: map[Relation]map[domain.IssueField]bool{
			RelationOwner:    owner,
			RelationResolver: anyone,
			RelationOther:    anyone,
		},
	}
}

// Strict restricts status to the resolver the issue is routed to and upvotes to
// single increments.
func Strict() FieldPolicy {
	owner := map[domain.IssueField]bool{domain.FieldUpvotes: true}
	for f := range ownerFields {
		owner[f] = true
	}
	return FieldPolicy{
		name:   "strict",
		strict: true,
		allowed: map[Relation]map[domain.IssueField]bool{
			RelationOwner:    owner,
			RelationResolver: {domain.FieldStatus: true},
			RelationOther:    {domain.FieldUpvotes: true},
		},
	}
}

// PolicyByName resolves a configured preset.
func PolicyByName(name string) (FieldPolicy, error) {
	switch name {
	case "", "permissive":
		return Permissive(), nil
	case "strict":
		return Strict(), nil
	}
	return FieldPolicy{}, fmt.Errorf("unknown field policy %q", name)
}

// Name returns the preset name.
func (p FieldPolicy) Name() string {
	return p.name
}

// Allows reports whether the relation may write the field.
func (p FieldPolicy) Allows(rel Relation, field domain.IssueField) bool {
	return p.allowed[rel][field]
}

// Authorize checks every field of the patch. Owner-only fields written by anyone
// else fail with NotFound so the issue's existence is not confirmed.
func (p FieldPolicy) Authorize(rel Relation, patch domain.IssuePatch, current *domain.Issue) error {
	for _, field := range patch.Fields() {
		if field == domain.FieldResolvedBy {
			continue
		}
		if !p.Allows(rel, field) {
			if ownerFields[field] && rel != RelationOwner {
				return apperrors.NewNotFound(fmt.Sprintf("No issue found with id %s", current.ID))
			}
			return apperrors.NewForbidden(fmt.Sprintf("not allowed to change %s", field))
		}
		if !p.strict {
			continue
		}
		if field == domain.FieldUpvotes && *patch.Upvotes != current.Upvotes+1 {
			return apperrors.NewForbidden("upvotes can only increase by one")
		}
		if ownerFields[field] && current.Status == domain.IssueStatusResolved {
			return apperrors.NewValidationError("resolved issues cannot be edited", nil)
		}
	}
	return nil
}
