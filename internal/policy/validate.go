package policy

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/hostres/internal/domain"
	apperrors "github.com/spec-kit/hostres/pkg/util"
)

// NewIssue holds the fields accepted on creation.
type NewIssue struct {
	Description string
	ConcernTo   string
	Status      domain.IssueStatus
	Floor       string
	HostelBlock string
	IsPrivate   bool
}

// Normalize trims input and applies defaults.
func (n NewIssue) Normalize() NewIssue {
	n.Description = strings.TrimSpace(n.Description)
	n.ConcernTo = strings.TrimSpace(n.ConcernTo)
	n.Floor = strings.TrimSpace(n.Floor)
	n.HostelBlock = strings.TrimSpace(n.HostelBlock)
	if n.Floor == "" {
		n.Floor = domain.DefaultFloor
	}
	if n.Status == "" {
		n.Status = domain.IssueStatusPending
	}
	return n
}

// ValidateNew checks a normalized creation payload.
func ValidateNew(n NewIssue) error {
	details := map[string]any{}
	if n.Description == "" {
		details[string(domain.FieldDescription)] = "Please provide issue description"
	} else if utf8.RuneCountInString(n.Description) > domain.MaxDescriptionLength {
		details[string(domain.FieldDescription)] = fmt.Sprintf("must be at most %d characters", domain.MaxDescriptionLength)
	}
	if n.ConcernTo == "" {
		details[string(domain.FieldConcernTo)] = "Please provide concerning authority"
	} else if utf8.RuneCountInString(n.ConcernTo) > domain.MaxConcernToLength {
		details[string(domain.FieldConcernTo)] = fmt.Sprintf("must be at most %d characters", domain.MaxConcernToLength)
	}
	if n.HostelBlock == "" {
		details[string(domain.FieldHostelBlock)] = "Please provide hostel block"
	}
	if !n.Status.Valid() {
		details[string(domain.FieldStatus)] = "must be one of pending, resolving, resolved"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError(validationMessage(details), details)
	}
	return nil
}

// ValidateChanges checks an incoming update before diffing.
func ValidateChanges(c domain.IssueChanges) error {
	if blank(c.Description) || blank(c.ConcernTo) {
		return apperrors.NewValidationError("Description or Concern fields cannot be empty", nil)
	}
	details := map[string]any{}
	if c.Description != nil && utf8.RuneCountInString(strings.TrimSpace(*c.Description)) > domain.MaxDescriptionLength {
		details[string(domain.FieldDescription)] = fmt.Sprintf("must be at most %d characters", domain.MaxDescriptionLength)
	}
	if c.ConcernTo != nil && utf8.RuneCountInString(strings.TrimSpace(*c.ConcernTo)) > domain.MaxConcernToLength {
		details[string(domain.FieldConcernTo)] = fmt.Sprintf("must be at most %d characters", domain.MaxConcernToLength)
	}
	if blank(c.Floor) {
		details[string(domain.FieldFloor)] = "cannot be empty"
	}
	if blank(c.HostelBlock) {
		details[string(domain.FieldHostelBlock)] = "cannot be empty"
	}
	if c.Status != nil && !c.Status.Valid() {
		details[string(domain.FieldStatus)] = "must be one of pending, resolving, resolved"
	}
	if c.Upvotes != nil && *c.Upvotes < 0 {
		details[string(domain.FieldUpvotes)] = "cannot be negative"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError(validationMessage(details), details)
	}
	return nil
}

func blank(v *string) bool {
	return v != nil && strings.TrimSpace(*v) == ""
}

func validationMessage(details map[string]any) string {
	for _, field := range []domain.IssueField{
		domain.FieldDescription, domain.FieldConcernTo, domain.FieldStatus,
		domain.FieldFloor, domain.FieldHostelBlock, domain.FieldUpvotes,
	} {
		if msg, ok := details[string(field)]; ok {
			if s, isString := msg.(string); isString && strings.HasPrefix(s, "Please") {
				return s
			}
			return fmt.Sprintf("%s %v", field, msg)
		}
	}
	return "invalid issue"
}
