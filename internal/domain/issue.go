package domain

import "time"

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusPending   IssueStatus = "pending"
	IssueStatusResolving IssueStatus = "resolving"
	IssueStatusResolved  IssueStatus = "resolved"
)

// Valid reports whether s is one of the three lifecycle values.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusPending, IssueStatusResolving, IssueStatusResolved:
		return true
	}
	return false
}

const (
	MaxDescriptionLength = 40
	MaxConcernToLength   = 30
	DefaultFloor         = "G"
)

// Issue is a hostel complaint routed to a concern authority.
type Issue struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	ConcernTo   string      `json:"concernTo"`
	Status      IssueStatus `json:"status"`
	Floor       string      `json:"floor"`
	HostelBlock string      `json:"hostelBlock"`
	IsPrivate   bool        `json:"isPrivate"`
	Upvotes     int         `json:"upvotes"`
	CreatedBy   string      `json:"createdBy"`
	ResolvedBy  *string     `json:"resolvedBy"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// IssueField names a patchable issue attribute.
type IssueField string

const (
	FieldDescription IssueField = "description"
	FieldConcernTo   IssueField = "concernTo"
	FieldStatus      IssueField = "status"
	FieldFloor       IssueField = "floor"
	FieldHostelBlock IssueField = "hostelBlock"
	FieldIsPrivate   IssueField = "isPrivate"
	FieldUpvotes     IssueField = "upvotes"
	FieldResolvedBy  IssueField = "resolvedBy"
)

// IssueChanges carries incoming values; nil means "not supplied".
type IssueChanges struct {
	Description *string
	ConcernTo   *string
	Status      *IssueStatus
	Floor       *string
	HostelBlock *string
	IsPrivate   *bool
	Upvotes     *int
}

// IssuePatch is the set of fields whose incoming value differs from the stored one.
type IssuePatch struct {
	IssueChanges
	ResolvedBy    *string
	ClearResolved bool
}

// Fields lists the attributes present in the patch in a stable order.
func (p IssuePatch) Fields() []IssueField {
	var fields []IssueField
	if p.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if p.ConcernTo != nil {
		fields = append(fields, FieldConcernTo)
	}
	if p.Status != nil {
		fields = append(fields, FieldStatus)
	}
	if p.Floor != nil {
		fields = append(fields, FieldFloor)
	}
	if p.HostelBlock != nil {
		fields = append(fields, FieldHostelBlock)
	}
	if p.IsPrivate != nil {
		fields = append(fields, FieldIsPrivate)
	}
	if p.Upvotes != nil {
		fields = append(fields, FieldUpvotes)
	}
	if p.ResolvedBy != nil || p.ClearResolved {
		fields = append(fields, FieldResolvedBy)
	}
	return fields
}

// Empty reports whether applying the patch would change nothing.
func (p IssuePatch) Empty() bool {
	return len(p.Fields()) == 0
}

// Apply writes the patch onto the issue in place.
func (p IssuePatch) Apply(issue *Issue) {
	if p.Description != nil {
		issue.Description = *p.Description
	}
	if p.ConcernTo != nil {
		issue.ConcernTo = *p.ConcernTo
	}
	if p.Status != nil {
		issue.Status = *p.Status
	}
	if p.Floor != nil {
		issue.Floor = *p.Floor
	}
	if p.HostelBlock != nil {
		issue.HostelBlock = *p.HostelBlock
	}
	if p.IsPrivate != nil {
		issue.IsPrivate = *p.IsPrivate
	}
	if p.Upvotes != nil {
		issue.Upvotes = *p.Upvotes
	}
	if p.ClearResolved {
		issue.ResolvedBy = nil
	} else if p.ResolvedBy != nil {
		resolver := *p.ResolvedBy
		issue.ResolvedBy = &resolver
	}
}

// Changes renders the patch as a field → new value map for history entries.
func (p IssuePatch) Changes() map[string]any {
	out := make(map[string]any)
	if p.Description != nil {
		out[string(FieldDescription)] = *p.Description
	}
	if p.ConcernTo != nil {
		out[string(FieldConcernTo)] = *p.ConcernTo
	}
	if p.Status != nil {
		out[string(FieldStatus)] = *p.Status
	}
	if p.Floor != nil {
		out[string(FieldFloor)] = *p.Floor
	}
	if p.HostelBlock != nil {
		out[string(FieldHostelBlock)] = *p.HostelBlock
	}
	if p.IsPrivate != nil {
		out[string(FieldIsPrivate)] = *p.IsPrivate
	}
	if p.Upvotes != nil {
		out[string(FieldUpvotes)] = *p.Upvotes
	}
	if p.ClearResolved {
		out[string(FieldResolvedBy)] = nil
	} else if p.ResolvedBy != nil {
		out[string(FieldResolvedBy)] = *p.ResolvedBy
	}
	return out
}
