package dto

import (
	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/policy"
)

// CreateIssueRequest payload. Discription is the legacy spelling of Description.
type CreateIssueRequest struct {
	Description string             `json:"description"`
	Discription string             `json:"discription"`
	ConcernTo   string             `json:"concernTo"`
	Status      domain.IssueStatus `json:"status"`
	Floor       string             `json:"floor"`
	HostelBlock string             `json:"hostelBlock"`
	IsPrivate   bool               `json:"isPrivate"`
}

// ToNewIssue maps the request onto the creation input.
func (r CreateIssueRequest) ToNewIssue() policy.NewIssue {
	description := r.Description
	if description == "" {
		description = r.Discription
	}
	return policy.NewIssue{
		Description: description,
		ConcernTo:   r.ConcernTo,
		Status:      r.Status,
		Floor:       r.Floor,
		HostelBlock: r.HostelBlock,
		IsPrivate:   r.IsPrivate,
	}
}

// UpdateIssueRequest payload; absent fields are left unchanged.
type UpdateIssueRequest struct {
	Description *string             `json:"description"`
	Discription *string             `json:"discription"`
	ConcernTo   *string             `json:"concernTo"`
	Status      *domain.IssueStatus `json:"status"`
	Floor       *string             `json:"floor"`
	HostelBlock *string             `json:"hostelBlock"`
	IsPrivate   *bool               `json:"isPrivate"`
	Upvotes     *int                `json:"upvotes"`
}

// ToChanges maps the request onto issue changes.
func (r UpdateIssueRequest) ToChanges() domain.IssueChanges {
	description := r.Description
	if description == nil {
		description = r.Discription
	}
	return domain.IssueChanges{
		Description: description,
		ConcernTo:   r.ConcernTo,
		Status:      r.Status,
		Floor:       r.Floor,
		HostelBlock: r.HostelBlock,
		IsPrivate:   r.IsPrivate,
		Upvotes:     r.Upvotes,
	}
}

// IssueListQuery captures listing filters. Designation is accepted for
// compatibility but the caller's stored designation always applies.
type IssueListQuery struct {
	Type        string `query:"type"`
	Designation string `query:"designation"`
	Scope       string `query:"scope"`
}

// IssueResponse wraps a single issue.
type IssueResponse struct {
	Issue *domain.Issue `json:"issue"`
}

// IssueHistoryResponse lists audit entries.
type IssueHistoryResponse struct {
	History []domain.IssueHistory `json:"history"`
	Count   int                   `json:"count"`
}
