package client

import (
	"fmt"
	"time"
)

// Role is the account type sent as "type" on the wire.
type Role string

const (
	RoleStudent  Role = "student"
	RoleResolver Role = "resolver"
)

// Status values an issue moves through.
const (
	StatusPending   = "pending"
	StatusResolving = "resolving"
	StatusResolved  = "resolved"
)

// User is the public user summary.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        Role   `json:"type"`
	Designation string `json:"designation,omitempty"`
}

// Issue mirrors the server representation.
type Issue struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	ConcernTo   string    `json:"concernTo"`
	Status      string    `json:"status"`
	Floor       string    `json:"floor"`
	HostelBlock string    `json:"hostelBlock"`
	IsPrivate   bool      `json:"isPrivate"`
	Upvotes     int       `json:"upvotes"`
	CreatedBy   string    `json:"createdBy"`
	ResolvedBy  *string   `json:"resolvedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewIssue is the create payload.
type NewIssue struct {
	Description string `json:"description"`
	ConcernTo   string `json:"concernTo"`
	Status      string `json:"status,omitempty"`
	Floor       string `json:"floor,omitempty"`
	HostelBlock string `json:"hostelBlock"`
	IsPrivate   bool   `json:"isPrivate"`
}

// IssueUpdate carries the fields to change; nil fields are left alone.
type IssueUpdate struct {
	Description *string `json:"description,omitempty"`
	ConcernTo   *string `json:"concernTo,omitempty"`
	Status      *string `json:"status,omitempty"`
	Floor       *string `json:"floor,omitempty"`
	HostelBlock *string `json:"hostelBlock,omitempty"`
	IsPrivate   *bool   `json:"isPrivate,omitempty"`
}

// Registration is the sign-up payload.
type Registration struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Role        Role    `json:"type"`
	Designation *string `json:"designation,omitempty"`
}

// TokenInfo is the verified token payload returned by the check endpoint.
type TokenInfo struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Exp    int64  `json:"exp"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type authResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type issueEnvelope struct {
	Issue Issue `json:"issue"`
}

type issueList struct {
	Issues []Issue `json:"issues"`
	Count  int     `json:"count"`
}
