package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/hostres/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueUpdated       EventType = "issue_updated"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueUpvoted       EventType = "issue_upvoted"
	EventIssueDeleted       EventType = "issue_deleted"
)

// AllIssueEvents lists every issue event type.
var AllIssueEvents = []EventType{
	EventIssueCreated,
	EventIssueUpdated,
	EventIssueStatusChanged,
	EventIssueUpvoted,
	EventIssueDeleted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	IssueID   string    `json:"issueId"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, issueID string, actor domain.Identity, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		IssueID:   issueID,
		Actor:     Actor{UserID: actor.UserID, Role: actor.Role},
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	ConcernTo   string `json:"concernTo"`
	Floor       string `json:"floor"`
	HostelBlock string `json:"hostelBlock"`
	IsPrivate   bool   `json:"isPrivate"`
}

// IssueUpdatedPayload carries the applied diff.
type IssueUpdatedPayload struct {
	Changes map[string]any `json:"changes"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"oldStatus"`
	NewStatus domain.IssueStatus `json:"newStatus"`
	ConcernTo string             `json:"concernTo"`
	CreatedBy string             `json:"createdBy"`
}

// IssueUpvotedPayload payload.
type IssueUpvotedPayload struct {
	Upvotes int `json:"upvotes"`
}

// IssueDeletedPayload payload.
type IssueDeletedPayload struct {
	ConcernTo string `json:"concernTo"`
}
