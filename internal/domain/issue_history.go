package domain

import "time"

// IssueHistory is an immutable record of one applied patch.
type IssueHistory struct {
	ID        string         `json:"id"`
	IssueID   string         `json:"issueId"`
	ChangedBy string         `json:"changedBy"`
	Changes   map[string]any `json:"changes"`
	CreatedAt time.Time      `json:"createdAt"`
}
