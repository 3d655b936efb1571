package client

import (
	"context"
	"sync"
)

// Board is a local cache of the issues visible to one session. Every mutation
// goes to the server first; the cache only changes when the call succeeds.
type Board struct {
	client  *Client
	session *Session

	mu     sync.RWMutex
	issues []Issue
}

// NewBoard binds a board to a session.
func NewBoard(c *Client, s *Session) *Board {
	return &Board{client: c, session: s}
}

// Issues returns a copy of the cached issues.
func (b *Board) Issues() []Issue {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Issue, len(b.issues))
	copy(out, b.issues)
	return out
}

// Refresh reloads the board from the server.
func (b *Board) Refresh(ctx context.Context) error {
	issues, err := b.client.ListIssues(ctx, b.session)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.issues = issues
	b.mu.Unlock()
	return nil
}

// Create files an issue and appends it to the board.
func (b *Board) Create(ctx context.Context, in NewIssue) (*Issue, error) {
	issue, err := b.client.CreateIssue(ctx, b.session, in)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.issues = append(b.issues, *issue)
	b.mu.Unlock()
	return issue, nil
}

// Update changes an issue and replaces the cached copy.
func (b *Board) Update(ctx context.Context, id string, in IssueUpdate) (*Issue, error) {
	issue, err := b.client.UpdateIssue(ctx, b.session, id, in)
	if err != nil {
		return nil, err
	}
	b.replace(*issue)
	return issue, nil
}

// Upvote adds one upvote and replaces the cached copy.
func (b *Board) Upvote(ctx context.Context, id string) (*Issue, error) {
	issue, err := b.client.UpvoteIssue(ctx, b.session, id)
	if err != nil {
		return nil, err
	}
	b.replace(*issue)
	return issue, nil
}

// Delete removes an issue from the server and then from the board.
func (b *Board) Delete(ctx context.Context, id string) error {
	if err := b.client.DeleteIssue(ctx, b.session, id); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.issues {
		if b.issues[i].ID == id {
			b.issues = append(b.issues[:i:i], b.issues[i+1:]...)
			break
		}
	}
	return nil
}

func (b *Board) replace(issue Issue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.issues {
		if b.issues[i].ID == issue.ID {
			b.issues[i] = issue
			return
		}
	}
}
