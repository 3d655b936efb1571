package service

import (
	"context"
	"strings"
	"sync"

	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/repository"
	"github.com/spec-kit/hostres/internal/repository/memory"
)

type fakeUserRepo struct {
	*memory.Users
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{Users: memory.NewUsers()}
}

func (r *fakeUserRepo) add(name string, role domain.Role, designation string) domain.Identity {
	u := &domain.User{Name: name, Email: strings.ToLower(name) + "@hostel.edu", Role: role}
	if designation != "" {
		u.Designation = &designation
	}
	_ = r.Create(context.Background(), u)
	return domain.Identity{UserID: u.ID, Role: role}
}

// fakeIssueRepo counts store writes.
type fakeIssueRepo struct {
	*memory.Issues
	mu      sync.Mutex
	updates int
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{Issues: memory.NewIssues()}
}

func (r *fakeIssueRepo) Update(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	r.mu.Lock()
	r.updates++
	r.mu.Unlock()
	return r.Issues.Update(ctx, id, patch)
}

func (r *fakeIssueRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

type fakeHistoryRepo struct {
	*memory.History
}

func (r *fakeHistoryRepo) count(issueID string) int {
	entries, _ := r.ListByIssue(context.Background(), issueID)
	return len(entries)
}

var _ repository.IssueRepository = (*fakeIssueRepo)(nil)
