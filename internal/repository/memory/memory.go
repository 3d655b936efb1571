// Package memory implements the repository interfaces in process. It backs the
// API when no Postgres DSN is configured and in handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/policy"
	"github.com/spec-kit/hostres/internal/repository"
)

var (
	_ repository.UserRepository         = (*Users)(nil)
	_ repository.IssueRepository        = (*Issues)(nil)
	_ repository.IssueHistoryRepository = (*History)(nil)
)

// Users stores accounts keyed by id.
type Users struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUsers returns an empty store.
func NewUsers() *Users {
	return &Users{users: map[string]domain.User{}}
}

func (r *Users) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailTaken
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *Users) GetByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

// Issues stores issues keyed by id.
type Issues struct {
	mu     sync.RWMutex
	issues map[string]domain.Issue
	now    func() time.Time
	last   time.Time
}

// NewIssues returns an empty store.
func NewIssues() *Issues {
	return &Issues{issues: map[string]domain.Issue{}, now: time.Now}
}

// tick returns a strictly increasing timestamp so creation order is stable.
func (r *Issues) tick() time.Time {
	t := r.now().UTC()
	if !t.After(r.last) {
		t = r.last.Add(time.Microsecond)
	}
	r.last = t
	return t
}

func (r *Issues) Create(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue.ID = uuid.NewString()
	issue.CreatedAt = r.tick()
	issue.UpdatedAt = issue.CreatedAt
	r.issues[issue.ID] = cloneIssue(*issue)
	return nil
}

func (r *Issues) Find(_ context.Context, scope policy.Scope) ([]domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Issue{}
	for _, issue := range r.issues {
		issue := issue
		if scope.Match(&issue) {
			out = append(out, cloneIssue(issue))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *Issues) FindOne(ctx context.Context, scope policy.Scope) (*domain.Issue, error) {
	found, err := r.Find(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &found[0], nil
}

func (r *Issues) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	return r.FindOne(ctx, policy.Scope{policy.WithID(id)})
}

func (r *Issues) Update(_ context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	patch.Apply(&issue)
	issue.UpdatedAt = r.tick()
	r.issues[id] = issue
	out := cloneIssue(issue)
	return &out, nil
}

func (r *Issues) Delete(_ context.Context, scope policy.Scope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for id, issue := range r.issues {
		issue := issue
		if scope.Match(&issue) {
			delete(r.issues, id)
			deleted++
		}
	}
	if deleted == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func cloneIssue(issue domain.Issue) domain.Issue {
	if issue.ResolvedBy != nil {
		resolver := *issue.ResolvedBy
		issue.ResolvedBy = &resolver
	}
	return issue
}

// History stores audit entries in insertion order.
type History struct {
	mu      sync.RWMutex
	entries []domain.IssueHistory
}

// NewHistory returns an empty store.
func NewHistory() *History {
	return &History{}
}

func (r *History) Create(_ context.Context, entry *domain.IssueHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *History) ListByIssue(_ context.Context, issueID string) ([]domain.IssueHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.IssueHistory{}
	for _, e := range r.entries {
		if e.IssueID == issueID {
			out = append(out, e)
		}
	}
	return out, nil
}
