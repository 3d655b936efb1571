package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/events"
	"github.com/spec-kit/hostres/internal/policy"
	"github.com/spec-kit/hostres/internal/repository/memory"
	apperrors "github.com/spec-kit/hostres/pkg/util"
)

type issueFixture struct {
	svc      *IssueService
	issues   *fakeIssueRepo
	history  *fakeHistoryRepo
	users    *fakeUserRepo
	mu       sync.Mutex
	received []events.EventType
}

func newIssueFixture(t *testing.T, fields policy.FieldPolicy) *issueFixture {
	t.Helper()
	f := &issueFixture{
		issues:  newFakeIssueRepo(),
		history: &fakeHistoryRepo{History: memory.NewHistory()},
		users:   newFakeUserRepo(),
	}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range events.AllIssueEvents {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.received = append(f.received, e.Type)
			return nil
		})
	}
	f.svc = NewIssueService(IssueDependencies{
		IssueRepo:   f.issues,
		HistoryRepo: f.history,
		UserRepo:    f.users,
		Dispatcher:  dispatcher,
	}, fields, zap.NewNop())
	return f
}

func (f *issueFixture) events() []events.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.EventType{}, f.received...)
}

func (f *issueFixture) create(t *testing.T, caller domain.Identity, in policy.NewIssue) *domain.Issue {
	t.Helper()
	issue, err := f.svc.Create(context.Background(), caller, in)
	require.NoError(t, err)
	return issue
}

func faucet() policy.NewIssue {
	return policy.NewIssue{Description: "Leaky faucet", ConcernTo: "plumbing", Floor: "2", HostelBlock: "A"}
}

func statusPtr(s domain.IssueStatus) *domain.IssueStatus { return &s }

func TestIssueLifecycleScenario(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	s1 := f.users.add("Asha", domain.RoleStudent, "")
	s2 := f.users.add("Bilal", domain.RoleStudent, "")
	ctx := context.Background()

	issue := f.create(t, s1, faucet())
	assert.Equal(t, domain.IssueStatusPending, issue.Status)
	assert.Nil(t, issue.ResolvedBy)
	assert.Equal(t, 0, issue.Upvotes)
	assert.Equal(t, s1.UserID, issue.CreatedBy)

	updated, err := f.svc.Update(ctx, issue.ID, s2, domain.IssueChanges{Status: statusPtr(domain.IssueStatusResolved)})
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedBy)
	assert.Equal(t, s2.UserID, *updated.ResolvedBy)

	err = f.svc.Delete(ctx, issue.ID, s2)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	require.NoError(t, f.svc.Delete(ctx, issue.ID, s1))
	_, err = f.svc.Get(ctx, issue.ID, s1)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	assert.Equal(t, []events.EventType{
		events.EventIssueCreated,
		events.EventIssueStatusChanged,
		events.EventIssueUpdated,
		events.EventIssueDeleted,
	}, f.events())
}

func TestListScopes(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	s1 := f.users.add("Asha", domain.RoleStudent, "")
	s2 := f.users.add("Bilal", domain.RoleStudent, "")
	plumber := f.users.add("Ravi", domain.RoleResolver, "plumbing")
	electrician := f.users.add("Esha", domain.RoleResolver, "electrical")

	first := f.create(t, s1, faucet())
	f.create(t, s2, policy.NewIssue{Description: "Flickering light", ConcernTo: "electrical", HostelBlock: "B"})
	third := f.create(t, s1, policy.NewIssue{Description: "Clogged drain", ConcernTo: "plumbing", HostelBlock: "A"})

	ctx := context.Background()
	own, err := f.svc.List(ctx, s1)
	require.NoError(t, err)
	require.Equal(t, 2, own.Count)
	assert.Equal(t, first.ID, own.Issues[0].ID)
	assert.Equal(t, third.ID, own.Issues[1].ID)
	for _, issue := range own.Issues {
		assert.Equal(t, s1.UserID, issue.CreatedBy)
	}

	routed, err := f.svc.List(ctx, plumber)
	require.NoError(t, err)
	assert.Equal(t, 2, routed.Count)
	for _, issue := range routed.Issues {
		assert.Equal(t, "plumbing", issue.ConcernTo)
	}

	other, err := f.svc.List(ctx, electrician)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Count)

	_, err = f.svc.Get(ctx, first.ID, plumber)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, first.ID, electrician)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = f.svc.Get(ctx, first.ID, s2)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestListPublic(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	s1 := f.users.add("Asha", domain.RoleStudent, "")
	public := f.create(t, s1, faucet())
	private := faucet()
	private.IsPrivate = true
	f.create(t, s1, private)

	feed, err := f.svc.ListPublic(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, feed.Count)
	assert.Equal(t, public.ID, feed.Issues[0].ID)
}

func TestCreateValidation(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	s1 := f.users.add("Asha", domain.RoleStudent, "")

	in := faucet()
	in.Description = strings.Repeat("d", 41)
	_, err := f.svc.Create(context.Background(), s1, in)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	in.Description = strings.Repeat("d", 40)
	in.Floor = ""
	issue, err := f.svc.Create(context.Background(), s1, in)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFloor, issue.Floor)
}

func TestUpdateIdenticalIsNoop(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	s1 := f.users.add("Asha", domain.RoleStudent, "")
	issue := f.create(t, s1, faucet())

	desc, concern := "Leaky faucet", "plumbing"
	got, err := f.svc.Update(context.Background(), issue.ID, s1, domain.IssueChanges{Description: &desc, ConcernTo: &concern})
	require.NoError(t, err)
	assert.Equal(t, issue.ID, got.ID)
	assert.Equal(t, 0, f.issues.updateCount())
	assert.Zero(t, f.history.count(issue.ID))
}

func TestUpdateRejectsBlankFields(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	s1 := f.users.add("Asha", domain.RoleStudent, "")
	issue := f.create(t, s1, faucet())

	blank := " "
	_, err := f.svc.Update(context.Background(), issue.ID, s1, domain.IssueChanges{Description: &blank})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Equal(t, 0, f.issues.updateCount())

	// Input is validated before the lookup, so a blank field on an unknown
	// or foreign id is still a 400, not a 404.
	_, err = f.svc.Update(context.Background(), "6f1c3a52-7c9e-4d8e-9a1b-2f7d9c0e4b11", s1, domain.IssueChanges{Description: &blank})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestUpdateOwnerFieldsByOthersIsNotFound(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	s1 := f.users.add("Asha", domain.RoleStudent, "")
	s2 := f.users.add("Bilal", domain.RoleStudent, "")
	issue := f.create(t, s1, faucet())

	desc := "Hijacked"
	_, err := f.svc.Update(context.Background(), issue.ID, s2, domain.IssueChanges{Description: &desc})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	updated, err := f.svc.Update(context.Background(), issue.ID, s1, domain.IssueChanges{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Hijacked", updated.Description)
}

func TestUpdateMissingIssue(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	s1 := f.users.add("Asha", domain.RoleStudent, "")

	_, err := f.svc.Update(context.Background(), "6f1c3a52-7c9e-4d8e-9a1b-2f7d9c0e4b11", s1, domain.IssueChanges{Status: statusPtr(domain.IssueStatusResolving)})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = f.svc.Update(context.Background(), "garbage", s1, domain.IssueChanges{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestStrictPolicyLimitsStatusToResolver(t *testing.T) {
	f := newIssueFixture(t, policy.Strict())
	s1 := f.users.add("Asha", domain.RoleStudent, "")
	plumber := f.users.add("Ravi", domain.RoleResolver, "plumbing")
	electrician := f.users.add("Esha", domain.RoleResolver, "electrical")
	issue := f.create(t, s1, faucet())
	ctx := context.Background()

	_, err := f.svc.Update(ctx, issue.ID, s1, domain.IssueChanges{Status: statusPtr(domain.IssueStatusResolved)})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	_, err = f.svc.Update(ctx, issue.ID, electrician, domain.IssueChanges{Status: statusPtr(domain.IssueStatusResolved)})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	updated, err := f.svc.Update(ctx, issue.ID, plumber, domain.IssueChanges{Status: statusPtr(domain.IssueStatusResolved)})
	require.NoError(t, err)
	assert.Equal(t, plumber.UserID, *updated.ResolvedBy)
}

func TestReopeningClearsResolver(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	s1 := f.users.add("Asha", domain.RoleStudent, "")
	plumber := f.users.add("Ravi", domain.RoleResolver, "plumbing")
	issue := f.create(t, s1, faucet())
	ctx := context.Background()

	_, err := f.svc.Update(ctx, issue.ID, plumber, domain.IssueChanges{Status: statusPtr(domain.IssueStatusResolved)})
	require.NoError(t, err)
	reopened, err := f.svc.Update(ctx, issue.ID, plumber, domain.IssueChanges{Status: statusPtr(domain.IssueStatusResolving)})
	require.NoError(t, err)
	assert.Nil(t, reopened.ResolvedBy)

	history, err := f.svc.History(ctx, issue.ID, s1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.IssueStatusResolved, history[0].Changes["status"])
	assert.Equal(t, plumber.UserID, history[0].Changes["resolvedBy"])
	assert.Nil(t, history[1].Changes["resolvedBy"])
}

func TestUpvote(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	s1 := f.users.add("Asha", domain.RoleStudent, "")
	s2 := f.users.add("Bilal", domain.RoleStudent, "")
	ctx := context.Background()

	issue := f.create(t, s1, faucet())
	updated, err := f.svc.Upvote(ctx, issue.ID, s2)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Upvotes)
	updated, err = f.svc.Upvote(ctx, issue.ID, s2)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Upvotes)

	private := faucet()
	private.IsPrivate = true
	hidden := f.create(t, s1, private)
	_, err = f.svc.Upvote(ctx, hidden.ID, s2)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = f.svc.Upvote(ctx, hidden.ID, s1)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = f.svc.Update(ctx, issue.ID, s1, domain.IssueChanges{Status: statusPtr(domain.IssueStatusResolved)})
	require.NoError(t, err)
	_, err = f.svc.Upvote(ctx, issue.ID, s2)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestConcurrentUpvotesAreLastWriteWins(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	s1 := f.users.add("Asha", domain.RoleStudent, "")
	issue := f.create(t, s1, faucet())

	const voters = 20
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Upvote(context.Background(), issue.ID, s1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	final, err := f.svc.Get(context.Background(), issue.ID, s1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, final.Upvotes, 1)
	assert.LessOrEqual(t, final.Upvotes, voters)
}

func TestResolverWithoutAccountIsRejected(t *testing.T) {
	f := newIssueFixture(t, policy.Permissive())
	ghost := domain.Identity{UserID: "6f1c3a52-7c9e-4d8e-9a1b-2f7d9c0e4b11", Role: domain.RoleResolver}

	_, err := f.svc.List(context.Background(), ghost)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthenticated))
}
