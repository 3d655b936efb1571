package memory

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/policy"
	"github.com/spec-kit/hostres/internal/repository"
)

func TestUsersEmailIsUniqueCaseInsensitive(t *testing.T) {
	users := NewUsers()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &domain.User{Email: "asha@hostel.edu", Role: domain.RoleStudent}))

	err := users.Create(ctx, &domain.User{Email: "ASHA@hostel.edu", Role: domain.RoleResolver})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	_, err = users.GetByEmailAndRole(ctx, "asha@hostel.edu", domain.RoleResolver)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestIssuesScopeAndOrder(t *testing.T) {
	issues := NewIssues()
	ctx := context.Background()
	for _, desc := range []string{"first", "second", "third"} {
		require.NoError(t, issues.Create(ctx, &domain.Issue{Description: desc, CreatedBy: "s-1", ConcernTo: "plumbing"}))
	}
	require.NoError(t, issues.Create(ctx, &domain.Issue{Description: "other", CreatedBy: "s-2", ConcernTo: "plumbing"}))

	own, err := issues.Find(ctx, policy.Scope{policy.OwnedBy("s-1")})
	require.NoError(t, err)
	require.Len(t, own, 3)
	assert.Equal(t, "first", own[0].Description)
	assert.Equal(t, "third", own[2].Description)

	assert.ErrorIs(t, issues.Delete(ctx, policy.Scope{policy.WithID(own[0].ID), policy.OwnedBy("s-2")}), pgx.ErrNoRows)
	assert.NoError(t, issues.Delete(ctx, policy.Scope{policy.WithID(own[0].ID), policy.OwnedBy("s-1")}))
}

func TestIssuesUpdateReturnsCopy(t *testing.T) {
	issues := NewIssues()
	ctx := context.Background()
	issue := &domain.Issue{Description: "Leaky faucet", Status: domain.IssueStatusPending}
	require.NoError(t, issues.Create(ctx, issue))

	resolver := "r-1"
	status := domain.IssueStatusResolved
	updated, err := issues.Update(ctx, issue.ID, domain.IssuePatch{
		IssueChanges: domain.IssueChanges{Status: &status},
		ResolvedBy:   &resolver,
	})
	require.NoError(t, err)
	*updated.ResolvedBy = "tampered"

	stored, err := issues.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "r-1", *stored.ResolvedBy)
	assert.True(t, stored.UpdatedAt.After(stored.CreatedAt))

	_, err = issues.Update(ctx, "missing", domain.IssuePatch{})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
