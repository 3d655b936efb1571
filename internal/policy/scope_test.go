package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/hostres/internal/domain"
)

func sampleIssues() []*domain.Issue {
	return []*domain.Issue{
		{ID: "i1", CreatedBy: "s1", ConcernTo: "plumbing"},
		{ID: "i2", CreatedBy: "s1", ConcernTo: "electrical", IsPrivate: true},
		{ID: "i3", CreatedBy: "s2", ConcernTo: "plumbing", IsPrivate: true},
		{ID: "i4", CreatedBy: "s2", ConcernTo: "mess"},
	}
}

func ids(scope Scope, issues []*domain.Issue) []string {
	var out []string
	for _, is := range issues {
		if scope.Match(is) {
			out = append(out, is.ID)
		}
	}
	return out
}

func TestScopeFor_Student(t *testing.T) {
	s1 := ScopeFor(domain.Identity{UserID: "s1", Role: domain.RoleStudent}, "")
	assert.Equal(t, []string{"i1", "i2"}, ids(s1, sampleIssues()))

	s2 := ScopeFor(domain.Identity{UserID: "s2", Role: domain.RoleStudent}, "plumbing")
	assert.Equal(t, []string{"i3", "i4"}, ids(s2, sampleIssues()), "designation is ignored for students")
}

func TestScopeFor_Resolver(t *testing.T) {
	plumber := ScopeFor(domain.Identity{UserID: "r1", Role: domain.RoleResolver}, "plumbing")
	assert.Equal(t, []string{"i1", "i3"}, ids(plumber, sampleIssues()))

	warden := ScopeFor(domain.Identity{UserID: "r2", Role: domain.RoleResolver}, "warden")
	assert.Empty(t, ids(warden, sampleIssues()))

	undesignated := ScopeFor(domain.Identity{UserID: "r3", Role: domain.RoleResolver}, "")
	assert.Empty(t, ids(undesignated, sampleIssues()))
}

func TestPublicFeed(t *testing.T) {
	assert.Equal(t, []string{"i1", "i4"}, ids(PublicFeed(), sampleIssues()))
}

func TestScopeAnd(t *testing.T) {
	base := Scope{OwnedBy("s1")}
	narrowed := base.And(WithID("i2"))

	assert.Len(t, base, 1, "And must not mutate the receiver")
	assert.Equal(t, []string{"i2"}, ids(narrowed, sampleIssues()))
}

func TestPredicateMatchNil(t *testing.T) {
	assert.False(t, OwnedBy("s1").Match(nil))
	assert.False(t, Scope{}.Match(nil))
	assert.False(t, Predicate{Key: "floor", Value: "G"}.Match(&domain.Issue{Floor: "G"}))
}
