// Package policy holds the issue access rules: which issues a caller may see,
// which incoming values form a patch, and which fields a caller may write.
package policy

import "github.com/spec-kit/hostres/internal/domain"

// Key names an issue attribute a predicate can filter on.
type Key string

const (
	KeyID        Key = "id"
	KeyCreatedBy Key = "createdBy"
	KeyConcernTo Key = "concernTo"
	KeyIsPrivate Key = "isPrivate"
)

// Predicate is an equality test on a single issue attribute.
type Predicate struct {
	Key   Key
	Value any
}

// WithID matches the issue with the given identifier.
func WithID(id string) Predicate {
	return Predicate{Key: KeyID, Value: id}
}

// OwnedBy matches issues created by the user.
func OwnedBy(userID string) Predicate {
	return Predicate{Key: KeyCreatedBy, Value: userID}
}

// ConcernedTo matches issues routed to the designation.
func ConcernedTo(designation string) Predicate {
	return Predicate{Key: KeyConcernTo, Value: designation}
}

// Public matches issues that are not private.
func Public() Predicate {
	return Predicate{Key: KeyIsPrivate, Value: false}
}

// Match evaluates the predicate against an issue.
func (p Predicate) Match(issue *domain.Issue) bool {
	if issue == nil {
		return false
	}
	switch p.Key {
	case KeyID:
		return issue.ID == p.Value
	case KeyCreatedBy:
		return issue.CreatedBy == p.Value
	case KeyConcernTo:
		return issue.ConcernTo == p.Value
	case KeyIsPrivate:
		return issue.IsPrivate == p.Value
	}
	return false
}

// Scope is a conjunction of predicates.
type Scope []Predicate

// Match reports whether every predicate holds for the issue.
func (s Scope) Match(issue *domain.Issue) bool {
	if issue == nil {
		return false
	}
	for _, p := range s {
		if !p.Match(issue) {
			return false
		}
	}
	return true
}

// And returns a new scope with extra predicates appended.
func (s Scope) And(more ...Predicate) Scope {
	out := make(Scope, 0, len(s)+len(more))
	out = append(out, s...)
	return append(out, more...)
}

// ScopeFor returns the visibility scope of a caller: resolvers see issues routed
// to their designation, everyone else sees the issues they created.
func ScopeFor(identity domain.Identity, designation string) Scope {
	if identity.IsResolver() {
		return Scope{ConcernedTo(designation)}
	}
	return Scope{OwnedBy(identity.UserID)}
}

// PublicFeed is the scope of the public issue listing.
func PublicFeed() Scope {
	return Scope{Public()}
}
