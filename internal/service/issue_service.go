package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/events"
	"github.com/spec-kit/hostres/internal/observability"
	"github.com/spec-kit/hostres/internal/policy"
	"github.com/spec-kit/hostres/internal/repository"
	apperrors "github.com/spec-kit/hostres/pkg/util"
)

// IssueList is the listing response shape.
type IssueList struct {
	Issues []domain.Issue `json:"issues"`
	Count  int            `json:"count"`
}

// IssueDependencies groups repositories used by IssueService.
type IssueDependencies struct {
	IssueRepo   repository.IssueRepository
	HistoryRepo repository.IssueHistoryRepository
	UserRepo    repository.UserRepository
	UserCache   SummaryCache
	Dispatcher  events.Dispatcher
}

// IssueService implements the issue lifecycle.
type IssueService struct {
	issues     repository.IssueRepository
	history    repository.IssueHistoryRepository
	users      repository.UserRepository
	cache      SummaryCache
	dispatcher events.Dispatcher
	fields     policy.FieldPolicy
	logger     *zap.Logger
}

// NewIssueService builds the service.
func NewIssueService(deps IssueDependencies, fields policy.FieldPolicy, logger *zap.Logger) *IssueService {
	return &IssueService{
		issues:     deps.IssueRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		cache:      deps.UserCache,
		dispatcher: deps.Dispatcher,
		fields:     fields,
		logger:     logger,
	}
}

// List returns the caller's issues: their own for students, the ones routed to
// their designation for resolvers. Oldest first.
func (s *IssueService) List(ctx context.Context, caller domain.Identity) (_ *IssueList, err error) {
	ctx, span := observability.StartSpan(ctx, "IssueService.List", attribute.String("user.role", string(caller.Role)))
	defer func() { observability.EndSpan(span, err) }()

	scope, err := s.scopeFor(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, scope)
}

// ListPublic returns every public issue. Oldest first.
func (s *IssueService) ListPublic(ctx context.Context) (_ *IssueList, err error) {
	ctx, span := observability.StartSpan(ctx, "IssueService.ListPublic")
	defer func() { observability.EndSpan(span, err) }()

	return s.find(ctx, policy.PublicFeed())
}

// Get returns a single issue inside the caller's scope.
func (s *IssueService) Get(ctx context.Context, id string, caller domain.Identity) (_ *domain.Issue, err error) {
	ctx, span := observability.StartSpan(ctx, "IssueService.Get", attribute.String("issue.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if !validID(id) {
		return nil, issueNotFound(id)
	}
	scope, err := s.scopeFor(ctx, caller)
	if err != nil {
		return nil, err
	}
	issue, err := s.issues.FindOne(ctx, scope.And(policy.WithID(id)))
	if err != nil {
		return nil, notFoundOr(err, id)
	}
	return issue, nil
}

// Create files a new issue owned by the caller.
func (s *IssueService) Create(ctx context.Context, caller domain.Identity, in policy.NewIssue) (_ *domain.Issue, err error) {
	ctx, span := observability.StartSpan(ctx, "IssueService.Create")
	defer func() { observability.EndSpan(span, err) }()

	in = in.Normalize()
	if err := policy.ValidateNew(in); err != nil {
		return nil, err
	}

	issue := &domain.Issue{
		Description: in.Description,
		ConcernTo:   in.ConcernTo,
		Status:      in.Status,
		Floor:       in.Floor,
		HostelBlock: in.HostelBlock,
		IsPrivate:   in.IsPrivate,
		Upvotes:     0,
		CreatedBy:   caller.UserID,
		ResolvedBy:  nil,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventIssueCreated, issue.ID, caller, events.IssueCreatedPayload{
		ConcernTo:   issue.ConcernTo,
		Floor:       issue.Floor,
		HostelBlock: issue.HostelBlock,
		IsPrivate:   issue.IsPrivate,
	}))
	return issue, nil
}

// Update applies the fields of changes that differ from the stored issue.
// Identical input is a successful no-op that does not touch the store.
func (s *IssueService) Update(ctx context.Context, id string, caller domain.Identity, changes domain.IssueChanges) (_ *domain.Issue, err error) {
	ctx, span := observability.StartSpan(ctx, "IssueService.Update", attribute.String("issue.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if err := policy.ValidateChanges(changes); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, patch, err := s.apply(ctx, caller, current, changes)
	if err != nil || patch.Empty() {
		return updated, err
	}

	s.publish(ctx, events.NewEvent(events.EventIssueUpdated, updated.ID, caller, events.IssueUpdatedPayload{
		Changes: patch.Changes(),
	}))
	return updated, nil
}

// Upvote increments the upvote counter of a public, unresolved issue.
// Concurrent upvotes are last-write-wins.
func (s *IssueService) Upvote(ctx context.Context, id string, caller domain.Identity) (_ *domain.Issue, err error) {
	ctx, span := observability.StartSpan(ctx, "IssueService.Upvote", attribute.String("issue.id", id))
	defer func() { observability.EndSpan(span, err) }()

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsPrivate {
		scope, err := s.scopeFor(ctx, caller)
		if err != nil {
			return nil, err
		}
		if !scope.Match(current) {
			return nil, issueNotFound(id)
		}
		return nil, apperrors.NewValidationError("Private issues cannot be upvoted", nil)
	}
	if current.Status == domain.IssueStatusResolved {
		return nil, apperrors.NewValidationError("Resolved issues cannot be upvoted", nil)
	}

	next := current.Upvotes + 1
	updated, _, err := s.apply(ctx, caller, current, domain.IssueChanges{Upvotes: &next})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventIssueUpvoted, updated.ID, caller, events.IssueUpvotedPayload{
		Upvotes: updated.Upvotes,
	}))
	return updated, nil
}

// Delete removes an issue owned by the caller.
func (s *IssueService) Delete(ctx context.Context, id string, caller domain.Identity) (err error) {
	ctx, span := observability.StartSpan(ctx, "IssueService.Delete", attribute.String("issue.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if !validID(id) {
		return issueNotFound(id)
	}
	scope := policy.Scope{policy.WithID(id), policy.OwnedBy(caller.UserID)}
	issue, err := s.issues.FindOne(ctx, scope)
	if err != nil {
		return notFoundOr(err, id)
	}
	if err := s.issues.Delete(ctx, scope); err != nil {
		return notFoundOr(err, id)
	}

	s.publish(ctx, events.NewEvent(events.EventIssueDeleted, id, caller, events.IssueDeletedPayload{
		ConcernTo: issue.ConcernTo,
	}))
	return nil
}

// History lists the recorded changes of an issue the caller may read.
func (s *IssueService) History(ctx context.Context, id string, caller domain.Identity) (_ []domain.IssueHistory, err error) {
	ctx, span := observability.StartSpan(ctx, "IssueService.History", attribute.String("issue.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.Get(ctx, id, caller); err != nil {
		return nil, err
	}
	return s.history.ListByIssue(ctx, id)
}

// apply diffs, authorizes and persists changes against current.
func (s *IssueService) apply(ctx context.Context, caller domain.Identity, current *domain.Issue, changes domain.IssueChanges) (*domain.Issue, domain.IssuePatch, error) {
	patch := policy.ComputeDiff(current, changes)
	if patch.Empty() {
		return current, patch, nil
	}

	designation, err := s.designationOf(ctx, caller)
	if err != nil {
		return nil, patch, err
	}
	relation := policy.RelationOf(caller, designation, current)
	if err := s.fields.Authorize(relation, patch, current); err != nil {
		return nil, patch, err
	}
	patch = policy.TrackResolution(patch, current, caller.UserID)

	updated, err := s.issues.Update(ctx, current.ID, patch)
	if err != nil {
		return nil, patch, notFoundOr(err, current.ID)
	}

	s.record(ctx, updated.ID, caller, patch)
	if patch.Status != nil {
		s.publish(ctx, events.NewEvent(events.EventIssueStatusChanged, updated.ID, caller, events.IssueStatusChangedPayload{
			OldStatus: current.Status,
			NewStatus: updated.Status,
			ConcernTo: updated.ConcernTo,
			CreatedBy: updated.CreatedBy,
		}))
	}
	return updated, patch, nil
}

func (s *IssueService) load(ctx context.Context, id string) (*domain.Issue, error) {
	if !validID(id) {
		return nil, issueNotFound(id)
	}
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id)
	}
	return issue, nil
}

func (s *IssueService) find(ctx context.Context, scope policy.Scope) (*IssueList, error) {
	issues, err := s.issues.Find(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &IssueList{Issues: issues, Count: len(issues)}, nil
}

// scopeFor resolves the caller's visibility scope. A resolver's designation
// comes from the credential store, never from the request.
func (s *IssueService) scopeFor(ctx context.Context, caller domain.Identity) (policy.Scope, error) {
	designation, err := s.designationOf(ctx, caller)
	if err != nil {
		return nil, err
	}
	return policy.ScopeFor(caller, designation), nil
}

func (s *IssueService) designationOf(ctx context.Context, caller domain.Identity) (string, error) {
	if !caller.IsResolver() {
		return "", nil
	}
	load := func(ctx context.Context) (*domain.UserSummary, error) {
		user, err := s.users.GetByID(ctx, caller.UserID)
		if err != nil {
			return nil, err
		}
		summary := user.Summary()
		return &summary, nil
	}

	var (
		summary *domain.UserSummary
		err     error
	)
	if s.cache != nil {
		summary, err = s.cache.Get(ctx, caller.UserID, load)
	} else {
		summary, err = load(ctx)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewUnauthorized("Authentication invalid")
		}
		return "", err
	}
	if summary == nil {
		return "", apperrors.NewUnauthorized("Authentication invalid")
	}
	return summary.DesignationOrEmpty(), nil
}

func (s *IssueService) record(ctx context.Context, issueID string, caller domain.Identity, patch domain.IssuePatch) {
	if s.history == nil {
		return
	}
	entry := &domain.IssueHistory{
		IssueID:   issueID,
		ChangedBy: caller.UserID,
		Changes:   patch.Changes(),
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record issue history", zap.String("issue_id", issueID), zap.Error(err))
	}
}

func (s *IssueService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("issue_id", event.IssueID),
			zap.Error(err))
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func issueNotFound(id string) error {
	return apperrors.NewNotFound(fmt.Sprintf("No issue found with id %s", id))
}

func notFoundOr(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return issueNotFound(id)
	}
	return err
}
