package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/policy"
)

// IssueRepository encapsulates issue persistence. Reads and deletes are
// constrained by a policy.Scope.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	Find(ctx context.Context, scope policy.Scope) ([]domain.Issue, error)
	FindOne(ctx context.Context, scope policy.Scope) (*domain.Issue, error)
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	Update(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error)
	Delete(ctx context.Context, scope policy.Scope) error
}

type issueRepository struct {
	db DBTX
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(db DBTX) IssueRepository {
	return &issueRepository{db: db}
}

const issueColumns = `id, description, concern_to, status, floor, hostel_block, is_private,
               upvotes, created_by, resolved_by, created_at, updated_at`

var scopeColumns = map[policy.Key]string{
	policy.KeyID:        "id",
	policy.KeyCreatedBy: "created_by",
	policy.KeyConcernTo: "concern_to",
	policy.KeyIsPrivate: "is_private",
}

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (description, concern_to, status, floor, hostel_block, is_private, upvotes, created_by, resolved_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		issue.Description,
		issue.ConcernTo,
		issue.Status,
		issue.Floor,
		issue.HostelBlock,
		issue.IsPrivate,
		issue.Upvotes,
		issue.CreatedBy,
		issue.ResolvedBy,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) Find(ctx context.Context, scope policy.Scope) ([]domain.Issue, error) {
	where, args, err := buildWhere(scope)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY created_at ASC`, issueColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) FindOne(ctx context.Context, scope policy.Scope) (*domain.Issue, error) {
	where, args, err := buildWhere(scope)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s LIMIT 1`, issueColumns, where)
	return scanIssue(r.db.QueryRow(ctx, query, args...))
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	return r.FindOne(ctx, policy.Scope{policy.WithID(id)})
}

// Update writes only the patched columns and returns the stored row.
func (r *issueRepository) Update(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.ConcernTo != nil {
		set("concern_to", *patch.ConcernTo)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Floor != nil {
		set("floor", *patch.Floor)
	}
	if patch.HostelBlock != nil {
		set("hostel_block", *patch.HostelBlock)
	}
	if patch.IsPrivate != nil {
		set("is_private", *patch.IsPrivate)
	}
	if patch.Upvotes != nil {
		set("upvotes", *patch.Upvotes)
	}
	if patch.ClearResolved {
		sets = append(sets, "resolved_by=NULL")
	} else if patch.ResolvedBy != nil {
		set("resolved_by", *patch.ResolvedBy)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE issues SET %s, updated_at=NOW() WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), issueColumns)
	return scanIssue(r.db.QueryRow(ctx, query, args...))
}

func (r *issueRepository) Delete(ctx context.Context, scope policy.Scope) error {
	where, args, err := buildWhere(scope)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM issues WHERE `+where, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// buildWhere renders the scope as a parameterized conjunction.
func buildWhere(scope policy.Scope) (string, []any, error) {
	if len(scope) == 0 {
		return "", nil, fmt.Errorf("refusing unscoped issue query")
	}
	clauses := make([]string, 0, len(scope))
	args := make([]any, 0, len(scope))
	for _, p := range scope {
		column, ok := scopeColumns[p.Key]
		if !ok {
			return "", nil, fmt.Errorf("unsupported issue filter %q", p.Key)
		}
		args = append(args, p.Value)
		clauses = append(clauses, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	return strings.Join(clauses, " AND "), args, nil
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var issue domain.Issue
	if err := row.Scan(
		&issue.ID,
		&issue.Description,
		&issue.ConcernTo,
		&issue.Status,
		&issue.Floor,
		&issue.HostelBlock,
		&issue.IsPrivate,
		&issue.Upvotes,
		&issue.CreatedBy,
		&issue.ResolvedBy,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	result := []domain.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}
