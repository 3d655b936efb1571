package repository

import (
	"context"

	"github.com/spec-kit/hostres/internal/domain"
)

// IssueHistoryRepository stores audit entries.
type IssueHistoryRepository interface {
	Create(ctx context.Context, entry *domain.IssueHistory) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.IssueHistory, error)
}

type issueHistoryRepository struct {
	db DBTX
}

// NewIssueHistoryRepository builds repository.
func NewIssueHistoryRepository(db DBTX) IssueHistoryRepository {
	return &issueHistoryRepository{db: db}
}

func (r *issueHistoryRepository) Create(ctx context.Context, entry *domain.IssueHistory) error {
	const query = `
        INSERT INTO issue_history (issue_id, changed_by, changes)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.IssueID,
		entry.ChangedBy,
		entry.Changes,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *issueHistoryRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.IssueHistory, error) {
	const query = `
        SELECT id, issue_id, changed_by, changes, created_at
        FROM issue_history WHERE issue_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.IssueHistory{}
	for rows.Next() {
		var entry domain.IssueHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.IssueID,
			&entry.ChangedBy,
			&entry.Changes,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
