package articles

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"newsroom/editorial-portal/editorial-portal-backend/internal/workflow"
)

// HistoryRepository implements workflow.HistoryLog over the
// article_workflow_steps table. Rows are append-only; completing a step
// only touches its status, comment and action timestamp.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new workflow history repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts one workflow step.
func (r *HistoryRepository) Append(ctx context.Context, step *workflow.Step) error {
	query := `
		INSERT INTO article_workflow_steps (
			id, article_id, from_user_id, to_user_id, action, status, comment, action_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		step.ID, step.ArticleID, step.FromUserID, step.ToUserID,
		step.Action, step.Status, step.Comment, step.ActionAt, step.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append workflow step: %w", err)
	}

	return nil
}

// CompletePending closes the article's pending step, if any. At most one
// step per article is ever pending, enforced by the executor.
func (r *HistoryRepository) CompletePending(ctx context.Context, articleID uuid.UUID, completion workflow.StepCompletion, at time.Time) error {
	query := `
		UPDATE article_workflow_steps SET
			status = $1,
			comment = COALESCE($2, comment),
			action_at = $3
		WHERE article_id = $4 AND status = $5
	`

	_, err := r.db.ExecContext(ctx, query,
		completion.Status, completion.Comment, at, articleID, workflow.StepStatusPending,
	)
	if err != nil {
		return fmt.Errorf("complete pending workflow step: %w", err)
	}

	return nil
}

// ListForArticle returns the article's workflow trail, newest first.
func (r *HistoryRepository) ListForArticle(ctx context.Context, articleID uuid.UUID) ([]workflow.Step, error) {
	query := `
		SELECT id, article_id, from_user_id, to_user_id, action, status, comment, action_at, created_at
		FROM article_workflow_steps
		WHERE article_id = $1
		ORDER BY created_at DESC
	`

	steps := []workflow.Step{}
	if err := r.db.SelectContext(ctx, &steps, query, articleID); err != nil {
		return nil, fmt.Errorf("list workflow steps: %w", err)
	}

	return steps, nil
}
