package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"newsroom/editorial-portal/editorial-portal-backend/internal/workflow"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// reviewerStates are the states in which a reviewer holds the desk for an
// article.
var reviewerStates = []string{
	string(workflow.StateSubmitted),
	string(workflow.StateInReview),
	string(workflow.StateApprovedBySecretary),
	string(workflow.StateReadyForSocial),
}

const articleColumns = `id, title, workflow_status, current_reviewer_id, created_by,
	submitted_at, reviewed_at, approved_at, published_at, rejection_reason, version`

// PostgresRepository implements workflow.ArticleStore over the articles
// table.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL article repository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Load fetches the workflow projection of one article.
func (r *PostgresRepository) Load(ctx context.Context, id uuid.UUID) (*workflow.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE id = $1 AND deleted_at IS NULL`, articleColumns)

	var article workflow.Article
	if err := r.db.GetContext(ctx, &article, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: article %s", workflow.ErrNotFound, id)
		}
		return nil, fmt.Errorf("load article: %w", err)
	}

	return &article, nil
}

// Save persists the workflow fields of an article. The UPDATE is keyed on
// the state the transition was validated against; zero rows affected on
// an existing article means someone else moved it first.
func (r *PostgresRepository) Save(ctx context.Context, article *workflow.Article, expectedState workflow.State) error {
	query := `
		UPDATE articles SET
			workflow_status = $1,
			current_reviewer_id = $2,
			submitted_at = $3,
			reviewed_at = $4,
			approved_at = $5,
			published_at = $6,
			rejection_reason = $7,
			version = $8,
			updated_at = NOW()
		WHERE id = $9 AND workflow_status = $10 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		article.State, article.CurrentReviewerID,
		article.SubmittedAt, article.ReviewedAt, article.ApprovedAt, article.PublishedAt,
		article.RejectionReason, article.Version,
		article.ID, expectedState,
	)
	if err != nil {
		return fmt.Errorf("save article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save article: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM articles WHERE id = $1 AND deleted_at IS NULL)`, article.ID); err != nil {
			return fmt.Errorf("save article: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: article %s", workflow.ErrNotFound, article.ID)
		}
		return fmt.Errorf("%w: article %s is no longer in state %q", workflow.ErrConflict, article.ID, expectedState)
	}

	return nil
}

// ListPendingForReviewer lists the articles currently waiting on the given
// reviewer, most recently submitted first.
func (r *PostgresRepository) ListPendingForReviewer(ctx context.Context, reviewerID uuid.UUID) ([]workflow.Article, error) {
	query, args, err := psql.
		Select(articleColumns).
		From("articles").
		Where(sq.Eq{"current_reviewer_id": reviewerID}).
		Where(sq.Eq{"workflow_status": reviewerStates}).
		Where("deleted_at IS NULL").
		OrderBy("submitted_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pending query: %w", err)
	}

	articles := []workflow.Article{}
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("list pending articles: %w", err)
	}

	return articles, nil
}

// CountByStateForAuthor returns the author's article counts per workflow
// state, zero-filled for states with no rows.
func (r *PostgresRepository) CountByStateForAuthor(ctx context.Context, authorID uuid.UUID) (map[workflow.State]int, error) {
	query, args, err := psql.
		Select("workflow_status", "COUNT(*) AS count").
		From("articles").
		Where(sq.Eq{"created_by": authorID}).
		Where("deleted_at IS NULL").
		GroupBy("workflow_status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	rows := []struct {
		State workflow.State `db:"workflow_status"`
		Count int            `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	counts := map[workflow.State]int{
		workflow.StateDraft:               0,
		workflow.StateSubmitted:           0,
		workflow.StateInReview:            0,
		workflow.StateApprovedBySecretary: 0,
		workflow.StateReadyForSocial:      0,
		workflow.StatePublished:           0,
		workflow.StateRejected:            0,
	}
	for _, row := range rows {
		counts[row.State] = row.Count
	}

	return counts, nil
}

// CountPendingForReviewer counts the articles waiting on the reviewer.
func (r *PostgresRepository) CountPendingForReviewer(ctx context.Context, reviewerID uuid.UUID) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("articles").
		Where(sq.Eq{"current_reviewer_id": reviewerID}).
		Where(sq.Eq{"workflow_status": reviewerStates}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build pending count query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count pending articles: %w", err)
	}

	return count, nil
}
