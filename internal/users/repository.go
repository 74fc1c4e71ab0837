package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"newsroom/editorial-portal/editorial-portal-backend/internal/workflow"
)

// PostgresRepository implements workflow.UserDirectory over the users and
// profiles tables. Every user has exactly one profile carrying their
// editorial role.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new user directory repository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// RoleOf resolves a user id to their editorial role.
func (r *PostgresRepository) RoleOf(ctx context.Context, userID uuid.UUID) (workflow.Role, error) {
	query := `
		SELECT p.role
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1 AND u.active
	`

	var role workflow.Role
	if err := r.db.GetContext(ctx, &role, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: user %s", workflow.ErrNotFound, userID)
		}
		return "", fmt.Errorf("resolve role: %w", err)
	}

	return role, nil
}

// FirstActiveUserWithRole returns the longest-standing active user holding
// the role, or nil when nobody does.
func (r *PostgresRepository) FirstActiveUserWithRole(ctx context.Context, role workflow.Role) (*workflow.DirectoryUser, error) {
	query := `
		SELECT u.id, u.name, p.role
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE p.role = $1 AND u.active
		ORDER BY u.created_at ASC
		LIMIT 1
	`

	var user workflow.DirectoryUser
	if err := r.db.GetContext(ctx, &user, query, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user with role %q: %w", role, err)
	}

	return &user, nil
}
