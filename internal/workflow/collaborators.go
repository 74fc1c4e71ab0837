package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ArticleStore is the durable article record. Save is a compare-and-set:
// it must fail with ErrConflict when the row's workflow state no longer
// equals expectedState.
type ArticleStore interface {
	Load(ctx context.Context, id uuid.UUID) (*Article, error)
	Save(ctx context.Context, article *Article, expectedState State) error
	ListPendingForReviewer(ctx context.Context, reviewerID uuid.UUID) ([]Article, error)
	CountByStateForAuthor(ctx context.Context, authorID uuid.UUID) (map[State]int, error)
	CountPendingForReviewer(ctx context.Context, reviewerID uuid.UUID) (int, error)
}

// UserDirectory resolves users to editorial roles.
// FirstActiveUserWithRole returns (nil, nil) when nobody holds the role;
// the pipeline must keep moving even with a vacant desk.
type UserDirectory interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (Role, error)
	FirstActiveUserWithRole(ctx context.Context, role Role) (*DirectoryUser, error)
}

// HistoryLog is the append-only transition audit trail.
type HistoryLog interface {
	Append(ctx context.Context, step *Step) error
	CompletePending(ctx context.Context, articleID uuid.UUID, completion StepCompletion, at time.Time) error
	ListForArticle(ctx context.Context, articleID uuid.UUID) ([]Step, error)
}

// NotificationSink delivers one notification. Best effort: the executor
// logs and swallows failures after the transition has committed.
type NotificationSink interface {
	Send(ctx context.Context, intent NotificationIntent) error
}
