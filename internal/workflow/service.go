package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the transition executor: it loads the article, asks the
// engine for instructions, persists the outcome with a compare-and-set on
// the workflow state, writes history and dispatches notifications. All
// state lives in the store; Execute calls are independent and the CAS is
// the only guard two racing transitions ever meet.
type Service struct {
	store     ArticleStore
	directory UserDirectory
	history   HistoryLog
	sink      NotificationSink
	engine    *Engine
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates the workflow service.
func NewService(store ArticleStore, directory UserDirectory, history HistoryLog, sink NotificationSink, engine *Engine, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		directory: directory,
		history:   history,
		sink:      sink,
		engine:    engine,
		logger:    logger,
		now:       time.Now,
	}
}

// ExecuteResult is the outcome of a committed transition.
type ExecuteResult struct {
	Article  *Article `json:"article"`
	Warnings []string `json:"warnings,omitempty"`
}

// Execute runs one workflow transition. On any validation error nothing
// is persisted. Notification failures never roll back a committed
// transition; they are logged and reported as warnings at most.
func (s *Service) Execute(ctx context.Context, articleID, actorID uuid.UUID, action Action, payload Payload) (*ExecuteResult, error) {
	article, err := s.store.Load(ctx, articleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: article %s", ErrNotFound, articleID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	role, err := s.directory.RoleOf(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s has no profile", ErrUnauthorized, actorID)
		}
		return nil, fmt.Errorf("resolve actor role: %w", err)
	}
	actor := Actor{ID: actorID, Role: role}

	result, err := s.engine.Compute(ctx, article, actor, action, payload)
	if err != nil {
		return nil, err
	}

	updated := applyResult(article, result)
	if err := s.store.Save(ctx, updated, article.State); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("%w: article %s already moved past %q", ErrConflict, articleID, article.State)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	warnings := result.Warnings

	// History is diagnostic, not authoritative: a failed write must not
	// undo the committed state change.
	at := s.now()
	if result.CompletePrior != nil {
		if err := s.history.CompletePending(ctx, article.ID, *result.CompletePrior, at); err != nil {
			s.logger.Error("failed to complete pending workflow step",
				zap.String("article_id", article.ID.String()), zap.Error(err))
			warnings = append(warnings, "workflow history is lagging behind the article state")
		}
	}
	if result.Step != nil {
		if err := s.history.Append(ctx, result.Step); err != nil {
			s.logger.Error("failed to append workflow step",
				zap.String("article_id", article.ID.String()), zap.Error(err))
			warnings = append(warnings, "workflow history is lagging behind the article state")
		}
	}

	// Dispatch strictly after the commit so nobody is notified about a
	// transition that never happened.
	for _, intent := range result.Notifications {
		if err := s.sink.Send(ctx, intent); err != nil {
			s.logger.Warn("notification dispatch failed",
				zap.String("article_id", article.ID.String()),
				zap.String("recipient", intent.RecipientID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("workflow transition committed",
		zap.String("article_id", article.ID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("action", string(action)),
		zap.String("from", string(article.State)),
		zap.String("to", string(updated.State)))

	return &ExecuteResult{Article: updated, Warnings: warnings}, nil
}

// applyResult builds the updated article projection from the engine's
// instructions. Timestamps are set exactly once and never cleared.
func applyResult(article *Article, result *TransitionResult) *Article {
	updated := *article
	updated.State = result.NewState
	updated.CurrentReviewerID = result.NewReviewerID
	updated.Version = article.Version + 1

	now := time.Now()
	switch result.Stamp {
	case TimestampSubmitted:
		if updated.SubmittedAt == nil {
			updated.SubmittedAt = &now
		}
	case TimestampReviewed:
		if updated.ReviewedAt == nil {
			updated.ReviewedAt = &now
		}
	case TimestampApproved:
		if updated.ApprovedAt == nil {
			updated.ApprovedAt = &now
		}
	case TimestampPublished:
		if updated.PublishedAt == nil {
			updated.PublishedAt = &now
		}
	}

	if result.RejectionReason != nil {
		updated.RejectionReason = result.RejectionReason
	}

	return &updated
}

// PendingForReviewer lists the articles waiting on the given reviewer.
func (s *Service) PendingForReviewer(ctx context.Context, reviewerID uuid.UUID) ([]Article, error) {
	return s.store.ListPendingForReviewer(ctx, reviewerID)
}

// StatsForUser returns the per-state counts of the user's own articles
// plus how many articles currently wait on them.
func (s *Service) StatsForUser(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	counts, err := s.store.CountByStateForAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count articles by state: %w", err)
	}
	pending, err := s.store.CountPendingForReviewer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count pending reviews: %w", err)
	}
	return &Stats{MyArticles: counts, PendingReview: pending}, nil
}

// History returns the full workflow trail of an article, newest first.
func (s *Service) History(ctx context.Context, articleID uuid.UUID) ([]Step, error) {
	return s.history.ListForArticle(ctx, articleID)
}

// AvailableSecretary returns the copy editor a draft should be submitted
// to, or nil when the desk is vacant.
func (s *Service) AvailableSecretary(ctx context.Context) (*DirectoryUser, error) {
	return s.directory.FirstActiveUserWithRole(ctx, RoleSecretaireRedaction)
}
