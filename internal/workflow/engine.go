package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Engine validates a transition against the role policy and the transition
// table and computes the instructions the executor must apply. It never
// writes anything; the only collaborator it touches is the read side of
// the user directory, to resolve the next reviewer.
type Engine struct {
	machine   *Machine
	directory UserDirectory
	now       func() time.Time
}

// NewEngine creates an engine over the given transition table.
func NewEngine(machine *Machine, directory UserDirectory) *Engine {
	return &Engine{
		machine:   machine,
		directory: directory,
		now:       time.Now,
	}
}

// Compute validates (article, actor, action, payload) and returns the
// transition result. Validation order: table entry, role policy, ownership,
// payload. The first failure wins and nothing is computed past it.
func (e *Engine) Compute(ctx context.Context, article *Article, actor Actor, action Action, payload Payload) (*TransitionResult, error) {
	if !e.machine.HasEntry(article.State, action) {
		return nil, fmt.Errorf("%w: action %q is not allowed from state %q", ErrInvalidTransition, action, article.State)
	}
	if !Allows(actor.Role, action) {
		return nil, fmt.Errorf("%w: role %q may not perform %q", ErrUnauthorized, actor.Role, action)
	}
	if err := checkOwnership(article, actor, action); err != nil {
		return nil, err
	}

	t, ok := e.machine.Lookup(article.State, action, actor.Role)
	if !ok {
		return nil, fmt.Errorf("%w: action %q from state %q has no branch for role %q", ErrInvalidTransition, action, article.State, actor.Role)
	}

	if err := checkPayload(action, payload); err != nil {
		return nil, err
	}

	now := e.now()
	result := &TransitionResult{
		NewState: t.next,
		Stamp:    t.stamp,
	}

	switch t.rule {
	case reviewerFromPayload:
		reviewer, err := e.resolvePayloadReviewer(ctx, payload)
		if err != nil {
			return nil, err
		}
		result.NewReviewerID = &reviewer.ID
	case reviewerByRole:
		reviewer, err := e.directory.FirstActiveUserWithRole(ctx, t.targetRole)
		if err != nil || reviewer == nil {
			// Never fail the transition over a vacant desk; commit
			// unassigned and let the caller see the warning.
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("no active user with role %q; article left unassigned", t.targetRole))
		} else {
			result.NewReviewerID = &reviewer.ID
		}
	case reviewerCleared:
		result.NewReviewerID = nil
	}

	if action == ActionReject {
		reason := strings.TrimSpace(payload.Reason)
		result.RejectionReason = &reason
	}

	if article.State != StateDraft && article.State != StateRejected {
		result.CompletePrior = &StepCompletion{
			Status:  completionStatusFor(action),
			Comment: optional(payload.Comment),
		}
	}

	result.Step = e.buildStep(article, actor, action, t, payload, result.NewReviewerID, now)
	result.Notifications = e.buildNotifications(article, actor, action, t, payload, result.NewReviewerID)

	return result, nil
}

func checkOwnership(article *Article, actor Actor, action Action) error {
	switch OwnershipFor(action) {
	case OwnershipAuthor:
		if article.CreatedBy != actor.ID {
			return fmt.Errorf("%w: only the author may %s this article", ErrUnauthorized, action)
		}
	case OwnershipCurrentReviewer:
		if article.CurrentReviewerID == nil || *article.CurrentReviewerID != actor.ID {
			return fmt.Errorf("%w: only the current reviewer may %s this article", ErrUnauthorized, action)
		}
	}
	return nil
}

func checkPayload(action Action, payload Payload) error {
	switch action {
	case ActionSubmitForReview:
		if payload.ReviewerID == nil {
			return fmt.Errorf("%w: reviewer_id is required", ErrMissingPayload)
		}
	case ActionReject:
		if strings.TrimSpace(payload.Reason) == "" {
			return fmt.Errorf("%w: reason is required", ErrMissingPayload)
		}
	}
	return nil
}

// resolvePayloadReviewer checks that the submitted reviewer exists and
// holds the copy editor role.
func (e *Engine) resolvePayloadReviewer(ctx context.Context, payload Payload) (*DirectoryUser, error) {
	role, err := e.directory.RoleOf(ctx, *payload.ReviewerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: reviewer %s", ErrNotFound, payload.ReviewerID)
		}
		return nil, fmt.Errorf("resolve reviewer %s: %w", payload.ReviewerID, err)
	}
	if role != RoleSecretaireRedaction {
		return nil, fmt.Errorf("%w: reviewer must hold role %q", ErrMissingPayload, RoleSecretaireRedaction)
	}
	return &DirectoryUser{ID: *payload.ReviewerID, Role: role}, nil
}

func (e *Engine) buildStep(article *Article, actor Actor, action Action, t transition, payload Payload, newReviewer *uuid.UUID, now time.Time) *Step {
	step := &Step{
		ID:         uuid.New(),
		ArticleID:  article.ID,
		FromUserID: ptr(actor.ID),
		ToUserID:   newReviewer,
		Action:     t.stepAction,
		Status:     StepStatusPending,
		Comment:    optional(payload.Comment),
		CreatedAt:  now,
	}

	switch action {
	case ActionReject:
		step.Status = StepStatusRejected
		step.ActionAt = &now
		if step.Comment == nil {
			step.Comment = optional(payload.Reason)
		}
		// The author picks the work back up.
		step.ToUserID = ptr(article.CreatedBy)
	case ActionPublish:
		step.Status = StepStatusCompleted
		step.ActionAt = &now
		step.ToUserID = ptr(article.CreatedBy)
	}

	return step
}

func (e *Engine) buildNotifications(article *Article, actor Actor, action Action, t transition, payload Payload, newReviewer *uuid.UUID) []NotificationIntent {
	url := fmt.Sprintf("/dashboard/articles/%s", article.ID)
	meta := map[string]interface{}{
		"article_id":    article.ID.String(),
		"article_title": article.Title,
	}

	var intents []NotificationIntent
	toReviewer := func(ntype, title, message string) {
		if newReviewer == nil {
			return
		}
		intents = append(intents, NotificationIntent{
			RecipientID: *newReviewer,
			Type:        ntype,
			Title:       title,
			Message:     message,
			ActionURL:   url,
			Metadata:    meta,
		})
	}
	toAuthor := func(ntype, title, message string) {
		intents = append(intents, NotificationIntent{
			RecipientID: article.CreatedBy,
			Type:        ntype,
			Title:       title,
			Message:     message,
			ActionURL:   url,
			Metadata:    meta,
		})
	}

	switch action {
	case ActionSubmitForReview:
		toReviewer(NoticeInfo, "Article soumis",
			fmt.Sprintf("\"%s\" a été soumis pour relecture", article.Title))
	case ActionReview:
		toReviewer(NoticeInfo, "Article révisé",
			fmt.Sprintf("\"%s\" a été révisé et est prêt pour approbation", article.Title))
	case ActionApprove:
		if t.next == StateApprovedBySecretary {
			// Secretary sign-off only moves the desk; the author hears
			// about it once the director has approved.
			toReviewer(NoticeInfo, "Article approuvé par le secrétariat",
				fmt.Sprintf("\"%s\" attend l'approbation du directeur", article.Title))
		} else {
			toReviewer(NoticeInfo, "Article prêt pour diffusion",
				fmt.Sprintf("\"%s\" est prêt pour les réseaux sociaux", article.Title))
			toAuthor(NoticeSuccess, "Article approuvé",
				fmt.Sprintf("\"%s\" a été approuvé par le directeur", article.Title))
		}
	case ActionReject:
		toAuthor(NoticeWarning, "Article rejeté",
			fmt.Sprintf("\"%s\" a été rejeté - Raison: %s", article.Title, strings.TrimSpace(payload.Reason)))
	case ActionPublish:
		toAuthor(NoticeSuccess, "Article publié",
			fmt.Sprintf("\"%s\" a été publié avec succès", article.Title))
	}

	return intents
}

func completionStatusFor(action Action) StepStatus {
	if action == ActionReject {
		return StepStatusRejected
	}
	return StepStatusCompleted
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func ptr[T any](v T) *T {
	return &v
}
