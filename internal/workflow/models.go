package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Role is an editorial role held by exactly one profile per user.
type Role string

const (
	RoleJournaliste          Role = "journaliste"
	RoleSecretaireRedaction  Role = "secretaire_redaction"
	RoleDirecteurPublication Role = "directeur_publication"
	RoleSocialMediaManager   Role = "social_media_manager"
)

// State is the workflow stage of an article. Published is terminal.
type State string

const (
	StateDraft               State = "draft"
	StateSubmitted           State = "submitted"
	StateInReview            State = "in_review"
	StateApprovedBySecretary State = "approved_by_secretary"
	StateReadyForSocial      State = "ready_for_social"
	StatePublished           State = "published"
	StateRejected            State = "rejected"
)

// Action is a workflow operation triggered by an actor.
type Action string

const (
	ActionSubmitForReview Action = "submit_for_review"
	ActionReview          Action = "review"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionPublish         Action = "publish"
)

// StepAction is the action recorded on a history step.
type StepAction string

const (
	StepSubmitted StepAction = "submitted"
	StepReviewed  StepAction = "reviewed"
	StepApproved  StepAction = "approved"
	StepRejected  StepAction = "rejected"
	StepPublished StepAction = "published"
)

// StepStatus is the lifecycle status of a history step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusCompleted StepStatus = "completed"
	StepStatusRejected  StepStatus = "rejected"
)

// Article is the workflow projection of an article row. The engine only
// reads and writes the fields below; body, SEO and folder data stay with
// the articles module.
type Article struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Title             string     `json:"title" db:"title"`
	State             State      `json:"workflow_status" db:"workflow_status"`
	CurrentReviewerID *uuid.UUID `json:"current_reviewer_id" db:"current_reviewer_id"`
	CreatedBy         uuid.UUID  `json:"created_by" db:"created_by"`
	SubmittedAt       *time.Time `json:"submitted_at" db:"submitted_at"`
	ReviewedAt        *time.Time `json:"reviewed_at" db:"reviewed_at"`
	ApprovedAt        *time.Time `json:"approved_at" db:"approved_at"`
	PublishedAt       *time.Time `json:"published_at" db:"published_at"`
	RejectionReason   *string    `json:"rejection_reason" db:"rejection_reason"`
	Version           int        `json:"version" db:"version"`
}

// Step is one append-only history record. At most one step per article is
// pending at any time; it is the outstanding work item for the current
// reviewer.
type Step struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	ArticleID  uuid.UUID  `json:"article_id" db:"article_id"`
	FromUserID *uuid.UUID `json:"from_user_id" db:"from_user_id"`
	ToUserID   *uuid.UUID `json:"to_user_id" db:"to_user_id"`
	Action     StepAction `json:"action" db:"action"`
	Status     StepStatus `json:"status" db:"status"`
	Comment    *string    `json:"comment" db:"comment"`
	ActionAt   *time.Time `json:"action_at" db:"action_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// StepCompletion closes the pending step of an article. The step keeps
// the action it was created with.
type StepCompletion struct {
	Status  StepStatus
	Comment *string
}

// Actor is the user attempting a transition, with the role resolved from
// the user directory.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// DirectoryUser is a user as seen by the directory collaborator.
type DirectoryUser struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
	Role Role      `json:"role" db:"role"`
}

// Payload carries the optional inputs of a transition.
type Payload struct {
	ReviewerID *uuid.UUID `json:"reviewer_id"`
	Comment    string     `json:"comment"`
	Reason     string     `json:"reason"`
}

// NotificationIntent is one notification the executor dispatches after a
// transition commits. Best effort only.
type NotificationIntent struct {
	RecipientID uuid.UUID
	Type        string
	Title       string
	Message     string
	ActionURL   string
	Metadata    map[string]interface{}
}

// Notification severity levels, matching the product's notification center.
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeWarning = "warning"
)

// TimestampField names the article timestamp a transition stamps. Each is
// set exactly once and never cleared.
type TimestampField string

const (
	TimestampNone      TimestampField = ""
	TimestampSubmitted TimestampField = "submitted_at"
	TimestampReviewed  TimestampField = "reviewed_at"
	TimestampApproved  TimestampField = "approved_at"
	TimestampPublished TimestampField = "published_at"
)

// TransitionResult is the engine's instruction set for one transition. The
// engine performs no writes itself; the executor applies the result.
type TransitionResult struct {
	NewState        State
	NewReviewerID   *uuid.UUID
	Stamp           TimestampField
	RejectionReason *string
	CompletePrior   *StepCompletion
	Step            *Step
	Notifications   []NotificationIntent
	Warnings        []string
}

// Stats are the per-user workflow counters shown on the dashboard.
type Stats struct {
	MyArticles    map[State]int `json:"my_articles"`
	PendingReview int           `json:"pending_review"`
}
