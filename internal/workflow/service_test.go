package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockArticleStore is a mock implementation of the ArticleStore interface
type MockArticleStore struct {
	mock.Mock
}

func (m *MockArticleStore) Load(ctx context.Context, id uuid.UUID) (*Article, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Article), args.Error(1)
}

func (m *MockArticleStore) Save(ctx context.Context, article *Article, expectedState State) error {
	args := m.Called(ctx, article, expectedState)
	return args.Error(0)
}

func (m *MockArticleStore) ListPendingForReviewer(ctx context.Context, reviewerID uuid.UUID) ([]Article, error) {
	args := m.Called(ctx, reviewerID)
	return args.Get(0).([]Article), args.Error(1)
}

func (m *MockArticleStore) CountByStateForAuthor(ctx context.Context, authorID uuid.UUID) (map[State]int, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).(map[State]int), args.Error(1)
}

func (m *MockArticleStore) CountPendingForReviewer(ctx context.Context, reviewerID uuid.UUID) (int, error) {
	args := m.Called(ctx, reviewerID)
	return args.Int(0), args.Error(1)
}

// MockDirectory is a mock implementation of the UserDirectory interface
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) RoleOf(ctx context.Context, userID uuid.UUID) (Role, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(Role), args.Error(1)
}

func (m *MockDirectory) FirstActiveUserWithRole(ctx context.Context, role Role) (*DirectoryUser, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DirectoryUser), args.Error(1)
}

// MockHistoryLog is a mock implementation of the HistoryLog interface
type MockHistoryLog struct {
	mock.Mock
}

func (m *MockHistoryLog) Append(ctx context.Context, step *Step) error {
	args := m.Called(ctx, step)
	return args.Error(0)
}

func (m *MockHistoryLog) CompletePending(ctx context.Context, articleID uuid.UUID, completion StepCompletion, at time.Time) error {
	args := m.Called(ctx, articleID, completion, at)
	return args.Error(0)
}

func (m *MockHistoryLog) ListForArticle(ctx context.Context, articleID uuid.UUID) ([]Step, error) {
	args := m.Called(ctx, articleID)
	return args.Get(0).([]Step), args.Error(1)
}

// MockSink is a mock implementation of the NotificationSink interface
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Send(ctx context.Context, intent NotificationIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

type serviceFixture struct {
	store     *MockArticleStore
	directory *MockDirectory
	history   *MockHistoryLog
	sink      *MockSink
	service   *Service
}

func newServiceFixture(rejectTo State) *serviceFixture {
	store := new(MockArticleStore)
	directory := new(MockDirectory)
	history := new(MockHistoryLog)
	sink := new(MockSink)

	engine := NewEngine(NewMachine(rejectTo), directory)
	service := NewService(store, directory, history, sink, engine, zap.NewNop())

	return &serviceFixture{
		store:     store,
		directory: directory,
		history:   history,
		sink:      sink,
		service:   service,
	}
}

func TestExecuteSubmitForReview(t *testing.T) {
	f := newServiceFixture(StateDraft)
	ctx := context.Background()
	article := draftArticle()

	f.store.On("Load", ctx, article.ID).Return(article, nil)
	f.directory.On("RoleOf", ctx, authorID).Return(RoleJournaliste, nil)
	f.directory.On("RoleOf", ctx, secretaryID).Return(RoleSecretaireRedaction, nil)
	f.store.On("Save", ctx, mock.AnythingOfType("*workflow.Article"), StateDraft).Return(nil)
	f.history.On("Append", ctx, mock.AnythingOfType("*workflow.Step")).Return(nil)
	f.sink.On("Send", ctx, mock.AnythingOfType("workflow.NotificationIntent")).Return(nil)

	result, err := f.service.Execute(ctx, article.ID, authorID, ActionSubmitForReview,
		Payload{ReviewerID: &secretaryID})
	require.NoError(t, err)

	assert.Equal(t, StateSubmitted, result.Article.State)
	assert.Equal(t, secretaryID, *result.Article.CurrentReviewerID)
	assert.Equal(t, 2, result.Article.Version)
	require.NotNil(t, result.Article.SubmittedAt)
	assert.Empty(t, result.Warnings)

	f.store.AssertExpectations(t)
	f.history.AssertExpectations(t)
	f.sink.AssertNumberOfCalls(t, "Send", 1)
}

func TestExecuteValidationFailureLeavesNoTrace(t *testing.T) {
	f := newServiceFixture(StateDraft)
	ctx := context.Background()
	article := articleIn(StateInReview, &authorID)

	f.store.On("Load", ctx, article.ID).Return(article, nil)
	f.directory.On("RoleOf", ctx, authorID).Return(RoleJournaliste, nil)

	_, err := f.service.Execute(ctx, article.ID, authorID, ActionApprove, Payload{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	f.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	f.sink.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestExecuteConflict(t *testing.T) {
	f := newServiceFixture(StateDraft)
	ctx := context.Background()
	article := articleIn(StateReadyForSocial, &socialID)

	f.store.On("Load", ctx, article.ID).Return(article, nil)
	f.directory.On("RoleOf", ctx, directorID).Return(RoleDirecteurPublication, nil)
	f.store.On("Save", ctx, mock.AnythingOfType("*workflow.Article"), StateReadyForSocial).
		Return(ErrConflict)

	_, err := f.service.Execute(ctx, article.ID, directorID, ActionPublish, Payload{})
	assert.ErrorIs(t, err, ErrConflict)

	// A lost race must not leave history or notifications behind.
	f.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	f.sink.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestExecuteArticleNotFound(t *testing.T) {
	f := newServiceFixture(StateDraft)
	ctx := context.Background()
	missing := uuid.New()

	f.store.On("Load", ctx, missing).Return(nil, ErrNotFound)

	_, err := f.service.Execute(ctx, missing, authorID, ActionSubmitForReview,
		Payload{ReviewerID: &secretaryID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExecuteActorWithoutProfile(t *testing.T) {
	f := newServiceFixture(StateDraft)
	ctx := context.Background()
	article := draftArticle()

	f.store.On("Load", ctx, article.ID).Return(article, nil)
	f.directory.On("RoleOf", ctx, authorID).Return(Role(""), ErrNotFound)

	_, err := f.service.Execute(ctx, article.ID, authorID, ActionSubmitForReview,
		Payload{ReviewerID: &secretaryID})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestExecuteStoreOutage(t *testing.T) {
	f := newServiceFixture(StateDraft)
	ctx := context.Background()
	article := draftArticle()

	f.store.On("Load", ctx, article.ID).Return(nil, errors.New("connection refused"))

	_, err := f.service.Execute(ctx, article.ID, authorID, ActionSubmitForReview,
		Payload{ReviewerID: &secretaryID})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestExecuteNotificationFailureIsSwallowed(t *testing.T) {
	f := newServiceFixture(StateDraft)
	ctx := context.Background()
	article := draftArticle()

	f.store.On("Load", ctx, article.ID).Return(article, nil)
	f.directory.On("RoleOf", ctx, authorID).Return(RoleJournaliste, nil)
	f.directory.On("RoleOf", ctx, secretaryID).Return(RoleSecretaireRedaction, nil)
	f.store.On("Save", ctx, mock.AnythingOfType("*workflow.Article"), StateDraft).Return(nil)
	f.history.On("Append", ctx, mock.AnythingOfType("*workflow.Step")).Return(nil)
	f.sink.On("Send", ctx, mock.AnythingOfType("workflow.NotificationIntent")).
		Return(errors.New("smtp down"))

	result, err := f.service.Execute(ctx, article.ID, authorID, ActionSubmitForReview,
		Payload{ReviewerID: &secretaryID})
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, result.Article.State)
}

func TestExecuteHistoryFailureWarnsButCommits(t *testing.T) {
	f := newServiceFixture(StateDraft)
	ctx := context.Background()
	article := articleIn(StateSubmitted, &secretaryID)

	f.store.On("Load", ctx, article.ID).Return(article, nil)
	f.directory.On("RoleOf", ctx, secretaryID).Return(RoleSecretaireRedaction, nil)
	f.directory.On("FirstActiveUserWithRole", ctx, RoleDirecteurPublication).
		Return(&DirectoryUser{ID: directorID, Role: RoleDirecteurPublication}, nil)
	f.store.On("Save", ctx, mock.AnythingOfType("*workflow.Article"), StateSubmitted).Return(nil)
	f.history.On("CompletePending", ctx, article.ID, mock.AnythingOfType("workflow.StepCompletion"), mock.AnythingOfType("time.Time")).
		Return(errors.New("history table locked"))
	f.history.On("Append", ctx, mock.AnythingOfType("*workflow.Step")).
		Return(errors.New("history table locked"))
	f.sink.On("Send", ctx, mock.AnythingOfType("workflow.NotificationIntent")).Return(nil)

	result, err := f.service.Execute(ctx, article.ID, secretaryID, ActionReview, Payload{})
	require.NoError(t, err)
	assert.Equal(t, StateInReview, result.Article.State)
	assert.NotEmpty(t, result.Warnings)
}

func TestExecuteReject(t *testing.T) {
	f := newServiceFixture(StateRejected)
	ctx := context.Background()
	article := articleIn(StateSubmitted, &secretaryID)

	f.store.On("Load", ctx, article.ID).Return(article, nil)
	f.directory.On("RoleOf", ctx, secretaryID).Return(RoleSecretaireRedaction, nil)
	f.store.On("Save", ctx, mock.MatchedBy(func(a *Article) bool {
		return a.State == StateRejected && a.CurrentReviewerID == nil &&
			a.RejectionReason != nil && *a.RejectionReason == "needs sources"
	}), StateSubmitted).Return(nil)
	f.history.On("CompletePending", ctx, article.ID, mock.AnythingOfType("workflow.StepCompletion"), mock.AnythingOfType("time.Time")).Return(nil)
	f.history.On("Append", ctx, mock.AnythingOfType("*workflow.Step")).Return(nil)
	f.sink.On("Send", ctx, mock.MatchedBy(func(i NotificationIntent) bool {
		return i.RecipientID == authorID
	})).Return(nil)

	result, err := f.service.Execute(ctx, article.ID, secretaryID, ActionReject,
		Payload{Reason: "needs sources"})
	require.NoError(t, err)
	assert.Equal(t, StateRejected, result.Article.State)

	f.store.AssertExpectations(t)
	f.sink.AssertExpectations(t)
}

func TestStatsForUser(t *testing.T) {
	f := newServiceFixture(StateDraft)
	ctx := context.Background()

	counts := map[State]int{StateDraft: 2, StatePublished: 5}
	f.store.On("CountByStateForAuthor", ctx, authorID).Return(counts, nil)
	f.store.On("CountPendingForReviewer", ctx, authorID).Return(3, nil)

	stats, err := f.service.StatsForUser(ctx, authorID)
	require.NoError(t, err)
	assert.Equal(t, counts, stats.MyArticles)
	assert.Equal(t, 3, stats.PendingReview)
}

func TestPendingForReviewer(t *testing.T) {
	f := newServiceFixture(StateDraft)
	ctx := context.Background()

	pending := []Article{*articleIn(StateSubmitted, &secretaryID)}
	f.store.On("ListPendingForReviewer", ctx, secretaryID).Return(pending, nil)

	articles, err := f.service.PendingForReviewer(ctx, secretaryID)
	require.NoError(t, err)
	assert.Len(t, articles, 1)
}
