package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/canvass/canvass/pkg/models"
	"github.com/canvass/canvass/pkg/persistence"
	"github.com/canvass/canvass/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLabelingQueue struct {
	enqueued []*models.Answer
}

func (q *fakeLabelingQueue) Enqueue(_ context.Context, answer *models.Answer) error {
	q.enqueued = append(q.enqueued, answer)

	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeSurvey() *models.Survey {
	return &models.Survey{
		ID:     "survey-1",
		Name:   "Shopping habits",
		Status: models.SurveyStatusActive,
		Questions: []models.Question{
			{ID: "q1", Text: "How often do you shop online?", Type: models.QuestionTypeSingle, Options: []string{"Often", "Rarely"}},
			{ID: "q2", Text: "Show us your last purchase", Type: models.QuestionTypePhoto},
		},
	}
}

func newSubmissionFixture(t *testing.T) (*Submission, persistence.Persistence, *fakeLabelingQueue) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	require.NoError(t, store.SurveyRepository().Save(t.Context(), activeSurvey()))

	labeling := &fakeLabelingQueue{}
	service := NewSubmission(store, nil, labeling, discardLogger())

	return service, store, labeling
}

func TestSubmission_Start(t *testing.T) {
	service, _, _ := newSubmissionFixture(t)

	submission, err := service.Start(t.Context(), "survey-1", "respondent-9")
	require.NoError(t, err)

	assert.NotEmpty(t, submission.ID)
	assert.Equal(t, "survey-1", submission.SurveyID)
	assert.Equal(t, "respondent-9", submission.RespondentID)
	assert.False(t, submission.IsCompleted)
	assert.Nil(t, submission.IsApproved)
}

func TestSubmission_Start_SurveyNotActive(t *testing.T) {
	service, store, _ := newSubmissionFixture(t)

	draft := activeSurvey()
	draft.ID = "survey-draft"
	draft.Status = models.SurveyStatusDraft
	require.NoError(t, store.SurveyRepository().Save(t.Context(), draft))

	_, err := service.Start(t.Context(), "survey-draft", "")
	assert.ErrorIs(t, err, ErrSurveyNotActive)
	assert.True(t, IsConflictError(err))
}

func TestSubmission_Start_SurveyNotFound(t *testing.T) {
	service, _, _ := newSubmissionFixture(t)

	_, err := service.Start(t.Context(), "missing", "")
	assert.True(t, IsNotFoundError(err))
}

func TestSubmission_RecordAnswer(t *testing.T) {
	service, store, _ := newSubmissionFixture(t)

	submission, err := service.Start(t.Context(), "survey-1", "")
	require.NoError(t, err)

	answer, err := service.RecordAnswer(t.Context(), submission.ID, &models.Answer{
		QuestionID:   "q1",
		SingleAnswer: "Often",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, answer.ID)
	assert.Equal(t, submission.ID, answer.SubmissionID)
	assert.Equal(t, "How often do you shop online?", answer.QuestionText)

	answers, err := store.AnswerRepository().ListBySubmission(t.Context(), submission.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestSubmission_RecordAnswer_UnknownQuestion(t *testing.T) {
	service, _, _ := newSubmissionFixture(t)

	submission, err := service.Start(t.Context(), "survey-1", "")
	require.NoError(t, err)

	_, err = service.RecordAnswer(t.Context(), submission.ID, &models.Answer{
		QuestionID:   "nope",
		SingleAnswer: "Often",
	})
	assert.ErrorIs(t, err, ErrUnknownQuestion)
	assert.True(t, IsValidationError(err))
}

func TestSubmission_RecordAnswer_CompletedSubmission(t *testing.T) {
	service, store, _ := newSubmissionFixture(t)

	submission, err := service.Start(t.Context(), "survey-1", "")
	require.NoError(t, err)

	require.NoError(t, store.SubmissionRepository().MarkRejected(t.Context(), submission.ID))

	_, err = service.RecordAnswer(t.Context(), submission.ID, &models.Answer{
		QuestionID:   "q1",
		SingleAnswer: "Often",
	})
	assert.ErrorIs(t, err, ErrSubmissionCompleted)
	assert.True(t, IsConflictError(err))
}

func TestSubmission_RecordAnswer_MediaEnqueuesLabeling(t *testing.T) {
	service, _, labeling := newSubmissionFixture(t)

	submission, err := service.Start(t.Context(), "survey-1", "")
	require.NoError(t, err)

	answer, err := service.RecordAnswer(t.Context(), submission.ID, &models.Answer{
		QuestionID: "q2",
		PhotoURL:   "https://media.example.com/purchase.jpg",
	})
	require.NoError(t, err)

	require.Len(t, labeling.enqueued, 1)
	assert.Equal(t, answer.ID, labeling.enqueued[0].ID)
}

func TestSubmission_RecordAnswer_TextOnlySkipsLabeling(t *testing.T) {
	service, _, labeling := newSubmissionFixture(t)

	submission, err := service.Start(t.Context(), "survey-1", "")
	require.NoError(t, err)

	_, err = service.RecordAnswer(t.Context(), submission.ID, &models.Answer{
		QuestionID:   "q1",
		SingleAnswer: "Often",
	})
	require.NoError(t, err)

	assert.Empty(t, labeling.enqueued)
}

func TestSubmission_ExpireStale(t *testing.T) {
	service, store, _ := newSubmissionFixture(t)

	idle, err := service.Start(t.Context(), "survey-1", "")
	require.NoError(t, err)

	finished, err := service.Start(t.Context(), "survey-1", "")
	require.NoError(t, err)
	require.NoError(t, store.SubmissionRepository().MarkRejected(t.Context(), finished.ID))

	// A negative window puts the cutoff in the future, so any incomplete
	// submission counts as idle.
	expired, err := service.ExpireStale(t.Context(), -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	loaded, err := store.SubmissionRepository().GetByID(t.Context(), idle.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsCompleted)
	assert.True(t, loaded.Rejected())

	// Nothing is idle beyond a generous window.
	expired, err = service.ExpireStale(t.Context(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, expired)
}
