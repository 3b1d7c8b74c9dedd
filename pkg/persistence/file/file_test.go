package file

import (
	"testing"
	"time"

	"github.com/canvass/canvass/pkg/models"
	"github.com/canvass/canvass/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurveyRepository_RoundTrip(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.SurveyRepository()

	survey := &models.Survey{
		ID:     "survey-1",
		Name:   "Shopping habits",
		Status: models.SurveyStatusActive,
		Questions: []models.Question{
			{
				ID:      "q1",
				Text:    "How often do you shop online?",
				Type:    models.QuestionTypeSingle,
				Options: []string{"Often", "Rarely"},
				RoutingRules: []models.Rule{
					{
						Conditions: []models.Condition{
							{QuestionID: "q1", Operator: models.OperatorEquals, Value: "Rarely"},
						},
						Action: models.RuleActionEndSurvey,
					},
				},
			},
			{ID: "q2", Text: "Which brands do you know?", Type: models.QuestionTypeMulti, Options: []string{"A", "B"}},
		},
	}

	require.NoError(t, repo.Save(t.Context(), survey))
	assert.False(t, survey.CreatedAt.IsZero())

	loaded, err := repo.GetByID(t.Context(), "survey-1")
	require.NoError(t, err)
	require.Len(t, loaded.Questions, 2)
	assert.Equal(t, models.RuleActionEndSurvey, loaded.Questions[0].RoutingRules[0].Action)
	assert.Equal(t, "Rarely", loaded.Questions[0].RoutingRules[0].Conditions[0].Value)

	surveys, err := repo.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, surveys, 1)

	require.NoError(t, repo.Delete(t.Context(), "survey-1"))

	_, err = repo.GetByID(t.Context(), "survey-1")
	assert.True(t, persistence.IsSurveyNotFound(err))
}

func TestSurveyRepository_GetMissing(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.SurveyRepository().GetByID(t.Context(), "nope")
	assert.True(t, persistence.IsSurveyNotFound(err))
}

func TestSubmissionRepository_MarkRejected(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.SubmissionRepository()

	submission := &models.Submission{ID: "sub-1", SurveyID: "survey-1"}
	require.NoError(t, repo.Save(t.Context(), submission))

	require.NoError(t, repo.MarkRejected(t.Context(), "sub-1"))

	loaded, err := repo.GetByID(t.Context(), "sub-1")
	require.NoError(t, err)
	assert.True(t, loaded.IsCompleted)
	require.NotNil(t, loaded.IsApproved)
	assert.False(t, *loaded.IsApproved)
	assert.True(t, loaded.Rejected())
}

func TestSubmissionRepository_MarkRejectedMissing(t *testing.T) {
	p := NewPersistence(t.TempDir())

	err := p.SubmissionRepository().MarkRejected(t.Context(), "ghost")
	assert.True(t, persistence.IsSubmissionNotFound(err))
}

func TestSubmissionRepository_ListStaleIncomplete(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.SubmissionRepository()

	stale := &models.Submission{ID: "stale", SurveyID: "survey-1"}
	require.NoError(t, repo.Save(t.Context(), stale))

	done := &models.Submission{ID: "done", SurveyID: "survey-1", IsCompleted: true}
	require.NoError(t, repo.Save(t.Context(), done))

	found, err := repo.ListStaleIncomplete(t.Context(), time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "stale", found[0].ID)

	found, err = repo.ListStaleIncomplete(t.Context(), time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAnswerRepository_SaveAndReplace(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.AnswerRepository()

	first := &models.Answer{ID: "a1", SubmissionID: "sub-1", QuestionID: "q1", SingleAnswer: "Often"}
	require.NoError(t, repo.Save(t.Context(), first))

	second := &models.Answer{ID: "a2", SubmissionID: "sub-1", QuestionID: "q2", MultipleChoiceAnswer: []string{"A"}}
	require.NoError(t, repo.Save(t.Context(), second))

	answers, err := repo.ListBySubmission(t.Context(), "sub-1")
	require.NoError(t, err)
	assert.Len(t, answers, 2)

	// Re-answering the same question replaces the earlier answer.
	replacement := &models.Answer{ID: "a3", SubmissionID: "sub-1", QuestionID: "q1", SingleAnswer: "Rarely"}
	require.NoError(t, repo.Save(t.Context(), replacement))

	answers, err = repo.ListBySubmission(t.Context(), "sub-1")
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "Rarely", answers[0].SingleAnswer)
}

func TestAnswerRepository_EmptySubmission(t *testing.T) {
	p := NewPersistence(t.TempDir())

	answers, err := p.AnswerRepository().ListBySubmission(t.Context(), "sub-1")
	require.NoError(t, err)
	assert.Empty(t, answers)
}
