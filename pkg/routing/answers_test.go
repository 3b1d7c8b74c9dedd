package routing

import (
	"testing"

	"github.com/canvass/canvass/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildAnswerMap_MatchesByQuestionID(t *testing.T) {
	questions := []models.Question{
		{ID: "q1", Text: "How often do you shop online?", Type: models.QuestionTypeSingle},
		{ID: "q2", Text: "Which brands do you know?", Type: models.QuestionTypeMulti},
	}

	answers := []*models.Answer{
		{ID: "a1", QuestionID: "q1", SingleAnswer: "Weekly"},
		{ID: "a2", QuestionID: "q2", MultipleChoiceAnswer: []string{"Acme"}},
	}

	result := BuildAnswerMap(answers, questions)

	assert.Len(t, result, 2)
	assert.Equal(t, "Weekly", result["q1"].SingleAnswer)
	assert.Equal(t, []string{"Acme"}, result["q2"].MultipleChoiceAnswer)
}

func TestBuildAnswerMap_FallsBackToQuestionText(t *testing.T) {
	questions := []models.Question{
		{ID: "q1", Text: "How often do you shop online?", Type: models.QuestionTypeSingle},
	}

	// Legacy answer recorded before question ids were assigned.
	answers := []*models.Answer{
		{ID: "a1", QuestionText: "How often do you shop online?", SingleAnswer: "Weekly"},
	}

	result := BuildAnswerMap(answers, questions)

	assert.Len(t, result, 1)
	assert.Equal(t, "Weekly", result["q1"].SingleAnswer)
}

func TestBuildAnswerMap_OmitsOrphanedAnswers(t *testing.T) {
	questions := []models.Question{
		{ID: "q1", Text: "How often do you shop online?", Type: models.QuestionTypeSingle},
	}

	answers := []*models.Answer{
		{ID: "a1", QuestionID: "deleted-question", SingleAnswer: "Weekly"},
		{ID: "a2", QuestionText: "A question that no longer exists", SingleAnswer: "Yes"},
		{ID: "a3"},
		nil,
	}

	result := BuildAnswerMap(answers, questions)

	assert.Empty(t, result)
}

func TestBuildQuestionIndex(t *testing.T) {
	questions := []models.Question{
		{ID: "q1"}, {ID: "q2"}, {ID: "q3"},
	}

	index := BuildQuestionIndex(questions)

	assert.Equal(t, map[string]int{"q1": 0, "q2": 1, "q3": 2}, index)
}
