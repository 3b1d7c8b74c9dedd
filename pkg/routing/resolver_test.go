package routing

import (
	"io"
	"log/slog"
	"testing"

	"github.com/canvass/canvass/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver() *Resolver {
	return NewResolver(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func endSurveyRule(conditions ...models.Condition) models.Rule {
	return models.Rule{Conditions: conditions, Action: models.RuleActionEndSurvey}
}

func gotoRule(target string, conditions ...models.Condition) models.Rule {
	return models.Rule{Conditions: conditions, Action: models.RuleActionGoto, TargetQuestionID: target}
}

func TestResolve_SequentialWithoutRules(t *testing.T) {
	questions := []models.Question{{ID: "q1"}, {ID: "q2"}, {ID: "q3"}}

	result, err := testResolver().Resolve(questions[0], questions, AnswerMap{})
	require.NoError(t, err)

	assert.Equal(t, models.RuleActionContinue, result.Action)
	require.NotNil(t, result.NextQuestionID)
	assert.Equal(t, "q2", *result.NextQuestionID)
	require.NotNil(t, result.QuestionIndex)
	assert.Equal(t, 1, *result.QuestionIndex)
}

func TestResolve_LastQuestionEndsSurvey(t *testing.T) {
	questions := []models.Question{{ID: "q1"}, {ID: "q2"}}

	result, err := testResolver().Resolve(questions[1], questions, AnswerMap{})
	require.NoError(t, err)

	assert.Equal(t, models.RuleActionEndSurvey, result.Action)
	assert.Nil(t, result.NextQuestionID)
	assert.Nil(t, result.QuestionIndex)
	assert.True(t, result.Ends())
}

func TestResolve_CurrentQuestionMissingFromListEndsSurvey(t *testing.T) {
	questions := []models.Question{{ID: "q1"}, {ID: "q2"}}

	result, err := testResolver().Resolve(models.Question{ID: "ghost"}, questions, AnswerMap{})
	require.NoError(t, err)

	assert.Equal(t, models.RuleActionEndSurvey, result.Action)
}

func TestResolve_MatchingRuleEndsSurvey(t *testing.T) {
	questions := []models.Question{
		{
			ID:      "q1",
			Options: []string{"Often", "Sometimes", "Rarely"},
			RoutingRules: []models.Rule{
				endSurveyRule(models.Condition{QuestionID: "q1", Operator: models.OperatorEquals, Value: "Rarely"}),
			},
		},
		{ID: "q2"},
	}

	answers := AnswerMap{"q1": singleAnswer("q1", "Rarely")}

	result, err := testResolver().Resolve(questions[0], questions, answers)
	require.NoError(t, err)

	assert.Equal(t, models.RuleActionEndSurvey, result.Action)
	assert.Nil(t, result.NextQuestionID)
}

func TestResolve_GotoSkipsQuestions(t *testing.T) {
	questions := []models.Question{
		{
			ID: "q1",
			RoutingRules: []models.Rule{
				gotoRule("q4", models.Condition{QuestionID: "q1", Operator: models.OperatorEquals, Value: "No"}),
			},
		},
		{ID: "q2"},
		{ID: "q3"},
		{ID: "q4"},
	}

	answers := AnswerMap{"q1": singleAnswer("q1", "No")}

	result, err := testResolver().Resolve(questions[0], questions, answers)
	require.NoError(t, err)

	assert.Equal(t, models.RuleActionGoto, result.Action)
	require.NotNil(t, result.NextQuestionID)
	assert.Equal(t, "q4", *result.NextQuestionID)
	require.NotNil(t, result.QuestionIndex)
	assert.Equal(t, 3, *result.QuestionIndex)
}

func TestResolve_ContainsOnMultiChoiceEndsSurvey(t *testing.T) {
	questions := []models.Question{
		{
			ID:      "q1",
			Options: []string{"A", "B", "None"},
			RoutingRules: []models.Rule{
				endSurveyRule(models.Condition{QuestionID: "q1", Operator: models.OperatorContains, Value: "None"}),
			},
		},
		{ID: "q2"},
	}

	answers := AnswerMap{"q1": multiAnswer("q1", "A", "None")}

	result, err := testResolver().Resolve(questions[0], questions, answers)
	require.NoError(t, err)

	assert.Equal(t, models.RuleActionEndSurvey, result.Action)
}

func TestResolve_FirstMatchWins(t *testing.T) {
	// Both rules match; the end_survey rule is authored first, so its
	// action must win over the later goto.
	questions := []models.Question{
		{
			ID: "q1",
			RoutingRules: []models.Rule{
				endSurveyRule(models.Condition{QuestionID: "q1", Operator: models.OperatorEquals, Value: "Yes"}),
				gotoRule("q3", models.Condition{QuestionID: "q1", Operator: models.OperatorEquals, Value: "Yes"}),
			},
		},
		{ID: "q2"},
		{ID: "q3"},
	}

	answers := AnswerMap{"q1": singleAnswer("q1", "Yes")}

	result, err := testResolver().Resolve(questions[0], questions, answers)
	require.NoError(t, err)

	assert.Equal(t, models.RuleActionEndSurvey, result.Action)
}

func TestResolve_NoMatchBehavesLikeNoRules(t *testing.T) {
	withRules := []models.Question{
		{
			ID: "q1",
			RoutingRules: []models.Rule{
				endSurveyRule(models.Condition{QuestionID: "q1", Operator: models.OperatorEquals, Value: "Never"}),
			},
		},
		{ID: "q2"},
	}
	withoutRules := []models.Question{{ID: "q1"}, {ID: "q2"}}

	answers := AnswerMap{"q1": singleAnswer("q1", "Often")}

	ruled, err := testResolver().Resolve(withRules[0], withRules, answers)
	require.NoError(t, err)

	plain, err := testResolver().Resolve(withoutRules[0], withoutRules, answers)
	require.NoError(t, err)

	assert.Equal(t, plain, ruled)
}

func TestResolve_ExplicitContinueEqualsSequentialFallback(t *testing.T) {
	questions := []models.Question{
		{
			ID: "q1",
			RoutingRules: []models.Rule{
				{
					Action:     models.RuleActionContinue,
					Conditions: []models.Condition{{QuestionID: "q1", Operator: models.OperatorIsAnswered}},
				},
				// Never reached: first match wins even when it only continues.
				endSurveyRule(models.Condition{QuestionID: "q1", Operator: models.OperatorIsAnswered}),
			},
		},
		{ID: "q2"},
	}

	answers := AnswerMap{"q1": singleAnswer("q1", "anything")}

	result, err := testResolver().Resolve(questions[0], questions, answers)
	require.NoError(t, err)

	assert.Equal(t, models.RuleActionContinue, result.Action)
	require.NotNil(t, result.NextQuestionID)
	assert.Equal(t, "q2", *result.NextQuestionID)
}

func TestResolve_DanglingGotoTargetNeverStrands(t *testing.T) {
	questions := []models.Question{
		{
			ID: "q1",
			RoutingRules: []models.Rule{
				gotoRule("q99", models.Condition{QuestionID: "q1", Operator: models.OperatorEquals, Value: "No"}),
			},
		},
		{ID: "q2"},
	}

	answers := AnswerMap{"q1": singleAnswer("q1", "No")}

	result, err := testResolver().Resolve(questions[0], questions, answers)
	require.NoError(t, err)

	assert.Equal(t, models.RuleActionContinue, result.Action)
	require.NotNil(t, result.NextQuestionID)
	assert.Equal(t, "q2", *result.NextQuestionID)
}

func TestResolve_DanglingGotoOnLastQuestionEndsSurvey(t *testing.T) {
	questions := []models.Question{
		{ID: "q1"},
		{
			ID: "q2",
			RoutingRules: []models.Rule{
				gotoRule("q99", models.Condition{QuestionID: "q2", Operator: models.OperatorIsAnswered}),
			},
		},
	}

	answers := AnswerMap{"q2": singleAnswer("q2", "x")}

	result, err := testResolver().Resolve(questions[1], questions, answers)
	require.NoError(t, err)

	assert.Equal(t, models.RuleActionEndSurvey, result.Action)
}

func TestResolve_MalformedConditionSurfaces(t *testing.T) {
	questions := []models.Question{
		{
			ID: "q1",
			RoutingRules: []models.Rule{
				endSurveyRule(models.Condition{QuestionID: "q1", Operator: models.OperatorContainsAny, Value: "not-a-list"}),
			},
		},
		{ID: "q2"},
	}

	_, err := testResolver().Resolve(questions[0], questions, AnswerMap{"q1": multiAnswer("q1", "A")})
	require.Error(t, err)
	assert.True(t, IsMalformedCondition(err))
}

func TestResolve_IsDeterministic(t *testing.T) {
	questions := []models.Question{
		{
			ID: "q1",
			RoutingRules: []models.Rule{
				gotoRule("q3", models.Condition{QuestionID: "q1", Operator: models.OperatorEquals, Value: "skip"}),
			},
		},
		{ID: "q2"},
		{ID: "q3"},
	}

	answers := AnswerMap{"q1": singleAnswer("q1", "skip")}
	resolver := testResolver()

	first, err := resolver.Resolve(questions[0], questions, answers)
	require.NoError(t, err)

	for range 10 {
		again, err := resolver.Resolve(questions[0], questions, answers)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
