package routing

import (
	"log/slog"

	"github.com/canvass/canvass/pkg/models"
)

// Result is the navigational action produced by a resolution. It is never
// persisted. NextQuestionID and QuestionIndex are set unless the action is
// end_survey.
type Result struct {
	Action         models.RuleAction `json:"action"`
	NextQuestionID *string           `json:"next_question_id"`
	QuestionIndex  *int              `json:"question_index"`
}

// Ends reports whether the result terminates the survey.
func (r Result) Ends() bool {
	return r.Action == models.RuleActionEndSurvey
}

// Resolver computes the next navigational action after a question has been
// answered. There is no persisted cursor: position is re-derived from the
// current question id and the answer map on every call, so resolution is
// deterministic and safe to repeat for the same inputs.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver. The logger is only used for the
// degraded-routing cases that are deliberately not errors.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve scans the current question's routing rules in authored order and
// applies the first rule that matches. No match, or an explicit continue
// action, falls back to the next question in authored order. A goto rule
// whose target does not exist degrades to the sequential fallback instead
// of failing: a bad routing configuration must never strand a respondent.
// The only error Resolve returns is a malformed condition, which indicates
// corrupted authoring data and is surfaced rather than swallowed.
func (r *Resolver) Resolve(current models.Question, questions []models.Question, answers AnswerMap) (Result, error) {
	index := BuildQuestionIndex(questions)

	for _, rule := range current.RoutingRules {
		matched, err := EvaluateRule(rule, answers)
		if err != nil {
			return Result{}, err
		}

		if !matched {
			continue
		}

		switch rule.Action {
		case models.RuleActionEndSurvey:
			return Result{Action: models.RuleActionEndSurvey}, nil

		case models.RuleActionGoto:
			if pos, ok := index[rule.TargetQuestionID]; ok {
				return Result{
					Action:         models.RuleActionGoto,
					NextQuestionID: &questions[pos].ID,
					QuestionIndex:  &pos,
				}, nil
			}

			r.logger.Warn("routing rule targets an unknown question, falling back to sequential order",
				"question_id", current.ID,
				"target_question_id", rule.TargetQuestionID)

			return r.sequential(current, questions, index), nil

		default:
			// An explicit continue behaves exactly like no rule matching.
			return r.sequential(current, questions, index), nil
		}
	}

	return r.sequential(current, questions, index), nil
}

// sequential is the default "next question in authored order" behavior.
// The last question, or a current question missing from the index, ends
// the survey.
func (r *Resolver) sequential(current models.Question, questions []models.Question, index map[string]int) Result {
	pos, ok := index[current.ID]
	if !ok || pos >= len(questions)-1 {
		return Result{Action: models.RuleActionEndSurvey}
	}

	next := pos + 1

	return Result{
		Action:         models.RuleActionContinue,
		NextQuestionID: &questions[next].ID,
		QuestionIndex:  &next,
	}
}
