package routing

import "github.com/canvass/canvass/pkg/models"

// EvaluateRule combines a rule's conditions with AND semantics,
// short-circuiting on the first condition that does not hold. Authoring
// validation guarantees a non-empty condition list; an empty one evaluates
// to true.
func EvaluateRule(rule models.Rule, answers AnswerMap) (bool, error) {
	for _, cond := range rule.Conditions {
		holds, err := EvaluateCondition(cond, answers)
		if err != nil {
			return false, err
		}

		if !holds {
			return false, nil
		}
	}

	return true, nil
}
