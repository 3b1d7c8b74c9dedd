package routing

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/canvass/canvass/pkg/models"
)

// ErrMalformedCondition indicates a condition whose operator/value
// combination is structurally wrong. It points at corrupted authoring data
// and is surfaced to the caller rather than silently routed around.
var ErrMalformedCondition = errors.New("malformed condition")

// Structural limits applied before evaluating a condition. Authoring data
// is user supplied, so oversized values are rejected up front.
const (
	maxConditionListValues  = 100
	maxConditionStringChars = 1000
)

// IsMalformedCondition checks whether err stems from a structurally invalid
// condition.
func IsMalformedCondition(err error) bool {
	return errors.Is(err, ErrMalformedCondition)
}

// EvaluateCondition decides whether one condition holds against the answer
// map. It returns an error only for structurally invalid conditions; a
// well-formed condition over missing or unparsable answer data evaluates to
// false (or true, for the negated operators) instead of failing.
func EvaluateCondition(cond models.Condition, answers AnswerMap) (bool, error) {
	if err := validateCondition(cond); err != nil {
		return false, err
	}

	answer, answered := answers[cond.QuestionID]

	if !answered {
		return cond.Operator == models.OperatorIsNotAnswered, nil
	}

	switch cond.Operator {
	case models.OperatorIsAnswered:
		return true, nil
	case models.OperatorIsNotAnswered:
		return false, nil
	case models.OperatorEquals, models.OperatorNotEquals:
		return evaluateEquality(cond, answer), nil
	case models.OperatorContains:
		return slices.Contains(answer.MultipleChoiceAnswer, scalarString(cond.Value)), nil
	case models.OperatorNotContains:
		return !slices.Contains(answer.MultipleChoiceAnswer, scalarString(cond.Value)), nil
	case models.OperatorContainsAny, models.OperatorContainsAll:
		return evaluateListOverlap(cond, answer), nil
	case models.OperatorGreaterThan, models.OperatorLessThan:
		return evaluateNumeric(cond, answer), nil
	default:
		// Unknown operators are rejected by validateCondition already.
		return false, nil
	}
}

// evaluateEquality compares the condition value against single_answer only.
// A missing single_answer makes both equals and not_equals false: the
// negated operator deliberately does not default to true on missing data.
func evaluateEquality(cond models.Condition, answer *models.Answer) bool {
	if answer.SingleAnswer == "" {
		return false
	}

	matches := answer.SingleAnswer == scalarString(cond.Value)
	if cond.Operator == models.OperatorNotEquals {
		return !matches
	}

	return matches
}

func evaluateListOverlap(cond models.Condition, answer *models.Answer) bool {
	if len(answer.MultipleChoiceAnswer) == 0 {
		return false
	}

	wanted, ok := listStrings(cond.Value)
	if !ok || len(wanted) == 0 {
		return false
	}

	for _, want := range wanted {
		found := slices.Contains(answer.MultipleChoiceAnswer, want)

		if cond.Operator == models.OperatorContainsAny && found {
			return true
		}

		if cond.Operator == models.OperatorContainsAll && !found {
			return false
		}
	}

	return cond.Operator == models.OperatorContainsAll
}

// evaluateNumeric parses both sides as floating point. The answer side is
// single_answer when present, free_text_answer otherwise. Any parse failure
// yields false for either operator.
func evaluateNumeric(cond models.Condition, answer *models.Answer) bool {
	source := answer.SingleAnswer
	if source == "" {
		source = answer.FreeTextAnswer
	}

	left, err := strconv.ParseFloat(source, 64)
	if err != nil {
		return false
	}

	right, ok := scalarFloat(cond.Value)
	if !ok {
		return false
	}

	if cond.Operator == models.OperatorGreaterThan {
		return left > right
	}

	return left < right
}

// validateCondition rejects operator/value combinations that are
// structurally wrong before any evaluation happens. It runs once per
// condition per resolution call.
func validateCondition(cond models.Condition) error {
	switch cond.Operator {
	case models.OperatorIsAnswered, models.OperatorIsNotAnswered:
		if cond.Value != nil {
			return fmt.Errorf("%w: operator %s does not take a value", ErrMalformedCondition, cond.Operator)
		}

	case models.OperatorContainsAny, models.OperatorContainsAll:
		values, ok := listValues(cond.Value)
		if !ok {
			return fmt.Errorf("%w: operator %s requires a list value", ErrMalformedCondition, cond.Operator)
		}

		if len(values) > maxConditionListValues {
			return fmt.Errorf("%w: list value exceeds %d elements", ErrMalformedCondition, maxConditionListValues)
		}

		for _, value := range values {
			if err := validateScalar(cond.Operator, value); err != nil {
				return err
			}
		}

	case models.OperatorEquals, models.OperatorNotEquals,
		models.OperatorContains, models.OperatorNotContains,
		models.OperatorGreaterThan, models.OperatorLessThan:
		if err := validateScalar(cond.Operator, cond.Value); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: unknown operator %q", ErrMalformedCondition, cond.Operator)
	}

	return nil
}

func validateScalar(op models.ConditionOperator, value any) error {
	switch v := value.(type) {
	case string:
		if len(v) > maxConditionStringChars {
			return fmt.Errorf("%w: string value exceeds %d characters", ErrMalformedCondition, maxConditionStringChars)
		}
	case float64, int, int64:
	default:
		return fmt.Errorf("%w: operator %s requires a scalar value, got %T", ErrMalformedCondition, op, value)
	}

	return nil
}

// scalarString renders a scalar condition value for comparison against
// string answers. JSON decoding delivers numbers as float64.
func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func scalarFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}

		return parsed, true
	default:
		return 0, false
	}
}

// listValues normalizes a list-typed condition value. JSON decoding yields
// []any; rules constructed in code may carry []string.
func listValues(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = item
		}

		return result, true
	default:
		return nil, false
	}
}

func listStrings(value any) ([]string, bool) {
	raw, ok := listValues(value)
	if !ok {
		return nil, false
	}

	result := make([]string, 0, len(raw))
	for _, item := range raw {
		result = append(result, scalarString(item))
	}

	return result, true
}
