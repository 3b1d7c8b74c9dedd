package models

// RuleAction is the closed set of navigational actions a routing rule can
// take. Keeping this an enum (rather than comparing raw strings at each
// call site) makes rule dispatch exhaustive.
type RuleAction string

const (
	RuleActionContinue  RuleAction = "continue"
	RuleActionGoto      RuleAction = "goto_question"
	RuleActionEndSurvey RuleAction = "end_survey"
)

// Valid reports whether the action is one of the known variants.
func (a RuleAction) Valid() bool {
	switch a {
	case RuleActionContinue, RuleActionGoto, RuleActionEndSurvey:
		return true
	default:
		return false
	}
}

// ConditionOperator is the comparison applied by a single condition.
type ConditionOperator string

const (
	OperatorEquals        ConditionOperator = "equals"
	OperatorNotEquals     ConditionOperator = "not_equals"
	OperatorContains      ConditionOperator = "contains"
	OperatorNotContains   ConditionOperator = "not_contains"
	OperatorContainsAny   ConditionOperator = "contains_any"
	OperatorContainsAll   ConditionOperator = "contains_all"
	OperatorGreaterThan   ConditionOperator = "greater_than"
	OperatorLessThan      ConditionOperator = "less_than"
	OperatorIsAnswered    ConditionOperator = "is_answered"
	OperatorIsNotAnswered ConditionOperator = "is_not_answered"
)

// Condition is one atomic predicate over a previously recorded answer.
// QuestionID may reference any question in the survey, not just the one
// owning the rule. Value is a scalar for the comparison operators, a list
// for contains_any/contains_all, and absent for the presence operators.
type Condition struct {
	QuestionID string            `json:"question_id" validate:"required"`
	Operator   ConditionOperator `json:"operator"    validate:"required"`
	Value      any               `json:"value,omitempty"`
}

// Rule is one ordered entry in a question's routing rules. Conditions are
// combined with AND. TargetQuestionID is only meaningful when Action is
// goto_question.
type Rule struct {
	Conditions       []Condition `json:"conditions"                   validate:"required,min=1"`
	Action           RuleAction  `json:"action"                       validate:"required,oneof=continue goto_question end_survey"`
	TargetQuestionID string      `json:"target_question_id,omitempty"`
}
