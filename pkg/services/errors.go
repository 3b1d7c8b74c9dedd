// Package services provides the application services sitting between the
// HTTP layer and the persistence/routing layers.
package services

import (
	"errors"
	"fmt"

	"github.com/canvass/canvass/pkg/persistence"
	"github.com/canvass/canvass/pkg/routing"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest      = errors.New("invalid request")
	ErrSurveyNameRequired  = errors.New("survey name is required")
	ErrQuestionsRequired   = errors.New("survey must have at least one question")
	ErrOptionsRequired     = errors.New("single and multi choice questions require options")
	ErrUnknownRuleTarget   = errors.New("routing rule references an unknown question")
	ErrUnknownQuestion     = errors.New("question does not belong to the survey")
	ErrSchemaValidation    = errors.New("survey definition failed schema validation")
	ErrDuplicateQuestionID = errors.New("duplicate question id")

	// Business Logic Conflicts (409 Conflict).
	ErrSurveyNotActive     = errors.New("survey is not accepting submissions")
	ErrSubmissionCompleted = errors.New("submission is already completed")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrSurveyNameRequired) ||
		errors.Is(err, ErrQuestionsRequired) ||
		errors.Is(err, ErrOptionsRequired) ||
		errors.Is(err, ErrUnknownRuleTarget) ||
		errors.Is(err, ErrUnknownQuestion) ||
		errors.Is(err, ErrSchemaValidation) ||
		errors.Is(err, ErrDuplicateQuestionID) ||
		routing.IsMalformedCondition(err)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSurveyNotActive) ||
		errors.Is(err, ErrSubmissionCompleted)
}

// IsNotFoundError checks if an error indicates a missing resource (HTTP 404).
func IsNotFoundError(err error) bool {
	return persistence.IsSurveyNotFound(err) ||
		persistence.IsSubmissionNotFound(err) ||
		persistence.IsAnswerNotFound(err)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
