// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrSurveyNotFound indicates a survey was not found by the given identifier.
	ErrSurveyNotFound = errors.New("survey not found")

	// ErrSubmissionNotFound indicates a submission was not found by the given identifier.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrAnswerNotFound indicates an answer was not found by the given identifier.
	ErrAnswerNotFound = errors.New("answer not found")
)

// IsSurveyNotFound checks if an error indicates a missing survey.
func IsSurveyNotFound(err error) bool {
	return errors.Is(err, ErrSurveyNotFound)
}

// IsSubmissionNotFound checks if an error indicates a missing submission.
func IsSubmissionNotFound(err error) bool {
	return errors.Is(err, ErrSubmissionNotFound)
}

// IsAnswerNotFound checks if an error indicates a missing answer.
func IsAnswerNotFound(err error) bool {
	return errors.Is(err, ErrAnswerNotFound)
}

// SubmissionError wraps submission-related errors with operation context.
type SubmissionError struct {
	Op           string // Operation being performed (e.g., "GetByID", "MarkRejected")
	SubmissionID string
	Err          error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s operation failed for submission %s: %v", e.Op, e.SubmissionID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for submission errors.
func (e *SubmissionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewSubmissionError creates a new submission error with context.
func NewSubmissionError(op, submissionID string, err error) *SubmissionError {
	return &SubmissionError{
		Op:           op,
		SubmissionID: submissionID,
		Err:          err,
	}
}
