// Package persistence provides the data storage abstraction for surveys,
// submissions, and answers.
package persistence

import (
	"context"
	"time"

	"github.com/canvass/canvass/pkg/models"
)

// Persistence is the top level storage handle, exposing one repository per
// aggregate.
type Persistence interface {
	SurveyRepository() SurveyRepository
	SubmissionRepository() SubmissionRepository
	AnswerRepository() AnswerRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// SurveyRepository stores survey definitions. Surveys are written by
// authoring and read-only everywhere else.
type SurveyRepository interface {
	List(ctx context.Context) ([]*models.Survey, error)
	GetByID(ctx context.Context, id string) (*models.Survey, error)
	Save(ctx context.Context, survey *models.Survey) error
	Delete(ctx context.Context, id string) error
}

// SubmissionRepository stores submission lifecycle state.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]*models.Submission, error)
	Save(ctx context.Context, submission *models.Submission) error

	// MarkRejected sets is_completed=true and is_approved=false in one
	// write. Used for rule-driven early exits and sweeper expiry.
	MarkRejected(ctx context.Context, id string) error

	// ListStaleIncomplete returns incomplete submissions whose last update
	// precedes the cutoff.
	ListStaleIncomplete(ctx context.Context, cutoff time.Time) ([]*models.Submission, error)
}

// AnswerRepository stores recorded answers, grouped per submission.
type AnswerRepository interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]*models.Answer, error)
	Save(ctx context.Context, answer *models.Answer) error
}
