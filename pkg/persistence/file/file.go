// Package file provides file-based persistence for surveys, submissions,
// and answers. It is intended for development and tests; production
// deployments use the postgresql implementation.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/canvass/canvass/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of the file system.
type Persistence struct {
	root           string
	surveyRepo     *SurveyRepository
	submissionRepo *SubmissionRepository
	answerRepo     *AnswerRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix on the root is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		surveyRepo:     NewSurveyRepository(cleanRoot),
		submissionRepo: NewSubmissionRepository(cleanRoot),
		answerRepo:     NewAnswerRepository(cleanRoot),
	}
}

// SurveyRepository returns the survey repository implementation.
func (p *Persistence) SurveyRepository() persistence.SurveyRepository {
	return p.surveyRepo
}

// SubmissionRepository returns the submission repository implementation.
func (p *Persistence) SubmissionRepository() persistence.SubmissionRepository {
	return p.submissionRepo
}

// AnswerRepository returns the answer repository implementation.
func (p *Persistence) AnswerRepository() persistence.AnswerRepository {
	return p.answerRepo
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence there is
// nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
