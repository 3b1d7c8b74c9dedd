package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/canvass/canvass/pkg/models"
	"github.com/canvass/canvass/pkg/persistence"
)

// SubmissionRepository stores one JSON file per submission under
// <root>/submissions.
type SubmissionRepository struct {
	root string
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(root string) *SubmissionRepository {
	return &SubmissionRepository{root: root}
}

func (r *SubmissionRepository) dir() string {
	return path.Join(r.root, "submissions")
}

// GetByID retrieves a submission by its ID from the file system.
func (r *SubmissionRepository) GetByID(_ context.Context, id string) (*models.Submission, error) {
	filePath := filepath.Clean(path.Join(r.dir(), id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrSubmissionNotFound
		}

		return nil, persistence.NewSubmissionError("GetByID", id, err)
	}

	var submission models.Submission

	err = json.Unmarshal(body, &submission)
	if err != nil {
		return nil, persistence.NewSubmissionError("GetByID", id, err)
	}

	return &submission, nil
}

// ListBySurvey returns all submissions belonging to a survey, oldest first.
func (r *SubmissionRepository) ListBySurvey(ctx context.Context, surveyID string) ([]*models.Submission, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Submission, 0)

	for _, submission := range all {
		if submission.SurveyID == surveyID {
			result = append(result, submission)
		}
	}

	return result, nil
}

// Save writes a submission to the file system.
func (r *SubmissionRepository) Save(_ context.Context, submission *models.Submission) error {
	err := os.MkdirAll(r.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create submissions directory: %w", err)
	}

	now := time.Now().UTC()
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = now
	}

	submission.UpdatedAt = now

	data, err := json.MarshalIndent(submission, "", "  ")
	if err != nil {
		return persistence.NewSubmissionError("Save", submission.ID, err)
	}

	return os.WriteFile(path.Join(r.dir(), submission.ID+".json"), data, 0600)
}

// MarkRejected sets is_completed=true and is_approved=false.
func (r *SubmissionRepository) MarkRejected(ctx context.Context, id string) error {
	submission, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	rejected := false
	submission.IsCompleted = true
	submission.IsApproved = &rejected

	return r.Save(ctx, submission)
}

// ListStaleIncomplete returns incomplete submissions last updated before the cutoff.
func (r *SubmissionRepository) ListStaleIncomplete(ctx context.Context, cutoff time.Time) ([]*models.Submission, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}

	stale := make([]*models.Submission, 0)

	for _, submission := range all {
		if !submission.IsCompleted && submission.UpdatedAt.Before(cutoff) {
			stale = append(stale, submission)
		}
	}

	return stale, nil
}

func (r *SubmissionRepository) list(ctx context.Context) ([]*models.Submission, error) {
	root := os.DirFS(r.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list submission files: %w", err)
	}

	submissions := make([]*models.Submission, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		submission, err := r.GetByID(ctx, file[:len(file)-5])
		if err != nil {
			if persistence.IsSubmissionNotFound(err) {
				continue
			}

			return nil, err
		}

		submissions = append(submissions, submission)
	}

	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].CreatedAt.Before(submissions[j].CreatedAt)
	})

	return submissions, nil
}
