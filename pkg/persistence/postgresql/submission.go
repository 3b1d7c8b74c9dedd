package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/canvass/canvass/pkg/models"
	"github.com/canvass/canvass/pkg/persistence"
)

// SubmissionRepository stores submission lifecycle state.
type SubmissionRepository struct {
	db *sql.DB
}

const submissionColumns = "id, survey_id, respondent_id, is_completed, is_approved, created_at, updated_at"

// GetByID retrieves a submission by its ID.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE id = $1", id)

	submission, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrSubmissionNotFound
	}

	if err != nil {
		return nil, persistence.NewSubmissionError("GetByID", id, err)
	}

	return submission, nil
}

// ListBySurvey returns all submissions belonging to a survey, oldest first.
func (r *SubmissionRepository) ListBySurvey(ctx context.Context, surveyID string) ([]*models.Submission, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE survey_id = $1 ORDER BY created_at ASC", surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for survey %s: %w", surveyID, err)
	}
	defer rows.Close()

	return collectSubmissions(rows)
}

// Save upserts a submission.
func (r *SubmissionRepository) Save(ctx context.Context, submission *models.Submission) error {
	now := time.Now().UTC()
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = now
	}

	submission.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO submissions (id, survey_id, respondent_id, is_completed, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			is_completed = EXCLUDED.is_completed,
			is_approved = EXCLUDED.is_approved,
			updated_at = EXCLUDED.updated_at`,
		submission.ID, submission.SurveyID, submission.RespondentID,
		submission.IsCompleted, submission.IsApproved, submission.CreatedAt, submission.UpdatedAt)
	if err != nil {
		return persistence.NewSubmissionError("Save", submission.ID, err)
	}

	return nil
}

// MarkRejected sets is_completed=true and is_approved=false in one write.
func (r *SubmissionRepository) MarkRejected(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE submissions SET is_completed = TRUE, is_approved = FALSE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return persistence.NewSubmissionError("MarkRejected", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewSubmissionError("MarkRejected", id, err)
	}

	if affected == 0 {
		return persistence.ErrSubmissionNotFound
	}

	return nil
}

// ListStaleIncomplete returns incomplete submissions last updated before the cutoff.
func (r *SubmissionRepository) ListStaleIncomplete(ctx context.Context, cutoff time.Time) ([]*models.Submission, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE NOT is_completed AND updated_at < $1 ORDER BY updated_at ASC", cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale submissions: %w", err)
	}
	defer rows.Close()

	return collectSubmissions(rows)
}

func collectSubmissions(rows *sql.Rows) ([]*models.Submission, error) {
	submissions := make([]*models.Submission, 0)

	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}

		submissions = append(submissions, submission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	return submissions, nil
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var (
		submission models.Submission
		approved   sql.NullBool
	)

	err := row.Scan(&submission.ID, &submission.SurveyID, &submission.RespondentID,
		&submission.IsCompleted, &approved, &submission.CreatedAt, &submission.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if approved.Valid {
		submission.IsApproved = &approved.Bool
	}

	return &submission, nil
}
