package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/canvass/canvass/pkg/models"
	"github.com/canvass/canvass/pkg/persistence"
)

// SurveyRepository stores surveys with the question list serialized as a
// JSONB column. Questions are always read and written as one unit: the
// routing engine needs the whole ordered list anyway.
type SurveyRepository struct {
	db *sql.DB
}

const surveyColumns = "id, name, description, status, questions, owner, created_at, updated_at"

// List returns all non-deleted surveys, newest first.
func (r *SurveyRepository) List(ctx context.Context) ([]*models.Survey, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+surveyColumns+" FROM surveys WHERE deleted_at IS NULL ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	defer rows.Close()

	surveys := make([]*models.Survey, 0)

	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}

		surveys = append(surveys, survey)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate surveys: %w", err)
	}

	return surveys, nil
}

// GetByID retrieves a survey by its ID.
func (r *SurveyRepository) GetByID(ctx context.Context, id string) (*models.Survey, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+surveyColumns+" FROM surveys WHERE id = $1 AND deleted_at IS NULL", id)

	survey, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrSurveyNotFound
	}

	return survey, err
}

// Save upserts a survey.
func (r *SurveyRepository) Save(ctx context.Context, survey *models.Survey) error {
	now := time.Now().UTC()
	if survey.CreatedAt.IsZero() {
		survey.CreatedAt = now
	}

	survey.UpdatedAt = now

	questions, err := json.Marshal(survey.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions for survey %s: %w", survey.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO surveys (id, name, description, status, questions, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			questions = EXCLUDED.questions,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at`,
		survey.ID, survey.Name, survey.Description, survey.Status, questions,
		survey.Owner, survey.CreatedAt, survey.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save survey %s: %w", survey.ID, err)
	}

	return nil
}

// Delete soft deletes a survey by setting deleted_at.
func (r *SurveyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE surveys SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return fmt.Errorf("failed to delete survey %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result for survey %s: %w", id, err)
	}

	if affected == 0 {
		return persistence.ErrSurveyNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row rowScanner) (*models.Survey, error) {
	var (
		survey    models.Survey
		questions []byte
	)

	err := row.Scan(&survey.ID, &survey.Name, &survey.Description, &survey.Status,
		&questions, &survey.Owner, &survey.CreatedAt, &survey.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan survey: %w", err)
	}

	err = json.Unmarshal(questions, &survey.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions for survey %s: %w", survey.ID, err)
	}

	return &survey, nil
}
