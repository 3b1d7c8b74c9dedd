// Package postgresql provides PostgreSQL persistence for surveys,
// submissions, and answers.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the postgres driver.
	_ "github.com/lib/pq"

	"github.com/canvass/canvass/pkg/persistence"
	"github.com/canvass/canvass/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	surveyRepo     *SurveyRepository
	submissionRepo *SubmissionRepository
	answerRepo     *AnswerRepository
}

// NewPersistence connects to PostgreSQL and runs pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		surveyRepo:     &SurveyRepository{db: database},
		submissionRepo: &SubmissionRepository{db: database},
		answerRepo:     &AnswerRepository{db: database},
	}, nil
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

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS surveys (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				questions JSONB NOT NULL DEFAULT '[]',
				owner TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE TABLE IF NOT EXISTS submissions (
				id TEXT PRIMARY KEY,
				survey_id TEXT NOT NULL REFERENCES surveys(id),
				respondent_id TEXT NOT NULL DEFAULT '',
				is_completed BOOLEAN NOT NULL DEFAULT FALSE,
				is_approved BOOLEAN,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_submissions_survey_id ON submissions(survey_id);
			CREATE INDEX IF NOT EXISTS idx_submissions_stale ON submissions(updated_at) WHERE NOT is_completed;

			CREATE TABLE IF NOT EXISTS answers (
				id TEXT PRIMARY KEY,
				submission_id TEXT NOT NULL REFERENCES submissions(id),
				question_id TEXT NOT NULL DEFAULT '',
				question_text TEXT NOT NULL DEFAULT '',
				single_answer TEXT NOT NULL DEFAULT '',
				free_text_answer TEXT NOT NULL DEFAULT '',
				multiple_choice_answer JSONB NOT NULL DEFAULT '[]',
				photo_url TEXT NOT NULL DEFAULT '',
				video_url TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_answers_submission_id ON answers(submission_id);
		`,
	}
}
