package postgresql_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/canvass/canvass/pkg/models"
	"github.com/canvass/canvass/pkg/persistence"
	"github.com/canvass/canvass/pkg/persistence/postgresql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func TestMain(m *testing.M) {
	if os.Getenv("SKIP_POSTGRES_TESTS") != "" {
		os.Exit(0)
	}

	os.Exit(m.Run())
}

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Drop tables in reverse dependency order (children first, parents last)
	for _, table := range []string{"answers", "submissions", "surveys", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("canvass_test"),
			postgres.WithUsername("canvass"),
			postgres.WithPassword("canvass"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, p.Close(ctx))
	})

	return p, ctx
}

func testSurvey() *models.Survey {
	return &models.Survey{
		ID:     uuid.NewString(),
		Name:   "Shopping habits",
		Status: models.SurveyStatusActive,
		Questions: []models.Question{
			{
				ID:      "q1",
				Text:    "How often do you shop online?",
				Type:    models.QuestionTypeSingle,
				Options: []string{"Often", "Rarely"},
				RoutingRules: []models.Rule{
					{
						Conditions: []models.Condition{
							{QuestionID: "q1", Operator: models.OperatorEquals, Value: "Rarely"},
						},
						Action: models.RuleActionEndSurvey,
					},
				},
			},
			{ID: "q2", Text: "Anything else?", Type: models.QuestionTypeFreeText},
		},
	}
}

func TestSurveyRepository_RoundTrip(t *testing.T) {
	p, ctx := setupTestDB(t)
	repo := p.SurveyRepository()

	survey := testSurvey()
	require.NoError(t, repo.Save(ctx, survey))

	loaded, err := repo.GetByID(ctx, survey.ID)
	require.NoError(t, err)
	assert.Equal(t, survey.Name, loaded.Name)
	require.Len(t, loaded.Questions, 2)
	assert.Equal(t, models.RuleActionEndSurvey, loaded.Questions[0].RoutingRules[0].Action)

	surveys, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, surveys, 1)

	require.NoError(t, repo.Delete(ctx, survey.ID))

	_, err = repo.GetByID(ctx, survey.ID)
	assert.True(t, persistence.IsSurveyNotFound(err))

	// Deleting twice reports not found.
	err = repo.Delete(ctx, survey.ID)
	assert.True(t, persistence.IsSurveyNotFound(err))
}

func TestSubmissionRepository_Lifecycle(t *testing.T) {
	p, ctx := setupTestDB(t)

	survey := testSurvey()
	require.NoError(t, p.SurveyRepository().Save(ctx, survey))

	submission := &models.Submission{ID: uuid.NewString(), SurveyID: survey.ID}
	require.NoError(t, p.SubmissionRepository().Save(ctx, submission))

	loaded, err := p.SubmissionRepository().GetByID(ctx, submission.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsCompleted)
	assert.Nil(t, loaded.IsApproved)

	require.NoError(t, p.SubmissionRepository().MarkRejected(ctx, submission.ID))

	loaded, err = p.SubmissionRepository().GetByID(ctx, submission.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsCompleted)
	require.NotNil(t, loaded.IsApproved)
	assert.False(t, *loaded.IsApproved)

	bySurvey, err := p.SubmissionRepository().ListBySurvey(ctx, survey.ID)
	require.NoError(t, err)
	assert.Len(t, bySurvey, 1)
}

func TestSubmissionRepository_NotFound(t *testing.T) {
	p, ctx := setupTestDB(t)

	_, err := p.SubmissionRepository().GetByID(ctx, uuid.NewString())
	assert.True(t, persistence.IsSubmissionNotFound(err))

	err = p.SubmissionRepository().MarkRejected(ctx, uuid.NewString())
	assert.True(t, persistence.IsSubmissionNotFound(err))
}

func TestSubmissionRepository_ListStaleIncomplete(t *testing.T) {
	p, ctx := setupTestDB(t)

	survey := testSurvey()
	require.NoError(t, p.SurveyRepository().Save(ctx, survey))

	submission := &models.Submission{ID: uuid.NewString(), SurveyID: survey.ID}
	require.NoError(t, p.SubmissionRepository().Save(ctx, submission))

	stale, err := p.SubmissionRepository().ListStaleIncomplete(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, submission.ID, stale[0].ID)

	stale, err = p.SubmissionRepository().ListStaleIncomplete(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestAnswerRepository_SaveAndReplace(t *testing.T) {
	p, ctx := setupTestDB(t)

	survey := testSurvey()
	require.NoError(t, p.SurveyRepository().Save(ctx, survey))

	submission := &models.Submission{ID: uuid.NewString(), SurveyID: survey.ID}
	require.NoError(t, p.SubmissionRepository().Save(ctx, submission))

	first := &models.Answer{
		ID:           uuid.NewString(),
		SubmissionID: submission.ID,
		QuestionID:   "q1",
		SingleAnswer: "Often",
	}
	require.NoError(t, p.AnswerRepository().Save(ctx, first))

	second := &models.Answer{
		ID:                   uuid.NewString(),
		SubmissionID:         submission.ID,
		QuestionID:           "q2",
		MultipleChoiceAnswer: []string{"A", "B"},
	}
	require.NoError(t, p.AnswerRepository().Save(ctx, second))

	answers, err := p.AnswerRepository().ListBySubmission(ctx, submission.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, []string{"A", "B"}, answers[1].MultipleChoiceAnswer)

	// Re-answering q1 replaces the earlier row.
	replacement := &models.Answer{
		ID:           uuid.NewString(),
		SubmissionID: submission.ID,
		QuestionID:   "q1",
		SingleAnswer: "Rarely",
	}
	require.NoError(t, p.AnswerRepository().Save(ctx, replacement))

	answers, err = p.AnswerRepository().ListBySubmission(ctx, submission.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)

	var q1Answer string

	for _, answer := range answers {
		if answer.QuestionID == "q1" {
			q1Answer = answer.SingleAnswer
		}
	}

	assert.Equal(t, "Rarely", q1Answer)
}
