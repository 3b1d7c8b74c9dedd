package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/canvass/canvass/pkg/models"
)

// AnswerRepository stores recorded answers. Re-answering a question
// replaces the earlier row for the same (submission, question) pair.
type AnswerRepository struct {
	db *sql.DB
}

// ListBySubmission returns all recorded answers for a submission in
// recording order.
func (r *AnswerRepository) ListBySubmission(ctx context.Context, submissionID string) ([]*models.Answer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, submission_id, question_id, question_text, single_answer,
		       free_text_answer, multiple_choice_answer, photo_url, video_url, created_at
		FROM answers WHERE submission_id = $1 ORDER BY created_at ASC`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers for submission %s: %w", submissionID, err)
	}
	defer rows.Close()

	answers := make([]*models.Answer, 0)

	for rows.Next() {
		var (
			answer models.Answer
			multi  []byte
		)

		err := rows.Scan(&answer.ID, &answer.SubmissionID, &answer.QuestionID,
			&answer.QuestionText, &answer.SingleAnswer, &answer.FreeTextAnswer,
			&multi, &answer.PhotoURL, &answer.VideoURL, &answer.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}

		err = json.Unmarshal(multi, &answer.MultipleChoiceAnswer)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal choices for answer %s: %w", answer.ID, err)
		}

		answers = append(answers, &answer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answers: %w", err)
	}

	return answers, nil
}

// Save records an answer, replacing any earlier answer to the same question
// within the same submission.
func (r *AnswerRepository) Save(ctx context.Context, answer *models.Answer) error {
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now().UTC()
	}

	multi := answer.MultipleChoiceAnswer
	if multi == nil {
		multi = []string{}
	}

	choices, err := json.Marshal(multi)
	if err != nil {
		return fmt.Errorf("failed to marshal choices for answer %s: %w", answer.ID, err)
	}

	transaction, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction for answer %s: %w", answer.ID, err)
	}

	if answer.QuestionID != "" {
		_, err = transaction.ExecContext(ctx,
			"DELETE FROM answers WHERE submission_id = $1 AND question_id = $2",
			answer.SubmissionID, answer.QuestionID)
		if err != nil {
			_ = transaction.Rollback()

			return fmt.Errorf("failed to replace answer for question %s: %w", answer.QuestionID, err)
		}
	}

	_, err = transaction.ExecContext(ctx, `
		INSERT INTO answers (id, submission_id, question_id, question_text, single_answer,
		                     free_text_answer, multiple_choice_answer, photo_url, video_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		answer.ID, answer.SubmissionID, answer.QuestionID, answer.QuestionText,
		answer.SingleAnswer, answer.FreeTextAnswer, choices, answer.PhotoURL,
		answer.VideoURL, answer.CreatedAt)
	if err != nil {
		_ = transaction.Rollback()

		return fmt.Errorf("failed to save answer %s: %w", answer.ID, err)
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit answer %s: %w", answer.ID, err)
	}

	return nil
}
