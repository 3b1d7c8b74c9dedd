package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/canvass/canvass/pkg/models"
)

// AnswerRepository stores all answers of a submission in one JSON file
// under <root>/answers.
type AnswerRepository struct {
	root string
}

// NewAnswerRepository creates a new answer repository.
func NewAnswerRepository(root string) *AnswerRepository {
	return &AnswerRepository{root: root}
}

func (r *AnswerRepository) filePath(submissionID string) string {
	return filepath.Clean(path.Join(r.root, "answers", submissionID+".json"))
}

// ListBySubmission returns all recorded answers for a submission in
// recording order. A submission with no answers yields an empty list.
func (r *AnswerRepository) ListBySubmission(_ context.Context, submissionID string) ([]*models.Answer, error) {
	body, err := os.ReadFile(r.filePath(submissionID))
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Answer{}, nil
		}

		return nil, fmt.Errorf("failed to read answers for submission %s: %w", submissionID, err)
	}

	var answers []*models.Answer

	err = json.Unmarshal(body, &answers)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers for submission %s: %w", submissionID, err)
	}

	return answers, nil
}

// Save appends an answer, or replaces a previously recorded answer to the
// same question.
func (r *AnswerRepository) Save(ctx context.Context, answer *models.Answer) error {
	err := os.MkdirAll(path.Join(r.root, "answers"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create answers directory: %w", err)
	}

	answers, err := r.ListBySubmission(ctx, answer.SubmissionID)
	if err != nil {
		return err
	}

	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now().UTC()
	}

	replaced := false

	for i, existing := range answers {
		if answer.QuestionID != "" && existing.QuestionID == answer.QuestionID {
			answers[i] = answer
			replaced = true

			break
		}
	}

	if !replaced {
		answers = append(answers, answer)
	}

	data, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answers for submission %s: %w", answer.SubmissionID, err)
	}

	return os.WriteFile(r.filePath(answer.SubmissionID), data, 0600)
}
