// Package routing implements the survey routing and branching engine: it
// decides, after each answer, which question the respondent sees next.
// Everything in this package is pure computation over snapshots loaded by
// the caller; there is no I/O and no persisted cursor.
package routing

import "github.com/canvass/canvass/pkg/models"

// AnswerMap is a normalized view of a submission's recorded answers, keyed
// by question id.
type AnswerMap map[string]*models.Answer

// BuildAnswerMap normalizes recorded answers into a question-id keyed map.
// Answers that carry a question id map directly. Legacy answers without one
// are matched to a question by exact text equality, through a text index so
// the fallback stays O(n+m). Answers matching no question are omitted:
// stale or orphaned data must not break resolution.
func BuildAnswerMap(answers []*models.Answer, questions []models.Question) AnswerMap {
	byText := make(map[string]string, len(questions))
	for _, q := range questions {
		byText[q.Text] = q.ID
	}

	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}

	result := make(AnswerMap, len(answers))

	for _, answer := range answers {
		if answer == nil {
			continue
		}

		if answer.QuestionID != "" {
			if _, ok := known[answer.QuestionID]; ok {
				result[answer.QuestionID] = answer
			}

			continue
		}

		if id, ok := byText[answer.QuestionText]; ok && answer.QuestionText != "" {
			result[id] = answer
		}
	}

	return result
}
