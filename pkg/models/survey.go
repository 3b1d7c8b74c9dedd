// Package models defines the core domain models for survey routing and submissions.
package models

import "time"

// QuestionType identifies the kind of answer a question collects.
type QuestionType string

const (
	QuestionTypeFreeText QuestionType = "free_text"
	QuestionTypeSingle   QuestionType = "single"
	QuestionTypeMulti    QuestionType = "multi"
	QuestionTypePhoto    QuestionType = "photo"
	QuestionTypeVideo    QuestionType = "video"
)

// SurveyStatus represents the lifecycle state of a survey.
type SurveyStatus string

const (
	SurveyStatusDraft  SurveyStatus = "draft"  // Editable, not accepting submissions
	SurveyStatusActive SurveyStatus = "active" // Accepting submissions
	SurveyStatusClosed SurveyStatus = "closed" // Historical, not accepting submissions
)

// Question is one entry in a survey's ordered question list. The routing
// engine treats questions as a read-only snapshot; only survey authoring
// mutates them.
type Question struct {
	ID           string       `json:"id"                      validate:"required"`
	Text         string       `json:"text"                    validate:"required"`
	Type         QuestionType `json:"type"                    validate:"required,oneof=free_text single multi photo video"`
	Required     bool         `json:"required"`
	Options      []string     `json:"options,omitempty"`
	RoutingRules []Rule       `json:"routing_rules,omitempty"`
}

// NeedsOptions reports whether the question type requires an options list.
func (q Question) NeedsOptions() bool {
	return q.Type == QuestionTypeSingle || q.Type == QuestionTypeMulti
}

// Survey is the aggregate owning the ordered question list.
type Survey struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"        validate:"required,min=3"`
	Description string       `json:"description"`
	Status      SurveyStatus `json:"status"`
	Questions   []Question   `json:"questions"`
	Owner       string       `json:"owner"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
}

// QuestionByID returns the question with the given id, if present.
func (s *Survey) QuestionByID(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}

	return Question{}, false
}
