// Package web provides HTTP request and response types for the survey API.
package web

// StartSubmissionRequest represents the request body for starting a submission.
type StartSubmissionRequest struct {
	RespondentID string `json:"respondent_id,omitempty"`
}

// RecordAnswerRequest represents the request body for recording one answer.
// Exactly one payload field should be set, matching the question type.
type RecordAnswerRequest struct {
	QuestionID           string   `json:"question_id"                      validate:"required"`
	SingleAnswer         string   `json:"single_answer,omitempty"`
	FreeTextAnswer       string   `json:"free_text_answer,omitempty"`
	MultipleChoiceAnswer []string `json:"multiple_choice_answer,omitempty"`
	PhotoURL             string   `json:"photo_url,omitempty"              validate:"omitempty,url"`
	VideoURL             string   `json:"video_url,omitempty"              validate:"omitempty,url"`
}

// NextQuestionRequest represents the request body for resolving the next
// question after the current one was answered.
type NextQuestionRequest struct {
	CurrentQuestionID string `json:"current_question_id" validate:"required"`
}
