package models

import "time"

// Submission is one respondent's attempt at a survey. IsApproved is
// tri-state: nil while review is pending, then true or false.
type Submission struct {
	ID           string     `json:"id"`
	SurveyID     string     `json:"survey_id"`
	RespondentID string     `json:"respondent_id,omitempty"`
	IsCompleted  bool       `json:"is_completed"`
	IsApproved   *bool      `json:"is_approved,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Rejected reports whether the submission has been explicitly rejected.
func (s *Submission) Rejected() bool {
	return s.IsApproved != nil && !*s.IsApproved
}

// Answer is the recorded response to one question within one submission.
// Exactly one of the payload fields is populated depending on the question
// type. QuestionText is kept alongside QuestionID so answers recorded
// before ids were assigned can still be matched by text.
type Answer struct {
	ID                   string    `json:"id"`
	SubmissionID         string    `json:"submission_id"`
	QuestionID           string    `json:"question_id,omitempty"`
	QuestionText         string    `json:"question_text,omitempty"`
	SingleAnswer         string    `json:"single_answer,omitempty"`
	FreeTextAnswer       string    `json:"free_text_answer,omitempty"`
	MultipleChoiceAnswer []string  `json:"multiple_choice_answer,omitempty"`
	PhotoURL             string    `json:"photo_url,omitempty"`
	VideoURL             string    `json:"video_url,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// HasMedia reports whether the answer carries a photo or video reference.
func (a *Answer) HasMedia() bool {
	return a.PhotoURL != "" || a.VideoURL != ""
}
