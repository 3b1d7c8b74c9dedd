// Package events defines event types for submission lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a submission lifecycle event on the wire.
type EventType string

// Topic is the single topic carrying all submission lifecycle events.
const Topic = "canvass.submissions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	SubmissionStartedEvent   EventType = "submission.started"
	AnswerRecordedEvent      EventType = "answer.recorded"
	SubmissionCompletedEvent EventType = "submission.completed"
	SubmissionRejectedEvent  EventType = "submission.rejected"
	SubmissionExpiredEvent   EventType = "submission.expired"
)

// BaseEvent carries the fields common to every submission event.
type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	SurveyID     string         `json:"survey_id"`
	SubmissionID string         `json:"submission_id"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a fresh event envelope.
func NewBaseEvent(eventType EventType, surveyID, submissionID string) BaseEvent {
	return BaseEvent{
		ID:           uuid.NewString(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		SurveyID:     surveyID,
		SubmissionID: submissionID,
	}
}

// SubmissionStarted is published when a respondent begins a survey.
type SubmissionStarted struct {
	BaseEvent

	RespondentID string `json:"respondent_id,omitempty"`
}

func (e SubmissionStarted) GetType() EventType {
	return SubmissionStartedEvent
}

// AnswerRecorded is published after an answer is stored.
type AnswerRecorded struct {
	BaseEvent

	AnswerID   string `json:"answer_id"`
	QuestionID string `json:"question_id"`
	HasMedia   bool   `json:"has_media"`
}

func (e AnswerRecorded) GetType() EventType {
	return AnswerRecordedEvent
}

// SubmissionCompleted is published when a respondent reaches the natural end
// of the survey.
type SubmissionCompleted struct {
	BaseEvent
}

func (e SubmissionCompleted) GetType() EventType {
	return SubmissionCompletedEvent
}

// SubmissionRejected is published when a routing rule ends the survey early
// and the submission is auto-rejected.
type SubmissionRejected struct {
	BaseEvent

	QuestionID string `json:"question_id"` // Question whose rule ended the survey
}

func (e SubmissionRejected) GetType() EventType {
	return SubmissionRejectedEvent
}

// SubmissionExpired is published when the sweeper rejects an abandoned
// submission.
type SubmissionExpired struct {
	BaseEvent

	IdleSince time.Time `json:"idle_since"`
}

func (e SubmissionExpired) GetType() EventType {
	return SubmissionExpiredEvent
}
