package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/canvass/canvass/pkg/eventbus"
	"github.com/canvass/canvass/pkg/events"
	"github.com/canvass/canvass/pkg/models"
	"github.com/canvass/canvass/pkg/persistence"
	"github.com/google/uuid"
)

// ErrSubmissionNotFound is returned when a submission is not found.
var ErrSubmissionNotFound = persistence.ErrSubmissionNotFound

// LabelingQueue hands media answers to the labeling pipeline.
type LabelingQueue interface {
	Enqueue(ctx context.Context, answer *models.Answer) error
}

// Submission manages the submission lifecycle: start, answer recording, and
// sweeper-driven expiry.
type Submission struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	labeling    LabelingQueue
	logger      *slog.Logger
}

// NewSubmission creates a new submission service. The labeling queue may be
// nil when no media pipeline is configured.
func NewSubmission(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	labeling LabelingQueue,
	logger *slog.Logger,
) *Submission {
	return &Submission{
		persistence: persistence,
		publisher:   publisher,
		labeling:    labeling,
		logger:      logger.With("module", "submission_service"),
	}
}

// Start creates a submission against an active survey.
func (s *Submission) Start(ctx context.Context, surveyID, respondentID string) (*models.Submission, error) {
	survey, err := s.persistence.SurveyRepository().GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	if survey.Status != models.SurveyStatusActive {
		return nil, ErrSurveyNotActive
	}

	submission := &models.Submission{
		ID:           uuid.New().String(),
		SurveyID:     surveyID,
		RespondentID: respondentID,
	}

	err = s.persistence.SubmissionRepository().Save(ctx, submission)
	if err != nil {
		return nil, fmt.Errorf("failed to start submission: %w", err)
	}

	s.publish(ctx, submission.ID, events.SubmissionStarted{
		BaseEvent:    events.NewBaseEvent(events.SubmissionStartedEvent, surveyID, submission.ID),
		RespondentID: respondentID,
	})

	return submission, nil
}

// FetchByID retrieves a submission by its ID.
func (s *Submission) FetchByID(ctx context.Context, id string) (*models.Submission, error) {
	return s.persistence.SubmissionRepository().GetByID(ctx, id)
}

// RecordAnswer stores one answer within a submission, replacing any earlier
// answer to the same question. Media answers are additionally queued for
// labeling.
func (s *Submission) RecordAnswer(ctx context.Context, submissionID string, answer *models.Answer) (*models.Answer, error) {
	submission, err := s.persistence.SubmissionRepository().GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if submission.IsCompleted {
		return nil, ErrSubmissionCompleted
	}

	survey, err := s.persistence.SurveyRepository().GetByID(ctx, submission.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey %s for submission %s: %w", submission.SurveyID, submissionID, err)
	}

	if answer.QuestionID != "" {
		question, ok := survey.QuestionByID(answer.QuestionID)
		if !ok {
			return nil, NewValidationError(
				"RecordAnswer",
				"UNKNOWN_QUESTION",
				fmt.Sprintf("question %q does not belong to survey %s", answer.QuestionID, survey.ID),
				ErrUnknownQuestion,
			)
		}

		if answer.QuestionText == "" {
			answer.QuestionText = question.Text
		}
	}

	answer.ID = uuid.New().String()
	answer.SubmissionID = submissionID
	answer.CreatedAt = time.Now().UTC()

	err = s.persistence.AnswerRepository().Save(ctx, answer)
	if err != nil {
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}

	// Touch the submission so the sweeper sees recent activity.
	err = s.persistence.SubmissionRepository().Save(ctx, submission)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to refresh submission activity timestamp",
			"submission_id", submissionID, "error", err)
	}

	if s.labeling != nil && answer.HasMedia() {
		err = s.labeling.Enqueue(ctx, answer)
		if err != nil {
			// The answer is already stored; labeling can be replayed later.
			s.logger.ErrorContext(ctx, "Failed to enqueue labeling job",
				"submission_id", submissionID, "answer_id", answer.ID, "error", err)
		}
	}

	s.publish(ctx, submissionID, events.AnswerRecorded{
		BaseEvent:  events.NewBaseEvent(events.AnswerRecordedEvent, submission.SurveyID, submissionID),
		AnswerID:   answer.ID,
		QuestionID: answer.QuestionID,
		HasMedia:   answer.HasMedia(),
	})

	return answer, nil
}

// ExpireStale rejects submissions idle for longer than the window. Returns
// the number of submissions expired.
func (s *Submission) ExpireStale(ctx context.Context, window time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-window)

	stale, err := s.persistence.SubmissionRepository().ListStaleIncomplete(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale submissions: %w", err)
	}

	expired := 0

	for _, submission := range stale {
		err = s.persistence.SubmissionRepository().MarkRejected(ctx, submission.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to expire submission",
				"submission_id", submission.ID, "error", err)

			continue
		}

		expired++

		s.publish(ctx, submission.ID, events.SubmissionExpired{
			BaseEvent: events.NewBaseEvent(events.SubmissionExpiredEvent, submission.SurveyID, submission.ID),
			IdleSince: submission.UpdatedAt,
		})
	}

	return expired, nil
}

// publish emits a lifecycle event. Event delivery is best-effort: a broker
// outage must not fail the respondent-facing operation.
func (s *Submission) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(ctx, key, event)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "key", key, "error", err)
	}
}
