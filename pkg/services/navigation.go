package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/canvass/canvass/pkg/eventbus"
	"github.com/canvass/canvass/pkg/events"
	"github.com/canvass/canvass/pkg/models"
	"github.com/canvass/canvass/pkg/otelhelper"
	"github.com/canvass/canvass/pkg/persistence"
	"github.com/canvass/canvass/pkg/routing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NextQuestionResult is the API payload for a resolution: the navigational
// action plus the full next question when the survey continues.
type NextQuestionResult struct {
	routing.Result

	Question *models.Question `json:"question,omitempty"`
}

// Navigation orchestrates next-question resolution for live submissions.
// Resolution itself is stateless; this service adds the persistence lookups
// around it and the terminal side effect of closing out a submission.
type Navigation struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	resolver    *routing.Resolver
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewNavigation creates a navigation service. A nil tracer falls back to
// the global tracer provider.
func NewNavigation(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
	tracer trace.Tracer,
) *Navigation {
	if tracer == nil {
		tracer = otel.Tracer("canvass-navigation")
	}

	return &Navigation{
		persistence: persistence,
		publisher:   publisher,
		resolver:    routing.NewResolver(logger),
		tracer:      tracer,
		logger:      logger.With("module", "navigation_service"),
	}
}

// NextQuestion resolves where the respondent goes after answering
// currentQuestionID. When the resolution ends the survey the submission is
// marked completed and rejected; that write is best-effort and never blocks
// the returned result, since the respondent-facing outcome is already
// decided.
func (n *Navigation) NextQuestion(ctx context.Context, submissionID, currentQuestionID string) (*NextQuestionResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, n.tracer, "navigation.next_question",
		attribute.String(otelhelper.SubmissionIDKey, submissionID),
		attribute.String(otelhelper.QuestionIDKey, currentQuestionID),
	)
	defer span.End()

	submission, err := n.persistence.SubmissionRepository().GetByID(ctx, submissionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	survey, err := n.persistence.SurveyRepository().GetByID(ctx, submission.SurveyID)
	if err != nil {
		// A submission pointing at a missing survey is a data integrity
		// failure, not a routine lookup miss.
		n.logger.ErrorContext(ctx, "Submission references a missing survey",
			"submission_id", submissionID, "survey_id", submission.SurveyID, "error", err)
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.SurveyIDKey, survey.ID))

	current, ok := survey.QuestionByID(currentQuestionID)
	if !ok {
		err = NewValidationError(
			"NextQuestion",
			"UNKNOWN_QUESTION",
			fmt.Sprintf("question %q does not belong to survey %s", currentQuestionID, survey.ID),
			ErrUnknownQuestion,
		)
		otelhelper.SetError(span, err)

		return nil, err
	}

	answers, err := n.persistence.AnswerRepository().ListBySubmission(ctx, submissionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to load answers for submission %s: %w", submissionID, err)
	}

	answerMap := routing.BuildAnswerMap(answers, survey.Questions)

	result, err := n.resolver.Resolve(current, survey.Questions, answerMap)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.RoutingActionKey, string(result.Action)))

	response := &NextQuestionResult{Result: result}

	if result.Ends() {
		n.closeOut(ctx, span, submission, currentQuestionID)

		return response, nil
	}

	if result.QuestionIndex != nil {
		question := survey.Questions[*result.QuestionIndex]
		response.Question = &question
	}

	return response, nil
}

// closeOut finalizes a submission after the survey ended: the submission is
// marked completed and auto-rejected pending review. A failed write is
// logged and traced but does not change the navigational outcome.
func (n *Navigation) closeOut(ctx context.Context, span trace.Span, submission *models.Submission, questionID string) {
	err := n.persistence.SubmissionRepository().MarkRejected(ctx, submission.ID)
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to mark submission rejected after survey end",
			"submission_id", submission.ID, "error", err)
		otelhelper.SetError(span, err,
			attribute.String(otelhelper.SubmissionIDKey, submission.ID))
	}

	n.publish(ctx, submission.ID, events.SubmissionCompleted{
		BaseEvent: events.NewBaseEvent(events.SubmissionCompletedEvent, submission.SurveyID, submission.ID),
	})

	n.publish(ctx, submission.ID, events.SubmissionRejected{
		BaseEvent:  events.NewBaseEvent(events.SubmissionRejectedEvent, submission.SurveyID, submission.ID),
		QuestionID: questionID,
	})
}

func (n *Navigation) publish(ctx context.Context, key string, event eventbus.Event) {
	if n.publisher == nil {
		return
	}

	err := n.publisher.Publish(ctx, key, event)
	if err != nil {
		n.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "key", key, "error", err)
	}
}
