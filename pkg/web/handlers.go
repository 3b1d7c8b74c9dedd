// Package web provides HTTP handlers and REST API endpoints for the survey platform.
package web

import (
	"net/http"
	"time"

	"github.com/canvass/canvass/pkg/models"
	"github.com/canvass/canvass/pkg/persistence"
	"github.com/canvass/canvass/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	surveyService     *services.Survey
	submissionService *services.Submission
	navigationService *services.Navigation
	validator         *validator.Validate
}

func NewAPIHandlers(
	surveyService *services.Survey,
	submissionService *services.Submission,
	navigationService *services.Navigation,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		surveyService:     surveyService,
		submissionService: submissionService,
		navigationService: navigationService,
		validator:         validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.surveyService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Canvass API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Canvass API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// CreateSurvey imports a survey definition. The raw body goes straight to
// the service so schema validation can report positional errors.
func (h *APIHandlers) CreateSurvey(c fiber.Ctx) error {
	created, err := h.surveyService.Create(c.Context(), c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetSurveys(c fiber.Ctx) error {
	surveys, err := h.surveyService.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"surveys":     surveys,
		"total_count": len(surveys),
	})
}

func (h *APIHandlers) GetSurvey(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Survey ID is required")
	}

	survey, err := h.surveyService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsSurveyNotFound(err) {
			return notFound(c, "Survey not found")
		}

		return internalError(c, err)
	}

	return c.JSON(survey)
}

func (h *APIHandlers) DeleteSurvey(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Survey ID is required")
	}

	err := h.surveyService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsSurveyNotFound(err) {
			return notFound(c, "Survey not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// StartSubmission opens a submission against an active survey. The body is
// optional; an anonymous submission has no respondent id.
func (h *APIHandlers) StartSubmission(c fiber.Ctx) error {
	surveyID := c.Params("id")
	if surveyID == "" {
		return badRequest(c, "Survey ID is required")
	}

	var req StartSubmissionRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	submission, err := h.submissionService.Start(c.Context(), surveyID, req.RespondentID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(submission)
}

func (h *APIHandlers) GetSubmission(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Submission ID is required")
	}

	submission, err := h.submissionService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsSubmissionNotFound(err) {
			return notFound(c, "Submission not found")
		}

		return internalError(c, err)
	}

	return c.JSON(submission)
}

func (h *APIHandlers) RecordAnswer(c fiber.Ctx) error {
	submissionID := c.Params("id")
	if submissionID == "" {
		return badRequest(c, "Submission ID is required")
	}

	var req RecordAnswerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	answer := &models.Answer{
		QuestionID:           req.QuestionID,
		SingleAnswer:         req.SingleAnswer,
		FreeTextAnswer:       req.FreeTextAnswer,
		MultipleChoiceAnswer: req.MultipleChoiceAnswer,
		PhotoURL:             req.PhotoURL,
		VideoURL:             req.VideoURL,
	}

	recorded, err := h.submissionService.RecordAnswer(c.Context(), submissionID, answer)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(recorded)
}

// NextQuestion resolves where the respondent goes after answering the
// current question.
func (h *APIHandlers) NextQuestion(c fiber.Ctx) error {
	submissionID := c.Params("id")
	if submissionID == "" {
		return badRequest(c, "Submission ID is required")
	}

	var req NextQuestionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.navigationService.NextQuestion(c.Context(), submissionID, req.CurrentQuestionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}
