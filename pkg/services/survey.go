package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/canvass/canvass/pkg/models"
	"github.com/canvass/canvass/pkg/persistence"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// ErrSurveyNotFound is returned when a survey is not found.
var ErrSurveyNotFound = persistence.ErrSurveyNotFound

// surveySchema is the structural contract for imported survey definitions.
// Semantic checks (option lists, rule targets) run after the shape check.
const surveySchema = `{
	"type": "object",
	"required": ["name", "questions"],
	"properties": {
		"name": {"type": "string", "minLength": 3},
		"description": {"type": "string"},
		"status": {"enum": ["draft", "active", "closed"]},
		"owner": {"type": "string"},
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "text", "type"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"text": {"type": "string", "minLength": 1},
					"type": {"enum": ["free_text", "single", "multi", "photo", "video"]},
					"required": {"type": "boolean"},
					"options": {"type": "array", "items": {"type": "string"}},
					"routing_rules": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["conditions", "action"],
							"properties": {
								"conditions": {"type": "array", "minItems": 1},
								"action": {"enum": ["continue", "goto_question", "end_survey"]},
								"target_question_id": {"type": "string"}
							}
						}
					}
				}
			}
		}
	}
}`

// Survey manages survey definitions.
type Survey struct {
	persistence persistence.Persistence
	schema      *gojsonschema.Schema
}

// NewSurvey creates a new survey service.
func NewSurvey(persistence persistence.Persistence) (*Survey, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(surveySchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile survey schema: %w", err)
	}

	return &Survey{
		persistence: persistence,
		schema:      schema,
	}, nil
}

// HealthCheck checks the health of the persistence layer.
func (s *Survey) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates and stores a survey definition supplied as raw JSON.
// Structural validation runs against the JSON schema first so authoring
// tools get positional error messages; semantic validation follows on the
// decoded model.
func (s *Survey) Create(ctx context.Context, raw []byte) (*models.Survey, error) {
	err := s.validateSchema(raw)
	if err != nil {
		return nil, err
	}

	var survey models.Survey

	err = json.Unmarshal(raw, &survey)
	if err != nil {
		return nil, NewValidationError("Create", "INVALID_JSON", err.Error(), ErrInvalidRequest)
	}

	err = s.validateSemantics(&survey)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	survey.ID = uuid.New().String()
	survey.CreatedAt = now
	survey.UpdatedAt = now

	if survey.Status == "" {
		survey.Status = models.SurveyStatusDraft
	}

	err = s.persistence.SurveyRepository().Save(ctx, &survey)
	if err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}

	return &survey, nil
}

// List retrieves all non-deleted surveys.
func (s *Survey) List(ctx context.Context) ([]*models.Survey, error) {
	surveys, err := s.persistence.SurveyRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}

	return surveys, nil
}

// FetchByID retrieves a survey by its ID.
func (s *Survey) FetchByID(ctx context.Context, id string) (*models.Survey, error) {
	return s.persistence.SurveyRepository().GetByID(ctx, id)
}

// Delete removes a survey by its ID.
func (s *Survey) Delete(ctx context.Context, id string) error {
	return s.persistence.SurveyRepository().Delete(ctx, id)
}

func (s *Survey) validateSchema(raw []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return NewValidationError("Create", "INVALID_JSON", err.Error(), ErrInvalidRequest)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return NewValidationError(
			"Create",
			"SCHEMA_VALIDATION",
			strings.Join(descriptions, "; "),
			ErrSchemaValidation,
		)
	}

	return nil
}

// validateSemantics enforces the constraints the JSON schema cannot express:
// unique question ids, option lists on choice questions, and rule targets
// that reference real questions.
func (s *Survey) validateSemantics(survey *models.Survey) error {
	ids := make(map[string]struct{}, len(survey.Questions))
	for _, question := range survey.Questions {
		if _, exists := ids[question.ID]; exists {
			return NewValidationError(
				"Create",
				"DUPLICATE_QUESTION_ID",
				fmt.Sprintf("question id %q appears more than once", question.ID),
				ErrDuplicateQuestionID,
			)
		}

		ids[question.ID] = struct{}{}
	}

	for _, question := range survey.Questions {
		if question.NeedsOptions() && len(question.Options) == 0 {
			return NewValidationError(
				"Create",
				"OPTIONS_REQUIRED",
				fmt.Sprintf("question %q is %s but has no options", question.ID, question.Type),
				ErrOptionsRequired,
			)
		}

		for _, rule := range question.RoutingRules {
			if rule.Action != models.RuleActionGoto {
				continue
			}

			if _, exists := ids[rule.TargetQuestionID]; !exists {
				return NewValidationError(
					"Create",
					"UNKNOWN_RULE_TARGET",
					fmt.Sprintf("question %q routes to unknown question %q", question.ID, rule.TargetQuestionID),
					ErrUnknownRuleTarget,
				)
			}
		}
	}

	return nil
}
