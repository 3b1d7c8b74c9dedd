package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/canvass/canvass/pkg/models"
	"github.com/canvass/canvass/pkg/persistence"
)

// SurveyRepository stores one JSON file per survey under <root>/surveys.
type SurveyRepository struct {
	root string
}

// NewSurveyRepository creates a new survey repository.
func NewSurveyRepository(root string) *SurveyRepository {
	return &SurveyRepository{root: root}
}

func (r *SurveyRepository) dir() string {
	return path.Join(r.root, "surveys")
}

// List returns all surveys, newest first.
func (r *SurveyRepository) List(ctx context.Context) ([]*models.Survey, error) {
	root := os.DirFS(r.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list survey files: %w", err)
	}

	surveys := make([]*models.Survey, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		surveyID := file[:len(file)-5] // Remove .json extension

		survey, err := r.GetByID(ctx, surveyID)
		if err != nil {
			if persistence.IsSurveyNotFound(err) {
				continue
			}

			return nil, err
		}

		surveys = append(surveys, survey)
	}

	sort.Slice(surveys, func(i, j int) bool {
		return surveys[i].CreatedAt.After(surveys[j].CreatedAt)
	})

	return surveys, nil
}

// GetByID retrieves a survey by its ID from the file system.
func (r *SurveyRepository) GetByID(_ context.Context, surveyID string) (*models.Survey, error) {
	filePath := filepath.Clean(path.Join(r.dir(), surveyID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrSurveyNotFound
		}

		return nil, fmt.Errorf("failed to fetch survey %s: %w", surveyID, err)
	}

	var survey models.Survey

	err = json.Unmarshal(body, &survey)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal survey %s: %w", surveyID, err)
	}

	return &survey, nil
}

// Save writes a survey to the file system.
func (r *SurveyRepository) Save(_ context.Context, survey *models.Survey) error {
	err := os.MkdirAll(r.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create surveys directory: %w", err)
	}

	now := time.Now().UTC()
	if survey.CreatedAt.IsZero() {
		survey.CreatedAt = now
	}

	survey.UpdatedAt = now

	data, err := json.MarshalIndent(survey, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal survey %s: %w", survey.ID, err)
	}

	return os.WriteFile(path.Join(r.dir(), survey.ID+".json"), data, 0600)
}

// Delete removes a survey by its ID.
func (r *SurveyRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(path.Join(r.dir(), id+".json"))
	if err != nil && os.IsNotExist(err) {
		return persistence.ErrSurveyNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to delete survey %s: %w", id, err)
	}

	return nil
}
