// Package main provides the Canvass API server implementation.
package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/canvass/canvass/pkg/eventbus"
	"github.com/canvass/canvass/pkg/persistence"
	"github.com/canvass/canvass/pkg/services"
	"github.com/canvass/canvass/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	labeling    services.LabelingQueue
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	labeling services.LabelingQueue,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		labeling:    labeling,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() (*fiber.App, error) {
	surveyService, err := services.NewSurvey(a.persistence)
	if err != nil {
		return nil, fmt.Errorf("failed to create survey service: %w", err)
	}

	submissionService := services.NewSubmission(a.persistence, a.eventBus, a.labeling, a.logger)
	navigationService := services.NewNavigation(a.persistence, a.eventBus, a.logger, a.tracer)

	handlers := web.NewAPIHandlers(surveyService, submissionService, navigationService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Canvass API")
	})

	s := app.Group("/surveys")
	s.Get("/", handlers.GetSurveys)
	s.Post("/", handlers.CreateSurvey)
	s.Get("/:id", handlers.GetSurvey)
	s.Delete("/:id", handlers.DeleteSurvey)
	s.Post("/:id/submissions", handlers.StartSubmission)

	sub := app.Group("/submissions")
	sub.Get("/:id", handlers.GetSubmission)
	sub.Post("/:id/answers", handlers.RecordAnswer)
	sub.Post("/:id/next-question", handlers.NextQuestion)

	app.Get("/health", handlers.HealthCheck)

	return app, nil
}

func (a *API) Start(port int) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}
