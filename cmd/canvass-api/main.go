package main

import (
	"context"
	"os"
	"time"

	"github.com/canvass/canvass/pkg/cmd"
	"github.com/canvass/canvass/pkg/janitor"
	"github.com/canvass/canvass/pkg/labeling"
	"github.com/canvass/canvass/pkg/log"
	"github.com/canvass/canvass/pkg/otelhelper"
	"github.com/canvass/canvass/pkg/services"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPort        = 9090
	defaultSweepCron   = "*/10 * * * *"
	defaultSweepWindow = 24 * time.Hour
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "canvass-api",
		Usage:                 "Survey routing and submission API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL (file:// or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, memory)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis address for the media labeling queue (empty disables it)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "labeling-queue",
				Usage:   "Redis list name for labeling jobs",
				Sources: cli.EnvVars("LABELING_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "sweep-cron",
				Usage:   "Cron schedule for the abandoned-submission sweeper",
				Value:   defaultSweepCron,
				Sources: cli.EnvVars("SWEEP_CRON"),
			},
			&cli.DurationFlag{
				Name:    "sweep-window",
				Usage:   "Idle duration after which an incomplete submission expires",
				Value:   defaultSweepWindow,
				Sources: cli.EnvVars("SWEEP_WINDOW"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Canvass API")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "canvass-api", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var labelingQueue services.LabelingQueue

			if redisURL := command.String("redis-url"); redisURL != "" {
				queue, err := labeling.NewQueue(ctx, logger, redisURL, "", command.String("labeling-queue"))
				if err != nil {
					return err
				}

				defer func() {
					if err := queue.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close labeling queue", "error", err)
					}
				}()

				labelingQueue = queue
			}

			var tracer trace.Tracer

			if command.Bool("tracing") {
				tracer, err = otelhelper.NewTracer(ctx, "canvass-api")
				if err != nil {
					return err
				}
			}

			submissionService := services.NewSubmission(persistence, eventBus, labelingQueue, logger)

			sweeper, err := janitor.NewSweeper(
				submissionService,
				command.String("sweep-cron"),
				command.Duration("sweep-window"),
				logger,
			)
			if err != nil {
				return err
			}

			err = sweeper.Start(ctx)
			if err != nil {
				return err
			}

			defer func() {
				if err := sweeper.Stop(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to stop sweeper", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				persistence,
				eventBus,
				labelingQueue,
				tracer,
			)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
