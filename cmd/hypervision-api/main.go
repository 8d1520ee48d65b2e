package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hypervision/hypervision/pkg/catalog"
	"github.com/hypervision/hypervision/pkg/cmd"
	"github.com/hypervision/hypervision/pkg/eventbus"
	"github.com/hypervision/hypervision/pkg/feedback"
	"github.com/hypervision/hypervision/pkg/flow"
	"github.com/hypervision/hypervision/pkg/log"
	"github.com/hypervision/hypervision/pkg/otelhelper"
	"github.com/hypervision/hypervision/pkg/services"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "hypervision-api",
		Usage:                 "Edit identity-verification flow boards",
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
				Usage:    "Database connection URL for persistence (file path, postgres:// or redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   cmd.EventBusGoChannel,
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka brokers used when the event bus is kafka",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "feedback-api-url",
				Usage:   "Spreadsheet script endpoint storing feedback; feedback is disabled when empty",
				Sources: cli.EnvVars("FEEDBACK_API_URL"),
			},
			&cli.BoolFlag{
				Name:    "feedback-ack",
				Usage:   "Wait for the feedback endpoint to acknowledge writes",
				Sources: cli.EnvVars("FEEDBACK_ACK"),
			},
			&cli.StringFlag{
				Name:    "poll-schedule",
				Usage:   "Cron schedule for polling feedback notifications",
				Value:   feedback.DefaultPollSchedule,
				Sources: cli.EnvVars("NOTIFICATION_POLL_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "frontend-url",
				Usage:   "Editor frontend address that share links point to",
				Value:   services.DefaultShareBaseURL,
				Sources: cli.EnvVars("FRONTEND_URL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing Hypervision API")

	tracer := otelhelper.NoopTracer()

	if command.Bool("tracing") {
		var (
			shutdown otelhelper.ShutdownFunc
			err      error
		)

		tracer, shutdown, err = otelhelper.NewTracer(ctx, "hypervision-api")
		if err != nil {
			return err
		}

		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()
	}

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

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.StringSlice("kafka-brokers"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	if err := subscribeActivityLog(ctx, eventBus, logger); err != nil {
		return err
	}

	boards := services.NewBoard(persistence, catalog.Default(), eventBus, flow.UUIDGenerator{}, tracer, logger)

	feedbackService, poller, err := newFeedbackService(command, boards, eventBus, tracer)
	if err != nil {
		return err
	}

	if poller != nil {
		if err := poller.Start(ctx); err != nil {
			return err
		}

		defer poller.Stop()
	}

	links := services.NewAccessLinks(persistence, log.WithModule("access_links"),
		services.WithShareBaseURL(command.String("frontend-url")),
		services.WithLinkTracer(tracer),
	)

	api := NewAPI(logger, boards, feedbackService, links)

	return api.Start(command.Int("port"))
}

func newFeedbackService(
	command *cli.Command,
	boards *services.Board,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
) (*services.Feedback, *feedback.Poller, error) {
	logger := log.WithModule("feedback")

	cfg := feedback.DefaultConfig(command.String("feedback-api-url"))
	cfg.Acknowledge = command.Bool("feedback-ack")

	client := feedback.NewClient(cfg, logger)

	opts := []services.FeedbackOption{
		services.WithBoards(boards, cfg.Screenshot),
		services.WithPublisher(eventBus),
		services.WithTracer(tracer),
	}

	if !client.Enabled() {
		logger.Warn("Feedback endpoint not configured, feedback is disabled")

		return services.NewFeedback(client, logger, opts...), nil, nil
	}

	poller, err := feedback.NewPoller(client, eventBus, command.String("poll-schedule"), logger)
	if err != nil {
		return nil, nil, err
	}

	opts = append(opts, services.WithPoller(poller))

	return services.NewFeedback(client, logger, opts...), poller, nil
}
