package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"venture-canvas/services/turn-api/internal/config"
	"venture-canvas/services/turn-api/internal/domain/tool"
	"venture-canvas/services/turn-api/internal/domain/turn"
	"venture-canvas/services/turn-api/internal/infrastructure/assistantapi"
	"venture-canvas/services/turn-api/internal/infrastructure/auth"
	"venture-canvas/services/turn-api/internal/infrastructure/database"
	"venture-canvas/services/turn-api/internal/infrastructure/logger"
	"venture-canvas/services/turn-api/internal/infrastructure/observability"
	"venture-canvas/services/turn-api/internal/infrastructure/queue"
	transcriptrepo "venture-canvas/services/turn-api/internal/infrastructure/repository/transcript"
	"venture-canvas/services/turn-api/internal/infrastructure/toolexec"
	"venture-canvas/services/turn-api/internal/interfaces/httpserver"
	"venture-canvas/services/turn-api/internal/webhook"
	"venture-canvas/services/turn-api/internal/worker"
)

// @title Turn API
// @version 1.0
// @description Drives multi-turn conversations against the assistant service with tool execution, transcript storage, and background turns.
// @contact.name Venture Canvas Team
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HTTPServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HTTPServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.GetDatabaseWriteDSN(),
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.Migrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	transcriptStore := transcriptrepo.NewRepository(db)
	gateway := assistantapi.NewClient(assistantapi.Config{
		BaseURL:     cfg.AssistantAPIURL,
		APIKey:      cfg.AssistantAPIKey,
		AssistantID: cfg.AssistantID,
	})

	executorClient := toolexec.NewClient(cfg.FunctionExecutorURL)
	registry := tool.NewRegistry()
	registerRemoteFunctions(ctx, registry, executorClient, log)

	turnService := turn.NewService(
		transcriptStore,
		gateway,
		registry,
		turn.Config{
			PollInterval:    cfg.PollInterval,
			MaxPollAttempts: cfg.MaxPollAttempts,
			ToolTimeout:     cfg.ToolTimeout,
		},
		log,
	)
	turnService.SetToolCallSink(transcriptStore)

	// Initialize background turn infrastructure
	webhookService := webhook.NewHTTPService(log, cfg.WebhookTimeout)
	jobQueue := queue.NewPostgresQueue(db, log)
	workerPool := worker.NewPool(
		jobQueue,
		turnService,
		webhookService,
		worker.Config{
			WorkerCount: cfg.BackgroundWorkerCount,
			TurnTimeout: cfg.BackgroundTurnTimeout,
		},
		log,
	)

	workerPool.Start(ctx)
	defer func() {
		log.Info().Msg("stopping worker pool")
		workerPool.Stop()
	}()

	httpServer := httpserver.New(cfg, log, turnService, jobQueue, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// registerRemoteFunctions binds every function the executor exposes to the
// registry. An unreachable executor is not fatal; runs that request tools
// will surface unknown-tool errors until the executor comes back.
func registerRemoteFunctions(ctx context.Context, registry *tool.Registry, client *toolexec.Client, log zerolog.Logger) {
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	names, err := client.ListFunctions(listCtx)
	if err != nil {
		log.Warn().Err(err).Msg("list executor functions; continuing without tool registrations")
		return
	}
	for _, name := range names {
		registry.Register(name, client.Handler(name))
	}
	log.Info().Int("count", len(names)).Msg("registered executor functions")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
