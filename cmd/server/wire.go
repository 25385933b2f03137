//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"venture-canvas/services/turn-api/internal/config"
	"venture-canvas/services/turn-api/internal/domain/assistant"
	"venture-canvas/services/turn-api/internal/domain/tool"
	"venture-canvas/services/turn-api/internal/domain/transcript"
	turnDomain "venture-canvas/services/turn-api/internal/domain/turn"
	"venture-canvas/services/turn-api/internal/infrastructure/assistantapi"
	"venture-canvas/services/turn-api/internal/infrastructure/auth"
	"venture-canvas/services/turn-api/internal/infrastructure/database"
	"venture-canvas/services/turn-api/internal/infrastructure/logger"
	"venture-canvas/services/turn-api/internal/infrastructure/queue"
	transcriptrepo "venture-canvas/services/turn-api/internal/infrastructure/repository/transcript"
	"venture-canvas/services/turn-api/internal/infrastructure/toolexec"
	"venture-canvas/services/turn-api/internal/interfaces/httpserver"
	"venture-canvas/services/turn-api/internal/webhook"
)

var turnSet = wire.NewSet(
	transcriptrepo.NewRepository,
	wire.Bind(new(transcript.Store), new(*transcriptrepo.Repository)),
	newAssistantGateway,
	wire.Bind(new(assistant.Gateway), new(*assistantapi.Client)),
	newToolExecutor,
	wire.Bind(new(tool.Executor), new(*tool.Registry)),
	newWebhookService,
	wire.Bind(new(webhook.Service), new(*webhook.HTTPService)),
	queue.NewPostgresQueue,
	wire.Bind(new(queue.JobQueue), new(*queue.PostgresQueue)),
	newTurnService,
)

// BuildApplication demonstrates how to assemble the turn service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		turnSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.GetDatabaseWriteDSN(),
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newAssistantGateway(cfg *config.Config) *assistantapi.Client {
	return assistantapi.NewClient(assistantapi.Config{
		BaseURL:     cfg.AssistantAPIURL,
		APIKey:      cfg.AssistantAPIKey,
		AssistantID: cfg.AssistantID,
	})
}

func newToolExecutor(ctx context.Context, cfg *config.Config, log zerolog.Logger) *tool.Registry {
	registry := tool.NewRegistry()
	registerRemoteFunctions(ctx, registry, toolexec.NewClient(cfg.FunctionExecutorURL), log)
	return registry
}

func newWebhookService(cfg *config.Config, log zerolog.Logger) *webhook.HTTPService {
	return webhook.NewHTTPService(log, cfg.WebhookTimeout)
}

func newTurnService(
	store transcript.Store,
	gateway assistant.Gateway,
	executor tool.Executor,
	cfg *config.Config,
	log zerolog.Logger,
) turnDomain.Service {
	service := turnDomain.NewService(store, gateway, executor, turnDomain.Config{
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
		ToolTimeout:     cfg.ToolTimeout,
	}, log)
	if sink, ok := store.(turnDomain.ToolCallSink); ok {
		service.SetToolCallSink(sink)
	}
	return service
}
