// Package news contains the news domain module
package news

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/classifier"
	"github.com/haecker-felix/hebbot/internal/domain/news/commands"
	httpDelivery "github.com/haecker-felix/hebbot/internal/domain/news/delivery/http"
	matrixDelivery "github.com/haecker-felix/hebbot/internal/domain/news/delivery/matrix"
	"github.com/haecker-felix/hebbot/internal/domain/news/deps"
	"github.com/haecker-felix/hebbot/internal/domain/news/events"
	"github.com/haecker-felix/hebbot/internal/domain/news/persistence"
	"github.com/haecker-felix/hebbot/internal/domain/news/registry"
	"github.com/haecker-felix/hebbot/internal/domain/news/render"
	fileRepo "github.com/haecker-felix/hebbot/internal/domain/news/repository/file"
	kafkaRepo "github.com/haecker-felix/hebbot/internal/domain/news/repository/kafka"
	postgresRepo "github.com/haecker-felix/hebbot/internal/domain/news/repository/postgres"
	"github.com/haecker-felix/hebbot/internal/domain/news/usecase/buissines"
	"github.com/haecker-felix/hebbot/internal/infrastructure/http/server"
	"github.com/haecker-felix/hebbot/internal/infrastructure/matrix"
	"github.com/haecker-felix/hebbot/internal/infrastructure/metrics"
)

// Module provides news domain components for fx dependency injection
var Module = fx.Module("news",
	// Core
	fx.Provide(provideClassifier),
	fx.Provide(provideNormalizer),
	fx.Provide(provideRegistry),

	// Repository
	fx.Provide(provideSnapshotStore),
	fx.Provide(providePublisher),
	fx.Provide(provideWriter),

	// Render
	fx.Provide(provideRenderer),

	// Commands
	fx.Provide(provideDispatcher),

	// UseCase
	fx.Provide(provideUseCase),

	// Delivery - Matrix (needs raw client from infrastructure)
	fx.Provide(provideMatrixHandlers),
	fx.Provide(matrixDelivery.NewRouter),

	// Delivery - HTTP
	fx.Provide(provideHTTPHandler),

	// Wire cyclic dependency, register routes and start the event loop
	fx.Invoke(wireAndRegister),
)

func provideClassifier(holder *config.Holder, logger zerolog.Logger) *classifier.Classifier {
	return classifier.New(holder, logger)
}

func provideNormalizer(holder *config.Holder, cls *classifier.Classifier, logger zerolog.Logger) *events.Normalizer {
	return events.NewNormalizer(holder, cls, logger)
}

func provideRegistry(holder *config.Holder) *registry.Registry {
	return registry.New(holder)
}

// provideSnapshotStore selects the snapshot backend from STORE_DRIVER
func provideSnapshotStore(cfg *config.StoreConfig, db *gorm.DB, logger zerolog.Logger) (deps.SnapshotStore, error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres store selected without a database connection")
		}
		return postgresRepo.NewStore(db, logger)
	default:
		return fileRepo.NewStore(cfg.Path, logger), nil
	}
}

// providePublisher creates the change feed producer, or a no-op publisher without brokers
func providePublisher(lc fx.Lifecycle, cfg *config.KafkaConfig, m *metrics.Metrics, logger zerolog.Logger) deps.ChangePublisher {
	if len(cfg.Brokers) == 0 {
		logger.Info().Msg("Kafka brokers not configured, change feed disabled")
		return kafkaRepo.NopPublisher{}
	}

	producer := kafkaRepo.NewProducer(cfg, m, logger)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return producer.Close()
		},
	})
	return producer
}

func provideWriter(store deps.SnapshotStore, m *metrics.Metrics, logger zerolog.Logger) *persistence.Writer {
	return persistence.NewWriter(store, m, logger)
}

func provideRenderer(holder *config.Holder, cfg *config.RenderConfig, logger zerolog.Logger) (*render.Coordinator, error) {
	engine, err := render.NewEngine(cfg.TemplatePath)
	if err != nil {
		return nil, err
	}
	return render.NewCoordinator(holder, engine, logger), nil
}

type dispatcherParams struct {
	fx.In

	Holder    *config.Holder
	Registry  *registry.Registry
	Writer    *persistence.Writer
	Renderer  *render.Coordinator
	Actions   *classifier.Classifier
	Runner    deps.CommandRunner
	Restarter deps.Restarter
	Publisher deps.ChangePublisher
	Archive   deps.RenderArchive
	Client    *matrix.Client
	Render    *config.RenderConfig
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

func provideDispatcher(p dispatcherParams) *commands.Dispatcher {
	return commands.NewDispatcher(commands.Params{
		Config:      p.Holder,
		Registry:    p.Registry,
		Writer:      p.Writer,
		Renderer:    p.Renderer,
		Actions:     p.Actions,
		Runner:      p.Runner,
		Restarter:   p.Restarter,
		Publisher:   p.Publisher,
		Archive:     p.Archive,
		Homeserver:  p.Client.Homeserver(),
		HTMLPreview: p.Render.HTMLPreview,
		Recorder:    p.Metrics,
		Logger:      p.Logger,
	})
}

func provideUseCase(
	holder *config.Holder,
	normalizer *events.Normalizer,
	cls *classifier.Classifier,
	reg *registry.Registry,
	writer *persistence.Writer,
	dispatcher *commands.Dispatcher,
	publisher deps.ChangePublisher,
	logger zerolog.Logger,
) *buissines.UseCase {
	return buissines.NewUseCase(holder, normalizer, cls, reg, writer, dispatcher, publisher, logger)
}

// provideMatrixHandlers creates Matrix handlers with raw client
func provideMatrixHandlers(uc *buissines.UseCase, client *matrix.Client, cfg *config.MatrixConfig, logger zerolog.Logger) *matrixDelivery.Handlers {
	return matrixDelivery.NewHandlers(uc, client.Raw(), cfg, logger)
}

func provideHTTPHandler(reg *registry.Registry, logger zerolog.Logger) *httpDelivery.Handler {
	return httpDelivery.NewHandler(reg, logger)
}

// wireAndRegister resolves cyclic dependency, registers routes and hooks the
// event loop into the application lifecycle
func wireAndRegister(
	lc fx.Lifecycle,
	uc *buissines.UseCase,
	handlers *matrixDelivery.Handlers,
	router *matrixDelivery.Router,
	client *matrix.Client,
	normalizer *events.Normalizer,
	writer *persistence.Writer,
	srv *server.Server,
	httpHandler *httpDelivery.Handler,
	logger zerolog.Logger,
) error {
	// Handlers implements deps.Sender interface
	// This resolves the cyclic dependency: UseCase -> Sender <- Handlers -> UseCase
	uc.SetSender(handlers)

	syncer, err := client.Syncer()
	if err != nil {
		return err
	}
	router.RegisterRoutes(client.Raw(), syncer)

	httpDelivery.RegisterRoutes(srv.Router, httpHandler)

	var cancel context.CancelFunc
	syncDone := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			writer.Start()

			if err := uc.Restore(ctx); err != nil {
				return err
			}
			uc.Start()

			if name, err := client.DisplayName(ctx); err != nil {
				logger.Warn().Err(err).Msg("Display name unavailable, only the user id addresses the bot")
			} else {
				normalizer.SetDisplayName(name)
			}

			// Create a long-lived context for the sync loop
			var syncCtx context.Context
			syncCtx, cancel = context.WithCancel(context.Background())

			// Start sync in a goroutine since it's a blocking call
			go func() {
				defer close(syncDone)
				_ = client.Start(syncCtx)
			}()

			uc.Announce(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
				_ = client.Stop()
				select {
				case <-syncDone:
				case <-ctx.Done():
				}
			}

			if err := uc.Stop(ctx); err != nil {
				logger.Error().Err(err).Msg("Failed to stop event loop")
			}
			return writer.Stop(ctx)
		},
	})

	return nil
}
