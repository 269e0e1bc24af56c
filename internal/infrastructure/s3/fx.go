package s3

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/deps"
)

// Module provides the report archive for FX. Without an endpoint the
// archive is disabled and deps.RenderArchive is nil.
var Module = fx.Module("s3",
	fx.Provide(provideArchive),
)

func newConfig(cfg *config.S3Config) *Config {
	return &Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
		PublicURL: cfg.PublicURL,
	}
}

func provideArchive(lc fx.Lifecycle, cfg *config.S3Config, logger zerolog.Logger) (deps.RenderArchive, error) {
	if cfg.Endpoint == "" {
		logger.Info().Msg("S3 endpoint not configured, report archive disabled")
		return nil, nil
	}

	client, err := NewClient(newConfig(cfg), logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info().Msg("initializing S3/MinIO client...")
			if err := client.EnsureBucket(ctx); err != nil {
				return err
			}
			logger.Info().Msg("S3/MinIO client initialized successfully")
			return nil
		},
	})

	return client, nil
}
