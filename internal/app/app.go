// Package app contains application bootstrap
package app

import (
	"go.uber.org/fx"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain"
	"github.com/haecker-felix/hebbot/internal/infrastructure"
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		// Configuration
		fx.Provide(config.Out),

		// Infrastructure (logger, metrics, matrix client, storage, http)
		infrastructure.Module,

		// Domain (news business logic)
		domain.Module,
	)
}
