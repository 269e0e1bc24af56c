// Package infrastructure contains infrastructure layer components
package infrastructure

import (
	"go.uber.org/fx"

	"github.com/haecker-felix/hebbot/internal/infrastructure/database"
	httpfx "github.com/haecker-felix/hebbot/internal/infrastructure/http"
	"github.com/haecker-felix/hebbot/internal/infrastructure/logger"
	"github.com/haecker-felix/hebbot/internal/infrastructure/matrix"
	"github.com/haecker-felix/hebbot/internal/infrastructure/metrics"
	"github.com/haecker-felix/hebbot/internal/infrastructure/s3"
	"github.com/haecker-felix/hebbot/internal/infrastructure/system"
)

// Module aggregates all infrastructure modules
var Module = fx.Module("infrastructure",
	logger.Module,
	database.Module,
	metrics.Module,
	matrix.Module,
	s3.Module,
	system.Module,
	httpfx.Module,
)
