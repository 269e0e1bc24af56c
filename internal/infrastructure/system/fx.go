package system

import (
	"go.uber.org/fx"

	"github.com/haecker-felix/hebbot/internal/domain/news/deps"
)

// Module provides the command runner and restarter for fx DI
var Module = fx.Module("system",
	fx.Provide(
		fx.Annotate(NewShellRunner, fx.As(new(deps.CommandRunner))),
		fx.Annotate(NewRestarter, fx.As(new(deps.Restarter))),
	),
)
