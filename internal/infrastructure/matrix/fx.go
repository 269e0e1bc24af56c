package matrix

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/haecker-felix/hebbot/config"
)

// Module provides the Matrix client for fx dependency injection
var Module = fx.Module("matrix",
	fx.Provide(provideClient),
	fx.Invoke(registerLifecycle),
)

// provideClient creates the Matrix client from config
func provideClient(cfg *config.MatrixConfig, logger zerolog.Logger) (*Client, error) {
	return NewClient(cfg, logger)
}

// registerLifecycle logs in and joins the configured rooms before the domain starts syncing
func registerLifecycle(lc fx.Lifecycle, client *Client, holder *config.Holder) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Login(ctx); err != nil {
				return err
			}
			bot := holder.Current()
			return client.JoinRooms(ctx, bot.ReportingRoomID, bot.AdminRoomID)
		},
	})
}
