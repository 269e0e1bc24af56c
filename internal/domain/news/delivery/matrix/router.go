package matrix

import (
	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
)

// Router registers Matrix event handlers
type Router struct {
	handlers *Handlers
	logger   zerolog.Logger
}

// NewRouter creates new Matrix router
func NewRouter(handlers *Handlers, logger zerolog.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   logger,
	}
}

// RegisterRoutes registers the timeline handlers on the client syncer. The
// timeline of the first sync is skipped, the registry is restored from the
// snapshot instead.
func (r *Router) RegisterRoutes(client *mautrix.Client, syncer *mautrix.DefaultSyncer) {
	syncer.OnSync(client.DontProcessOldEvents)

	syncer.OnEventType(event.EventMessage, r.handlers.HandleEvent)
	syncer.OnEventType(event.EventReaction, r.handlers.HandleEvent)
	syncer.OnEventType(event.EventRedaction, r.handlers.HandleEvent)

	r.logger.Info().Msg("All Matrix event handlers registered successfully")
}
