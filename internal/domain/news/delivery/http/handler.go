// Package http contains the HTTP delivery layer of the news domain
package http

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/haecker-felix/hebbot/pkg/buildinfo"
)

// Counter reports the number of stored news items
type Counter interface {
	Len() int
}

// HealthResponse represents the JSON response for health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	NewsItems int       `json:"news_items"`
	Version   string    `json:"version"`
}

// Handler serves the operational endpoints
type Handler struct {
	registry Counter
	logger   zerolog.Logger
	now      func() time.Time
}

// NewHandler creates a new Handler
func NewHandler(registry Counter, logger zerolog.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   logger.With().Str("component", "http_handler").Logger(),
		now:      time.Now,
	}
}

// Health reports liveness and the registry size
func (h *Handler) Health(ctx *fasthttp.RequestCtx) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		NewsItems: h.registry.Len(),
		Version:   buildinfo.Read().Version,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode health response")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(data)
}
