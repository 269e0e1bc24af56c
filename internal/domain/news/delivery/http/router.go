package http

import (
	"github.com/fasthttp/router"
)

// RegisterRoutes registers the news domain endpoints
func RegisterRoutes(r *router.Router, h *Handler) {
	r.GET("/health", h.Health)
}
