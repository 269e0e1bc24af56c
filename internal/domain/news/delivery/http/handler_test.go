package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type fixedCounter int

func (c fixedCounter) Len() int { return int(c) }

func TestHealth(t *testing.T) {
	h := NewHandler(fixedCounter(3), zerolog.Nop())
	h.now = func() time.Time { return time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC) }

	r := router.New()
	RegisterRoutes(r, h)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI("/health")
	r.Handler(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 3, resp.NewsItems)
	assert.Equal(t, time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC), resp.Timestamp)
	assert.NotEmpty(t, resp.Version)
}
