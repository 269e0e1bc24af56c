// Package matrix contains the Matrix delivery layer of the news domain
package matrix

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/events"
	"github.com/haecker-felix/hebbot/internal/infrastructure/metrics"
)

// RequestTimeout bounds a single homeserver request
const RequestTimeout = 30 * time.Second

// EventHandler receives converted room events
type EventHandler interface {
	HandleEvent(ctx context.Context, raw events.RawEvent) error
}

// Handlers converts Matrix events for the use case and sends its replies.
// Implements deps.Sender interface
type Handlers struct {
	uc      EventHandler
	client  *mautrix.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu    sync.Mutex
	names map[string]string
}

// NewHandlers creates new Matrix handlers
func NewHandlers(uc EventHandler, client *mautrix.Client, cfg *config.MatrixConfig, logger zerolog.Logger) *Handlers {
	return &Handlers{
		uc:      uc,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
		metrics: metrics.GetDefaultMetrics(),
		logger:  logger.With().Str("component", "matrix_handlers").Logger(),
		names:   make(map[string]string),
	}
}

// HandleEvent converts a timeline event and queues it on the use case
func (h *Handlers) HandleEvent(ctx context.Context, evt *event.Event) {
	raw, ok := ToRawEvent(evt)
	if !ok {
		return
	}

	if raw.Kind == events.PayloadText || raw.Kind == events.PayloadNotice {
		raw.SenderDisplayName = h.displayName(ctx, raw.SenderID)
	}

	if err := h.uc.HandleEvent(ctx, raw); err != nil {
		h.logger.Error().
			Err(err).
			Str("event_id", raw.EventID).
			Str("room_id", raw.RoomID).
			Msg("Failed to queue room event")
	}
}

// displayName returns the profile display name of userID, falling back to the id
func (h *Handlers) displayName(ctx context.Context, userID string) string {
	h.mu.Lock()
	name, ok := h.names[userID]
	h.mu.Unlock()
	if ok {
		return name
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	resp, err := h.client.GetDisplayName(ctx, id.UserID(userID))
	if err != nil || resp.DisplayName == "" {
		h.logger.Debug().Err(err).Str("user_id", userID).Msg("No display name, using user id")
		return userID
	}

	h.mu.Lock()
	h.names[userID] = resp.DisplayName
	h.mu.Unlock()
	return resp.DisplayName
}

// SendText implements deps.Sender interface
func (h *Handlers) SendText(ctx context.Context, roomID, text string) error {
	return h.sendMessage(ctx, roomID, "text", &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    text,
	})
}

// SendNotice implements deps.Sender interface
func (h *Handlers) SendNotice(ctx context.Context, roomID, text string, formatted bool) error {
	content := &event.MessageEventContent{
		MsgType: event.MsgNotice,
		Body:    text,
	}
	if formatted {
		content.Body = PlainText(text)
		content.Format = event.FormatHTML
		content.FormattedBody = text
	}
	return h.sendMessage(ctx, roomID, "notice", content)
}

// SendReaction implements deps.Sender interface
func (h *Handlers) SendReaction(ctx context.Context, roomID, eventID, key string) error {
	return h.send(ctx, "reaction", roomID, func(ctx context.Context) error {
		_, err := h.client.SendReaction(ctx, id.RoomID(roomID), id.EventID(eventID), key)
		return err
	})
}

// SendFile implements deps.Sender interface
func (h *Handlers) SendFile(ctx context.Context, roomID, filename, contentType string, data []byte) error {
	return h.send(ctx, "file", roomID, func(ctx context.Context) error {
		upload, err := h.client.UploadBytesWithName(ctx, data, contentType, filename)
		if err != nil {
			return fmt.Errorf("upload %s: %w", filename, err)
		}

		_, err = h.client.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, &event.MessageEventContent{
			MsgType:  event.MsgFile,
			Body:     filename,
			FileName: filename,
			URL:      upload.ContentURI.CUString(),
			Info: &event.FileInfo{
				MimeType: contentType,
				Size:     len(data),
			},
		})
		return err
	})
}

func (h *Handlers) sendMessage(ctx context.Context, roomID, kind string, content *event.MessageEventContent) error {
	return h.send(ctx, kind, roomID, func(ctx context.Context) error {
		_, err := h.client.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, content)
		return err
	})
}

// send applies the rate limit and records failed sends
func (h *Handlers) send(ctx context.Context, kind, roomID string, fn func(ctx context.Context) error) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		h.metrics.RecordMatrixSendError(kind)
		h.logger.Error().
			Err(err).
			Str("room_id", roomID).
			Str("kind", kind).
			Msg("Failed to send Matrix event")
		return fmt.Errorf("send %s to %s: %w", kind, roomID, err)
	}
	return nil
}

var (
	strict    = bluemonday.StrictPolicy()
	lineBreak = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n")
)

// PlainText renders the fallback body of an HTML notice
func PlainText(formatted string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(lineBreak.Replace(formatted))))
}
