package matrix

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/events"
)

type request struct {
	method string
	path   string
	body   map[string]any
}

type homeserver struct {
	mu       sync.Mutex
	requests []request
	server   *httptest.Server
}

func newHomeserver(t *testing.T) *homeserver {
	hs := &homeserver{}
	hs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)

		hs.mu.Lock()
		hs.requests = append(hs.requests, request{method: r.Method, path: r.URL.Path, body: body})
		hs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "/upload"):
			_, _ = w.Write([]byte(`{"content_uri":"mxc://example.org/uploaded"}`))
		case strings.HasSuffix(r.URL.Path, "/displayname"):
			_, _ = w.Write([]byte(`{"displayname":"Carol"}`))
		default:
			_, _ = w.Write([]byte(`{"event_id":"$sent"}`))
		}
	}))
	t.Cleanup(hs.server.Close)
	return hs
}

func (hs *homeserver) sent(t *testing.T, pathPart string) []request {
	t.Helper()
	hs.mu.Lock()
	defer hs.mu.Unlock()
	var out []request
	for _, r := range hs.requests {
		if strings.Contains(r.path, pathPart) {
			out = append(out, r)
		}
	}
	return out
}

type captureHandler struct {
	mu     sync.Mutex
	events []events.RawEvent
}

func (c *captureHandler) HandleEvent(_ context.Context, raw events.RawEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, raw)
	return nil
}

func newHandlers(t *testing.T, hs *homeserver, uc EventHandler) *Handlers {
	t.Helper()
	client, err := mautrix.NewClient(hs.server.URL, "@hebbot:example.org", "token")
	require.NoError(t, err)

	cfg := &config.MatrixConfig{SendRate: 100, SendBurst: 100}
	return NewHandlers(uc, client, cfg, zerolog.Nop())
}

func TestSendNotice(t *testing.T) {
	hs := newHomeserver(t)
	h := newHandlers(t, hs, &captureHandler{})

	require.NoError(t, h.SendNotice(context.Background(), "!admin:example.org", "plain notice", false))
	require.NoError(t, h.SendNotice(context.Background(), "!admin:example.org", "<b>bold</b><br>next", true))

	sent := hs.sent(t, "/send/m.room.message/")
	require.Len(t, sent, 2)

	assert.Equal(t, http.MethodPut, sent[0].method)
	assert.Contains(t, sent[0].path, "!admin:example.org")
	assert.Equal(t, "m.notice", sent[0].body["msgtype"])
	assert.Equal(t, "plain notice", sent[0].body["body"])
	assert.NotContains(t, sent[0].body, "formatted_body")

	assert.Equal(t, "bold\nnext", sent[1].body["body"])
	assert.Equal(t, "org.matrix.custom.html", sent[1].body["format"])
	assert.Equal(t, "<b>bold</b><br>next", sent[1].body["formatted_body"])
}

func TestSendReaction(t *testing.T) {
	hs := newHomeserver(t)
	h := newHandlers(t, hs, &captureHandler{})

	require.NoError(t, h.SendReaction(context.Background(), "!reporting:example.org", "$m1", "🧱 ?"))

	sent := hs.sent(t, "/send/m.reaction/")
	require.Len(t, sent, 1)
	relates, ok := sent[0].body["m.relates_to"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "$m1", relates["event_id"])
	assert.Equal(t, "🧱 ?", relates["key"])
}

func TestSendFile(t *testing.T) {
	hs := newHomeserver(t)
	h := newHandlers(t, hs, &captureHandler{})

	require.NoError(t, h.SendFile(context.Background(), "!admin:example.org", "rendered.md", "text/markdown", []byte("# Week 2")))

	require.Len(t, hs.sent(t, "/upload"), 1)
	sent := hs.sent(t, "/send/m.room.message/")
	require.Len(t, sent, 1)
	assert.Equal(t, "m.file", sent[0].body["msgtype"])
	assert.Equal(t, "rendered.md", sent[0].body["body"])
	assert.Equal(t, "mxc://example.org/uploaded", sent[0].body["url"])
}

func TestSend_CancelledContext(t *testing.T) {
	hs := newHomeserver(t)
	h := newHandlers(t, hs, &captureHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, h.SendText(ctx, "!admin:example.org", "hello"))
}

func TestHandleEvent_ResolvesDisplayName(t *testing.T) {
	hs := newHomeserver(t)
	uc := &captureHandler{}
	h := newHandlers(t, hs, uc)

	msg := newEvent(event.EventMessage, &event.MessageEventContent{MsgType: event.MsgText, Body: "hebbot: news"})
	h.HandleEvent(context.Background(), msg)
	h.HandleEvent(context.Background(), msg)

	require.Len(t, uc.events, 2)
	assert.Equal(t, "Carol", uc.events[0].SenderDisplayName)
	assert.Equal(t, "Carol", uc.events[1].SenderDisplayName)
	assert.Len(t, hs.sent(t, "/displayname"), 1)
}

func TestHandleEvent_SkipsUnusedEvents(t *testing.T) {
	hs := newHomeserver(t)
	uc := &captureHandler{}
	h := newHandlers(t, hs, uc)

	h.HandleEvent(context.Background(), newEvent(event.EventMessage, &event.MessageEventContent{MsgType: event.MsgEmote, Body: "waves"}))
	h.HandleEvent(context.Background(), newEvent(event.EventReaction, &event.ReactionEventContent{
		RelatesTo: event.RelatesTo{Type: event.RelAnnotation, EventID: "$m1", Key: "⭕"},
	}))

	require.Len(t, uc.events, 1)
	assert.Equal(t, events.PayloadReaction, uc.events[0].Kind)
	assert.Empty(t, uc.events[0].SenderDisplayName)
	assert.Empty(t, hs.sent(t, "/displayname"))
}
