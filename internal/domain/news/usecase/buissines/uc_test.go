package buissines

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/classifier"
	"github.com/haecker-felix/hebbot/internal/domain/news/commands"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	"github.com/haecker-felix/hebbot/internal/domain/news/events"
	"github.com/haecker-felix/hebbot/internal/domain/news/persistence"
	"github.com/haecker-felix/hebbot/internal/domain/news/registry"
	"github.com/haecker-felix/hebbot/internal/domain/news/render"
	"github.com/haecker-felix/hebbot/pkg/emoji"
)

const (
	botID     = "@hebbot:example.org"
	editor    = "@editor:example.org"
	reporter  = "@carol:example.org"
	stranger  = "@mallory:example.org"
	reporting = "!reporting:example.org"
	adminRoom = "!admin:example.org"
)

func testBot() *config.Bot {
	return &config.Bot{
		BotUserID:       botID,
		ReportingRoomID: reporting,
		AdminRoomID:     adminRoom,
		MinLength:       10,
		AckText:         "Thanks {{user}}!",
		Verbs:           []string{"says"},
		Editors:         []string{editor},
		Reactions: config.Reactions{
			Approve: []string{"⭕"},
			Media:   []string{"📷"},
		},
		Sections: []config.Section{
			{Key: "core", Emoji: "🏛️", Title: "Core", UsualReporters: []string{reporter}},
		},
		Projects: []config.Project{
			{Key: "gtk", Emoji: "🧱", Title: "GTK", Section: "core"},
		},
	}
}

type notice struct {
	room string
	text string
}

type reaction struct {
	eventID string
	key     string
}

type mockSender struct {
	mu        sync.Mutex
	notices   []notice
	reactions []reaction
}

func (m *mockSender) SendText(_ context.Context, roomID, text string) error {
	return m.SendNotice(context.Background(), roomID, text, false)
}

func (m *mockSender) SendNotice(_ context.Context, roomID, text string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, notice{room: roomID, text: text})
	return nil
}

func (m *mockSender) SendReaction(_ context.Context, _, eventID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions = append(m.reactions, reaction{eventID: eventID, key: key})
	return nil
}

func (m *mockSender) SendFile(context.Context, string, string, string, []byte) error { return nil }

func (m *mockSender) in(room string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, n := range m.notices {
		if n.room == room {
			out = append(out, n.text)
		}
	}
	return out
}

func (m *mockSender) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = nil
	m.reactions = nil
}

type memStore struct {
	mu    sync.Mutex
	snap  *entities.Snapshot
	err   error
	saves int
}

func (s *memStore) Load(context.Context) (entities.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return entities.Snapshot{}, false, nil
	}
	return *s.snap, true, nil
}

func (s *memStore) Save(_ context.Context, snap entities.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.err != nil {
		return s.err
	}
	s.snap = &snap
	return nil
}

type mockPublisher struct {
	mu      sync.Mutex
	changes []entities.Change
}

func (p *mockPublisher) PublishChange(_ context.Context, c entities.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return nil
}

func (p *mockPublisher) types() []entities.ChangeType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []entities.ChangeType
	for _, c := range p.changes {
		out = append(out, c.Type)
	}
	return out
}

type nopRunner struct{}

func (nopRunner) Run(context.Context, string, []byte) (string, error) { return "", nil }

type nopRestarter struct{}

func (nopRestarter) Restart() error { return nil }

type fixture struct {
	uc        *UseCase
	registry  *registry.Registry
	writer    *persistence.Writer
	store     *memStore
	sender    *mockSender
	publisher *mockPublisher
}

func newFixture(t *testing.T, bot *config.Bot, store *memStore) *fixture {
	t.Helper()

	holder := config.NewStaticHolder(bot)
	logger := zerolog.Nop()

	cls := classifier.New(holder, logger)
	normalizer := events.NewNormalizer(holder, cls, logger)
	normalizer.SetDisplayName("Hebbot")
	reg := registry.New(holder)
	writer := persistence.NewWriter(store, nil, logger)
	writer.Start()
	t.Cleanup(func() { _ = writer.Stop(context.Background()) })

	engine, err := render.NewEngine("")
	require.NoError(t, err)

	publisher := &mockPublisher{}
	dispatcher := commands.NewDispatcher(commands.Params{
		Config:    holder,
		Registry:  reg,
		Writer:    writer,
		Renderer:  render.NewCoordinator(holder, engine, logger),
		Actions:   cls,
		Runner:    nopRunner{},
		Restarter: nopRestarter{},
		Publisher: publisher,
		Logger:    logger,
	})

	uc := NewUseCase(holder, normalizer, cls, reg, writer, dispatcher, publisher, logger)
	sender := &mockSender{}
	uc.SetSender(sender)

	return &fixture{uc: uc, registry: reg, writer: writer, store: store, sender: sender, publisher: publisher}
}

func (f *fixture) process(raw events.RawEvent) {
	if raw.Timestamp.IsZero() {
		raw.Timestamp = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	f.uc.Process(context.Background(), raw)
}

func (f *fixture) submit(id, text string) {
	f.process(events.RawEvent{
		RoomID: reporting, SenderID: reporter, SenderDisplayName: "Carol",
		EventID: id, Kind: events.PayloadText, Body: "Hebbot: " + text,
	})
}

func (f *fixture) react(id, actor, target, key string) {
	f.process(events.RawEvent{
		RoomID: reporting, SenderID: actor, EventID: id,
		Kind: events.PayloadReaction, RelatesTo: target, ReactionKey: key,
	})
}

func (f *fixture) image(id, parent string) {
	f.process(events.RawEvent{
		RoomID: reporting, SenderID: reporter, EventID: id, ReplyTo: parent,
		Kind: events.PayloadImage, MediaURL: "mxc://example.org/" + id, Filename: "shot.png",
	})
}

func (f *fixture) redact(id, actor, target string) {
	f.process(events.RawEvent{
		RoomID: reporting, SenderID: actor, EventID: id,
		Kind: events.PayloadRedaction, RelatesTo: target,
	})
}

func (f *fixture) command(actor, raw string) {
	f.process(events.RawEvent{RoomID: adminRoom, SenderID: actor, EventID: "$cmd", Kind: events.PayloadText, Body: raw})
	f.uc.dispatcher.Wait()
}

func (f *fixture) item(t *testing.T, id string) entities.NewsItem {
	t.Helper()
	item, ok := f.registry.Get(id)
	require.True(t, ok, "news item %s", id)
	return item
}

func TestSubmission(t *testing.T) {
	f := newFixture(t, testBot(), &memStore{})

	f.submit("$m1", "GTK 5 has been released today")

	item := f.item(t, "$m1")
	assert.Equal(t, "GTK 5 has been released today", item.Message)
	assert.Equal(t, "Carol", item.ReporterDisplayName)

	assert.Equal(t, []string{"Thanks Carol!"}, f.sender.in(reporting))
	require.Len(t, f.sender.in(adminRoom), 1)
	assert.Contains(t, f.sender.in(adminRoom)[0], "✅ @carol:example.org submitted a news entry.")

	bot := testBot()
	assert.Equal(t, []reaction{
		{eventID: "$m1", key: emoji.Suggestion(bot.Projects[0].Emoji)},
		{eventID: "$m1", key: bot.Sections[0].Emoji},
	}, f.sender.reactions)
	assert.Equal(t, []entities.ChangeType{entities.ChangeSubmitted}, f.publisher.types())

	require.NoError(t, f.writer.Flush(context.Background()))
	require.NotNil(t, f.store.snap)
	assert.Len(t, f.store.snap.Items, 1)
}

func TestSubmission_TooShort(t *testing.T) {
	f := newFixture(t, testBot(), &memStore{})

	f.submit("$m1", "tiny")

	assert.Zero(t, f.registry.Len())
	assert.Equal(t, []string{"❌ Carol: Your update is too short and was not stored. This limitation was set-up to limit spam."}, f.sender.in(reporting))
	assert.Empty(t, f.sender.in(adminRoom))
}

func TestSubmission_Duplicate(t *testing.T) {
	f := newFixture(t, testBot(), &memStore{})

	f.submit("$m1", "the build is broken again")
	f.sender.reset()
	f.submit("$m1", "the build is broken again")

	assert.Equal(t, 1, f.registry.Len())
	assert.Empty(t, f.sender.notices)
}

func TestReactions_EditorOnly(t *testing.T) {
	f := newFixture(t, testBot(), &memStore{})
	f.submit("$m1", "the build is broken again")
	f.sender.reset()

	f.react("$r1", stranger, "$m1", "⭕")
	assert.False(t, f.item(t, "$m1").Approved)
	assert.Empty(t, f.sender.notices)

	f.react("$r2", editor, "$m1", "⭕")
	assert.True(t, f.item(t, "$m1").Approved)
	require.Len(t, f.sender.in(adminRoom), 1)
	assert.Contains(t, f.sender.in(adminRoom)[0], "approved @carol:example.org’s news entry")
}

func TestReactions_SuggestionMarkerIsStripped(t *testing.T) {
	f := newFixture(t, testBot(), &memStore{})
	f.submit("$m1", "the build is broken again")

	f.react("$r1", editor, "$m1", emoji.Suggestion("🧱"))

	item := f.item(t, "$m1")
	assert.Equal(t, "gtk", item.ProjectKey)
	assert.Equal(t, "core", item.SectionKey)
}

func TestRedaction_RevokesReaction(t *testing.T) {
	f := newFixture(t, testBot(), &memStore{})
	f.submit("$m1", "the build is broken again")
	before := f.item(t, "$m1")

	f.react("$r1", editor, "$m1", "🏛️")
	assert.Equal(t, "core", f.item(t, "$m1").SectionKey)

	f.sender.reset()
	f.redact("$x1", editor, "$r1")

	after := f.item(t, "$m1")
	assert.Equal(t, before.SectionKey, after.SectionKey)
	assert.Empty(t, after.Reactions)
	require.Len(t, f.sender.in(adminRoom), 1)
	assert.Contains(t, f.sender.in(adminRoom)[0], "removed their “Core” section reaction")
}

func TestRedaction_RemovesNewsItem(t *testing.T) {
	f := newFixture(t, testBot(), &memStore{})
	f.submit("$m1", "the build is broken again")
	f.sender.reset()

	f.redact("$x1", reporter, "$m1")

	assert.Zero(t, f.registry.Len())
	assert.Equal(t, []string{"✅ @carol:example.org’s news entry got deleted by @carol:example.org."}, f.sender.in(adminRoom))
	assert.Contains(t, f.publisher.types(), entities.ChangeRemoved)
}

func TestMediaAttachment_AnyOrder(t *testing.T) {
	orders := map[string][]func(f *fixture){
		"submission, media, reaction": {
			func(f *fixture) { f.submit("$m1", "the build is broken again") },
			func(f *fixture) { f.image("$p1", "$m1") },
			func(f *fixture) { f.react("$r1", editor, "$p1", "📷") },
		},
		"reaction before media": {
			func(f *fixture) { f.submit("$m1", "the build is broken again") },
			func(f *fixture) { f.react("$r1", editor, "$p1", "📷") },
			func(f *fixture) { f.image("$p1", "$m1") },
		},
		"reaction and media before submission": {
			func(f *fixture) { f.react("$r1", editor, "$p1", "📷") },
			func(f *fixture) { f.image("$p1", "$m1") },
			func(f *fixture) { f.submit("$m1", "the build is broken again") },
		},
	}

	for name, steps := range orders {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, testBot(), &memStore{})
			for _, step := range steps {
				step(f)
			}

			item := f.item(t, "$m1")
			require.Len(t, item.Images, 1)
			assert.Equal(t, entities.MediaRef{EventID: "$p1", URL: "mxc://example.org/$p1", Filename: "shot.png"}, item.Images[0])
			assert.Empty(t, item.Videos)
		})
	}
}

func TestEdit_NotifiesForAssignedItems(t *testing.T) {
	f := newFixture(t, testBot(), &memStore{})
	f.submit("$m1", "the build is broken again")
	f.react("$r1", editor, "$m1", "🏛️")
	f.sender.reset()

	f.process(events.RawEvent{
		RoomID: reporting, SenderID: reporter, EventID: "$e1",
		Kind: events.PayloadEdit, RelatesTo: "$m1", Body: "Hebbot: the build is fixed now",
	})

	assert.Equal(t, "the build is fixed now", f.item(t, "$m1").Message)
	require.Len(t, f.sender.in(adminRoom), 1)
	assert.Contains(t, f.sender.in(adminRoom)[0], "got edited")
}

func TestClearSurvivesRestart(t *testing.T) {
	store := &memStore{}
	f := newFixture(t, testBot(), store)
	f.submit("$m1", "the build is broken again")
	f.submit("$m2", "the build is fixed again")

	f.command(editor, "!clear")
	assert.Contains(t, f.sender.in(adminRoom), "✅ Cleared 2 news entries!")

	f.command(editor, "!status")
	statuses := f.sender.in(adminRoom)
	assert.Contains(t, statuses[len(statuses)-1], "0 news entries in total")

	restarted := newFixture(t, testBot(), store)
	require.NoError(t, restarted.uc.Restore(context.Background()))
	assert.Zero(t, restarted.registry.Len())
}

func TestRestore_KeepsState(t *testing.T) {
	store := &memStore{}
	f := newFixture(t, testBot(), store)
	f.submit("$m1", "the build is broken again")
	f.react("$r1", editor, "$m1", "⭕")
	require.NoError(t, f.writer.Flush(context.Background()))

	restarted := newFixture(t, testBot(), store)
	require.NoError(t, restarted.uc.Restore(context.Background()))
	assert.True(t, restarted.item(t, "$m1").Approved)

	restarted.redact("$x1", editor, "$r1")
	assert.False(t, restarted.item(t, "$m1").Approved)
}

func TestRestore_CorruptSnapshotFails(t *testing.T) {
	store := &memStore{snap: &entities.Snapshot{Version: entities.SnapshotVersion + 1}}
	f := newFixture(t, testBot(), store)

	require.Error(t, f.uc.Restore(context.Background()))
}

func TestSnapshotWriteFailureIsReported(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	f := newFixture(t, testBot(), store)

	f.submit("$m1", "the build is broken again")
	require.Error(t, f.writer.Flush(context.Background()))

	assert.Eventually(t, func() bool {
		for _, text := range f.sender.in(adminRoom) {
			if text == "❌ Unable to write the news store, changes are kept in memory: snapshot write failed: disk full" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, f.registry.Len())
}

func TestEventLoop(t *testing.T) {
	f := newFixture(t, testBot(), &memStore{})
	f.uc.Start()

	ctx := context.Background()
	require.NoError(t, f.uc.HandleEvent(ctx, events.RawEvent{
		RoomID: reporting, SenderID: reporter, EventID: "$m1",
		Kind: events.PayloadText, Body: "Hebbot: the build is broken again",
	}))
	require.NoError(t, f.uc.HandleEvent(ctx, events.RawEvent{
		RoomID: reporting, SenderID: editor, EventID: "$r1",
		Kind: events.PayloadReaction, RelatesTo: "$m1", ReactionKey: "⭕",
	}))

	assert.Eventually(t, func() bool {
		item, ok := f.registry.Get("$m1")
		return ok && item.Approved
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, f.uc.Stop(ctx))
	assert.ErrorIs(t, f.uc.HandleEvent(ctx, events.RawEvent{}), ErrStopped)
}

func TestAnnounce(t *testing.T) {
	bot := testBot()
	bot.Projects = nil
	f := newFixture(t, bot, &memStore{})

	f.uc.Announce(context.Background())

	notices := f.sender.in(adminRoom)
	require.Len(t, notices, 2)
	assert.Equal(t, "✅ Started hebbot!", notices[0])
	assert.Contains(t, notices[1], "No projects are configured")
}

func TestReplaceUser(t *testing.T) {
	assert.Equal(t, "Thanks Carol!", replaceUser("Thanks {{user}}!", "Carol"))
	assert.Equal(t, "Thanks Carol!", replaceUser("Thanks {{ user }}!", "Carol"))
	assert.Equal(t, "Thanks!", replaceUser("Thanks!", "Carol"))
}
