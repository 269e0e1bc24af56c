package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBot(t *testing.T) {
	res, err := LoadBot("testdata/config.yaml")
	require.NoError(t, err)

	bot := res.Bot
	assert.Equal(t, "@hebbot:example.org", bot.BotUserID)
	assert.Len(t, bot.Sections, 2)
	assert.Len(t, bot.Projects, 2)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Notes)

	assert.True(t, bot.IsEditor("@editor:example.org"))
	assert.False(t, bot.IsEditor("@appdev:example.org"))
}

func TestLoadBot_MissingFile(t *testing.T) {
	_, err := LoadBot("testdata/does-not-exist.yaml")
	require.Error(t, err)
}

func TestParseBot_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "empty document",
			doc:  "",
		},
		{
			name: "unknown field",
			doc: `bot_user_id: "@hebbot:example.org"
reporting_room_id: "!r:example.org"
admin_room_id: "!a:example.org"
verbs: [says]
colour: blue
`,
		},
		{
			name: "bot user id without sigil",
			doc: `bot_user_id: "hebbot"
reporting_room_id: "!r:example.org"
admin_room_id: "!a:example.org"
verbs: [says]
`,
		},
		{
			name: "same room twice",
			doc: `bot_user_id: "@hebbot:example.org"
reporting_room_id: "!r:example.org"
admin_room_id: "!r:example.org"
verbs: [says]
`,
		},
		{
			name: "no verbs",
			doc: `bot_user_id: "@hebbot:example.org"
reporting_room_id: "!r:example.org"
admin_room_id: "!a:example.org"
`,
		},
		{
			name: "project without title",
			doc: `bot_user_id: "@hebbot:example.org"
reporting_room_id: "!r:example.org"
admin_room_id: "!a:example.org"
verbs: [says]
projects:
  - key: fractal
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBot(strings.NewReader(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestBot_CheckFindsDuplicatesAndUnknownSections(t *testing.T) {
	bot := &Bot{
		BotUserID:       "@hebbot:example.org",
		ReportingRoomID: "!r:example.org",
		AdminRoomID:     "!a:example.org",
		Verbs:           []string{"says"},
		Editors:         []string{"@editor:example.org"},
		Reactions:       Reactions{Approve: []string{"⭕"}},
		Sections: []Section{
			{Key: "apps", Emoji: "📱", Title: "Apps"},
		},
		Projects: []Project{
			{Key: "fractal", Emoji: "📱", Title: "Fractal", Section: "apps"},
			{Key: "apps", Emoji: "🦀", Title: "Apps again", Section: "nowhere"},
		},
	}

	warnings, _ := bot.Check()
	joined := strings.Join(warnings, "\n")

	assert.Contains(t, joined, "emoji is duplicated")
	assert.Contains(t, joined, "name is duplicated")
	assert.Contains(t, joined, "unknown section “nowhere”")
}

func TestBot_SectionProjects(t *testing.T) {
	res, err := LoadBot("testdata/config.yaml")
	require.NoError(t, err)
	bot := res.Bot

	assert.Equal(t, []string{"fractal", "gtk"}, bot.SectionProjects("core"))
	assert.Equal(t, []string{"fractal"}, bot.SectionProjects("apps"))
	assert.True(t, bot.ProjectInSection("fractal", "core"))
	assert.False(t, bot.ProjectInSection("gtk", "apps"))
	assert.Equal(t, "apps", bot.ProjectSection("fractal"))
	assert.Equal(t, "", bot.ProjectSection("unknown"))
}

func TestBot_LookupByEmoji(t *testing.T) {
	res, err := LoadBot("testdata/config.yaml")
	require.NoError(t, err)
	bot := res.Bot

	section, ok := bot.SectionByEmoji("🏛")
	require.True(t, ok)
	assert.Equal(t, "core", section.Key)

	project, ok := bot.ProjectByEmoji("🦀 ?")
	require.True(t, ok)
	assert.Equal(t, "fractal", project.Key)

	_, ok = bot.SectionByEmoji("⭕")
	assert.False(t, ok)
}

func TestBot_SectionsByUsualReporter(t *testing.T) {
	res, err := LoadBot("testdata/config.yaml")
	require.NoError(t, err)

	sections := res.Bot.SectionsByUsualReporter("@appdev:example.org")
	require.Len(t, sections, 1)
	assert.Equal(t, "apps", sections[0].Key)
}

func TestBot_YAMLRoundTrip(t *testing.T) {
	res, err := LoadBot("testdata/config.yaml")
	require.NoError(t, err)

	doc, err := res.Bot.YAML()
	require.NoError(t, err)
	assert.Contains(t, doc, "bot_user_id:")
	assert.Contains(t, doc, "@hebbot:example.org")

	again, err := ParseBot(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, res.Bot, again.Bot)
}

func TestHolder_Reload(t *testing.T) {
	h, err := NewHolder("testdata/config.yaml")
	require.NoError(t, err)
	first := h.Current()

	res, err := h.Reload()
	require.NoError(t, err)
	assert.NotSame(t, first, h.Current())
	assert.Same(t, res.Bot, h.Current())
	assert.Equal(t, first, h.Current())
}

func TestStaticHolder(t *testing.T) {
	bot := &Bot{BotUserID: "@hebbot:example.org", Verbs: []string{"says"}}
	h := NewStaticHolder(bot)

	res, err := h.Reload()
	require.NoError(t, err)
	assert.Same(t, bot, res.Bot)
	assert.Same(t, bot, h.Current())
}
