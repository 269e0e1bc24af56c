// Package classifier maps reaction emoji to classification actions
package classifier

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	"github.com/haecker-felix/hebbot/pkg/emoji"
)

// ConfigSource provides the active bot configuration
type ConfigSource interface {
	Current() *config.Bot
}

// table is the emoji lookup table of one configuration load
type table struct {
	bot     *config.Bot
	actions map[string]entities.Action
}

// Classifier turns reaction emoji into actions and enforces who may use them
type Classifier struct {
	source ConfigSource
	cache  atomic.Pointer[table]
	logger zerolog.Logger
}

// New creates a new Classifier
func New(source ConfigSource, logger zerolog.Logger) *Classifier {
	return &Classifier{
		source: source,
		logger: logger.With().Str("component", "classifier").Logger(),
	}
}

// buildTable indexes the configured emoji by their normalized form. When an
// emoji is bound twice the first binding wins: approve, third party, media,
// sections, projects.
func buildTable(bot *config.Bot) *table {
	t := &table{bot: bot, actions: make(map[string]entities.Action)}

	add := func(key string, action entities.Action) {
		key = emoji.Normalize(key)
		if key == "" {
			return
		}
		if _, exists := t.actions[key]; !exists {
			t.actions[key] = action
		}
	}

	for _, e := range bot.Reactions.Approve {
		add(e, entities.Approve())
	}
	for _, e := range bot.Reactions.ThirdParty {
		add(e, entities.MarkThirdParty())
	}
	for _, e := range bot.Reactions.Media {
		add(e, entities.AttachMedia(""))
	}
	for _, s := range bot.Sections {
		add(s.Emoji, entities.AssignSection(s.Key))
	}
	for _, p := range bot.Projects {
		add(p.Emoji, entities.AssignProject(p.Key))
	}

	return t
}

// current returns the table of the active configuration, rebuilding it after a reload
func (c *Classifier) current() *table {
	bot := c.source.Current()
	if t := c.cache.Load(); t != nil && t.bot == bot {
		return t
	}
	t := buildTable(bot)
	c.cache.Store(t)
	return t
}

// Lookup returns the action bound to an emoji without checking authorization
func (c *Classifier) Lookup(key string) (entities.Action, bool) {
	action, ok := c.current().actions[emoji.Normalize(key)]
	return action, ok
}

// Recognized reports whether the emoji is bound to any action
func (c *Classifier) Recognized(key string) bool {
	_, ok := c.Lookup(key)
	return ok
}

// Classify returns the action an actor's reaction on targetID performs.
// Unmapped emoji and unauthorized actors yield false.
func (c *Classifier) Classify(key, actorID, targetID string) (entities.Action, bool) {
	t := c.current()

	action, ok := t.actions[emoji.Normalize(key)]
	if !ok {
		c.logger.Debug().
			Str("emoji", key).
			Str("target_id", targetID).
			Msg("Ignoring reaction, emoji is not configured")
		return entities.Action{}, false
	}

	if action.RequiresEditor() && !t.bot.IsEditor(actorID) {
		c.logger.Debug().
			Str("actor_id", actorID).
			Str("action", action.String()).
			Str("target_id", targetID).
			Msg("Ignoring reaction from non-editor")
		return entities.Action{}, false
	}

	if action.Kind == entities.ActionAttachMedia {
		action.Key = targetID
	}

	return action, true
}
