package events

import (
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/consts"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
)

// ConfigSource provides the active bot configuration
type ConfigSource interface {
	Current() *config.Bot
}

// KeySet tells which reaction emoji are configured
type KeySet interface {
	Recognized(key string) bool
}

// matcher holds the address patterns of one configuration and display name
type matcher struct {
	bot         *config.Bot
	displayName string
	patterns    []*regexp.Regexp
}

// Normalizer classifies raw room events into domain events or drops them.
// It never fails.
type Normalizer struct {
	source ConfigSource
	keys   KeySet
	logger zerolog.Logger

	mu          sync.Mutex
	displayName string
	cached      *matcher
}

// NewNormalizer creates a new Normalizer
func NewNormalizer(source ConfigSource, keys KeySet, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		source: source,
		keys:   keys,
		logger: logger.With().Str("component", "normalizer").Logger(),
	}
}

// SetDisplayName updates the bot display name used as an address token
func (n *Normalizer) SetDisplayName(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.displayName = name
}

func (n *Normalizer) current() *matcher {
	bot := n.source.Current()

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cached != nil && n.cached.bot == bot && n.cached.displayName == n.displayName {
		return n.cached
	}
	n.cached = &matcher{
		bot:         bot,
		displayName: n.displayName,
		patterns:    addressPatterns(bot.BotUserID, n.displayName, bot.AddressTokens),
	}
	return n.cached
}

// addressPatterns builds the case-insensitive prefixes that address the bot:
// its user id with optional sigil and server name, its display name and the
// configured extra tokens, each optionally followed by a colon.
func addressPatterns(userID, displayName string, tokens []string) []*regexp.Regexp {
	var patterns []*regexp.Regexp

	localpart, server, _ := strings.Cut(strings.TrimPrefix(userID, "@"), ":")
	if localpart != "" {
		expr := "(?i)^@?" + regexp.QuoteMeta(localpart)
		if server != "" {
			expr += "(:" + regexp.QuoteMeta(server) + ")?"
		}
		patterns = append(patterns, regexp.MustCompile(expr+":?"))
	}

	for _, token := range append([]string{displayName}, tokens...) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile("(?i)^"+regexp.QuoteMeta(token)+":?"))
	}

	return patterns
}

// stripAddress removes a leading address token. The second result reports
// whether one was found.
func (m *matcher) stripAddress(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	for _, p := range m.patterns {
		if loc := p.FindStringIndex(trimmed); loc != nil {
			return strings.TrimSpace(trimmed[loc[1]:]), true
		}
	}
	return trimmed, false
}

// Normalize converts a raw event into at most one domain event. Nil means
// the event was dropped.
func (n *Normalizer) Normalize(raw RawEvent) Event {
	m := n.current()
	bot := m.bot

	if raw.SenderID == bot.BotUserID {
		return nil
	}

	switch raw.RoomID {
	case bot.ReportingRoomID:
		return n.reportingRoom(m, raw)
	case bot.AdminRoomID:
		return n.adminRoom(raw)
	default:
		return nil
	}
}

func (n *Normalizer) reportingRoom(m *matcher, raw RawEvent) Event {
	switch raw.Kind {
	case PayloadText, PayloadNotice:
		text, addressed := m.stripAddress(raw.Body)
		if !addressed && !slices.Contains(raw.Mentions, m.bot.BotUserID) {
			return nil
		}
		if text == "" {
			n.logger.Debug().Str("event_id", raw.EventID).Msg("Dropping empty submission")
			return nil
		}
		return Submission{
			ID:                  raw.EventID,
			ReporterID:          raw.SenderID,
			ReporterDisplayName: displayNameOr(raw.SenderDisplayName, raw.SenderID),
			Text:                text,
			Timestamp:           raw.Timestamp,
		}

	case PayloadEdit:
		if raw.RelatesTo == "" {
			return nil
		}
		text, _ := m.stripAddress(raw.Body)
		return SubmissionEdited{TargetID: raw.RelatesTo, EditorID: raw.SenderID, Text: text}

	case PayloadImage, PayloadVideo:
		if raw.MediaURL == "" {
			return nil
		}
		kind := entities.MediaImage
		if raw.Kind == PayloadVideo {
			kind = entities.MediaVideo
		}
		return MediaPosted{
			ID:        raw.EventID,
			ParentID:  raw.ReplyTo,
			URL:       raw.MediaURL,
			Kind:      kind,
			Filename:  raw.Filename,
			SenderID:  raw.SenderID,
			Timestamp: raw.Timestamp,
		}

	case PayloadReaction, PayloadReactionRemoved:
		if raw.RelatesTo == "" || !n.keys.Recognized(raw.ReactionKey) {
			return nil
		}
		if raw.Kind == PayloadReactionRemoved {
			return ReactionRemoved{ReactionID: raw.EventID, TargetID: raw.RelatesTo, EmojiKey: raw.ReactionKey, ActorID: raw.SenderID}
		}
		return ReactionAdded{ReactionID: raw.EventID, TargetID: raw.RelatesTo, EmojiKey: raw.ReactionKey, ActorID: raw.SenderID}

	case PayloadRedaction:
		if raw.RelatesTo == "" {
			return nil
		}
		return Redaction{ID: raw.RelatesTo, ActorID: raw.SenderID}
	}

	return nil
}

func (n *Normalizer) adminRoom(raw RawEvent) Event {
	if raw.Kind != PayloadText {
		return nil
	}
	text := strings.TrimSpace(raw.Body)
	if !strings.HasPrefix(text, consts.CommandPrefix) {
		return nil
	}
	return AdminCommand{
		Raw:              text,
		ActorID:          raw.SenderID,
		ActorDisplayName: displayNameOr(raw.SenderDisplayName, raw.SenderID),
	}
}

func displayNameOr(name, userID string) string {
	if name != "" {
		return name
	}
	return userID
}
