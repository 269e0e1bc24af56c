package buissines

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/consts"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	"github.com/haecker-felix/hebbot/internal/domain/news/events"
	"github.com/haecker-felix/hebbot/internal/domain/news/registry"
	"github.com/haecker-felix/hebbot/pkg/emoji"
)

// strict strips markup from reporter text quoted in admin notices
var strict = bluemonday.StrictPolicy()

func link(bot *config.Bot, eventID string) string {
	return fmt.Sprintf(consts.ReportingRoomLink, bot.ReportingRoomID, eventID)
}

func (uc *UseCase) handleSubmission(ctx context.Context, sub events.Submission) {
	bot := uc.config.Current()
	log := uc.logger.With().Str("event_id", sub.ID).Str("actor_id", sub.ReporterID).Logger()

	if utf8.RuneCountInString(sub.Text) <= bot.MinLength {
		log.Info().Int("length", utf8.RuneCountInString(sub.Text)).Msg("Submission too short")
		uc.notifyReporting(ctx, fmt.Sprintf("❌ %s: Your update is too short and was not stored. This limitation was set-up to limit spam.", sub.ReporterDisplayName))
		return
	}

	item, created := uc.registry.Submit(sub)
	if !created {
		log.Debug().Msg("Ignoring duplicate submission")
		return
	}
	log.Info().Msg("News entry submitted")

	uc.persist()
	uc.publish(ctx, entities.ChangeSubmitted, sub.ReporterID, &item)

	if bot.AckText != "" {
		uc.notifyReporting(ctx, replaceUser(bot.AckText, sub.ReporterDisplayName))
	}
	uc.notifyAdmin(ctx, fmt.Sprintf("✅ %s submitted a news entry. [%s]", sub.ReporterID, link(bot, sub.ID)), true)

	for _, key := range suggestions(bot, item) {
		uc.react(ctx, item.ID, key)
	}
}

var userPlaceholder = regexp.MustCompile(`\{\{\s*user\s*\}\}`)

func replaceUser(text, displayName string) string {
	return userPlaceholder.ReplaceAllLiteralString(text, displayName)
}

// suggestions returns the reactions the bot adds to a new item: the emoji of
// projects the message mentions, marked as suggestion, and the emoji of the
// sections the reporter usually reports for
func suggestions(bot *config.Bot, item entities.NewsItem) []string {
	var keys []string
	for _, p := range bot.Projects {
		if p.Emoji == "" {
			continue
		}
		if mentions(item.Message, p.Key) || mentions(item.Message, p.Title) {
			keys = append(keys, emoji.Suggestion(p.Emoji))
		}
	}
	for _, s := range bot.SectionsByUsualReporter(item.ReporterID) {
		if s.Emoji != "" {
			keys = append(keys, s.Emoji)
		}
	}
	return keys
}

func mentions(text, word string) bool {
	if word == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

func (uc *UseCase) handleEdit(ctx context.Context, e events.SubmissionEdited) {
	item, ok := uc.registry.Edit(e.TargetID, e.Text)
	if !ok {
		return
	}
	uc.logger.Info().Str("event_id", e.TargetID).Str("actor_id", e.EditorID).Msg("News entry edited")

	uc.persist()
	uc.publish(ctx, entities.ChangeUpdated, e.EditorID, &item)

	if item.IsAssigned() {
		bot := uc.config.Current()
		uc.notifyAdmin(ctx, fmt.Sprintf(
			"✅ The news entry by %s got edited. Check the new text, and make sure you want to keep the assigned project/section. [%s]",
			item.ReporterID, link(bot, item.ID),
		), true)
	}
}

func (uc *UseCase) handleReactionAdded(ctx context.Context, e events.ReactionAdded) {
	log := uc.logger.With().
		Str("event_id", e.ReactionID).
		Str("actor_id", e.ActorID).
		Str("target_id", e.TargetID).
		Logger()

	action, ok := uc.classifier.Classify(e.EmojiKey, e.ActorID, e.TargetID)
	if !ok {
		uc.metrics.RecordReaction("ignored")
		return
	}

	outcome, item := uc.registry.Apply(e.ReactionID, e.ActorID, e.TargetID, action)
	uc.metrics.RecordReaction(outcome.String())
	log.Debug().Str("action", action.String()).Str("outcome", outcome.String()).Msg("Reaction processed")

	switch outcome {
	case registry.Ignored:
		return
	case registry.Pending:
		uc.persist()
		return
	}

	uc.persist()
	uc.publish(ctx, entities.ChangeUpdated, e.ActorID, &item)

	if msg := appliedNotice(uc.config.Current(), e.ActorID, action, item); msg != "" {
		uc.notifyAdmin(ctx, msg, true)
	}
}

func (uc *UseCase) handleReactionRemoved(ctx context.Context, e events.ReactionRemoved) {
	outcome, reaction, item := uc.registry.Revoke(e.ReactionID)
	action := reaction.Action

	if outcome == registry.Ignored && e.EmojiKey != "" {
		a, ok := uc.classifier.Lookup(e.EmojiKey)
		if !ok {
			return
		}
		if a.Kind == entities.ActionAttachMedia {
			a.Key = e.TargetID
		}
		action = a
		outcome, item = uc.registry.RevokeMatching(e.ActorID, e.TargetID, a)
	}

	uc.metrics.RecordReaction("revoked_" + outcome.String())
	switch outcome {
	case registry.Ignored:
		return
	case registry.Pending:
		uc.persist()
		return
	}

	uc.persist()
	uc.publish(ctx, entities.ChangeUpdated, e.ActorID, &item)
	uc.notifyAdmin(ctx, revokedNotice(uc.config.Current(), e.ActorID, action, item), true)
}

func (uc *UseCase) handleMedia(ctx context.Context, e events.MediaPosted) {
	outcome, item := uc.registry.RecordMedia(entities.Media{
		ID:       e.ID,
		ParentID: e.ParentID,
		URL:      e.URL,
		Kind:     e.Kind,
		Filename: e.Filename,
		SenderID: e.SenderID,
	})
	if outcome == registry.Ignored {
		return
	}

	uc.persist()
	if outcome != registry.Applied {
		return
	}

	uc.publish(ctx, entities.ChangeUpdated, e.SenderID, &item)
	if msg := appliedNotice(uc.config.Current(), e.SenderID, entities.AttachMedia(e.ID), item); msg != "" {
		uc.notifyAdmin(ctx, msg, true)
	}
}

func (uc *UseCase) handleRedaction(ctx context.Context, e events.Redaction) {
	res := uc.registry.Redact(e.ID)
	if res.Kind == registry.RedactNone {
		uc.logger.Debug().Str("event_id", e.ID).Msg("Ignoring redaction of an unknown event")
		return
	}

	uc.persist()
	if !res.Attached {
		return
	}

	bot := uc.config.Current()
	switch res.Kind {
	case registry.RedactNews:
		uc.publish(ctx, entities.ChangeRemoved, e.ActorID, &res.Item)
		uc.notifyAdmin(ctx, fmt.Sprintf("✅ %s’s news entry got deleted by %s.", res.Item.ReporterID, e.ActorID), true)

	case registry.RedactMedia:
		uc.publish(ctx, entities.ChangeUpdated, e.ActorID, &res.Item)
		uc.notifyAdmin(ctx, fmt.Sprintf("✅ %s deleted an image/video of %s’s news entry.", e.ActorID, res.Item.ReporterID), true)

	case registry.RedactReaction:
		uc.publish(ctx, entities.ChangeUpdated, e.ActorID, &res.Item)
		uc.notifyAdmin(ctx, revokedNotice(bot, e.ActorID, res.Reaction.Action, res.Item), true)
	}
}

// describe names an action in admin notices
func describe(bot *config.Bot, action entities.Action) string {
	switch action.Kind {
	case entities.ActionApprove:
		return "approval"
	case entities.ActionAssignSection:
		if s, ok := bot.SectionByKey(action.Key); ok {
			return fmt.Sprintf("“%s” section", s.Title)
		}
		return fmt.Sprintf("“%s” section", action.Key)
	case entities.ActionAssignProject:
		if p, ok := bot.ProjectByKey(action.Key); ok {
			return fmt.Sprintf("“%s” project", p.Title)
		}
		return fmt.Sprintf("“%s” project", action.Key)
	case entities.ActionMarkThirdParty:
		return "third party"
	default:
		return "image/video notice"
	}
}

func appliedNotice(bot *config.Bot, actorID string, action entities.Action, item entities.NewsItem) string {
	l := link(bot, item.ID)

	switch action.Kind {
	case entities.ActionApprove:
		return fmt.Sprintf("✅ %s approved %s’s news entry [%s].", actorID, item.ReporterID, l)

	case entities.ActionAssignSection:
		title := action.Key
		if s, ok := bot.SectionByKey(action.Key); ok {
			title = s.Title
		}
		return fmt.Sprintf("✅ %s added %s’s news entry [%s] to the “%s” section.", actorID, item.ReporterID, l, title)

	case entities.ActionAssignProject:
		title := action.Key
		if p, ok := bot.ProjectByKey(action.Key); ok {
			title = p.Title
		}
		return fmt.Sprintf("✅ %s added the project description “%s” to %s’s news entry [%s].", actorID, title, item.ReporterID, l)

	case entities.ActionMarkThirdParty:
		return fmt.Sprintf("✅ %s marked %s’s news entry [%s] as third party.", actorID, item.ReporterID, l)

	case entities.ActionAttachMedia:
		kind := ""
		switch {
		case hasMedia(item.Images, action.Key):
			kind = "image"
		case hasMedia(item.Videos, action.Key):
			kind = "video"
		default:
			return ""
		}
		return fmt.Sprintf("✅ Added %s to %s’s news entry (“%s”) [%s].", kind, item.ReporterID, strict.Sanitize(item.Summary()), l)
	}
	return ""
}

func revokedNotice(bot *config.Bot, actorID string, action entities.Action, item entities.NewsItem) string {
	return fmt.Sprintf("✅ %s removed their %s reaction from %s’s news entry. [%s]", actorID, describe(bot, action), item.ReporterID, link(bot, item.ID))
}

func hasMedia(refs []entities.MediaRef, id string) bool {
	for _, r := range refs {
		if r.EventID == id {
			return true
		}
	}
	return false
}
