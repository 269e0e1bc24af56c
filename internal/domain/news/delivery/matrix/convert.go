package matrix

import (
	"strings"
	"time"

	"maunium.net/go/mautrix/event"

	"github.com/haecker-felix/hebbot/internal/domain/news/events"
)

// ToRawEvent converts a Matrix timeline event. Events the bot has no use
// for yield false.
func ToRawEvent(evt *event.Event) (events.RawEvent, bool) {
	if evt == nil {
		return events.RawEvent{}, false
	}

	raw := events.RawEvent{
		RoomID:    evt.RoomID.String(),
		SenderID:  evt.Sender.String(),
		EventID:   evt.ID.String(),
		Timestamp: time.UnixMilli(evt.Timestamp).UTC(),
	}

	switch evt.Type {
	case event.EventMessage:
		return messageEvent(raw, evt.Content.AsMessage())

	case event.EventReaction:
		content := evt.Content.AsReaction()
		raw.Kind = events.PayloadReaction
		raw.RelatesTo = content.RelatesTo.EventID.String()
		raw.ReactionKey = content.RelatesTo.Key
		return raw, raw.RelatesTo != ""

	case event.EventRedaction:
		redacts := evt.Redacts
		if redacts == "" {
			redacts = evt.Content.AsRedaction().Redacts
		}
		raw.Kind = events.PayloadRedaction
		raw.RelatesTo = redacts.String()
		return raw, raw.RelatesTo != ""
	}

	return events.RawEvent{}, false
}

func messageEvent(raw events.RawEvent, content *event.MessageEventContent) (events.RawEvent, bool) {
	if content == nil {
		return events.RawEvent{}, false
	}

	if rel := content.RelatesTo; rel != nil && rel.Type == event.RelReplace {
		raw.Kind = events.PayloadEdit
		raw.RelatesTo = rel.EventID.String()
		if content.NewContent != nil {
			raw.Body = content.NewContent.Body
		} else {
			raw.Body = strings.TrimPrefix(content.Body, "* ")
		}
		return raw, raw.RelatesTo != ""
	}

	if rel := content.RelatesTo; rel != nil && rel.InReplyTo != nil {
		raw.ReplyTo = rel.InReplyTo.EventID.String()
	}
	if content.Mentions != nil {
		for _, userID := range content.Mentions.UserIDs {
			raw.Mentions = append(raw.Mentions, userID.String())
		}
	}

	switch content.MsgType {
	case event.MsgText:
		raw.Kind = events.PayloadText
	case event.MsgNotice:
		raw.Kind = events.PayloadNotice
	case event.MsgImage:
		raw.Kind = events.PayloadImage
	case event.MsgVideo:
		raw.Kind = events.PayloadVideo
	default:
		return events.RawEvent{}, false
	}

	switch raw.Kind {
	case events.PayloadImage, events.PayloadVideo:
		raw.MediaURL = string(content.URL)
		raw.Filename = content.FileName
		if raw.Filename == "" {
			raw.Filename = content.Body
		}
		if content.Info != nil {
			raw.MimeType = content.Info.MimeType
		}
	default:
		raw.Body = content.Body
	}

	return raw, true
}
