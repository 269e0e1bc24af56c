// Package events converts raw room events into news domain events
package events

import (
	"time"

	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
)

// PayloadKind is the content type of a raw room event
type PayloadKind int

// Raw payload kinds
const (
	PayloadUnknown PayloadKind = iota
	PayloadText
	PayloadNotice
	PayloadEdit
	PayloadImage
	PayloadVideo
	PayloadReaction
	PayloadReactionRemoved
	PayloadRedaction
)

// RawEvent is a transport-neutral room event
type RawEvent struct {
	RoomID            string
	SenderID          string
	SenderDisplayName string
	EventID           string
	ReplyTo           string
	Timestamp         time.Time
	Kind              PayloadKind

	// Body is the text of a message or the new text of an edit
	Body string
	// Mentions are the user ids the message explicitly mentions
	Mentions []string

	// RelatesTo is the reaction target, the edited event or the redacted event
	RelatesTo   string
	ReactionKey string

	MediaURL string
	MimeType string
	Filename string
}

// Event is a domain event produced by the Normalizer
type Event interface {
	eventName() string
}

// Submission is a reporting room message addressed to the bot
type Submission struct {
	ID                  string
	ReporterID          string
	ReporterDisplayName string
	Text                string
	Timestamp           time.Time
}

// SubmissionEdited is an edit of a reporting room message
type SubmissionEdited struct {
	TargetID string
	EditorID string
	Text     string
}

// ReactionAdded is a recognized reaction in the reporting room
type ReactionAdded struct {
	ReactionID string
	TargetID   string
	EmojiKey   string
	ActorID    string
}

// ReactionRemoved withdraws a reaction
type ReactionRemoved struct {
	ReactionID string
	TargetID   string
	EmojiKey   string
	ActorID    string
}

// MediaPosted is an image or video posted in the reporting room
type MediaPosted struct {
	ID        string
	ParentID  string
	URL       string
	Kind      entities.MediaKind
	Filename  string
	SenderID  string
	Timestamp time.Time
}

// Redaction removes an event from the reporting room
type Redaction struct {
	ID      string
	ActorID string
}

// AdminCommand is an admin room message starting with the command prefix
type AdminCommand struct {
	Raw              string
	ActorID          string
	ActorDisplayName string
}

func (Submission) eventName() string       { return "submission" }
func (SubmissionEdited) eventName() string { return "submission_edited" }
func (ReactionAdded) eventName() string    { return "reaction_added" }
func (ReactionRemoved) eventName() string  { return "reaction_removed" }
func (MediaPosted) eventName() string      { return "media_posted" }
func (Redaction) eventName() string        { return "redaction" }
func (AdminCommand) eventName() string     { return "admin_command" }

// Name returns the metric label of a domain event
func Name(e Event) string {
	if e == nil {
		return "dropped"
	}
	return e.eventName()
}
