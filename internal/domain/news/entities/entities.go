// Package entities contains domain entities for the news domain
package entities

import (
	"fmt"
	"time"
)

// ActionKind is the kind of classification an emoji reaction performs
type ActionKind string

// Classification actions
const (
	ActionApprove        ActionKind = "approve"
	ActionAssignSection  ActionKind = "assign_section"
	ActionAssignProject  ActionKind = "assign_project"
	ActionMarkThirdParty ActionKind = "mark_third_party"
	ActionAttachMedia    ActionKind = "attach_media"
)

// Action is a classification action. Key holds the section or project key
// for assignments and the media event id for a resolved AttachMedia.
type Action struct {
	Kind ActionKind `json:"kind"`
	Key  string     `json:"key,omitempty"`
}

// Approve returns the approval action
func Approve() Action { return Action{Kind: ActionApprove} }

// AssignSection returns the action assigning the section key
func AssignSection(key string) Action { return Action{Kind: ActionAssignSection, Key: key} }

// AssignProject returns the action assigning the project key
func AssignProject(key string) Action { return Action{Kind: ActionAssignProject, Key: key} }

// MarkThirdParty returns the third-party action
func MarkThirdParty() Action { return Action{Kind: ActionMarkThirdParty} }

// AttachMedia returns the attach action for the media event id
func AttachMedia(mediaID string) Action { return Action{Kind: ActionAttachMedia, Key: mediaID} }

// RequiresEditor reports whether only editors may perform the action
func (a Action) RequiresEditor() bool {
	return a.Kind != ActionAttachMedia
}

func (a Action) String() string {
	if a.Key == "" {
		return string(a.Kind)
	}
	return fmt.Sprintf("%s:%s", a.Kind, a.Key)
}

// ActiveReaction is a reaction currently applied to a news item or waiting
// for its target. Seq orders reactions by arrival.
type ActiveReaction struct {
	ReactionID string `json:"reaction_id"`
	ActorID    string `json:"actor_id"`
	Action     Action `json:"action"`
	Seq        uint64 `json:"seq"`
}

// PendingReaction is a reaction whose target is not (yet) a known news item or media event
type PendingReaction struct {
	TargetID string         `json:"target_id"`
	Reaction ActiveReaction `json:"reaction"`
}

// MediaKind distinguishes images from videos
type MediaKind string

// Media kinds
const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Media is an image or video posted in the reporting room
type Media struct {
	ID       string    `json:"id"`
	ParentID string    `json:"parent_id,omitempty"`
	URL      string    `json:"url"`
	Kind     MediaKind `json:"kind"`
	Filename string    `json:"filename,omitempty"`
	SenderID string    `json:"sender_id"`
}

// MediaRef is a media attachment of a news item
type MediaRef struct {
	EventID  string `json:"event_id"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// NewsItem is one reported submission. The classification fields are
// derived from Reactions and recomputed on every change.
type NewsItem struct {
	ID                  string           `json:"id"`
	ReporterID          string           `json:"reporter_id"`
	ReporterDisplayName string           `json:"reporter_display_name"`
	Message             string           `json:"message"`
	Timestamp           time.Time        `json:"timestamp"`
	Seq                 uint64           `json:"seq"`
	Reactions           []ActiveReaction `json:"reactions,omitempty"`

	Approved   bool       `json:"approved"`
	SectionKey string     `json:"section_key,omitempty"`
	ProjectKey string     `json:"project_key,omitempty"`
	ThirdParty bool       `json:"third_party"`
	Images     []MediaRef `json:"images,omitempty"`
	Videos     []MediaRef `json:"videos,omitempty"`
}

// IsAssigned reports whether the item has a section, a project or the third-party flag
func (n *NewsItem) IsAssigned() bool {
	return n.SectionKey != "" || n.ProjectKey != "" || n.ThirdParty
}

// Summary returns the first characters of the message for notices
func (n *NewsItem) Summary() string {
	const max = 40
	runes := []rune(n.Message)
	if len(runes) <= max {
		return n.Message
	}
	return string(runes[:max]) + "…"
}

// Clone returns a deep copy of the item
func (n NewsItem) Clone() NewsItem {
	n.Reactions = append([]ActiveReaction(nil), n.Reactions...)
	n.Images = append([]MediaRef(nil), n.Images...)
	n.Videos = append([]MediaRef(nil), n.Videos...)
	return n
}

// Snapshot is a consistent point-in-time copy of the registry. Items are
// ordered by submission.
type Snapshot struct {
	Version int               `json:"version"`
	NextSeq uint64            `json:"next_seq"`
	Items   []NewsItem        `json:"items"`
	Media   []Media           `json:"media,omitempty"`
	Pending []PendingReaction `json:"pending,omitempty"`
}

// SnapshotVersion is the current snapshot document version
const SnapshotVersion = 1
