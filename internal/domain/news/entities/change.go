package entities

import "time"

// ChangeType is the kind of registry change published on the change feed
type ChangeType string

// Change types
const (
	ChangeSubmitted ChangeType = "submitted"
	ChangeUpdated   ChangeType = "updated"
	ChangeRemoved   ChangeType = "removed"
	ChangeCleared   ChangeType = "cleared"
	ChangeRendered  ChangeType = "rendered"
	ChangePublished ChangeType = "published"
)

// Change describes one accepted registry mutation
type Change struct {
	Type      ChangeType `json:"type"`
	ItemID    string     `json:"item_id,omitempty"`
	ActorID   string     `json:"actor_id,omitempty"`
	Item      *NewsItem  `json:"item,omitempty"`
	Count     int        `json:"count,omitempty"`
	URL       string     `json:"url,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
