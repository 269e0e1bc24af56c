// Package registry holds the authoritative in-memory state of the news items
package registry

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	"github.com/haecker-felix/hebbot/internal/domain/news/events"
)

// ConfigSource provides the active bot configuration
type ConfigSource interface {
	Current() *config.Bot
}

// Outcome tells what a mutation did
type Outcome int

const (
	// Ignored means the registry is unchanged
	Ignored Outcome = iota
	// Pending means the reference is stored until its target appears
	Pending
	// Applied means a news item changed
	Applied
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Pending:
		return "pending"
	default:
		return "ignored"
	}
}

// location is where an active reaction lives: on a news item or pending under a target id
type location struct {
	target  string
	pending bool
}

// Registry owns the news items. Classification fields of an item are a fold
// over its active reactions in arrival order; references to unknown events
// are kept and resolved when the referenced event shows up.
type Registry struct {
	source ConfigSource

	mu        sync.RWMutex
	items     map[string]*entities.NewsItem
	media     map[string]entities.Media
	pending   map[string][]entities.ActiveReaction
	reactions map[string]location
	nextSeq   uint64
}

// New creates an empty Registry
func New(source ConfigSource) *Registry {
	r := &Registry{source: source}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.items = make(map[string]*entities.NewsItem)
	r.media = make(map[string]entities.Media)
	r.pending = make(map[string][]entities.ActiveReaction)
	r.reactions = make(map[string]location)
	r.nextSeq = 1
}

func (r *Registry) seq() uint64 {
	s := r.nextSeq
	r.nextSeq++
	return s
}

// Submit creates a news item for a submission. Submitting an id twice is a no-op.
func (r *Registry) Submit(sub events.Submission) (entities.NewsItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[sub.ID]; exists {
		return entities.NewsItem{}, false
	}

	item := &entities.NewsItem{
		ID:                  sub.ID,
		ReporterID:          sub.ReporterID,
		ReporterDisplayName: sub.ReporterDisplayName,
		Message:             sub.Text,
		Timestamp:           sub.Timestamp,
		Seq:                 r.seq(),
	}
	r.items[item.ID] = item

	r.adopt(item, item.ID, false)
	for _, m := range r.media {
		if m.ParentID == item.ID {
			r.adopt(item, m.ID, true)
		}
	}
	r.fold(item)

	return item.Clone(), true
}

// adopt moves the reactions pending under targetID onto the item. For a
// media target only attach reactions move.
func (r *Registry) adopt(item *entities.NewsItem, targetID string, attachOnly bool) {
	waiting, ok := r.pending[targetID]
	if !ok {
		return
	}

	var keep []entities.ActiveReaction
	for _, reaction := range waiting {
		if attachOnly && reaction.Action.Kind != entities.ActionAttachMedia {
			keep = append(keep, reaction)
			continue
		}
		if reaction.ReactionID == "" && hasReaction(item.Reactions, reaction.ActorID, reaction.Action) {
			continue
		}
		item.Reactions = append(item.Reactions, reaction)
		if reaction.ReactionID != "" {
			r.reactions[reaction.ReactionID] = location{target: item.ID}
		}
	}
	if len(keep) == 0 {
		delete(r.pending, targetID)
	} else {
		r.pending[targetID] = keep
	}

	sort.SliceStable(item.Reactions, func(i, j int) bool {
		return item.Reactions[i].Seq < item.Reactions[j].Seq
	})
}

// resolve returns the news item an action on targetID applies to. Media
// attachments go through the media event's reply parent.
func (r *Registry) resolve(targetID string, action entities.Action) (*entities.NewsItem, bool) {
	if action.Kind == entities.ActionAttachMedia {
		m, ok := r.media[targetID]
		if !ok || m.ParentID == "" {
			return nil, false
		}
		item, ok := r.items[m.ParentID]
		return item, ok
	}
	item, ok := r.items[targetID]
	return item, ok
}

// Apply records an actor's classification action on targetID. A known
// reaction id is a no-op. Reactions without an id are deduplicated by
// (actor, action) on one target, since they can only be revoked by that pair.
// When the target is unknown the reaction waits for it.
func (r *Registry) Apply(reactionID, actorID, targetID string, action entities.Action) (Outcome, entities.NewsItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reactionID != "" {
		if _, exists := r.reactions[reactionID]; exists {
			return Ignored, entities.NewsItem{}
		}
	}

	reaction := entities.ActiveReaction{
		ReactionID: reactionID,
		ActorID:    actorID,
		Action:     action,
	}

	if item, ok := r.resolve(targetID, action); ok {
		if reactionID == "" && hasReaction(item.Reactions, actorID, action) {
			return Ignored, entities.NewsItem{}
		}
		reaction.Seq = r.seq()
		item.Reactions = append(item.Reactions, reaction)
		if reactionID != "" {
			r.reactions[reactionID] = location{target: item.ID}
		}
		r.fold(item)
		return Applied, item.Clone()
	}

	if reactionID == "" && hasReaction(r.pending[targetID], actorID, action) {
		return Ignored, entities.NewsItem{}
	}
	reaction.Seq = r.seq()
	r.pending[targetID] = append(r.pending[targetID], reaction)
	if reactionID != "" {
		r.reactions[reactionID] = location{target: targetID, pending: true}
	}
	return Pending, entities.NewsItem{}
}

// Revoke withdraws the reaction with the given id
func (r *Registry) Revoke(reactionID string) (Outcome, entities.ActiveReaction, entities.NewsItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.revoke(reactionID)
}

func (r *Registry) revoke(reactionID string) (Outcome, entities.ActiveReaction, entities.NewsItem) {
	loc, ok := r.reactions[reactionID]
	if !ok {
		return Ignored, entities.ActiveReaction{}, entities.NewsItem{}
	}
	delete(r.reactions, reactionID)

	match := func(a entities.ActiveReaction) bool { return a.ReactionID == reactionID }

	if loc.pending {
		removed, _ := r.removePending(loc.target, match)
		return Pending, removed, entities.NewsItem{}
	}

	item, ok := r.items[loc.target]
	if !ok {
		return Ignored, entities.ActiveReaction{}, entities.NewsItem{}
	}
	removed, _ := removeReaction(&item.Reactions, match)
	r.fold(item)
	return Applied, removed, item.Clone()
}

// RevokeMatching withdraws the reaction of actorID performing action on
// targetID, for transports that do not report reaction ids on removal
func (r *Registry) RevokeMatching(actorID, targetID string, action entities.Action) (Outcome, entities.NewsItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	match := func(a entities.ActiveReaction) bool {
		return a.ActorID == actorID && a.Action == action
	}

	if item, ok := r.resolve(targetID, action); ok {
		removed, found := removeReaction(&item.Reactions, match)
		if !found {
			return Ignored, entities.NewsItem{}
		}
		delete(r.reactions, removed.ReactionID)
		r.fold(item)
		return Applied, item.Clone()
	}

	removed, found := r.removePending(targetID, match)
	if !found {
		return Ignored, entities.NewsItem{}
	}
	delete(r.reactions, removed.ReactionID)
	return Pending, entities.NewsItem{}
}

func (r *Registry) removePending(targetID string, match func(entities.ActiveReaction) bool) (entities.ActiveReaction, bool) {
	list := r.pending[targetID]
	removed, found := removeReaction(&list, match)
	if len(list) == 0 {
		delete(r.pending, targetID)
	} else {
		r.pending[targetID] = list
	}
	return removed, found
}

// RecordMedia stores a posted image or video. Attach reactions waiting for it
// are applied when its reply parent is a known news item.
func (r *Registry) RecordMedia(m entities.Media) (Outcome, entities.NewsItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.media[m.ID]; exists {
		return Ignored, entities.NewsItem{}
	}
	r.media[m.ID] = m

	item, ok := r.items[m.ParentID]
	if !ok || m.ParentID == "" {
		return Pending, entities.NewsItem{}
	}
	if _, waiting := r.pending[m.ID]; !waiting {
		return Pending, entities.NewsItem{}
	}
	r.adopt(item, m.ID, true)
	r.fold(item)
	return Applied, item.Clone()
}

// Edit replaces the text of a news item
func (r *Registry) Edit(id, text string) (entities.NewsItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return entities.NewsItem{}, false
	}
	item.Message = text
	return item.Clone(), true
}

// Remove deletes a news item and its reactions
func (r *Registry) Remove(id string) (entities.NewsItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.remove(id)
}

func (r *Registry) remove(id string) (entities.NewsItem, bool) {
	item, ok := r.items[id]
	if !ok {
		return entities.NewsItem{}, false
	}
	for _, reaction := range item.Reactions {
		delete(r.reactions, reaction.ReactionID)
	}
	delete(r.items, id)
	return item.Clone(), true
}

// RemoveMedia forgets a media event. The returned item is the news item the
// media was attached to, if any.
func (r *Registry) RemoveMedia(id string) (entities.NewsItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeMedia(id)
}

func (r *Registry) removeMedia(id string) (entities.NewsItem, bool) {
	m, ok := r.media[id]
	if !ok {
		return entities.NewsItem{}, false
	}
	delete(r.media, id)

	for _, reaction := range r.pending[id] {
		delete(r.reactions, reaction.ReactionID)
	}
	delete(r.pending, id)

	item, ok := r.items[m.ParentID]
	if !ok {
		return entities.NewsItem{}, false
	}
	attached := func(a entities.ActiveReaction) bool {
		return a.Action.Kind == entities.ActionAttachMedia && a.Action.Key == id
	}
	for {
		removed, found := removeReaction(&item.Reactions, attached)
		if !found {
			break
		}
		delete(r.reactions, removed.ReactionID)
	}
	r.fold(item)
	return item.Clone(), true
}

// RedactKind tells what a redacted event was
type RedactKind int

// Redaction targets
const (
	RedactNone RedactKind = iota
	RedactNews
	RedactMedia
	RedactReaction
)

// RedactResult describes the effect of a redaction
type RedactResult struct {
	Kind     RedactKind
	Item     entities.NewsItem
	Reaction entities.ActiveReaction
	// Attached is false for media and reactions that were not on a news item yet
	Attached bool
}

// Redact undoes whatever the redacted event introduced: a news item, a media
// event or a reaction
func (r *Registry) Redact(eventID string) RedactResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item, ok := r.remove(eventID); ok {
		return RedactResult{Kind: RedactNews, Item: item, Attached: true}
	}
	if _, known := r.media[eventID]; known {
		item, attached := r.removeMedia(eventID)
		return RedactResult{Kind: RedactMedia, Item: item, Attached: attached}
	}
	if _, known := r.reactions[eventID]; !known {
		return RedactResult{Kind: RedactNone}
	}
	outcome, reaction, item := r.revoke(eventID)
	return RedactResult{Kind: RedactReaction, Item: item, Reaction: reaction, Attached: outcome == Applied}
}

// Get returns a copy of the news item with the given id
func (r *Registry) Get(id string) (entities.NewsItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return entities.NewsItem{}, false
	}
	return item.Clone(), true
}

// Len returns the number of news items
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Items returns copies of all news items in submission order
func (r *Registry) Items() []entities.NewsItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedItems()
}

func (r *Registry) sortedItems() []entities.NewsItem {
	items := make([]entities.NewsItem, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item.Clone())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })
	return items
}

// Clear removes everything and returns the number of news items removed
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.items)
	r.reset()
	return n
}

// Snapshot returns a consistent copy of the registry state
func (r *Registry) Snapshot() entities.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := entities.Snapshot{
		Version: entities.SnapshotVersion,
		NextSeq: r.nextSeq,
		Items:   r.sortedItems(),
	}

	for _, m := range r.media {
		snap.Media = append(snap.Media, m)
	}
	sort.Slice(snap.Media, func(i, j int) bool { return snap.Media[i].ID < snap.Media[j].ID })

	for target, list := range r.pending {
		for _, reaction := range list {
			snap.Pending = append(snap.Pending, entities.PendingReaction{TargetID: target, Reaction: reaction})
		}
	}
	sort.Slice(snap.Pending, func(i, j int) bool {
		return snap.Pending[i].Reaction.Seq < snap.Pending[j].Reaction.Seq
	})

	return snap
}

// Restore replaces the registry state with a snapshot. Classification fields
// are recomputed from the stored reactions.
func (r *Registry) Restore(snap entities.Snapshot) error {
	if snap.Version > entities.SnapshotVersion {
		return fmt.Errorf("snapshot version %d is newer than supported version %d", snap.Version, entities.SnapshotVersion)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reset()

	var maxSeq uint64
	bump := func(s uint64) {
		if s > maxSeq {
			maxSeq = s
		}
	}

	for _, m := range snap.Media {
		r.media[m.ID] = m
	}

	for i := range snap.Items {
		item := snap.Items[i].Clone()
		if item.ID == "" {
			return fmt.Errorf("snapshot item %d has no id", i)
		}
		if _, dup := r.items[item.ID]; dup {
			return fmt.Errorf("snapshot contains news item %s twice", item.ID)
		}
		bump(item.Seq)
		for _, reaction := range item.Reactions {
			bump(reaction.Seq)
			if reaction.ReactionID != "" {
				r.reactions[reaction.ReactionID] = location{target: item.ID}
			}
		}
		r.items[item.ID] = &item
	}

	for _, p := range snap.Pending {
		bump(p.Reaction.Seq)
		r.pending[p.TargetID] = append(r.pending[p.TargetID], p.Reaction)
		if p.Reaction.ReactionID != "" {
			r.reactions[p.Reaction.ReactionID] = location{target: p.TargetID, pending: true}
		}
	}

	r.nextSeq = max(snap.NextSeq, maxSeq+1)

	for _, item := range r.items {
		r.fold(item)
	}
	return nil
}

// Refold recomputes the classification fields of every item under the
// active configuration and returns the number of items.
func (r *Registry) Refold() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items {
		r.fold(item)
	}
	return len(r.items)
}

// fold recomputes the classification fields of an item from its reactions
func (r *Registry) fold(item *entities.NewsItem) {
	bot := r.source.Current()

	item.Approved = false
	item.SectionKey = ""
	item.ProjectKey = ""
	item.ThirdParty = false
	item.Images = nil
	item.Videos = nil

	for _, reaction := range item.Reactions {
		action := reaction.Action
		switch action.Kind {
		case entities.ActionApprove:
			item.Approved = true

		case entities.ActionAssignSection:
			item.SectionKey = action.Key
			if item.ProjectKey != "" && !bot.ProjectInSection(item.ProjectKey, action.Key) {
				item.ProjectKey = ""
			}

		case entities.ActionAssignProject:
			item.ProjectKey = action.Key
			if item.SectionKey == "" || !bot.ProjectInSection(action.Key, item.SectionKey) {
				if owner := bot.ProjectSection(action.Key); owner != "" {
					item.SectionKey = owner
				}
			}

		case entities.ActionMarkThirdParty:
			item.ThirdParty = true

		case entities.ActionAttachMedia:
			m, ok := r.media[action.Key]
			if !ok || m.ParentID != item.ID {
				continue
			}
			if bot.RestrictNotice && !bot.IsEditor(reaction.ActorID) && m.SenderID != reaction.ActorID {
				continue
			}
			ref := entities.MediaRef{EventID: m.ID, URL: m.URL, Filename: m.Filename}
			switch m.Kind {
			case entities.MediaVideo:
				if !hasMedia(item.Videos, m.ID) {
					item.Videos = append(item.Videos, ref)
				}
			default:
				if !hasMedia(item.Images, m.ID) {
					item.Images = append(item.Images, ref)
				}
			}
		}
	}
}

func hasReaction(list []entities.ActiveReaction, actorID string, action entities.Action) bool {
	return slices.ContainsFunc(list, func(a entities.ActiveReaction) bool {
		return a.ActorID == actorID && a.Action == action
	})
}

func hasMedia(list []entities.MediaRef, id string) bool {
	return slices.ContainsFunc(list, func(m entities.MediaRef) bool { return m.EventID == id })
}

// removeReaction deletes the first reaction matching from list
func removeReaction(list *[]entities.ActiveReaction, match func(entities.ActiveReaction) bool) (entities.ActiveReaction, bool) {
	i := slices.IndexFunc(*list, match)
	if i < 0 {
		return entities.ActiveReaction{}, false
	}
	removed := (*list)[i]
	*list = slices.Delete(*list, i, i+1)
	return removed, true
}
