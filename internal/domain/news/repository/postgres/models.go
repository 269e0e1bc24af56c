package postgres

import (
	"time"

	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
)

// metaRow holds the snapshot header. There is at most one row.
type metaRow struct {
	ID        uint `gorm:"primaryKey"`
	Version   int
	NextSeq   uint64
	UpdatedAt time.Time
}

func (metaRow) TableName() string { return "news_meta" }

type itemRow struct {
	ID                  string `gorm:"primaryKey"`
	ReporterID          string `gorm:"index"`
	ReporterDisplayName string
	Message             string
	Timestamp           time.Time
	Seq                 uint64 `gorm:"uniqueIndex"`
	Approved            bool
	SectionKey          string
	ProjectKey          string
	ThirdParty          bool
	Images              []entities.MediaRef `gorm:"serializer:json"`
	Videos              []entities.MediaRef `gorm:"serializer:json"`
}

func (itemRow) TableName() string { return "news_items" }

// reactionRow is an active reaction. Pending rows wait for TargetID to appear.
type reactionRow struct {
	Seq        uint64 `gorm:"primaryKey;autoIncrement:false"`
	ReactionID string `gorm:"index"`
	TargetID   string `gorm:"index"`
	Pending    bool
	ActorID    string
	Kind       string
	Key        string
}

func (reactionRow) TableName() string { return "news_reactions" }

type mediaRow struct {
	ID       string `gorm:"primaryKey"`
	ParentID string `gorm:"index"`
	URL      string
	Kind     string
	Filename string
	SenderID string
}

func (mediaRow) TableName() string { return "news_media" }

// toRows flattens a snapshot into table rows
func toRows(snap entities.Snapshot) (metaRow, []itemRow, []reactionRow, []mediaRow) {
	meta := metaRow{ID: 1, Version: snap.Version, NextSeq: snap.NextSeq}

	items := make([]itemRow, 0, len(snap.Items))
	var reactions []reactionRow
	for _, it := range snap.Items {
		items = append(items, itemRow{
			ID:                  it.ID,
			ReporterID:          it.ReporterID,
			ReporterDisplayName: it.ReporterDisplayName,
			Message:             it.Message,
			Timestamp:           it.Timestamp,
			Seq:                 it.Seq,
			Approved:            it.Approved,
			SectionKey:          it.SectionKey,
			ProjectKey:          it.ProjectKey,
			ThirdParty:          it.ThirdParty,
			Images:              it.Images,
			Videos:              it.Videos,
		})
		for _, r := range it.Reactions {
			reactions = append(reactions, reactionFromEntity(it.ID, false, r))
		}
	}
	for _, p := range snap.Pending {
		reactions = append(reactions, reactionFromEntity(p.TargetID, true, p.Reaction))
	}

	media := make([]mediaRow, 0, len(snap.Media))
	for _, m := range snap.Media {
		media = append(media, mediaRow{
			ID:       m.ID,
			ParentID: m.ParentID,
			URL:      m.URL,
			Kind:     string(m.Kind),
			Filename: m.Filename,
			SenderID: m.SenderID,
		})
	}

	return meta, items, reactions, media
}

func reactionFromEntity(targetID string, pending bool, r entities.ActiveReaction) reactionRow {
	return reactionRow{
		Seq:        r.Seq,
		ReactionID: r.ReactionID,
		TargetID:   targetID,
		Pending:    pending,
		ActorID:    r.ActorID,
		Kind:       string(r.Action.Kind),
		Key:        r.Action.Key,
	}
}

// fromRows rebuilds a snapshot. items and reactions must be ordered by seq.
func fromRows(meta metaRow, items []itemRow, reactions []reactionRow, media []mediaRow) entities.Snapshot {
	snap := entities.Snapshot{Version: meta.Version, NextSeq: meta.NextSeq}

	index := make(map[string]int, len(items))
	for _, row := range items {
		index[row.ID] = len(snap.Items)
		snap.Items = append(snap.Items, entities.NewsItem{
			ID:                  row.ID,
			ReporterID:          row.ReporterID,
			ReporterDisplayName: row.ReporterDisplayName,
			Message:             row.Message,
			Timestamp:           row.Timestamp.UTC(),
			Seq:                 row.Seq,
			Approved:            row.Approved,
			SectionKey:          row.SectionKey,
			ProjectKey:          row.ProjectKey,
			ThirdParty:          row.ThirdParty,
			Images:              row.Images,
			Videos:              row.Videos,
		})
	}

	for _, row := range reactions {
		reaction := entities.ActiveReaction{
			ReactionID: row.ReactionID,
			ActorID:    row.ActorID,
			Action:     entities.Action{Kind: entities.ActionKind(row.Kind), Key: row.Key},
			Seq:        row.Seq,
		}
		if row.Pending {
			snap.Pending = append(snap.Pending, entities.PendingReaction{TargetID: row.TargetID, Reaction: reaction})
			continue
		}
		if i, ok := index[row.TargetID]; ok {
			snap.Items[i].Reactions = append(snap.Items[i].Reactions, reaction)
		}
	}

	for _, row := range media {
		snap.Media = append(snap.Media, entities.Media{
			ID:       row.ID,
			ParentID: row.ParentID,
			URL:      row.URL,
			Kind:     entities.MediaKind(row.Kind),
			Filename: row.Filename,
			SenderID: row.SenderID,
		})
	}

	return snap
}
