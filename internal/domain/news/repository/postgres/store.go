// Package postgres stores registry snapshots in PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
)

// Store replaces the whole snapshot inside one transaction on every save
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewStore creates a new Store and migrates its tables
func NewStore(db *gorm.DB, logger zerolog.Logger) (*Store, error) {
	if err := db.AutoMigrate(&metaRow{}, &itemRow{}, &reactionRow{}, &mediaRow{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "postgres-store").Logger(),
	}, nil
}

// Load reads the stored snapshot
func (s *Store) Load(ctx context.Context) (entities.Snapshot, bool, error) {
	db := s.db.WithContext(ctx)

	var meta metaRow
	if err := db.First(&meta, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Snapshot{}, false, nil
		}
		return entities.Snapshot{}, false, fmt.Errorf("load snapshot header: %w", err)
	}

	var items []itemRow
	if err := db.Order("seq").Find(&items).Error; err != nil {
		return entities.Snapshot{}, false, fmt.Errorf("load news items: %w", err)
	}
	var reactions []reactionRow
	if err := db.Order("seq").Find(&reactions).Error; err != nil {
		return entities.Snapshot{}, false, fmt.Errorf("load reactions: %w", err)
	}
	var media []mediaRow
	if err := db.Order("id").Find(&media).Error; err != nil {
		return entities.Snapshot{}, false, fmt.Errorf("load media: %w", err)
	}

	return fromRows(meta, items, reactions, media), true, nil
}

// Save replaces the stored snapshot
func (s *Store) Save(ctx context.Context, snap entities.Snapshot) error {
	meta, items, reactions, media := toRows(snap)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&reactionRow{}, &mediaRow{}, &itemRow{}} {
			if err := all.Delete(model).Error; err != nil {
				return fmt.Errorf("delete old rows: %w", err)
			}
		}

		if len(items) > 0 {
			if err := tx.CreateInBatches(items, 100).Error; err != nil {
				return fmt.Errorf("insert news items: %w", err)
			}
		}
		if len(reactions) > 0 {
			if err := tx.CreateInBatches(reactions, 100).Error; err != nil {
				return fmt.Errorf("insert reactions: %w", err)
			}
		}
		if len(media) > 0 {
			if err := tx.CreateInBatches(media, 100).Error; err != nil {
				return fmt.Errorf("insert media: %w", err)
			}
		}

		return tx.Save(&meta).Error
	})
	if err != nil {
		return err
	}

	s.logger.Debug().Int("news_items", len(items)).Msg("Snapshot saved")
	return nil
}
