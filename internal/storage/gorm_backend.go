package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/digitalghar/storefront/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBackend stores entries in the session_entries table (postgres or sqlite).
type GormBackend struct {
	db *gorm.DB
}

func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

func (g *GormBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var entry model.SessionEntry
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session entry %s: %w", key, err)
	}
	return entry.Value, nil
}

func (g *GormBackend) Set(ctx context.Context, key string, value []byte) error {
	entry := model.SessionEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save session entry %s: %w", key, err)
	}
	return nil
}

func (g *GormBackend) Remove(ctx context.Context, key string) error {
	if err := g.db.WithContext(ctx).Where("key = ?", key).Delete(&model.SessionEntry{}).Error; err != nil {
		return fmt.Errorf("delete session entry %s: %w", key, err)
	}
	return nil
}

// PurgeBefore deletes entries not written since cutoff.
func (g *GormBackend) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := g.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&model.SessionEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge session entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}
