// internal/infrastructure/database/postgres/cart_storage.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartSnapshot is one serialized cart, keyed by its storage key
type CartSnapshot struct {
	Key       string    `json:"key" gorm:"column:cart_key;primaryKey;size:255"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for CartSnapshot
func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}

// CartStorage keeps serialized carts in the cart_snapshots table
type CartStorage struct {
	db *gorm.DB
}

// NewCartStorage creates a database backed cart storage
func NewCartStorage(db *gorm.DB) *CartStorage {
	return &CartStorage{db: db}
}

// Get returns the value stored under key
func (s *CartStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var snapshot CartSnapshot
	err := s.db.WithContext(ctx).Where("cart_key = ?", key).First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cart %s: %w", key, err)
	}
	return snapshot.Value, true, nil
}

// Set inserts or replaces the value under key
func (s *CartStorage) Set(ctx context.Context, key, value string) error {
	snapshot := CartSnapshot{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&snapshot).Error
	if err != nil {
		return fmt.Errorf("failed to write cart %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *CartStorage) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("cart_key = ?", key).Delete(&CartSnapshot{}).Error; err != nil {
		return fmt.Errorf("failed to delete cart %s: %w", key, err)
	}
	return nil
}

// PurgeOlderThan deletes carts untouched since cutoff and returns how many
// were removed
func (s *CartStorage) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&CartSnapshot{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge carts: %w", result.Error)
	}
	return result.RowsAffected, nil
}
