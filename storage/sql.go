package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/skinhunter/core"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SQLStorage implements the core.Storage interface using a SQL database via
// GORM. The dialector is injected by the caller, so the package stays
// driver-agnostic.
type SQLStorage struct {
	db *gorm.DB
}

// priceRow is the relational shape of a core.PriceSample
type priceRow struct {
	ID         uint            `gorm:"primaryKey"`
	ItemName   string          `gorm:"index;not null"`
	Price      decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	ObservedAt time.Time       `gorm:"index;not null"`
}

func (priceRow) TableName() string { return "price_samples" }

// watchRow is the relational shape of a core.WatchedItem
type watchRow struct {
	ID        uint             `gorm:"primaryKey"`
	OwnerID   int64            `gorm:"uniqueIndex:idx_watch_owner_item;not null"`
	ItemName  string           `gorm:"uniqueIndex:idx_watch_owner_item;not null"`
	BuyPrice  *decimal.Decimal `gorm:"type:decimal(20,8)"`
	Threshold *decimal.Decimal `gorm:"type:decimal(20,8)"`
	UpdatedAt time.Time
}

func (watchRow) TableName() string { return "watched_items" }

// FromSQL creates a new SQL storage instance
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (core.Storage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pooling parameters
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&priceRow{}, &watchRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{
		db: db,
	}, nil
}

// RecordPrice appends a new price sample
func (s *SQLStorage) RecordPrice(ctx context.Context, sample *core.PriceSample) error {
	if sample.ItemName == "" {
		return core.ErrEmptyItemName
	}
	if sample.ObservedAt.IsZero() {
		sample.ObservedAt = time.Now().UTC()
	}

	row := priceRow{
		ItemName:   sample.ItemName,
		Price:      sample.Price,
		ObservedAt: sample.ObservedAt,
	}

	if result := s.db.WithContext(ctx).Create(&row); result.Error != nil {
		return fmt.Errorf("failed to create price sample: %w", result.Error)
	}

	return nil
}

// LatestPrices returns the most recent sample per item name, newest first
func (s *SQLStorage) LatestPrices(ctx context.Context) ([]core.PriceSample, error) {
	var rows []priceRow
	result := s.db.WithContext(ctx).Order("observed_at DESC").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query price samples: %w", result.Error)
	}

	// Rows are newest-first; UniqBy keeps the first occurrence per item
	latest := lo.UniqBy(rows, func(row priceRow) string {
		return row.ItemName
	})

	return lo.Map(latest, func(row priceRow, _ int) core.PriceSample {
		return core.PriceSample{
			ItemName:   row.ItemName,
			Price:      row.Price,
			ObservedAt: row.ObservedAt,
		}
	}), nil
}

// UpsertWatch creates or updates a watchlist entry, keeping the stored buy
// price and threshold when the update does not provide new ones
func (s *SQLStorage) UpsertWatch(ctx context.Context, watch *core.WatchedItem) error {
	if watch.ItemName == "" {
		return core.ErrEmptyItemName
	}

	var existing watchRow
	result := s.db.WithContext(ctx).
		Where("owner_id = ? AND item_name = ?", watch.OwnerID, watch.ItemName).
		First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		row := watchRow{
			OwnerID:   watch.OwnerID,
			ItemName:  watch.ItemName,
			BuyPrice:  watch.BuyPrice,
			Threshold: watch.Threshold,
		}
		if result := s.db.WithContext(ctx).Create(&row); result.Error != nil {
			return fmt.Errorf("failed to create watch: %w", result.Error)
		}
		return nil
	}
	if result.Error != nil {
		return fmt.Errorf("failed to read watch: %w", result.Error)
	}

	if watch.BuyPrice != nil {
		existing.BuyPrice = watch.BuyPrice
	}
	if watch.Threshold != nil {
		existing.Threshold = watch.Threshold
	}

	if result := s.db.WithContext(ctx).Save(&existing); result.Error != nil {
		return fmt.Errorf("failed to update watch: %w", result.Error)
	}

	return nil
}

// RemoveWatch deletes a watchlist entry, reporting whether it existed
func (s *SQLStorage) RemoveWatch(ctx context.Context, ownerID int64, itemName string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("owner_id = ? AND item_name = ?", ownerID, itemName).
		Delete(&watchRow{})

	if result.Error != nil {
		return false, fmt.Errorf("failed to delete watch: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// SetAlert arms the alert threshold on an existing entry
func (s *SQLStorage) SetAlert(ctx context.Context, ownerID int64, itemName string, threshold decimal.Decimal) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&watchRow{}).
		Where("owner_id = ? AND item_name = ?", ownerID, itemName).
		Update("threshold", threshold)

	if result.Error != nil {
		return false, fmt.Errorf("failed to arm alert: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// ClearAlert disarms the alert threshold; clearing an absent entry is a no-op
func (s *SQLStorage) ClearAlert(ctx context.Context, ownerID int64, itemName string) error {
	result := s.db.WithContext(ctx).
		Model(&watchRow{}).
		Where("owner_id = ? AND item_name = ?", ownerID, itemName).
		Update("threshold", nil)

	if result.Error != nil {
		return fmt.Errorf("failed to clear alert: %w", result.Error)
	}

	return nil
}

// Watches retrieves watchlist entries matching all provided filters
func (s *SQLStorage) Watches(ctx context.Context, filters ...core.WatchFilter) ([]core.WatchedItem, error) {
	var rows []watchRow
	result := s.db.WithContext(ctx).Order("updated_at ASC").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query watches: %w", result.Error)
	}

	watches := lo.Map(rows, func(row watchRow, _ int) core.WatchedItem {
		return core.WatchedItem{
			OwnerID:   row.OwnerID,
			ItemName:  row.ItemName,
			BuyPrice:  row.BuyPrice,
			Threshold: row.Threshold,
			UpdatedAt: row.UpdatedAt,
		}
	})

	return lo.Filter(watches, func(watch core.WatchedItem, _ int) bool {
		for _, filter := range filters {
			if !filter(watch) {
				return false
			}
		}
		return true
	}), nil
}
