package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/raykavin/skinhunter/core"
	"github.com/shopspring/decimal"
	"github.com/tidwall/buntdb"
)

const (
	// PriceIndexName orders price samples by observation time
	PriceIndexName = "observed_index"
	// WatchIndexName orders watchlist entries by update time
	WatchIndexName = "watch_index"

	priceKeyPrefix = "price:"
	watchKeyPrefix = "watch:"
)

// BuntStorage implements the core.Storage interface using BuntDB
type BuntStorage struct {
	lastID int64
	db     *buntdb.DB
}

// BuntConfig holds configuration options for BuntDB
type BuntConfig struct {
	// SyncPolicy determines how often data is synchronized to disk
	SyncPolicy buntdb.SyncPolicy
}

// DefaultBuntConfig returns the default configuration for BuntDB
func DefaultBuntConfig() BuntConfig {
	return BuntConfig{
		SyncPolicy: buntdb.EverySecond,
	}
}

// NewFromMemory creates an in-memory storage with default configuration
func NewFromMemory() (core.Storage, error) {
	return NewBuntStorage(":memory:", DefaultBuntConfig())
}

// NewFromFile creates a file-based storage with default configuration
func NewFromFile(file string) (core.Storage, error) {
	return NewBuntStorage(file, DefaultBuntConfig())
}

// NewBuntStorage creates a new BuntDB storage instance with the specified configuration
func NewBuntStorage(sourceFile string, config BuntConfig) (core.Storage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{
		SyncPolicy: config.SyncPolicy,
	}); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	if err := db.CreateIndex(PriceIndexName, priceKeyPrefix+"*", buntdb.IndexJSON("observed_at")); err != nil {
		return nil, fmt.Errorf("failed to create price index: %w", err)
	}

	if err := db.CreateIndex(WatchIndexName, watchKeyPrefix+"*", buntdb.IndexJSON("updated_at")); err != nil {
		return nil, fmt.Errorf("failed to create watch index: %w", err)
	}

	return &BuntStorage{
		db: db,
	}, nil
}

// getID generates a monotonic id for price sample keys within this process
func (b *BuntStorage) getID() int64 {
	return atomic.AddInt64(&b.lastID, 1)
}

// priceKey keeps samples sorted by insertion even across restarts by
// prefixing the key with the observation timestamp
func priceKey(observedAt time.Time, id int64) string {
	return fmt.Sprintf("%s%020d:%d", priceKeyPrefix, observedAt.UnixNano(), id)
}

func watchKey(ownerID int64, itemName string) string {
	return watchKeyPrefix + strconv.FormatInt(ownerID, 10) + ":" + itemName
}

// RecordPrice appends a new price sample. Samples are immutable once written.
func (b *BuntStorage) RecordPrice(_ context.Context, sample *core.PriceSample) error {
	if sample.ItemName == "" {
		return core.ErrEmptyItemName
	}
	if sample.ObservedAt.IsZero() {
		sample.ObservedAt = time.Now().UTC()
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		content, err := json.Marshal(sample)
		if err != nil {
			return fmt.Errorf("failed to marshal price sample: %w", err)
		}

		_, _, err = tx.Set(priceKey(sample.ObservedAt, b.getID()), string(content), nil)
		if err != nil {
			return fmt.Errorf("failed to store price sample: %w", err)
		}

		return nil
	})
}

// LatestPrices returns the most recent sample per item name, newest first
func (b *BuntStorage) LatestPrices(_ context.Context) ([]core.PriceSample, error) {
	latest := make([]core.PriceSample, 0)
	seen := make(map[string]struct{})

	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Descend(PriceIndexName, func(key, value string) bool {
			var sample core.PriceSample
			if err := json.Unmarshal([]byte(value), &sample); err != nil {
				log.Printf("Failed to unmarshal price sample %s: %v", key, err)
				return true // Continue iteration
			}

			if _, found := seen[sample.ItemName]; found {
				return true
			}

			seen[sample.ItemName] = struct{}{}
			latest = append(latest, sample)
			return true
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to query price samples: %w", err)
	}

	return latest, nil
}

// UpsertWatch creates or updates a watchlist entry. An existing buy price and
// alert threshold survive an upsert that does not provide new ones.
func (b *BuntStorage) UpsertWatch(_ context.Context, watch *core.WatchedItem) error {
	if watch.ItemName == "" {
		return core.ErrEmptyItemName
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		key := watchKey(watch.OwnerID, watch.ItemName)

		if value, err := tx.Get(key); err == nil {
			var existing core.WatchedItem
			if err := json.Unmarshal([]byte(value), &existing); err == nil {
				if watch.BuyPrice == nil {
					watch.BuyPrice = existing.BuyPrice
				}
				if watch.Threshold == nil {
					watch.Threshold = existing.Threshold
				}
			}
		}

		watch.UpdatedAt = time.Now().UTC()

		content, err := json.Marshal(watch)
		if err != nil {
			return fmt.Errorf("failed to marshal watch: %w", err)
		}

		if _, _, err := tx.Set(key, string(content), nil); err != nil {
			return fmt.Errorf("failed to store watch: %w", err)
		}

		return nil
	})
}

// RemoveWatch deletes a watchlist entry, reporting whether it existed
func (b *BuntStorage) RemoveWatch(_ context.Context, ownerID int64, itemName string) (bool, error) {
	removed := false

	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(watchKey(ownerID, itemName))
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to delete watch: %w", err)
		}

		removed = true
		return nil
	})

	return removed, err
}

// SetAlert arms the alert threshold on an existing entry
func (b *BuntStorage) SetAlert(_ context.Context, ownerID int64, itemName string, threshold decimal.Decimal) (bool, error) {
	found := false

	err := b.db.Update(func(tx *buntdb.Tx) error {
		key := watchKey(ownerID, itemName)

		value, err := tx.Get(key)
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read watch: %w", err)
		}

		var watch core.WatchedItem
		if err := json.Unmarshal([]byte(value), &watch); err != nil {
			return fmt.Errorf("failed to unmarshal watch: %w", err)
		}

		watch.Threshold = &threshold
		watch.UpdatedAt = time.Now().UTC()

		content, err := json.Marshal(watch)
		if err != nil {
			return fmt.Errorf("failed to marshal watch: %w", err)
		}

		if _, _, err := tx.Set(key, string(content), nil); err != nil {
			return fmt.Errorf("failed to store watch: %w", err)
		}

		found = true
		return nil
	})

	return found, err
}

// ClearAlert disarms the alert threshold; clearing an absent entry is a no-op
func (b *BuntStorage) ClearAlert(_ context.Context, ownerID int64, itemName string) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		key := watchKey(ownerID, itemName)

		value, err := tx.Get(key)
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read watch: %w", err)
		}

		var watch core.WatchedItem
		if err := json.Unmarshal([]byte(value), &watch); err != nil {
			return fmt.Errorf("failed to unmarshal watch: %w", err)
		}

		watch.Threshold = nil
		watch.UpdatedAt = time.Now().UTC()

		content, err := json.Marshal(watch)
		if err != nil {
			return fmt.Errorf("failed to marshal watch: %w", err)
		}

		if _, _, err := tx.Set(key, string(content), nil); err != nil {
			return fmt.Errorf("failed to store watch: %w", err)
		}

		return nil
	})
}

// Watches retrieves watchlist entries matching all provided filters
func (b *BuntStorage) Watches(_ context.Context, filters ...core.WatchFilter) ([]core.WatchedItem, error) {
	watches := make([]core.WatchedItem, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(WatchIndexName, func(key, value string) bool {
			var watch core.WatchedItem
			if err := json.Unmarshal([]byte(value), &watch); err != nil {
				log.Printf("Failed to unmarshal watch %s: %v", key, err)
				return true // Continue iteration
			}

			for _, filter := range filters {
				if !filter(watch) {
					return true
				}
			}

			watches = append(watches, watch)
			return true
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to query watches: %w", err)
	}

	return watches, nil
}
