package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// Storage defines the persistence operations consumed by the bot.
// Implementations must treat each call as a single unit of atomicity;
// no cross-record transactions are required.
type Storage interface {
	// RecordPrice appends a new price sample
	RecordPrice(ctx context.Context, sample *PriceSample) error

	// LatestPrices returns the most recent sample per item name
	LatestPrices(ctx context.Context) ([]PriceSample, error)

	// UpsertWatch creates or updates a watchlist entry. When the entry exists
	// and the new buy price is nil, the stored buy price is kept.
	UpsertWatch(ctx context.Context, watch *WatchedItem) error

	// RemoveWatch deletes a watchlist entry, reporting whether it existed
	RemoveWatch(ctx context.Context, ownerID int64, itemName string) (bool, error)

	// SetAlert arms the alert threshold on an existing watchlist entry,
	// reporting whether the entry was found
	SetAlert(ctx context.Context, ownerID int64, itemName string, threshold decimal.Decimal) (bool, error)

	// ClearAlert disarms the alert threshold. Clearing an absent alert is a no-op.
	ClearAlert(ctx context.Context, ownerID int64, itemName string) error

	// Watches retrieves watchlist entries matching all provided filters
	Watches(ctx context.Context, filters ...WatchFilter) ([]WatchedItem, error)
}

// WatchFilter selects watchlist entries in Storage.Watches
type WatchFilter func(WatchedItem) bool

func WithOwner(ownerID int64) WatchFilter {
	return func(watch WatchedItem) bool {
		return watch.OwnerID == ownerID
	}
}

func WithItemName(itemName string) WatchFilter {
	return func(watch WatchedItem) bool {
		return watch.ItemName == itemName
	}
}

func WithArmedAlert() WatchFilter {
	return func(watch WatchedItem) bool {
		return watch.Armed()
	}
}
