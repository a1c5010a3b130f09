package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is a single observation of an item's lowest ask on the market.
// Samples are append-only: once recorded they are never mutated or deleted.
type PriceSample struct {
	ItemName   string          `json:"item_name"`
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observed_at"`
}

// WatchedItem is one entry of an owner's watchlist, unique per
// (OwnerID, ItemName). The item name is the market hash name and is matched
// byte-for-byte: no normalization, no case folding.
type WatchedItem struct {
	OwnerID  int64            `json:"owner_id"`
	ItemName string           `json:"item_name"`
	BuyPrice *decimal.Decimal `json:"buy_price,omitempty"`

	// Threshold arms a one-shot price-drop alert. It is cleared exactly once,
	// after the alert fires and is delivered; re-arming is up to the owner.
	Threshold *decimal.Decimal `json:"threshold,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Armed reports whether the item has an active alert threshold
func (w WatchedItem) Armed() bool {
	return w.Threshold != nil
}

// AlertEvent is the transient message produced when a watched item's price
// reaches its threshold. It is dispatched, never persisted.
type AlertEvent struct {
	OwnerID      int64
	ItemName     string
	CurrentPrice decimal.Decimal
	Threshold    decimal.Decimal
}
