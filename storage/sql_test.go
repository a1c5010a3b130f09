package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/skinhunter/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLStorage(t *testing.T) core.Storage {
	store, err := FromSQL(
		sqlite.Open(filepath.Join(t.TempDir(), "skinhunter.db")),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	return store
}

func TestSQLStorage_RecordAndLatestPrices(t *testing.T) {
	ctx := context.Background()
	store := newSQLStorage(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	samples := []core.PriceSample{
		{ItemName: "AK-47 | Redline (Field-Tested)", Price: decimal.RequireFromString("45.00"), ObservedAt: base},
		{ItemName: "AK-47 | Redline (Field-Tested)", Price: decimal.RequireFromString("44.10"), ObservedAt: base.Add(time.Hour)},
		{ItemName: "AWP | Asiimov (Field-Tested)", Price: decimal.RequireFromString("91.50"), ObservedAt: base.Add(30 * time.Minute)},
	}
	for i := range samples {
		require.NoError(t, store.RecordPrice(ctx, &samples[i]))
	}

	latest, err := store.LatestPrices(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	byName := make(map[string]string, len(latest))
	for _, sample := range latest {
		byName[sample.ItemName] = sample.Price.StringFixed(2)
	}
	require.Equal(t, "44.10", byName["AK-47 | Redline (Field-Tested)"])
	require.Equal(t, "91.50", byName["AWP | Asiimov (Field-Tested)"])
}

func TestSQLStorage_RecordPriceEmptyName(t *testing.T) {
	err := newSQLStorage(t).RecordPrice(context.Background(), &core.PriceSample{
		Price: decimal.RequireFromString("1.00"),
	})
	require.ErrorIs(t, err, core.ErrEmptyItemName)
}

func TestSQLStorage_UpsertWatchPreservesFields(t *testing.T) {
	ctx := context.Background()
	store := newSQLStorage(t)

	require.NoError(t, store.UpsertWatch(ctx, &core.WatchedItem{
		OwnerID:  10,
		ItemName: "AK-47 | Redline (Field-Tested)",
		BuyPrice: decimalPtr("40.00"),
	}))

	// Re-adding without a buy price keeps the stored one
	require.NoError(t, store.UpsertWatch(ctx, &core.WatchedItem{
		OwnerID:  10,
		ItemName: "AK-47 | Redline (Field-Tested)",
	}))

	watches, err := store.Watches(ctx, core.WithOwner(10))
	require.NoError(t, err)
	require.Len(t, watches, 1)
	require.NotNil(t, watches[0].BuyPrice)
	require.Equal(t, "40.00", watches[0].BuyPrice.StringFixed(2))

	// A new buy price replaces the stored one; the armed threshold survives
	found, err := store.SetAlert(ctx, 10, "AK-47 | Redline (Field-Tested)", decimal.RequireFromString("35.00"))
	require.NoError(t, err)
	require.True(t, found)

	require.NoError(t, store.UpsertWatch(ctx, &core.WatchedItem{
		OwnerID:  10,
		ItemName: "AK-47 | Redline (Field-Tested)",
		BuyPrice: decimalPtr("42.50"),
	}))

	watches, err = store.Watches(ctx, core.WithOwner(10))
	require.NoError(t, err)
	require.Len(t, watches, 1)
	require.Equal(t, "42.50", watches[0].BuyPrice.StringFixed(2))
	require.NotNil(t, watches[0].Threshold)
	require.Equal(t, "35.00", watches[0].Threshold.StringFixed(2))
}

func TestSQLStorage_RemoveWatch(t *testing.T) {
	ctx := context.Background()
	store := newSQLStorage(t)

	require.NoError(t, store.UpsertWatch(ctx, &core.WatchedItem{
		OwnerID:  10,
		ItemName: "AK-47 | Redline (Field-Tested)",
	}))

	removed, err := store.RemoveWatch(ctx, 10, "AK-47 | Redline (Field-Tested)")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = store.RemoveWatch(ctx, 10, "AK-47 | Redline (Field-Tested)")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestSQLStorage_SetAndClearAlert(t *testing.T) {
	ctx := context.Background()
	store := newSQLStorage(t)

	// Arming an unwatched item reports absence
	found, err := store.SetAlert(ctx, 10, "AK-47 | Redline (Field-Tested)", decimal.RequireFromString("45.00"))
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, store.UpsertWatch(ctx, &core.WatchedItem{
		OwnerID:  10,
		ItemName: "AK-47 | Redline (Field-Tested)",
	}))

	found, err = store.SetAlert(ctx, 10, "AK-47 | Redline (Field-Tested)", decimal.RequireFromString("45.00"))
	require.NoError(t, err)
	require.True(t, found)

	armed, err := store.Watches(ctx, core.WithArmedAlert())
	require.NoError(t, err)
	require.Len(t, armed, 1)
	require.Equal(t, "45.00", armed[0].Threshold.StringFixed(2))

	require.NoError(t, store.ClearAlert(ctx, 10, "AK-47 | Redline (Field-Tested)"))

	armed, err = store.Watches(ctx, core.WithArmedAlert())
	require.NoError(t, err)
	require.Empty(t, armed)

	// Clearing an absent entry is a no-op
	require.NoError(t, store.ClearAlert(ctx, 99, "unknown"))
}

func TestSQLStorage_WatchesFilters(t *testing.T) {
	ctx := context.Background()
	store := newSQLStorage(t)

	entries := []core.WatchedItem{
		{OwnerID: 10, ItemName: "AK-47 | Redline (Field-Tested)", Threshold: decimalPtr("45.00")},
		{OwnerID: 10, ItemName: "AWP | Asiimov (Field-Tested)"},
		{OwnerID: 20, ItemName: "AK-47 | Redline (Field-Tested)"},
	}
	for i := range entries {
		require.NoError(t, store.UpsertWatch(ctx, &entries[i]))
	}

	all, err := store.Watches(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	owned, err := store.Watches(ctx, core.WithOwner(10))
	require.NoError(t, err)
	require.Len(t, owned, 2)

	armed, err := store.Watches(ctx, core.WithOwner(10), core.WithArmedAlert())
	require.NoError(t, err)
	require.Len(t, armed, 1)
	require.Equal(t, "AK-47 | Redline (Field-Tested)", armed[0].ItemName)
}
