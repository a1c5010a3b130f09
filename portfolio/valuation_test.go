package portfolio

import (
	"testing"

	"github.com/raykavin/skinhunter/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func decimalPtr(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func TestValuate(t *testing.T) {
	watches := []core.WatchedItem{
		{OwnerID: 10, ItemName: "AK-47 | Redline (Field-Tested)", BuyPrice: decimalPtr("40.00")},
		{OwnerID: 10, ItemName: "AWP | Asiimov (Field-Tested)", BuyPrice: decimalPtr("100.00")},
		{OwnerID: 10, ItemName: "M4A4 | Howl (Minimal Wear)", BuyPrice: decimalPtr("3000.00")},
	}
	latest := []core.PriceSample{
		{ItemName: "AK-47 | Redline (Field-Tested)", Price: decimal.RequireFromString("50.00")},
		{ItemName: "AWP | Asiimov (Field-Tested)", Price: decimal.RequireFromString("90.00")},
	}

	summary := Valuate(watches, latest)
	require.Len(t, summary.Positions, 3)

	redline := summary.Positions[0]
	require.True(t, redline.Priced())
	require.Equal(t, "50.00", redline.MarketPrice.StringFixed(2))
	require.Equal(t, "10.00", redline.PnL.StringFixed(2))
	require.Equal(t, "25.0", redline.PnLPercent.StringFixed(1))
	require.Equal(t, "43.48", redline.NetPrice.StringFixed(2)) // 50 / 1.15

	asiimov := summary.Positions[1]
	require.Equal(t, "-10.00", asiimov.PnL.StringFixed(2))
	require.Equal(t, "-10.0", asiimov.PnLPercent.StringFixed(1))

	// The unpriced position stays listed but contributes to no total
	howl := summary.Positions[2]
	require.False(t, howl.Priced())

	require.Equal(t, "140.00", summary.MarketValue.StringFixed(2))
	require.Equal(t, "140.00", summary.Invested.StringFixed(2))
	require.Equal(t, "0.00", summary.Profit.StringFixed(2))
	require.Equal(t, "0.0", summary.ProfitPercent.StringFixed(1))
	require.True(t, summary.NetProfit.IsNegative())
}

func TestValuateWithoutBuyPrices(t *testing.T) {
	watches := []core.WatchedItem{
		{OwnerID: 10, ItemName: "AK-47 | Redline (Field-Tested)"},
	}
	latest := []core.PriceSample{
		{ItemName: "AK-47 | Redline (Field-Tested)", Price: decimal.RequireFromString("50.00")},
	}

	summary := Valuate(watches, latest)
	require.Equal(t, "50.00", summary.MarketValue.StringFixed(2))
	require.True(t, summary.Invested.IsZero())
	require.True(t, summary.ProfitPercent.IsZero())
}

func TestValuateEmpty(t *testing.T) {
	summary := Valuate(nil, nil)
	require.Empty(t, summary.Positions)
	require.True(t, summary.MarketValue.IsZero())
	require.True(t, summary.Profit.IsZero())
}
