package notification

import (
	"strings"
	"testing"

	"github.com/raykavin/skinhunter/core"
	"github.com/raykavin/skinhunter/portfolio"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSplitTrailingPrice(t *testing.T) {
	tt := []struct {
		name    string
		payload string
		item    string
		price   string
	}{
		{"name with price", "AK-47 | Redline (Field-Tested) 15.50", "AK-47 | Redline (Field-Tested)", "15.50"},
		{"comma decimal mark", "AK-47 | Redline (Field-Tested) 15,50", "AK-47 | Redline (Field-Tested)", "15.50"},
		{"name only", "AK-47 | Redline (Field-Tested)", "AK-47 | Redline (Field-Tested)", ""},
		{"single word", "Fruit", "Fruit", ""},
		{"trailing word is not a price", "Operation Bravo Case", "Operation Bravo Case", ""},
		{"zero is not a price", "Operation Bravo Case 0", "Operation Bravo Case 0", ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			item, price := splitTrailingPrice(tc.payload)
			require.Equal(t, tc.item, item)

			if tc.price == "" {
				require.Nil(t, price)
			} else {
				require.NotNil(t, price)
				require.Equal(t, tc.price, price.StringFixed(2))
			}
		})
	}
}

func TestSplitTrailingPriceEmpty(t *testing.T) {
	item, price := splitTrailingPrice("   ")
	require.Empty(t, item)
	require.Nil(t, price)
}

func TestFormatSummary(t *testing.T) {
	buy := decimal.RequireFromString("40.00")
	market := decimal.RequireFromString("50.00")

	summary := portfolio.Valuate(
		[]core.WatchedItem{{OwnerID: 10, ItemName: "AK-47 | Redline (Field-Tested)", BuyPrice: &buy}},
		[]core.PriceSample{{ItemName: "AK-47 | Redline (Field-Tested)", Price: market}},
	)

	text := formatSummary(summary)
	require.True(t, strings.Contains(text, "AK-47 | Redline (Field-Tested)"))
	require.True(t, strings.Contains(text, "50.00 $"))
	require.True(t, strings.Contains(text, "+10.00 $ (+25.0%)"))
	require.True(t, strings.Contains(text, "43.48 $")) // after the sale fee
}

func TestFormatSummaryUnpriced(t *testing.T) {
	summary := portfolio.Valuate(
		[]core.WatchedItem{{OwnerID: 10, ItemName: "M4A4 | Howl (Minimal Wear)"}},
		nil,
	)

	text := formatSummary(summary)
	require.True(t, strings.Contains(text, "Awaiting first price"))
	require.False(t, strings.Contains(text, "BALANCE"))
}

func TestFormatAppraisal(t *testing.T) {
	appraisal := portfolio.Appraisal{
		SteamID: "76561198012345678",
		Lines: []portfolio.AppraisalLine{
			{ItemName: "AK-47 | Redline (Field-Tested)", Price: decimal.RequireFromString("45.00"), Quantity: 2, Total: decimal.RequireFromString("90.00")},
		},
		Failed: []string{"Sticker | Crown (Foil)"},
		Total:  decimal.RequireFromString("90.00"),
	}

	text := formatAppraisal(appraisal, core.PortfolioSettings{
		SecondaryRate:   41.5,
		SecondarySymbol: "UAH",
	})

	require.True(t, strings.Contains(text, "76561198012345678"))
	require.True(t, strings.Contains(text, "TOTAL: 90.00 $"))
	require.True(t, strings.Contains(text, "Skipped 1 items"))
	require.True(t, strings.Contains(text, "3735 UAH")) // 90 * 41.5
}

func TestFormatAppraisalTruncatesReport(t *testing.T) {
	appraisal := portfolio.Appraisal{SteamID: "76561198012345678"}
	for i := 0; i < reportLines+5; i++ {
		appraisal.Lines = append(appraisal.Lines, portfolio.AppraisalLine{
			ItemName: "Sticker | Crown (Foil)",
			Price:    decimal.RequireFromString("1.00"),
			Quantity: 1,
			Total:    decimal.RequireFromString("1.00"),
		})
	}

	text := formatAppraisal(appraisal, core.PortfolioSettings{})
	require.True(t, strings.Contains(text, "...and 5 more items."))
	require.Equal(t, reportLines, strings.Count(text, "✅"))
}
