package portfolio

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAppraise(t *testing.T) {
	items := map[string]int{
		"AK-47 | Redline (Field-Tested)": 3,
		"AWP | Asiimov (Field-Tested)":   1,
		"Sticker | Crown (Foil)":         2,
	}
	prices := map[string]decimal.Decimal{
		"AK-47 | Redline (Field-Tested)": decimal.RequireFromString("45.00"),
		"AWP | Asiimov (Field-Tested)":   decimal.RequireFromString("90.00"),
	}

	var fetched []string
	fetch := func(_ context.Context, itemName string) (decimal.Decimal, bool) {
		fetched = append(fetched, itemName)
		price, found := prices[itemName]
		return price, found
	}

	appraisal := Appraise(context.Background(), "76561198012345678", items, fetch, nil)

	// Fetch order is deterministic regardless of map iteration
	require.Equal(t, []string{
		"AK-47 | Redline (Field-Tested)",
		"AWP | Asiimov (Field-Tested)",
		"Sticker | Crown (Foil)",
	}, fetched)

	require.Len(t, appraisal.Lines, 2)
	require.Equal(t, []string{"Sticker | Crown (Foil)"}, appraisal.Failed)

	// Largest line total first: 3x45 = 135 beats 1x90
	require.Equal(t, "AK-47 | Redline (Field-Tested)", appraisal.Lines[0].ItemName)
	require.Equal(t, "135.00", appraisal.Lines[0].Total.StringFixed(2))
	require.Equal(t, "90.00", appraisal.Lines[1].Total.StringFixed(2))
	require.Equal(t, "225.00", appraisal.Total.StringFixed(2))
}

func TestAppraiseProgress(t *testing.T) {
	items := map[string]int{
		"AK-47 | Redline (Field-Tested)": 1,
		"AWP | Asiimov (Field-Tested)":   1,
	}

	var steps []int
	progress := func(done, total int, _ string) {
		require.Equal(t, 2, total)
		steps = append(steps, done)
	}

	fetch := func(context.Context, string) (decimal.Decimal, bool) {
		return decimal.Zero, false
	}

	appraisal := Appraise(context.Background(), "76561198012345678", items, fetch, progress)
	require.Equal(t, []int{1, 2}, steps)
	require.Empty(t, appraisal.Lines)
	require.True(t, appraisal.Total.IsZero())
}

func TestAppraisalString(t *testing.T) {
	appraisal := Appraisal{
		Lines: []AppraisalLine{
			{ItemName: "AK-47 | Redline (Field-Tested)", Price: decimal.RequireFromString("45.00"), Quantity: 3, Total: decimal.RequireFromString("135.00")},
		},
		Total: decimal.RequireFromString("135.00"),
	}

	table := appraisal.String()
	require.True(t, strings.Contains(table, "AK-47 | Redline (Field-Tested)"))
	require.True(t, strings.Contains(table, "135.00"))
	require.True(t, strings.Contains(table, "TOTAL"))
}
