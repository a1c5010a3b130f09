package portfolio

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

// PriceFunc resolves the current price of an item, typically
// steam.Client.PriceWithRetry
type PriceFunc func(ctx context.Context, itemName string) (decimal.Decimal, bool)

// ProgressFunc reports appraisal progress to a human-visible status
type ProgressFunc func(done, total int, itemName string)

// AppraisalLine is one priced inventory slot
type AppraisalLine struct {
	ItemName string
	Price    decimal.Decimal
	Quantity int
	Total    decimal.Decimal
}

// Appraisal is the result of valuing a full inventory. Items whose price
// could not be resolved are listed in Failed and excluded from the total.
type Appraisal struct {
	SteamID string
	Lines   []AppraisalLine
	Failed  []string
	Total   decimal.Decimal
}

// Appraise values an inventory item by item through the given price function.
// Fetches run strictly sequentially: the upstream rate-limits by request
// volume, and parallel calls would trip the very blocking the retry pacing
// avoids. Lines come back sorted by line total, largest first.
func Appraise(
	ctx context.Context,
	steamID string,
	items map[string]int,
	fetch PriceFunc,
	progress ProgressFunc,
) Appraisal {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	appraisal := Appraisal{SteamID: steamID}

	for i, name := range names {
		if progress != nil {
			progress(i+1, len(names), name)
		}

		price, found := fetch(ctx, name)
		if !found {
			appraisal.Failed = append(appraisal.Failed, name)
			continue
		}

		quantity := items[name]
		lineTotal := price.Mul(decimal.NewFromInt(int64(quantity)))

		appraisal.Lines = append(appraisal.Lines, AppraisalLine{
			ItemName: name,
			Price:    price,
			Quantity: quantity,
			Total:    lineTotal,
		})
		appraisal.Total = appraisal.Total.Add(lineTotal)
	}

	sort.Slice(appraisal.Lines, func(i, j int) bool {
		return appraisal.Lines[i].Total.GreaterThan(appraisal.Lines[j].Total)
	})

	return appraisal
}

// String formats the appraisal as a text table
func (a Appraisal) String() string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)

	table.SetHeader([]string{"Item", "Qty", "Price", "Total"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	data := make([][]string, 0, len(a.Lines))
	for _, line := range a.Lines {
		data = append(data, []string{
			line.ItemName,
			strconv.Itoa(line.Quantity),
			line.Price.StringFixed(2),
			line.Total.StringFixed(2),
		})
	}

	table.AppendBulk(data)
	table.SetFooter([]string{"", "", "Total", a.Total.StringFixed(2)})
	table.Render()

	return tableString.String()
}
