// Package portfolio computes watchlist and inventory valuations from
// recorded market prices.
package portfolio

import (
	"github.com/raykavin/skinhunter/core"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// NetDivisor converts a listed price into the amount the seller actually
// receives after the ~15% market fee
var NetDivisor = decimal.RequireFromString("1.15")

var oneHundred = decimal.NewFromInt(100)

// Position is one valued watchlist line
type Position struct {
	ItemName    string
	BuyPrice    *decimal.Decimal
	Threshold   *decimal.Decimal
	MarketPrice *decimal.Decimal // nil while no sample has been recorded yet
	NetPrice    decimal.Decimal  // market price after the sale fee
	PnL         decimal.Decimal  // market price minus buy price
	PnLPercent  decimal.Decimal
}

// Priced reports whether a market price is known for this position
func (p Position) Priced() bool {
	return p.MarketPrice != nil
}

// Summary aggregates a full watchlist valuation
type Summary struct {
	Positions []Position

	MarketValue decimal.Decimal // sum of known market prices
	NetValue    decimal.Decimal // sum of net-of-fee prices
	Invested    decimal.Decimal // sum of buy prices over priced positions

	Profit           decimal.Decimal // MarketValue - Invested (paper)
	NetProfit        decimal.Decimal // NetValue - Invested (after selling)
	ProfitPercent    decimal.Decimal
	NetProfitPercent decimal.Decimal
}

// Valuate prices each watchlist entry against the latest recorded samples and
// aggregates totals. Entries without a recorded price stay in the result
// unpriced and are excluded from every total, including the invested amount.
func Valuate(watches []core.WatchedItem, latest []core.PriceSample) Summary {
	prices := lo.Associate(latest, func(sample core.PriceSample) (string, decimal.Decimal) {
		return sample.ItemName, sample.Price
	})

	summary := Summary{Positions: make([]Position, 0, len(watches))}

	for _, watch := range watches {
		position := Position{
			ItemName:  watch.ItemName,
			BuyPrice:  watch.BuyPrice,
			Threshold: watch.Threshold,
		}

		market, found := prices[watch.ItemName]
		if !found {
			summary.Positions = append(summary.Positions, position)
			continue
		}

		position.MarketPrice = &market
		position.NetPrice = market.DivRound(NetDivisor, 2)

		if watch.BuyPrice != nil {
			position.PnL = market.Sub(*watch.BuyPrice)
			if watch.BuyPrice.IsPositive() {
				position.PnLPercent = position.PnL.Div(*watch.BuyPrice).Mul(oneHundred)
			}
			summary.Invested = summary.Invested.Add(*watch.BuyPrice)
		}

		summary.MarketValue = summary.MarketValue.Add(market)
		summary.NetValue = summary.NetValue.Add(position.NetPrice)
		summary.Positions = append(summary.Positions, position)
	}

	summary.Profit = summary.MarketValue.Sub(summary.Invested)
	summary.NetProfit = summary.NetValue.Sub(summary.Invested)

	if summary.Invested.IsPositive() {
		summary.ProfitPercent = summary.Profit.Div(summary.Invested).Mul(oneHundred)
		summary.NetProfitPercent = summary.NetProfit.Div(summary.Invested).Mul(oneHundred)
	}

	return summary
}
