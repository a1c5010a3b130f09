package steam

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var errNonPositivePrice = errors.New("price is not positive")

// priceOverview is the response body of the priceoverview endpoint
type priceOverview struct {
	Success     bool   `json:"success"`
	LowestPrice string `json:"lowest_price"`
	MedianPrice string `json:"median_price"`
	Volume      string `json:"volume"`
}

// Price fetches the current lowest ask for the given market hash name.
// It returns the price and true on success, or a zero decimal and false when
// the item is unknown, the response is malformed, or the market refuses the
// request. It never returns an error: a miss now may succeed on a later call.
//
// Every call pays a fixed pacing delay before the request goes out.
func (c *Client) Price(ctx context.Context, itemName string) (decimal.Decimal, bool) {
	if itemName == "" {
		return decimal.Zero, false
	}

	c.pause(ctx, c.cfg.RequestPacing)

	query := url.Values{}
	query.Set("appid", strconv.Itoa(c.cfg.AppID))
	query.Set("currency", strconv.Itoa(c.cfg.Currency))
	query.Set("market_hash_name", itemName)

	req, err := c.newRequest(ctx, c.cfg.BaseURL+"?"+query.Encode())
	if err != nil {
		c.log.WithError(err).Error("steam: failed to build price request")
		return decimal.Zero, false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("item", itemName).Warn("steam: price request failed")
		return decimal.Zero, false
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.log.WithField("item", itemName).Warn("steam: rate limited (429)")
		return decimal.Zero, false
	case resp.StatusCode != http.StatusOK:
		c.log.WithField("item", itemName).Warnf("steam: unexpected status %d", resp.StatusCode)
		return decimal.Zero, false
	}

	var overview priceOverview
	if err := json.NewDecoder(resp.Body).Decode(&overview); err != nil {
		c.log.WithError(err).WithField("item", itemName).Warn("steam: malformed price response")
		return decimal.Zero, false
	}

	if !overview.Success || overview.LowestPrice == "" {
		return decimal.Zero, false
	}

	price, err := parsePrice(overview.LowestPrice)
	if err != nil {
		c.log.WithError(err).WithField("item", itemName).
			Warnf("steam: unparsable price %q", overview.LowestPrice)
		return decimal.Zero, false
	}

	return price, true
}

// priceSymbolReplacer strips currency markers and spacing from a raw price
// string before separator normalization
var priceSymbolReplacer = strings.NewReplacer(
	"$", "",
	"USD", "",
	"€", "",
	"£", "",
	"₴", "",
	"pуб.", "",
	" ", "",
	" ", "",
)

// parsePrice converts a market price string to a decimal. The market localizes
// separators ("1,234.56" vs "1.234,56"); both conventions normalize to the
// same value. Non-positive results are rejected.
func parsePrice(raw string) (decimal.Decimal, error) {
	cleaned := normalizeSeparators(priceSymbolReplacer.Replace(strings.TrimSpace(raw)))

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}

	if price.Sign() <= 0 {
		return decimal.Zero, errNonPositivePrice
	}

	return price, nil
}

// normalizeSeparators rewrites a numeric string to use '.' as the decimal
// mark and no thousands grouping, whichever convention the input used
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// "1.234,56": dots group thousands, comma is the decimal mark
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// "1,234.56"
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// A single comma not followed by exactly three digits reads as the
		// decimal mark ("45,00"); anything else is thousands grouping ("1,234")
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	return s
}
