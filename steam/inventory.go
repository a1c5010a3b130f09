package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/raykavin/skinhunter/core"
	"github.com/raykavin/skinhunter/logger"
)

const (
	inventoryPageSize = 100
	inventoryPageCap  = 20

	// Community inventory context holding tradeable items
	inventoryContextID = 2
)

// inventoryPage is one page of the community inventory listing
type inventoryPage struct {
	Assets       []inventoryAsset       `json:"assets"`
	Descriptions []inventoryDescription `json:"descriptions"`
	LastAssetID  string                 `json:"last_assetid"`
}

type inventoryAsset struct {
	AssetID string `json:"assetid"`
	ClassID string `json:"classid"`
}

type inventoryDescription struct {
	ClassID        string `json:"classid"`
	MarketHashName string `json:"market_hash_name"`
	Marketable     int    `json:"marketable"`
}

// Inventory scans the full inventory of the given account and returns the
// quantity of each marketable item, keyed by market hash name. The only error
// it returns is core.ErrInvalidSteamID, raised before any network call; every
// upstream failure mid-scan yields whatever was aggregated so far.
//
// The scan paginates with a start_assetid cursor. A 429 pauses and retries the
// same page without advancing; any other failure aborts. A hard page cap
// bounds worst-case latency against huge inventories.
func (c *Client) Inventory(ctx context.Context, steamID string) (map[string]int, error) {
	if !validSteamID(steamID) {
		return nil, core.ErrInvalidSteamID
	}

	log := c.log.WithFields(map[string]any{
		"scan_id":  uuid.NewString()[:8],
		"steam_id": steamID,
	})
	log.Info("steam: starting inventory scan")

	items := make(map[string]int)
	cursor := ""

	for page := 1; page <= inventoryPageCap; {
		pageData, retry, ok := c.fetchInventoryPage(ctx, log, steamID, cursor)
		if retry {
			c.pause(ctx, c.cfg.RateLimitPause)
			if ctx.Err() != nil {
				return items, nil
			}
			continue
		}
		if !ok {
			return items, nil
		}

		if len(pageData.Assets) == 0 {
			break
		}

		countPage(items, pageData)
		log.WithField("page", page).Debugf("steam: %d assets on page", len(pageData.Assets))

		if pageData.LastAssetID == "" {
			break
		}

		cursor = pageData.LastAssetID
		page++
		if page > inventoryPageCap {
			log.Warn("steam: inventory page cap reached, stopping scan")
			break
		}

		// Pace between successive pages; a rate-limited retry pays only the
		// rate-limit pause above
		c.pause(ctx, c.cfg.PagePacing)
		if ctx.Err() != nil {
			return items, nil
		}
	}

	log.Infof("steam: scan complete, %d unique items", len(items))
	return items, nil
}

// fetchInventoryPage retrieves a single listing page. retry asks the caller to
// re-fetch the same page after a rate-limit pause; ok is false on any other
// failure, which ends the scan with partial results.
func (c *Client) fetchInventoryPage(
	ctx context.Context,
	log logger.Logger,
	steamID, cursor string,
) (page *inventoryPage, retry, ok bool) {
	query := url.Values{}
	query.Set("l", "english")
	query.Set("count", fmt.Sprintf("%d", inventoryPageSize))
	if cursor != "" {
		query.Set("start_assetid", cursor)
	}

	endpoint := fmt.Sprintf("%s/%s/%d/%d?%s",
		c.cfg.InventoryURL, steamID, c.cfg.AppID, inventoryContextID, query.Encode())

	req, err := c.newRequest(ctx, endpoint)
	if err != nil {
		log.WithError(err).Error("steam: failed to build inventory request")
		return nil, false, false
	}
	req.Header.Set("Referer", fmt.Sprintf("https://steamcommunity.com/profiles/%s/inventory", steamID))

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("steam: inventory request failed")
		return nil, false, false
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Warn("steam: rate limited mid-scan, pausing")
		return nil, true, false
	case resp.StatusCode != http.StatusOK:
		log.Warnf("steam: inventory page returned status %d", resp.StatusCode)
		return nil, false, false
	}

	var body inventoryPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.WithError(err).Warn("steam: malformed inventory page")
		return nil, false, false
	}

	return &body, false, true
}

// countPage joins assets to descriptions by class id and accumulates
// quantities for marketable items. Assets without a marketable description
// are dropped.
func countPage(items map[string]int, page *inventoryPage) {
	marketable := make(map[string]string, len(page.Descriptions))
	for _, desc := range page.Descriptions {
		if desc.Marketable == 1 {
			marketable[desc.ClassID] = desc.MarketHashName
		}
	}

	for _, asset := range page.Assets {
		if name, found := marketable[asset.ClassID]; found {
			items[name]++
		}
	}
}
