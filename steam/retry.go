package steam

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// ProgressFunc reports that a bulk fetch is stuck on an item and how long the
// next wait will be. Implementations must be fast and must not block; the
// callback never affects control flow.
type ProgressFunc func(itemName string, attempt int, wait time.Duration)

// PriceWithRetry fetches a price with a bounded retry budget, for bulk
// operations like inventory valuation where a blocked item should not sink
// the whole batch.
//
// Failed attempts wait a linearly increasing delay before the next try; the
// final attempt does not wait since the budget is exhausted. A successful
// fetch pays one randomized throttle delay before returning, slowing the
// caller's next request rather than this one.
func (c *Client) PriceWithRetry(ctx context.Context, itemName string, progress ProgressFunc) (decimal.Decimal, bool) {
	for attempt := 0; attempt < c.cfg.RetryBudget; attempt++ {
		if price, found := c.Price(ctx, itemName); found {
			c.pause(ctx, c.throttle())
			return price, true
		}

		if attempt == c.cfg.RetryBudget-1 {
			break
		}

		wait := c.cfg.RetryBase + time.Duration(attempt)*c.cfg.RetryStep
		if progress != nil {
			progress(itemName, attempt+1, wait)
		}

		c.pause(ctx, wait)
		if ctx.Err() != nil {
			break
		}
	}

	return decimal.Zero, false
}

// throttle returns a uniformly random delay in [ThrottleMin, ThrottleMax]
func (c *Client) throttle() time.Duration {
	spread := c.cfg.ThrottleMax - c.cfg.ThrottleMin
	if spread <= 0 {
		return c.cfg.ThrottleMin
	}

	return c.cfg.ThrottleMin + time.Duration(rand.Int63n(int64(spread)))
}
