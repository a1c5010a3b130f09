// Package monitor implements the background loop that periodically records
// prices for every tracked item and fires one-shot price-drop alerts.
package monitor

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/StudioSol/set"
	"github.com/jpillora/backoff"
	"github.com/raykavin/skinhunter/core"
	"github.com/raykavin/skinhunter/logger"
	"github.com/shopspring/decimal"
)

// PriceSource yields the current lowest ask for an item, or false when the
// market has no usable price right now
type PriceSource interface {
	Price(ctx context.Context, itemName string) (decimal.Decimal, bool)
}

// Monitor drives the recurring price check. It owns no state of its own;
// all coordination with user-facing operations happens through storage.
type Monitor struct {
	storage  core.Storage
	prices   PriceSource
	notifier core.Notifier
	settings core.MonitorSettings
	log      logger.Logger
}

// New creates a monitor over the given collaborators. notifier may be nil,
// which degrades the loop to pure price recording.
func New(
	storage core.Storage,
	prices PriceSource,
	notifier core.Notifier,
	settings core.MonitorSettings,
	log logger.Logger,
) *Monitor {
	return &Monitor{
		storage:  storage,
		prices:   prices,
		notifier: notifier,
		settings: settings,
		log:      log,
	}
}

// Start runs monitoring cycles until the context is canceled. A failed cycle
// is logged and retried with increasing backoff; nothing short of process
// shutdown stops the loop.
func (m *Monitor) Start(ctx context.Context) {
	m.log.Info("monitor: started")

	retry := &backoff.Backoff{
		Min: m.settings.IdleInterval,
		Max: m.settings.Interval,
	}

	for {
		worked, err := m.RunOnce(ctx)

		var sleep time.Duration
		switch {
		case err != nil:
			m.log.WithError(err).Error("monitor: cycle failed")
			sleep = retry.Duration()
		case !worked:
			retry.Reset()
			sleep = m.settings.IdleInterval
		default:
			retry.Reset()
			sleep = m.settings.Interval
		}

		select {
		case <-ctx.Done():
			m.log.Info("monitor: stopped")
			return
		case <-time.After(sleep):
		}
	}
}

// RunOnce executes a single monitoring cycle: load the watchlist, fetch one
// price per distinct item name, record it, and evaluate every armed alert for
// that item. worked is false when the tracked set was empty and no network
// call was made.
func (m *Monitor) RunOnce(ctx context.Context) (worked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("monitor: cycle panic: %v", r)
		}
	}()

	watches, err := m.storage.Watches(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load watchlist: %w", err)
	}
	if len(watches) == 0 {
		return false, nil
	}

	// Distinct item names, in watchlist order: one fetch per item per cycle
	// regardless of how many owners track it
	names := set.NewLinkedHashSetString()
	for _, watch := range watches {
		names.Add(watch.ItemName)
	}
	m.log.Infof("monitor: checking %d items", names.Length())

	for name := range names.Iter() {
		// No retry budget here: a miss this cycle is retried next cycle
		if price, found := m.prices.Price(ctx, name); found {
			m.record(ctx, name, price)
			m.fireAlerts(ctx, watches, name, price)
		}

		m.pause(ctx, m.itemPacing())
		if ctx.Err() != nil {
			return true, nil
		}
	}

	m.log.Debug("monitor: cycle finished")
	return true, nil
}

// record appends a price sample. A persistence failure is logged and the
// cycle continues; alerts still get evaluated against the fetched price.
func (m *Monitor) record(ctx context.Context, itemName string, price decimal.Decimal) {
	sample := &core.PriceSample{
		ItemName:   itemName,
		Price:      price,
		ObservedAt: time.Now().UTC(),
	}

	if err := m.storage.RecordPrice(ctx, sample); err != nil {
		m.log.WithError(err).WithField("item", itemName).Error("monitor: failed to record price")
	}
}

// fireAlerts dispatches an alert event for every armed owner threshold the
// current price satisfies. The alert is cleared only after delivery succeeds,
// so an unreachable recipient is retried on a later fire-eligible cycle.
func (m *Monitor) fireAlerts(ctx context.Context, watches []core.WatchedItem, itemName string, price decimal.Decimal) {
	if m.notifier == nil {
		return
	}

	for _, watch := range watches {
		if watch.ItemName != itemName || !watch.Armed() {
			continue
		}
		if !EvaluateAlert(price, *watch.Threshold) {
			continue
		}

		event := core.AlertEvent{
			OwnerID:      watch.OwnerID,
			ItemName:     watch.ItemName,
			CurrentPrice: price,
			Threshold:    *watch.Threshold,
		}

		if err := m.notifier.AlertFired(event); err != nil {
			m.log.WithError(err).WithField("owner", watch.OwnerID).
				Warn("monitor: alert not delivered, keeping it armed")
			continue
		}

		if err := m.storage.ClearAlert(ctx, watch.OwnerID, watch.ItemName); err != nil {
			m.log.WithError(err).WithField("owner", watch.OwnerID).
				Error("monitor: failed to clear fired alert")
		}
	}
}

// itemPacing returns a uniformly random delay between per-item fetches,
// to avoid bursty request patterns
func (m *Monitor) itemPacing() time.Duration {
	spread := m.settings.ItemPaceMax - m.settings.ItemPaceMin
	if spread <= 0 {
		return m.settings.ItemPaceMin
	}

	return m.settings.ItemPaceMin + time.Duration(rand.Int63n(int64(spread)))
}

func (m *Monitor) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
