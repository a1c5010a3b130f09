// Package notification provides implementations for various notification services
package notification

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/raykavin/skinhunter/core"
	"github.com/raykavin/skinhunter/logger"
	"github.com/raykavin/skinhunter/portfolio"
	"github.com/raykavin/skinhunter/steam"
	"github.com/shopspring/decimal"
	tb "gopkg.in/tucnak/telebot.v2"
)

const (
	pollingTimeout = 10 * time.Second

	// Status edits during an inventory appraisal happen at most once per
	// progressEvery items, to stay under the edit rate limit
	progressEvery = 5

	// Appraisal reports list at most this many lines
	reportLines = 15
)

// Telegram implements the core.NotifierWithStart interface
type Telegram struct {
	settings    *core.Settings
	storage     core.Storage
	market      *steam.Client
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
	log         logger.Logger
}

// Option is a function that configures a telegram instance
type Option func(telegram *Telegram)

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(
	storage core.Storage,
	market *steam.Client,
	settings *core.Settings,
	log logger.Logger,
	options ...Option,
) (core.NotifierWithStart, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: pollingTimeout}
	userMiddleware := newAuthMiddleware(poller, settings, log)

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Telegram.Token,
		Poller:    userMiddleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &Telegram{
		settings:    settings,
		storage:     storage,
		market:      market,
		client:      client,
		defaultMenu: menu,
		log:         log,
	}

	// Apply custom options if provided
	for _, option := range options {
		option(bot)
	}

	registerHandlers(client, bot)

	return bot, nil
}

// newAuthMiddleware creates a middleware to validate authorized users.
// An empty allow-list admits everyone.
func newAuthMiddleware(poller *tb.LongPoller, settings *core.Settings, log logger.Logger) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Error("message or sender is nil ", u)
			return false
		}

		if len(settings.Telegram.Users) == 0 {
			return true
		}

		if slices.Contains(settings.Telegram.Users, int64(u.Message.Sender.ID)) {
			return true
		}

		log.Error("unauthorized user ", u.Message.Sender.ID)
		return false
	})
}

// setupKeyboard configures the reply keyboard layout
func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		pricesBtn = menu.Text("/prices")
		findBtn   = menu.Text("/find")
		checkBtn  = menu.Text("/check")
		helpBtn   = menu.Text("/help")
	)

	menu.Reply(
		menu.Row(pricesBtn, findBtn),
		menu.Row(checkBtn, helpBtn),
	)
}

// setupCommands configures available bot commands
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/find", Description: "Look up the current price of an item"},
		{Text: "/add", Description: "Add an item to your watchlist"},
		{Text: "/del", Description: "Remove an item from your watchlist"},
		{Text: "/alert", Description: "Notify when an item drops below a price"},
		{Text: "/prices", Description: "Show your portfolio and profit"},
		{Text: "/check", Description: "Value a full inventory by profile link"},
	})
}

// registerHandlers registers all command handlers
func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/start", bot.StartHandle)
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/find", bot.FindHandle)
	client.Handle("/add", bot.AddHandle)
	client.Handle("/del", bot.RemoveHandle)
	client.Handle("/remove", bot.RemoveHandle)
	client.Handle("/alert", bot.AlertHandle)
	client.Handle("/prices", bot.PricesHandle)
	client.Handle("/check", bot.CheckHandle)
}

// Start begins the Telegram bot receive loop
func (t *Telegram) Start() {
	go t.client.Start()
	t.log.Info("telegram: bot started")
}

// Notification methods
// -------------------

// Notify sends a message to a single owner
func (t *Telegram) Notify(ownerID int64, text string) error {
	_, err := t.client.Send(&tb.User{ID: ownerID}, text)
	if err != nil {
		t.log.WithError(err).WithField("owner", ownerID).Error("telegram: failed to send notification")
	}
	return err
}

// AlertFired delivers a price-drop alert to its owner. The caller clears the
// alert only when this returns nil.
func (t *Telegram) AlertFired(event core.AlertEvent) error {
	message := fmt.Sprintf(
		"🚨 *PRICE DROP ALERT*\n\n"+
			"🔹 *%s*\n"+
			"📉 Current: *%s $*\n"+
			"🎯 Your target: %s $\n\n"+
			"This alert fired once and is now disarmed.",
		event.ItemName,
		event.CurrentPrice.StringFixed(2),
		event.Threshold.StringFixed(2),
	)

	return t.Notify(event.OwnerID, message)
}

// OnError notifies the allow-listed users about an internal error
func (t *Telegram) OnError(err error) {
	text := "🛑 ERROR\n-----\n" + err.Error()
	for _, user := range t.settings.Telegram.Users {
		if sendErr := t.Notify(user, text); sendErr != nil {
			t.log.WithError(sendErr).Error("telegram: failed to report error")
		}
	}
}

// sendMessage sends a message to a specific user
func (t *Telegram) sendMessage(to *tb.User, text string, options ...any) *tb.Message {
	msg, err := t.client.Send(to, text, options...)
	if err != nil {
		t.log.WithError(err).Error("telegram: failed to send message")
	}
	return msg
}

// editMessage replaces the text of a previously sent status message
func (t *Telegram) editMessage(msg *tb.Message, text string) *tb.Message {
	if msg == nil {
		return nil
	}

	edited, err := t.client.Edit(msg, text)
	if err != nil {
		t.log.WithError(err).Error("telegram: failed to edit message")
		return msg
	}
	return edited
}

// Command handlers
// ---------------

// StartHandle greets the user and shows the keyboard menu
func (t *Telegram) StartHandle(m *tb.Message) {
	t.sendMessage(m.Sender,
		"👋 *Hey, trader!*\n"+
			"I track the CS2 market for you.\n\n"+
			"Pick an action from the menu below:",
		t.defaultMenu,
	)
}

// HelpHandle displays available commands
func (t *Telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		t.log.WithError(err).Error("telegram: failed to get commands")
		t.OnError(err)
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("%s - %s", command.Text, command.Description))
	}

	t.sendMessage(m.Sender, strings.Join(lines, "\n"))
}

// FindHandle looks up the current price of a single item
func (t *Telegram) FindHandle(m *tb.Message) {
	itemName := strings.TrimSpace(m.Payload)
	if itemName == "" {
		t.sendMessage(m.Sender, "ℹ️ Usage: `/find AWP | Asiimov (Field-Tested)`")
		return
	}

	status := t.sendMessage(m.Sender, fmt.Sprintf("🔍 Searching: *%s*...", itemName))

	price, found := t.market.Price(context.Background(), itemName)
	if !found {
		t.editMessage(status, fmt.Sprintf("❌ Not found: `%s`", itemName))
		return
	}

	t.editMessage(status, fmt.Sprintf(
		"✅ *%s*\n💰 Price: *%s $*\n\nTrack it: `/add %s`",
		itemName, price.StringFixed(2), itemName,
	))
}

// AddHandle adds an item to the sender's watchlist, with an optional buy
// price as the last argument
func (t *Telegram) AddHandle(m *tb.Message) {
	itemName, buyPrice := splitTrailingPrice(m.Payload)
	if itemName == "" {
		t.sendMessage(m.Sender,
			"⚠️ *Usage:* `/add <item name> [buy price]`\n"+
				"Example: `/add AK-47 | Redline (Field-Tested) 15.50`")
		return
	}

	ctx := context.Background()
	watch := &core.WatchedItem{
		OwnerID:  int64(m.Sender.ID),
		ItemName: itemName,
		BuyPrice: buyPrice,
	}

	if err := t.storage.UpsertWatch(ctx, watch); err != nil {
		t.log.WithError(err).Error("telegram: failed to add watch")
		t.sendMessage(m.Sender, "❌ Storage error, try again later.")
		return
	}

	text := fmt.Sprintf("✅ *%s* added!", itemName)
	if buyPrice != nil {
		text += fmt.Sprintf("\n🎯 Buy price: *%s $*", buyPrice.StringFixed(2))
	}

	status := t.sendMessage(m.Sender, text+"\n⏳ *Fetching current price...*")

	price, found := t.market.Price(ctx, itemName)
	if !found {
		t.editMessage(status, text+"\n⚠️ No price right now (market may be blocking).")
		return
	}

	sample := &core.PriceSample{ItemName: itemName, Price: price, ObservedAt: time.Now().UTC()}
	if err := t.storage.RecordPrice(ctx, sample); err != nil {
		t.log.WithError(err).Error("telegram: failed to record price")
	}

	t.editMessage(status, text+fmt.Sprintf("\n💵 Current price: *%s $*", price.StringFixed(2)))
}

// RemoveHandle removes an item from the sender's watchlist
func (t *Telegram) RemoveHandle(m *tb.Message) {
	itemName := strings.TrimSpace(m.Payload)
	if itemName == "" {
		t.sendMessage(m.Sender, "⚠️ Usage: `/del AWP | Asiimov (Field-Tested)`")
		return
	}

	removed, err := t.storage.RemoveWatch(context.Background(), int64(m.Sender.ID), itemName)
	if err != nil {
		t.log.WithError(err).Error("telegram: failed to remove watch")
		t.sendMessage(m.Sender, "❌ Storage error, try again later.")
		return
	}

	if removed {
		t.sendMessage(m.Sender, fmt.Sprintf("🗑️ *%s* removed!", itemName))
	} else {
		t.sendMessage(m.Sender, fmt.Sprintf("❌ *%s* is not on your list.", itemName))
	}
}

// AlertHandle arms a price-drop alert: /alert <item name> <target price>
func (t *Telegram) AlertHandle(m *tb.Message) {
	itemName, threshold := splitTrailingPrice(m.Payload)
	if itemName == "" || threshold == nil {
		t.sendMessage(m.Sender, "⚠️ Usage: `/alert AK-47 | Redline (Field-Tested) 14.50`")
		return
	}

	ctx := context.Background()

	// Ensure the item is watched, then arm the threshold
	watch := &core.WatchedItem{OwnerID: int64(m.Sender.ID), ItemName: itemName}
	if err := t.storage.UpsertWatch(ctx, watch); err != nil {
		t.log.WithError(err).Error("telegram: failed to add watch")
		t.sendMessage(m.Sender, "❌ Storage error, try again later.")
		return
	}

	armed, err := t.storage.SetAlert(ctx, int64(m.Sender.ID), itemName, *threshold)
	if err != nil || !armed {
		t.log.WithError(err).Error("telegram: failed to arm alert")
		t.sendMessage(m.Sender, "❌ Storage error, try again later.")
		return
	}

	t.sendMessage(m.Sender, fmt.Sprintf(
		"🔔 *Alert armed!*\n\nI will message you when *%s* drops below *%s $*.",
		itemName, threshold.StringFixed(2),
	))
}

// PricesHandle shows the sender's portfolio with PnL against latest prices
func (t *Telegram) PricesHandle(m *tb.Message) {
	ctx := context.Background()

	watches, err := t.storage.Watches(ctx, core.WithOwner(int64(m.Sender.ID)))
	if err != nil {
		t.log.WithError(err).Error("telegram: failed to load watchlist")
		t.sendMessage(m.Sender, "❌ Storage error, try again later.")
		return
	}
	if len(watches) == 0 {
		t.sendMessage(m.Sender, "📭 Your watchlist is empty.")
		return
	}

	latest, err := t.storage.LatestPrices(ctx)
	if err != nil {
		t.log.WithError(err).Error("telegram: failed to load latest prices")
		t.sendMessage(m.Sender, "❌ Storage error, try again later.")
		return
	}

	summary := portfolio.Valuate(watches, latest)
	t.sendMessage(m.Sender, formatSummary(summary))
}

// CheckHandle values a full inventory from a profile link
func (t *Telegram) CheckHandle(m *tb.Message) {
	link := strings.TrimSpace(m.Payload)
	if link == "" {
		t.sendMessage(m.Sender, "⚠️ Usage: `/check https://steamcommunity.com/profiles/7656...`")
		return
	}

	steamID, err := steam.ExtractSteamID(link)
	if err != nil {
		t.sendMessage(m.Sender, "❌ No SteamID found (use a link containing `7656...`).")
		return
	}

	ctx := context.Background()
	status := t.sendMessage(m.Sender, fmt.Sprintf(
		"🔍 Scanning ID: `%s`...\n🐢 Slow mode engaged to stay under the rate limit...", steamID))

	items, err := t.market.Inventory(ctx, steamID)
	if err != nil {
		t.editMessage(status, "❌ Invalid SteamID.")
		return
	}
	if len(items) == 0 {
		t.editMessage(status, "❌ Inventory is empty, private, or the market is blocking. Try later.")
		return
	}

	t.editMessage(status, fmt.Sprintf(
		"📦 %d unique items found.\n☕ Starting full valuation. Slow, but thorough.", len(items)))

	appraisal := t.appraise(ctx, status, steamID, items)
	t.editMessage(status, formatAppraisal(appraisal, t.settings.Portfolio))
}

// appraise runs the sequential bulk valuation, editing the status message as
// it progresses and whenever the market blocks an item
func (t *Telegram) appraise(ctx context.Context, status *tb.Message, steamID string, items map[string]int) portfolio.Appraisal {
	fetch := func(ctx context.Context, itemName string) (decimal.Decimal, bool) {
		return t.market.PriceWithRetry(ctx, itemName, func(itemName string, attempt int, wait time.Duration) {
			if attempt > 2 {
				t.editMessage(status, fmt.Sprintf(
					"⛔ Market is thinking... (%s)\n💤 Waiting %s...", itemName, wait))
			}
		})
	}

	progress := func(done, total int, itemName string) {
		if done == 1 || done%progressEvery == 0 {
			percent := float64(done) / float64(total) * 100
			t.editMessage(status, fmt.Sprintf(
				"⏳ Valuing %d/%d (%.1f%%):\n`%s`...", done, total, percent, itemName))
		}
	}

	return portfolio.Appraise(ctx, steamID, items, fetch, progress)
}

// Formatting helpers
// ------------------

// splitTrailingPrice splits "<item name> [price]" where the price, if
// present, is the last whitespace-separated token. A comma decimal mark is
// accepted ("14,50").
func splitTrailingPrice(payload string) (string, *decimal.Decimal) {
	fields := strings.Fields(strings.TrimSpace(payload))
	if len(fields) == 0 {
		return "", nil
	}
	if len(fields) == 1 {
		return fields[0], nil
	}

	last := strings.Replace(fields[len(fields)-1], ",", ".", 1)
	price, err := decimal.NewFromString(last)
	if err != nil || !price.IsPositive() {
		return strings.Join(fields, " "), nil
	}

	return strings.Join(fields[:len(fields)-1], " "), &price
}

func signPrefix(value decimal.Decimal) string {
	if value.Sign() >= 0 {
		return "+"
	}
	return ""
}

// formatSummary renders a portfolio valuation the way the /prices command
// presents it
func formatSummary(summary portfolio.Summary) string {
	var sb strings.Builder
	sb.WriteString("📊 *Your portfolio:*\n\n")

	for _, position := range summary.Positions {
		fmt.Fprintf(&sb, "🔹 *%s*\n", position.ItemName)

		if !position.Priced() {
			sb.WriteString("   ⏳ Awaiting first price...\n\n")
			continue
		}

		fmt.Fprintf(&sb, "   💵 Market: %s $\n", position.MarketPrice.StringFixed(2))
		fmt.Fprintf(&sb, "   🤲 After fee: *%s $*", position.NetPrice.StringFixed(2))

		if position.BuyPrice != nil {
			emoji := "🟢"
			if position.PnL.IsNegative() {
				emoji = "🔴"
			}
			sign := signPrefix(position.PnL)
			fmt.Fprintf(&sb, " | Bought: %s $\n   %s PnL: *%s%s $ (%s%s%%)*",
				position.BuyPrice.StringFixed(2),
				emoji, sign, position.PnL.StringFixed(2), sign, position.PnLPercent.StringFixed(1))
		}

		if position.Threshold != nil {
			fmt.Fprintf(&sb, "\n   🔔 Alert: *< %s $*", position.Threshold.StringFixed(2))
		}

		sb.WriteString("\n\n")
	}

	if summary.MarketValue.IsPositive() {
		sb.WriteString(strings.Repeat("-", 25) + "\n")
		sb.WriteString("💰 *BALANCE:*\n")
		fmt.Fprintf(&sb, "🏦 Assets (market): *%s $*\n", summary.MarketValue.StringFixed(2))
		fmt.Fprintf(&sb, "🤲 If sold now: *%s $*\n", summary.NetValue.StringFixed(2))

		if summary.Invested.IsPositive() {
			emoji, emojiNet := "🚀", "🚀"
			if summary.Profit.IsNegative() {
				emoji = "🔻"
			}
			if summary.NetProfit.IsNegative() {
				emojiNet = "🔻"
			}
			sign, signNet := signPrefix(summary.Profit), signPrefix(summary.NetProfit)

			fmt.Fprintf(&sb, "\n📊 Invested: %s $\n", summary.Invested.StringFixed(2))
			fmt.Fprintf(&sb, "%s Profit (paper): *%s%s $ (%s%s%%)*\n",
				emoji, sign, summary.Profit.StringFixed(2), sign, summary.ProfitPercent.StringFixed(1))
			fmt.Fprintf(&sb, "%s Profit after selling: *%s%s $ (%s%s%%)*",
				emojiNet, signNet, summary.NetProfit.StringFixed(2), signNet, summary.NetProfitPercent.StringFixed(1))
		}
	}

	return sb.String()
}

// formatAppraisal renders a completed inventory valuation report
func formatAppraisal(appraisal portfolio.Appraisal, settings core.PortfolioSettings) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Inventory report:*\nID: `%s`\n\n", appraisal.SteamID)

	for i, line := range appraisal.Lines {
		if i == reportLines {
			fmt.Fprintf(&sb, "...and %d more items.\n", len(appraisal.Lines)-reportLines)
			break
		}
		fmt.Fprintf(&sb, "✅ %s (x%d) — *%s $* (Σ %s)\n",
			line.ItemName, line.Quantity, line.Price.StringFixed(2), line.Total.StringFixed(2))
	}

	if len(appraisal.Failed) > 0 {
		fmt.Fprintf(&sb, "\n⚠️ *Skipped %d items* (market gave no price)\n", len(appraisal.Failed))
	}

	sb.WriteString("\n" + strings.Repeat("-", 20) + "\n")
	fmt.Fprintf(&sb, "💰 *TOTAL: %s $*", appraisal.Total.StringFixed(2))

	if settings.SecondaryRate > 0 {
		secondary := appraisal.Total.Mul(decimal.NewFromFloat(settings.SecondaryRate))
		fmt.Fprintf(&sb, " (≈ %s %s)", secondary.StringFixed(0), settings.SecondarySymbol)
	}

	return sb.String()
}
