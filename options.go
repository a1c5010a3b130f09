package skinhunter

import (
	"github.com/raykavin/skinhunter/core"
	"github.com/raykavin/skinhunter/logger"
	"github.com/raykavin/skinhunter/steam"
)

// Option is a functional option for configuring a Bot instance
type Option func(*Bot)

// WithStorage sets the storage for the bot, by default it uses a local file
// called skinhunter.db
func WithStorage(storage core.Storage) Option {
	return func(bot *Bot) {
		bot.storage = storage
	}
}

// WithMarketClient sets a custom marketplace client
func WithMarketClient(client *steam.Client) Option {
	return func(bot *Bot) {
		bot.market = client
	}
}

// WithNotifier registers a notifier to the bot
func WithNotifier(notifier core.NotifierWithStart) Option {
	return func(bot *Bot) {
		bot.notifier = notifier
	}
}

// WithLogger overrides the default logger
func WithLogger(log logger.Logger) Option {
	return func(bot *Bot) {
		bot.log = log
	}
}
