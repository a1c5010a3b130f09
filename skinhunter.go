package skinhunter

import (
	"context"

	"github.com/raykavin/skinhunter/core"
	"github.com/raykavin/skinhunter/logger"
	"github.com/raykavin/skinhunter/monitor"
	"github.com/raykavin/skinhunter/notification"
	"github.com/raykavin/skinhunter/steam"
	"github.com/raykavin/skinhunter/storage"
	"gorm.io/driver/sqlite"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

const defaultDatabase = "skinhunter.db"

// Bot wires the market client, storage, monitor and Telegram front-end into
// one process
type Bot struct {
	settings *core.Settings
	storage  core.Storage
	market   *steam.Client
	notifier core.NotifierWithStart
	monitor  *monitor.Monitor
	log      logger.Logger
}

// NewBot creates a bot instance with the provided settings and dependencies
func NewBot(settings *core.Settings, options ...Option) (*Bot, error) {
	bot := &Bot{
		settings: settings,
		log:      DefaultLog,
	}

	if settings.Monitor.Interval == 0 {
		settings.Monitor = core.DefaultMonitorSettings()
	}

	// Apply custom options
	for _, option := range options {
		option(bot)
	}

	if err := initializeStorage(bot); err != nil {
		return nil, err
	}

	if bot.market == nil {
		bot.market = steam.New(steam.Config{
			AppID:    settings.Steam.AppID,
			Currency: settings.Steam.Currency,
		}, bot.log)
	}

	if err := initializeNotifications(bot, settings); err != nil {
		return nil, err
	}

	bot.monitor = monitor.New(bot.storage, bot.market, bot.notifier, settings.Monitor, bot.log)

	return bot, nil
}

// initializeStorage sets up the bot's data storage: buntdb by default, or the
// SQL store when the sqlite driver is configured
func initializeStorage(bot *Bot) error {
	if bot.storage != nil {
		return nil
	}

	path := bot.settings.Database.Path
	if path == "" {
		path = defaultDatabase
	}

	var err error
	switch bot.settings.Database.Driver {
	case core.DriverSQLite:
		bot.storage, err = storage.FromSQL(sqlite.Open(path))
	default:
		bot.storage, err = storage.NewFromFile(path)
	}
	return err
}

// initializeNotifications sets up the notifier: the Telegram front-end when
// enabled, otherwise the SMTP fallback
func initializeNotifications(bot *Bot, settings *core.Settings) error {
	if bot.notifier != nil {
		return nil
	}

	if settings.Telegram.Enabled {
		telegram, err := notification.NewTelegram(bot.storage, bot.market, settings, bot.log)
		if err != nil {
			return err
		}

		bot.notifier = telegram
		return nil
	}

	if settings.Mail.Enabled {
		bot.notifier = notification.NewMail(notification.MailParams{
			SMTPServerAddress: settings.Mail.SMTPServer,
			SMTPServerPort:    settings.Mail.SMTPPort,
			From:              settings.Mail.From,
			To:                settings.Mail.To,
			Password:          settings.Mail.Password,
		})
	}

	return nil
}

// Storage returns the persistent store
func (b *Bot) Storage() core.Storage {
	return b.storage
}

// Market returns the marketplace client
func (b *Bot) Market() *steam.Client {
	return b.market
}

// Run starts the background monitor and the notifier receive loop, then
// blocks until the context is canceled
func (b *Bot) Run(ctx context.Context) error {
	go b.monitor.Start(ctx)

	if b.notifier != nil {
		b.notifier.Start()
	}

	b.log.Info("skinhunter: bot is online")
	<-ctx.Done()
	b.log.Info("skinhunter: shutting down")

	return nil
}
