package core

import "time"

// Settings represents the main configuration for the application
type Settings struct {
	Steam     SteamSettings     // Marketplace client settings
	Telegram  TelegramSettings  // Telegram notification settings
	Mail      MailSettings      // SMTP notification settings
	Monitor   MonitorSettings   // Background monitoring settings
	Portfolio PortfolioSettings // Valuation settings
	Database  DatabaseSettings  // Storage settings
}

// SteamSettings holds configuration for the Steam Community Market client
type SteamSettings struct {
	AppID    int // Steam application id (730 for CS2)
	Currency int // Steam currency code (1 for USD)
}

// TelegramSettings holds configuration for Telegram integration
type TelegramSettings struct {
	Enabled bool    // Whether the Telegram front-end is enabled
	Token   string  // Telegram bot token
	Users   []int64 // Optional allow-list of authorized user IDs; empty allows everyone
}

// MailSettings holds configuration for the fallback SMTP notifier, used when
// the Telegram front-end is disabled
type MailSettings struct {
	Enabled    bool   // Whether the mail notifier is enabled
	SMTPServer string // SMTP server address
	SMTPPort   int    // SMTP server port
	From       string // Sender mailbox, also the SMTP auth identity
	To         string // Operator mailbox receiving every notification
	Password   string // SMTP auth password
}

// MonitorSettings holds configuration for the background price monitor
type MonitorSettings struct {
	Interval     time.Duration // Delay between full monitoring cycles
	IdleInterval time.Duration // Delay when the tracked set is empty
	ItemPaceMin  time.Duration // Lower bound of the randomized per-item pacing
	ItemPaceMax  time.Duration // Upper bound of the randomized per-item pacing
}

// PortfolioSettings holds configuration for portfolio valuation
type PortfolioSettings struct {
	SecondaryRate   float64 // Conversion rate for the secondary display currency
	SecondarySymbol string  // Symbol of the secondary display currency
}

// Supported storage drivers
const (
	DriverBuntDB = "buntdb"
	DriverSQLite = "sqlite"
)

// DatabaseSettings holds configuration for the persistent store
type DatabaseSettings struct {
	Driver string // DriverBuntDB (default) or DriverSQLite
	Path   string // Database file path, ":memory:" for an ephemeral buntdb
}

// DefaultMonitorSettings returns the monitor pacing used in production
func DefaultMonitorSettings() MonitorSettings {
	return MonitorSettings{
		Interval:     5 * time.Minute,
		IdleInterval: 60 * time.Second,
		ItemPaceMin:  5 * time.Second,
		ItemPaceMax:  10 * time.Second,
	}
}
