// Package main is the skinhunter command line entrypoint
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/raykavin/skinhunter/core"
	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// Configuration keys and defaults
const (
	defaultDatabasePath    = "./skinhunter.db"
	defaultMonitorInterval = "5m"
	defaultIdleInterval    = "60s"
	defaultSecondarySymbol = "UAH"
)

// loadSettings builds the application settings from the environment.
// A local .env file is honored when present.
func loadSettings() (*core.Settings, error) {
	// Ignore a missing .env; plain environment variables still apply
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("DB_DRIVER", core.DriverBuntDB)
	viper.SetDefault("DB_PATH", defaultDatabasePath)
	viper.SetDefault("STEAM_APP_ID", 730)
	viper.SetDefault("STEAM_CURRENCY", 1)
	viper.SetDefault("MONITOR_INTERVAL", defaultMonitorInterval)
	viper.SetDefault("MONITOR_IDLE_INTERVAL", defaultIdleInterval)
	viper.SetDefault("TELEGRAM_ENABLED", true)
	viper.SetDefault("MAIL_ENABLED", false)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SECONDARY_RATE", 0.0)
	viper.SetDefault("SECONDARY_SYMBOL", defaultSecondarySymbol)

	monitorSettings := core.DefaultMonitorSettings()

	interval, err := str2duration.ParseDuration(viper.GetString("MONITOR_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONITOR_INTERVAL: %w", err)
	}
	monitorSettings.Interval = interval

	idle, err := str2duration.ParseDuration(viper.GetString("MONITOR_IDLE_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONITOR_IDLE_INTERVAL: %w", err)
	}
	monitorSettings.IdleInterval = idle

	users, err := parseUserList(viper.GetString("TELEGRAM_USERS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_USERS: %w", err)
	}

	return &core.Settings{
		Steam: core.SteamSettings{
			AppID:    viper.GetInt("STEAM_APP_ID"),
			Currency: viper.GetInt("STEAM_CURRENCY"),
		},
		Telegram: core.TelegramSettings{
			Enabled: viper.GetBool("TELEGRAM_ENABLED"),
			Token:   viper.GetString("TELEGRAM_TOKEN"),
			Users:   users,
		},
		Mail: core.MailSettings{
			Enabled:    viper.GetBool("MAIL_ENABLED"),
			SMTPServer: viper.GetString("SMTP_SERVER"),
			SMTPPort:   viper.GetInt("SMTP_PORT"),
			From:       viper.GetString("MAIL_FROM"),
			To:         viper.GetString("MAIL_TO"),
			Password:   viper.GetString("MAIL_PASSWORD"),
		},
		Monitor: monitorSettings,
		Portfolio: core.PortfolioSettings{
			SecondaryRate:   viper.GetFloat64("SECONDARY_RATE"),
			SecondarySymbol: viper.GetString("SECONDARY_SYMBOL"),
		},
		Database: core.DatabaseSettings{
			Driver: viper.GetString("DB_DRIVER"),
			Path:   viper.GetString("DB_PATH"),
		},
	}, nil
}

// parseUserList parses a comma-separated list of Telegram user IDs
func parseUserList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	users := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		users = append(users, id)
	}

	return users, nil
}
