package main

import (
	"testing"

	"github.com/raykavin/skinhunter/core"
	"github.com/stretchr/testify/require"
)

func TestParseUserList(t *testing.T) {
	users, err := parseUserList("123, 456,789")
	require.NoError(t, err)
	require.Equal(t, []int64{123, 456, 789}, users)
}

func TestParseUserListEmpty(t *testing.T) {
	users, err := parseUserList("  ")
	require.NoError(t, err)
	require.Nil(t, users)
}

func TestParseUserListInvalid(t *testing.T) {
	_, err := parseUserList("123,abc")
	require.Error(t, err)
}

func TestLoadSettingsDefaults(t *testing.T) {
	settings, err := loadSettings()
	require.NoError(t, err)

	require.Equal(t, 730, settings.Steam.AppID)
	require.Equal(t, 1, settings.Steam.Currency)
	require.Equal(t, "5m0s", settings.Monitor.Interval.String())
	require.Equal(t, "1m0s", settings.Monitor.IdleInterval.String())
	require.Equal(t, defaultSecondarySymbol, settings.Portfolio.SecondarySymbol)
	require.Equal(t, core.DriverBuntDB, settings.Database.Driver)
	require.False(t, settings.Mail.Enabled)
}

func TestJoinArgs(t *testing.T) {
	require.Equal(t, "AK-47 | Redline (Field-Tested)",
		joinArgs([]string{"AK-47", "|", "Redline", "(Field-Tested)"}))
}
