package core

import "errors"

var (
	ErrEmptyItemName  = errors.New("empty item name")
	ErrInvalidSteamID = errors.New("no valid steam id found")
	ErrWatchNotFound  = errors.New("watchlist entry not found")
)
