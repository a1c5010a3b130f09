package steam

import (
	"regexp"

	"github.com/raykavin/skinhunter/core"
)

// 64-bit SteamIDs are 17 digits and start with "7656"
var steamIDRegexp = regexp.MustCompile(`7656\d{13}`)

// ExtractSteamID finds a 64-bit SteamID anywhere inside the given text,
// typically a profile URL. It performs no existence check against the
// marketplace; a hidden or empty inventory surfaces later, when the scan runs.
func ExtractSteamID(text string) (string, error) {
	match := steamIDRegexp.FindString(text)
	if match == "" {
		return "", core.ErrInvalidSteamID
	}

	return match, nil
}

// validSteamID reports whether the given string is exactly a 64-bit SteamID
func validSteamID(steamID string) bool {
	return len(steamID) == 17 && steamIDRegexp.FindString(steamID) == steamID
}
