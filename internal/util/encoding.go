package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeUsername trims surrounding space and applies NFC so visually
// identical names typed on different keyboards compare equal.
func NormalizeUsername(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
