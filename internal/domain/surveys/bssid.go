package surveys

import (
	"regexp"
	"strings"
)

// canonical MAC form: six upper-case hex octets separated by colons
var bssidPattern = regexp.MustCompile(`^[0-9A-F]{2}(:[0-9A-F]{2}){5}$`)

// NormalizeBSSID trims and upper-cases a raw BSSID value
func NormalizeBSSID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidBSSID reports whether s is already in canonical XX:XX:XX:XX:XX:XX form
func ValidBSSID(s string) bool {
	return len(s) == 17 && bssidPattern.MatchString(s)
}
