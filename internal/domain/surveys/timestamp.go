package surveys

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order; the first match wins.
// Single-digit fields in the layouts also accept zero padded values.
var timestampLayouts = []string{
	"2006-1-2 15:4:5",  // YYYY-MM-DD HH:MM:SS
	"2006/1/2 15:4:5",  // YYYY/MM/DD HH:MM:SS
	"2-1-2006 15:4:5",  // DD-MM-YYYY HH:MM:SS
	"2/1/2006 15:4:5",  // DD/MM/YYYY HH:MM:SS
	"2006-1-2 15:4",    // YYYY-MM-DD HH:MM
	"2006/1/2 15:4",    // YYYY/MM/DD HH:MM
	"2006-1-2T15:4:5",  // YYYY-MM-DDTHH:MM:SS
	"2006-1-2T15:4:5Z", // trailing literal Z, no zone conversion
}

// ParseTimestamp parses a scan timestamp into a naive wall-clock time.
// The result carries the UTC location only as a neutral container; no
// zone conversion is applied for any layout.
func ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	// time.Parse silently accepts fractional seconds after a seconds field;
	// none of the supported layouts carry them.
	if s == "" || strings.ContainsAny(s, ".,") {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
