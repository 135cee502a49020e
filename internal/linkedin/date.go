package linkedin

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Epoch values below this are seconds, at or above it milliseconds.
const epochMillisThreshold = 1e12

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// FromEpoch converts a numeric epoch in seconds or milliseconds to a time.
func FromEpoch(v float64) time.Time {
	if v < epochMillisThreshold {
		return time.UnixMilli(int64(v * 1000)).UTC()
	}

	return time.UnixMilli(int64(v)).UTC()
}

// ParseTimestamp parses a date string or a numeric epoch encoded as a string.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)

	if s == "" {
		return time.Time{}, false
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return FromEpoch(v), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

// RelativeDate renders the age of t at now as "Nm", "Nh", "Nd" or "Nmo".
// Each bucket reports at least 1.
func RelativeDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	minutes := int(now.Sub(t) / time.Minute)

	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm", max(1, minutes))
	case minutes < 60*24:
		return fmt.Sprintf("%dh", max(1, minutes/60))
	case minutes < 60*24*30:
		return fmt.Sprintf("%dd", max(1, minutes/(60*24)))
	default:
		return fmt.Sprintf("%dmo", max(1, minutes/(60*24*30)))
	}
}
