package models

import "time"

// TimeLayout is the wire and storage format for every timestamp: RFC3339
// UTC with fixed millisecond precision. The fixed width matters — the
// pull watermark and the synced-flag check both rely on timestamps
// comparing lexicographically the same way they compare chronologically.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a TimeLayout timestamp, falling back to RFC3339 for
// rows written by the backend with different sub-second precision.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
