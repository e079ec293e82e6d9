// Package period owns the billing-period definition: the current calendar
// month in UTC, keyed as "2006-01".
package period

import "time"

// Key returns the period key for the month containing t, e.g. "2025-05".
func Key(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Bounds returns the UTC month window containing t: start inclusive,
// end exclusive.
func Bounds(t time.Time) (time.Time, time.Time) {
	utc := t.UTC()
	start := time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
