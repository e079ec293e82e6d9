package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyUsesUTCMonth(t *testing.T) {
	assert.Equal(t, "2025-05", Key(time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC)))

	// Late evening in a western zone is already next month in UTC.
	loc := time.FixedZone("UTC-8", -8*60*60)
	assert.Equal(t, "2025-06", Key(time.Date(2025, 5, 31, 22, 0, 0, 0, loc)))
}

func TestBoundsAreMonthWindow(t *testing.T) {
	start, end := Bounds(time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestBoundsRollOverYear(t *testing.T) {
	start, end := Bounds(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), end)
}
