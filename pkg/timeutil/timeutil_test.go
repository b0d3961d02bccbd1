package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow_IsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Now().Location())
}

func TestNowTashkent_Offset(t *testing.T) {
	_, offset := NowTashkent().Zone()
	assert.Equal(t, 5*60*60, offset)
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2026, 8, 25, 14, 35, 12, 999, time.UTC)
	start := StartOfDay(ts)

	assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), start)
}

func TestEndOfDay(t *testing.T) {
	ts := time.Date(2026, 8, 25, 14, 35, 12, 999, time.UTC)
	end := EndOfDay(ts)

	assert.Equal(t, time.Date(2026, 8, 25, 23, 59, 59, 999999999, time.UTC), end)
}

func TestStartOfDay_NormalizesZone(t *testing.T) {
	eastern := time.FixedZone("UTC+5", 5*60*60)
	// 03:00 UTC+5 is 22:00 UTC the previous day.
	ts := time.Date(2026, 8, 25, 3, 0, 0, 0, eastern)

	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
}
