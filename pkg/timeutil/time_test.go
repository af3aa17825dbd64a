package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, 8, 15, 18, 30, 45, 123456789, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), StartOfDay(in))
}

func TestStartOfDay_ConvertsToUTCFirst(t *testing.T) {
	// 23:00 in UTC-3 is already the next day in UTC
	loc := time.FixedZone("BRT", -3*3600)
	in := time.Date(2026, 8, 15, 23, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC), StartOfDay(in))
}

func TestEndOfDay(t *testing.T) {
	in := time.Date(2026, 8, 15, 6, 0, 0, 0, time.UTC)
	got := EndOfDay(in)
	assert.Equal(t, time.Date(2026, 8, 15, 23, 59, 59, 999999999, time.UTC), got)
	assert.Equal(t, got, EndOfDay(got))
}

func TestNowIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Now().Location())
}
