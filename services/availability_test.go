package services

import (
	"testing"
	"time"

	"travana-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEffectiveDefaults(t *testing.T) {
	days := NightsIn(date("2025-12-01"), date("2025-12-04"))
	rows := mergeEffective(100, days, nil, nil)

	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.True(t, row.IsAvailable)
		assert.False(t, row.Reserved)
		assert.False(t, row.HasOverride)
		assert.InDelta(t, 100, row.Price, 1e-9)
	}
}

func TestMergeEffectiveOverrides(t *testing.T) {
	days := NightsIn(date("2025-12-01"), date("2025-12-04"))
	price := 150.0
	entries := []models.AvailabilityEntry{
		{ListingID: 1, Date: date("2025-12-02"), IsAvailable: true, CustomPrice: &price},
		{ListingID: 1, Date: date("2025-12-03"), IsAvailable: false},
	}

	rows := mergeEffective(100, days, entries, nil)
	require.Len(t, rows, 3)

	assert.False(t, rows[0].HasOverride)
	assert.InDelta(t, 100, rows[0].Price, 1e-9)

	assert.True(t, rows[1].HasOverride)
	assert.True(t, rows[1].IsAvailable)
	assert.InDelta(t, 150, rows[1].Price, 1e-9)

	assert.True(t, rows[2].HasOverride)
	assert.False(t, rows[2].IsAvailable)
}

func TestMergeEffectiveBulkMonth(t *testing.T) {
	start, end := date("2025-12-01"), date("2026-01-01")
	days := NightsIn(start, end)
	require.Len(t, days, 31)

	blocked := make([]models.AvailabilityEntry, 0, len(days))
	for _, d := range days {
		blocked = append(blocked, models.AvailabilityEntry{ListingID: 1, Date: d, IsAvailable: false})
	}

	for _, row := range mergeEffective(80, days, blocked, nil) {
		assert.False(t, row.IsAvailable)
	}

	// re-applying the same range as available reverts every day
	reverted := make([]models.AvailabilityEntry, 0, len(days))
	for _, d := range days {
		reverted = append(reverted, models.AvailabilityEntry{ListingID: 1, Date: d, IsAvailable: true})
	}
	for _, row := range mergeEffective(80, days, reverted, nil) {
		assert.True(t, row.IsAvailable)
	}
}

func TestMergeEffectiveReservations(t *testing.T) {
	days := NightsIn(date("2025-12-01"), date("2025-12-06"))
	reservations := []models.Reservation{
		{ListingID: 1, StartDate: date("2025-12-02"), EndDate: date("2025-12-04"), Status: models.ReservationStatusConfirmed},
	}

	rows := mergeEffective(100, days, nil, reservations)
	require.Len(t, rows, 5)

	reservedByDay := map[string]bool{}
	for _, row := range rows {
		reservedByDay[row.Date.Format("2006-01-02")] = row.Reserved
	}

	assert.False(t, reservedByDay["2025-12-01"])
	assert.True(t, reservedByDay["2025-12-02"])
	assert.True(t, reservedByDay["2025-12-03"])
	// checkout day belongs to the next guest
	assert.False(t, reservedByDay["2025-12-04"])
	assert.False(t, reservedByDay["2025-12-05"])
}

func TestDayNormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	stamp := time.Date(2025, 12, 2, 23, 45, 0, 0, loc)

	normalized := Day(stamp)
	assert.Equal(t, time.UTC, normalized.Location())
	assert.Equal(t, 0, normalized.Hour())
	assert.Equal(t, 2, normalized.Day())
}
