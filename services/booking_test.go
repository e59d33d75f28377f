package services

import (
	"errors"
	"testing"
	"time"

	"travana-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"identical ranges", "2025-12-01", "2025-12-05", "2025-12-01", "2025-12-05", true},
		{"partial overlap", "2025-12-01", "2025-12-05", "2025-12-04", "2025-12-08", true},
		{"contained range", "2025-12-01", "2025-12-10", "2025-12-03", "2025-12-05", true},
		{"single shared night", "2025-12-01", "2025-12-05", "2025-12-04", "2025-12-05", true},
		{"back to back, checkout meets checkin", "2025-12-01", "2025-12-05", "2025-12-05", "2025-12-10", false},
		{"back to back reversed", "2025-12-05", "2025-12-10", "2025-12-01", "2025-12-05", false},
		{"fully disjoint", "2025-12-01", "2025-12-03", "2025-12-10", "2025-12-12", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(date(tc.aStart), date(tc.aEnd), date(tc.bStart), date(tc.bEnd))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNightsIn(t *testing.T) {
	nights := NightsIn(date("2025-12-01"), date("2025-12-04"))
	require.Len(t, nights, 3)
	assert.Equal(t, date("2025-12-01"), nights[0])
	assert.Equal(t, date("2025-12-03"), nights[2])

	// checkout day is never occupied
	for _, n := range nights {
		assert.True(t, n.Before(date("2025-12-04")))
	}

	assert.Empty(t, NightsIn(date("2025-12-01"), date("2025-12-01")))
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("2025-12-01", "2025-12-05")
	require.NoError(t, err)
	assert.Equal(t, date("2025-12-01"), start)
	assert.Equal(t, date("2025-12-05"), end)

	_, _, err = ParseDateRange("not-a-date", "2025-12-05")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, _, err = ParseDateRange("2025-12-05", "2025-12-05")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, _, err = ParseDateRange("2025-12-10", "2025-12-05")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestQuoteStay(t *testing.T) {
	nights := NightsIn(date("2025-12-01"), date("2025-12-04"))

	t.Run("base price only", func(t *testing.T) {
		quote, err := QuoteStay(100, nights, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, quote.Nights)
		assert.InDelta(t, 300, quote.Subtotal, 1e-9)
		assert.InDelta(t, 36, quote.ServiceFee, 1e-9)
		assert.InDelta(t, 336, quote.Total, 1e-9)
	})

	t.Run("custom price override on one night", func(t *testing.T) {
		price := 150.0
		overrides := map[time.Time]models.AvailabilityEntry{
			date("2025-12-02"): {IsAvailable: true, CustomPrice: &price},
		}
		quote, err := QuoteStay(100, nights, overrides)
		require.NoError(t, err)
		assert.InDelta(t, 350, quote.Subtotal, 1e-9)
		assert.InDelta(t, 392, quote.Total, 1e-9)
	})

	t.Run("available override without custom price keeps base", func(t *testing.T) {
		overrides := map[time.Time]models.AvailabilityEntry{
			date("2025-12-02"): {IsAvailable: true},
		}
		quote, err := QuoteStay(100, nights, overrides)
		require.NoError(t, err)
		assert.InDelta(t, 300, quote.Subtotal, 1e-9)
	})

	t.Run("explicitly blocked night rejects the whole stay", func(t *testing.T) {
		overrides := map[time.Time]models.AvailabilityEntry{
			date("2025-12-03"): {IsAvailable: false},
		}
		_, err := QuoteStay(100, nights, overrides)
		var unavailable *UnavailableDateError
		require.True(t, errors.As(err, &unavailable))
		assert.Equal(t, date("2025-12-03"), unavailable.Date)
	})
}

func TestServiceFeeRate(t *testing.T) {
	assert.InDelta(t, 12, ServiceFeeRate(), 1e-9)

	t.Setenv("SERVICE_FEE_PERCENT", "15")
	assert.InDelta(t, 15, ServiceFeeRate(), 1e-9)

	t.Setenv("SERVICE_FEE_PERCENT", "garbage")
	assert.InDelta(t, 12, ServiceFeeRate(), 1e-9)
}

func TestFillFromExistingKeepsOmittedFields(t *testing.T) {
	userID := uint(7)
	existing := models.Reservation{
		ListingID:  3,
		UserID:     &userID,
		StartDate:  date("2025-12-01"),
		EndDate:    date("2025-12-05"),
		GuestCount: 3,
		ClientType: models.ClientTypeFamily,
		Details:    "late arrival",
	}

	// A date-only edit must not zero the guest count or drop who booked.
	req := ReservationRequest{
		StartDate: date("2025-12-10"),
		EndDate:   date("2025-12-14"),
	}
	req.fillFromExisting(&existing)

	assert.Equal(t, uint(3), req.ListingID)
	require.NotNil(t, req.UserID)
	assert.Equal(t, userID, *req.UserID)
	assert.Equal(t, 3, req.GuestCount)
	assert.Equal(t, models.ClientTypeFamily, req.ClientType)
	assert.Equal(t, "late arrival", req.Details)

	// Explicit values still win.
	req = ReservationRequest{
		StartDate:  date("2025-12-10"),
		EndDate:    date("2025-12-14"),
		GuestCount: 2,
		ClientType: models.ClientTypeGroup,
	}
	req.fillFromExisting(&existing)
	assert.Equal(t, 2, req.GuestCount)
	assert.Equal(t, models.ClientTypeGroup, req.ClientType)
}

func TestOverlapErrorMessage(t *testing.T) {
	err := &OverlapError{Start: date("2025-12-01"), End: date("2025-12-05")}
	assert.Contains(t, err.Error(), "2025-12-01")
	assert.Contains(t, err.Error(), "2025-12-05")
}
