package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/povilas1565/CarRentalBot/internal/apperr"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestQuoteInclusiveDays(t *testing.T) {
	// 2024-01-01..2024-01-03 is three billable days.
	total, err := Quote(date(2024, 1, 1), date(2024, 1, 3), 50, 10)
	require.NoError(t, err)
	assert.Equal(t, 135.00, total)
}

func TestQuoteSingleDay(t *testing.T) {
	total, err := Quote(date(2024, 5, 10), date(2024, 5, 10), 80, 0)
	require.NoError(t, err)
	assert.Equal(t, 80.00, total)
}

func TestQuoteNoDiscountExact(t *testing.T) {
	from := date(2024, 3, 1)
	for days := 1; days <= 30; days++ {
		to := from.AddDate(0, 0, days-1)
		total, err := Quote(from, to, 42.50, 0)
		require.NoError(t, err)
		assert.Equal(t, 42.50*float64(days), total)
	}
}

func TestQuoteReversedRange(t *testing.T) {
	_, err := Quote(date(2024, 1, 5), date(2024, 1, 4), 50, 0)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestQuoteDiscountBounds(t *testing.T) {
	_, err := Quote(date(2024, 1, 1), date(2024, 1, 2), 50, -1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = Quote(date(2024, 1, 1), date(2024, 1, 2), 50, 100.01)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	total, err := Quote(date(2024, 1, 1), date(2024, 1, 2), 50, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.00, total)
}

func TestQuoteNonNegativeRate(t *testing.T) {
	_, err := Quote(date(2024, 1, 1), date(2024, 1, 2), 0, 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestQuoteRoundingHalfUp(t *testing.T) {
	// 3 days * 33.33 * 0.85 = 84.9915 -> 84.99; and a tie case 0.005 -> up.
	total, err := Quote(date(2024, 1, 1), date(2024, 1, 3), 33.33, 15)
	require.NoError(t, err)
	assert.Equal(t, 84.99, total)

	total, err = Quote(date(2024, 1, 1), date(2024, 1, 1), 10.005, 0)
	require.NoError(t, err)
	assert.Equal(t, 10.01, total)
}

func TestQuoteMonotonicInDateTo(t *testing.T) {
	from := date(2024, 6, 1)
	prev := 0.0
	for days := 1; days <= 60; days++ {
		to := from.AddDate(0, 0, days-1)
		total, err := Quote(from, to, 19.99, 25)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, prev, "adding a day must never decrease the price")
		prev = total
	}
}

func TestDaysIgnoresTimeOfDay(t *testing.T) {
	from := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 2, Days(from, to))
}
