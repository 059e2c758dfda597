// Package pricing computes rental cost from the date range, daily rate, and
// discount. It is pure: no storage access, no side effects.
package pricing

import (
	"math"
	"time"

	"github.com/povilas1565/CarRentalBot/internal/apperr"
)

// Quote returns the total rental price for the inclusive range
// [dateFrom, dateTo]. Both endpoints count: a one-day rental has days = 1.
// Discount is a percentage in [0, 100]. The result is rounded half-up to
// 2 decimal places.
func Quote(dateFrom, dateTo time.Time, pricePerDay, discount float64) (float64, error) {
	if pricePerDay <= 0 {
		return 0, apperr.Validation("price per day must be positive")
	}
	if discount < 0 || discount > 100 {
		return 0, apperr.Validation("discount must be between 0 and 100")
	}

	days := Days(dateFrom, dateTo)
	if days <= 0 {
		return 0, apperr.Validation("end date must not be earlier than start date")
	}

	total := pricePerDay * float64(days)
	if discount > 0 {
		total *= 1 - discount/100
	}
	return roundHalfUp(total), nil
}

// Days returns the inclusive number of rental days between the two dates.
// Time-of-day components are ignored.
func Days(dateFrom, dateTo time.Time) int {
	from := truncateDay(dateFrom)
	to := truncateDay(dateTo)
	return int(to.Sub(from).Hours()/24) + 1
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// roundHalfUp rounds to 2 decimals with ties away from zero, matching how the
// amounts are later formatted for payment providers.
func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
