package postgres

import (
	"context"
	"fmt"
)

// RentalStats aggregates fleet and booking counters for the admin overview.
type RentalStats struct {
	Cars              int64   `db:"cars"`
	AvailableCars     int64   `db:"available_cars"`
	PendingBookings   int64   `db:"pending_bookings"`
	ConfirmedBookings int64   `db:"confirmed_bookings"`
	CompletedPayments int64   `db:"completed_payments"`
	Revenue           float64 `db:"revenue"`
}

// RentalStats collects the counters in a single round trip.
func (s *Store) RentalStats(ctx context.Context) (*RentalStats, error) {
	var st RentalStats
	err := s.db.GetContext(ctx, &st, `
		SELECT
			(SELECT COUNT(*) FROM cars)                                          AS cars,
			(SELECT COUNT(*) FROM cars WHERE available)                          AS available_cars,
			(SELECT COUNT(*) FROM bookings WHERE status = 'pending')             AS pending_bookings,
			(SELECT COUNT(*) FROM bookings WHERE status = 'confirmed')           AS confirmed_bookings,
			(SELECT COUNT(*) FROM payments WHERE status = 'completed')           AS completed_payments,
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'completed') AS revenue`)
	if err != nil {
		return nil, fmt.Errorf("select rental stats: %w", err)
	}
	return &st, nil
}
