package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/povilas1565/CarRentalBot/internal/domain"
)

const bookingColumns = `id, car_id, renter_id, date_from, date_to, total_price,
	status, contract_signed, created_at`

// BookingByID loads a booking; nil when absent.
func (s *Store) BookingByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := s.db.GetContext(ctx, &b,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select booking: %w", err)
	}
	return &b, nil
}

// BookingsByRenter lists a renter's bookings in the given status, newest first.
func (s *Store) BookingsByRenter(ctx context.Context, renterID int64, status domain.BookingStatus) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := s.db.SelectContext(ctx, &bookings,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE renter_id = $1 AND status = $2 ORDER BY created_at DESC`,
		renterID, status)
	if err != nil {
		return nil, fmt.Errorf("select bookings by renter: %w", err)
	}
	return bookings, nil
}

// InsertBookingTx persists a booking inside tx and returns its id.
func InsertBookingTx(ctx context.Context, tx *sqlx.Tx, b *domain.Booking) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO bookings (car_id, renter_id, date_from, date_to, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		b.CarID, b.RenterID, b.DateFrom, b.DateTo, b.TotalPrice, b.Status)
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}
	return id, nil
}

// UpdateBookingStatusTx moves the booking to the given status inside tx.
func UpdateBookingStatusTx(ctx context.Context, tx *sqlx.Tx, id int64, status domain.BookingStatus) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1 WHERE id = $2`, status, id); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

// SetContractSignedTx flips the contract_signed flag inside tx.
func SetContractSignedTx(ctx context.Context, tx *sqlx.Tx, id int64, signed bool) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET contract_signed = $1 WHERE id = $2`, signed, id); err != nil {
		return fmt.Errorf("update booking contract flag: %w", err)
	}
	return nil
}
