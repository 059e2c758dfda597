package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/domain"
)

func fixedNow(s string) func() time.Time {
	t := date(s)
	return func() time.Time { return t }
}

func TestParseDates(t *testing.T) {
	svc := NewBookings(nil)
	svc.now = fixedNow("10.07.2026")

	t.Run("valid start", func(t *testing.T) {
		from, err := svc.ParseStartDate("15.07.2026")
		require.NoError(t, err)
		assert.Equal(t, date("15.07.2026"), from)
	})

	t.Run("start today is allowed", func(t *testing.T) {
		_, err := svc.ParseStartDate("10.07.2026")
		assert.NoError(t, err)
	})

	t.Run("start in the past", func(t *testing.T) {
		_, err := svc.ParseStartDate("09.07.2026")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := svc.ParseStartDate("next friday")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := svc.ParseEndDate("14.07.2026", date("15.07.2026"))
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("single day rental", func(t *testing.T) {
		to, err := svc.ParseEndDate("15.07.2026", date("15.07.2026"))
		require.NoError(t, err)
		assert.Equal(t, date("15.07.2026"), to)
	})
}

func TestQuote(t *testing.T) {
	t.Run("prices with fresh rate and discount", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewBookings(store)

		mock.ExpectQuery(`SELECT (.+) FROM cars c`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(carCols).AddRow(carRow(1, true)...))

		q, err := svc.Quote(context.Background(), 1, date("15.07.2026"), date("17.07.2026"))
		require.NoError(t, err)
		assert.Equal(t, 3, q.Days)
		assert.Equal(t, 135.0, q.TotalPrice) // 50 * 3 days, 10% off
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("car taken since keyboard was shown", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewBookings(store)

		mock.ExpectQuery(`SELECT (.+) FROM cars c`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(carCols).AddRow(carRow(1, false)...))

		_, err := svc.Quote(context.Background(), 1, date("15.07.2026"), date("17.07.2026"))
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("unknown car", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewBookings(store)

		mock.ExpectQuery(`SELECT (.+) FROM cars c`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(carCols))

		_, err := svc.Quote(context.Background(), 99, date("15.07.2026"), date("17.07.2026"))
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func confirmQuote() *BookingQuote {
	return &BookingQuote{
		Car:        &domain.Car{ID: 1, PricePerDay: 50, Discount: 10, Available: true},
		DateFrom:   date("15.07.2026"),
		DateTo:     date("17.07.2026"),
		Days:       3,
		TotalPrice: 135,
	}
}

func TestConfirm(t *testing.T) {
	renter := &domain.User{ID: 3, UserType: domain.UserRenter, Registered: true}

	t.Run("reserves the car and books in one transaction", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewBookings(store)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE cars SET available = false`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WithArgs(int64(1), int64(3), date("15.07.2026"), date("17.07.2026"), 135.0, string(domain.BookingConfirmed)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
		mock.ExpectCommit()

		b, err := svc.Confirm(context.Background(), renter, confirmQuote())
		require.NoError(t, err)
		assert.Equal(t, int64(10), b.ID)
		// A successful confirmation persists the booking as CONFIRMED; only
		// a failed payment later re-opens it to PENDING.
		assert.Equal(t, domain.BookingConfirmed, b.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loser of a concurrent confirmation gets a conflict", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewBookings(store)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE cars SET available = false`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0)) // CAS lost, no row flipped
		mock.ExpectRollback()

		_, err := svc.Confirm(context.Background(), renter, confirmQuote())
		assert.True(t, apperr.Is(err, apperr.KindConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unregistered renter cannot confirm", func(t *testing.T) {
		store, _ := newStoreMock(t)
		svc := NewBookings(store)

		_, err := svc.Confirm(context.Background(), &domain.User{ID: 3}, confirmQuote())
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})
}

func TestCancel(t *testing.T) {
	t.Run("cancels and releases the car", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewBookings(store)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(bookingCols).
				AddRow(bookingRow(10, 1, 135, "confirmed")...))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET status`).
			WithArgs(string(domain.BookingCancelled), int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE cars SET available = true`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.Cancel(context.Background(), 10))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("terminal booking cannot be cancelled", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewBookings(store)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(bookingCols).
				AddRow(bookingRow(10, 1, 135, "cancelled")...))

		err := svc.Cancel(context.Background(), 10)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})
}
