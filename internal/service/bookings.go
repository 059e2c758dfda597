package service

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/povilas1565/CarRentalBot/core/logger"
	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/domain"
	"github.com/povilas1565/CarRentalBot/internal/pricing"
	"github.com/povilas1565/CarRentalBot/internal/storage/postgres"
)

// Bookings drives the reservation lifecycle. Dialog state lives in the
// Telegram layer; everything here re-reads the database so that stale
// keyboards cannot confirm a car that is no longer available.
type Bookings struct {
	store *postgres.Store
	now   func() time.Time
}

// NewBookings constructs the booking service.
func NewBookings(store *postgres.Store) *Bookings {
	return &Bookings{store: store, now: time.Now}
}

// ParseStartDate validates the rental start entered as DD.MM.YYYY.
// Dates before today are rejected.
func (s *Bookings) ParseStartDate(raw string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperr.Validation("enter the date as DD.MM.YYYY, e.g. 15.07.2026")
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if t.Before(today) {
		return time.Time{}, apperr.Validation("the start date is in the past")
	}
	return t, nil
}

// ParseEndDate validates the rental end against the already accepted start.
func (s *Bookings) ParseEndDate(raw string, dateFrom time.Time) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperr.Validation("enter the date as DD.MM.YYYY, e.g. 18.07.2026")
	}
	if t.Before(dateFrom) {
		return time.Time{}, apperr.Validation("the end date is before the start date")
	}
	return t, nil
}

// BookingQuote is the priced summary shown before confirmation.
type BookingQuote struct {
	Car        *domain.Car
	DateFrom   time.Time
	DateTo     time.Time
	Days       int
	TotalPrice float64
}

// Quote re-reads the car and prices the requested period with the current
// rate and discount. A car taken since the keyboard was shown yields Conflict.
func (s *Bookings) Quote(ctx context.Context, carID int64, dateFrom, dateTo time.Time) (*BookingQuote, error) {
	car, err := s.store.CarByID(ctx, carID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if car == nil {
		return nil, apperr.NotFound("car not found")
	}
	if !car.Available {
		return nil, apperr.Conflict("the car has just been booked by someone else")
	}

	total, err := pricing.Quote(dateFrom, dateTo, car.PricePerDay, car.Discount)
	if err != nil {
		return nil, err
	}
	return &BookingQuote{
		Car:        car,
		DateFrom:   dateFrom,
		DateTo:     dateTo,
		Days:       pricing.Days(dateFrom, dateTo),
		TotalPrice: total,
	}, nil
}

// Confirm reserves the car and creates the booking in one transaction.
// The availability flip is a compare-and-set, so of two users confirming the
// same car concurrently exactly one succeeds; the loser gets Conflict.
func (s *Bookings) Confirm(ctx context.Context, renter *domain.User, q *BookingQuote) (*domain.Booking, error) {
	if renter == nil || !renter.Registered {
		return nil, apperr.Conflict("registration is required before booking")
	}

	booking := &domain.Booking{
		CarID:      q.Car.ID,
		RenterID:   renter.ID,
		DateFrom:   q.DateFrom,
		DateTo:     q.DateTo,
		TotalPrice: q.TotalPrice,
		Status:     domain.BookingConfirmed,
	}

	err := s.store.InTx(ctx, func(tx *sqlx.Tx) error {
		reserved, err := postgres.ReserveCarTx(ctx, tx, q.Car.ID)
		if err != nil {
			return err
		}
		if !reserved {
			return apperr.Conflict("the car has just been booked by someone else")
		}
		id, err := postgres.InsertBookingTx(ctx, tx, booking)
		if err != nil {
			return err
		}
		booking.ID = id
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	logger.SVCBookings.Info("booking created",
		slog.String("event", "confirm_booking"),
		slog.Int64("booking_id", booking.ID),
		slog.Int64("car_id", booking.CarID),
		slog.Int64("user_id", renter.ID),
		slog.Float64("amount", booking.TotalPrice),
	)
	return booking, nil
}

// ByID returns a booking or NotFound.
func (s *Bookings) ByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.store.BookingByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if b == nil {
		return nil, apperr.NotFound("booking not found")
	}
	return b, nil
}

// ByRenter lists a renter's bookings in a given status.
func (s *Bookings) ByRenter(ctx context.Context, renterID int64, status domain.BookingStatus) ([]domain.Booking, error) {
	list, err := s.store.BookingsByRenter(ctx, renterID, status)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

// Cancel cancels a pending or confirmed booking and releases the car for
// other renters. Terminal bookings yield Conflict.
func (s *Bookings) Cancel(ctx context.Context, bookingID int64) error {
	b, err := s.ByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
		return apperr.Conflict("the booking is already %s", b.Status)
	}

	err = s.store.InTx(ctx, func(tx *sqlx.Tx) error {
		if err := postgres.UpdateBookingStatusTx(ctx, tx, b.ID, domain.BookingCancelled); err != nil {
			return err
		}
		return postgres.ReleaseCarTx(ctx, tx, b.CarID)
	})
	if err != nil {
		return apperr.Internal(err)
	}

	logger.SVCBookings.Info("booking cancelled",
		slog.String("event", "cancel_booking"),
		slog.Int64("booking_id", b.ID),
		slog.Int64("car_id", b.CarID),
	)
	return nil
}

// Stats returns the aggregate counters shown in the admin overview.
func (s *Bookings) Stats(ctx context.Context) (*postgres.RentalStats, error) {
	st, err := s.store.RentalStats(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return st, nil
}
