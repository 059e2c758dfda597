package domain

import "time"

// BookingStatus is the booking lifecycle state.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Booking is a renter's reservation of a car for a date range.
// TotalPrice is computed once by the pricing engine and immutable after
// confirmation.
type Booking struct {
	ID             int64         `db:"id"`
	CarID          int64         `db:"car_id"`
	RenterID       int64         `db:"renter_id"`
	DateFrom       time.Time     `db:"date_from"`
	DateTo         time.Time     `db:"date_to"`
	TotalPrice     float64       `db:"total_price"`
	Status         BookingStatus `db:"status"`
	ContractSigned bool          `db:"contract_signed"`
	CreatedAt      time.Time     `db:"created_at"`
}

// DateLayout is the calendar format used across dialogs and documents.
const DateLayout = "02.01.2006"

// Period formats the rental range for summaries.
func (b *Booking) Period() string {
	return b.DateFrom.Format(DateLayout) + " — " + b.DateTo.Format(DateLayout)
}
