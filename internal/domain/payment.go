package domain

import (
	"database/sql"
	"time"
)

// PaymentStatus is the payment lifecycle state.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentCancelled
}

// PaymentMethod tags the provider a payment goes through.
type PaymentMethod string

const (
	MethodFreekassa PaymentMethod = "freekassa"
	MethodStripe    PaymentMethod = "stripe"
	MethodNBSQR     PaymentMethod = "nbs_qr"
)

// ParsePaymentMethod resolves a callback payload into a known method.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case MethodFreekassa, MethodStripe, MethodNBSQR:
		return PaymentMethod(s), true
	}
	return "", false
}

// Payment records one attempt to collect funds for a booking. Amount is copied
// from the booking total at creation so later pricing changes cannot diverge it.
type Payment struct {
	ID            int64          `db:"id"`
	BookingID     int64          `db:"booking_id"`
	Amount        float64        `db:"amount"`
	Status        PaymentStatus  `db:"status"`
	Method        PaymentMethod  `db:"method"`
	TransactionID sql.NullString `db:"transaction_id"`
	CreatedAt     time.Time      `db:"created_at"`
}
