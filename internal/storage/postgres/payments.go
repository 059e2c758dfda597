package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/povilas1565/CarRentalBot/internal/domain"
)

const paymentColumns = `id, booking_id, amount, status, method, transaction_id, created_at`

// ErrActivePaymentExists is returned when a booking already carries a pending
// payment; the partial unique index enforces the invariant.
var ErrActivePaymentExists = errors.New("active payment already exists for booking")

const uniqueViolation = "23505"

// InsertPayment creates a PENDING payment row and returns the stored record.
func (s *Store) InsertPayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	var out domain.Payment
	err := s.db.GetContext(ctx, &out, `
		INSERT INTO payments (booking_id, amount, status, method)
		VALUES ($1, $2, $3, $4)
		RETURNING `+paymentColumns,
		p.BookingID, p.Amount, domain.PaymentPending, p.Method)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrActivePaymentExists
		}
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return &out, nil
}

// PaymentByIDAndMethodTx resolves a webhook order reference inside tx,
// locking the row for the duration of the reconciliation. Scoping by method
// prevents order-id collisions across providers. Nil when absent.
func PaymentByIDAndMethodTx(ctx context.Context, tx *sqlx.Tx, id int64, method domain.PaymentMethod) (*domain.Payment, error) {
	var p domain.Payment
	err := tx.GetContext(ctx, &p,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE id = $1 AND method = $2 FOR UPDATE`,
		id, method)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select payment for update: %w", err)
	}
	return &p, nil
}

// UpdatePaymentStatusTx sets the payment status and, when provided, records
// the provider transaction id inside tx.
func UpdatePaymentStatusTx(ctx context.Context, tx *sqlx.Tx, id int64, status domain.PaymentStatus, transactionID string) error {
	txID := sql.NullString{String: transactionID, Valid: transactionID != ""}
	if _, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, transaction_id = COALESCE($2, transaction_id)
		WHERE id = $3`,
		status, txID, id); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

// BookingHasCompletedPayment reports whether the booking is already paid.
func (s *Store) BookingHasCompletedPayment(ctx context.Context, bookingID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE booking_id = $1 AND status = $2)`,
		bookingID, domain.PaymentCompleted)
	if err != nil {
		return false, fmt.Errorf("select completed payment: %w", err)
	}
	return exists, nil
}
