package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/povilas1565/CarRentalBot/core/logger"
	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/domain"
	"github.com/povilas1565/CarRentalBot/internal/payments"
	"github.com/povilas1565/CarRentalBot/internal/storage/postgres"
)

// Payments creates payment attempts and reconciles provider callbacks.
// Providers only hand out links and QR codes; the sole path to a terminal
// payment status is a verified webhook going through reconcile.
type Payments struct {
	store     *postgres.Store
	providers *payments.Registry
}

// NewPayments constructs the payment service.
func NewPayments(store *postgres.Store, providers *payments.Registry) *Payments {
	return &Payments{store: store, providers: providers}
}

// Methods lists the configured payment methods in presentation order.
func (s *Payments) Methods() []domain.PaymentMethod {
	return s.providers.Methods()
}

// StartedPayment pairs the persisted payment with the artifact to send.
type StartedPayment struct {
	Payment  *domain.Payment
	Artifact *payments.Artifact
}

// Start creates a PENDING payment for the booking and asks the provider for
// a payment artifact. Payable bookings are CONFIRMED ones, plus PENDING ones
// that a failed payment re-opened. A booking already paid, or already
// carrying a pending payment, yields Conflict. The artifact call happens
// outside the transaction; if it fails the pending row stays and blocks
// duplicates until reconciled or cancelled.
func (s *Payments) Start(ctx context.Context, bookingID int64, method domain.PaymentMethod) (*StartedPayment, error) {
	provider, ok := s.providers.Get(method)
	if !ok {
		return nil, apperr.Validation("payment method %s is not available", method)
	}

	booking, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking not found")
	}
	if booking.Status != domain.BookingConfirmed && booking.Status != domain.BookingPending {
		return nil, apperr.Conflict("the booking is %s and cannot be paid", booking.Status)
	}
	paid, err := s.store.BookingHasCompletedPayment(ctx, booking.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if paid {
		return nil, apperr.Conflict("the booking is already paid")
	}

	car, err := s.store.CarByID(ctx, booking.CarID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if car == nil {
		return nil, apperr.NotFound("the booked car no longer exists")
	}

	payment, err := s.store.InsertPayment(ctx, &domain.Payment{
		BookingID: booking.ID,
		Amount:    booking.TotalPrice,
		Method:    method,
	})
	if err != nil {
		if errors.Is(err, postgres.ErrActivePaymentExists) {
			return nil, apperr.Conflict("a payment for this booking is already in progress")
		}
		return nil, apperr.Internal(err)
	}

	artifact, err := provider.CreateArtifact(payment, booking, car)
	if err != nil {
		return nil, apperr.External(err, "the payment provider is unavailable, try again later")
	}

	logger.SVCPayments.Info("payment started",
		slog.String("event", "start_payment"),
		slog.Int64("payment_id", payment.ID),
		slog.Int64("booking_id", booking.ID),
		slog.String("method", string(method)),
		slog.Float64("amount", payment.Amount),
	)
	return &StartedPayment{Payment: payment, Artifact: artifact}, nil
}

// ReconcileFreekassa applies a Freekassa merchant notification. The provider
// only notifies on success, so a verified callback means COMPLETED.
func (s *Payments) ReconcileFreekassa(ctx context.Context, fk *payments.Freekassa, n payments.Notification) error {
	if err := fk.VerifyNotification(n); err != nil {
		return err
	}
	paymentID, err := strconv.ParseInt(strings.TrimSpace(n.OrderID), 10, 64)
	if err != nil {
		return apperr.Validation("malformed order id %q", n.OrderID)
	}
	return s.reconcile(ctx, paymentID, domain.MethodFreekassa, domain.PaymentCompleted, n.IntID, n.Amount)
}

// ReconcileStripe applies a checkout webhook after signature verification.
// Unknown payment statuses are logged and left pending rather than guessed.
func (s *Payments) ReconcileStripe(ctx context.Context, st *payments.Stripe, sigHeader string, body []byte) error {
	if err := st.VerifySignature(sigHeader, body); err != nil {
		return err
	}
	ev, err := payments.ParseEvent(body)
	if err != nil {
		return err
	}
	paymentID, err := strconv.ParseInt(strings.TrimSpace(ev.Data.Object.ClientReferenceID), 10, 64)
	if err != nil {
		return apperr.Validation("malformed client reference %q", ev.Data.Object.ClientReferenceID)
	}

	var status domain.PaymentStatus
	switch ev.Data.Object.PaymentStatus {
	case "paid":
		status = domain.PaymentCompleted
	case "unpaid", "failed":
		status = domain.PaymentFailed
	case "canceled", "expired":
		status = domain.PaymentCancelled
	default:
		logger.SVCPayments.Warn("unknown provider status, payment left pending",
			slog.String("event", "reconcile"),
			slog.Int64("payment_id", paymentID),
			slog.String("provider", "stripe"),
			slog.String("status", ev.Data.Object.PaymentStatus),
		)
		return nil
	}
	return s.reconcile(ctx, paymentID, domain.MethodStripe, status, ev.Data.Object.PaymentIntent, "")
}

// reconcile applies a verified provider status in one transaction. Replays of
// the same status are no-ops; transitions away from a different terminal
// status are rejected. A completed payment confirms the booking, a failed one
// returns it to pending so the renter can retry (the car stays reserved).
func (s *Payments) reconcile(ctx context.Context, paymentID int64, method domain.PaymentMethod, status domain.PaymentStatus, transactionID, amount string) error {
	var applied bool
	err := s.store.InTx(ctx, func(tx *sqlx.Tx) error {
		p, err := postgres.PaymentByIDAndMethodTx(ctx, tx, paymentID, method)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("payment %d (%s) not found", paymentID, method)
		}
		if amount != "" {
			// Providers are inconsistent about trailing zeros ("135" vs
			// "135.00"), so both sides are compared as parsed values.
			v, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
			if err != nil {
				return apperr.Validation("malformed notification amount %q", amount)
			}
			if payments.FormatAmount(v) != payments.FormatAmount(p.Amount) {
				return apperr.Validation("notification amount %s does not match payment %d", amount, p.ID)
			}
		}
		if p.Status == status {
			return nil // replayed webhook
		}
		if p.Status.Terminal() {
			return apperr.Conflict("payment %d is already %s", p.ID, p.Status)
		}

		if err := postgres.UpdatePaymentStatusTx(ctx, tx, p.ID, status, transactionID); err != nil {
			return err
		}
		switch status {
		case domain.PaymentCompleted:
			if err := postgres.UpdateBookingStatusTx(ctx, tx, p.BookingID, domain.BookingConfirmed); err != nil {
				return err
			}
		case domain.PaymentFailed:
			if err := postgres.UpdateBookingStatusTx(ctx, tx, p.BookingID, domain.BookingPending); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return err
		}
		return apperr.Internal(err)
	}

	if applied {
		logger.SVCPayments.Info("payment reconciled",
			slog.String("event", "reconcile"),
			slog.Int64("payment_id", paymentID),
			slog.String("method", string(method)),
			slog.String("status", string(status)),
		)
	}
	return nil
}
