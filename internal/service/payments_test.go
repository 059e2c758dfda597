package service

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/config"
	"github.com/povilas1565/CarRentalBot/internal/domain"
	"github.com/povilas1565/CarRentalBot/internal/payments"
)

func testFreekassa() *payments.Freekassa {
	return payments.NewFreekassa(config.FreekassaConfig{
		MerchantID:  "12345",
		SecretWord1: "alpha",
		SecretWord2: "omega",
		PayURL:      "https://pay.fk.money/",
		Currency:    "EUR",
	})
}

func testStripe() *payments.Stripe {
	return payments.NewStripe(config.StripeConfig{
		PaymentLinkURL: "https://buy.stripe.com/test_abc",
		WebhookSecret:  "whsec_test",
	})
}

func fkSignature(amount, orderID string) string {
	sum := md5.Sum([]byte(strings.Join([]string{"12345", amount, "omega", orderID}, ":")))
	return hex.EncodeToString(sum[:])
}

func stripeHeader(body []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte("whsec_test"))
	fmt.Fprintf(mac, "%d.%s", ts, body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStartPayment(t *testing.T) {
	registry := payments.NewRegistry(payments.NewNBSQR(config.NBSConfig{
		AccountNumber: "265104031000361092",
		RecipientName: "Rent a Car DOO",
	}))

	t.Run("creates a pending payment with a QR artifact", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, registry)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(bookingCols).
				AddRow(bookingRow(10, 1, 135, "confirmed")...))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(10), string(domain.PaymentCompleted)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`SELECT (.+) FROM cars c`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(carCols).AddRow(carRow(1, false)...))
		mock.ExpectQuery(`INSERT INTO payments`).
			WithArgs(int64(10), 135.0, string(domain.PaymentPending), string(domain.MethodNBSQR)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(paymentRow(5, 10, 135, "pending", "nbs_qr")...))

		started, err := svc.Start(context.Background(), 10, domain.MethodNBSQR)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, started.Payment.Status)
		assert.Equal(t, payments.ArtifactQR, started.Artifact.Kind)
		assert.NotEmpty(t, started.Artifact.PNG)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second pending payment for a re-opened booking is rejected", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, registry)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(bookingCols).
				AddRow(bookingRow(10, 1, 135, "pending")...))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(10), string(domain.PaymentCompleted)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`SELECT (.+) FROM cars c`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(carCols).AddRow(carRow(1, false)...))
		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := svc.Start(context.Background(), 10, domain.MethodNBSQR)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("already paid booking is rejected", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, registry)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(bookingCols).
				AddRow(bookingRow(10, 1, 135, "confirmed")...))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(10), string(domain.PaymentCompleted)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := svc.Start(context.Background(), 10, domain.MethodNBSQR)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled booking cannot be paid", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, registry)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(bookingCols).
				AddRow(bookingRow(10, 1, 135, "cancelled")...))

		_, err := svc.Start(context.Background(), 10, domain.MethodNBSQR)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("unknown method", func(t *testing.T) {
		store, _ := newStoreMock(t)
		svc := NewPayments(store, registry)

		_, err := svc.Start(context.Background(), 10, domain.PaymentMethod("paypal"))
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestReconcileFreekassa(t *testing.T) {
	notification := func() payments.Notification {
		return payments.Notification{
			MerchantID: "12345",
			Amount:     "135.00",
			OrderID:    "5",
			Signature:  fkSignature("135.00", "5"),
			IntID:      "fk-777",
		}
	}

	t.Run("verified notification completes payment and confirms booking", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(int64(5), string(domain.MethodFreekassa)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(paymentRow(5, 10, 135, "pending", "freekassa")...))
		mock.ExpectExec(`UPDATE payments`).
			WithArgs(string(domain.PaymentCompleted), "fk-777", int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings SET status`).
			WithArgs(string(domain.BookingConfirmed), int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.ReconcileFreekassa(context.Background(), testFreekassa(), notification()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("amount without trailing zeros still matches", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		n := notification()
		n.Amount = "135"
		n.Signature = fkSignature("135", "5")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(int64(5), string(domain.MethodFreekassa)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(paymentRow(5, 10, 135, "pending", "freekassa")...))
		mock.ExpectExec(`UPDATE payments`).
			WithArgs(string(domain.PaymentCompleted), "fk-777", int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings SET status`).
			WithArgs(string(domain.BookingConfirmed), int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.ReconcileFreekassa(context.Background(), testFreekassa(), n))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed amount is rejected before any write", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		n := notification()
		n.Amount = "135,00"
		n.Signature = fkSignature("135,00", "5")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(int64(5), string(domain.MethodFreekassa)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(paymentRow(5, 10, 135, "pending", "freekassa")...))
		mock.ExpectRollback()

		err := svc.ReconcileFreekassa(context.Background(), testFreekassa(), n)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replayed notification is a no-op", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(int64(5), string(domain.MethodFreekassa)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(paymentRow(5, 10, 135, "completed", "freekassa")...))
		mock.ExpectCommit()

		require.NoError(t, svc.ReconcileFreekassa(context.Background(), testFreekassa(), notification()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tampered signature mutates nothing", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		n := notification()
		n.Amount = "1.00" // signed for 135.00

		err := svc.ReconcileFreekassa(context.Background(), testFreekassa(), n)
		assert.True(t, apperr.Is(err, apperr.KindAuthentication))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("amount mismatch against the stored payment is rejected", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		n := notification()
		n.Amount = "13.50"
		n.Signature = fkSignature("13.50", "5")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(int64(5), string(domain.MethodFreekassa)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(paymentRow(5, 10, 135, "pending", "freekassa")...))
		mock.ExpectRollback()

		err := svc.ReconcileFreekassa(context.Background(), testFreekassa(), n)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown order id", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(int64(5), string(domain.MethodFreekassa)).
			WillReturnRows(sqlmock.NewRows(paymentCols))
		mock.ExpectRollback()

		err := svc.ReconcileFreekassa(context.Background(), testFreekassa(), notification())
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestReconcileStripe(t *testing.T) {
	body := func(status string) []byte {
		return fmt.Appendf(nil,
			`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1","client_reference_id":"5","payment_status":%q,"payment_intent":"pi_42"}}}`,
			status)
	}

	t.Run("failed checkout returns the booking to pending", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		b := body("failed")
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(int64(5), string(domain.MethodStripe)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(paymentRow(5, 10, 135, "pending", "stripe")...))
		mock.ExpectExec(`UPDATE payments`).
			WithArgs(string(domain.PaymentFailed), "pi_42", int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings SET status`).
			WithArgs(string(domain.BookingPending), int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.ReconcileStripe(context.Background(), testStripe(), stripeHeader(b), b))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("paid checkout confirms the booking", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		b := body("paid")
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(int64(5), string(domain.MethodStripe)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(paymentRow(5, 10, 135, "pending", "stripe")...))
		mock.ExpectExec(`UPDATE payments`).
			WithArgs(string(domain.PaymentCompleted), "pi_42", int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings SET status`).
			WithArgs(string(domain.BookingConfirmed), int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.ReconcileStripe(context.Background(), testStripe(), stripeHeader(b), b))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown provider status leaves the payment pending", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		b := body("requires_action")
		require.NoError(t, svc.ReconcileStripe(context.Background(), testStripe(), stripeHeader(b), b))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("transition away from a terminal status is rejected", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		b := body("failed")
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(int64(5), string(domain.MethodStripe)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(paymentRow(5, 10, 135, "completed", "stripe")...))
		mock.ExpectRollback()

		err := svc.ReconcileStripe(context.Background(), testStripe(), stripeHeader(b), b)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("bad signature mutates nothing", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewPayments(store, payments.NewRegistry())

		b := body("paid")
		err := svc.ReconcileStripe(context.Background(), testStripe(), "t=1,v1=deadbeef", b)
		assert.True(t, apperr.Is(err, apperr.KindAuthentication))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
