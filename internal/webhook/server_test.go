package webhook

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/povilas1565/CarRentalBot/internal/config"
	"github.com/povilas1565/CarRentalBot/internal/payments"
	"github.com/povilas1565/CarRentalBot/internal/service"
	"github.com/povilas1565/CarRentalBot/internal/storage/postgres"
)

var paymentCols = []string{
	"id", "booking_id", "amount", "status", "method", "transaction_id", "created_at",
}

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := postgres.New(sqlx.NewDb(db, "sqlmock"))
	fk := payments.NewFreekassa(config.FreekassaConfig{
		MerchantID:  "12345",
		SecretWord1: "alpha",
		SecretWord2: "omega",
		PayURL:      "https://pay.fk.money/",
		Currency:    "EUR",
	})
	st := payments.NewStripe(config.StripeConfig{
		PaymentLinkURL: "https://buy.stripe.com/test_abc",
		WebhookSecret:  "whsec_test",
	})
	svc := service.NewPayments(store, payments.NewRegistry(fk, st))
	return NewServer(":0", svc, fk, st), mock
}

func fkForm(amount, orderID string) url.Values {
	sum := md5.Sum([]byte(strings.Join([]string{"12345", amount, "omega", orderID}, ":")))
	return url.Values{
		"MERCHANT_ID":       {"12345"},
		"AMOUNT":            {amount},
		"MERCHANT_ORDER_ID": {orderID},
		"SIGN":              {hex.EncodeToString(sum[:])},
		"intid":             {"fk-777"},
	}
}

func postForm(t *testing.T, s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestFreekassaWebhook(t *testing.T) {
	t.Run("valid notification is acknowledged with YES", func(t *testing.T) {
		s, mock := newTestServer(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(int64(5), int64(10), 135.0, "pending", "freekassa", nil, time.Now()))
		mock.ExpectExec(`UPDATE payments`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		w := postForm(t, s, "/webhooks/freekassa", fkForm("135.00", "5"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "YES", w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replay still answers YES", func(t *testing.T) {
		s, mock := newTestServer(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(int64(5), int64(10), 135.0, "completed", "freekassa", "fk-777", time.Now()))
		mock.ExpectCommit()

		w := postForm(t, s, "/webhooks/freekassa", fkForm("135.00", "5"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "YES", w.Body.String())
	})

	t.Run("bad signature answers 403 and touches nothing", func(t *testing.T) {
		s, mock := newTestServer(t)

		form := fkForm("135.00", "5")
		form.Set("SIGN", "ffffffffffffffffffffffffffffffff")

		w := postForm(t, s, "/webhooks/freekassa", form)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NotEqual(t, "YES", w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown order answers 404", func(t *testing.T) {
		s, mock := newTestServer(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WillReturnRows(sqlmock.NewRows(paymentCols))
		mock.ExpectRollback()

		w := postForm(t, s, "/webhooks/freekassa", fkForm("135.00", "5"))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStripeWebhook(t *testing.T) {
	body := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1","client_reference_id":"5","payment_status":"paid","payment_intent":"pi_42"}}}`)

	signed := func(body []byte) string {
		ts := time.Now().Unix()
		mac := hmac.New(sha256.New, []byte("whsec_test"))
		fmt.Fprintf(mac, "%d.%s", ts, body)
		return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
	}

	post := func(s *Server, sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Stripe-Signature", sig)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		return w
	}

	t.Run("valid event is acknowledged", func(t *testing.T) {
		s, mock := newTestServer(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(int64(5), int64(10), 135.0, "pending", "stripe", nil, time.Now()))
		mock.ExpectExec(`UPDATE payments`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		w := post(s, signed(body))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing signature answers 403", func(t *testing.T) {
		s, mock := newTestServer(t)

		w := post(s, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale timestamp answers 403", func(t *testing.T) {
		s, _ := newTestServer(t)

		ts := time.Now().Add(-time.Hour).Unix()
		mac := hmac.New(sha256.New, []byte("whsec_test"))
		fmt.Fprintf(mac, "%d.%s", ts, body)
		w := post(s, fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestLandingPages(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/payments/success", "/payments/fail"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html", path)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/payments/success", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/payments/success", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
