package service

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/povilas1565/CarRentalBot/internal/storage/postgres"
)

func newStoreMock(t *testing.T) (*postgres.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.New(sqlx.NewDb(db, "sqlmock")), mock
}

func date(s string) time.Time {
	t, err := time.Parse("02.01.2006", s)
	if err != nil {
		panic(err)
	}
	return t
}

var bookingCols = []string{
	"id", "car_id", "renter_id", "date_from", "date_to", "total_price",
	"status", "contract_signed", "created_at",
}

var carCols = []string{
	"id", "owner_id", "brand", "model", "year", "license_plate", "vin",
	"price_per_day", "discount", "city", "photo_file_id", "rental_terms",
	"available", "rating",
}

var paymentCols = []string{
	"id", "booking_id", "amount", "status", "method", "transaction_id", "created_at",
}

var contractCols = []string{
	"id", "booking_id", "document_path", "signed", "signature_data",
}

func carRow(id int64, available bool) []driver.Value {
	return []driver.Value{
		id, int64(7), "Skoda", "Octavia", 2021, "BG-123-XY", nil,
		50.0, 10.0, "Belgrade", nil, nil, available, nil,
	}
}

func bookingRow(id, carID int64, total float64, status string) []driver.Value {
	return []driver.Value{
		id, carID, int64(3), date("15.07.2026"), date("17.07.2026"), total,
		status, false, time.Now(),
	}
}

func paymentRow(id, bookingID int64, amount float64, status, method string) []driver.Value {
	return []driver.Value{id, bookingID, amount, status, method, nil, time.Now()}
}
