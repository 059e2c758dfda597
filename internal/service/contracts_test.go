package service

import (
	"context"
	"database/sql/driver"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/contracts"
)

func userRow(id int64, userType, name string) []driver.Value {
	return []driver.Value{id, int64(100 + id), userType, name, nil, nil, nil, nil, nil, true}
}

var userCols = []string{
	"id", "telegram_id", "user_type", "name", "phone", "email",
	"company_name", "company_inn", "contact_person", "registered",
}

func TestGenerateContract(t *testing.T) {
	dir := t.TempDir()
	renderer := contracts.NewRenderer(dir)

	t.Run("renders the document and records the row", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewContracts(store, renderer)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(bookingCols).
				AddRow(bookingRow(10, 1, 135, "confirmed")...))
		mock.ExpectQuery(`SELECT (.+) FROM cars c`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(carCols).AddRow(carRow(1, false)...))
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(userRow(7, "owner_physical", "Nikola")...))
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(userRow(3, "renter", "Milan")...))
		path := filepath.Join(dir, "contract_10.html")
		mock.ExpectQuery(`INSERT INTO contracts`).
			WithArgs(int64(10), path).
			WillReturnRows(sqlmock.NewRows(contractCols).AddRow(int64(2), int64(10), path, false, nil))

		c, err := svc.Generate(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, path, c.DocumentPath)
		assert.FileExists(t, path)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled booking gets no contract", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewContracts(store, renderer)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(bookingCols).
				AddRow(bookingRow(10, 1, 135, "cancelled")...))

		_, err := svc.Generate(context.Background(), 10)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})
}

func TestSignContract(t *testing.T) {
	renderer := contracts.NewRenderer(t.TempDir())

	t.Run("signs the contract and flags the booking atomically", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewContracts(store, renderer)

		mock.ExpectQuery(`SELECT (.+) FROM contracts WHERE id`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(contractCols).
				AddRow(int64(2), int64(10), "contracts/contract_10.html", false, nil))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE contracts`).
			WithArgs("Milan Petrovic", int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings SET contract_signed`).
			WithArgs(true, int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.Sign(context.Background(), 2, "Milan Petrovic"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("double signing is a conflict", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewContracts(store, renderer)

		mock.ExpectQuery(`SELECT (.+) FROM contracts WHERE id`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(contractCols).
				AddRow(int64(2), int64(10), "contracts/contract_10.html", true, "Milan Petrovic"))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE contracts`).
			WithArgs("Milan Petrovic", int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 0)) // already signed
		mock.ExpectRollback()

		err := svc.Sign(context.Background(), 2, "Milan Petrovic")
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("empty signature is rejected", func(t *testing.T) {
		store, _ := newStoreMock(t)
		svc := NewContracts(store, renderer)

		err := svc.Sign(context.Background(), 2, "   ")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestAnnulContract(t *testing.T) {
	t.Run("deletes the signed contract, clears the flag, removes the file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "contract_10.html")
		require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))

		store, mock := newStoreMock(t)
		svc := NewContracts(store, contracts.NewRenderer(dir))

		mock.ExpectQuery(`SELECT (.+) FROM contracts WHERE id`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(contractCols).
				AddRow(int64(2), int64(10), path, true, "Milan Petrovic"))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM contracts`).
			WithArgs(int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings SET contract_signed`).
			WithArgs(false, int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.Annul(context.Background(), 2))
		assert.NoFileExists(t, path)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unsigned contract cannot be annulled", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewContracts(store, contracts.NewRenderer(t.TempDir()))

		mock.ExpectQuery(`SELECT (.+) FROM contracts WHERE id`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(contractCols).
				AddRow(int64(2), int64(10), "contracts/contract_10.html", false, nil))

		err := svc.Annul(context.Background(), 2)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing contract", func(t *testing.T) {
		store, mock := newStoreMock(t)
		svc := NewContracts(store, contracts.NewRenderer(t.TempDir()))

		mock.ExpectQuery(`SELECT (.+) FROM contracts WHERE id`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(contractCols))

		err := svc.Annul(context.Background(), 2)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}
