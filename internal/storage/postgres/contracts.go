package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/povilas1565/CarRentalBot/internal/domain"
)

const contractColumns = `id, booking_id, document_path, signed, signature_data`

// UpsertContract creates the contract row for a booking or refreshes its
// document path. Regeneration reuses the row, the unique booking_id index
// keeps the 1:1 relation.
func (s *Store) UpsertContract(ctx context.Context, bookingID int64, documentPath string) (*domain.Contract, error) {
	var c domain.Contract
	err := s.db.GetContext(ctx, &c, `
		INSERT INTO contracts (booking_id, document_path, signed)
		VALUES ($1, $2, false)
		ON CONFLICT (booking_id) DO UPDATE SET document_path = EXCLUDED.document_path
		RETURNING `+contractColumns,
		bookingID, documentPath)
	if err != nil {
		return nil, fmt.Errorf("upsert contract: %w", err)
	}
	return &c, nil
}

// ContractByID loads a contract; nil when absent.
func (s *Store) ContractByID(ctx context.Context, id int64) (*domain.Contract, error) {
	var c domain.Contract
	err := s.db.GetContext(ctx, &c,
		`SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select contract: %w", err)
	}
	return &c, nil
}

// ContractByBookingID loads the booking's contract; nil when absent.
func (s *Store) ContractByBookingID(ctx context.Context, bookingID int64) (*domain.Contract, error) {
	var c domain.Contract
	err := s.db.GetContext(ctx, &c,
		`SELECT `+contractColumns+` FROM contracts WHERE booking_id = $1`, bookingID)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select contract by booking: %w", err)
	}
	return &c, nil
}

// SignedContractsByRenter lists the renter's signed contracts, newest booking first.
func (s *Store) SignedContractsByRenter(ctx context.Context, renterID int64) ([]domain.Contract, error) {
	var contracts []domain.Contract
	err := s.db.SelectContext(ctx, &contracts, `
		SELECT c.id, c.booking_id, c.document_path, c.signed, c.signature_data
		FROM contracts c
		JOIN bookings b ON b.id = c.booking_id
		WHERE b.renter_id = $1 AND c.signed
		ORDER BY b.created_at DESC`, renterID)
	if err != nil {
		return nil, fmt.Errorf("select signed contracts: %w", err)
	}
	return contracts, nil
}

// SignContractTx marks the contract signed inside tx; the caller pairs it with
// SetContractSignedTx on the booking so both flags move together.
func SignContractTx(ctx context.Context, tx *sqlx.Tx, id int64, signatureData string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE contracts
		SET signed = true, signature_data = NULLIF($1, '')
		WHERE id = $2 AND NOT signed`,
		signatureData, id)
	if err != nil {
		return false, fmt.Errorf("sign contract: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sign contract rows: %w", err)
	}
	return n == 1, nil
}

// DeleteSignedContractTx removes a contract only while it is still signed,
// guarding annulment against races with concurrent annulments.
func DeleteSignedContractTx(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM contracts WHERE id = $1 AND signed`, id)
	if err != nil {
		return false, fmt.Errorf("delete contract: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete contract rows: %w", err)
	}
	return n == 1, nil
}
