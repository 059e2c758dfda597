package service

import (
	"context"
	"strings"

	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/povilas1565/CarRentalBot/core/logger"
	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/contracts"
	"github.com/povilas1565/CarRentalBot/internal/domain"
	"github.com/povilas1565/CarRentalBot/internal/storage/postgres"
)

// Contracts manages rental agreements: generation, signing, annulment.
type Contracts struct {
	store    *postgres.Store
	renderer *contracts.Renderer
}

// NewContracts constructs the contract service.
func NewContracts(store *postgres.Store, renderer *contracts.Renderer) *Contracts {
	return &Contracts{store: store, renderer: renderer}
}

// Generate renders the agreement document for a booking and records it.
// Regeneration overwrites the document and reuses the contract row, so a
// booking never accumulates more than one contract.
func (s *Contracts) Generate(ctx context.Context, bookingID int64) (*domain.Contract, error) {
	booking, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking not found")
	}
	if booking.Status == domain.BookingCancelled {
		return nil, apperr.Conflict("the booking is cancelled")
	}

	car, err := s.store.CarByID(ctx, booking.CarID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if car == nil {
		return nil, apperr.NotFound("the booked car no longer exists")
	}
	owner, err := s.store.UserByID(ctx, car.OwnerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	renter, err := s.store.UserByID(ctx, booking.RenterID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if owner == nil || renter == nil {
		return nil, apperr.NotFound("a contract party no longer exists")
	}

	path, err := s.renderer.Render(booking, car, owner, renter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	contract, err := s.store.UpsertContract(ctx, booking.ID, path)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	logger.SVCContracts.Info("contract generated",
		slog.String("event", "generate_contract"),
		slog.Int64("contract_id", contract.ID),
		slog.Int64("booking_id", booking.ID),
	)
	return contract, nil
}

// ByBooking returns the contract for a booking, or NotFound.
func (s *Contracts) ByBooking(ctx context.Context, bookingID int64) (*domain.Contract, error) {
	c, err := s.store.ContractByBookingID(ctx, bookingID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if c == nil {
		return nil, apperr.NotFound("no contract has been generated for this booking")
	}
	return c, nil
}

// SignedByRenter lists a renter's signed contracts, newest first.
func (s *Contracts) SignedByRenter(ctx context.Context, renterID int64) ([]domain.Contract, error) {
	list, err := s.store.SignedContractsByRenter(ctx, renterID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

// Sign marks the contract signed and flags the booking in the same
// transaction, so the two can never disagree. Signing twice yields Conflict.
func (s *Contracts) Sign(ctx context.Context, contractID int64, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return apperr.Validation("the signature must not be empty")
	}

	c, err := s.store.ContractByID(ctx, contractID)
	if err != nil {
		return apperr.Internal(err)
	}
	if c == nil {
		return apperr.NotFound("contract not found")
	}

	err = s.store.InTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := postgres.SignContractTx(ctx, tx, c.ID, signature)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("the contract is already signed")
		}
		return postgres.SetContractSignedTx(ctx, tx, c.BookingID, true)
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return err
		}
		return apperr.Internal(err)
	}

	logger.SVCContracts.Info("contract signed",
		slog.String("event", "sign_contract"),
		slog.Int64("contract_id", c.ID),
		slog.Int64("booking_id", c.BookingID),
	)
	return nil
}

// Annul deletes a signed contract, clears the booking flag, and removes the
// rendered document. Only signed contracts can be annulled.
func (s *Contracts) Annul(ctx context.Context, contractID int64) error {
	c, err := s.store.ContractByID(ctx, contractID)
	if err != nil {
		return apperr.Internal(err)
	}
	if c == nil {
		return apperr.NotFound("contract not found")
	}
	if !c.Signed {
		return apperr.Conflict("only a signed contract can be annulled")
	}

	err = s.store.InTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := postgres.DeleteSignedContractTx(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("only a signed contract can be annulled")
		}
		return postgres.SetContractSignedTx(ctx, tx, c.BookingID, false)
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return err
		}
		return apperr.Internal(err)
	}

	// Best effort: the row is gone either way.
	if err := s.renderer.Remove(c.DocumentPath); err != nil {
		logger.SVCContracts.Warn("contract document removal failed",
			slog.String("event", "annul_contract"),
			slog.Int64("contract_id", c.ID),
			slog.String("error", err.Error()),
		)
	}

	logger.SVCContracts.Info("contract annulled",
		slog.String("event", "annul_contract"),
		slog.Int64("contract_id", c.ID),
		slog.Int64("booking_id", c.BookingID),
	)
	return nil
}
