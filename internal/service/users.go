// Package service implements the rental domain operations on top of the
// postgres store: registration, inventory, the booking state machine,
// contracts, payments with webhook reconciliation, and reviews.
package service

import (
	"context"
	"database/sql"
	"strings"

	"log/slog"

	"github.com/povilas1565/CarRentalBot/core/logger"
	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/domain"
	"github.com/povilas1565/CarRentalBot/internal/storage/postgres"
)

// Users manages registration and profile lookups.
type Users struct {
	store *postgres.Store
}

// NewUsers constructs the user service.
func NewUsers(store *postgres.Store) *Users {
	return &Users{store: store}
}

// GetUserByTelegramID returns the registered user for a Telegram account, or
// nil when unknown.
func (s *Users) GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	u, err := s.store.UserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// RegistrationInput collects everything the registration dialog gathers.
type RegistrationInput struct {
	TelegramID    int64
	UserType      domain.UserType
	Name          string
	Phone         string
	CompanyName   string
	CompanyINN    string
	ContactPerson string
}

// Register validates the input and upserts the user keyed by telegram id.
func (s *Users) Register(ctx context.Context, in RegistrationInput) (*domain.User, error) {
	switch in.UserType {
	case domain.UserOwnerPhysical, domain.UserOwnerLegal, domain.UserRenter:
	default:
		return nil, apperr.Validation("please choose a user type from the list")
	}

	if in.UserType == domain.UserOwnerLegal {
		if strings.TrimSpace(in.CompanyName) == "" {
			return nil, apperr.Validation("company name is required")
		}
	} else if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return nil, apperr.Validation("phone number is required")
	}

	u := &domain.User{
		TelegramID:    in.TelegramID,
		UserType:      in.UserType,
		Name:          strings.TrimSpace(in.Name),
		Phone:         nullString(in.Phone),
		CompanyName:   nullString(in.CompanyName),
		CompanyINN:    nullString(in.CompanyINN),
		ContactPerson: nullString(in.ContactPerson),
		Registered:    true,
	}
	if u.Name == "" {
		u.Name = strings.TrimSpace(in.CompanyName)
	}

	out, err := s.store.UpsertUser(ctx, u)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	logger.SVCUsers.Info("user registered",
		slog.String("event", "register"),
		slog.Int64("user_id", out.ID),
		slog.String("user_type", string(out.UserType)),
	)
	return out, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
