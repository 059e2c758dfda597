package postgres

import (
	"context"
	"fmt"

	"github.com/povilas1565/CarRentalBot/internal/domain"
)

const userColumns = `id, telegram_id, user_type, name, phone, email,
	company_name, company_inn, contact_person, registered`

// UserByTelegramID loads a user by their Telegram account id.
// Returns (nil, nil) when the user is not registered yet.
func (s *Store) UserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user by telegram id: %w", err)
	}
	return &u, nil
}

// UserByID loads a user by primary key.
func (s *Store) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user by id: %w", err)
	}
	return &u, nil
}

// UpsertUser inserts the user or refreshes the profile keyed by telegram_id,
// returning the stored row.
func (s *Store) UpsertUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	var out domain.User
	err := s.db.GetContext(ctx, &out, `
		INSERT INTO users (telegram_id, user_type, name, phone, email,
			company_name, company_inn, contact_person, registered)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (telegram_id) DO UPDATE SET
			user_type = EXCLUDED.user_type,
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			company_name = EXCLUDED.company_name,
			company_inn = EXCLUDED.company_inn,
			contact_person = EXCLUDED.contact_person,
			registered = EXCLUDED.registered
		RETURNING `+userColumns,
		u.TelegramID, u.UserType, u.Name, u.Phone, u.Email,
		u.CompanyName, u.CompanyINN, u.ContactPerson, u.Registered)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &out, nil
}
