package domain

import "database/sql"

// UserType distinguishes owners (physical or legal entity) from renters.
type UserType string

const (
	UserOwnerPhysical UserType = "owner_physical"
	UserOwnerLegal    UserType = "owner_legal"
	UserRenter        UserType = "renter"
)

// User is a registered Telegram account known to the service.
type User struct {
	ID            int64          `db:"id"`
	TelegramID    int64          `db:"telegram_id"`
	UserType      UserType       `db:"user_type"`
	Name          string         `db:"name"`
	Phone         sql.NullString `db:"phone"`
	Email         sql.NullString `db:"email"`
	CompanyName   sql.NullString `db:"company_name"`
	CompanyINN    sql.NullString `db:"company_inn"`
	ContactPerson sql.NullString `db:"contact_person"`
	Registered    bool           `db:"registered"`
}

// DisplayName prefers the company name for legal entities.
func (u *User) DisplayName() string {
	if u.UserType == UserOwnerLegal && u.CompanyName.Valid {
		return u.CompanyName.String
	}
	return u.Name
}

// IsOwner reports whether the user may manage cars.
func (u *User) IsOwner() bool {
	return u.UserType == UserOwnerPhysical || u.UserType == UserOwnerLegal
}
