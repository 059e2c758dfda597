package domain

import (
	"database/sql"
	"fmt"
)

// Car is a vehicle offered for rent. Availability is owned by the inventory
// repository: only booking confirmation flips it to false and only explicit
// cancellation flips it back.
type Car struct {
	ID           int64           `db:"id"`
	OwnerID      int64           `db:"owner_id"`
	Brand        string          `db:"brand"`
	Model        string          `db:"model"`
	Year         int             `db:"year"`
	LicensePlate sql.NullString  `db:"license_plate"`
	VIN          sql.NullString  `db:"vin"`
	PricePerDay  float64         `db:"price_per_day"`
	Discount     float64         `db:"discount"`
	City         string          `db:"city"`
	PhotoFileID  sql.NullString  `db:"photo_file_id"`
	RentalTerms  sql.NullString  `db:"rental_terms"`
	Available    bool            `db:"available"`
	Rating       sql.NullFloat64 `db:"rating"`
}

// Label is the human-readable identification used in keyboards and summaries.
func (c *Car) Label() string {
	return fmt.Sprintf("%s %s (%d)", c.Brand, c.Model, c.Year)
}

// CarField enumerates editable car attributes. Callback payloads are resolved
// into this closed set once at the boundary and matched exhaustively after.
type CarField string

const (
	CarFieldBrand       CarField = "brand"
	CarFieldModel       CarField = "model"
	CarFieldYear        CarField = "year"
	CarFieldPrice       CarField = "price"
	CarFieldDiscount    CarField = "discount"
	CarFieldCity        CarField = "city"
	CarFieldRentalTerms CarField = "terms"
)

// ParseCarField maps a callback payload to a CarField.
func ParseCarField(s string) (CarField, bool) {
	switch CarField(s) {
	case CarFieldBrand, CarFieldModel, CarFieldYear, CarFieldPrice,
		CarFieldDiscount, CarFieldCity, CarFieldRentalTerms:
		return CarField(s), true
	}
	return "", false
}
