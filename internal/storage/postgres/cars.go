package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/povilas1565/CarRentalBot/internal/domain"
)

const carColumns = `c.id, c.owner_id, c.brand, c.model, c.year, c.license_plate,
	c.vin, c.price_per_day, c.discount, c.city, c.photo_file_id, c.rental_terms,
	c.available`

const carSelect = `
	SELECT ` + carColumns + `, avg(r.rating) AS rating
	FROM cars c
	LEFT JOIN reviews r ON r.car_id = c.id`

const carGroup = ` GROUP BY c.id`

// CarByID loads a car with its average review rating; nil when absent.
func (s *Store) CarByID(ctx context.Context, id int64) (*domain.Car, error) {
	var c domain.Car
	err := s.db.GetContext(ctx, &c, carSelect+` WHERE c.id = $1`+carGroup, id)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select car: %w", err)
	}
	return &c, nil
}

// AvailableCars lists cars open for booking in the given city.
func (s *Store) AvailableCars(ctx context.Context, city string) ([]domain.Car, error) {
	var cars []domain.Car
	err := s.db.SelectContext(ctx, &cars,
		carSelect+` WHERE c.available AND c.city = $1`+carGroup+` ORDER BY c.id`, city)
	if err != nil {
		return nil, fmt.Errorf("select available cars: %w", err)
	}
	return cars, nil
}

// AvailableCities lists distinct cities that currently have available cars.
func (s *Store) AvailableCities(ctx context.Context) ([]string, error) {
	var cities []string
	err := s.db.SelectContext(ctx, &cities,
		`SELECT DISTINCT city FROM cars WHERE available ORDER BY city`)
	if err != nil {
		return nil, fmt.Errorf("select cities: %w", err)
	}
	return cities, nil
}

// CarsByOwner lists an owner's fleet regardless of availability.
func (s *Store) CarsByOwner(ctx context.Context, ownerID int64) ([]domain.Car, error) {
	var cars []domain.Car
	err := s.db.SelectContext(ctx, &cars,
		carSelect+` WHERE c.owner_id = $1`+carGroup+` ORDER BY c.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("select cars by owner: %w", err)
	}
	return cars, nil
}

// InsertCar persists a new car and returns its id.
func (s *Store) InsertCar(ctx context.Context, c *domain.Car) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `
		INSERT INTO cars (owner_id, brand, model, year, license_plate, vin,
			price_per_day, discount, city, photo_file_id, rental_terms, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)
		RETURNING id`,
		c.OwnerID, c.Brand, c.Model, c.Year, c.LicensePlate, c.VIN,
		c.PricePerDay, c.Discount, c.City, c.PhotoFileID, c.RentalTerms)
	if err != nil {
		return 0, fmt.Errorf("insert car: %w", err)
	}
	return id, nil
}

// UpdateCarField sets one editable attribute of an owner's car. The field is
// matched exhaustively against the closed CarField set.
func (s *Store) UpdateCarField(ctx context.Context, carID, ownerID int64, field domain.CarField, value any) (bool, error) {
	var column string
	switch field {
	case domain.CarFieldBrand:
		column = "brand"
	case domain.CarFieldModel:
		column = "model"
	case domain.CarFieldYear:
		column = "year"
	case domain.CarFieldPrice:
		column = "price_per_day"
	case domain.CarFieldDiscount:
		column = "discount"
	case domain.CarFieldCity:
		column = "city"
	case domain.CarFieldRentalTerms:
		column = "rental_terms"
	default:
		return false, fmt.Errorf("unknown car field %q", field)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE cars SET `+column+` = $1 WHERE id = $2 AND owner_id = $3`,
		value, carID, ownerID)
	if err != nil {
		return false, fmt.Errorf("update car %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update car rows: %w", err)
	}
	return n == 1, nil
}

// DeleteCar removes an owner's car. The caller is responsible for checking
// that no active booking references it.
func (s *Store) DeleteCar(ctx context.Context, carID, ownerID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cars WHERE id = $1 AND owner_id = $2`, carID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete car: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete car rows: %w", err)
	}
	return n == 1, nil
}

// CarHasActiveBooking reports whether any non-cancelled booking references the car.
func (s *Store) CarHasActiveBooking(ctx context.Context, carID int64) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT count(*) FROM bookings
		WHERE car_id = $1 AND status NOT IN ('cancelled', 'completed')`, carID)
	if err != nil {
		return false, fmt.Errorf("count active bookings: %w", err)
	}
	return n > 0, nil
}

// ReserveCarTx flips available from true to false inside tx. The WHERE clause
// acts as a compare-and-set: of two concurrent confirmations exactly one sees
// a row updated.
func ReserveCarTx(ctx context.Context, tx *sqlx.Tx, carID int64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE cars SET available = false WHERE id = $1 AND available = true`, carID)
	if err != nil {
		return false, fmt.Errorf("reserve car: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve car rows: %w", err)
	}
	return n == 1, nil
}

// ReleaseCarTx makes the car bookable again inside tx.
func ReleaseCarTx(ctx context.Context, tx *sqlx.Tx, carID int64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE cars SET available = true WHERE id = $1`, carID); err != nil {
		return fmt.Errorf("release car: %w", err)
	}
	return nil
}
