package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/povilas1565/CarRentalBot/core/logger"
	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/domain"
	"github.com/povilas1565/CarRentalBot/internal/storage/postgres"
)

const firstModelYear = 1950

// Cars manages the rental fleet.
type Cars struct {
	store *postgres.Store
	now   func() time.Time
}

// NewCars constructs the inventory service.
func NewCars(store *postgres.Store) *Cars {
	return &Cars{store: store, now: time.Now}
}

// Cities returns the cities that currently have available cars.
func (s *Cars) Cities(ctx context.Context) ([]string, error) {
	cities, err := s.store.AvailableCities(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return cities, nil
}

// AvailableIn lists cars open for booking in a city.
func (s *Cars) AvailableIn(ctx context.Context, city string) ([]domain.Car, error) {
	cars, err := s.store.AvailableCars(ctx, city)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return cars, nil
}

// ByID returns a car or a NotFound error.
func (s *Cars) ByID(ctx context.Context, id int64) (*domain.Car, error) {
	car, err := s.store.CarByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if car == nil {
		return nil, apperr.NotFound("car not found")
	}
	return car, nil
}

// ByOwner lists an owner's fleet including currently rented cars.
func (s *Cars) ByOwner(ctx context.Context, ownerID int64) ([]domain.Car, error) {
	cars, err := s.store.CarsByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return cars, nil
}

// CarInput collects the fields the add-car dialog gathers.
type CarInput struct {
	OwnerID      int64
	Brand        string
	Model        string
	Year         string
	LicensePlate string
	VIN          string
	PricePerDay  string
	Discount     string
	City         string
	PhotoFileID  string
	RentalTerms  string
}

// Add validates the input and inserts a new available car.
func (s *Cars) Add(ctx context.Context, in CarInput) (*domain.Car, error) {
	car := &domain.Car{
		OwnerID:      in.OwnerID,
		Brand:        strings.TrimSpace(in.Brand),
		Model:        strings.TrimSpace(in.Model),
		LicensePlate: nullString(in.LicensePlate),
		VIN:          nullString(in.VIN),
		City:         strings.TrimSpace(in.City),
		PhotoFileID:  nullString(in.PhotoFileID),
		RentalTerms:  nullString(in.RentalTerms),
		Available:    true,
	}
	if car.Brand == "" || car.Model == "" || car.City == "" {
		return nil, apperr.Validation("brand, model and city are required")
	}

	year, err := s.parseYear(in.Year)
	if err != nil {
		return nil, err
	}
	car.Year = year

	price, err := parsePrice(in.PricePerDay)
	if err != nil {
		return nil, err
	}
	car.PricePerDay = price

	discount, err := parseDiscount(in.Discount)
	if err != nil {
		return nil, err
	}
	car.Discount = discount

	id, err := s.store.InsertCar(ctx, car)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	car.ID = id

	logger.SVCCars.Info("car added",
		slog.String("event", "add_car"),
		slog.Int64("car_id", id),
		slog.Int64("user_id", in.OwnerID),
		slog.String("city", car.City),
	)
	return car, nil
}

// Edit updates a single attribute of an owner's car. Numeric fields are
// validated with the same rules as Add; unknown cars or cars belonging to
// another owner yield NotFound.
func (s *Cars) Edit(ctx context.Context, carID, ownerID int64, field domain.CarField, raw string) error {
	raw = strings.TrimSpace(raw)

	var value any
	switch field {
	case domain.CarFieldBrand, domain.CarFieldModel, domain.CarFieldCity:
		if raw == "" {
			return apperr.Validation("value must not be empty")
		}
		value = raw
	case domain.CarFieldRentalTerms:
		value = raw
	case domain.CarFieldYear:
		year, err := s.parseYear(raw)
		if err != nil {
			return err
		}
		value = year
	case domain.CarFieldPrice:
		price, err := parsePrice(raw)
		if err != nil {
			return err
		}
		value = price
	case domain.CarFieldDiscount:
		discount, err := parseDiscount(raw)
		if err != nil {
			return err
		}
		value = discount
	default:
		return apperr.Validation("unknown car attribute")
	}

	ok, err := s.store.UpdateCarField(ctx, carID, ownerID, field, value)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("car not found")
	}

	logger.SVCCars.Info("car updated",
		slog.String("event", "edit_car"),
		slog.Int64("car_id", carID),
		slog.Int64("user_id", ownerID),
		slog.String("field", string(field)),
	)
	return nil
}

// Delete removes an owner's car. Cars with a pending or confirmed booking
// cannot be deleted.
func (s *Cars) Delete(ctx context.Context, carID, ownerID int64) error {
	active, err := s.store.CarHasActiveBooking(ctx, carID)
	if err != nil {
		return apperr.Internal(err)
	}
	if active {
		return apperr.Conflict("the car has an active booking and cannot be deleted")
	}

	ok, err := s.store.DeleteCar(ctx, carID, ownerID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("car not found")
	}

	logger.SVCCars.Info("car deleted",
		slog.String("event", "delete_car"),
		slog.Int64("car_id", carID),
		slog.Int64("user_id", ownerID),
	)
	return nil
}

func (s *Cars) parseYear(raw string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Validation("year must be a number, e.g. 2021")
	}
	if year < firstModelYear || year > s.now().Year()+1 {
		return 0, apperr.Validation("year %d is out of range", year)
	}
	return year, nil
}

func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || price <= 0 {
		return 0, apperr.Validation("price per day must be a positive number")
	}
	return price, nil
}

func parseDiscount(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	discount, err := strconv.ParseFloat(raw, 64)
	if err != nil || discount < 0 || discount > 100 {
		return 0, apperr.Validation("discount must be between 0 and 100")
	}
	return discount, nil
}
