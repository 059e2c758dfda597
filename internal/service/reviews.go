package service

import (
	"context"
	"strconv"
	"strings"

	"log/slog"

	"github.com/povilas1565/CarRentalBot/core/logger"
	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/domain"
	"github.com/povilas1565/CarRentalBot/internal/storage/postgres"
)

// Reviews collects renter ratings for cars.
type Reviews struct {
	store *postgres.Store
}

// NewReviews constructs the review service.
func NewReviews(store *postgres.Store) *Reviews {
	return &Reviews{store: store}
}

// ParseRating validates a 1..5 rating entered as text.
func (s *Reviews) ParseRating(raw string) (float64, error) {
	rating, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || rating < 1 || rating > 5 {
		return 0, apperr.Validation("send a rating from 1 to 5")
	}
	return rating, nil
}

// Submit stores a review for a car the renter has booked.
func (s *Reviews) Submit(ctx context.Context, renterID, carID int64, rating float64, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.Validation("the rating must be from 1 to 5")
	}
	car, err := s.store.CarByID(ctx, carID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if car == nil {
		return nil, apperr.NotFound("car not found")
	}

	review := &domain.Review{
		CarID:    carID,
		RenterID: renterID,
		Rating:   rating,
		Comment:  nullString(comment),
	}
	id, err := s.store.InsertReview(ctx, review)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	review.ID = id

	logger.SVCReviews.Info("review submitted",
		slog.String("event", "submit_review"),
		slog.Int64("review_id", id),
		slog.Int64("car_id", carID),
		slog.Int64("user_id", renterID),
		slog.Float64("rating", rating),
	)
	return review, nil
}

// ForCar lists reviews for a car, newest first.
func (s *Reviews) ForCar(ctx context.Context, carID int64) ([]domain.Review, error) {
	list, err := s.store.ReviewsByCar(ctx, carID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}
