package postgres

import (
	"context"
	"fmt"

	"github.com/povilas1565/CarRentalBot/internal/domain"
)

// InsertReview persists a review and returns its id.
func (s *Store) InsertReview(ctx context.Context, r *domain.Review) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `
		INSERT INTO reviews (car_id, renter_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		r.CarID, r.RenterID, r.Rating, r.Comment)
	if err != nil {
		return 0, fmt.Errorf("insert review: %w", err)
	}
	return id, nil
}

// ReviewsByCar lists reviews for a car, newest first.
func (s *Store) ReviewsByCar(ctx context.Context, carID int64) ([]domain.Review, error) {
	var reviews []domain.Review
	err := s.db.SelectContext(ctx, &reviews,
		`SELECT id, car_id, renter_id, rating, comment
		 FROM reviews WHERE car_id = $1 ORDER BY id DESC`, carID)
	if err != nil {
		return nil, fmt.Errorf("select reviews: %w", err)
	}
	return reviews, nil
}
