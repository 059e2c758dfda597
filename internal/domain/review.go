package domain

import "database/sql"

// Review is a renter's rating of a rented car.
type Review struct {
	ID       int64          `db:"id"`
	CarID    int64          `db:"car_id"`
	RenterID int64          `db:"renter_id"`
	Rating   float64        `db:"rating"`
	Comment  sql.NullString `db:"comment"`
}
