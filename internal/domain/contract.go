package domain

import "database/sql"

// Contract is the rental agreement document tied 1:1 to a booking.
// Regenerating the document reuses the same row.
type Contract struct {
	ID            int64          `db:"id"`
	BookingID     int64          `db:"booking_id"`
	DocumentPath  string         `db:"document_path"`
	Signed        bool           `db:"signed"`
	SignatureData sql.NullString `db:"signature_data"`
}
