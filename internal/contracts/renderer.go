// Package contracts renders rental agreement documents. Rendering is
// idempotent at the storage layer: the file for a booking is overwritten on
// regeneration.
package contracts

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/povilas1565/CarRentalBot/internal/domain"
)

//go:embed template.html
var agreementHTML string

var agreementTmpl = template.Must(template.New("agreement").Parse(agreementHTML))

// Renderer writes agreement documents into a directory, one file per booking.
type Renderer struct {
	dir string
	now func() time.Time
}

// NewRenderer creates a Renderer rooted at dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir, now: time.Now}
}

type templateData struct {
	Booking    *domain.Booking
	Car        *domain.Car
	OwnerName  string
	RenterName string
	Period     string
	Total      string
	IssuedAt   string
}

// DocumentPath returns the deterministic location of a booking's agreement.
func (r *Renderer) DocumentPath(bookingID int64) string {
	return filepath.Join(r.dir, fmt.Sprintf("contract_%d.html", bookingID))
}

// Render writes the agreement for the booking and returns the document path.
// An existing file for the same booking is overwritten.
func (r *Renderer) Render(booking *domain.Booking, car *domain.Car, owner, renter *domain.User) (string, error) {
	var buf bytes.Buffer
	data := templateData{
		Booking:    booking,
		Car:        car,
		OwnerName:  owner.DisplayName(),
		RenterName: renter.DisplayName(),
		Period:     booking.Period(),
		Total:      fmt.Sprintf("%.2f EUR", booking.TotalPrice),
		IssuedAt:   r.now().Format(domain.DateLayout),
	}
	if err := agreementTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render agreement: %w", err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create contracts dir: %w", err)
	}
	path := r.DocumentPath(booking.ID)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write agreement: %w", err)
	}
	return path, nil
}

// Remove deletes a rendered document. A missing file is not an error: the
// row, not the file, is the source of truth.
func (r *Renderer) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove agreement: %w", err)
	}
	return nil
}
