package contracts

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/povilas1565/CarRentalBot/internal/domain"
)

func fixtures() (*domain.Booking, *domain.Car, *domain.User, *domain.User) {
	booking := &domain.Booking{
		ID:         7,
		DateFrom:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:     time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		TotalPrice: 135,
	}
	car := &domain.Car{
		Brand: "Skoda", Model: "Octavia", Year: 2021, City: "Belgrade",
		LicensePlate: sql.NullString{String: "BG-123-XY", Valid: true},
	}
	owner := &domain.User{Name: "Ana", UserType: domain.UserOwnerPhysical}
	renter := &domain.User{Name: "Marko", UserType: domain.UserRenter}
	return booking, car, owner, renter
}

func TestRenderWritesDocument(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir)
	booking, car, owner, renter := fixtures()

	path, err := r.Render(booking, car, owner, renter)
	require.NoError(t, err)
	assert.Equal(t, r.DocumentPath(7), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(content)
	assert.Contains(t, html, "Agreement No. 7")
	assert.Contains(t, html, "Skoda Octavia (2021)")
	assert.Contains(t, html, "BG-123-XY")
	assert.Contains(t, html, "Ana")
	assert.Contains(t, html, "Marko")
	assert.Contains(t, html, "135.00 EUR")
	assert.Contains(t, html, "01.01.2024 — 03.01.2024")
}

func TestRenderOverwrites(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir)
	booking, car, owner, renter := fixtures()

	_, err := r.Render(booking, car, owner, renter)
	require.NoError(t, err)

	booking.TotalPrice = 150
	path, err := r.Render(booking, car, owner, renter)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "150.00 EUR")
	assert.NotContains(t, string(content), "135.00 EUR")
}

func TestCompanyNameUsedForLegalOwner(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir)
	booking, car, owner, renter := fixtures()
	owner.UserType = domain.UserOwnerLegal
	owner.CompanyName = sql.NullString{String: "Fleet DOO", Valid: true}

	path, err := r.Render(booking, car, owner, renter)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Fleet DOO")
}

func TestRemoveMissingFileIsNoError(t *testing.T) {
	r := NewRenderer(t.TempDir())
	assert.NoError(t, r.Remove(r.DocumentPath(99)))
}
