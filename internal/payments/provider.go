// Package payments contains the provider adapters: building payment artifacts
// (redirect links or QR payloads) and verifying inbound webhook signatures.
// Providers never mark a payment terminal; that is reconciliation's job.
package payments

import (
	"fmt"
	"strconv"

	"github.com/povilas1565/CarRentalBot/internal/domain"
)

// ArtifactKind tells the conversation layer how to present the artifact.
type ArtifactKind string

const (
	// ArtifactLink is a redirect URL the renter opens in a browser.
	ArtifactLink ArtifactKind = "link"
	// ArtifactQR is a PNG-encoded scannable code.
	ArtifactQR ArtifactKind = "qr"
)

// Artifact is the provider-specific payment handle shown to the renter.
type Artifact struct {
	Kind    ArtifactKind
	URL     string
	PNG     []byte
	Caption string
}

// Provider creates payment artifacts for one payment method.
type Provider interface {
	Method() domain.PaymentMethod
	CreateArtifact(payment *domain.Payment, booking *domain.Booking, car *domain.Car) (*Artifact, error)
}

// Registry resolves a payment method to its configured provider.
type Registry struct {
	providers map[domain.PaymentMethod]Provider
}

// NewRegistry indexes the given providers by method.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[domain.PaymentMethod]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Method()] = p
		}
	}
	return r
}

// Get returns the provider for a method.
func (r *Registry) Get(method domain.PaymentMethod) (Provider, bool) {
	p, ok := r.providers[method]
	return p, ok
}

// Methods lists the configured methods in a stable order.
func (r *Registry) Methods() []domain.PaymentMethod {
	ordered := []domain.PaymentMethod{domain.MethodFreekassa, domain.MethodStripe, domain.MethodNBSQR}
	out := make([]domain.PaymentMethod, 0, len(r.providers))
	for _, m := range ordered {
		if _, ok := r.providers[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// FormatAmount renders a monetary amount the way providers expect it in
// signatures and URLs: dot separator, always two decimals.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// OrderID encodes the payment primary key as the provider order reference.
func OrderID(paymentID int64) string {
	return fmt.Sprintf("%d", paymentID)
}
