package payments

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/config"
	"github.com/povilas1565/CarRentalBot/internal/domain"
)

// qrImageSize is the side length in pixels of the rendered QR code.
const qrImageSize = 512

// NBSQR produces Serbian IPS QR transfer codes. There is no asynchronous
// confirmation channel for bank transfers; the payment stays PENDING until an
// operator reconciles it.
type NBSQR struct {
	cfg config.NBSConfig
}

// NewNBSQR builds the provider from configuration.
func NewNBSQR(cfg config.NBSConfig) *NBSQR {
	return &NBSQR{cfg: cfg}
}

// Method reports the provider tag.
func (n *NBSQR) Method() domain.PaymentMethod { return domain.MethodNBSQR }

// CreateArtifact renders the IPS payload as a scannable PNG.
func (n *NBSQR) CreateArtifact(payment *domain.Payment, booking *domain.Booking, car *domain.Car) (*Artifact, error) {
	if n.cfg.AccountNumber == "" || n.cfg.RecipientName == "" {
		return nil, apperr.External(nil, "QR payments are not configured")
	}

	purpose := fmt.Sprintf("Car rental %s %s", car.Label(), booking.Period())
	payload := n.Payload(payment.Amount, purpose)

	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, apperr.External(err, "failed to render the payment QR code")
	}

	return &Artifact{
		Kind:    ArtifactQR,
		PNG:     png,
		Caption: fmt.Sprintf("Scan to pay %s RSD for %s, %s", FormatAmount(payment.Amount), car.Label(), booking.Period()),
	}, nil
}

// Payload builds the pipe-delimited NBS IPS QR text:
// K:PR|V:01|C:1|R:<account>|N:<name>|I:RSD<amount>|S:<purpose>.
// The amount uses a comma decimal separator per the IPS specification.
func (n *NBSQR) Payload(amount float64, purpose string) string {
	ipsAmount := strings.ReplaceAll(FormatAmount(amount), ".", ",")
	return strings.Join([]string{
		"K:PR",
		"V:01",
		"C:1",
		"R:" + n.cfg.AccountNumber,
		"N:" + n.cfg.RecipientName,
		"I:RSD" + ipsAmount,
		"S:" + purpose,
	}, "|")
}
