package payments

import (
	// Freekassa's signature scheme is MD5 over an ordered field concatenation;
	// the algorithm is fixed by the provider, not a local choice.
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/config"
	"github.com/povilas1565/CarRentalBot/internal/domain"
)

// Freekassa is the link-based checkout provider. SecretWord1 signs the
// outgoing payment form, SecretWord2 authenticates inbound notifications.
type Freekassa struct {
	cfg config.FreekassaConfig
}

// NewFreekassa builds the provider from configuration.
func NewFreekassa(cfg config.FreekassaConfig) *Freekassa {
	return &Freekassa{cfg: cfg}
}

// Method reports the provider tag.
func (f *Freekassa) Method() domain.PaymentMethod { return domain.MethodFreekassa }

// CreateArtifact builds the signed redirect URL. The order id is the payment
// primary key so the webhook can resolve the row directly.
func (f *Freekassa) CreateArtifact(payment *domain.Payment, booking *domain.Booking, car *domain.Car) (*Artifact, error) {
	if f.cfg.MerchantID == "" || f.cfg.SecretWord1 == "" {
		return nil, apperr.External(nil, "Freekassa payments are not configured")
	}

	amount := FormatAmount(payment.Amount)
	orderID := OrderID(payment.ID)

	q := url.Values{}
	q.Set("m", f.cfg.MerchantID)
	q.Set("oa", amount)
	q.Set("currency", f.cfg.Currency)
	q.Set("o", orderID)
	q.Set("s", f.FormSignature(amount, orderID))

	return &Artifact{
		Kind:    ArtifactLink,
		URL:     strings.TrimRight(f.cfg.PayURL, "?") + "?" + q.Encode(),
		Caption: fmt.Sprintf("Rental of %s, %s", car.Label(), booking.Period()),
	}, nil
}

// FormSignature computes the payment form signature:
// md5(merchant_id:amount:secret_word_1:currency:order_id).
func (f *Freekassa) FormSignature(amount, orderID string) string {
	return md5Hex(strings.Join([]string{
		f.cfg.MerchantID, amount, f.cfg.SecretWord1, f.cfg.Currency, orderID,
	}, ":"))
}

// Notification carries the fields Freekassa posts to the webhook endpoint.
type Notification struct {
	MerchantID string
	Amount     string
	OrderID    string
	Signature  string
	IntID      string
}

// VerifyNotification recomputes md5(merchant_id:amount:secret_word_2:order_id)
// and compares it case-insensitively (the provider sends upper-hex).
func (f *Freekassa) VerifyNotification(n Notification) error {
	if f.cfg.SecretWord2 == "" {
		return apperr.Authentication("Freekassa notifications are not configured")
	}
	expected := md5Hex(strings.Join([]string{
		f.cfg.MerchantID, n.Amount, f.cfg.SecretWord2, n.OrderID,
	}, ":"))
	if !strings.EqualFold(expected, n.Signature) {
		return apperr.Authentication("invalid notification signature")
	}
	return nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
