package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/config"
	"github.com/povilas1565/CarRentalBot/internal/domain"
)

// signatureTolerance bounds how stale a signed webhook timestamp may be.
const signatureTolerance = 5 * time.Minute

// Stripe is the hosted payment-link provider. Checkout happens on a
// preconfigured payment link; the payment id rides along as
// client_reference_id and comes back in the webhook event.
type Stripe struct {
	cfg config.StripeConfig
	now func() time.Time
}

// NewStripe builds the provider from configuration.
func NewStripe(cfg config.StripeConfig) *Stripe {
	return &Stripe{cfg: cfg, now: time.Now}
}

// Method reports the provider tag.
func (s *Stripe) Method() domain.PaymentMethod { return domain.MethodStripe }

// CreateArtifact attaches the payment id to the hosted payment link.
func (s *Stripe) CreateArtifact(payment *domain.Payment, booking *domain.Booking, car *domain.Car) (*Artifact, error) {
	if s.cfg.PaymentLinkURL == "" {
		return nil, apperr.External(nil, "card payments are not configured")
	}

	u, err := url.Parse(s.cfg.PaymentLinkURL)
	if err != nil {
		return nil, apperr.External(err, "card payments are misconfigured")
	}
	q := u.Query()
	q.Set("client_reference_id", OrderID(payment.ID))
	u.RawQuery = q.Encode()

	return &Artifact{
		Kind:    ArtifactLink,
		URL:     u.String(),
		Caption: fmt.Sprintf("Rental of %s, %s", car.Label(), booking.Period()),
	}, nil
}

// VerifySignature checks the Stripe-Signature header against the raw body:
// v1 = hex(HMAC-SHA256(secret, "<t>.<body>")), constant-time compare, with a
// bounded timestamp tolerance against replay.
func (s *Stripe) VerifySignature(header string, body []byte) error {
	if s.cfg.WebhookSecret == "" {
		return apperr.Authentication("webhook signing is not configured")
	}

	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return apperr.Authentication("malformed signature header")
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return apperr.Authentication("malformed signature timestamp")
	}
	age := s.now().Sub(time.Unix(unix, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return apperr.Authentication("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(s.cfg.WebhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range sigs {
		if hmac.Equal([]byte(expected), []byte(strings.ToLower(sig))) {
			return nil
		}
	}
	return apperr.Authentication("invalid webhook signature")
}

// CheckoutEvent is the subset of the checkout webhook payload reconciliation
// needs.
type CheckoutEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string `json:"id"`
			ClientReferenceID string `json:"client_reference_id"`
			PaymentStatus     string `json:"payment_status"`
			PaymentIntent     string `json:"payment_intent"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes the raw webhook body.
func ParseEvent(body []byte) (*CheckoutEvent, error) {
	var ev CheckoutEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, apperr.Validation("malformed webhook payload")
	}
	return &ev, nil
}
