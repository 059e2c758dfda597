package payments

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/config"
	"github.com/povilas1565/CarRentalBot/internal/domain"
)

func testBooking() (*domain.Payment, *domain.Booking, *domain.Car) {
	payment := &domain.Payment{ID: 42, BookingID: 7, Amount: 135, Method: domain.MethodFreekassa}
	booking := &domain.Booking{
		ID:       7,
		DateFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	car := &domain.Car{Brand: "Skoda", Model: "Octavia", Year: 2021}
	return payment, booking, car
}

func TestFreekassaFormSignature(t *testing.T) {
	fk := NewFreekassa(config.FreekassaConfig{
		MerchantID:  "m-100",
		SecretWord1: "word-one",
		Currency:    "EUR",
	})

	got := fk.FormSignature("135.00", "42")

	sum := md5.Sum([]byte("m-100:135.00:word-one:EUR:42")) //nolint:gosec
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
}

func TestFreekassaArtifactURL(t *testing.T) {
	fk := NewFreekassa(config.FreekassaConfig{
		MerchantID:  "m-100",
		SecretWord1: "word-one",
		PayURL:      "https://pay.fk.money/",
		Currency:    "EUR",
	})
	payment, booking, car := testBooking()

	art, err := fk.CreateArtifact(payment, booking, car)
	require.NoError(t, err)
	assert.Equal(t, ArtifactLink, art.Kind)

	u, err := url.Parse(art.URL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "m-100", q.Get("m"))
	assert.Equal(t, "135.00", q.Get("oa"))
	assert.Equal(t, "42", q.Get("o"))
	assert.Equal(t, fk.FormSignature("135.00", "42"), q.Get("s"))
}

func TestFreekassaVerifyNotification(t *testing.T) {
	fk := NewFreekassa(config.FreekassaConfig{
		MerchantID:  "m-100",
		SecretWord2: "word-two",
	})

	sum := md5.Sum([]byte("m-100:135.00:word-two:42")) //nolint:gosec
	valid := Notification{
		MerchantID: "m-100",
		Amount:     "135.00",
		OrderID:    "42",
		Signature:  hex.EncodeToString(sum[:]),
	}
	assert.NoError(t, fk.VerifyNotification(valid))

	// Upper-hex, as Freekassa actually sends it.
	upper := valid
	upper.Signature = fmt.Sprintf("%X", sum)
	assert.NoError(t, fk.VerifyNotification(upper))

	bad := valid
	bad.Signature = "deadbeef"
	err := fk.VerifyNotification(bad)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
}

func TestStripeVerifySignature(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	s := NewStripe(config.StripeConfig{WebhookSecret: "whsec_test"})
	s.now = func() time.Time { return now }

	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	ts := strconv.FormatInt(now.Unix(), 10)

	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write([]byte(ts + "."))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	header := "t=" + ts + ",v1=" + sig
	assert.NoError(t, s.VerifySignature(header, body))

	// Tampered body fails.
	err := s.VerifySignature(header, []byte(`{"id":"evt_2"}`))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))

	// Stale timestamp fails.
	old := strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10)
	mac = hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write([]byte(old + "."))
	mac.Write(body)
	staleHeader := "t=" + old + ",v1=" + hex.EncodeToString(mac.Sum(nil))
	err = s.VerifySignature(staleHeader, body)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))

	// Garbage header fails.
	err = s.VerifySignature("nonsense", body)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
}

func TestStripeArtifactCarriesReference(t *testing.T) {
	s := NewStripe(config.StripeConfig{PaymentLinkURL: "https://buy.stripe.com/test_abc"})
	payment, booking, car := testBooking()

	art, err := s.CreateArtifact(payment, booking, car)
	require.NoError(t, err)
	assert.Equal(t, ArtifactLink, art.Kind)

	u, err := url.Parse(art.URL)
	require.NoError(t, err)
	assert.Equal(t, "42", u.Query().Get("client_reference_id"))
}

func TestParseEvent(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_1","client_reference_id":"42",
		"payment_status":"paid","payment_intent":"pi_9"}}}`)

	ev, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "42", ev.Data.Object.ClientReferenceID)
	assert.Equal(t, "paid", ev.Data.Object.PaymentStatus)
	assert.Equal(t, "pi_9", ev.Data.Object.PaymentIntent)

	_, err = ParseEvent([]byte("{"))
	assert.Error(t, err)
}

func TestNBSQRPayload(t *testing.T) {
	n := NewNBSQR(config.NBSConfig{
		AccountNumber: "190-0000000000000-11",
		RecipientName: "RENT A CAR DOO",
	})

	payload := n.Payload(135, "Car rental Skoda Octavia (2021)")
	assert.Equal(t,
		"K:PR|V:01|C:1|R:190-0000000000000-11|N:RENT A CAR DOO|I:RSD135,00|S:Car rental Skoda Octavia (2021)",
		payload)
}

func TestNBSQRArtifactIsPNG(t *testing.T) {
	n := NewNBSQR(config.NBSConfig{AccountNumber: "190-1", RecipientName: "X"})
	payment, booking, car := testBooking()

	art, err := n.CreateArtifact(payment, booking, car)
	require.NoError(t, err)
	assert.Equal(t, ArtifactQR, art.Kind)
	require.NotEmpty(t, art.PNG)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, art.PNG[:4])
}

func TestRegistryMethods(t *testing.T) {
	reg := NewRegistry(
		NewNBSQR(config.NBSConfig{}),
		NewFreekassa(config.FreekassaConfig{}),
	)

	assert.Equal(t, []domain.PaymentMethod{domain.MethodFreekassa, domain.MethodNBSQR}, reg.Methods())

	_, ok := reg.Get(domain.MethodStripe)
	assert.False(t, ok)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "135.00", FormatAmount(135))
	assert.Equal(t, "99.90", FormatAmount(99.9))
}
