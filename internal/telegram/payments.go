package telegram

import (
	"bytes"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/povilas1565/CarRentalBot/core/telegram/helpers"
	"github.com/povilas1565/CarRentalBot/core/telegram/keyboard"
	"github.com/povilas1565/CarRentalBot/internal/domain"
	"github.com/povilas1565/CarRentalBot/internal/payments"
)

var methodLabels = map[domain.PaymentMethod]string{
	domain.MethodFreekassa: "💳 Card (Freekassa)",
	domain.MethodStripe:    "💳 Card (Stripe)",
	domain.MethodNBSQR:     "🏦 Bank transfer QR (NBS IPS)",
}

// handlePay lists the renter's unpaid bookings.
func (a *App) handlePay(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user, err := a.users.GetUserByTelegramID(ctx, c.Sender().ID)
	if err != nil {
		return respond(c, err)
	}
	if user == nil {
		return tghelpers.SendText(c, "You are not registered yet — /register first.")
	}

	var btns []keyboard.InlineBtn
	for _, status := range []domain.BookingStatus{domain.BookingConfirmed, domain.BookingPending} {
		bookings, err := a.bookings.ByRenter(ctx, user.ID, status)
		if err != nil {
			return respond(c, err)
		}
		for _, b := range bookings {
			btns = append(btns, keyboard.InlineBtn{
				Text:   fmt.Sprintf("#%d — %.2f EUR (%s)", b.ID, b.TotalPrice, b.Period()),
				Unique: cbPayBooking,
				Data:   strconv.FormatInt(b.ID, 10),
			})
		}
	}
	if len(btns) == 0 {
		return tghelpers.SendText(c, "Nothing to pay, you have no active bookings. /rent to make one.")
	}
	return c.Send("Which booking do you want to pay for?", keyboard.InlineButtons(btns))
}

func (a *App) handlePayBookingCallback(c tele.Context) error {
	bookingID, err := payloadInt64(c)
	if err != nil {
		return a.unknownCallback(c)
	}

	methods := a.payments.Methods()
	if len(methods) == 0 {
		return tghelpers.SendText(c, "No payment methods are configured, contact support.")
	}

	var btns []keyboard.InlineBtn
	for _, m := range methods {
		label := methodLabels[m]
		if label == "" {
			label = string(m)
		}
		btns = append(btns, keyboard.InlineBtn{
			Text:   label,
			Unique: cbPayMethod,
			Data:   fmt.Sprintf("%d|%s", bookingID, m),
		})
	}
	return c.Send("How would you like to pay?", keyboard.InlineButtons(btns))
}

// handlePayMethodCallback creates the payment and sends the provider artifact:
// a link for hosted checkouts, a QR photo for bank transfers.
func (a *App) handlePayMethodCallback(c tele.Context) error {
	parts, err := payloadParts(c)
	if err != nil || len(parts) != 2 {
		return a.unknownCallback(c)
	}
	bookingID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return a.unknownCallback(c)
	}
	method, ok := domain.ParsePaymentMethod(parts[1])
	if !ok {
		return a.unknownCallback(c)
	}

	ctx := tghelpers.BuildContext(c)
	started, err := a.payments.Start(ctx, bookingID, method)
	if err != nil {
		return respond(c, err)
	}

	switch started.Artifact.Kind {
	case payments.ArtifactQR:
		photo := &tele.Photo{
			File:    tele.FromReader(bytes.NewReader(started.Artifact.PNG)),
			Caption: started.Artifact.Caption,
		}
		return c.Send(photo)
	default:
		return tghelpers.SendText(c, fmt.Sprintf(
			"%s\n%s\n\nThe booking is confirmed automatically once the payment arrives.",
			started.Artifact.Caption, started.Artifact.URL))
	}
}
