package telegram

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/povilas1565/CarRentalBot/core/telegram/helpers"
	"github.com/povilas1565/CarRentalBot/core/telegram/keyboard"
	"github.com/povilas1565/CarRentalBot/internal/domain"
)

const helpText = `What I can do:

/rent — book a car
/mybookings — your bookings and cancellation
/pay — pay for a booking
/contract — rental agreement: generate and sign
/annul — annul a signed agreement
/review — rate a car you rented

For car owners:
/addcar — put a car up for rent
/mycars — manage your cars

/register — create or update your profile
/menu — main menu keyboard
/cancel — abort the current dialog`

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user, err := tghelpers.CurrentUser[*domain.User](ctx, a.users, c.Sender().ID)
	if err != nil {
		return respond(c, err)
	}

	if user == nil {
		return tghelpers.SendText(c,
			"Welcome to the car rental service!\n"+
				"Start with /register to create a profile, or browse cars right away with /rent.\n"+
				helpText)
	}
	return tghelpers.SendText(c,
		fmt.Sprintf("Welcome back, %s!\n\n%s", user.DisplayName(), helpText))
}

func (a *App) handleHelp(c tele.Context) error {
	return tghelpers.SendText(c, helpText)
}

// handleMenu pins the main actions as a reply keyboard.
func (a *App) handleMenu(c tele.Context) error {
	return c.Send("Main menu:", keyboard.ReplyButtons(
		[]string{"/rent", "/mybookings", "/pay"},
		[]string{"/contract", "/review"},
		[]string{"/addcar", "/mycars"},
		[]string{"/help"},
	))
}

// handleCancel aborts whatever dialog is in progress and drops its drafts.
func (a *App) handleCancel(c tele.Context) error {
	userID := c.Sender().ID
	if !a.fsm.InProgress(userID) {
		return tghelpers.SendText(c, "Nothing to cancel.")
	}
	a.fsm.Clear(userID)
	return tghelpers.SendText(c, "Cancelled. /help shows what I can do.")
}

func (a *App) handleMyBookings(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user, err := a.users.GetUserByTelegramID(ctx, c.Sender().ID)
	if err != nil {
		return respond(c, err)
	}
	if user == nil {
		return tghelpers.SendText(c, "You are not registered yet — /register first.")
	}

	var lines []string
	var buttons []tele.Btn
	markup := &tele.ReplyMarkup{}
	for _, status := range []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed} {
		bookings, err := a.bookings.ByRenter(ctx, user.ID, status)
		if err != nil {
			return respond(c, err)
		}
		for _, b := range bookings {
			car, err := a.cars.ByID(ctx, b.CarID)
			if err != nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("#%d %s, %s — %.2f EUR (%s)",
				b.ID, car.Label(), b.Period(), b.TotalPrice, b.Status))
			buttons = append(buttons, markup.Data(
				fmt.Sprintf("Cancel #%d", b.ID), cbCancelBooking, fmt.Sprint(b.ID)))
		}
	}
	if len(lines) == 0 {
		return tghelpers.SendText(c, "You have no active bookings. /rent to make one.")
	}

	markup.InlineKeyboard = keyboard.ToInlineKeyboard(keyboard.ChunkButtons(buttons, 1))
	return c.Send("Your bookings:\n"+strings.Join(lines, "\n"), markup)
}

func (a *App) handleCancelBookingCallback(c tele.Context) error {
	bookingID, err := payloadInt64(c)
	if err != nil {
		return tghelpers.SendText(c, "This button has expired, run /mybookings again.")
	}
	ctx := tghelpers.BuildContext(c)
	if err := a.bookings.Cancel(ctx, bookingID); err != nil {
		return respond(c, err)
	}
	return tghelpers.SendText(c,
		fmt.Sprintf("Booking #%d cancelled, the car is available again.", bookingID))
}

// unknownText nudges users who type outside a dialog.
func (a *App) unknownText(c tele.Context) error {
	return tghelpers.SendText(c, "I did not get that. /help shows what I can do.")
}

func (a *App) unknownDocument(c tele.Context) error {
	return tghelpers.SendText(c, "I was not expecting a file. /help shows what I can do.")
}

func (a *App) unknownCallback(c tele.Context) error {
	_ = c.Respond(&tele.CallbackResponse{Text: "This button has expired"})
	return nil
}
