package telegram

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/povilas1565/CarRentalBot/core/telegram/helpers"
	"github.com/povilas1565/CarRentalBot/core/telegram/keyboard"
)

// handleRent opens the booking dialog with the city keyboard.
func (a *App) handleRent(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	cities, err := a.cars.Cities(ctx)
	if err != nil {
		return respond(c, err)
	}
	if len(cities) == 0 {
		return tghelpers.SendText(c, "No cars are available right now, try again later.")
	}

	btns := make([]keyboard.InlineBtn, 0, len(cities))
	for _, city := range cities {
		btns = append(btns, keyboard.InlineBtn{Text: city, Unique: cbBookCity, Data: city})
	}

	a.fsm.SetTemp(c.Sender().ID, tempBookingDraft, &BookingDraft{})
	return c.Send("Where do you need a car?", keyboard.InlineButtonsNPerRow(btns, 2))
}

func (a *App) bookingDraft(userID int64) *BookingDraft {
	if v, ok := a.fsm.GetTemp(userID, tempBookingDraft); ok {
		if d, ok := v.(*BookingDraft); ok {
			return d
		}
	}
	return nil
}

func (a *App) handleBookCityCallback(c tele.Context) error {
	userID := c.Sender().ID
	city := payloadString(c)
	if city == "" {
		return a.unknownCallback(c)
	}

	ctx := tghelpers.BuildContext(c)
	cars, err := a.cars.AvailableIn(ctx, city)
	if err != nil {
		return respond(c, err)
	}
	if len(cars) == 0 {
		return tghelpers.SendText(c, "No cars left in "+city+", pick another city with /rent.")
	}

	draft := a.bookingDraft(userID)
	if draft == nil {
		draft = &BookingDraft{}
		a.fsm.SetTemp(userID, tempBookingDraft, draft)
	}
	draft.City = city

	markup := &tele.ReplyMarkup{}
	buttons := make([]tele.Btn, 0, len(cars))
	for _, car := range cars {
		label := fmt.Sprintf("%s — %.2f EUR/day", car.Label(), car.PricePerDay)
		if car.Discount > 0 {
			label += fmt.Sprintf(" (−%.0f%%)", car.Discount)
		}
		if car.Rating.Valid {
			label += fmt.Sprintf(" ★%.1f", car.Rating.Float64)
		}
		buttons = append(buttons, markup.Data(label, cbBookCar, strconv.FormatInt(car.ID, 10)))
	}
	markup.Inline(markup.Split(1, buttons)...)
	return c.Send("Available cars in "+city+":", markup)
}

// handleBookCarCallback records the chosen car and applies the registration
// gate: unregistered users finish registration first, then resume the dates.
func (a *App) handleBookCarCallback(c tele.Context) error {
	userID := c.Sender().ID
	carID, err := payloadInt64(c)
	if err != nil {
		return a.unknownCallback(c)
	}

	ctx := tghelpers.BuildContext(c)
	car, err := a.cars.ByID(ctx, carID)
	if err != nil {
		return respond(c, err)
	}

	draft := a.bookingDraft(userID)
	if draft == nil {
		draft = &BookingDraft{City: car.City}
		a.fsm.SetTemp(userID, tempBookingDraft, draft)
	}
	draft.CarID = car.ID
	draft.CarLabel = car.Label()

	if car.RentalTerms.Valid {
		_ = tghelpers.SendText(c, "Rental terms:\n"+car.RentalTerms.String)
	}

	user, err := a.users.GetUserByTelegramID(ctx, userID)
	if err != nil {
		return respond(c, err)
	}
	if user == nil || !user.Registered {
		draft.ResumeBooking = true
		_ = tghelpers.SendText(c, "Almost there — a quick registration first.")
		return a.handleRegister(c)
	}

	a.fsm.SetState(userID, StateBookingDateFrom)
	return tghelpers.SendText(c, "Rental start date (DD.MM.YYYY)?")
}

func (a *App) handleBookingDateFrom(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.bookingDraft(userID)
	if draft == nil || draft.CarID == 0 {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /rent again.")
	}

	from, err := a.bookings.ParseStartDate(c.Text())
	if err != nil {
		return respond(c, err) // stays in this state for another attempt
	}
	draft.DateFrom = from
	a.fsm.SetState(userID, StateBookingDateTo)
	return tghelpers.SendText(c, "Rental end date (DD.MM.YYYY)?")
}

func (a *App) handleBookingDateTo(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.bookingDraft(userID)
	if draft == nil || draft.CarID == 0 {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /rent again.")
	}

	to, err := a.bookings.ParseEndDate(c.Text(), draft.DateFrom)
	if err != nil {
		return respond(c, err)
	}

	ctx := tghelpers.BuildContext(c)
	quote, err := a.bookings.Quote(ctx, draft.CarID, draft.DateFrom, to)
	if err != nil {
		a.fsm.Clear(userID)
		return respond(c, err)
	}
	draft.DateTo = to
	draft.TotalPrice = quote.TotalPrice
	a.fsm.ClearState(userID)

	summary := fmt.Sprintf(
		"Booking summary:\n%s, %s\n%s — %s (%d days)\nTotal: %.2f EUR",
		quote.Car.Label(), quote.Car.City,
		draft.DateFrom.Format("02.01.2006"), to.Format("02.01.2006"),
		quote.Days, quote.TotalPrice)
	if quote.Car.Discount > 0 {
		summary += fmt.Sprintf(" (incl. %.0f%% discount)", quote.Car.Discount)
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("✅ Confirm", cbBookConfirm),
		markup.Data("❌ Abort", cbBookAbort),
	))
	return c.Send(summary, markup)
}

func (a *App) handleBookConfirmCallback(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.bookingDraft(userID)
	if draft == nil || draft.CarID == 0 || draft.DateTo.IsZero() {
		return tghelpers.SendText(c, "The dialog expired, run /rent again.")
	}

	ctx := tghelpers.BuildContext(c)
	user, err := a.users.GetUserByTelegramID(ctx, userID)
	if err != nil {
		return respond(c, err)
	}

	// Fresh quote: the price or the car may have changed since the summary.
	quote, err := a.bookings.Quote(ctx, draft.CarID, draft.DateFrom, draft.DateTo)
	if err != nil {
		a.fsm.Clear(userID)
		return respond(c, err)
	}
	booking, err := a.bookings.Confirm(ctx, user, quote)
	if err != nil {
		a.fsm.Clear(userID)
		return respond(c, err)
	}
	a.fsm.Clear(userID)

	return tghelpers.SendText(c, fmt.Sprintf(
		"Booking #%d confirmed: %s, %s, %.2f EUR.\n"+
			"Pay with /pay. /contract prepares the agreement.",
		booking.ID, quote.Car.Label(), booking.Period(), booking.TotalPrice))
}

func (a *App) handleBookAbortCallback(c tele.Context) error {
	a.fsm.Clear(c.Sender().ID)
	return tghelpers.SendText(c, "Booking aborted. /rent to start over.")
}
