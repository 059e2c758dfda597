package telegram

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/povilas1565/CarRentalBot/core/telegram/helpers"
	"github.com/povilas1565/CarRentalBot/internal/domain"
)

// handleReview lists the cars from the renter's bookings for rating.
func (a *App) handleReview(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user, err := a.users.GetUserByTelegramID(ctx, c.Sender().ID)
	if err != nil {
		return respond(c, err)
	}
	if user == nil {
		return tghelpers.SendText(c, "You are not registered yet — /register first.")
	}

	seen := make(map[int64]bool)
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, status := range []domain.BookingStatus{domain.BookingConfirmed, domain.BookingCompleted} {
		bookings, err := a.bookings.ByRenter(ctx, user.ID, status)
		if err != nil {
			return respond(c, err)
		}
		for _, b := range bookings {
			if seen[b.CarID] {
				continue
			}
			seen[b.CarID] = true
			car, err := a.cars.ByID(ctx, b.CarID)
			if err != nil {
				continue
			}
			rows = append(rows, markup.Row(markup.Data(
				car.Label(), cbReviewCar, fmt.Sprint(car.ID))))
		}
	}
	if len(rows) == 0 {
		return tghelpers.SendText(c, "Nothing to review yet — rent a car first with /rent.")
	}
	markup.Inline(rows...)
	return c.Send("Which car do you want to rate?", markup)
}

func (a *App) handleReviewCarCallback(c tele.Context) error {
	carID, err := payloadInt64(c)
	if err != nil {
		return a.unknownCallback(c)
	}

	userID := c.Sender().ID
	a.fsm.SetTemp(userID, tempReviewDraft, &ReviewDraft{CarID: carID})
	a.fsm.SetState(userID, StateReviewRating)
	return tghelpers.SendText(c, "Your rating, 1 to 5?")
}

func (a *App) reviewDraft(userID int64) *ReviewDraft {
	if v, ok := a.fsm.GetTemp(userID, tempReviewDraft); ok {
		if d, ok := v.(*ReviewDraft); ok {
			return d
		}
	}
	return nil
}

func (a *App) handleReviewRating(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.reviewDraft(userID)
	if draft == nil {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /review again.")
	}

	rating, err := a.reviews.ParseRating(c.Text())
	if err != nil {
		return respond(c, err)
	}
	draft.Rating = rating
	a.fsm.SetState(userID, StateReviewComment)
	return tghelpers.SendText(c, "A few words about the car? (or \""+skipWord+"\")")
}

func (a *App) handleReviewComment(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.reviewDraft(userID)
	if draft == nil {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /review again.")
	}

	comment := strings.TrimSpace(c.Text())
	if strings.EqualFold(comment, skipWord) {
		comment = ""
	}

	ctx := tghelpers.BuildContext(c)
	user, err := a.users.GetUserByTelegramID(ctx, userID)
	if err != nil || user == nil {
		a.fsm.Clear(userID)
		return respond(c, err)
	}
	if _, err := a.reviews.Submit(ctx, user.ID, draft.CarID, draft.Rating, comment); err != nil {
		return respond(c, err)
	}

	a.fsm.Clear(userID)
	return tghelpers.SendText(c, "Thanks for the review!")
}
