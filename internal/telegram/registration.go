package telegram

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/povilas1565/CarRentalBot/core/telegram/helpers"
	"github.com/povilas1565/CarRentalBot/internal/domain"
	"github.com/povilas1565/CarRentalBot/internal/service"
)

// handleRegister starts (or restarts) the registration dialog with the user
// type keyboard. Re-registering updates the existing profile.
func (a *App) handleRegister(c tele.Context) error {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("I rent cars out (private)", cbRegType, string(domain.UserOwnerPhysical))),
		markup.Row(markup.Data("I rent cars out (company)", cbRegType, string(domain.UserOwnerLegal))),
		markup.Row(markup.Data("I want to rent a car", cbRegType, string(domain.UserRenter))),
	)
	return c.Send("Who are you?", markup)
}

func (a *App) handleRegTypeCallback(c tele.Context) error {
	userID := c.Sender().ID
	userType := payloadString(c)
	switch domain.UserType(userType) {
	case domain.UserOwnerPhysical, domain.UserOwnerLegal, domain.UserRenter:
	default:
		return a.unknownCallback(c)
	}

	a.fsm.SetTemp(userID, tempRegDraft, &RegDraft{UserType: userType})
	if domain.UserType(userType) == domain.UserOwnerLegal {
		a.fsm.SetState(userID, StateRegCompany)
		return tghelpers.SendText(c, "Company name?")
	}
	a.fsm.SetState(userID, StateRegName)
	return tghelpers.SendText(c, "Your full name?")
}

func (a *App) regDraft(userID int64) *RegDraft {
	if v, ok := a.fsm.GetTemp(userID, tempRegDraft); ok {
		if d, ok := v.(*RegDraft); ok {
			return d
		}
	}
	return nil
}

func (a *App) handleRegName(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.regDraft(userID)
	if draft == nil {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /register again.")
	}
	name := strings.TrimSpace(c.Text())
	if name == "" {
		return tghelpers.SendText(c, "The name must not be empty.")
	}
	draft.Name = name
	a.fsm.SetState(userID, StateRegPhone)
	return tghelpers.SendText(c, "Contact phone number?")
}

func (a *App) handleRegCompany(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.regDraft(userID)
	if draft == nil {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /register again.")
	}
	company := strings.TrimSpace(c.Text())
	if company == "" {
		return tghelpers.SendText(c, "The company name must not be empty.")
	}
	draft.CompanyName = company
	a.fsm.SetState(userID, StateRegINN)
	return tghelpers.SendText(c, "Company tax number (INN)?")
}

func (a *App) handleRegINN(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.regDraft(userID)
	if draft == nil {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /register again.")
	}
	draft.CompanyINN = strings.TrimSpace(c.Text())
	a.fsm.SetState(userID, StateRegContact)
	return tghelpers.SendText(c, "Contact person (name)?")
}

func (a *App) handleRegContact(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.regDraft(userID)
	if draft == nil {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /register again.")
	}
	draft.Contact = strings.TrimSpace(c.Text())
	a.fsm.SetState(userID, StateRegPhone)
	return tghelpers.SendText(c, "Contact phone number?")
}

func (a *App) handleRegPhone(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.regDraft(userID)
	if draft == nil {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /register again.")
	}

	ctx := tghelpers.BuildContext(c)
	user, err := a.users.Register(ctx, service.RegistrationInput{
		TelegramID:    userID,
		UserType:      domain.UserType(draft.UserType),
		Name:          draft.Name,
		Phone:         c.Text(),
		CompanyName:   draft.CompanyName,
		CompanyINN:    draft.CompanyINN,
		ContactPerson: draft.Contact,
	})
	if err != nil {
		return respond(c, err)
	}

	a.fsm.ClearTemp(userID, tempRegDraft)
	a.fsm.ClearState(userID)

	// A booking interrupted by the registration gate picks up where it left off.
	if draft := a.bookingDraft(userID); draft != nil && draft.ResumeBooking {
		draft.ResumeBooking = false
		a.fsm.SetState(userID, StateBookingDateFrom)
		return tghelpers.SendText(c, fmt.Sprintf(
			"Registration complete, %s!\nBack to your booking of %s. Rental start date (DD.MM.YYYY)?",
			user.DisplayName(), draft.CarLabel))
	}

	return tghelpers.SendText(c, fmt.Sprintf(
		"Registration complete, %s! /rent to book a car.", user.DisplayName()))
}
