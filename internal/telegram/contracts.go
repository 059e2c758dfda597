package telegram

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/povilas1565/CarRentalBot/core/telegram/helpers"
	"github.com/povilas1565/CarRentalBot/internal/domain"
)

// handleContract lists bookings an agreement can be generated for.
func (a *App) handleContract(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user, err := a.users.GetUserByTelegramID(ctx, c.Sender().ID)
	if err != nil {
		return respond(c, err)
	}
	if user == nil {
		return tghelpers.SendText(c, "You are not registered yet — /register first.")
	}

	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, status := range []domain.BookingStatus{domain.BookingConfirmed, domain.BookingPending} {
		bookings, err := a.bookings.ByRenter(ctx, user.ID, status)
		if err != nil {
			return respond(c, err)
		}
		for _, b := range bookings {
			rows = append(rows, markup.Row(markup.Data(
				fmt.Sprintf("#%d — %s (%s)", b.ID, b.Period(), b.Status),
				cbContractGen, strconv.FormatInt(b.ID, 10))))
		}
	}
	if len(rows) == 0 {
		return tghelpers.SendText(c, "No bookings to prepare an agreement for. /rent to make one.")
	}
	markup.Inline(rows...)
	return c.Send("Which booking needs an agreement?", markup)
}

// handleContractGenCallback renders the agreement, sends the document, and
// offers the sign button.
func (a *App) handleContractGenCallback(c tele.Context) error {
	bookingID, err := payloadInt64(c)
	if err != nil {
		return a.unknownCallback(c)
	}

	ctx := tghelpers.BuildContext(c)
	contract, err := a.contracts.Generate(ctx, bookingID)
	if err != nil {
		return respond(c, err)
	}

	doc := &tele.Document{
		File:     tele.FromDisk(contract.DocumentPath),
		FileName: fmt.Sprintf("rental_agreement_%d.html", bookingID),
		Caption:  fmt.Sprintf("Rental agreement for booking #%d", bookingID),
	}
	if err := c.Send(doc); err != nil {
		return err
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data(
		"✍️ Sign", cbContractSign, strconv.FormatInt(contract.ID, 10))))
	return c.Send("Read the agreement and sign it when ready.", markup)
}

func (a *App) handleContractSignCallback(c tele.Context) error {
	contractID, err := payloadInt64(c)
	if err != nil {
		return a.unknownCallback(c)
	}

	userID := c.Sender().ID
	a.fsm.SetTemp(userID, tempContractID, contractID)
	a.fsm.SetState(userID, StateContractSignature)
	return tghelpers.SendText(c, "Type your full name as the signature.")
}

func (a *App) handleContractSignature(c tele.Context) error {
	userID := c.Sender().ID
	contractID, ok := a.fsm.GetTempInt64(userID, tempContractID)
	if !ok {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /contract again.")
	}

	ctx := tghelpers.BuildContext(c)
	if err := a.contracts.Sign(ctx, contractID, c.Text()); err != nil {
		return respond(c, err) // empty signature keeps the state for a retry
	}

	a.fsm.Clear(userID)
	return tghelpers.SendText(c, "Signed. The agreement is now in force. /annul to revoke it.")
}

// handleAnnul lists the renter's signed agreements for annulment.
func (a *App) handleAnnul(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user, err := a.users.GetUserByTelegramID(ctx, c.Sender().ID)
	if err != nil {
		return respond(c, err)
	}
	if user == nil {
		return tghelpers.SendText(c, "You are not registered yet — /register first.")
	}

	contracts, err := a.contracts.SignedByRenter(ctx, user.ID)
	if err != nil {
		return respond(c, err)
	}
	if len(contracts) == 0 {
		return tghelpers.SendText(c, "You have no signed agreements.")
	}

	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, ct := range contracts {
		rows = append(rows, markup.Row(markup.Data(
			fmt.Sprintf("Agreement for booking #%d", ct.BookingID),
			cbContractAnnul, strconv.FormatInt(ct.ID, 10))))
	}
	markup.Inline(rows...)
	return c.Send("Which agreement do you want to annul?", markup)
}

func (a *App) handleContractAnnulCallback(c tele.Context) error {
	contractID, err := payloadInt64(c)
	if err != nil {
		return a.unknownCallback(c)
	}
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data(
		"Yes, annul it", cbContractAnnulYes, strconv.FormatInt(contractID, 10))))
	return c.Send("Annul the signed agreement? This deletes the document.", markup)
}

func (a *App) handleContractAnnulYesCallback(c tele.Context) error {
	contractID, err := payloadInt64(c)
	if err != nil {
		return a.unknownCallback(c)
	}
	ctx := tghelpers.BuildContext(c)
	if err := a.contracts.Annul(ctx, contractID); err != nil {
		return respond(c, err)
	}
	return tghelpers.SendText(c, "The agreement is annulled.")
}
