package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/povilas1565/CarRentalBot/core/telegram/helpers"
	"github.com/povilas1565/CarRentalBot/core/telegram/state"
	"github.com/povilas1565/CarRentalBot/internal/domain"
	"github.com/povilas1565/CarRentalBot/internal/service"
)

const skipWord = "skip"

// handleAddCar opens the add-car dialog. Only registered owners may list cars.
func (a *App) handleAddCar(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user, err := a.users.GetUserByTelegramID(ctx, c.Sender().ID)
	if err != nil {
		return respond(c, err)
	}
	if user == nil {
		return tghelpers.SendText(c, "You are not registered yet — /register first.")
	}
	if !user.IsOwner() {
		return tghelpers.SendText(c, "Only owners can list cars. Re-run /register to change your profile.")
	}

	a.fsm.SetTemp(c.Sender().ID, tempCarDraft, &CarDraft{})
	a.fsm.SetState(c.Sender().ID, StateCarBrand)
	return tghelpers.SendText(c, "Car brand?")
}

func (a *App) carDraft(userID int64) *CarDraft {
	if v, ok := a.fsm.GetTemp(userID, tempCarDraft); ok {
		if d, ok := v.(*CarDraft); ok {
			return d
		}
	}
	return nil
}

// carAnswer records one add-car answer and asks the next question.
// Optional questions accept the skip word.
func (a *App) carAnswer(c tele.Context, optional bool, set func(*CarDraft, string), next state.State, prompt string) error {
	userID := c.Sender().ID
	draft := a.carDraft(userID)
	if draft == nil {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /addcar again.")
	}

	text := strings.TrimSpace(c.Text())
	if optional && strings.EqualFold(text, skipWord) {
		text = ""
	} else if text == "" {
		return tghelpers.SendText(c, "Please answer the question.")
	}
	set(draft, text)

	a.fsm.SetState(userID, next)
	return tghelpers.SendText(c, prompt)
}

func (a *App) handleCarBrand(c tele.Context) error {
	return a.carAnswer(c, false, func(d *CarDraft, v string) { d.Brand = v },
		StateCarModel, "Model?")
}

func (a *App) handleCarModel(c tele.Context) error {
	return a.carAnswer(c, false, func(d *CarDraft, v string) { d.Model = v },
		StateCarYear, "Year of manufacture?")
}

func (a *App) handleCarYear(c tele.Context) error {
	return a.carAnswer(c, false, func(d *CarDraft, v string) { d.Year = v },
		StateCarPlate, "License plate? (or \""+skipWord+"\")")
}

func (a *App) handleCarPlate(c tele.Context) error {
	return a.carAnswer(c, true, func(d *CarDraft, v string) { d.LicensePlate = v },
		StateCarVIN, "VIN? (or \""+skipWord+"\")")
}

func (a *App) handleCarVIN(c tele.Context) error {
	return a.carAnswer(c, true, func(d *CarDraft, v string) { d.VIN = v },
		StateCarPrice, "Price per day, EUR?")
}

func (a *App) handleCarPrice(c tele.Context) error {
	return a.carAnswer(c, false, func(d *CarDraft, v string) { d.PricePerDay = v },
		StateCarDiscount, "Discount, %? (0 or \""+skipWord+"\" for none)")
}

func (a *App) handleCarDiscount(c tele.Context) error {
	return a.carAnswer(c, true, func(d *CarDraft, v string) { d.Discount = v },
		StateCarCity, "City where the car is offered?")
}

func (a *App) handleCarCity(c tele.Context) error {
	return a.carAnswer(c, false, func(d *CarDraft, v string) { d.City = v },
		StateCarPhoto, "Send a photo of the car (or \""+skipWord+"\").")
}

// handleCarPhoto accepts either a photo or the skip word.
func (a *App) handleCarPhoto(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.carDraft(userID)
	if draft == nil {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /addcar again.")
	}

	if photo := c.Message().Photo; photo != nil {
		draft.PhotoFileID = photo.FileID
	} else if !strings.EqualFold(strings.TrimSpace(c.Text()), skipWord) {
		return tghelpers.SendText(c, "Send a photo or type \""+skipWord+"\".")
	}

	a.fsm.SetState(userID, StateCarTerms)
	return tghelpers.SendText(c, "Rental terms for the renter? (or \""+skipWord+"\")")
}

func (a *App) handleCarTerms(c tele.Context) error {
	userID := c.Sender().ID
	draft := a.carDraft(userID)
	if draft == nil {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /addcar again.")
	}
	if text := strings.TrimSpace(c.Text()); !strings.EqualFold(text, skipWord) {
		draft.RentalTerms = text
	}
	return a.finishAddCar(c, draft)
}

func (a *App) finishAddCar(c tele.Context, draft *CarDraft) error {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	user, err := a.users.GetUserByTelegramID(ctx, userID)
	if err != nil || user == nil {
		a.fsm.Clear(userID)
		return respond(c, err)
	}

	car, err := a.cars.Add(ctx, service.CarInput{
		OwnerID:      user.ID,
		Brand:        draft.Brand,
		Model:        draft.Model,
		Year:         draft.Year,
		LicensePlate: draft.LicensePlate,
		VIN:          draft.VIN,
		PricePerDay:  draft.PricePerDay,
		Discount:     draft.Discount,
		City:         draft.City,
		PhotoFileID:  draft.PhotoFileID,
		RentalTerms:  draft.RentalTerms,
	})
	if err != nil {
		return respond(c, err) // validation keeps the dialog state for a retry
	}

	a.fsm.Clear(userID)
	return tghelpers.SendText(c, fmt.Sprintf(
		"%s is now listed in %s at %.2f EUR/day. /mycars to manage it.",
		car.Label(), car.City, car.PricePerDay))
}

// handleMyCars lists the owner's fleet with edit/delete buttons.
func (a *App) handleMyCars(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user, err := a.users.GetUserByTelegramID(ctx, c.Sender().ID)
	if err != nil {
		return respond(c, err)
	}
	if user == nil || !user.IsOwner() {
		return tghelpers.SendText(c, "Only registered owners have cars here. /register first.")
	}

	cars, err := a.cars.ByOwner(ctx, user.ID)
	if err != nil {
		return respond(c, err)
	}
	if len(cars) == 0 {
		return tghelpers.SendText(c, "You have no cars listed. /addcar to add one.")
	}

	var lines []string
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, car := range cars {
		status := "available"
		if !car.Available {
			status = "rented"
		}
		line := fmt.Sprintf("#%d %s, %s — %.2f EUR/day (%s)",
			car.ID, car.Label(), car.City, car.PricePerDay, status)
		if car.Rating.Valid {
			line += fmt.Sprintf(" ★%.1f", car.Rating.Float64)
		}
		lines = append(lines, line)
		id := strconv.FormatInt(car.ID, 10)
		rows = append(rows, markup.Row(
			markup.Data(fmt.Sprintf("✏️ Edit #%d", car.ID), cbCarEdit, id),
			markup.Data(fmt.Sprintf("🗑 Delete #%d", car.ID), cbCarDelete, id),
		))
	}
	markup.Inline(rows...)
	return c.Send("Your cars:\n"+strings.Join(lines, "\n"), markup)
}

var editableFields = []struct {
	Field domain.CarField
	Label string
}{
	{domain.CarFieldBrand, "Brand"},
	{domain.CarFieldModel, "Model"},
	{domain.CarFieldYear, "Year"},
	{domain.CarFieldPrice, "Price per day"},
	{domain.CarFieldDiscount, "Discount"},
	{domain.CarFieldCity, "City"},
	{domain.CarFieldRentalTerms, "Rental terms"},
}

func (a *App) handleCarEditCallback(c tele.Context) error {
	carID, err := payloadInt64(c)
	if err != nil {
		return a.unknownCallback(c)
	}

	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, f := range editableFields {
		rows = append(rows, markup.Row(markup.Data(
			f.Label, cbCarField, fmt.Sprintf("%d|%s", carID, f.Field))))
	}
	markup.Inline(rows...)
	return c.Send("What do you want to change?", markup)
}

func (a *App) handleCarFieldCallback(c tele.Context) error {
	parts, err := payloadParts(c)
	if err != nil || len(parts) != 2 {
		return a.unknownCallback(c)
	}
	carID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return a.unknownCallback(c)
	}
	field, ok := domain.ParseCarField(parts[1])
	if !ok {
		return a.unknownCallback(c)
	}

	userID := c.Sender().ID
	a.fsm.SetTemp(userID, tempCarEdit, &CarEditDraft{CarID: carID, Field: string(field)})
	a.fsm.SetState(userID, StateCarEdit)
	return tghelpers.SendText(c, "New value?")
}

func (a *App) handleCarEditValue(c tele.Context) error {
	userID := c.Sender().ID
	v, ok := a.fsm.GetTemp(userID, tempCarEdit)
	edit, _ := v.(*CarEditDraft)
	if !ok || edit == nil {
		a.fsm.Clear(userID)
		return tghelpers.SendText(c, "The dialog expired, run /mycars again.")
	}

	ctx := tghelpers.BuildContext(c)
	user, err := a.users.GetUserByTelegramID(ctx, userID)
	if err != nil || user == nil {
		a.fsm.Clear(userID)
		return respond(c, err)
	}

	field, _ := domain.ParseCarField(edit.Field)
	if err := a.cars.Edit(ctx, edit.CarID, user.ID, field, c.Text()); err != nil {
		return respond(c, err) // validation keeps the state for a retry
	}

	a.fsm.Clear(userID)
	return tghelpers.SendText(c, "Updated.")
}

func (a *App) handleCarDeleteCallback(c tele.Context) error {
	carID, err := payloadInt64(c)
	if err != nil {
		return a.unknownCallback(c)
	}
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("Yes, delete", cbCarDeleteYes, strconv.FormatInt(carID, 10)),
	))
	return c.Send(fmt.Sprintf("Delete car #%d? This cannot be undone.", carID), markup)
}

func (a *App) handleCarDeleteYesCallback(c tele.Context) error {
	carID, err := payloadInt64(c)
	if err != nil {
		return a.unknownCallback(c)
	}

	ctx := tghelpers.BuildContext(c)
	user, err := a.users.GetUserByTelegramID(ctx, c.Sender().ID)
	if err != nil || user == nil {
		return respond(c, err)
	}
	if err := a.cars.Delete(ctx, carID, user.ID); err != nil {
		return respond(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("Car #%d deleted.", carID))
}
