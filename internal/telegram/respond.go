package telegram

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/povilas1565/CarRentalBot/core/telegram/helpers"
	"github.com/povilas1565/CarRentalBot/internal/apperr"
)

// respond turns a service error into a user reply. Expected errors (bad
// input, missing rows, state conflicts) are answered in chat and swallowed,
// so the router logs them as handled. Internal failures get a generic reply
// and propagate for the error summary.
func respond(c tele.Context, err error) error {
	if err == nil {
		return nil
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindConflict:
		_ = tghelpers.SendText(c, apperr.Message(err))
		return nil
	case apperr.KindExternal:
		_ = tghelpers.SendText(c, apperr.Message(err))
		return err
	default:
		_ = tghelpers.SendText(c, "Something went wrong, please try again later.")
		return err
	}
}
