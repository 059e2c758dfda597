package telegram

import (
	tele "gopkg.in/telebot.v4"

	"github.com/povilas1565/CarRentalBot/core/telegram/callbacks"
)

// Callback keys. Buttons are built as markup.Data(text, key, payload) and
// dispatched by key through the registry.
const (
	cbRegType = "reg_type"

	cbBookCity    = "book_city"
	cbBookCar     = "book_car"
	cbBookConfirm = "book_confirm"
	cbBookAbort   = "book_abort"

	cbCancelBooking = "cancel_booking"

	cbCarEdit      = "car_edit"
	cbCarField     = "car_field"
	cbCarDelete    = "car_delete"
	cbCarDeleteYes = "car_delete_yes"

	cbPayBooking = "pay_booking"
	cbPayMethod  = "pay_method"

	cbContractGen      = "contract_gen"
	cbContractSign     = "contract_sign"
	cbContractAnnul    = "contract_annul"
	cbContractAnnulYes = "contract_annul_yes"

	cbReviewCar = "review_car"
)

func payloadInt64(c tele.Context) (int64, error) {
	return callbacks.PayloadInt64(c)
}

func payloadString(c tele.Context) string {
	return callbacks.CallbackPayload(c)
}

func payloadParts(c tele.Context) ([]string, error) {
	return callbacks.PayloadParts(c, "|")
}
