// Package telegram wires the rental dialogs onto the bot framework: command
// registry, callback handlers, and the FSM steps of each conversation.
package telegram

import (
	"time"

	"github.com/povilas1565/CarRentalBot/core/telegram/state"
)

// Dialog states. Text messages are dispatched to the handler registered for
// the sender's current state; callbacks carry their own routing keys.
const (
	// Registration.
	StateRegName    state.State = "reg_name"
	StateRegCompany state.State = "reg_company"
	StateRegINN     state.State = "reg_inn"
	StateRegContact state.State = "reg_contact"
	StateRegPhone   state.State = "reg_phone"

	// Booking.
	StateBookingDateFrom state.State = "booking_date_from"
	StateBookingDateTo   state.State = "booking_date_to"

	// Car management.
	StateCarBrand    state.State = "car_brand"
	StateCarModel    state.State = "car_model"
	StateCarYear     state.State = "car_year"
	StateCarPlate    state.State = "car_plate"
	StateCarVIN      state.State = "car_vin"
	StateCarPrice    state.State = "car_price"
	StateCarDiscount state.State = "car_discount"
	StateCarCity     state.State = "car_city"
	StateCarPhoto    state.State = "car_photo"
	StateCarTerms    state.State = "car_terms"
	StateCarEdit     state.State = "car_edit_value"

	// Contracts.
	StateContractSignature state.State = "contract_signature"

	// Reviews.
	StateReviewRating  state.State = "review_rating"
	StateReviewComment state.State = "review_comment"
)

// Session temp-data keys.
const (
	tempBookingDraft = "booking_draft"
	tempCarDraft     = "car_draft"
	tempCarEdit      = "car_edit"
	tempRegDraft     = "reg_draft"
	tempContractID   = "contract_id"
	tempReviewDraft  = "review_draft"
)

// BookingDraft accumulates the booking dialog answers. The values are only
// hints for the conversation; confirmation re-reads everything from the
// database before money is involved.
type BookingDraft struct {
	City       string
	CarID      int64
	CarLabel   string
	DateFrom   time.Time
	DateTo     time.Time
	TotalPrice float64

	// ResumeBooking is set when the registration gate interrupted the dialog;
	// finishing registration continues with the date questions.
	ResumeBooking bool
}

// CarDraft accumulates the add-car dialog answers.
type CarDraft struct {
	Brand        string
	Model        string
	Year         string
	LicensePlate string
	VIN          string
	PricePerDay  string
	Discount     string
	City         string
	PhotoFileID  string
	RentalTerms  string
}

// CarEditDraft tracks which car attribute is being edited.
type CarEditDraft struct {
	CarID int64
	Field string
}

// RegDraft accumulates the registration dialog answers.
type RegDraft struct {
	UserType    string
	Name        string
	CompanyName string
	CompanyINN  string
	Contact     string
}

// ReviewDraft accumulates the review dialog answers.
type ReviewDraft struct {
	CarID  int64
	Rating float64
}
