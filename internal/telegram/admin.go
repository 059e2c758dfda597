package telegram

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/povilas1565/CarRentalBot/core/telegram/helpers"
)

// handleStats answers the admin-only service overview.
func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	st, err := a.bookings.Stats(ctx)
	if err != nil {
		return respond(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf(
		"Service overview:\n"+
			"Cars: %d (%d available)\n"+
			"Bookings: %d pending, %d confirmed\n"+
			"Payments: %d completed, %.2f EUR total",
		st.Cars, st.AvailableCars,
		st.PendingBookings, st.ConfirmedBookings,
		st.CompletedPayments, st.Revenue))
}
