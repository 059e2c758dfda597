package telegram

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	"log/slog"

	"github.com/povilas1565/CarRentalBot/core/logger"
	coretelegram "github.com/povilas1565/CarRentalBot/core/telegram"
	"github.com/povilas1565/CarRentalBot/core/telegram/commands"
	"github.com/povilas1565/CarRentalBot/core/telegram/router"
	"github.com/povilas1565/CarRentalBot/core/telegram/state"
	"github.com/povilas1565/CarRentalBot/core/telegram/ui"
	"github.com/povilas1565/CarRentalBot/internal/config"
	"github.com/povilas1565/CarRentalBot/internal/service"
	"github.com/povilas1565/CarRentalBot/internal/webhook"
)

// App aggregates the bot's services and dialog state and knows how to
// assemble the Telegram runtime.
type App struct {
	cfg *config.Config
	fsm state.Manager

	users     *service.Users
	cars      *service.Cars
	bookings  *service.Bookings
	payments  *service.Payments
	contracts *service.Contracts
	reviews   *service.Reviews

	webhookServer *webhook.Server
}

// Deps carries the constructed services into the app.
type Deps struct {
	Users     *service.Users
	Cars      *service.Cars
	Bookings  *service.Bookings
	Payments  *service.Payments
	Contracts *service.Contracts
	Reviews   *service.Reviews

	WebhookServer *webhook.Server
}

// NewApp builds the bot application over its services.
func NewApp(cfg *config.Config, deps Deps) *App {
	ttl := state.DefaultSessionTTL
	if cfg.Session.TTLMinutes > 0 {
		ttl = time.Duration(cfg.Session.TTLMinutes) * time.Minute
	}
	return &App{
		cfg:           cfg,
		fsm:           state.NewMemoryManagerTTL(ttl),
		users:         deps.Users,
		cars:          deps.Cars,
		bookings:      deps.Bookings,
		payments:      deps.Payments,
		contracts:     deps.Contracts,
		reviews:       deps.Reviews,
		webhookServer: deps.WebhookServer,
	}
}

// UnknownText implements ui.FallbackProvider.
func (a *App) UnknownText() tele.HandlerFunc { return a.unknownText }

// UnknownDocument implements ui.FallbackProvider.
func (a *App) UnknownDocument() tele.HandlerFunc { return a.unknownDocument }

// UnknownCallback implements ui.FallbackProvider.
func (a *App) UnknownCallback() tele.HandlerFunc { return a.unknownCallback }

var _ ui.FallbackProvider = (*App)(nil)

// TelegramRunOptions wires commands, callbacks, FSM steps, and the webhook
// server lifecycle into the bot runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	a.registerCallbacks(reg)
	a.registerStates()

	reg.SetTextFallback(a.UnknownText())
	reg.SetCallbackNotFound(a.UnknownCallback())

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.CoreConfig().Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		NotFound: a.UnknownCallback(),
	}))
	routes = append(routes, router.TextRoutes(a.fsm, reg, router.TextOptions{
		UnknownText:     a.UnknownText(),
		UnknownDocument: a.UnknownDocument(),
	})...)
	// Photos feed the FSM too: the add-car dialog has a photo step.
	routes = append(routes, coretelegram.Route{
		Endpoint: tele.OnPhoto,
		Handler: func(c tele.Context) error {
			if a.fsm.InProgress(c.Sender().ID) {
				return a.fsm.ManagerHandler(c)
			}
			return nil
		},
	})

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{Handler: a.handleStart, Description: "Start and main menu"})
	reg.RegisterCommand("/help", commands.Command{Handler: a.handleHelp, Description: "What the bot can do"})
	reg.RegisterCommand("/menu", commands.Command{Handler: a.handleMenu, Description: "Main menu keyboard"})
	reg.RegisterCommand("/register", commands.Command{Handler: a.handleRegister, Description: "Create or update your profile"})
	reg.RegisterCommand("/rent", commands.Command{Handler: a.handleRent, Description: "Book a car"})
	reg.RegisterCommand("/mybookings", commands.Command{Handler: a.handleMyBookings, Description: "Your bookings"})
	reg.RegisterCommand("/pay", commands.Command{Handler: a.handlePay, Description: "Pay for a booking"})
	reg.RegisterCommand("/contract", commands.Command{Handler: a.handleContract, Description: "Rental agreement"})
	reg.RegisterCommand("/annul", commands.Command{Handler: a.handleAnnul, Description: "Annul a signed agreement"})
	reg.RegisterCommand("/review", commands.Command{Handler: a.handleReview, Description: "Rate a rented car"})
	reg.RegisterCommand("/addcar", commands.Command{Handler: a.handleAddCar, Description: "List a car for rent"})
	reg.RegisterCommand("/mycars", commands.Command{Handler: a.handleMyCars, Description: "Manage your cars"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: a.handleCancel, Description: "Abort the current dialog"})
	reg.RegisterCommand("/stats", commands.Command{Handler: a.handleStats, Description: "Service overview", AdminOnly: true, Hidden: true})
}

func (a *App) registerCallbacks(reg *coretelegram.Registry) {
	wire := map[string]tele.HandlerFunc{
		cbRegType:          a.handleRegTypeCallback,
		cbBookCity:         a.handleBookCityCallback,
		cbBookCar:          a.handleBookCarCallback,
		cbBookConfirm:      a.handleBookConfirmCallback,
		cbBookAbort:        a.handleBookAbortCallback,
		cbCancelBooking:    a.handleCancelBookingCallback,
		cbCarEdit:          a.handleCarEditCallback,
		cbCarField:         a.handleCarFieldCallback,
		cbCarDelete:        a.handleCarDeleteCallback,
		cbCarDeleteYes:     a.handleCarDeleteYesCallback,
		cbPayBooking:       a.handlePayBookingCallback,
		cbPayMethod:        a.handlePayMethodCallback,
		cbContractGen:      a.handleContractGenCallback,
		cbContractSign:     a.handleContractSignCallback,
		cbContractAnnul:    a.handleContractAnnulCallback,
		cbContractAnnulYes: a.handleContractAnnulYesCallback,
		cbReviewCar:        a.handleReviewCarCallback,
	}
	for key, handler := range wire {
		_ = reg.RegisterCallback(key, handler)
	}
}

func (a *App) registerStates() {
	wire := map[state.State]tele.HandlerFunc{
		StateRegName:    a.handleRegName,
		StateRegCompany: a.handleRegCompany,
		StateRegINN:     a.handleRegINN,
		StateRegContact: a.handleRegContact,
		StateRegPhone:   a.handleRegPhone,

		StateBookingDateFrom: a.handleBookingDateFrom,
		StateBookingDateTo:   a.handleBookingDateTo,

		StateCarBrand:    a.handleCarBrand,
		StateCarModel:    a.handleCarModel,
		StateCarYear:     a.handleCarYear,
		StateCarPlate:    a.handleCarPlate,
		StateCarVIN:      a.handleCarVIN,
		StateCarPrice:    a.handleCarPrice,
		StateCarDiscount: a.handleCarDiscount,
		StateCarCity:     a.handleCarCity,
		StateCarPhoto:    a.handleCarPhoto,
		StateCarTerms:    a.handleCarTerms,
		StateCarEdit:     a.handleCarEditValue,

		StateContractSignature: a.handleContractSignature,

		StateReviewRating:  a.handleReviewRating,
		StateReviewComment: a.handleReviewComment,
	}
	for st, handler := range wire {
		state.RegisterHandler(st, handler)
	}
}

// onStart launches the payment webhook server alongside the bot.
func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	if a.webhookServer == nil {
		return nil
	}
	go func() {
		if err := a.webhookServer.Start(); err != nil {
			logger.WEB.Error("webhook server failed",
				slog.String("event", "startup"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

func (a *App) onStop(ctx context.Context, rt coretelegram.Runtime) error {
	if a.webhookServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.webhookServer.Shutdown(shutdownCtx)
}
