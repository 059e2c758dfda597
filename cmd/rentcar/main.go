// Command rentcar runs the car rental Telegram bot together with the payment
// webhook server.
package main

import (
	"log"

	"github.com/povilas1565/CarRentalBot/core/bootstrap"
	"github.com/povilas1565/CarRentalBot/core/cmd"
	"github.com/povilas1565/CarRentalBot/internal/config"
	"github.com/povilas1565/CarRentalBot/internal/contracts"
	"github.com/povilas1565/CarRentalBot/internal/payments"
	"github.com/povilas1565/CarRentalBot/internal/service"
	"github.com/povilas1565/CarRentalBot/internal/storage/postgres"
	"github.com/povilas1565/CarRentalBot/internal/telegram"
	"github.com/povilas1565/CarRentalBot/internal/webhook"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: buildApp,
	})
	if err != nil {
		log.Fatal(err)
	}
}

func buildApp(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg := carrier.(*config.Config)

	infra, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := postgres.New(infra.DB)

	var providers []payments.Provider
	var freekassa *payments.Freekassa
	var stripe *payments.Stripe
	if cfg.Payments.Freekassa.MerchantID != "" {
		freekassa = payments.NewFreekassa(cfg.Payments.Freekassa)
		providers = append(providers, freekassa)
	}
	if cfg.Payments.Stripe.PaymentLinkURL != "" {
		stripe = payments.NewStripe(cfg.Payments.Stripe)
		providers = append(providers, stripe)
	}
	if cfg.Payments.NBS.AccountNumber != "" {
		providers = append(providers, payments.NewNBSQR(cfg.Payments.NBS))
	}

	paySvc := service.NewPayments(store, payments.NewRegistry(providers...))

	app := telegram.NewApp(cfg, telegram.Deps{
		Users:         service.NewUsers(store),
		Cars:          service.NewCars(store),
		Bookings:      service.NewBookings(store),
		Payments:      paySvc,
		Contracts:     service.NewContracts(store, contracts.NewRenderer(cfg.Contracts.Dir)),
		Reviews:       service.NewReviews(store),
		WebhookServer: webhook.NewServer(cfg.Server.Listen, paySvc, freekassa, stripe),
	})
	return app, nil
}
