// Package webhook runs the HTTP server that receives payment provider
// callbacks and serves the post-payment landing pages. It is the only write
// path for terminal payment statuses.
package webhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/povilas1565/CarRentalBot/core/logger"
	"github.com/povilas1565/CarRentalBot/internal/payments"
	"github.com/povilas1565/CarRentalBot/internal/service"
)

// Server wires the webhook routes over the payment service.
type Server struct {
	payments  *service.Payments
	freekassa *payments.Freekassa
	stripe    *payments.Stripe

	httpServer *http.Server
}

// NewServer builds the server listening on addr. Providers may be nil when a
// method is not configured; their routes then answer 404.
func NewServer(addr string, paySvc *service.Payments, fk *payments.Freekassa, st *payments.Stripe) *Server {
	s := &Server{payments: paySvc, freekassa: fk, stripe: st}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestID(), requestLog(), gin.Recovery())

	router.POST("/webhooks/freekassa", s.handleFreekassa)
	router.POST("/webhooks/stripe", s.handleStripe)
	router.GET("/payments/success", s.handleSuccess)
	router.GET("/payments/fail", s.handleFail)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start serves until Shutdown; it returns once the listener closes.
func (s *Server) Start() error {
	logger.WEB.Info("webhook server starting",
		slog.String("event", "startup"),
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.WEB.Info("webhook server stopping", slog.String("event", "shutdown"))
	return s.httpServer.Shutdown(ctx)
}
