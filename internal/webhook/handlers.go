package webhook

import (
	"io"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/povilas1565/CarRentalBot/core/logger"
	"github.com/povilas1565/CarRentalBot/internal/apperr"
	"github.com/povilas1565/CarRentalBot/internal/payments"
)

// handleFreekassa accepts the merchant notification form. The provider keeps
// retrying until it reads the literal body "YES", so replays must succeed.
func (s *Server) handleFreekassa(c *gin.Context) {
	if s.freekassa == nil {
		c.String(http.StatusNotFound, "not configured")
		return
	}

	n := payments.Notification{
		MerchantID: c.PostForm("MERCHANT_ID"),
		Amount:     c.PostForm("AMOUNT"),
		OrderID:    c.PostForm("MERCHANT_ORDER_ID"),
		Signature:  c.PostForm("SIGN"),
		IntID:      c.PostForm("intid"),
	}

	if err := s.payments.ReconcileFreekassa(c.Request.Context(), s.freekassa, n); err != nil {
		s.fail(c, "freekassa", err)
		return
	}
	c.String(http.StatusOK, "YES")
}

// handleStripe accepts the signed event JSON. The signature covers the exact
// raw body, so it is read before any decoding.
func (s *Server) handleStripe(c *gin.Context) {
	if s.stripe == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not configured"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	if err := s.payments.ReconcileStripe(c.Request.Context(), s.stripe, sig, body); err != nil {
		s.fail(c, "stripe", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// fail maps the error taxonomy onto HTTP statuses. Only internal and external
// failures answer 5xx; those are the cases a provider retry can fix.
func (s *Server) fail(c *gin.Context, provider string, err error) {
	kind := apperr.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindAuthentication:
		status = http.StatusForbidden
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	}

	logger.WEB.Warn("webhook rejected",
		slog.String("event", "webhook"),
		slog.String("rid", c.GetString(requestIDKey)),
		slog.String("provider", provider),
		slog.String("error_code", string(kind)),
		slog.String("error", err.Error()),
	)
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

const landingPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em">
<h2>%s</h2><p>%s</p></body></html>`

// handleSuccess is the page the provider redirects the renter to after a
// successful checkout. Confirmation itself only happens via the webhook.
func (s *Server) handleSuccess(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, landingPage,
		"Payment received", "Payment received",
		"Return to the Telegram chat — the booking confirmation arrives there.")
}

func (s *Server) handleFail(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, landingPage,
		"Payment failed", "Payment failed",
		"The payment did not go through. You can retry from the Telegram chat.")
}
