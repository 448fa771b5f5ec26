package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/fatflowers/masterclass/pkg/logctx"
)

// maxWebhookBody bounds webhook payloads; gateway events are a few KB.
const maxWebhookBody = 1 << 20

const (
	StripeSignatureHeader = "Stripe-Signature"

	msgStripeSucceeded      = "succeeded"
	msgStripeBadSignature   = "Webhook signature verification failed."
	msgStripeRejected       = "Error processing webhook."
	msgStripeRetry          = "Webhook processing failed, retry later."
	msgClerkProcessed       = "Webhook processed successfully!"
	msgClerkMissingHeaders  = "Error occurred -- no svix headers"
	msgClerkNotVerified     = "Error occurred -- svix not verified!"
	msgClerkProcessingError = "Error creating user!"
)

func readWebhookBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
}

// @Summary      Stripe webhook
// @Description  Receives payment gateway events. The raw body is verified against the Stripe-Signature header.
// @Tags         Webhook
// @Accept       json
// @Produce      plain
// @Param        Stripe-Signature  header  string  true  "Gateway signature"
// @Success      200  {string}  string  "succeeded"
// @Failure      400  {string}  string
// @Failure      500  {string}  string
// @Router       /api/webhooks/stripe [post]
func ApiStripeWebhook(h PaymentEventHandler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lg := logctx.FromGin(c, log)
		payload, err := readWebhookBody(c)
		if err != nil {
			lg.Warnw("webhook_stripe_body_unreadable", "error", err)
			c.String(http.StatusBadRequest, msgStripeRejected)
			return
		}

		out, err := h.HandleEvent(c.Request.Context(), payload, c.GetHeader(StripeSignatureHeader))
		switch {
		case err == nil:
			lg.Infow("webhook_stripe_handled", "event_id", out.EventID, "event_type", out.EventType, "ignored", out.Ignored)
			c.String(http.StatusOK, msgStripeSucceeded)
		case errors.Is(err, apperr.ErrSignatureInvalid):
			c.String(http.StatusBadRequest, msgStripeBadSignature)
		case errors.Is(err, apperr.ErrIntegrity):
			lg.Warnw("webhook_stripe_rejected", "error", err)
			c.String(http.StatusBadRequest, msgStripeRejected)
		default:
			lg.Errorw("webhook_stripe_handle_error", "error", err)
			c.String(http.StatusInternalServerError, msgStripeRetry)
		}
	}
}

// @Summary      Clerk webhook
// @Description  Receives identity provider events signed with svix headers.
// @Tags         Webhook
// @Accept       json
// @Produce      plain
// @Param        svix-id         header  string  true  "Message id"
// @Param        svix-timestamp  header  string  true  "Delivery timestamp"
// @Param        svix-signature  header  string  true  "Signature"
// @Success      200  {string}  string  "Webhook processed successfully!"
// @Failure      400  {string}  string
// @Failure      500  {string}  string
// @Router       /api/webhooks/clerk [post]
func ApiClerkWebhook(h IdentityEventHandler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lg := logctx.FromGin(c, log)
		payload, err := readWebhookBody(c)
		if err != nil {
			lg.Warnw("webhook_clerk_body_unreadable", "error", err)
			c.String(http.StatusBadRequest, msgClerkNotVerified)
			return
		}

		err = h.HandleEvent(c.Request.Context(), payload, c.Request.Header)
		switch {
		case err == nil:
			c.String(http.StatusOK, msgClerkProcessed)
		case errors.Is(err, apperr.ErrMissingHeaders):
			c.String(http.StatusBadRequest, msgClerkMissingHeaders)
		case errors.Is(err, apperr.ErrSignatureInvalid):
			c.String(http.StatusBadRequest, msgClerkNotVerified)
		default:
			lg.Errorw("webhook_clerk_handle_error", "error", err)
			c.String(http.StatusInternalServerError, msgClerkProcessingError)
		}
	}
}

func RegisterWebhookRoutes(r gin.IRouter, payments PaymentEventHandler, identity IdentityEventHandler, log *zap.SugaredLogger) {
	r.POST("/stripe", ApiStripeWebhook(payments, log))
	r.POST("/clerk", ApiClerkWebhook(identity, log))
}
