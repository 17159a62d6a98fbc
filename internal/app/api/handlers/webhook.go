package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/contasync/billing/internal/app/api/middleware"
	"github.com/contasync/billing/pkg/logctx"
	"github.com/contasync/billing/pkg/response"
)

type WebhookAck struct {
	Received bool `json:"received"`
}

// StripeEventProcessor verifies and reconciles provider billing events.
// Implemented by reconciler.Service.
type StripeEventProcessor interface {
	VerifyAndParse(payload []byte, sigHeader string) (stripe.Event, error)
	Handle(ctx context.Context, event stripe.Event, traceID string) error
}

// ApiStripeWebhook handles provider billing events. The raw body is required
// for signature verification; a signature failure returns 400 so the
// provider retries, while handler-level problems are acknowledged with the
// error recorded in the audit log.
func ApiStripeWebhook(svc StripeEventProcessor, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := c.GetRawData()
		if err != nil {
			logctx.FromGin(c, log).Errorw("webhook_stripe_unreadable_body", "error", err.Error())
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "unreadable body"))
			return
		}

		event, err := svc.VerifyAndParse(payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			logctx.FromGin(c, log).Errorw("webhook_stripe_signature_invalid", "error", err.Error())
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid signature"))
			return
		}

		if err := svc.Handle(c.Request.Context(), event, middleware.TraceIDFrom(c)); err != nil {
			logctx.FromGin(c, log).Errorw("webhook_stripe_handle_error", "event_id", event.ID, "error", err.Error())
			c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeError, &WebhookAck{Received: true}))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&WebhookAck{Received: true}))
	}
}

func RegisterWebhookRoutes(r gin.IRouter, svc StripeEventProcessor, log *zap.SugaredLogger) {
	r.POST("/stripe", ApiStripeWebhook(svc, log))
}
