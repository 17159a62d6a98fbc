package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/contasync/billing/internal/app/service/eventlog"
	"github.com/contasync/billing/internal/app/service/mailer"
	"github.com/contasync/billing/internal/models"
	"github.com/contasync/billing/internal/platform/stripeapi"
	cfgpkg "github.com/contasync/billing/pkg/config"
	"github.com/contasync/billing/pkg/logctx"
)

const providerStripe = "stripe"

type Service struct {
	db       *gorm.DB
	cfg      *cfgpkg.Config
	log      *zap.SugaredLogger
	fetcher  stripeapi.SubscriptionFetcher
	eventLog *eventlog.Service
	mail     mailer.Mailer
}

func New(db *gorm.DB, cfg *cfgpkg.Config, log *zap.SugaredLogger,
	fetcher stripeapi.SubscriptionFetcher, el *eventlog.Service, mail mailer.Mailer) *Service {
	return &Service{db: db, cfg: cfg, log: log, fetcher: fetcher, eventLog: el, mail: mail}
}

// VerifyAndParse checks the provider signature over the raw body and decodes
// the event. The raw body must be byte-identical to what the provider sent.
func (s *Service) VerifyAndParse(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.cfg.Stripe.WebhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("verify webhook signature: %w", err)
	}
	return event, nil
}

// Handle reconciles one verified provider event into local state. Every
// handler is idempotent under at-least-once delivery; a nil return
// acknowledges the event. Audit rows are written around handling.
func (s *Service) Handle(ctx context.Context, event stripe.Event, traceID string) (resErr error) {
	log := logctx.FromCtx(ctx, s.log)

	s.eventLog.Save(ctx, &models.WebhookEventLog{
		Provider:  providerStripe,
		EventID:   event.ID,
		EventType: string(event.Type),
		TraceID:   traceID,
		EventTime: time.Unix(event.Created, 0),
		Data:      datatypes.JSON(event.Data.Raw),
		Status:    models.WebhookEventLogStatusReceived,
	})

	defer func() {
		resMap := map[string]any{}
		if resErr != nil {
			resMap["error"] = resErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)
		status := models.WebhookEventLogStatusHandled
		if resErr != nil {
			status = models.WebhookEventLogStatusHandleFailed
		}
		result := datatypes.JSON(resBytes)
		s.eventLog.SaveAsync(ctx, &models.WebhookEventLog{
			Provider:  providerStripe,
			EventID:   event.ID,
			EventType: string(event.Type),
			TraceID:   traceID,
			EventTime: time.Now(),
			Data:      datatypes.JSON(event.Data.Raw),
			Result:    &result,
			Status:    status,
		})
	}()

	kind, ok := KindOf(string(event.Type))
	if !ok {
		log.Infow("webhook: unhandled event type", "event_id", event.ID, "type", event.Type)
		return nil
	}

	switch kind {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		return s.handleCheckoutCompleted(ctx, &sess)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return s.handleSubscriptionChanged(ctx, &sub)
	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return s.handleSubscriptionDeleted(ctx, &sub)
	case EventInvoicePaid:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		return s.handleInvoicePaid(ctx, &inv)
	case EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		return s.handleInvoicePaymentFailed(ctx, &inv)
	case EventCustomerUpdated:
		var cust stripe.Customer
		if err := json.Unmarshal(event.Data.Raw, &cust); err != nil {
			return fmt.Errorf("decode customer: %w", err)
		}
		return s.handleCustomerUpdated(ctx, &cust)
	case EventPaymentMethodAttached:
		var pm stripe.PaymentMethod
		if err := json.Unmarshal(event.Data.Raw, &pm); err != nil {
			return fmt.Errorf("decode payment method: %w", err)
		}
		log.Infow("webhook: payment method attached", "payment_method_id", pm.ID)
		return nil
	}
	return nil
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0)
	return &t
}
