package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/contasync/billing/internal/models"
	cfgpkg "github.com/contasync/billing/pkg/config"
	"github.com/contasync/billing/pkg/logctx"
)

// Mailer notifies tenants about billing state changes. Implementations must
// never block reconciliation; delivery failures are logged and dropped.
type Mailer interface {
	SendPaymentReceived(ctx context.Context, acct *models.Accountant, inv *models.Invoice)
	SendPaymentFailed(ctx context.Context, acct *models.Accountant, inv *models.Invoice)
	SendSubscriptionCanceled(ctx context.Context, acct *models.Accountant)
}

type Service struct {
	cfg *cfgpkg.Config
	log *zap.SugaredLogger
}

func New(cfg *cfgpkg.Config, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, log: log}
}

var _ Mailer = (*Service)(nil)

const portalLinkTTL = 72 * time.Hour

// BuildPortalLink signs a short-lived HS256 token identifying the accountant
// and appends it to the configured application origin.
func (s *Service) BuildPortalLink(accountantID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": accountantID,
		"exp": time.Now().Add(portalLinkTTL).Unix(),
		"aud": "billing-portal",
	})
	signed, err := token.SignedString([]byte(s.cfg.Billing.LinkSigningSecret))
	if err != nil {
		return "", fmt.Errorf("sign portal link: %w", err)
	}
	return fmt.Sprintf("%s/billing/portal?token=%s", s.cfg.Billing.BaseURL, signed), nil
}

func (s *Service) SendPaymentReceived(ctx context.Context, acct *models.Accountant, inv *models.Invoice) {
	if acct == nil || inv == nil {
		return
	}
	logctx.FromCtx(ctx, s.log).Infow("mail: payment received",
		"to", acct.Email, "invoice_id", inv.StripeInvoiceID, "amount_cents", inv.AmountPaidCents)
}

func (s *Service) SendPaymentFailed(ctx context.Context, acct *models.Accountant, inv *models.Invoice) {
	if acct == nil || inv == nil {
		return
	}
	link, err := s.BuildPortalLink(acct.ID)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("mail: build portal link failed: %v", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("mail: payment failed",
		"to", acct.Email, "invoice_id", inv.StripeInvoiceID, "portal_link", link)
}

func (s *Service) SendSubscriptionCanceled(ctx context.Context, acct *models.Accountant) {
	if acct == nil {
		return
	}
	logctx.FromCtx(ctx, s.log).Infow("mail: subscription canceled", "to", acct.Email)
}
