package reconciler

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/contasync/billing/internal/models"
	"github.com/contasync/billing/pkg/logctx"
	"github.com/contasync/billing/pkg/tool"
	"github.com/contasync/billing/pkg/types"
)

const (
	checkoutFlowPublic        = "public"
	checkoutFlowAuthenticated = "authenticated"
)

// handleCheckoutCompleted provisions billing state from a completed checkout
// session. Malformed sessions (missing metadata) are logged and acknowledged
// so the provider does not retry forever; the subscription lifecycle events
// converge the state later.
func (s *Service) handleCheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	log := logctx.FromCtx(ctx, s.log)

	if sess.Subscription == nil || sess.Subscription.ID == "" {
		log.Errorw("webhook: checkout session without subscription", "session_id", sess.ID)
		return nil
	}
	subID := sess.Subscription.ID

	var existing models.Subscription
	err := s.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", subID).
		First(&existing).Error
	if err == nil {
		log.Debugw("webhook: checkout already provisioned", "subscription_id", subID)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check existing subscription: %w", err)
	}

	switch sess.Metadata["flow"] {
	case checkoutFlowPublic:
		return s.provisionPublicCheckout(ctx, sess, subID)
	case checkoutFlowAuthenticated:
		return s.provisionAuthenticatedCheckout(ctx, sess, subID)
	default:
		log.Errorw("webhook: checkout session with unknown flow",
			"session_id", sess.ID, "flow", sess.Metadata["flow"])
		return nil
	}
}

// provisionPublicCheckout creates the tenant and its subscription mirror in
// one transaction: a signup must never leave an accountant without a
// subscription or the other way round.
func (s *Service) provisionPublicCheckout(ctx context.Context, sess *stripe.CheckoutSession, subID string) error {
	log := logctx.FromCtx(ctx, s.log)

	email := sess.Metadata["email"]
	passwordHash := sess.Metadata["password_hash"]
	taxID := sess.Metadata["tax_id"]
	planID := sess.Metadata["plan_id"]
	if email == "" || passwordHash == "" || planID == "" {
		log.Errorw("webhook: public checkout missing metadata",
			"session_id", sess.ID, "has_email", email != "", "has_password", passwordHash != "", "has_plan", planID != "")
		return nil
	}
	if s.cfg.GetPlanByID(planID) == nil {
		log.Errorw("webhook: public checkout references unknown plan", "session_id", sess.ID, "plan_id", planID)
		return nil
	}

	full, err := s.fetcher.GetSubscription(ctx, subID)
	if err != nil {
		return fmt.Errorf("fetch subscription %s: %w", subID, err)
	}

	var customerID *string
	if sess.Customer != nil && sess.Customer.ID != "" {
		customerID = &sess.Customer.ID
	}
	status := types.TenantStatusFromProvider(string(full.Status))

	var acct models.Accountant
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A retried delivery may have created the tenant already.
		err := tx.Where("email = ?", email).First(&acct).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load accountant by email: %w", err)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			acct = models.Accountant{
				ID:               tool.GenerateUUIDV7(),
				Email:            email,
				PasswordHash:     passwordHash,
				TaxID:            taxID,
				Status:           status,
				PlanID:           planID,
				StripeCustomerID: customerID,
			}
			if err := tx.Create(&acct).Error; err != nil {
				return fmt.Errorf("create accountant: %w", err)
			}
		} else {
			updates := map[string]any{"status": status, "plan_id": planID}
			if customerID != nil {
				updates["stripe_customer_id"] = *customerID
			}
			if err := tx.Model(&acct).Updates(updates).Error; err != nil {
				return fmt.Errorf("update accountant: %w", err)
			}
		}

		_, err = s.upsertSubscriptionTx(ctx, tx, full, acct.ID)
		return err
	})
	if err != nil {
		return err
	}

	log.Infow("webhook: public checkout provisioned",
		"session_id", sess.ID, "accountant_id", acct.ID, "subscription_id", subID, "plan_id", planID)
	return nil
}

func (s *Service) provisionAuthenticatedCheckout(ctx context.Context, sess *stripe.CheckoutSession, subID string) error {
	log := logctx.FromCtx(ctx, s.log)

	accountantID := sess.Metadata["accountant_id"]
	if accountantID == "" {
		log.Errorw("webhook: authenticated checkout missing accountant_id", "session_id", sess.ID)
		return nil
	}

	full, err := s.fetcher.GetSubscription(ctx, subID)
	if err != nil {
		return fmt.Errorf("fetch subscription %s: %w", subID, err)
	}
	status := types.TenantStatusFromProvider(string(full.Status))
	planID := s.planIDForSubscription(full)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.upsertSubscriptionTx(ctx, tx, full, accountantID); err != nil {
			return err
		}
		_, err := s.propagateTenantStatus(ctx, tx, accountantID, status, planID)
		return err
	})
	if err != nil {
		return err
	}

	log.Infow("webhook: authenticated checkout provisioned",
		"session_id", sess.ID, "accountant_id", accountantID, "subscription_id", subID)
	return nil
}
