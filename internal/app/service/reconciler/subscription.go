package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/contasync/billing/internal/models"
	"github.com/contasync/billing/pkg/logctx"
	"github.com/contasync/billing/pkg/tool"
	"github.com/contasync/billing/pkg/types"
)

// planIDForSubscription resolves the local plan from the subscription's
// first item price. Empty when the price is not in the catalog.
func (s *Service) planIDForSubscription(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return ""
	}
	plan := s.cfg.GetPlanByProviderPriceID(sub.Items.Data[0].Price.ID)
	if plan == nil {
		return ""
	}
	return plan.ID
}

func priceIDOf(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return ""
	}
	return sub.Items.Data[0].Price.ID
}

// upsertSubscriptionTx writes the provider subscription into the local
// mirror keyed by the external subscription ID, preserving row identity on
// repeated deliveries.
func (s *Service) upsertSubscriptionTx(ctx context.Context, tx *gorm.DB, sub *stripe.Subscription, accountantID string) (*models.Subscription, error) {
	var original models.Subscription
	err := tx.WithContext(ctx).
		Where("stripe_subscription_id = ?", sub.ID).
		First(&original).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load original subscription: %w", err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) && accountantID != "" {
		// A tenant holds exactly one subscription row. When the provider
		// issues a fresh subscription (cancel then re-subscribe), take over
		// the existing row instead of inserting a second one.
		err = tx.WithContext(ctx).
			Where("accountant_id = ?", accountantID).
			First(&original).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load tenant subscription: %w", err)
		}
	}

	m := &models.Subscription{
		AccountantID:         accountantID,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        priceIDOf(sub),
		PlanID:               s.planIDForSubscription(sub),
		Status:               string(sub.Status),
		CurrentPeriodStart:   unixPtr(sub.CurrentPeriodStart),
		CurrentPeriodEnd:     unixPtr(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		CanceledAt:           unixPtr(sub.CanceledAt),
		TrialEnd:             unixPtr(sub.TrialEnd),
	}
	if original.ID != "" {
		m.ID = original.ID
		m.CreatedAt = original.CreatedAt
		m.Extra = original.Extra
		if m.AccountantID == "" {
			m.AccountantID = original.AccountantID
		}
	} else {
		m.ID = tool.GenerateUUIDV7()
	}

	if err := tx.WithContext(ctx).Save(m).Error; err != nil {
		return nil, fmt.Errorf("upsert subscription %s: %w", sub.ID, err)
	}
	return m, nil
}

// propagateTenantStatus writes the derived summary status (and plan, when
// known) onto the accountant. Returns true when the status changed.
func (s *Service) propagateTenantStatus(ctx context.Context, tx *gorm.DB, accountantID string, status types.TenantStatus, planID string) (bool, error) {
	var acct models.Accountant
	if err := tx.WithContext(ctx).First(&acct, "id = ?", accountantID).Error; err != nil {
		return false, fmt.Errorf("load accountant %s: %w", accountantID, err)
	}
	changed := acct.Status != status
	updates := map[string]any{"status": status}
	if planID != "" {
		updates["plan_id"] = planID
	}
	if err := tx.WithContext(ctx).Model(&acct).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("update accountant %s: %w", accountantID, err)
	}
	return changed, nil
}

// resolveAccountantID locates the owning tenant for a provider subscription:
// event metadata first, then the local mirror row, then the customer link.
func (s *Service) resolveAccountantID(ctx context.Context, sub *stripe.Subscription) (string, error) {
	if id := sub.Metadata["accountant_id"]; id != "" {
		return id, nil
	}

	var local models.Subscription
	err := s.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", sub.ID).
		First(&local).Error
	if err == nil && local.AccountantID != "" {
		return local.AccountantID, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	if sub.Customer != nil && sub.Customer.ID != "" {
		var acct models.Accountant
		err := s.db.WithContext(ctx).
			Where("stripe_customer_id = ?", sub.Customer.ID).
			First(&acct).Error
		if err == nil {
			return acct.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
	}
	return "", nil
}

func (s *Service) handleSubscriptionChanged(ctx context.Context, sub *stripe.Subscription) error {
	log := logctx.FromCtx(ctx, s.log)

	accountantID, err := s.resolveAccountantID(ctx, sub)
	if err != nil {
		return err
	}
	if accountantID == "" {
		// No owner is resolvable yet; the checkout flow will converge later.
		log.Errorw("webhook: subscription event without resolvable tenant", "subscription_id", sub.ID)
		return nil
	}

	status := types.TenantStatusFromProvider(string(sub.Status))
	planID := s.planIDForSubscription(sub)

	var changed bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.upsertSubscriptionTx(ctx, tx, sub, accountantID); err != nil {
			return err
		}
		changed, err = s.propagateTenantStatus(ctx, tx, accountantID, status, planID)
		return err
	})
	if err != nil {
		return err
	}

	log.Infow("webhook: subscription reconciled",
		"subscription_id", sub.ID, "accountant_id", accountantID,
		"provider_status", sub.Status, "tenant_status", status)

	if changed && status == types.TenantStatusCanceled {
		go s.notifyCanceled(ctx, accountantID)
	}
	return nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, sub *stripe.Subscription) error {
	log := logctx.FromCtx(ctx, s.log)

	accountantID, err := s.resolveAccountantID(ctx, sub)
	if err != nil {
		return err
	}
	if accountantID == "" {
		log.Errorw("webhook: subscription deleted without resolvable tenant", "subscription_id", sub.ID)
		return nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.upsertSubscriptionTx(ctx, tx, sub, accountantID)
		if err != nil {
			return err
		}
		if m.CanceledAt == nil {
			now := time.Now()
			if err := tx.WithContext(ctx).Model(m).Update("canceled_at", now).Error; err != nil {
				return fmt.Errorf("stamp cancellation: %w", err)
			}
		}
		_, err = s.propagateTenantStatus(ctx, tx, accountantID, types.TenantStatusCanceled, "")
		return err
	})
	if err != nil {
		return err
	}

	log.Infow("webhook: subscription canceled", "subscription_id", sub.ID, "accountant_id", accountantID)
	go s.notifyCanceled(ctx, accountantID)
	return nil
}

func (s *Service) notifyCanceled(ctx context.Context, accountantID string) {
	var acct models.Accountant
	if err := s.db.First(&acct, "id = ?", accountantID).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("notify canceled: load accountant: %v", err)
		return
	}
	s.mail.SendSubscriptionCanceled(ctx, &acct)
}
