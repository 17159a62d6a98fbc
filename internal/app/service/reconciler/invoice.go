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

// accountantForInvoice resolves the owning tenant through the subscription
// mirror first, then the customer link.
func (s *Service) accountantForInvoice(ctx context.Context, inv *stripe.Invoice) (string, error) {
	if inv.Subscription != nil && inv.Subscription.ID != "" {
		var local models.Subscription
		err := s.db.WithContext(ctx).
			Where("stripe_subscription_id = ?", inv.Subscription.ID).
			First(&local).Error
		if err == nil {
			return local.AccountantID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
	}
	if inv.Customer != nil && inv.Customer.ID != "" {
		var acct models.Accountant
		err := s.db.WithContext(ctx).
			Where("stripe_customer_id = ?", inv.Customer.ID).
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

func (s *Service) upsertInvoiceTx(ctx context.Context, tx *gorm.DB, inv *stripe.Invoice, accountantID string, status types.InvoiceStatus) (*models.Invoice, error) {
	var original models.Invoice
	err := tx.WithContext(ctx).
		Where("stripe_invoice_id = ?", inv.ID).
		First(&original).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load original invoice: %w", err)
	}

	m := &models.Invoice{
		StripeInvoiceID:  inv.ID,
		AccountantID:     accountantID,
		Status:           status,
		AmountDueCents:   inv.AmountDue,
		AmountPaidCents:  inv.AmountPaid,
		Currency:         string(inv.Currency),
		PeriodStart:      unixPtr(inv.PeriodStart),
		PeriodEnd:        unixPtr(inv.PeriodEnd),
		HostedInvoiceURL: inv.HostedInvoiceURL,
	}
	if inv.Subscription != nil {
		m.StripeSubscriptionID = inv.Subscription.ID
	}
	if inv.StatusTransitions != nil {
		m.PaidAt = unixPtr(inv.StatusTransitions.PaidAt)
	}
	if original.ID != "" {
		m.ID = original.ID
		m.CreatedAt = original.CreatedAt
		if m.AccountantID == "" {
			m.AccountantID = original.AccountantID
		}
	} else {
		m.ID = tool.GenerateUUIDV7()
	}

	if err := tx.WithContext(ctx).Save(m).Error; err != nil {
		return nil, fmt.Errorf("upsert invoice %s: %w", inv.ID, err)
	}
	return m, nil
}

// linePeriod pulls the billing period off the invoice's first line item.
func linePeriod(inv *stripe.Invoice) (start, end int64) {
	if inv.Lines == nil || len(inv.Lines.Data) == 0 || inv.Lines.Data[0].Period == nil {
		return 0, 0
	}
	return inv.Lines.Data[0].Period.Start, inv.Lines.Data[0].Period.End
}

func (s *Service) handleInvoicePaid(ctx context.Context, inv *stripe.Invoice) error {
	log := logctx.FromCtx(ctx, s.log)

	accountantID, err := s.accountantForInvoice(ctx, inv)
	if err != nil {
		return err
	}
	if accountantID == "" {
		log.Errorw("webhook: paid invoice without resolvable tenant", "invoice_id", inv.ID)
		return nil
	}

	var m *models.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err = s.upsertInvoiceTx(ctx, tx, inv, accountantID, types.InvoiceStatusPaid)
		if err != nil {
			return err
		}

		// A paid invoice carries the freshest period bounds; mirror them onto
		// the subscription.
		start, end := linePeriod(inv)
		if inv.Subscription != nil && start != 0 && end != 0 {
			err := tx.Model(&models.Subscription{}).
				Where("stripe_subscription_id = ?", inv.Subscription.ID).
				Updates(map[string]any{
					"current_period_start": unixPtr(start),
					"current_period_end":   unixPtr(end),
				}).Error
			if err != nil {
				return fmt.Errorf("refresh subscription period: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Infow("webhook: invoice paid",
		"invoice_id", inv.ID, "accountant_id", accountantID, "amount_paid_cents", inv.AmountPaid)

	go func() {
		var acct models.Accountant
		if err := s.db.First(&acct, "id = ?", accountantID).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("notify payment received: load accountant: %v", err)
			return
		}
		s.mail.SendPaymentReceived(ctx, &acct, m)
	}()
	return nil
}

func (s *Service) handleInvoicePaymentFailed(ctx context.Context, inv *stripe.Invoice) error {
	log := logctx.FromCtx(ctx, s.log)

	accountantID, err := s.accountantForInvoice(ctx, inv)
	if err != nil {
		return err
	}
	if accountantID == "" {
		log.Errorw("webhook: failed invoice without resolvable tenant", "invoice_id", inv.ID)
		return nil
	}

	var m *models.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err = s.upsertInvoiceTx(ctx, tx, inv, accountantID, types.InvoiceStatusUncollectible)
		if err != nil {
			return err
		}
		_, err = s.propagateTenantStatus(ctx, tx, accountantID, types.TenantStatusPastDue, "")
		return err
	})
	if err != nil {
		return err
	}

	log.Warnw("webhook: invoice payment failed",
		"invoice_id", inv.ID, "accountant_id", accountantID, "amount_due_cents", inv.AmountDue)

	go func() {
		var acct models.Accountant
		if err := s.db.First(&acct, "id = ?", accountantID).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("notify payment failed: load accountant: %v", err)
			return
		}
		s.mail.SendPaymentFailed(ctx, &acct, m)
	}()
	return nil
}
