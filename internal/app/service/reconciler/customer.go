package reconciler

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/contasync/billing/internal/models"
	"github.com/contasync/billing/pkg/logctx"
)

// handleCustomerUpdated syncs descriptive fields from the provider customer.
// Best effort: no tenant status change, unknown customers are acknowledged.
func (s *Service) handleCustomerUpdated(ctx context.Context, cust *stripe.Customer) error {
	log := logctx.FromCtx(ctx, s.log)

	var acct models.Accountant
	err := s.db.WithContext(ctx).
		Where("stripe_customer_id = ?", cust.ID).
		First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Debugw("webhook: customer not linked to a tenant", "customer_id", cust.ID)
		return nil
	}
	if err != nil {
		return err
	}

	updates := map[string]any{}
	if cust.Name != "" && cust.Name != acct.CompanyName {
		updates["company_name"] = cust.Name
	}
	if taxID := cust.Metadata["tax_id"]; taxID != "" && taxID != acct.TaxID {
		updates["tax_id"] = taxID
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&acct).Updates(updates).Error; err != nil {
		return err
	}

	log.Infow("webhook: customer metadata synced", "customer_id", cust.ID, "accountant_id", acct.ID)
	return nil
}
