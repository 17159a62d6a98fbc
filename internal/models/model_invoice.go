package models

import (
	"time"

	"github.com/contasync/billing/pkg/types"
)

// Invoice mirrors a provider invoice. Append-mostly: created on the first
// payment event for the invoice, status-updated afterwards, never deleted.
type Invoice struct {
	ID                   string              `gorm:"column:id;type:uuid;primary_key" json:"id"`
	StripeInvoiceID      string              `gorm:"column:stripe_invoice_id;type:varchar(64);not null;uniqueIndex" json:"stripe_invoice_id"`
	StripeSubscriptionID string              `gorm:"column:stripe_subscription_id;type:varchar(64);index" json:"stripe_subscription_id"`
	AccountantID         string              `gorm:"column:accountant_id;type:uuid;index" json:"accountant_id"`
	Status               types.InvoiceStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	AmountDueCents       int64               `gorm:"column:amount_due_cents;type:bigint;not null" json:"amount_due_cents"`
	AmountPaidCents      int64               `gorm:"column:amount_paid_cents;type:bigint;not null" json:"amount_paid_cents"`
	Currency             string              `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	PeriodStart          *time.Time          `gorm:"column:period_start;default:null" json:"period_start"`
	PeriodEnd            *time.Time          `gorm:"column:period_end;default:null" json:"period_end"`
	PaidAt               *time.Time          `gorm:"column:paid_at;default:null" json:"paid_at"`
	HostedInvoiceURL     string              `gorm:"column:hosted_invoice_url;type:varchar(512)" json:"hosted_invoice_url"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

func (Invoice) TableName() string { return "external_invoice" }
