package models

import (
	"time"

	"github.com/contasync/billing/pkg/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Accountant is the tenant. Billing status is a summary derived from the
// provider subscription by the reconciler; the provider is the source of
// truth for everything billing-related.
type Accountant struct {
	ID               string             `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Email            string             `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash     string             `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	CompanyName      string             `gorm:"column:company_name;type:varchar(255)" json:"company_name"`
	TaxID            string             `gorm:"column:tax_id;type:varchar(32)" json:"tax_id"`
	Status           types.TenantStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	PlanID           string             `gorm:"column:plan_id;type:varchar(64)" json:"plan_id"`
	StripeCustomerID *string            `gorm:"column:stripe_customer_id;type:varchar(64);index" json:"stripe_customer_id"`
	Extra            datatypes.JSON     `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	DeletedAt        gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (Accountant) TableName() string { return "accountant" }

func (a *Accountant) Billable() bool {
	return a != nil && a.Status.Billable()
}
