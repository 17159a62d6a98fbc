package models

import (
	"time"

	"gorm.io/datatypes"
)

// Subscription mirrors the provider subscription object. It is keyed by the
// external subscription ID and written exclusively by the reconciler; the
// local row is a cache of provider state, never the source of truth.
type Subscription struct {
	ID                   string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	AccountantID         string `gorm:"column:accountant_id;type:uuid;not null;uniqueIndex" json:"accountant_id"`
	StripeSubscriptionID string `gorm:"column:stripe_subscription_id;type:varchar(64);not null;uniqueIndex" json:"stripe_subscription_id"`
	StripePriceID        string `gorm:"column:stripe_price_id;type:varchar(64)" json:"stripe_price_id"`
	PlanID               string `gorm:"column:plan_id;type:varchar(64)" json:"plan_id"`
	// Status is the raw provider status; the tenant summary is derived from
	// it via types.TenantStatusFromProvider.
	Status             string         `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CurrentPeriodStart *time.Time     `gorm:"column:current_period_start;default:null" json:"current_period_start"`
	CurrentPeriodEnd   *time.Time     `gorm:"column:current_period_end;default:null" json:"current_period_end"`
	CancelAtPeriodEnd  bool           `gorm:"column:cancel_at_period_end;default:false" json:"cancel_at_period_end"`
	CanceledAt         *time.Time     `gorm:"column:canceled_at;default:null" json:"canceled_at"`
	TrialEnd           *time.Time     `gorm:"column:trial_end;default:null" json:"trial_end"`
	Extra              datatypes.JSON `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (Subscription) TableName() string { return "external_subscription" }
