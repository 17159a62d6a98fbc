package models

import (
	"time"

	"github.com/contasync/billing/pkg/types"
)

// RecurringTemplate drives charge generation for both domains (client
// payments and the accountant's own financial entries). Business terms are
// immutable after creation; only the scheduling fields move, and only
// forward: NextDueDate never regresses, IsActive only flips to false.
type RecurringTemplate struct {
	ID           string             `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Kind         types.TemplateKind `gorm:"column:kind;type:varchar(32);not null;index" json:"kind"`
	AccountantID string             `gorm:"column:accountant_id;type:uuid;not null;index" json:"accountant_id"`
	// ClientID is set for client-payment templates only.
	ClientID *string `gorm:"column:client_id;type:uuid;index" json:"client_id"`

	Title       string `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Category    string `gorm:"column:category;type:varchar(64)" json:"category"`
	AmountCents int64  `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	Currency    string `gorm:"column:currency;type:varchar(8);not null" json:"currency"`

	Frequency       types.Frequency `gorm:"column:frequency;type:varchar(16);not null" json:"frequency"`
	DayOfMonth      int             `gorm:"column:day_of_month;not null" json:"day_of_month"`
	NextDueDate     time.Time       `gorm:"column:next_due_date;type:date;not null;index" json:"next_due_date"`
	LastGeneratedAt *time.Time      `gorm:"column:last_generated_at;default:null" json:"last_generated_at"`
	EndDate         *time.Time      `gorm:"column:end_date;type:date;default:null" json:"end_date"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true;index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RecurringTemplate) TableName() string { return "recurring_template" }

// ExpiresBefore reports whether the template's end date rules out a charge
// on candidate.
func (t *RecurringTemplate) ExpiresBefore(candidate time.Time) bool {
	return t.EndDate != nil && candidate.After(*t.EndDate)
}
