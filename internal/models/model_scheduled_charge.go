package models

import (
	"time"

	"github.com/contasync/billing/pkg/types"
)

// ScheduledCharge is a concrete charge generated from a recurring template.
// The composite unique index on (template_id, due_date) is the storage-level
// duplicate guard: concurrent generator runs that pass the existence
// pre-check still cannot double-insert a period.
type ScheduledCharge struct {
	ID         string             `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TemplateID string             `gorm:"column:template_id;type:uuid;not null;uniqueIndex:unique_template_due,priority:1" json:"template_id"`
	DueDate    time.Time          `gorm:"column:due_date;type:date;not null;uniqueIndex:unique_template_due,priority:2" json:"due_date"`
	Kind       types.TemplateKind `gorm:"column:kind;type:varchar(32);not null;index" json:"kind"`

	AccountantID string  `gorm:"column:accountant_id;type:uuid;not null;index" json:"accountant_id"`
	ClientID     *string `gorm:"column:client_id;type:uuid;index" json:"client_id"`

	Title       string `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Category    string `gorm:"column:category;type:varchar(64)" json:"category"`
	AmountCents int64  `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	Currency    string `gorm:"column:currency;type:varchar(8);not null" json:"currency"`

	Status types.ChargeStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	PaidAt *time.Time         `gorm:"column:paid_at" json:"paid_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ScheduledCharge) TableName() string { return "scheduled_charge" }
