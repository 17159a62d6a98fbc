package models

import (
	"time"

	"gorm.io/gorm"
)

// Client is a managed client of an accountant. Only the columns the billing
// subsystem touches live here: ownership for recurring templates and row
// counting for plan limits.
type Client struct {
	ID           string         `gorm:"column:id;type:uuid;primary_key" json:"id"`
	AccountantID string         `gorm:"column:accountant_id;type:uuid;not null;index" json:"accountant_id"`
	Name         string         `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email        string         `gorm:"column:email;type:varchar(255)" json:"email"`
	TaxID        string         `gorm:"column:tax_id;type:varchar(32)" json:"tax_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Client) TableName() string { return "client" }
