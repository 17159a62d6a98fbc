package models

import (
	"time"

	"gorm.io/gorm"
)

// Document is a fiscal document stored for a tenant. Only counted here (plan
// quota evaluation); upload and retrieval live in another service.
type Document struct {
	ID           string         `gorm:"column:id;type:uuid;primary_key" json:"id"`
	AccountantID string         `gorm:"column:accountant_id;type:uuid;not null;index" json:"accountant_id"`
	ClientID     *string        `gorm:"column:client_id;type:uuid;index" json:"client_id"`
	Filename     string         `gorm:"column:filename;type:varchar(255);not null" json:"filename"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Document) TableName() string { return "document" }
