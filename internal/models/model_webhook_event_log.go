package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookEventLogStatus string

const (
	WebhookEventLogStatusReceived     WebhookEventLogStatus = "received"
	WebhookEventLogStatusHandled      WebhookEventLogStatus = "handled"
	WebhookEventLogStatusHandleFailed WebhookEventLogStatus = "handle_failed"
)

// WebhookEventLog is the audit trail of provider webhook deliveries: one
// "received" row on ingress, one terminal row after handling.
type WebhookEventLog struct {
	ID           string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Provider     string                `gorm:"column:provider;type:varchar(32);not null" json:"provider"`
	EventID      string                `gorm:"column:event_id;type:varchar(128);index" json:"event_id"`
	EventType    string                `gorm:"column:event_type;type:varchar(128)" json:"event_type"`
	AccountantID *string               `gorm:"column:accountant_id;type:uuid" json:"accountant_id"`
	TraceID      string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	EventTime    time.Time             `gorm:"column:event_time" json:"event_time"`
	Data         datatypes.JSON        `gorm:"column:data;type:jsonb" json:"data"`
	Result       *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status       WebhookEventLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

func (WebhookEventLog) TableName() string { return "webhook_event_log" }
