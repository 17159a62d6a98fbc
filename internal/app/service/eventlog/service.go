package eventlog

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/contasync/billing/internal/models"
	"github.com/contasync/billing/pkg/logctx"
	"github.com/contasync/billing/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save persists a webhook event log row before returning, so an ingress
// "received" row is on disk before any terminal row for the same delivery.
// Nil input is ignored; write failures are logged, never propagated.
func (s *Service) Save(ctx context.Context, row *models.WebhookEventLog) {
	if row == nil {
		return
	}
	if row.ID == "" {
		row.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("failed to save webhook event log: %v", err)
	}
}

// SaveAsync persists the row on a background goroutine. Used for terminal
// audit rows that must not delay the webhook response.
func (s *Service) SaveAsync(ctx context.Context, row *models.WebhookEventLog) {
	go s.Save(ctx, row)
}
