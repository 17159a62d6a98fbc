package recurring

import (
	"context"
	"time"

	"github.com/contasync/billing/internal/models"
	"github.com/contasync/billing/pkg/logctx"
	"github.com/contasync/billing/pkg/schedule"
	"github.com/contasync/billing/pkg/types"
)

// MarkOverdue flips pending charges past their due date to overdue and
// returns how many rows changed. Status transitions on charges live here,
// outside the generator.
func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	today := schedule.StartOfDay(time.Now(), s.cfg.Location())

	res := s.db.WithContext(ctx).Model(&models.ScheduledCharge{}).
		Where("status = ? AND due_date < ?", types.ChargeStatusPending, today).
		Update("status", types.ChargeStatusOverdue)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		logctx.FromCtx(ctx, s.log).Infow("recurring: charges marked overdue", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
