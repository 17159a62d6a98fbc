package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/contasync/billing/internal/models"
	"github.com/contasync/billing/pkg/logctx"
	"github.com/contasync/billing/pkg/schedule"
	"github.com/contasync/billing/pkg/tool"
	"github.com/contasync/billing/pkg/types"
)

// RunReport aggregates one generator invocation.
type RunReport struct {
	Kind      types.TemplateKind `json:"kind"`
	Scanned   int                `json:"scanned"`
	Generated int                `json:"generated"`
	Skipped   int                `json:"skipped"`
	Errors    int                `json:"errors"`
}

type outcome int

const (
	outcomeGenerated outcome = iota
	outcomeSkipped
	outcomeDeactivated
)

// Run scans active templates of one kind and generates pending charges due
// within the kind's lookahead window. Safe to invoke repeatedly: already
// generated periods are skipped. A template failure is counted and logged,
// never aborts the batch; only a failure before the loop is returned.
func (s *Service) Run(ctx context.Context, kind types.TemplateKind) (*RunReport, error) {
	log := logctx.FromCtx(ctx, s.log)
	report := &RunReport{Kind: kind}

	loc := s.cfg.Location()
	today := schedule.StartOfDay(time.Now(), loc)
	horizon := today.AddDate(0, 0, s.cfg.LookaheadDays(kind))

	var templates []*models.RecurringTemplate
	err := s.db.WithContext(ctx).
		Where("kind = ? AND is_active = ?", kind, true).
		Where("end_date IS NULL OR end_date >= ?", today).
		Order("next_due_date asc").
		Find(&templates).Error
	if err != nil {
		log.Errorf("recurring: load templates failed, kind=%s: %v", kind, err)
		return report, fmt.Errorf("load templates: %w", err)
	}
	report.Scanned = len(templates)

	for _, tpl := range templates {
		out, err := s.processTemplate(ctx, tpl, horizon, loc)
		if err != nil {
			report.Errors++
			log.Errorw("recurring: template failed", "template_id", tpl.ID, "kind", kind, "err", err)
			continue
		}
		if out == outcomeGenerated {
			report.Generated++
		} else {
			report.Skipped++
		}
	}

	log.Infow("recurring run finished", "kind", kind,
		"scanned", report.Scanned, "generated", report.Generated,
		"skipped", report.Skipped, "errors", report.Errors)
	return report, nil
}

func (s *Service) processTemplate(ctx context.Context, tpl *models.RecurringTemplate, horizon time.Time, loc *time.Location) (outcome, error) {
	log := logctx.FromCtx(ctx, s.log)

	// Soft-deleted tenants keep their templates but generate nothing.
	var acct models.Accountant
	if err := s.db.WithContext(ctx).First(&acct, "id = ?", tpl.AccountantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debugw("recurring: tenant gone, skipping", "template_id", tpl.ID, "accountant_id", tpl.AccountantID)
			return outcomeSkipped, nil
		}
		return 0, fmt.Errorf("load accountant: %w", err)
	}

	candidate := schedule.StartOfDay(tpl.NextDueDate, loc)

	eligibility, err := Classify(tpl, candidate, horizon)
	if err != nil {
		return 0, err
	}
	switch eligibility {
	case EligibilityTooFarAhead:
		log.Debugw("recurring: outside window", "template_id", tpl.ID, "due", candidate)
		return outcomeSkipped, nil
	case EligibilityExpired:
		if err := s.deactivate(ctx, tpl); err != nil {
			return 0, err
		}
		log.Infow("recurring: template reached end date, deactivated", "template_id", tpl.ID)
		return outcomeDeactivated, nil
	}

	var existing models.ScheduledCharge
	err = s.db.WithContext(ctx).
		Where("template_id = ? AND due_date = ?", tpl.ID, candidate).
		First(&existing).Error
	if err == nil {
		// Already generated; advance scheduling state in case a previous run
		// stopped between insert and advance.
		if err := s.advance(ctx, s.db, tpl, candidate, loc); err != nil {
			return 0, err
		}
		log.Debugw("recurring: charge already exists", "template_id", tpl.ID, "due", candidate)
		return outcomeSkipped, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("check existing charge: %w", err)
	}

	charge := &models.ScheduledCharge{
		ID:           tool.GenerateUUIDV7(),
		TemplateID:   tpl.ID,
		DueDate:      candidate,
		Kind:         tpl.Kind,
		AccountantID: tpl.AccountantID,
		ClientID:     tpl.ClientID,
		Title:        tpl.Title,
		Category:     tpl.Category,
		AmountCents:  tpl.AmountCents,
		Currency:     tpl.Currency,
		Status:       types.ChargeStatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(charge).Error; err != nil {
			return err
		}
		return s.advance(ctx, tx, tpl, candidate, loc)
	})
	if err != nil {
		// The unique index on (template_id, due_date) closes the
		// check-then-act window between concurrent runs.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Debugw("recurring: concurrent run generated first", "template_id", tpl.ID, "due", candidate)
			return outcomeSkipped, nil
		}
		return 0, fmt.Errorf("create charge: %w", err)
	}

	log.Infow("recurring: charge generated",
		"template_id", tpl.ID, "charge_id", charge.ID, "due", candidate, "amount_cents", charge.AmountCents)
	return outcomeGenerated, nil
}

// advance moves the template's due-date cursor past generated; the cursor
// never regresses.
func (s *Service) advance(ctx context.Context, tx *gorm.DB, tpl *models.RecurringTemplate, generated time.Time, loc *time.Location) error {
	next, err := schedule.NextDueDate(generated, tpl.Frequency, tpl.DayOfMonth, loc)
	if err != nil {
		return err
	}
	now := time.Now()
	updates := map[string]any{
		"next_due_date":     next,
		"last_generated_at": now,
	}
	if err := tx.WithContext(ctx).Model(tpl).Updates(updates).Error; err != nil {
		return fmt.Errorf("advance template %s: %w", tpl.ID, err)
	}
	tpl.NextDueDate = next
	tpl.LastGeneratedAt = &now
	return nil
}

func (s *Service) deactivate(ctx context.Context, tpl *models.RecurringTemplate) error {
	if err := s.db.WithContext(ctx).Model(tpl).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("deactivate template %s: %w", tpl.ID, err)
	}
	tpl.IsActive = false
	return nil
}
