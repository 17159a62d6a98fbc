package planlimit

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/contasync/billing/internal/models"
	cfgpkg "github.com/contasync/billing/pkg/config"
	"github.com/contasync/billing/pkg/logctx"
	"github.com/contasync/billing/pkg/types"
)

type Usage struct {
	Current     int64   `json:"current"`
	Limit       int64   `json:"limit"`
	Percentage  float64 `json:"percentage"`
	IsUnlimited bool    `json:"is_unlimited"`
}

type Decision struct {
	Allowed        bool     `json:"allowed"`
	Usage          Usage    `json:"usage"`
	Message        string   `json:"message,omitempty"`
	UpgradeMessage string   `json:"upgrade_message,omitempty"`
	SuggestedPlans []string `json:"suggested_plans,omitempty"`
}

type Service struct {
	db  *gorm.DB
	cfg *cfgpkg.Config
	log *zap.SugaredLogger
}

func New(db *gorm.DB, cfg *cfgpkg.Config, log *zap.SugaredLogger) *Service {
	return &Service{db: db, cfg: cfg, log: log}
}

// CheckLimit reports whether the tenant may create one more resource of the
// given type. Advisory only: it never blocks resources that already exist.
func (s *Service) CheckLimit(ctx context.Context, accountantID string, resource types.ResourceType) (*Decision, error) {
	var acct models.Accountant
	if err := s.db.WithContext(ctx).First(&acct, "id = ?", accountantID).Error; err != nil {
		return nil, fmt.Errorf("load accountant %s: %w", accountantID, err)
	}
	plan := s.cfg.GetPlanByID(acct.PlanID)
	if plan == nil {
		return nil, fmt.Errorf("accountant %s references unknown plan %q", accountantID, acct.PlanID)
	}

	limit := plan.Limits.LimitFor(resource)
	if limit == types.UnlimitedQuota {
		// Unlimited short-circuits without touching the counters.
		return Evaluate(plan, resource, 0, s.upgradeCandidates(plan)), nil
	}

	current, err := s.countUsage(ctx, accountantID, resource)
	if err != nil {
		return nil, err
	}
	d := Evaluate(plan, resource, current, s.upgradeCandidates(plan))
	if !d.Allowed {
		logctx.FromCtx(ctx, s.log).Infow("plan limit reached",
			"accountant_id", accountantID, "resource", resource, "current", current, "limit", limit)
	}
	return d, nil
}

func (s *Service) countUsage(ctx context.Context, accountantID string, resource types.ResourceType) (int64, error) {
	var (
		count int64
		err   error
	)
	q := s.db.WithContext(ctx)
	switch resource {
	case types.ResourceTypeClients:
		err = q.Model(&models.Client{}).Where("accountant_id = ?", accountantID).Count(&count).Error
	case types.ResourceTypeDocuments:
		err = q.Model(&models.Document{}).Where("accountant_id = ?", accountantID).Count(&count).Error
	case types.ResourceTypeRecurringTemplates:
		err = q.Model(&models.RecurringTemplate{}).
			Where("accountant_id = ? AND is_active = ?", accountantID, true).Count(&count).Error
	default:
		return 0, fmt.Errorf("unknown resource type %q", resource)
	}
	if err != nil {
		return 0, fmt.Errorf("count %s for accountant %s: %w", resource, accountantID, err)
	}
	return count, nil
}

// upgradeCandidates lists names of active plans priced above the current one,
// cheapest first.
func (s *Service) upgradeCandidates(current *types.Plan) []string {
	higher := lo.Filter(s.cfg.Plans, func(p *types.Plan, _ int) bool {
		return p.Active && p.PriceCents > current.PriceCents
	})
	sort.Slice(higher, func(i, j int) bool { return higher[i].PriceCents < higher[j].PriceCents })
	return lo.Map(higher, func(p *types.Plan, _ int) string { return p.Name })
}

// Evaluate is the pure quota decision: current usage vs the plan's quota for
// the resource. A quota of types.UnlimitedQuota always allows.
func Evaluate(plan *types.Plan, resource types.ResourceType, current int64, suggestions []string) *Decision {
	limit := plan.Limits.LimitFor(resource)
	if limit == types.UnlimitedQuota {
		return &Decision{
			Allowed: true,
			Usage:   Usage{Current: current, Limit: limit, IsUnlimited: true},
		}
	}

	usage := Usage{Current: current, Limit: limit}
	if limit > 0 {
		usage.Percentage = float64(current) / float64(limit) * 100
	}
	if current < limit {
		return &Decision{Allowed: true, Usage: usage}
	}

	d := &Decision{
		Allowed: false,
		Usage:   usage,
		Message: fmt.Sprintf("plan %q allows at most %d %s; you currently have %d", plan.Name, limit, resource, current),
	}
	if resource == types.ResourceTypeClients && len(suggestions) > 0 {
		d.SuggestedPlans = suggestions
		d.UpgradeMessage = fmt.Sprintf("upgrade to add more clients: %v", suggestions)
	}
	return d
}
