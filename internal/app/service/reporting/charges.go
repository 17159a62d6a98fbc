package reporting

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/contasync/billing/internal/models"
	"github.com/contasync/billing/pkg/types"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type ListScheduledChargesRequest struct {
	Filters  []*types.CommonFilter `json:"filters"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

type ListScheduledChargesResponse struct {
	Items    []*models.ScheduledCharge `json:"items"`
	Total    int64                     `json:"total"`
	Page     int                       `json:"page"`
	PageSize int                       `json:"page_size"`
}

// ListScheduledCharges is the filtered, paginated charge scan behind the
// admin listing endpoint.
func (s *Service) ListScheduledCharges(ctx context.Context, req *ListScheduledChargesRequest) (*ListScheduledChargesResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	where := clause.Where{Exprs: []clause.Expression{types.FiltersWhere{Filters: req.Filters}}}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.ScheduledCharge{}).
		Where(where).Count(&total).Error; err != nil {
		return nil, err
	}

	var items []*models.ScheduledCharge
	err := s.db.WithContext(ctx).
		Where(where).
		Order("due_date desc, id desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &ListScheduledChargesResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
