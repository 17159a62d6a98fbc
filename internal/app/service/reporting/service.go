package reporting

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/contasync/billing/internal/models"
	"github.com/contasync/billing/pkg/types"
)

// Report types exposed on the admin surface.
type ReportType string

const (
	// Scheduled charge reports
	ReportTypeDailyChargeCount        ReportType = "daily_charge_count"
	ReportTypeDailyChargeAmount       ReportType = "daily_charge_amount"
	ReportTypeOverdueChargeCount      ReportType = "overdue_charge_count"
	ReportTypeAccumulatedChargeAmount ReportType = "accumulated_charge_amount"

	// Provider invoice reports
	ReportTypeDailyCollectedAmount ReportType = "daily_collected_amount"
)

// Filter fields that only make sense against the scheduled_charge table.
type ChargeFilterField string

const (
	ChargeFilterFieldKind     ChargeFilterField = "kind"
	ChargeFilterFieldStatus   ChargeFilterField = "status"
	ChargeFilterFieldClientID ChargeFilterField = "client_id"
)

var chargeFilterFields = []ChargeFilterField{
	ChargeFilterFieldKind,
	ChargeFilterFieldStatus,
	ChargeFilterFieldClientID,
}

var validFilters = map[ChargeFilterField][]ReportType{
	ChargeFilterFieldKind:     {ReportTypeDailyChargeCount, ReportTypeDailyChargeAmount, ReportTypeOverdueChargeCount, ReportTypeAccumulatedChargeAmount},
	ChargeFilterFieldStatus:   {ReportTypeDailyChargeCount, ReportTypeDailyChargeAmount, ReportTypeAccumulatedChargeAmount},
	ChargeFilterFieldClientID: {ReportTypeDailyChargeCount, ReportTypeDailyChargeAmount, ReportTypeOverdueChargeCount, ReportTypeAccumulatedChargeAmount},
}

type BillingReportDataItem struct {
	ID ReportType `json:"id"`
}

type BillingReportRequest struct {
	Filters   []*types.CommonFilter    `json:"filters"`
	DataItems []*BillingReportDataItem `json:"data_items"`
}

// GetFilters drops filters that do not apply to the given report type.
func (f *BillingReportRequest) GetFilters(reportType ReportType) types.FiltersWhere {
	var result types.FiltersWhere
	if f == nil {
		return result
	}
	for _, filter := range f.Filters {
		if reportTypes, ok := validFilters[ChargeFilterField(filter.Field)]; ok {
			if lo.Contains(reportTypes, reportType) {
				result.Filters = append(result.Filters, filter)
			}
		} else {
			result.Filters = append(result.Filters, filter)
		}
	}
	return result
}

type BillingReportResponseDataItem struct {
	Date  string `json:"date"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type BillingReportResponse struct {
	DataItems map[ReportType][]BillingReportResponseDataItem `json:"data_items"`
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) getDailyChargeCount(ctx context.Context, request *BillingReportRequest) ([]BillingReportResponseDataItem, error) {
	var results []BillingReportResponseDataItem
	q := s.db.WithContext(ctx).Table((models.ScheduledCharge{}).TableName()).
		Select("TO_CHAR(due_date, 'YYYY-MM-DD') as date, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(ReportTypeDailyChargeCount)}}).
		Group("TO_CHAR(due_date, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyChargeAmount(ctx context.Context, request *BillingReportRequest) ([]BillingReportResponseDataItem, error) {
	var results []BillingReportResponseDataItem
	q := s.db.WithContext(ctx).Table((models.ScheduledCharge{}).TableName()).
		Select("TO_CHAR(due_date, 'YYYY-MM-DD') as date, currency as label, sum(amount_cents) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(ReportTypeDailyChargeAmount)}}).
		Group("TO_CHAR(due_date, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getOverdueChargeCount(ctx context.Context, request *BillingReportRequest) ([]BillingReportResponseDataItem, error) {
	var results []BillingReportResponseDataItem
	q := s.db.WithContext(ctx).Table((models.ScheduledCharge{}).TableName()).
		Select("count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(ReportTypeOverdueChargeCount)}}).
		Where("status = ?", types.ChargeStatusOverdue)
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getAccumulatedChargeAmount(ctx context.Context, _ *BillingReportRequest) ([]BillingReportResponseDataItem, error) {
	var results []BillingReportResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(due_date) as min_date, MAX(due_date) as max_date FROM scheduled_charge
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
dates AS (
    SELECT TO_CHAR(date, 'YYYY-MM-DD') as date FROM distinct_dates
),
currencies AS (
    SELECT DISTINCT currency as label FROM scheduled_charge
),
date_currency_combinations AS (
    SELECT d.date, c.label FROM dates d CROSS JOIN currencies c
),
amount_date AS (
    SELECT dc.date, dc.label, COALESCE(SUM(sc.amount_cents), 0) as value
    FROM date_currency_combinations dc
    LEFT JOIN scheduled_charge sc
      ON TO_CHAR(sc.due_date, 'YYYY-MM-DD') = dc.date
     AND sc.currency = dc.label
    GROUP BY dc.date, dc.label
)
SELECT d.date as date, d.label as label, SUM(s.value) as value
FROM amount_date d
LEFT JOIN amount_date s ON s.date <= d.date AND s.label = d.label
GROUP BY d.date, d.label
ORDER BY d.date DESC, d.label ASC
`).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyCollectedAmount(ctx context.Context, request *BillingReportRequest) ([]BillingReportResponseDataItem, error) {
	var results []BillingReportResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Invoice{}).TableName()).
		Select("TO_CHAR(paid_at, 'YYYY-MM-DD') as date, currency as label, sum(amount_paid_cents) as value").
		Where("status = ?", types.InvoiceStatusPaid).
		Where("paid_at IS NOT NULL").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(ReportTypeDailyCollectedAmount)}}).
		Group("TO_CHAR(paid_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getBillingReportItem(ctx context.Context, request *BillingReportRequest, dataItem *BillingReportDataItem) ([]BillingReportResponseDataItem, error) {
	switch dataItem.ID {
	case ReportTypeDailyChargeCount:
		return s.getDailyChargeCount(ctx, request)
	case ReportTypeDailyChargeAmount:
		return s.getDailyChargeAmount(ctx, request)
	case ReportTypeOverdueChargeCount:
		return s.getOverdueChargeCount(ctx, request)
	case ReportTypeAccumulatedChargeAmount:
		return s.getAccumulatedChargeAmount(ctx, request)
	case ReportTypeDailyCollectedAmount:
		return s.getDailyCollectedAmount(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetBillingReport runs the requested report items concurrently and collects
// them keyed by report type. Filters that do not apply to an item yield a
// nil series for that item instead of failing the request.
func (s *Service) GetBillingReport(ctx context.Context, request *BillingReportRequest) (*BillingReportResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[ReportType, []BillingReportResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *BillingReportDataItem) {
			defer wg.Done()
			for _, filter := range request.Filters {
				ff := ChargeFilterField(filter.Field)
				if lo.Contains(chargeFilterFields, ff) && !lo.Contains(validFilters[ff], di.ID) {
					resChan <- &lo.Entry[ReportType, []BillingReportResponseDataItem]{Key: di.ID, Value: nil}
					return
				}
			}
			res, err := s.getBillingReportItem(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[ReportType, []BillingReportResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[ReportType][]BillingReportResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &BillingReportResponse{DataItems: results}, nil
}
