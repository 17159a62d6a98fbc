package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contasync/billing/pkg/types"
)

func TestGetFiltersApplicability(t *testing.T) {
	req := &BillingReportRequest{
		Filters: []*types.CommonFilter{
			{Field: "kind", Operator: types.CommonFilterOperatorEq, Values: []any{"client_payment"}},
			{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{"pending"}},
			{Field: "accountant_id", Operator: types.CommonFilterOperatorEq, Values: []any{"acct-1"}},
		},
	}

	// All three apply to the daily charge count.
	got := req.GetFilters(ReportTypeDailyChargeCount)
	assert.Len(t, got.Filters, 3)

	// Status never applies to the overdue count (it is fixed to overdue).
	got = req.GetFilters(ReportTypeOverdueChargeCount)
	assert.Len(t, got.Filters, 2)

	// Charge-only fields are dropped for invoice-based reports; unknown
	// fields pass through.
	got = req.GetFilters(ReportTypeDailyCollectedAmount)
	assert.Len(t, got.Filters, 1)
	assert.Equal(t, "accountant_id", got.Filters[0].Field)
}

func TestGetFiltersNilRequest(t *testing.T) {
	var req *BillingReportRequest
	assert.Empty(t, req.GetFilters(ReportTypeDailyChargeCount).Filters)
}
