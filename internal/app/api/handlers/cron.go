package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	croncmp "github.com/contasync/billing/internal/app/cron"
	"github.com/contasync/billing/internal/app/service/recurring"
	"github.com/contasync/billing/pkg/logctx"
	"github.com/contasync/billing/pkg/response"
	"github.com/contasync/billing/pkg/types"
)

type ProcessRecurringResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Reports []*recurring.RunReport `json:"reports"`
}

// ApiProcessRecurringPayments is the manual cron trigger: it runs generation
// for both template kinds synchronously and reports the counts. Idempotent,
// like the scheduled run.
func ApiProcessRecurringPayments(sched *croncmp.Scheduler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		reqLog := logctx.FromGin(c, log)

		var reports []*recurring.RunReport
		for _, kind := range []types.TemplateKind{types.TemplateKindClientPayment, types.TemplateKindFinancialEntry} {
			report, err := sched.RunKind(ctx, kind)
			if err != nil {
				reqLog.Errorw("manual recurring run failed", "kind", kind, "error", err.Error())
				c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeError, &ProcessRecurringResponse{
					Success: false,
					Message: err.Error(),
					Reports: reports,
				}))
				return
			}
			reports = append(reports, report)
		}

		c.JSON(http.StatusOK, response.OKT(&ProcessRecurringResponse{
			Success: true,
			Message: "recurring charges processed",
			Reports: reports,
		}))
	}
}

func RegisterCronRoutes(r gin.IRouter, sched *croncmp.Scheduler, log *zap.SugaredLogger) {
	r.POST("/process-recurring-payments", ApiProcessRecurringPayments(sched, log))
}
