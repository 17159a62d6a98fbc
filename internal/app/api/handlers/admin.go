package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/contasync/billing/internal/app/service/planlimit"
	"github.com/contasync/billing/internal/app/service/reporting"
	"github.com/contasync/billing/internal/models"
	"github.com/contasync/billing/pkg/response"
	"github.com/contasync/billing/pkg/types"
)

type ListScheduledChargesRequest struct {
	Filters  []*types.CommonFilter `json:"filters"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

type ScheduledChargeItem struct {
	ID           string             `json:"id"`
	TemplateID   string             `json:"template_id"`
	Kind         types.TemplateKind `json:"kind"`
	AccountantID string             `json:"accountant_id"`
	ClientID     *string            `json:"client_id"`
	Title        string             `json:"title"`
	Category     string             `json:"category"`
	AmountCents  int64              `json:"amount_cents"`
	Currency     string             `json:"currency"`
	Status       types.ChargeStatus `json:"status"`
	DueDate      time.Time          `json:"due_date"`
	PaidAt       *time.Time         `json:"paid_at"`
	CreatedAt    time.Time          `json:"created_at"`
}

type ListScheduledChargesResponse struct {
	Items    []*ScheduledChargeItem `json:"items"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

func toScheduledChargeItem(m *models.ScheduledCharge) *ScheduledChargeItem {
	return &ScheduledChargeItem{
		ID:           m.ID,
		TemplateID:   m.TemplateID,
		Kind:         m.Kind,
		AccountantID: m.AccountantID,
		ClientID:     m.ClientID,
		Title:        m.Title,
		Category:     m.Category,
		AmountCents:  m.AmountCents,
		Currency:     m.Currency,
		Status:       m.Status,
		DueDate:      m.DueDate,
		PaidAt:       m.PaidAt,
		CreatedAt:    m.CreatedAt,
	}
}

// ApiListScheduledCharges handles POST /api/v1/admin/list_scheduled_charges
func ApiListScheduledCharges(svc *reporting.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListScheduledChargesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ListScheduledCharges(c.Request.Context(), &reporting.ListScheduledChargesRequest{
			Filters:  req.Filters,
			Page:     req.Page,
			PageSize: req.PageSize,
		})
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		items := lo.Map(res.Items, func(it *models.ScheduledCharge, _ int) *ScheduledChargeItem { return toScheduledChargeItem(it) })
		c.JSON(http.StatusOK, response.OKT(&ListScheduledChargesResponse{
			Items:    items,
			Total:    res.Total,
			Page:     res.Page,
			PageSize: res.PageSize,
		}))
	}
}

// ApiGetBillingReport handles POST /api/v1/admin/get_billing_report
func ApiGetBillingReport(svc *reporting.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reporting.BillingReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetBillingReport(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// ApiCheckLimit handles GET /api/v1/admin/check_limit
func ApiCheckLimit(svc *planlimit.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountantID := c.Query("accountant_id")
		resource := types.ResourceType(c.Query("resource"))
		if accountantID == "" || resource == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing accountant_id or resource"))
			return
		}
		decision, err := svc.CheckLimit(c.Request.Context(), accountantID, resource)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(decision))
	}
}

func RegisterAdminRoutes(r gin.IRouter, rep *reporting.Service, limits *planlimit.Service) {
	r.POST("/list_scheduled_charges", ApiListScheduledCharges(rep))
	r.POST("/get_billing_report", ApiGetBillingReport(rep))
	r.GET("/check_limit", ApiCheckLimit(limits))
}
