package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"rentme-pricing/internal/app/commands"
	"rentme-pricing/internal/app/dto"
	periodsapp "rentme-pricing/internal/app/handlers/periods"
	"rentme-pricing/internal/app/queries"
	domainperiods "rentme-pricing/internal/domain/periods"
	"rentme-pricing/internal/domain/shared/daterange"
)

type PeriodsHandler struct {
	Queries  queries.Bus
	Commands commands.Bus
}

func (h PeriodsHandler) List(c *gin.Context) {
	query := periodsapp.ListPricingPeriodsQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[periodsapp.ListPricingPeriodsQuery, dto.PeriodList](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type periodRequest struct {
	ID              string           `json:"id"`
	StartDate       daterange.Date   `json:"start_date"`
	EndDate         daterange.Date   `json:"end_date"`
	Price           *int64           `json:"price"`
	Percentage      *decimal.Decimal `json:"percentage"`
	Label           string           `json:"label"`
	ExpectedVersion *int64           `json:"expected_version"`
}

// Reconcile inserts or edits a period. With ?dry_run=true the plan is
// returned without being applied.
func (h PeriodsHandler) Reconcile(c *gin.Context) {
	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	dryRun := false
	if raw := c.Query("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badInput(c, err)
			return
		}
		dryRun = v
	}
	cmd := periodsapp.ReconcilePricingPeriodCommand{
		ListingID: c.Param("id"),
		Period: domainperiods.Period{
			ID:         req.ID,
			StartDate:  req.StartDate,
			EndDate:    req.EndDate,
			Price:      req.Price,
			Percentage: req.Percentage,
			Label:      req.Label,
		},
		DryRun:          dryRun,
		ExpectedVersion: req.ExpectedVersion,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[periodsapp.ReconcilePricingPeriodCommand, *dto.PeriodPlan](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if !dryRun {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

func (h PeriodsHandler) Delete(c *gin.Context) {
	cmd := periodsapp.DeletePricingPeriodCommand{ListingID: c.Param("id"), PeriodID: c.Param("period_id")}
	if raw := c.Query("expected_version"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badInput(c, err)
			return
		}
		cmd.ExpectedVersion = &v
	}
	result, err := commands.Dispatch[periodsapp.DeletePricingPeriodCommand, *dto.PeriodList](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PeriodsHTTP = PeriodsHandler{}
