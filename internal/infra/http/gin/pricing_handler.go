package ginserver

import (
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"rentme-pricing/internal/app/commands"
	"rentme-pricing/internal/app/dto"
	pricingapp "rentme-pricing/internal/app/handlers/pricing"
	"rentme-pricing/internal/app/queries"
	domainpricing "rentme-pricing/internal/domain/pricing"
	"rentme-pricing/internal/domain/shared/daterange"
)

type PricingHandler struct {
	Queries  queries.Bus
	Commands commands.Bus
}

// Quote godoc: GET /listings/:id/quote?check_in&check_out&guests&participants&extras&markup
func (h PricingHandler) Quote(c *gin.Context) {
	query := pricingapp.QuoteStayQuery{ListingID: c.Param("id"), Guests: 1}
	var err error
	if query.CheckIn, err = daterange.ParseDate(c.Query("check_in")); err != nil {
		badInput(c, err)
		return
	}
	if raw := c.Query("check_out"); raw != "" {
		if query.CheckOut, err = daterange.ParseDate(raw); err != nil {
			badInput(c, err)
			return
		}
	}
	if query.Guests, err = intQuery(c, "guests", 1); err != nil {
		badInput(c, err)
		return
	}
	if query.Participants, err = intQuery(c, "participants", 0); err != nil {
		badInput(c, err)
		return
	}
	query.Extras = listQuery(c, "extras")
	if raw := c.Query("markup"); raw != "" {
		markup, err := decimal.NewFromString(raw)
		if err != nil {
			badInput(c, err)
			return
		}
		query.MarkupPercent = &markup
	}

	result, err := queries.Ask[pricingapp.QuoteStayQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PricingHandler) PreviewCosts(c *gin.Context) {
	query := pricingapp.PreviewCostsQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[pricingapp.PreviewCostsQuery, dto.CostPreview](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PricingHandler) Calendar(c *gin.Context) {
	from, err := daterange.ParseDate(c.Query("from"))
	if err != nil {
		badInput(c, err)
		return
	}
	to, err := daterange.ParseDate(c.Query("to"))
	if err != nil {
		badInput(c, err)
		return
	}
	query := pricingapp.GetPriceCalendarQuery{ListingID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[pricingapp.GetPriceCalendarQuery, dto.PriceCalendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type payoutRequest struct {
	BrokerID           string           `json:"broker_id"`
	Nightly            int64            `json:"nightly"`
	AdditionalCosts    int64            `json:"additional_costs"`
	Extras             int64            `json:"extras"`
	CityTax            int64            `json:"city_tax"`
	PlatformFeePercent *decimal.Decimal `json:"platform_fee_percent"`
	WithholdingPercent *decimal.Decimal `json:"withholding_percent"`
}

func (h PricingHandler) Payout(c *gin.Context) {
	var req payoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	query := pricingapp.CalculatePayoutQuery{
		BrokerID:           req.BrokerID,
		Nightly:            req.Nightly,
		AdditionalCosts:    req.AdditionalCosts,
		Extras:             req.Extras,
		CityTax:            req.CityTax,
		PlatformFeePercent: req.PlatformFeePercent,
		WithholdingPercent: req.WithholdingPercent,
	}
	result, err := queries.Ask[pricingapp.CalculatePayoutQuery, dto.Payout](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type rulesRequest struct {
	Rules           []domainpricing.Rule `json:"rules"`
	ExpectedVersion *int64               `json:"expected_version"`
}

func (h PricingHandler) SetRules(c *gin.Context) {
	var req rulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	cmd := pricingapp.SetPricingRulesCommand{ListingID: c.Param("id"), Rules: req.Rules, ExpectedVersion: req.ExpectedVersion}
	result, err := commands.Dispatch[pricingapp.SetPricingRulesCommand, *dto.PricingRules](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// listQuery accepts both repeated keys and comma separated values.
func listQuery(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var _ PricingHTTP = PricingHandler{}
