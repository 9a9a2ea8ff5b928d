package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	pricingapp "rentme-pricing/internal/app/handlers/pricing"
	"rentme-pricing/internal/app/handlers/support"
	"rentme-pricing/internal/app/uow"
	"rentme-pricing/internal/domain/costs"
	domainlistings "rentme-pricing/internal/domain/listings"
	domainperiods "rentme-pricing/internal/domain/periods"
	domainpricing "rentme-pricing/internal/domain/pricing"
	"rentme-pricing/internal/domain/settlement"
	"rentme-pricing/internal/domain/shared/daterange"
	"rentme-pricing/internal/domain/shared/money"
)

var badRequest = []error{
	support.ErrInvalidInput,
	daterange.ErrInvalidDate,
	daterange.ErrInvertedSpan,
	money.ErrInvalidCurrency,
	domainpricing.ErrStayTooShort,
	domainpricing.ErrGuestsLimit,
	domainpricing.ErrGuestsRequired,
	domainpricing.ErrCheckOutRequired,
	domainpricing.ErrCheckOutBeforeStay,
	domainpricing.ErrRuleIDRequired,
	domainpricing.ErrRuleNameRequired,
	domainpricing.ErrRuleMultiplier,
	domainpricing.ErrRuleMinNights,
	domainpricing.ErrDuplicateRuleID,
	domainperiods.ErrPriceOrPercentage,
	domainperiods.ErrNegativePrice,
	domainperiods.ErrPercentageRange,
	costs.ErrUnknownUnit,
	settlement.ErrPercentOutOfRange,
}

func statusFor(err error) int {
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	switch {
	case errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainperiods.ErrPeriodNotFound),
		errors.Is(err, settlement.ErrSettingsNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainperiods.ErrConcurrentUpdate),
		errors.Is(err, domainlistings.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, pricingapp.ErrCannotPrice):
		return http.StatusUnprocessableEntity
	case errors.Is(err, uow.ErrUnitOfWorkMissing):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badInput(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
