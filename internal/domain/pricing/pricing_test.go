package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentme-pricing/internal/domain/shared/daterange"
)

func day(raw string) daterange.Date {
	return daterange.MustParseDate(raw)
}

func TestResolveNightlyRateHighestPriorityWins(t *testing.T) {
	pc := Context{
		BasePrice: 10000,
		Rules: []Rule{
			{ID: "summer", Name: "Summer", StartDate: day("2025-07-01"), EndDate: day("2025-07-31"), Multiplier: 150, Priority: 0, Active: true},
			{ID: "festival", Name: "Festival", StartDate: day("2025-07-10"), EndDate: day("2025-07-12"), Multiplier: 200, Priority: 10, Active: true},
		},
	}

	rate := ResolveNightlyRate(day("2025-07-11"), pc)
	assert.Equal(t, int64(20000), rate.Price)
	assert.Equal(t, "Festival", rate.Rule)
	assert.Equal(t, "festival", rate.RuleID)

	rate = ResolveNightlyRate(day("2025-07-20"), pc)
	assert.Equal(t, int64(15000), rate.Price)
	assert.Equal(t, "Summer", rate.Rule)
}

func TestResolveNightlyRateBoundsAreInclusive(t *testing.T) {
	pc := Context{
		BasePrice: 10000,
		Rules: []Rule{
			{ID: "r", Name: "Weekend", StartDate: day("2025-03-07"), EndDate: day("2025-03-09"), Multiplier: 110, Active: true},
		},
	}
	assert.Equal(t, int64(11000), ResolveNightlyRate(day("2025-03-07"), pc).Price)
	assert.Equal(t, int64(11000), ResolveNightlyRate(day("2025-03-09"), pc).Price)
	assert.Equal(t, int64(10000), ResolveNightlyRate(day("2025-03-06"), pc).Price)
	assert.Equal(t, int64(10000), ResolveNightlyRate(day("2025-03-10"), pc).Price)
}

func TestResolveNightlyRateIgnoresInactiveRules(t *testing.T) {
	pc := Context{
		BasePrice: 10000,
		Rules: []Rule{
			{ID: "off", Name: "Disabled", StartDate: day("2025-01-01"), EndDate: day("2025-12-31"), Multiplier: 300, Priority: 100, Active: false},
		},
	}
	rate := ResolveNightlyRate(day("2025-05-05"), pc)
	assert.Equal(t, int64(10000), rate.Price)
	assert.Empty(t, rate.Rule)
}

func TestResolveNightlyRateTieBreakIsOrderIndependent(t *testing.T) {
	early := Rule{ID: "b", Name: "Early", StartDate: day("2025-06-01"), EndDate: day("2025-06-30"), Multiplier: 120, Priority: 5, Active: true}
	late := Rule{ID: "c", Name: "Late", StartDate: day("2025-06-10"), EndDate: day("2025-06-30"), Multiplier: 130, Priority: 5, Active: true}
	twin := Rule{ID: "a", Name: "Twin", StartDate: day("2025-06-10"), EndDate: day("2025-06-20"), Multiplier: 140, Priority: 5, Active: true}

	orders := [][]Rule{
		{early, late, twin},
		{twin, late, early},
		{late, early, twin},
	}
	for _, rules := range orders {
		rate := ResolveNightlyRate(day("2025-06-15"), Context{BasePrice: 10000, Rules: rules})
		assert.Equal(t, "Twin", rate.Rule, "latest start then smallest id wins")
		assert.Equal(t, int64(14000), rate.Price)
	}

	rate := ResolveNightlyRate(day("2025-06-25"), Context{BasePrice: 10000, Rules: []Rule{early, late}})
	assert.Equal(t, "Late", rate.Rule)
}

func TestResolveNightlyRateRoundsHalfAwayFromZero(t *testing.T) {
	pc := Context{
		BasePrice: 201,
		Rules: []Rule{
			{ID: "r", Name: "Half", StartDate: day("2025-01-01"), EndDate: day("2025-01-01"), Multiplier: 50, Active: true},
		},
	}
	// 201 * 0.5 = 100.5
	assert.Equal(t, int64(101), ResolveNightlyRate(day("2025-01-01"), pc).Price)

	pc.BasePrice = 1003
	pc.Rules[0].Multiplier = 10
	// 1003 * 0.1 = 100.3
	assert.Equal(t, int64(100), ResolveNightlyRate(day("2025-01-01"), pc).Price)
}

func TestRuleMinNightsDoesNotFilterResolution(t *testing.T) {
	pc := Context{
		Model:     ModelPerNight,
		BasePrice: 10000,
		Rules: []Rule{
			{ID: "high", Name: "High", StartDate: day("2025-03-01"), EndDate: day("2025-03-31"), Multiplier: 150, MinNights: 7, Priority: 1, Active: true},
		},
	}
	assert.Equal(t, int64(15000), ResolveNightlyRate(day("2025-03-03"), pc).Price)

	b, ok := CalculateBreakdown(Stay{CheckIn: day("2025-03-03"), CheckOut: day("2025-03-06"), Guests: 1}, pc)
	require.True(t, ok)
	assert.Equal(t, int64(45000), b.BaseTotal)
	assert.Equal(t, []string{"High"}, b.AppliedRules)

	for _, rate := range NightlyPrices(Stay{CheckIn: day("2025-03-03"), CheckOut: day("2025-03-06"), Guests: 1}, pc) {
		assert.Equal(t, ResolveNightlyRate(rate.Date, pc), rate)
	}
}

func TestCalculateBreakdownNightlyScenario(t *testing.T) {
	pc := Context{
		Model:       ModelPerNight,
		BasePrice:   10000,
		CleaningFee: 2500,
		Currency:    "EUR",
		Rules: []Rule{
			{ID: "peak", Name: "Peak", StartDate: day("2025-08-02"), EndDate: day("2025-08-03"), Multiplier: 120, Active: true},
		},
	}
	stay := Stay{CheckIn: day("2025-08-01"), CheckOut: day("2025-08-04"), Guests: 2}

	b, ok := CalculateBreakdown(stay, pc)
	require.True(t, ok)
	assert.Equal(t, 3, b.Nights)
	assert.Equal(t, int64(34000), b.BaseTotal)
	assert.Equal(t, int64(2500), b.CleaningFee)
	assert.Equal(t, int64(4380), b.ServiceFee)
	assert.Equal(t, int64(40880), b.Total)
	assert.Equal(t, []string{"Peak"}, b.AppliedRules)
	assert.Equal(t, "EUR", b.Currency)
	assert.True(t, b.Balanced())
}

func TestCalculateBreakdownAppliedRulesInFirstSeenOrder(t *testing.T) {
	pc := Context{
		BasePrice: 10000,
		Rules: []Rule{
			{ID: "b", Name: "Second", StartDate: day("2025-04-03"), EndDate: day("2025-04-04"), Multiplier: 90, Active: true},
			{ID: "a", Name: "First", StartDate: day("2025-04-01"), EndDate: day("2025-04-02"), Multiplier: 110, Active: true},
		},
	}
	b, ok := CalculateBreakdown(Stay{CheckIn: day("2025-04-01"), CheckOut: day("2025-04-05"), Guests: 1}, pc)
	require.True(t, ok)
	assert.Equal(t, []string{"First", "Second"}, b.AppliedRules)
	assert.Equal(t, int64(11000+11000+9000+9000), b.BaseTotal)
}

func TestCalculateBreakdownModels(t *testing.T) {
	checkIn := day("2025-09-10")

	perPerson, ok := CalculateBreakdown(Stay{CheckIn: checkIn, Guests: 3}, Context{Model: ModelPerPerson, BasePrice: 4500})
	require.True(t, ok)
	assert.Equal(t, 1, perPerson.Nights)
	assert.Equal(t, int64(13500), perPerson.BaseTotal)
	assert.Equal(t, int64(1620), perPerson.ServiceFee)
	assert.True(t, perPerson.Balanced())

	fixed, ok := CalculateBreakdown(Stay{CheckIn: checkIn, Guests: 8}, Context{Model: ModelFixed, BasePrice: 30000, CleaningFee: 1000})
	require.True(t, ok)
	assert.Equal(t, 1, fixed.Nights)
	assert.Equal(t, int64(30000), fixed.BaseTotal)
	assert.Equal(t, int64(3720), fixed.ServiceFee)
	assert.Equal(t, int64(34720), fixed.Total)

	_, ok = CalculateBreakdown(Stay{CheckIn: checkIn, Guests: 2}, Context{BasePrice: 1000})
	assert.False(t, ok, "unset model prices per night and needs a check-out")
}

func TestCalculateBreakdownNoResult(t *testing.T) {
	pc := Context{Model: ModelPerNight, BasePrice: 10000}
	checkIn := day("2025-10-10")

	_, ok := CalculateBreakdown(Stay{CheckIn: checkIn, Guests: 1}, pc)
	assert.False(t, ok, "missing check-out")

	_, ok = CalculateBreakdown(Stay{CheckIn: checkIn, CheckOut: checkIn, Guests: 1}, pc)
	assert.False(t, ok, "zero nights")

	_, ok = CalculateBreakdown(Stay{CheckIn: checkIn, CheckOut: checkIn.AddDays(-2), Guests: 1}, pc)
	assert.False(t, ok, "inverted range")

	_, ok = CalculateBreakdown(Stay{CheckIn: checkIn, CheckOut: checkIn.AddDays(-2), Guests: 1}, Context{Model: ModelFixed, BasePrice: 1})
	assert.False(t, ok, "inverted range for fixed model")
}

func TestCalculateBreakdownSumInvariantRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	start := day("2025-01-01")
	models := []Model{ModelPerNight, ModelPerPerson, ModelFixed}

	for i := 0; i < 500; i++ {
		pc := Context{
			Model:       models[rng.Intn(len(models))],
			BasePrice:   rng.Int63n(100000),
			CleaningFee: rng.Int63n(10000),
		}
		for j := 0; j < rng.Intn(4); j++ {
			from := start.AddDays(rng.Intn(60))
			pc.Rules = append(pc.Rules, Rule{
				ID:         string(rune('a' + j)),
				Name:       string(rune('A' + j)),
				StartDate:  from,
				EndDate:    from.AddDays(rng.Intn(20)),
				Multiplier: 1 + rng.Int63n(300),
				Priority:   rng.Intn(3),
				Active:     rng.Intn(4) > 0,
			})
		}
		checkIn := start.AddDays(rng.Intn(60))
		stay := Stay{CheckIn: checkIn, CheckOut: checkIn.AddDays(1 + rng.Intn(21)), Guests: 1 + rng.Intn(6)}

		b, ok := CalculateBreakdown(stay, pc)
		require.True(t, ok)
		require.True(t, b.Balanced(), "iteration %d: %+v", i, b)

		markup := decimal.NewFromInt(int64(rng.Intn(81) - 40))
		marked := ApplyChannelMarkup(b, markup)
		require.True(t, marked.Balanced(), "iteration %d markup %s: %+v", i, markup, marked)
		require.Equal(t, b.CleaningFee, marked.CleaningFee)
	}
}

func TestApplyChannelMarkup(t *testing.T) {
	b := Breakdown{Nights: 3, BaseTotal: 34000, CleaningFee: 2500, ServiceFee: 4380, Total: 40880, AppliedRules: []string{"Peak"}}

	up := ApplyChannelMarkup(b, decimal.NewFromInt(15))
	assert.Equal(t, int64(39100), up.BaseTotal)
	assert.Equal(t, int64(2500), up.CleaningFee)
	assert.Equal(t, int64(5037), up.ServiceFee)
	assert.Equal(t, int64(46637), up.Total)

	down := ApplyChannelMarkup(b, decimal.NewFromInt(-10))
	assert.Equal(t, int64(30600), down.BaseTotal)
	assert.Equal(t, int64(3942), down.ServiceFee)
	assert.Equal(t, int64(37042), down.Total)

	same := ApplyChannelMarkup(b, decimal.Zero)
	assert.Equal(t, b, same)

	up.AppliedRules[0] = "mutated"
	assert.Equal(t, "Peak", b.AppliedRules[0])
}

func TestCalculateSplitScenario(t *testing.T) {
	in := SplitInput{
		Nightly:            80000,
		AdditionalCosts:    10000,
		Extras:             5000,
		CityTax:            3000,
		PlatformFeePercent: decimal.NewFromInt(10),
		WithholdingPercent: decimal.NewFromInt(21),
	}
	s := CalculateSplit(in)
	assert.Equal(t, Split{
		TaxableBase:    90000,
		PlatformFee:    9000,
		WithholdingTax: 18900,
		ApplicationFee: 27900,
		GuestTotal:     98000,
		HostPayout:     70100,
	}, s)
	assert.True(t, s.Reconciles(in))
}

func TestCalculateSplitEdges(t *testing.T) {
	assert.Equal(t, Split{}, CalculateSplit(SplitInput{}))

	drained := CalculateSplit(SplitInput{Nightly: 5000, PlatformFeePercent: decimal.NewFromInt(100)})
	assert.Equal(t, int64(5000), drained.PlatformFee)
	assert.Equal(t, int64(0), drained.HostPayout)

	// 333 * 12.5% = 41.625, 333 * 0.15% = 0.4995
	odd := CalculateSplit(SplitInput{Nightly: 333, PlatformFeePercent: decimal.RequireFromString("12.5"), WithholdingPercent: decimal.RequireFromString("0.15")})
	assert.Equal(t, int64(42), odd.PlatformFee)
	assert.Equal(t, int64(0), odd.WithholdingTax)

	// 50 * 1% = 0.5 rounds up
	half := CalculateSplit(SplitInput{Nightly: 50, PlatformFeePercent: decimal.NewFromInt(1)})
	assert.Equal(t, int64(1), half.PlatformFee)
}

func TestCalculateSplitInvariantsRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		in := SplitInput{
			Nightly:            rng.Int63n(1_000_000),
			AdditionalCosts:    rng.Int63n(100_000),
			Extras:             rng.Int63n(50_000),
			CityTax:            rng.Int63n(20_000),
			PlatformFeePercent: decimal.New(rng.Int63n(10001), -2),
			WithholdingPercent: decimal.New(rng.Int63n(5001), -2),
		}
		s := CalculateSplit(in)
		require.True(t, s.Reconciles(in), "iteration %d", i)
	}
}

func TestValidateStay(t *testing.T) {
	pc := Context{Model: ModelPerNight, MaxGuests: 4, MinNights: 2}
	checkIn := day("2025-05-01")

	assert.NoError(t, ValidateStay(pc, Stay{CheckIn: checkIn, CheckOut: checkIn.AddDays(2), Guests: 4}))
	assert.ErrorIs(t, ValidateStay(pc, Stay{CheckIn: checkIn, CheckOut: checkIn.AddDays(1), Guests: 2}), ErrStayTooShort)
	assert.ErrorIs(t, ValidateStay(pc, Stay{CheckIn: checkIn, CheckOut: checkIn.AddDays(3), Guests: 5}), ErrGuestsLimit)
	assert.ErrorIs(t, ValidateStay(pc, Stay{CheckIn: checkIn, CheckOut: checkIn.AddDays(3)}), ErrGuestsRequired)
	assert.ErrorIs(t, ValidateStay(pc, Stay{CheckIn: checkIn, Guests: 1}), ErrCheckOutRequired)
	assert.ErrorIs(t, ValidateStay(pc, Stay{CheckIn: checkIn, CheckOut: checkIn, Guests: 1}), ErrCheckOutBeforeStay)

	fixed := Context{Model: ModelFixed, MaxGuests: 10}
	assert.NoError(t, ValidateStay(fixed, Stay{CheckIn: checkIn, Guests: 10}))
}

func TestContextValidate(t *testing.T) {
	good := Rule{ID: "r1", Name: "Peak", StartDate: day("2025-01-01"), EndDate: day("2025-01-31"), Multiplier: 120, Active: true}

	assert.NoError(t, Context{BasePrice: 100, Rules: []Rule{good}}.Validate())
	assert.ErrorIs(t, Context{Model: "hourly"}.Validate(), ErrUnknownModel)
	assert.ErrorIs(t, Context{BasePrice: -1}.Validate(), ErrNegativeBasePrice)
	assert.ErrorIs(t, Context{Rules: []Rule{good, good}}.Validate(), ErrDuplicateRuleID)

	inverted := good
	inverted.EndDate = day("2024-12-01")
	assert.ErrorIs(t, inverted.Validate(), daterange.ErrInvertedSpan)

	zero := good
	zero.Multiplier = 0
	assert.ErrorIs(t, zero.Validate(), ErrRuleMultiplier)
}

type fixedNights map[string]int64

func (f fixedNights) Override(d daterange.Date, _ int64) (int64, string, bool) {
	price, ok := f[d.String()]
	return price, "Manual", ok
}

func TestCalculateBreakdownWithOverride(t *testing.T) {
	pc := Context{
		BasePrice:   10000,
		CleaningFee: 2500,
		Rules: []Rule{
			{ID: "peak", Name: "Peak", StartDate: day("2025-08-01"), EndDate: day("2025-08-31"), Multiplier: 120, Active: true},
		},
	}
	stay := Stay{CheckIn: day("2025-08-01"), CheckOut: day("2025-08-04"), Guests: 2}
	ov := fixedNights{"2025-08-02": 7000}

	b, ok := CalculateBreakdownWith(stay, pc, ov)
	require.True(t, ok)
	assert.Equal(t, int64(12000+7000+12000), b.BaseTotal)
	assert.Equal(t, []string{"Peak", "Manual"}, b.AppliedRules)
	assert.True(t, b.Balanced())

	rates := NightlyPricesWith(stay, pc, ov)
	require.Len(t, rates, 3)
	assert.True(t, rates[1].Overridden)
	assert.Equal(t, day("2025-08-02"), rates[1].Date)
	assert.False(t, rates[0].Overridden)

	perPerson := pc
	perPerson.Model = ModelPerPerson
	b, ok = CalculateBreakdownWith(stay, perPerson, ov)
	require.True(t, ok)
	assert.Equal(t, int64(20000), b.BaseTotal)
}
