package appraisal

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNoIncomeData is returned when the income approach is requested for a
// subject without income and expense records. The approach fails rather than
// fabricating a rent roll.
var ErrNoIncomeData = errors.New("subject income and expense data are required for the income capitalization approach")

// expenseLines fixes the order expense lines appear in statements.
var expenseLines = []string{"taxes", "insurance", "utilities", "maintenance", "management", "reserves"}

// IncomeCapitalization values the subject by direct capitalization of
// stabilized NOI, supported by a ten-year discounted cash flow when growth
// assumptions are available.
func IncomeCapitalization(subject SubjectProperty, market MarketData, cfg EngineConfig, asOf time.Time) (*IncomeResult, error) {
	if subject.Income == nil || subject.Expenses == nil {
		return nil, ErrNoIncomeData
	}

	pgi := subject.Income.PotentialGrossIncome
	if pgi <= 0 {
		for _, l := range subject.Income.Leases {
			pgi += l.AnnualRent
		}
	}
	if pgi <= 0 {
		return nil, ErrNoIncomeData
	}

	defaulted := 0
	vacancy := cfg.Defaults.VacancyRate
	switch {
	case subject.Income.VacancyRate != nil:
		vacancy = *subject.Income.VacancyRate
	case market.VacancyRate != nil:
		vacancy = *market.VacancyRate
	default:
		defaulted++
	}

	stmt := IncomeStatement{
		PotentialGrossIncome: pgi,
		VacancyLoss:          pgi * vacancy,
		OtherIncome:          subject.Income.OtherIncome,
		Expenses:             map[string]float64{},
	}
	stmt.EffectiveGrossIncome = pgi - stmt.VacancyLoss + stmt.OtherIncome

	ratios := cfg.Defaults.expenseRatiosFor(subject.PropertyType)
	lineRatio := map[string]float64{
		"taxes": ratios.Taxes, "insurance": ratios.Insurance, "utilities": ratios.Utilities,
		"maintenance": ratios.Maintenance, "management": ratios.Management, "reserves": ratios.Reserves,
	}
	lineValue := map[string]*float64{
		"taxes": subject.Expenses.Taxes, "insurance": subject.Expenses.Insurance,
		"utilities": subject.Expenses.Utilities, "maintenance": subject.Expenses.Maintenance,
		"management": subject.Expenses.Management, "reserves": subject.Expenses.Reserves,
	}
	for _, line := range expenseLines {
		if v := lineValue[line]; v != nil {
			stmt.Expenses[line] = *v
		} else {
			stmt.Expenses[line] = stmt.EffectiveGrossIncome * lineRatio[line]
			defaulted++
		}
		stmt.TotalExpenses += stmt.Expenses[line]
	}
	stmt.NetOperatingIncome = stmt.EffectiveGrossIncome - stmt.TotalExpenses

	capRate, capRateSupported := riskAdjustedCapRate(subject, market, cfg, asOf)
	directCap := stmt.NetOperatingIncome / capRate

	res := &IncomeResult{
		ValueIndication: directCap,
		DirectCapValue:  directCap,
		CapRate:         capRate,
		Statement:       stmt,
	}
	res.DCF = projectCashFlows(stmt, capRate, market, cfg)

	conf := 100.0
	conf -= float64(defaulted) * 4
	if !capRateSupported {
		conf -= 15
	}
	if len(subject.Income.Leases) == 0 {
		conf -= 10
	}
	if stmt.NetOperatingIncome <= 0 {
		conf -= 30
	}
	res.Confidence = clampScore(conf)
	res.Quality = qualityLabel(res.Confidence)
	res.Narrative = incomeNarrative(subject, res, defaulted)
	return res, nil
}

// riskAdjustedCapRate starts from the market base rate for the property type
// and moves it for property-specific risk, clamped to the credible band.
// The second return reports whether the base rate came from supplied market
// data rather than the default table.
func riskAdjustedCapRate(subject SubjectProperty, market MarketData, cfg EngineConfig, asOf time.Time) (float64, bool) {
	base, supported := market.CapRates[subject.PropertyType]
	if !supported {
		base = cfg.Defaults.capRateFor(subject.PropertyType)
	}

	rate := base
	switch {
	case subject.Location.NeighborhoodRating >= 4:
		rate -= 0.005
	case subject.Location.NeighborhoodRating > 0 && subject.Location.NeighborhoodRating <= 2:
		rate += 0.005
	}
	if subject.Income != nil {
		switch tq := tenantQualityScore(subject.Income.Leases); {
		case tq >= 4:
			rate -= 0.0025
		case tq > 0 && tq < 3:
			rate += 0.005
		}
	}
	if yearsOld(subject.Physical.YearBuilt, asOf) > 30 {
		rate += 0.0025
	}
	if subject.Physical.Condition != "" && conditionScore(subject.Physical.Condition) < 3 {
		rate += 0.005
	}
	return clamp(rate, cfg.CapRateFloor, cfg.CapRateCeiling), supported
}

// projectCashFlows grows effective gross income and expenses independently,
// capitalizes terminal NOI at the direct rate plus a spread, and discounts
// everything back to present value.
func projectCashFlows(stmt IncomeStatement, capRate float64, market MarketData, cfg EngineConfig) *DCFProjection {
	incomeGrowth := cfg.Defaults.IncomeGrowthRate
	if market.IncomeGrowthRate != nil {
		incomeGrowth = *market.IncomeGrowthRate
	}
	expenseGrowth := cfg.Defaults.ExpenseGrowthRate
	if market.ExpenseGrowthRate != nil {
		expenseGrowth = *market.ExpenseGrowthRate
	}
	discount := capRate + cfg.DiscountSpread
	if market.DiscountRate != nil {
		discount = *market.DiscountRate
	}

	p := &DCFProjection{
		DiscountRate: discount,
		TerminalCap:  capRate + cfg.TerminalCapSpread,
	}
	total := 0.0
	for year := 1; year <= cfg.DCFYears; year++ {
		egi := stmt.EffectiveGrossIncome * math.Pow(1+incomeGrowth, float64(year))
		exp := stmt.TotalExpenses * math.Pow(1+expenseGrowth, float64(year))
		noi := egi - exp
		pv := noi / math.Pow(1+discount, float64(year))
		p.Years = append(p.Years, CashFlowYear{Year: year, NOI: noi, Present: pv})
		total += pv
	}

	terminalNOI := stmt.EffectiveGrossIncome*math.Pow(1+incomeGrowth, float64(cfg.DCFYears+1)) -
		stmt.TotalExpenses*math.Pow(1+expenseGrowth, float64(cfg.DCFYears+1))
	p.TerminalValue = terminalNOI / p.TerminalCap
	p.TerminalPV = p.TerminalValue / math.Pow(1+discount, float64(cfg.DCFYears))
	p.Value = total + p.TerminalPV
	return p
}

func incomeNarrative(subject SubjectProperty, r *IncomeResult, defaulted int) string {
	s := fmt.Sprintf(
		"The income capitalization approach derived a stabilized net operating income of %s from an effective gross income of %s. "+
			"Direct capitalization at %.2f%% indicates a value of %s.",
		fmtUSD(r.Statement.NetOperatingIncome), fmtUSD(r.Statement.EffectiveGrossIncome),
		r.CapRate*100, fmtUSD(r.DirectCapValue))
	if r.DCF != nil {
		s += fmt.Sprintf(" A %d-year discounted cash flow at %.2f%% supports a value of %s.",
			len(r.DCF.Years), r.DCF.DiscountRate*100, fmtUSD(r.DCF.Value))
	}
	if defaulted > 0 {
		s += fmt.Sprintf(" %d input assumptions were drawn from market default tables.", defaulted)
	}
	return s
}
