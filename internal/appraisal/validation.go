package appraisal

import (
	"fmt"
	"time"
)

// Validate checks the subject, comparables, market data, and user-supplied
// adjustments for completeness and plausibility. It is a pure function: no
// defaults are applied here, only recorded as assumptions the engine will
// make. Errors are fatal to the run; warnings are disclosed in the result.
func Validate(subject SubjectProperty, comps []Comparable, market MarketData, userAdj []UserAdjustment, cfg EngineConfig, asOf time.Time) ValidationResult {
	var errs, warns []ValidationIssue
	addErr := func(field, msg string) {
		errs = append(errs, ValidationIssue{Field: field, Message: msg, Severity: SeverityError})
	}
	addWarn := func(field, msg string) {
		warns = append(warns, ValidationIssue{Field: field, Message: msg, Severity: SeverityWarning})
	}
	highWeightWarnings := 0

	// Required subject fields.
	if subject.PropertyType == "" {
		addErr("subject.property_type", "property type is required")
	}
	if subject.Physical.GrossBuildingArea <= 0 {
		addErr("subject.physical.gross_building_area", "gross building area must be greater than zero")
	}
	if subject.Physical.LandArea <= 0 {
		addErr("subject.physical.land_area", "land area must be greater than zero")
	}
	if subject.Physical.YearBuilt == 0 {
		addErr("subject.physical.year_built", "construction year is required")
	}
	if subject.Location.City == "" || subject.Location.State == "" {
		addErr("subject.location", "city and state are required")
	}

	// Cross-field sanity.
	if subject.Physical.NetRentableArea > 0 && subject.Physical.GrossBuildingArea > 0 &&
		subject.Physical.NetRentableArea > subject.Physical.GrossBuildingArea {
		addErr("subject.physical.net_rentable_area", fmt.Sprintf(
			"net rentable area (%.0f) exceeds gross building area (%.0f)",
			subject.Physical.NetRentableArea, subject.Physical.GrossBuildingArea))
	}
	if subject.Physical.Stories > 0 && subject.Physical.GrossBuildingArea > 0 && subject.Physical.LandArea > 0 {
		footprint := subject.Physical.GrossBuildingArea / float64(subject.Physical.Stories)
		if footprint > subject.Physical.LandArea {
			addWarn("subject.physical.land_area", fmt.Sprintf(
				"building footprint (%.0f) exceeds land area (%.0f)", footprint, subject.Physical.LandArea))
		}
	}
	if subject.Physical.YearBuilt > asOf.Year() {
		addErr("subject.physical.year_built", fmt.Sprintf("year built %d is in the future", subject.Physical.YearBuilt))
	} else if age := yearsOld(subject.Physical.YearBuilt, asOf); subject.Physical.YearBuilt > 0 && age > cfg.MaxConstructionAge {
		addWarn("subject.physical.year_built", fmt.Sprintf("construction age %d years exceeds %d", age, cfg.MaxConstructionAge))
	}

	// Comparables. Too few is fatal only to the sales comparison approach,
	// which enforces its own minimum; here it is a high-weight warning.
	if len(comps) < cfg.MinComparables {
		addWarn("comparables", fmt.Sprintf("at least %d comparable properties are expected, got %d; sales comparison will not run", cfg.MinComparables, len(comps)))
		highWeightWarnings++
	}
	seen := map[string]int{}
	for i, c := range comps {
		prefix := fmt.Sprintf("comparables[%d]", i)
		if c.SalePrice <= 0 {
			addErr(prefix+".sale_price", "sale price must be greater than zero")
		}
		if c.BuildingArea <= 0 {
			addErr(prefix+".building_area", "building area must be greater than zero")
		}
		if c.SaleDate.IsZero() {
			addErr(prefix+".sale_date", "sale date is required")
		} else if c.SaleDate.After(asOf) {
			addErr(prefix+".sale_date", "sale date is in the future")
		} else {
			switch months := monthsBetween(c.SaleDate, asOf); {
			case months > 24:
				addWarn(prefix+".sale_date", fmt.Sprintf("sale is %d months old; market conditions adjustment will be significant", months))
				highWeightWarnings++
			case months > 12:
				addWarn(prefix+".sale_date", fmt.Sprintf("sale is %d months old", months))
			}
		}
		if c.PropertyType == "" {
			addWarn(prefix+".property_type", "property type missing; type compatibility cannot be verified")
		}
		if c.SalePrice > 0 && c.BuildingArea > 0 {
			ppa := c.SalePrice / c.BuildingArea
			if ppa < cfg.PricePerAreaMin || ppa > cfg.PricePerAreaMax {
				addWarn(prefix+".sale_price", fmt.Sprintf(
					"price per area $%.2f outside plausible band ($%.0f-$%.0f)", ppa, cfg.PricePerAreaMin, cfg.PricePerAreaMax))
			}
		}
		key := fmt.Sprintf("%s|%.0f|%s", c.Name, c.SalePrice, c.SaleDate.Format("2006-01-02"))
		if prev, ok := seen[key]; ok {
			addWarn(prefix, fmt.Sprintf("likely duplicate of comparables[%d] (same name, price, and sale date)", prev))
		} else {
			seen[key] = i
		}
	}

	// Market data plausibility.
	for pt, rate := range market.CapRates {
		if rate < cfg.CapRateBandMin || rate > cfg.CapRateBandMax {
			addWarn("market.cap_rates."+string(pt), fmt.Sprintf(
				"cap rate %.2f%% outside expected band (%.0f%%-%.0f%%)", rate*100, cfg.CapRateBandMin*100, cfg.CapRateBandMax*100))
		}
	}
	if len(market.CapRates) == 0 {
		addWarn("market.cap_rates", "no capitalization rate data supplied; income approach will use table defaults")
		highWeightWarnings++
	}
	for pt, ratio := range market.ExpenseRatios {
		if ratio < cfg.ExpenseRatioBandMin || ratio > cfg.ExpenseRatioBandMax {
			addWarn("market.expense_ratios."+string(pt), fmt.Sprintf(
				"expense ratio %.0f%% outside expected band (%.0f%%-%.0f%%)", ratio*100, cfg.ExpenseRatioBandMin*100, cfg.ExpenseRatioBandMax*100))
		}
	}

	// User-supplied adjustments.
	totals := map[string]float64{}
	for i, a := range userAdj {
		var fraction float64
		switch a.Type {
		case AdjustmentPercent:
			fraction = a.Amount
		case AdjustmentDollar:
			for _, c := range comps {
				if c.Name == a.ComparableName && c.SalePrice > 0 {
					fraction = a.Amount / c.SalePrice
					break
				}
			}
		}
		if abs(fraction) > cfg.SingleAdjustmentFlag {
			addWarn(fmt.Sprintf("user_adjustments[%d]", i), fmt.Sprintf(
				"adjustment %q on %q is %.0f%% of sale price, above the %.0f%% flag threshold",
				a.Name, a.ComparableName, abs(fraction)*100, cfg.SingleAdjustmentFlag*100))
		}
		totals[a.ComparableName] += abs(fraction)
	}
	for name, total := range totals {
		if total > cfg.TotalAdjustmentFlag {
			addWarn("user_adjustments", fmt.Sprintf(
				"total adjustments on %q reach %.0f%% of sale price, above the %.0f%% flag threshold",
				name, total*100, cfg.TotalAdjustmentFlag*100))
		}
	}

	weightedWarnings := len(warns) + (cfg.HighWeightWarningMultiplier-1)*highWeightWarnings
	quality := 100 - cfg.ErrorPenalty*len(errs) - cfg.WarningPenalty*weightedWarnings
	if quality < 0 {
		quality = 0
	}

	return ValidationResult{
		IsValid:      len(errs) == 0,
		Errors:       errs,
		Warnings:     warns,
		QualityScore: quality,
		Completeness: completeness(subject, comps, market),
	}
}

func completeness(subject SubjectProperty, comps []Comparable, market MarketData) DataCompleteness {
	subjectFields := []bool{
		subject.PropertyType != "",
		subject.Physical.GrossBuildingArea > 0,
		subject.Physical.NetRentableArea > 0,
		subject.Physical.LandArea > 0,
		subject.Physical.YearBuilt > 0,
		subject.Physical.ConstructionType != "",
		subject.Physical.Condition != "",
		subject.Legal.Zoning != "",
		subject.Legal.PropertyRights != "",
		subject.Location.City != "",
		subject.Location.NeighborhoodRating > 0,
		subject.Income != nil,
		subject.Expenses != nil,
	}

	compTotal, compPresent := 0, 0
	for _, c := range comps {
		fields := []bool{
			c.SalePrice > 0,
			!c.SaleDate.IsZero(),
			c.BuildingArea > 0,
			c.PropertyType != "",
			c.YearBuilt > 0,
			c.Condition != "",
			c.City != "",
			c.SaleCondition != "",
			c.FinancingType != "",
			c.CapRate != nil,
		}
		compTotal += len(fields)
		compPresent += countTrue(fields)
	}

	marketFields := []bool{
		len(market.CapRates) > 0,
		len(market.ExpenseRatios) > 0,
		len(market.ConstructionCosts) > 0,
		len(market.LandSales) > 0,
		market.AnnualAppreciationRate != nil,
		market.Condition != "",
	}

	d := DataCompleteness{
		SubjectPct: pct(countTrue(subjectFields), len(subjectFields)),
		MarketPct:  pct(countTrue(marketFields), len(marketFields)),
	}
	if compTotal > 0 {
		d.ComparablePct = pct(compPresent, compTotal)
	}

	// Record the defaults the engine will assume for missing market inputs,
	// so callers can see supplied versus assumed values.
	record := func(field, value string) {
		d.AssumedDefaults = append(d.AssumedDefaults, AssumedDefault{Field: field, Value: value, Source: "market_defaults"})
	}
	if len(market.CapRates) == 0 {
		record("market.cap_rates", "property-type cap rate table")
	}
	if len(market.ExpenseRatios) == 0 {
		record("market.expense_ratios", "property-type expense ratio table")
	}
	if len(market.ConstructionCosts) == 0 {
		record("market.construction_costs", "property-type construction cost table")
	}
	if market.AnnualAppreciationRate == nil {
		record("market.annual_appreciation_rate", "3.0% per year")
	}
	if len(market.LandSales) == 0 {
		record("market.land_sales", "zoning-based land value table")
	}
	return d
}

func countTrue(fields []bool) int {
	n := 0
	for _, f := range fields {
		if f {
			n++
		}
	}
	return n
}

func pct(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
