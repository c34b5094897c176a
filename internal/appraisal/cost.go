package appraisal

import (
	"fmt"
	"time"
)

// CostApproach values the subject as land plus depreciated replacement cost.
// Improved-sale comparables are only consulted for land-value allocation when
// no usable land sales exist.
func CostApproach(subject SubjectProperty, comps []Comparable, market MarketData, cfg EngineConfig, asOf time.Time) (*CostResult, error) {
	if subject.Physical.GrossBuildingArea <= 0 {
		return nil, fmt.Errorf("cost approach requires a gross building area")
	}

	breakdown := replacementCost(subject, market, cfg)
	breakdown.LandValue, breakdown.LandValueSource = landValue(subject, comps, market, cfg)

	dep := depreciation(subject, breakdown.ReplacementCost, market, cfg, asOf)

	age := yearsOld(subject.Physical.YearBuilt, asOf)
	applicability, confidence := costApplicability(age)

	res := &CostResult{
		ValueIndication: breakdown.LandValue + breakdown.ReplacementCost - dep.Total,
		Breakdown:       breakdown,
		Depreciation:    dep,
		Applicability:   applicability,
		Confidence:      confidence,
		Quality:         qualityLabel(confidence),
	}
	res.Narrative = costNarrative(subject, res, age)
	return res, nil
}

// landValue resolves the land component through three tiers: comparable land
// sales, allocation from improved sales, then the zoning default table.
func landValue(subject SubjectProperty, comps []Comparable, market MarketData, cfg EngineConfig) (float64, string) {
	landArea := subject.Physical.LandArea
	zone := zoningClass(subject.Legal.Zoning)

	var perArea []float64
	for _, ls := range market.LandSales {
		if ls.SalePrice <= 0 || ls.LandArea <= 0 {
			continue
		}
		if zoningClass(ls.Zoning) != zone {
			continue
		}
		ratio := ls.LandArea / landArea
		if ratio < 1/cfg.LandSizeBand || ratio > cfg.LandSizeBand {
			continue
		}
		perArea = append(perArea, ls.SalePrice/ls.LandArea)
	}
	if len(perArea) >= 2 {
		return mean(perArea) * landArea, "comparable_land_sales"
	}

	// Allocation: land typically carries about a fifth of an improved sale.
	perArea = perArea[:0]
	for _, c := range comps {
		if c.SalePrice > 0 && c.LandArea > 0 {
			perArea = append(perArea, c.SalePrice*0.20/c.LandArea)
		}
	}
	if len(perArea) >= 2 {
		return mean(perArea) * landArea, "allocation_from_improved_sales"
	}

	return cfg.Defaults.landValueFor(subject.Legal.Zoning) * landArea, "zoning_default_table"
}

func replacementCost(subject SubjectProperty, market MarketData, cfg EngineConfig) CostBreakdown {
	baseRate, ok := market.ConstructionCosts[subject.PropertyType]
	if !ok {
		baseRate = cfg.Defaults.constructionCostFor(subject.PropertyType)
	}
	quality := qualityCostMultiplier(constructionQualityScore(subject.Physical.ConstructionType, subject.Physical.FinishLevel))
	size := sizeCostMultiplier(subject.Physical.GrossBuildingArea)
	regional := cfg.Defaults.RegionalMultiplier
	if market.RegionalCostMultiplier != nil {
		regional = *market.RegionalCostMultiplier
	}

	b := CostBreakdown{
		BaseCost: baseRate * quality * size * regional * subject.Physical.GrossBuildingArea,
	}
	// Site improvements: parking plus site preparation, utilities, and access
	// folded into a per-land-area rate.
	b.SiteImprovements = float64(subject.Physical.ParkingSpaces)*cfg.ParkingCostPerSpace +
		subject.Physical.LandArea*cfg.Defaults.SitePrepPerLandArea

	subtotal := b.BaseCost + b.SiteImprovements
	b.SoftCosts = subtotal * cfg.SoftCostPct
	b.Profit = subtotal * cfg.ProfitPct
	b.ReplacementCost = subtotal + b.SoftCosts + b.Profit
	return b
}

func depreciation(subject SubjectProperty, replacement float64, market MarketData, cfg EngineConfig, asOf time.Time) DepreciationBreakdown {
	age := float64(yearsOld(subject.Physical.YearBuilt, asOf))
	d := DepreciationBreakdown{
		EffectiveAge: age * effectiveAgeMultiplier(subject.Physical.Condition),
		EconomicLife: cfg.Defaults.economicLifeFor(subject.Physical.ConstructionType, subject.PropertyType),
	}

	// Curable physical items surface as the building slips below average.
	switch {
	case subject.Physical.Condition == ConditionPoor:
		d.PhysicalCurable = replacement * 0.05
	case subject.Physical.Condition == ConditionFair:
		d.PhysicalCurable = replacement * 0.02
	case subject.Physical.Condition == ConditionAverage && age > 20:
		d.PhysicalCurable = replacement * 0.01
	}

	shortShare := 0.0
	for _, comp := range cfg.Defaults.ShortLivedSchedule {
		shortShare += comp.CostShare
		decay := d.EffectiveAge / comp.LifeYears
		if decay > 1 {
			decay = 1
		}
		d.PhysicalShortLived += replacement * comp.CostShare * decay
	}

	longShare := 1 - shortShare
	if longShare > 0 && d.EconomicLife > 0 {
		decay := d.EffectiveAge / d.EconomicLife
		if decay > 1 {
			decay = 1
		}
		d.PhysicalLongLived = replacement * longShare * decay
	}

	d.Functional = functionalObsolescence(subject, replacement)
	d.External = externalObsolescence(subject, market)
	d.Total = d.PhysicalCurable + d.PhysicalShortLived + d.PhysicalLongLived + d.Functional + d.External
	if d.Total > replacement {
		d.Total = replacement
	}
	return d
}

// functionalObsolescence charges fixed penalties for design deficiencies the
// market discounts regardless of physical wear.
func functionalObsolescence(subject SubjectProperty, replacement float64) float64 {
	total := 0.0
	if subject.Physical.HVACScore > 0 && subject.Physical.HVACScore <= 2 {
		total += replacement * 0.03
	}
	if subject.Physical.CeilingHeightFeet > 0 && subject.Physical.CeilingHeightFeet < 9 &&
		subject.PropertyType != PropertyWarehouse && subject.PropertyType != PropertyIndustrial {
		total += replacement * 0.02
	}
	if subject.Physical.GrossBuildingArea > 0 && subject.Physical.ParkingSpaces > 0 {
		ratio := float64(subject.Physical.ParkingSpaces) / (subject.Physical.GrossBuildingArea / 1000)
		if ratio < 2 {
			total += replacement * 0.02
		}
	}
	return total
}

// externalObsolescence applies per-area penalties for conditions outside the
// property lines.
func externalObsolescence(subject SubjectProperty, market MarketData) float64 {
	area := subject.Physical.GrossBuildingArea
	total := 0.0
	declining := market.Condition == MarketDeclining
	if subject.Environmental != nil {
		declining = declining || subject.Environmental.DecliningMarket
		if subject.Environmental.DecliningArea {
			total += area * 5
		}
		total += float64(len(subject.Environmental.Issues)) * area * 3
	}
	if declining {
		total += area * 10
	}
	return total
}

func costApplicability(age int) (Applicability, float64) {
	switch {
	case age < 5:
		return ApplicabilityHigh, 85
	case age < 15:
		return ApplicabilityMedium, 70
	case age < 30:
		return ApplicabilityLow, 55
	default:
		return ApplicabilityVeryLow, 40
	}
}

func costNarrative(subject SubjectProperty, r *CostResult, age int) string {
	return fmt.Sprintf(
		"The cost approach combines a land value of %s (%s) with a replacement cost of %s, "+
			"less total depreciation of %s (effective age %.0f years against a %.0f-year economic life). "+
			"At %d years of actual age the approach carries %s applicability. The indicated value is %s.",
		fmtUSD(r.Breakdown.LandValue), r.Breakdown.LandValueSource, fmtUSD(r.Breakdown.ReplacementCost),
		fmtUSD(r.Depreciation.Total), r.Depreciation.EffectiveAge, r.Depreciation.EconomicLife,
		age, r.Applicability, fmtUSD(r.ValueIndication))
}
