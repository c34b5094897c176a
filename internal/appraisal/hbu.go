package appraisal

import "fmt"

// candidateUses are the uses considered in highest and best use analysis.
var candidateUses = []PropertyType{
	PropertyOffice, PropertyRetail, PropertyIndustrial,
	PropertyWarehouse, PropertyMultifamily, PropertyMixedUse,
}

// floorAreaRatio approximates buildable intensity per use.
var floorAreaRatio = map[PropertyType]float64{
	PropertyOffice:      2.0,
	PropertyRetail:      0.5,
	PropertyIndustrial:  0.6,
	PropertyWarehouse:   0.6,
	PropertyMultifamily: 1.5,
	PropertyMixedUse:    1.8,
}

// stabilizedNOIPerArea is a coarse per-square-foot NOI proxy used only to
// rank uses against each other, never as a value indication.
var stabilizedNOIPerArea = map[PropertyType]float64{
	PropertyOffice:      18,
	PropertyRetail:      16,
	PropertyIndustrial:  9,
	PropertyWarehouse:   7,
	PropertyMultifamily: 14,
	PropertyMixedUse:    17,
}

// HighestBestUse runs the four-test funnel (legally permissible, physically
// possible, financially feasible, maximally productive) both as vacant and as
// improved. The conclusion feeds property-type context into the approaches
// but never enters the weighted value directly.
func HighestBestUse(subject SubjectProperty, market MarketData, cfg EngineConfig) *HBUResult {
	res := &HBUResult{
		AsVacant:   concludeUse(subject, market, cfg, false),
		AsImproved: concludeUse(subject, market, cfg, true),
	}
	res.ApplicableUse = res.AsImproved.RecommendedUse
	if subject.Physical.GrossBuildingArea <= 0 || subject.PropertyType == PropertyLand {
		res.ApplicableUse = res.AsVacant.RecommendedUse
	}
	return res
}

func concludeUse(subject SubjectProperty, market MarketData, cfg EngineConfig, improved bool) HBUConclusion {
	conclusion := HBUConclusion{}
	var best *UseCandidate
	for _, use := range candidateUses {
		c := scoreUse(subject, market, cfg, use, improved)
		conclusion.Candidates = append(conclusion.Candidates, c)
		if !c.LegallyPermissible || !c.PhysicallyPossible || !c.FinanciallyFeasible {
			continue
		}
		if best == nil || c.ProductivityScore > best.ProductivityScore {
			last := len(conclusion.Candidates) - 1
			best = &conclusion.Candidates[last]
		}
	}

	switch {
	case best != nil:
		conclusion.RecommendedUse = best.Use
		conclusion.Narrative = fmt.Sprintf(
			"%s use passed all four tests with a productivity score of %.0f and an estimated contributory value of %s.",
			best.Use, best.ProductivityScore, fmtUSD(best.EstimatedValue))
	case improved && subject.PropertyType != "" && subject.PropertyType != PropertyLand:
		// No candidate cleared the funnel; continuation of the existing use
		// is the default conclusion for an improved property.
		conclusion.RecommendedUse = subject.PropertyType
		conclusion.Narrative = "no alternative use cleared all four tests; continued use of the existing improvements is concluded."
	default:
		conclusion.RecommendedUse = PropertyLand
		conclusion.Narrative = "no candidate use cleared all four tests; the land is concluded to hold for future development."
	}
	return conclusion
}

func scoreUse(subject SubjectProperty, market MarketData, cfg EngineConfig, use PropertyType, improved bool) UseCandidate {
	c := UseCandidate{Use: use}

	c.LegallyPermissible = legallyPermissible(subject.Legal.Zoning, use)
	c.PhysicallyPossible = physicallyPossible(subject, use, improved)
	if !c.LegallyPermissible || !c.PhysicallyPossible {
		return c
	}

	buildable := subject.Physical.LandArea * floorAreaRatio[use]
	if improved && subject.Physical.GrossBuildingArea > 0 {
		buildable = subject.Physical.GrossBuildingArea
	}

	capRate, ok := market.CapRates[use]
	if !ok {
		capRate = cfg.Defaults.capRateFor(use)
	}
	c.EstimatedValue = buildable * stabilizedNOIPerArea[use] / capRate

	devCost := cfg.Defaults.constructionCostFor(use) * buildable
	landCost := cfg.Defaults.landValueFor(subject.Legal.Zoning) * subject.Physical.LandArea
	basis := devCost + landCost
	if improved {
		// Existing improvements are sunk; conversion is charged instead.
		basis = landCost + devCost*conversionCostShare(subject.PropertyType, use)
	}

	roi := 0.0
	if basis > 0 {
		roi = (c.EstimatedValue - basis) / basis
	}
	c.FinanciallyFeasible = roi > 0
	c.ROIScore = clampScore(50 + roi*100)
	c.StabilityScore = stabilityScore(use, market.Condition)
	c.ProductivityScore = 0.7*c.ROIScore + 0.3*c.StabilityScore
	return c
}

func legallyPermissible(zoning string, use PropertyType) bool {
	switch zoningClass(zoning) {
	case "commercial":
		return use == PropertyOffice || use == PropertyRetail || use == PropertyMixedUse
	case "industrial":
		return use == PropertyIndustrial || use == PropertyWarehouse
	case "residential":
		return use == PropertyMultifamily
	case "mixed":
		return use != PropertyIndustrial && use != PropertyWarehouse
	default:
		return true
	}
}

func physicallyPossible(subject SubjectProperty, use PropertyType, improved bool) bool {
	if subject.Physical.LandArea <= 0 {
		return false
	}
	// Minimum viable parcel by use.
	minLand := map[PropertyType]float64{
		PropertyOffice:      10000,
		PropertyRetail:      8000,
		PropertyIndustrial:  40000,
		PropertyWarehouse:   40000,
		PropertyMultifamily: 15000,
		PropertyMixedUse:    12000,
	}
	if subject.Physical.LandArea < minLand[use] {
		return false
	}
	if improved && subject.Physical.GrossBuildingArea > 0 && subject.PropertyType != "" {
		// Improvements constrain conversion to structurally compatible uses.
		return typesCompatible(subject.PropertyType, use) || typesCompatible(use, subject.PropertyType)
	}
	return true
}

// conversionCostShare estimates how much of new-construction cost a change of
// use would consume. Staying in the current use costs nothing.
func conversionCostShare(current, target PropertyType) float64 {
	if current == target {
		return 0
	}
	if typesCompatible(current, target) {
		return 0.35
	}
	return 0.75
}

func stabilityScore(use PropertyType, cond MarketCondition) float64 {
	score := 70.0
	switch cond {
	case MarketGrowing:
		score = 80
	case MarketDeclining:
		score = 50
	}
	switch use {
	case PropertyMultifamily:
		score += 10
	case PropertyRetail:
		score -= 10
	}
	return clampScore(score)
}
