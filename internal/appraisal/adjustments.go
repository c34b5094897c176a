package appraisal

import (
	"fmt"
	"time"
)

// adjustmentOrder fixes the sequence adjustments are computed and reported in.
// Paired sales analysis convention: transactional adjustments first, then
// market conditions, then property characteristics.
var adjustmentOrder = []string{
	"property_rights",
	"financing",
	"sale_conditions",
	"market_conditions",
	"location",
	"size",
	"age",
	"condition",
	"construction_quality",
	"functional_utility",
	"lease_terms",
	"tenant_quality",
}

// ApplyAdjustments computes every applicable adjustment for a comparable,
// merges any caller-supplied overrides, and derives the adjusted price.
// Dollar adjustments sum additively; percent adjustments compound. The net
// adjustment fraction is |Σdollar|/salePrice + (Π(1+pct) − 1); a comparable
// over the cap is marked invalid but retained for audit.
func ApplyAdjustments(subject SubjectProperty, c Comparable, market MarketData, userAdj []UserAdjustment, cfg EngineConfig, asOf time.Time) AdjustedComparable {
	adjustments := map[string]Adjustment{}

	record := func(name string, a Adjustment) {
		if a.Amount != 0 {
			adjustments[name] = a
		}
	}

	record("property_rights", propertyRightsAdjustment(subject, c))
	record("financing", financingAdjustment(c, market, cfg))
	record("sale_conditions", saleConditionsAdjustment(c))
	record("market_conditions", timeAdjustment(c, market, cfg, asOf))
	record("location", locationAdjustment(subject, c))
	record("size", sizeAdjustment(subject, c))
	record("age", ageAdjustment(subject, c, asOf))
	record("condition", conditionAdjustment(subject, c))
	record("construction_quality", qualityAdjustment(subject, c))
	record("functional_utility", functionalUtilityAdjustment(subject, c))
	if subject.Income != nil && len(subject.Income.Leases) > 0 && len(c.Leases) > 0 {
		record("lease_terms", leaseTermsAdjustment(subject, c))
		record("tenant_quality", tenantQualityAdjustment(subject, c))
	}

	var notes []string
	for _, ua := range userAdj {
		if ua.ComparableName != c.Name {
			continue
		}
		name := ua.Name
		if name == "" {
			name = "user_adjustment"
		}
		if _, exists := adjustments[name]; exists {
			notes = append(notes, fmt.Sprintf("user adjustment %q overrides computed value", name))
		}
		expl := ua.Explanation
		if expl == "" {
			expl = "caller-supplied adjustment"
		}
		adjustments[name] = Adjustment{Type: ua.Type, Amount: ua.Amount, Explanation: expl, Confidence: ConfidenceMedium}
	}

	dollarTotal := 0.0
	percentFactor := 1.0
	for _, a := range adjustments {
		switch a.Type {
		case AdjustmentDollar:
			dollarTotal += a.Amount
		case AdjustmentPercent:
			percentFactor *= 1 + a.Amount
		}
	}

	adjusted := AdjustedComparable{
		Comparable:    c,
		Adjustments:   adjustments,
		DollarTotal:   dollarTotal,
		PercentFactor: percentFactor,
		AdjustedPrice: (c.SalePrice + dollarTotal) * percentFactor,
		Notes:         notes,
	}
	if c.SalePrice > 0 {
		adjusted.NetAdjustment = abs(dollarTotal)/c.SalePrice + abs(percentFactor-1)
	}
	if c.BuildingArea > 0 {
		adjusted.AdjustedPricePerArea = adjusted.AdjustedPrice / c.BuildingArea
	}
	adjusted.Valid = adjusted.NetAdjustment <= cfg.NetAdjustmentCap
	if !adjusted.Valid {
		adjusted.Notes = append(adjusted.Notes, fmt.Sprintf(
			"net adjustment %.0f%% exceeds %.0f%% cap; excluded from value computation",
			adjusted.NetAdjustment*100, cfg.NetAdjustmentCap*100))
	}
	return adjusted
}

func propertyRightsAdjustment(subject SubjectProperty, c Comparable) Adjustment {
	sr, cr := subject.Legal.PropertyRights, c.PropertyRights
	if sr == "" || cr == "" || sr == cr {
		return Adjustment{Type: AdjustmentPercent}
	}
	switch {
	case sr == RightsFeeSimple && cr == RightsLeasedFee:
		return Adjustment{
			Type: AdjustmentPercent, Amount: 0.05,
			Explanation: "comparable sold leased fee; fee simple interest commands a premium",
			Confidence:  ConfidenceMedium,
		}
	case sr == RightsLeasedFee && cr == RightsFeeSimple:
		return Adjustment{
			Type: AdjustmentPercent, Amount: -0.05,
			Explanation: "comparable sold fee simple; subject interest is encumbered by leases",
			Confidence:  ConfidenceMedium,
		}
	default:
		return Adjustment{
			Type: AdjustmentPercent, Amount: 0.05,
			Explanation: fmt.Sprintf("property rights differ (%s vs %s)", sr, cr),
			Confidence:  ConfidenceLow,
		}
	}
}

func financingAdjustment(c Comparable, market MarketData, cfg EngineConfig) Adjustment {
	if c.FinancingType == FinancingCash || c.FinancingType == "" {
		return Adjustment{Type: AdjustmentPercent}
	}
	if c.InterestRate == nil {
		return Adjustment{Type: AdjustmentPercent}
	}
	marketRate := cfg.Defaults.MarketInterestRate
	if market.MarketRate != nil {
		marketRate = *market.MarketRate
	}
	// Below-market financing inflates the observed price; adjust downward.
	spread := marketRate - *c.InterestRate
	if spread <= 0.005 {
		return Adjustment{Type: AdjustmentPercent}
	}
	amount := spread * 100 * 0.02
	if amount > 0.10 {
		amount = 0.10
	}
	return Adjustment{
		Type: AdjustmentPercent, Amount: -amount,
		Explanation: fmt.Sprintf("financing %.2f points below market rate of %.2f%%", spread*100, marketRate*100),
		Confidence:  ConfidenceMedium,
	}
}

func saleConditionsAdjustment(c Comparable) Adjustment {
	switch c.SaleCondition {
	case SaleDistressed, SaleForeclosure:
		return Adjustment{
			Type: AdjustmentPercent, Amount: 0.15,
			Explanation: "distressed sale; price understates market value",
			Confidence:  ConfidenceMedium,
		}
	case SaleRelatedParty:
		return Adjustment{
			Type: AdjustmentPercent, Amount: 0.05,
			Explanation: "related-party transaction; price may not reflect open-market negotiation",
			Confidence:  ConfidenceLow,
		}
	case SaleAuction:
		return Adjustment{
			Type: AdjustmentPercent, Amount: 0.08,
			Explanation: "auction sale; compressed marketing period",
			Confidence:  ConfidenceMedium,
		}
	default:
		return Adjustment{Type: AdjustmentPercent}
	}
}

func timeAdjustment(c Comparable, market MarketData, cfg EngineConfig, asOf time.Time) Adjustment {
	if c.SaleDate.IsZero() {
		return Adjustment{Type: AdjustmentPercent}
	}
	months := monthsBetween(c.SaleDate, asOf)
	if months <= 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	rate := cfg.Defaults.AppreciationRate
	if market.AnnualAppreciationRate != nil {
		rate = *market.AnnualAppreciationRate
	}
	amount := clamp(float64(months)*(rate/12), -0.15, 0.25)
	conf := ConfidenceHigh
	if months > 12 {
		conf = ConfidenceMedium
	}
	return Adjustment{
		Type: AdjustmentPercent, Amount: amount,
		Explanation: fmt.Sprintf("%d months of market movement at %.1f%% annual appreciation", months, rate*100),
		Confidence:  conf,
	}
}

func locationAdjustment(subject SubjectProperty, c Comparable) Adjustment {
	total := 0.0
	if subject.Location.NeighborhoodRating > 0 && c.NeighborhoodRating > 0 {
		total += float64(subject.Location.NeighborhoodRating-c.NeighborhoodRating) * 0.02
	}
	if subject.Location.TransportationScore > 0 && c.TransportationScore > 0 {
		total += float64(subject.Location.TransportationScore-c.TransportationScore) * 0.01
	}
	if subject.Location.DistanceFromCBD > 0 && c.DistanceFromCBD > 0 {
		// Closer to the CBD is superior; only material gaps matter.
		delta := c.DistanceFromCBD - subject.Location.DistanceFromCBD
		if abs(delta) > 2 {
			total += delta * 0.005
		}
	}
	amount := clamp(total, -0.20, 0.20)
	if amount == 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	return Adjustment{
		Type: AdjustmentPercent, Amount: amount,
		Explanation: "location differences in neighborhood, access, and CBD proximity",
		Confidence:  ConfidenceMedium,
	}
}

// sizeAdjustment reflects economies of scale: larger buildings trade at lower
// unit prices, so a larger comparable understates the subject's unit value.
func sizeAdjustment(subject SubjectProperty, c Comparable) Adjustment {
	if subject.Physical.GrossBuildingArea <= 0 || c.BuildingArea <= 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	ratio := c.BuildingArea / subject.Physical.GrossBuildingArea
	var amount float64
	switch {
	case ratio > 1.5:
		amount = (ratio - 1) * 0.1
		if amount > 0.15 {
			amount = 0.15
		}
	case ratio < 0.67:
		amount = (1 - ratio) * -0.1
		if amount < -0.15 {
			amount = -0.15
		}
	default:
		return Adjustment{Type: AdjustmentPercent}
	}
	return Adjustment{
		Type: AdjustmentPercent, Amount: amount,
		Explanation: fmt.Sprintf("comparable is %.1fx the subject's size; economies of scale", ratio),
		Confidence:  ConfidenceMedium,
	}
}

func ageAdjustment(subject SubjectProperty, c Comparable, asOf time.Time) Adjustment {
	if subject.Physical.YearBuilt <= 0 || c.YearBuilt <= 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	compAge := yearsOld(c.YearBuilt, asOf)
	subjAge := yearsOld(subject.Physical.YearBuilt, asOf)
	amount := clamp(float64(compAge-subjAge)*-0.005, -0.20, 0.20)
	if amount == 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	return Adjustment{
		Type: AdjustmentPercent, Amount: amount,
		Explanation: fmt.Sprintf("comparable is %d years old vs subject's %d", compAge, subjAge),
		Confidence:  ConfidenceHigh,
	}
}

func conditionAdjustment(subject SubjectProperty, c Comparable) Adjustment {
	if subject.Physical.Condition == "" || c.Condition == "" {
		return Adjustment{Type: AdjustmentPercent}
	}
	amount := clamp((conditionScore(subject.Physical.Condition)-conditionScore(c.Condition))*0.05, -0.20, 0.20)
	if amount == 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	return Adjustment{
		Type: AdjustmentPercent, Amount: amount,
		Explanation: fmt.Sprintf("condition %s vs comparable's %s", subject.Physical.Condition, c.Condition),
		Confidence:  ConfidenceMedium,
	}
}

func qualityAdjustment(subject SubjectProperty, c Comparable) Adjustment {
	if subject.Physical.ConstructionType == "" || c.ConstructionType == "" {
		return Adjustment{Type: AdjustmentPercent}
	}
	subjScore := constructionQualityScore(subject.Physical.ConstructionType, subject.Physical.FinishLevel)
	compScore := constructionQualityScore(c.ConstructionType, c.FinishLevel)
	amount := clamp((subjScore-compScore)*0.03, -0.15, 0.15)
	if amount == 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	return Adjustment{
		Type: AdjustmentPercent, Amount: amount,
		Explanation: fmt.Sprintf("construction quality %s/%s vs %s/%s",
			subject.Physical.ConstructionType, subject.Physical.FinishLevel, c.ConstructionType, c.FinishLevel),
		Confidence: ConfidenceMedium,
	}
}

func functionalUtilityAdjustment(subject SubjectProperty, c Comparable) Adjustment {
	total := 0.0
	if subject.Physical.HVACScore > 0 && c.HVACScore > 0 {
		total += float64(subject.Physical.HVACScore-c.HVACScore) * 0.02
	}
	if subject.Physical.GrossBuildingArea > 0 && c.BuildingArea > 0 &&
		subject.Physical.ParkingSpaces > 0 && c.ParkingSpaces > 0 {
		subjRatio := float64(subject.Physical.ParkingSpaces) / (subject.Physical.GrossBuildingArea / 1000)
		compRatio := float64(c.ParkingSpaces) / (c.BuildingArea / 1000)
		total += (subjRatio - compRatio) * 0.01
	}
	switch subject.PropertyType {
	case PropertyIndustrial, PropertyWarehouse:
		total += float64(subject.Physical.LoadingDocks-c.LoadingDocks) * 0.005
	}
	amount := clamp(total, -0.10, 0.10)
	if amount == 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	return Adjustment{
		Type: AdjustmentPercent, Amount: amount,
		Explanation: "functional utility differences in HVAC, parking, and loading",
		Confidence:  ConfidenceLow,
	}
}

func leaseTermsAdjustment(subject SubjectProperty, c Comparable) Adjustment {
	subjAvg := averageLeaseMonths(subject.Income.Leases)
	compAvg := averageLeaseMonths(c.Leases)
	if subjAvg == 0 || compAvg == 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	amount := clamp((subjAvg-compAvg)*0.001, -0.05, 0.05)
	if amount == 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	return Adjustment{
		Type: AdjustmentPercent, Amount: amount,
		Explanation: fmt.Sprintf("average remaining lease term %.0f months vs comparable's %.0f", subjAvg, compAvg),
		Confidence:  ConfidenceLow,
	}
}

func tenantQualityAdjustment(subject SubjectProperty, c Comparable) Adjustment {
	subjScore := tenantQualityScore(subject.Income.Leases)
	compScore := tenantQualityScore(c.Leases)
	if subjScore == 0 || compScore == 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	amount := clamp((subjScore-compScore)*0.02, -0.10, 0.10)
	if amount == 0 {
		return Adjustment{Type: AdjustmentPercent}
	}
	return Adjustment{
		Type: AdjustmentPercent, Amount: amount,
		Explanation: fmt.Sprintf("tenant credit quality %.1f vs comparable's %.1f on a 1-5 scale", subjScore, compScore),
		Confidence:  ConfidenceLow,
	}
}

func averageLeaseMonths(leases []Lease) float64 {
	if len(leases) == 0 {
		return 0
	}
	total := 0.0
	for _, l := range leases {
		total += float64(l.LeaseLengthMonths)
	}
	return total / float64(len(leases))
}

// tenantQualityScore is the square-footage-weighted average of each tenant's
// credit rating score, nudged for lease commitment length.
func tenantQualityScore(leases []Lease) float64 {
	totalSF, weighted := 0.0, 0.0
	for _, l := range leases {
		if l.SquareFeet <= 0 {
			continue
		}
		score := creditRatingScore(l.CreditRating)
		if l.LeaseLengthMonths >= 120 {
			score += 0.5
		} else if l.LeaseLengthMonths > 0 && l.LeaseLengthMonths < 36 {
			score -= 0.5
		}
		weighted += clamp(score, 1, 5) * l.SquareFeet
		totalSF += l.SquareFeet
	}
	if totalSF == 0 {
		return 0
	}
	return weighted / totalSF
}
