package appraisal

import (
	"fmt"
	"time"
)

// typeCompatibility lists, per subject type, the comparable types a sales
// grid can credibly bridge with adjustments.
var typeCompatibility = map[PropertyType][]PropertyType{
	PropertyOffice:      {PropertyOffice, PropertyMixedUse},
	PropertyRetail:      {PropertyRetail, PropertyMixedUse},
	PropertyIndustrial:  {PropertyIndustrial, PropertyWarehouse},
	PropertyWarehouse:   {PropertyWarehouse, PropertyIndustrial},
	PropertyMultifamily: {PropertyMultifamily, PropertyMixedUse},
	PropertyMixedUse:    {PropertyMixedUse, PropertyOffice, PropertyRetail, PropertyMultifamily},
	PropertyLand:        {PropertyLand},
}

func typesCompatible(subject, comp PropertyType) bool {
	for _, t := range typeCompatibility[subject] {
		if t == comp {
			return true
		}
	}
	return false
}

// SalesComparison runs the sales comparison approach: verify, rank, select,
// adjust, weight, aggregate. It fails only when fewer than the minimum
// comparables survive verification.
func SalesComparison(subject SubjectProperty, comps []Comparable, market MarketData, userAdj []UserAdjustment, cfg EngineConfig, asOf time.Time) (*SalesComparisonResult, error) {
	verified, flags := verifyComparables(subject, comps, cfg, asOf)
	if len(verified) < cfg.SelectMin {
		return nil, fmt.Errorf("sales comparison requires at least %d verified comparable sales, got %d", cfg.SelectMin, len(verified))
	}

	ranked := Rank(subject, verified, cfg, asOf)
	n := len(ranked)
	if n > cfg.SelectMax {
		n = cfg.SelectMax
	}
	selected := ranked[:n]

	adjusted := make([]AdjustedComparable, 0, n)
	for _, r := range selected {
		a := ApplyAdjustments(subject, r.Comparable, market, userAdj, cfg, asOf)
		if note, ok := flags[r.Name]; ok {
			a.Notes = append(a.Notes, note)
		}
		a.Weight = comparableWeight(a, cfg)
		adjusted = append(adjusted, a)
	}

	var (
		prices      []float64
		weightSum   float64
		weightedPPA float64
		netAdjSum   float64
		saleAgeSum  float64
		validCount  int
	)
	for i := range adjusted {
		a := &adjusted[i]
		netAdjSum += a.NetAdjustment
		saleAgeSum += float64(monthsBetween(a.SaleDate, asOf))
		if !a.Valid {
			a.Weight = 0
			continue
		}
		validCount++
		prices = append(prices, a.AdjustedPricePerArea)
		weightedPPA += a.AdjustedPricePerArea * a.Weight
		weightSum += a.Weight
	}
	if validCount == 0 || weightSum == 0 {
		return nil, fmt.Errorf("no comparable survived the %.0f%% net adjustment cap", cfg.NetAdjustmentCap*100)
	}

	indicatedPPA := weightedPPA / weightSum
	area := subject.Physical.NetRentableArea
	if area <= 0 {
		area = subject.Physical.GrossBuildingArea
	}
	value := indicatedPPA * area

	stats := dispersion(prices)
	spread := clamp(stats.CoefficientOfVariation, 0.05, 0.15)

	res := &SalesComparisonResult{
		ValueIndication: value,
		ValueRange:      ValueRange{Low: value * (1 - spread), High: value * (1 + spread)},
		Comparables:     adjusted,
		Stats:           stats,
		ValidCount:      validCount,
		AvgNetAdj:       netAdjSum / float64(len(adjusted)),
		AvgSaleAgeMo:    saleAgeSum / float64(len(adjusted)),
	}
	res.Confidence, res.Quality = salesConfidence(res)
	res.Narrative = salesNarrative(subject, res)
	return res, nil
}

// verifyComparables drops disqualifying transactions and returns notes for
// the ones kept with reservations.
func verifyComparables(subject SubjectProperty, comps []Comparable, cfg EngineConfig, asOf time.Time) ([]Comparable, map[string]string) {
	kept := make([]Comparable, 0, len(comps))
	flags := map[string]string{}
	for _, c := range comps {
		if c.SalePrice <= 0 || c.BuildingArea <= 0 || c.SaleDate.IsZero() {
			continue
		}
		months := monthsBetween(c.SaleDate, asOf)
		if months > cfg.MaxSaleAgeMonths {
			continue
		}
		if c.PropertyType != "" && !typesCompatible(subject.PropertyType, c.PropertyType) {
			continue
		}
		if subject.Physical.GrossBuildingArea > 0 {
			ratio := c.BuildingArea / subject.Physical.GrossBuildingArea
			if ratio < cfg.SizeRatioMin || ratio > cfg.SizeRatioMax {
				continue
			}
		}
		switch {
		case c.SaleCondition == SaleDistressed || c.SaleCondition == SaleForeclosure:
			flags[c.Name] = "distressed sale retained; conditions adjustment applied"
		case months > 24:
			flags[c.Name] = fmt.Sprintf("sale is %d months old; relies heavily on market conditions adjustment", months)
		}
		kept = append(kept, c)
	}
	return kept, flags
}

// comparableWeight discounts a comparable by how much adjustment it needed.
// Heavy location or market-conditions adjustments carry extra uncertainty.
func comparableWeight(a AdjustedComparable, cfg EngineConfig) float64 {
	w := 1.0 - minF(cfg.NetAdjustmentCap, a.NetAdjustment)
	if loc, ok := a.Adjustments["location"]; ok && abs(loc.Amount) > 0.10 {
		w *= 0.9
	}
	if mc, ok := a.Adjustments["market_conditions"]; ok && abs(mc.Amount) > 0.10 {
		w *= 0.9
	}
	if w < 0.1 {
		w = 0.1
	}
	return w
}

func salesConfidence(r *SalesComparisonResult) (float64, ConfidenceLevel) {
	conf := 100.0
	if r.ValidCount < 4 {
		conf -= 10
	}
	if r.ValidCount < 3 {
		conf -= 20
	}
	switch {
	case r.AvgNetAdj > 0.40:
		conf -= 25
	case r.AvgNetAdj > 0.30:
		conf -= 15
	}
	if r.Stats.CoefficientOfVariation > 0.15 {
		conf -= 20
	}
	switch {
	case r.AvgSaleAgeMo > 24:
		conf -= 20
	case r.AvgSaleAgeMo > 18:
		conf -= 10
	}
	conf = clampScore(conf)
	quality := qualityLabel(conf)
	if r.Stats.CoefficientOfVariation > 0.15 && quality == ConfidenceHigh {
		quality = ConfidenceMedium
	}
	return conf, quality
}

func salesNarrative(subject SubjectProperty, r *SalesComparisonResult) string {
	return fmt.Sprintf(
		"The sales comparison approach analyzed %d comparable sales, of which %d supported the value conclusion after adjustment. "+
			"Adjusted unit prices averaged %s per square foot with a coefficient of variation of %.1f%%. "+
			"Average net adjustment was %.1f%% and average sale age %.0f months. "+
			"The indicated value for %s is %s.",
		len(r.Comparables), r.ValidCount, fmtUSD(r.Stats.Mean), r.Stats.CoefficientOfVariation*100,
		r.AvgNetAdj*100, r.AvgSaleAgeMo, subject.Name, fmtUSD(r.ValueIndication))
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
