package appraisal

import (
	"sort"
	"time"
)

// Rank scores every comparable against the subject and returns them ordered
// best-first. Nothing is dropped here; FilterComparables handles exclusion.
func Rank(subject SubjectProperty, comps []Comparable, cfg EngineConfig, asOf time.Time) []RankedComparable {
	ranked := make([]RankedComparable, 0, len(comps))
	for _, c := range comps {
		r := RankedComparable{
			Comparable:      c,
			SimilarityScore: similarityScore(subject, c, asOf),
			DataQuality:     dataQualityScore(c),
			AdjustmentRisk:  adjustmentRisk(subject, c, cfg, asOf),
			MarketSupport:   marketSupport(c, asOf),
		}
		r.RankingScore = cfg.RankWeightSimilar*r.SimilarityScore +
			cfg.RankWeightQuality*r.DataQuality +
			cfg.RankWeightRisk*riskScore(r.AdjustmentRisk) +
			cfg.RankWeightSupport*supportScore(r.MarketSupport)
		ranked = append(ranked, r)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RankingScore != ranked[j].RankingScore {
			return ranked[i].RankingScore > ranked[j].RankingScore
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

// FilterComparables removes transactions that cannot support a credible value
// indication: missing price/size/date, stale beyond the horizon, or far
// outside the subject's size class.
func FilterComparables(subject SubjectProperty, comps []Comparable, cfg EngineConfig, asOf time.Time) []Comparable {
	kept := make([]Comparable, 0, len(comps))
	for _, c := range comps {
		if c.SalePrice <= 0 || c.BuildingArea <= 0 || c.SaleDate.IsZero() {
			continue
		}
		if monthsBetween(c.SaleDate, asOf) > cfg.MaxSaleAgeMonths {
			continue
		}
		if subject.Physical.GrossBuildingArea > 0 {
			ratio := c.BuildingArea / subject.Physical.GrossBuildingArea
			if ratio < cfg.SizeRatioMin || ratio > cfg.SizeRatioMax {
				continue
			}
		}
		kept = append(kept, c)
	}
	return kept
}

func similarityScore(subject SubjectProperty, c Comparable, asOf time.Time) float64 {
	score := 100.0

	if c.PropertyType != subject.PropertyType {
		score -= 25
	}

	if subject.Physical.GrossBuildingArea > 0 && c.BuildingArea > 0 {
		dev := abs(c.BuildingArea-subject.Physical.GrossBuildingArea) / subject.Physical.GrossBuildingArea
		switch {
		case dev > 0.50:
			score -= 20
		case dev > 0.30:
			score -= 15
		case dev > 0.15:
			score -= 10
		case dev > 0.05:
			score -= 5
		}
	}

	if subject.Physical.YearBuilt > 0 && c.YearBuilt > 0 {
		diff := subject.Physical.YearBuilt - c.YearBuilt
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff > 20:
			score -= 15
		case diff > 10:
			score -= 10
		case diff > 5:
			score -= 5
		}
	}

	if c.City != "" && c.City != subject.Location.City {
		score -= 10
	}

	if subject.Location.NeighborhoodRating > 0 && c.NeighborhoodRating > 0 {
		delta := subject.Location.NeighborhoodRating - c.NeighborhoodRating
		if delta < 0 {
			delta = -delta
		}
		switch {
		case delta >= 2:
			score -= 10
		case delta == 1:
			score -= 5
		}
	}

	if !c.SaleDate.IsZero() {
		switch months := monthsBetween(c.SaleDate, asOf); {
		case months > 24:
			score -= 10
		case months > 12:
			score -= 7
		case months > 6:
			score -= 3
		}
	}

	// Income support bonus: a comparable with a reported cap rate tells us
	// more when the subject itself is income-producing.
	if c.CapRate != nil && subject.Income != nil {
		score += 10
	}

	return clampScore(score)
}

// adjustmentRisk counts the discrete factors that will force large
// adjustments: the more there are, the less the adjusted price can be trusted.
func adjustmentRisk(subject SubjectProperty, c Comparable, cfg EngineConfig, asOf time.Time) RiskLevel {
	factors := 0
	if subject.Physical.GrossBuildingArea > 0 && c.BuildingArea > 0 {
		if dev := abs(c.BuildingArea-subject.Physical.GrossBuildingArea) / subject.Physical.GrossBuildingArea; dev > 0.30 {
			factors++
		}
	}
	if c.PropertyType != subject.PropertyType {
		factors++
	}
	if subject.Physical.YearBuilt > 0 && c.YearBuilt > 0 {
		diff := subject.Physical.YearBuilt - c.YearBuilt
		if diff < 0 {
			diff = -diff
		}
		if diff > 10 {
			factors++
		}
	}
	if c.City != "" && c.City != subject.Location.City {
		factors++
	} else if subject.Location.NeighborhoodRating > 0 && c.NeighborhoodRating > 0 {
		delta := subject.Location.NeighborhoodRating - c.NeighborhoodRating
		if delta < 0 {
			delta = -delta
		}
		if delta >= 2 {
			factors++
		}
	}
	if !c.SaleDate.IsZero() && monthsBetween(c.SaleDate, asOf) > 12 {
		factors++
	}

	switch {
	case factors >= cfg.RiskFactorsHigh:
		return RiskHigh
	case factors >= cfg.RiskFactorsModerate:
		return RiskModerate
	default:
		return RiskLow
	}
}

// dataQualityScore weights required fields at 15 points and useful fields at
// 5 points, normalized to 0-100.
func dataQualityScore(c Comparable) float64 {
	required := []bool{
		c.SalePrice > 0,
		!c.SaleDate.IsZero(),
		c.BuildingArea > 0,
		c.PropertyType != "",
		c.YearBuilt > 0,
	}
	useful := []bool{
		c.Condition != "",
		c.City != "",
		c.SaleCondition != "",
		c.FinancingType != "",
		c.CapRate != nil,
	}
	points := 0
	for _, ok := range required {
		if ok {
			points += 15
		}
	}
	for _, ok := range useful {
		if ok {
			points += 5
		}
	}
	max := 15*len(required) + 5*len(useful)
	return float64(points) / float64(max) * 100
}

// marketSupport scores how well the transaction evidences open-market value.
// Recency contributes monotonically: a more recent sale never scores lower.
func marketSupport(c Comparable, asOf time.Time) SupportLevel {
	points := 0
	if !c.SaleDate.IsZero() {
		switch months := monthsBetween(c.SaleDate, asOf); {
		case months <= 6:
			points += 3
		case months <= 12:
			points += 2
		case months <= 24:
			points++
		}
	}
	if c.SaleCondition == SaleArmsLength {
		points += 2
	}
	switch c.FinancingType {
	case FinancingCash, FinancingConventional:
		points++
	}
	if c.PropertyRights == RightsFeeSimple {
		points++
	}

	switch {
	case points >= 5:
		return SupportStrong
	case points >= 3:
		return SupportModerate
	default:
		return SupportWeak
	}
}

func riskScore(r RiskLevel) float64 {
	switch r {
	case RiskLow:
		return 100
	case RiskModerate:
		return 70
	default:
		return 40
	}
}

func supportScore(s SupportLevel) float64 {
	switch s {
	case SupportStrong:
		return 100
	case SupportModerate:
		return 70
	default:
		return 40
	}
}
