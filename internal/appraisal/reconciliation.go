package appraisal

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNoApproaches is returned when reconciliation receives no approach
// results to weigh.
var ErrNoApproaches = errors.New("reconciliation requires at least one completed valuation approach")

// Reconcile weighs the completed approaches by property type and reliability
// into a single value conclusion with a range and a consistency diagnostic.
func Reconcile(sales *SalesComparisonResult, income *IncomeResult, cost *CostResult, subject SubjectProperty, opts Options, cfg EngineConfig, asOf time.Time) (*ReconciliationResult, error) {
	if sales == nil && income == nil && cost == nil {
		return nil, ErrNoApproaches
	}

	reliability := map[string]ReliabilityAssessment{}
	if sales != nil {
		reliability["sales"] = salesReliability(sales)
	}
	if income != nil {
		reliability["income"] = incomeReliability(subject, income)
	}
	if cost != nil {
		reliability["cost"] = costReliability(cost, subject, asOf)
	}

	weights, usedFallback := resolveWeights(reliability, subject.PropertyType, opts.PreferredApproach, cfg)

	weighted := 0.0
	if sales != nil {
		weighted += weights.Sales * sales.ValueIndication
	}
	if income != nil {
		weighted += weights.Income * income.ValueIndication
	}
	if cost != nil {
		weighted += weights.Cost * cost.ValueIndication
	}
	final := roundToDenomination(weighted)

	var values []float64
	for _, v := range []struct {
		ok bool
		v  float64
	}{
		{sales != nil, valueOrZero(sales)},
		{income != nil, incomeValueOrZero(income)},
		{cost != nil, costValueOrZero(cost)},
	} {
		if v.ok {
			values = append(values, v.v)
		}
	}
	variance := varianceDiagnostic(values)

	avgReliability := 0.0
	for _, r := range reliability {
		avgReliability += r.Score
	}
	avgReliability /= float64(len(reliability))

	rangePct := rangePercent(variance, avgReliability, cfg)
	res := &ReconciliationResult{
		Reliability:  reliability,
		Weights:      weights,
		UsedFallback: usedFallback,
		FinalValue:   final,
		ValueRange:   ValueRange{Low: final * (1 - rangePct), High: final * (1 + rangePct)},
		Variance:     variance,
	}
	res.Confidence = overallConfidence(sales, income, cost, weights, variance)
	res.Narrative = reconciliationNarrative(res, rangePct)
	return res, nil
}

func valueOrZero(s *SalesComparisonResult) float64 {
	if s == nil {
		return 0
	}
	return s.ValueIndication
}

func incomeValueOrZero(i *IncomeResult) float64 {
	if i == nil {
		return 0
	}
	return i.ValueIndication
}

func costValueOrZero(c *CostResult) float64 {
	if c == nil {
		return 0
	}
	return c.ValueIndication
}

func salesReliability(s *SalesComparisonResult) ReliabilityAssessment {
	score := 100.0
	var factors []string
	switch {
	case s.ValidCount < 3:
		score -= 25
		factors = append(factors, fmt.Sprintf("only %d valid comparables", s.ValidCount))
	case s.ValidCount < 4:
		score -= 15
		factors = append(factors, "fewer than 4 valid comparables")
	}
	switch {
	case s.AvgNetAdj > 0.40:
		score -= 30
		factors = append(factors, fmt.Sprintf("average net adjustment %.0f%%", s.AvgNetAdj*100))
	case s.AvgNetAdj > 0.30:
		score -= 20
		factors = append(factors, fmt.Sprintf("average net adjustment %.0f%%", s.AvgNetAdj*100))
	}
	switch {
	case s.AvgSaleAgeMo > 24:
		score -= 20
		factors = append(factors, fmt.Sprintf("average sale age %.0f months", s.AvgSaleAgeMo))
	case s.AvgSaleAgeMo > 18:
		score -= 10
		factors = append(factors, fmt.Sprintf("average sale age %.0f months", s.AvgSaleAgeMo))
	}
	if s.Stats.CoefficientOfVariation > 0.15 {
		score -= 15
		factors = append(factors, "adjusted prices show wide dispersion")
	}
	score = clampScore(score)
	return ReliabilityAssessment{Score: score, Label: qualityLabel(score), Factors: factors}
}

func incomeReliability(subject SubjectProperty, i *IncomeResult) ReliabilityAssessment {
	score := 100.0
	var factors []string
	if subject.Income == nil || len(subject.Income.Leases) == 0 {
		score -= 15
		factors = append(factors, "no rent roll; income derived from aggregate figures")
	}
	if i.Statement.NetOperatingIncome <= 0 {
		score -= 40
		factors = append(factors, "non-positive net operating income")
	}
	if i.DCF == nil {
		score -= 5
		factors = append(factors, "no cash-flow projection available")
	}
	if i.Confidence < 70 {
		score -= 15
		factors = append(factors, "income inputs rely heavily on default assumptions")
	}
	score = clampScore(score)
	return ReliabilityAssessment{Score: score, Label: qualityLabel(score), Factors: factors}
}

func costReliability(c *CostResult, subject SubjectProperty, asOf time.Time) ReliabilityAssessment {
	// Cost reliability tracks the age-driven applicability score directly.
	score := c.Confidence
	var factors []string
	if age := yearsOld(subject.Physical.YearBuilt, asOf); age >= 15 {
		factors = append(factors, fmt.Sprintf("building age %d years limits depreciation accuracy", age))
	}
	if c.Breakdown.LandValueSource == "zoning_default_table" {
		score -= 10
		factors = append(factors, "land value taken from default tables")
	}
	score = clampScore(score)
	return ReliabilityAssessment{Score: score, Label: qualityLabel(score), Factors: factors}
}

// resolveWeights multiplies the property-type base weights by each approach's
// reliability, zeroes missing approaches, and renormalizes to sum to one.
func resolveWeights(reliability map[string]ReliabilityAssessment, pt PropertyType, preferred string, cfg EngineConfig) (ApproachWeights, bool) {
	base := cfg.baseWeightsFor(pt)
	w := ApproachWeights{}
	if r, ok := reliability["sales"]; ok {
		w.Sales = base.Sales * r.Score / 100
	}
	if r, ok := reliability["income"]; ok {
		w.Income = base.Income * r.Score / 100
	}
	if r, ok := reliability["cost"]; ok {
		w.Cost = base.Cost * r.Score / 100
	}

	switch preferred {
	case "sales":
		w.Sales *= cfg.PreferredApproachBoost
	case "income":
		w.Income *= cfg.PreferredApproachBoost
	case "cost":
		w.Cost *= cfg.PreferredApproachBoost
	}

	sum := w.Sales + w.Income + w.Cost
	if sum > 0 {
		return ApproachWeights{Sales: w.Sales / sum, Income: w.Income / sum, Cost: w.Cost / sum}, false
	}

	// All weights collapsed; fall back to the documented defaults restricted
	// to whichever approaches actually ran.
	fb := ApproachWeights{}
	if _, ok := reliability["sales"]; ok {
		fb.Sales = cfg.FallbackWeights.Sales
	}
	if _, ok := reliability["income"]; ok {
		fb.Income = cfg.FallbackWeights.Income
	}
	if _, ok := reliability["cost"]; ok {
		fb.Cost = cfg.FallbackWeights.Cost
	}
	sum = fb.Sales + fb.Income + fb.Cost
	if sum == 0 {
		n := float64(len(reliability))
		if _, ok := reliability["sales"]; ok {
			fb.Sales = 1 / n
		}
		if _, ok := reliability["income"]; ok {
			fb.Income = 1 / n
		}
		if _, ok := reliability["cost"]; ok {
			fb.Cost = 1 / n
		}
		return fb, true
	}
	return ApproachWeights{Sales: fb.Sales / sum, Income: fb.Income / sum, Cost: fb.Cost / sum}, true
}

func varianceDiagnostic(values []float64) VarianceDiagnostic {
	d := VarianceDiagnostic{}
	if len(values) == 0 {
		return d
	}
	d.Mean = mean(values)
	d.StdDev = stdDev(values)
	d.Variance = d.StdDev * d.StdDev
	if d.Mean != 0 {
		d.CoefficientOfVariation = d.StdDev / d.Mean
		min, max := values[0], values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		d.Range = (max - min) / d.Mean
	}
	d.Acceptable = d.Range <= 0.25
	switch {
	case d.Range <= 0.10:
		d.Label = "excellent"
	case d.Range <= 0.20:
		d.Label = "good"
	case d.Range <= 0.30:
		d.Label = "acceptable"
	default:
		d.Label = "poor"
	}
	return d
}

// rangePercent widens the reported range in five-point steps as approach
// agreement or reliability deteriorates.
func rangePercent(v VarianceDiagnostic, avgReliability float64, cfg EngineConfig) float64 {
	pct := cfg.RangeBasePct
	if v.Range > 0.10 {
		pct += cfg.RangeStepPct
	}
	if v.Range > 0.20 {
		pct += cfg.RangeStepPct
	}
	if avgReliability < 70 {
		pct += cfg.RangeStepPct
	}
	if avgReliability < 50 {
		pct += cfg.RangeStepPct
	}
	if pct > cfg.RangeCapPct {
		pct = cfg.RangeCapPct
	}
	return pct
}

func overallConfidence(sales *SalesComparisonResult, income *IncomeResult, cost *CostResult, w ApproachWeights, v VarianceDiagnostic) float64 {
	conf := 0.0
	if sales != nil {
		conf += w.Sales * sales.Confidence
	}
	if income != nil {
		conf += w.Income * income.Confidence
	}
	if cost != nil {
		conf += w.Cost * cost.Confidence
	}
	switch {
	case v.Range > 0.30:
		conf *= 0.80
	case v.Range > 0.20:
		conf *= 0.90
	}
	return clampScore(math.Round(conf*10) / 10)
}

func reconciliationNarrative(r *ReconciliationResult, rangePct float64) string {
	s := fmt.Sprintf(
		"Reconciliation weighted the approaches at sales %.0f%%, income %.0f%%, and cost %.0f%%, "+
			"concluding a market value of %s within a range of %s to %s (±%.0f%%). "+
			"Approach agreement is %s with a value spread of %.1f%%.",
		r.Weights.Sales*100, r.Weights.Income*100, r.Weights.Cost*100,
		fmtUSD(r.FinalValue), fmtUSD(r.ValueRange.Low), fmtUSD(r.ValueRange.High), rangePct*100,
		r.Variance.Label, r.Variance.Range*100)
	if r.UsedFallback {
		s += " Computed weights collapsed to zero; documented fallback weights were applied."
	}
	return s
}
