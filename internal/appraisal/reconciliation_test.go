package appraisal

import (
	"errors"
	"math"
	"testing"
)

func fullApproachResults() (*SalesComparisonResult, *IncomeResult, *CostResult) {
	sales := &SalesComparisonResult{
		ValueIndication: 13_600_000,
		ValidCount:      5,
		AvgNetAdj:       0.06,
		AvgSaleAgeMo:    2,
		Stats:           DispersionStats{Mean: 280, CoefficientOfVariation: 0.04},
		Confidence:      90,
	}
	income := &IncomeResult{
		ValueIndication: 13_900_000,
		DirectCapValue:  13_900_000,
		CapRate:         0.0645,
		Statement:       IncomeStatement{NetOperatingIncome: 896_550},
		DCF:             &DCFProjection{Value: 14_100_000},
		Confidence:      85,
	}
	cost := &CostResult{
		ValueIndication: 13_200_000,
		Breakdown:       CostBreakdown{LandValueSource: "comparable_land_sales"},
		Applicability:   ApplicabilityMedium,
		Confidence:      70,
	}
	return sales, income, cost
}

func TestReconcileThreeApproaches(t *testing.T) {
	sales, income, cost := fullApproachResults()
	res, err := Reconcile(sales, income, cost, testSubject(), Options{}, DefaultConfig(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := res.Weights.Sales + res.Weights.Income + res.Weights.Cost
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("weights sum to %.8f", sum)
	}
	if res.UsedFallback {
		t.Fatal("fallback weights should not trigger with healthy approaches")
	}
	if res.ValueRange.Low > res.FinalValue || res.FinalValue > res.ValueRange.High {
		t.Fatalf("final %.0f outside range [%.0f, %.0f]", res.FinalValue, res.ValueRange.Low, res.ValueRange.High)
	}
	// Office weights favor sales over income over cost even after
	// reliability scaling.
	if res.Weights.Sales <= res.Weights.Income || res.Weights.Income <= res.Weights.Cost {
		t.Fatalf("unexpected weight ordering: %+v", res.Weights)
	}
	if math.Mod(res.FinalValue, 100_000) != 0 {
		t.Fatalf("values above $10M round to $100k, got %.0f", res.FinalValue)
	}
}

// Approach values of $1.00M, $1.05M, and $0.95M spread about 9.5% around the
// mean and should classify as excellent.
func TestVarianceDiagnosticExcellent(t *testing.T) {
	v := varianceDiagnostic([]float64{1_000_000, 1_050_000, 950_000})
	if v.Label != "excellent" {
		t.Fatalf("expected excellent, got %s (range %.3f)", v.Label, v.Range)
	}
	if !v.Acceptable {
		t.Fatal("expected acceptable")
	}
	if math.Abs(v.Range-0.10) > 0.01 {
		t.Fatalf("expected range near 0.095, got %.4f", v.Range)
	}
}

func TestVarianceDiagnosticLabels(t *testing.T) {
	cases := []struct {
		values []float64
		label  string
	}{
		{[]float64{1_000_000, 1_020_000, 990_000}, "excellent"},
		{[]float64{1_000_000, 1_150_000}, "good"},
		{[]float64{1_000_000, 1_280_000}, "acceptable"},
		{[]float64{1_000_000, 1_600_000}, "poor"},
	}
	for _, tc := range cases {
		if v := varianceDiagnostic(tc.values); v.Label != tc.label {
			t.Fatalf("%v: got %s, want %s (range %.3f)", tc.values, v.Label, tc.label, v.Range)
		}
	}
}

func TestReconcileMissingApproachRenormalizes(t *testing.T) {
	_, income, cost := fullApproachResults()
	res, err := Reconcile(nil, income, cost, testSubject(), Options{}, DefaultConfig(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Weights.Sales != 0 {
		t.Fatalf("missing approach must carry zero weight, got %.3f", res.Weights.Sales)
	}
	sum := res.Weights.Income + res.Weights.Cost
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("remaining weights sum to %.8f", sum)
	}
}

func TestReconcileNoApproaches(t *testing.T) {
	_, err := Reconcile(nil, nil, nil, testSubject(), Options{}, DefaultConfig(), asOf)
	if !errors.Is(err, ErrNoApproaches) {
		t.Fatalf("expected ErrNoApproaches, got %v", err)
	}
}

func TestReconcilePreferredApproachBoost(t *testing.T) {
	sales, income, cost := fullApproachResults()
	plain, err := Reconcile(sales, income, cost, testSubject(), Options{}, DefaultConfig(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boosted, err := Reconcile(sales, income, cost, testSubject(), Options{PreferredApproach: "income"}, DefaultConfig(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if boosted.Weights.Income <= plain.Weights.Income {
		t.Fatalf("preferred approach should gain weight: %.3f vs %.3f", boosted.Weights.Income, plain.Weights.Income)
	}
	sum := boosted.Weights.Sales + boosted.Weights.Income + boosted.Weights.Cost
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("boosted weights sum to %.8f", sum)
	}
}

func TestReconcileFallbackWeights(t *testing.T) {
	// Land carries a zero base weight for income, so an income-only run
	// collapses the computed weights and falls back to the documented set.
	_, income, _ := fullApproachResults()
	subject := testSubject()
	subject.PropertyType = PropertyLand
	res, err := Reconcile(nil, income, nil, subject, Options{}, DefaultConfig(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.UsedFallback {
		t.Fatal("expected fallback weights")
	}
	if math.Abs(res.Weights.Income-1.0) > 1e-6 {
		t.Fatalf("sole approach should take full weight, got %.3f", res.Weights.Income)
	}
}

func TestRangePercentSteps(t *testing.T) {
	cfg := DefaultConfig()
	tight := VarianceDiagnostic{Range: 0.05}
	if got := rangePercent(tight, 90, cfg); !almostEqual(got, 0.05) {
		t.Fatalf("expected base 5%%, got %.2f", got)
	}
	wide := VarianceDiagnostic{Range: 0.22}
	if got := rangePercent(wide, 60, cfg); !almostEqual(got, 0.20) {
		t.Fatalf("expected 20%%, got %.2f", got)
	}
	worst := VarianceDiagnostic{Range: 0.40}
	if got := rangePercent(worst, 40, cfg); !almostEqual(got, cfg.RangeCapPct) {
		t.Fatalf("range percent must cap at %.0f%%, got %.2f", cfg.RangeCapPct*100, got)
	}
}

func TestOverallConfidenceDiscounts(t *testing.T) {
	sales, income, cost := fullApproachResults()
	w := ApproachWeights{Sales: 0.5, Income: 0.4, Cost: 0.1}
	base := overallConfidence(sales, income, cost, w, VarianceDiagnostic{Range: 0.05})
	discounted := overallConfidence(sales, income, cost, w, VarianceDiagnostic{Range: 0.35})
	if !almostEqual(discounted, math.Round(base*0.8*10)/10) {
		t.Fatalf("expected 20%% discount: %.1f vs %.1f", discounted, base)
	}
}

func TestRoundToDenomination(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{13_642_500, 13_600_000},
		{5_432_100, 5_430_000},
		{250_400, 250_000},
		{47_300, 47_500},
		{8_250, 8_300},
	}
	for _, tc := range cases {
		if got := roundToDenomination(tc.in); got != tc.want {
			t.Fatalf("%.0f: got %.0f, want %.0f", tc.in, got, tc.want)
		}
	}
}
