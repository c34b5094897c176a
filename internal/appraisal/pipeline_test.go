package appraisal

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func runOptions() Options {
	return Options{EffectiveDate: asOf}
}

func TestEngineFullRun(t *testing.T) {
	eng := NewEngine(DefaultConfig())
	res, err := eng.Run(context.Background(), testSubject(), testComparables(), testMarket(), runOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID == "" {
		t.Fatal("expected a run ID")
	}
	if res.Sales == nil || res.Income == nil || res.Cost == nil {
		t.Fatalf("expected all three approaches, errors: %v", res.Metadata.ApproachErrors)
	}
	if res.Reconciliation == nil {
		t.Fatal("expected reconciliation")
	}
	if res.FinalValue <= 0 {
		t.Fatal("expected positive final value")
	}
	if res.ValueRange.Low > res.FinalValue || res.FinalValue > res.ValueRange.High {
		t.Fatalf("final %.0f outside range [%.0f, %.0f]", res.FinalValue, res.ValueRange.Low, res.ValueRange.High)
	}
	if res.HBU == nil || res.HBU.ApplicableUse == "" {
		t.Fatal("expected a highest and best use conclusion")
	}
	if res.Disclaimer == "" {
		t.Fatal("expected the disclaimer on the result")
	}
	if res.Metadata.EffectiveDate != asOf {
		t.Fatalf("effective date %v", res.Metadata.EffectiveDate)
	}
}

func TestEngineHaltsOnValidationError(t *testing.T) {
	subject := testSubject()
	subject.Physical.NetRentableArea = subject.Physical.GrossBuildingArea * 2

	eng := NewEngine(DefaultConfig())
	res, err := eng.Run(context.Background(), subject, testComparables(), testMarket(), runOptions())
	if err == nil {
		t.Fatal("expected a validation failure")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "validation" {
		t.Fatalf("expected validation stage error, got %v", err)
	}
	if res.Sales != nil || res.Income != nil || res.Cost != nil {
		t.Fatal("no approach may run after a validation failure")
	}
	if res.Metadata.EarlyExitReason == "" {
		t.Fatal("expected an early exit reason")
	}
}

// With two comparables the sales approach fails fast while income and cost
// still run, and their weights renormalize to one.
func TestEngineTwoComparables(t *testing.T) {
	eng := NewEngine(DefaultConfig())
	res, err := eng.Run(context.Background(), testSubject(), testComparables()[:2], testMarket(), runOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sales != nil {
		t.Fatal("sales comparison should not complete with 2 comparables")
	}
	if _, ok := res.Metadata.ApproachErrors["sales_comparison"]; !ok {
		t.Fatal("expected a captured sales comparison error")
	}
	if res.Income == nil || res.Cost == nil {
		t.Fatal("income and cost should still run")
	}
	w := res.Reconciliation.Weights
	if w.Sales != 0 {
		t.Fatalf("failed approach must weigh zero, got %.3f", w.Sales)
	}
	if math.Abs(w.Income+w.Cost-1.0) > 1e-6 {
		t.Fatalf("weights sum to %.8f", w.Income+w.Cost)
	}
}

func TestEngineSkipsCostForOldBuildings(t *testing.T) {
	subject := testSubject()
	subject.Physical.YearBuilt = asOf.Year() - 45

	eng := NewEngine(DefaultConfig())
	res, err := eng.Run(context.Background(), subject, testComparables(), testMarket(), runOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Cost != nil {
		t.Fatal("cost approach should be skipped at 45 years of age")
	}

	opts := runOptions()
	opts.IncludeAllApproaches = true
	res, err = eng.Run(context.Background(), subject, testComparables(), testMarket(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Cost == nil {
		t.Fatal("include_all_approaches must force the cost approach")
	}
	if res.Cost.Applicability != ApplicabilityVeryLow {
		t.Fatalf("expected very_low applicability, got %s", res.Cost.Applicability)
	}
}

func TestEngineNoIncomeDataDegrades(t *testing.T) {
	subject := testSubject()
	subject.Income = nil
	subject.Expenses = nil

	eng := NewEngine(DefaultConfig())
	res, err := eng.Run(context.Background(), subject, testComparables(), testMarket(), runOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Income != nil {
		t.Fatal("income approach should fail without income data")
	}
	if res.Reconciliation.Weights.Income != 0 {
		t.Fatalf("income weight should be zero, got %.3f", res.Reconciliation.Weights.Income)
	}
}

func TestEngineAllApproachesFail(t *testing.T) {
	subject := testSubject()
	subject.Income = nil
	subject.Expenses = nil
	subject.Physical.YearBuilt = asOf.Year() - 50

	eng := NewEngine(DefaultConfig())
	_, err := eng.Run(context.Background(), subject, testComparables()[:2], testMarket(), runOptions())
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "approaches" {
		t.Fatalf("expected approaches stage error, got %v", err)
	}
}

// Two runs over identical inputs must produce identical value-bearing output.
// Only the run ID and wall-clock timestamps may differ.
func TestEngineDeterminism(t *testing.T) {
	eng := NewEngine(DefaultConfig())
	a, err := eng.Run(context.Background(), testSubject(), testComparables(), testMarket(), runOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := eng.Run(context.Background(), testSubject(), testComparables(), testMarket(), runOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	normalize := func(r *AppraisalResult) string {
		r.ID = ""
		r.CreatedAt = b.CreatedAt
		r.Metadata.StartedAt = b.Metadata.StartedAt
		r.Metadata.CompletedAt = b.Metadata.CompletedAt
		r.Metadata.StagesExecuted = nil
		r.Metadata.StagesSkipped = nil
		buf, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return string(buf)
	}
	if normalize(a) != normalize(b) {
		t.Fatal("identical inputs produced different results")
	}
}
