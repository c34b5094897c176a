package appraisal

import (
	"strings"
	"testing"
)

func TestValidateCleanInputs(t *testing.T) {
	res := Validate(testSubject(), testComparables(), testMarket(), nil, DefaultConfig(), asOf)
	if !res.IsValid {
		t.Fatalf("expected valid, got errors: %+v", res.Errors)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("expected no errors, got %d", len(res.Errors))
	}
	if res.QualityScore != 100 {
		t.Fatalf("expected quality 100, got %d (warnings: %+v)", res.QualityScore, res.Warnings)
	}
	if res.Completeness.SubjectPct < 90 {
		t.Fatalf("expected near-complete subject, got %.0f%%", res.Completeness.SubjectPct)
	}
}

func TestValidateNetRentableExceedsGross(t *testing.T) {
	subject := testSubject()
	subject.Physical.NetRentableArea = 60000

	res := Validate(subject, testComparables(), testMarket(), nil, DefaultConfig(), asOf)
	if res.IsValid {
		t.Fatal("expected invalid result")
	}
	found := false
	for _, e := range res.Errors {
		if e.Field == "subject.physical.net_rentable_area" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected error naming net_rentable_area, got %+v", res.Errors)
	}
}

func TestValidateMissingRequiredFields(t *testing.T) {
	subject := testSubject()
	subject.PropertyType = ""
	subject.Physical.GrossBuildingArea = 0
	subject.Location.City = ""

	res := Validate(subject, testComparables(), testMarket(), nil, DefaultConfig(), asOf)
	if res.IsValid {
		t.Fatal("expected invalid result")
	}
	if len(res.Errors) < 3 {
		t.Fatalf("expected at least 3 errors, got %+v", res.Errors)
	}
	// 100 - 3*15 = 55 before any warnings.
	if res.QualityScore > 55 {
		t.Fatalf("expected quality <= 55, got %d", res.QualityScore)
	}
}

func TestValidateFutureDates(t *testing.T) {
	subject := testSubject()
	subject.Physical.YearBuilt = asOf.Year() + 1
	comps := testComparables()
	comps[0].SaleDate = asOf.AddDate(0, 3, 0)

	res := Validate(subject, comps, testMarket(), nil, DefaultConfig(), asOf)
	if res.IsValid {
		t.Fatal("expected invalid result")
	}
	var fields []string
	for _, e := range res.Errors {
		fields = append(fields, e.Field)
	}
	joined := strings.Join(fields, ",")
	if !strings.Contains(joined, "year_built") || !strings.Contains(joined, "sale_date") {
		t.Fatalf("expected year_built and sale_date errors, got %v", fields)
	}
}

func TestValidateStaleSaleWarnings(t *testing.T) {
	comps := testComparables()
	comps[0].SaleDate = asOf.AddDate(0, -14, 0)
	comps[1].SaleDate = asOf.AddDate(0, -30, 0)

	res := Validate(testSubject(), comps, testMarket(), nil, DefaultConfig(), asOf)
	if !res.IsValid {
		t.Fatalf("staleness should warn, not error: %+v", res.Errors)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("expected 2 staleness warnings, got %+v", res.Warnings)
	}
	// The >24 month warning carries double penalty weight: 100 - 3 - 6 = 91.
	if res.QualityScore != 91 {
		t.Fatalf("expected quality 91, got %d", res.QualityScore)
	}
}

func TestValidateDuplicateComparables(t *testing.T) {
	comps := testComparables()
	comps = append(comps, comps[0])

	res := Validate(testSubject(), comps, testMarket(), nil, DefaultConfig(), asOf)
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w.Message, "duplicate") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected duplicate warning, got %+v", res.Warnings)
	}
}

func TestValidatePricePerAreaBand(t *testing.T) {
	comps := testComparables()
	comps[0].SalePrice = 100_000 // $2/sf, far below plausible
	res := Validate(testSubject(), comps, testMarket(), nil, DefaultConfig(), asOf)
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w.Field, "sale_price") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected price-per-area warning, got %+v", res.Warnings)
	}
}

func TestValidateTooFewComparables(t *testing.T) {
	res := Validate(testSubject(), testComparables()[:2], testMarket(), nil, DefaultConfig(), asOf)
	if !res.IsValid {
		t.Fatalf("too few comparables should warn, not error: %+v", res.Errors)
	}
	found := false
	for _, w := range res.Warnings {
		if w.Field == "comparables" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected comparables warning, got %+v", res.Warnings)
	}
}

func TestValidateMissingCapRatesRecordsDefault(t *testing.T) {
	market := testMarket()
	market.CapRates = nil

	res := Validate(testSubject(), testComparables(), market, nil, DefaultConfig(), asOf)
	if len(res.Warnings) == 0 {
		t.Fatal("expected cap-rate warning")
	}
	found := false
	for _, d := range res.Completeness.AssumedDefaults {
		if d.Field == "market.cap_rates" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected assumed default for cap rates, got %+v", res.Completeness.AssumedDefaults)
	}
}

func TestValidateUserAdjustmentFlags(t *testing.T) {
	comps := testComparables()
	adj := []UserAdjustment{
		{ComparableName: comps[0].Name, Name: "deferred_maintenance", Type: AdjustmentPercent, Amount: 0.35},
		{ComparableName: comps[0].Name, Name: "excess_land", Type: AdjustmentDollar, Amount: comps[0].SalePrice * 0.25},
	}
	res := Validate(testSubject(), comps, testMarket(), adj, DefaultConfig(), asOf)
	single, total := false, false
	for _, w := range res.Warnings {
		if strings.HasPrefix(w.Field, "user_adjustments[") {
			single = true
		}
		if w.Field == "user_adjustments" {
			total = true
		}
	}
	if !single || !total {
		t.Fatalf("expected single and total adjustment flags, got %+v", res.Warnings)
	}
}

func TestValidateQualityFloor(t *testing.T) {
	res := Validate(SubjectProperty{}, nil, MarketData{}, nil, DefaultConfig(), asOf)
	if res.QualityScore < 0 {
		t.Fatalf("quality score below floor: %d", res.QualityScore)
	}
	if res.IsValid {
		t.Fatal("empty inputs must be invalid")
	}
}

func TestValidateHighWeightWarningMultiplier(t *testing.T) {
	// Two comparables trigger exactly one warning, the high-weight
	// too-few-comparables one.
	cfg := DefaultConfig()
	res := Validate(testSubject(), testComparables()[:2], testMarket(), nil, cfg, asOf)
	if len(res.Warnings) != 1 {
		t.Fatalf("expected exactly 1 warning, got %+v", res.Warnings)
	}
	if res.QualityScore != 94 {
		t.Fatalf("default multiplier 2 should score 100-3*2=94, got %d", res.QualityScore)
	}

	cfg.HighWeightWarningMultiplier = 1
	res = Validate(testSubject(), testComparables()[:2], testMarket(), nil, cfg, asOf)
	if res.QualityScore != 97 {
		t.Fatalf("multiplier 1 should score a plain 100-3=97, got %d", res.QualityScore)
	}

	cfg.HighWeightWarningMultiplier = 3
	res = Validate(testSubject(), testComparables()[:2], testMarket(), nil, cfg, asOf)
	if res.QualityScore != 91 {
		t.Fatalf("multiplier 3 should score 100-3*3=91, got %d", res.QualityScore)
	}
}
