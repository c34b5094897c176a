package appraisal

import (
	"testing"
	"time"
)

func TestCostApproachNewBuilding(t *testing.T) {
	subject := testSubject()
	subject.Physical.YearBuilt = asOf.Year() - 2

	res, err := CostApproach(subject, testComparables(), testMarket(), DefaultConfig(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Applicability != ApplicabilityHigh {
		t.Fatalf("2-year-old building should rate high applicability, got %s", res.Applicability)
	}
	if res.Confidence != 85 {
		t.Fatalf("expected confidence 85, got %.0f", res.Confidence)
	}
	if res.Quality != ConfidenceHigh {
		t.Fatalf("expected high quality, got %s", res.Quality)
	}
	if res.ValueIndication <= 0 {
		t.Fatal("expected positive value")
	}
	want := res.Breakdown.LandValue + res.Breakdown.ReplacementCost - res.Depreciation.Total
	if !almostEqual(res.ValueIndication, want) {
		t.Fatalf("value %.0f does not decompose: %.0f", res.ValueIndication, want)
	}
}

func TestCostApplicabilityBands(t *testing.T) {
	cases := []struct {
		age  int
		want Applicability
		conf float64
	}{
		{2, ApplicabilityHigh, 85},
		{10, ApplicabilityMedium, 70},
		{25, ApplicabilityLow, 55},
		{40, ApplicabilityVeryLow, 40},
	}
	for _, tc := range cases {
		got, conf := costApplicability(tc.age)
		if got != tc.want || conf != tc.conf {
			t.Fatalf("age %d: got %s/%.0f, want %s/%.0f", tc.age, got, conf, tc.want, tc.conf)
		}
	}
}

func TestLandValueTiers(t *testing.T) {
	subject := testSubject() // 80,000 sf land, C-2 zoning
	cfg := DefaultConfig()

	// Two matching land sales within the size band: averaged per-area price.
	v, source := landValue(subject, nil, testMarket(), cfg)
	if source != "comparable_land_sales" {
		t.Fatalf("expected land-sale tier, got %s", source)
	}
	wantPerArea := (2_000_000/78000.0 + 2_150_000/85000.0) / 2
	if !almostEqual(v, wantPerArea*80000) {
		t.Fatalf("expected %.0f, got %.0f", wantPerArea*80000, v)
	}

	// Wrong zoning class: falls through to allocation from improved sales.
	market := testMarket()
	market.LandSales = []LandSale{
		{Zoning: "R-1", SalePrice: 1_000_000, LandArea: 70000, SaleDate: asOf.AddDate(0, -3, 0)},
		{Zoning: "R-2", SalePrice: 1_100_000, LandArea: 75000, SaleDate: asOf.AddDate(0, -5, 0)},
	}
	_, source = landValue(subject, testComparables(), market, cfg)
	if source != "allocation_from_improved_sales" {
		t.Fatalf("expected allocation tier, got %s", source)
	}

	// No land sales and no comparables: zoning default table.
	market.LandSales = nil
	v, source = landValue(subject, nil, market, cfg)
	if source != "zoning_default_table" {
		t.Fatalf("expected default tier, got %s", source)
	}
	if !almostEqual(v, cfg.Defaults.LandValuePerArea["commercial"]*80000) {
		t.Fatalf("expected commercial table rate, got %.0f", v)
	}
}

func TestLandValueSizeBand(t *testing.T) {
	subject := testSubject()
	market := testMarket()
	// A parcel more than twice the subject's size is not comparable.
	market.LandSales = append(market.LandSales, LandSale{
		Zoning: "C-2", SalePrice: 9_000_000, LandArea: 400000, SaleDate: asOf.AddDate(0, -2, 0),
	})
	v, _ := landValue(subject, nil, market, DefaultConfig())
	wantPerArea := (2_000_000/78000.0 + 2_150_000/85000.0) / 2
	if !almostEqual(v, wantPerArea*80000) {
		t.Fatalf("oversized parcel should be excluded: got %.0f", v)
	}
}

func TestReplacementCostBreakdown(t *testing.T) {
	subject := testSubject()
	cfg := DefaultConfig()
	b := replacementCost(subject, testMarket(), cfg)

	// 225 $/sf * quality 1.2 (score 5.5) * size 1.0 (50k sf) * regional 1.0.
	wantBase := 225.0 * (1 + (5.5-3)*0.08) * 1.0 * 1.0 * 50000
	if !almostEqual(b.BaseCost, wantBase) {
		t.Fatalf("base cost %.0f, want %.0f", b.BaseCost, wantBase)
	}
	wantSite := 150*cfg.ParkingCostPerSpace + 80000*cfg.Defaults.SitePrepPerLandArea
	if !almostEqual(b.SiteImprovements, wantSite) {
		t.Fatalf("site improvements %.0f, want %.0f", b.SiteImprovements, wantSite)
	}
	subtotal := b.BaseCost + b.SiteImprovements
	if !almostEqual(b.SoftCosts, subtotal*0.15) || !almostEqual(b.Profit, subtotal*0.20) {
		t.Fatalf("soft/profit not derived from subtotal: %+v", b)
	}
	if !almostEqual(b.ReplacementCost, subtotal*1.35) {
		t.Fatalf("replacement cost %.0f", b.ReplacementCost)
	}
}

func TestDepreciationGrowsWithAgeAndCondition(t *testing.T) {
	cfg := DefaultConfig()
	market := testMarket()
	newBuilding := testSubject()
	newBuilding.Physical.YearBuilt = asOf.Year()
	newBuilding.Physical.Condition = ConditionExcellent

	old := testSubject()
	old.Physical.YearBuilt = 1980
	old.Physical.Condition = ConditionPoor

	dNew := depreciation(newBuilding, 10_000_000, market, cfg, asOf)
	dOld := depreciation(old, 10_000_000, market, cfg, asOf)

	if dNew.Total >= dOld.Total {
		t.Fatalf("new building depreciation %.0f should be below old %.0f", dNew.Total, dOld.Total)
	}
	if dNew.PhysicalCurable != 0 {
		t.Fatalf("excellent condition should need no curable items, got %.0f", dNew.PhysicalCurable)
	}
	if dOld.PhysicalCurable != 10_000_000*0.05 {
		t.Fatalf("poor condition curable %.0f", dOld.PhysicalCurable)
	}
	// Poor condition scales 45 actual years to 72 effective.
	if !almostEqual(dOld.EffectiveAge, 45*1.6) {
		t.Fatalf("effective age %.1f", dOld.EffectiveAge)
	}
	if dOld.Total > 10_000_000 {
		t.Fatal("depreciation cannot exceed replacement cost")
	}
}

func TestExternalObsolescence(t *testing.T) {
	subject := testSubject()
	subject.Environmental = &EnvironmentalFlags{
		Issues:        []string{"underground storage tank"},
		DecliningArea: true,
	}
	market := testMarket()
	market.Condition = MarketDeclining

	got := externalObsolescence(subject, market)
	// 50,000 sf at $10 declining market + $5 declining area + $3 per issue.
	want := 50000.0 * (10 + 5 + 3)
	if !almostEqual(got, want) {
		t.Fatalf("expected %.0f, got %.0f", want, got)
	}
}

func TestShortLivedComponentsCapAtFullDecay(t *testing.T) {
	cfg := DefaultConfig()
	ancient := testSubject()
	ancient.Physical.YearBuilt = 1900
	ancient.Physical.Condition = ConditionPoor

	d := depreciation(ancient, 1_000_000, testMarket(), cfg, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	shortShare := 0.0
	for _, c := range cfg.Defaults.ShortLivedSchedule {
		shortShare += c.CostShare
	}
	if !almostEqual(d.PhysicalShortLived, 1_000_000*shortShare) {
		t.Fatalf("fully decayed short-lived components should equal their cost share: %.0f", d.PhysicalShortLived)
	}
}
