package appraisal

import (
	"context"
	"strings"
	"testing"
)

func runForReport(t *testing.T, opts Options) *AppraisalResult {
	t.Helper()
	eng := NewEngine(DefaultConfig())
	res, err := eng.Run(context.Background(), testSubject(), testComparables(), testMarket(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func TestBuildReportSections(t *testing.T) {
	res := runForReport(t, Options{EffectiveDate: asOf})
	md := BuildReport(res)

	for _, heading := range []string{
		"# Appraisal Report",
		"## Value Conclusion",
		"## Data Quality",
		"## Highest and Best Use",
		"## Sales Comparison Approach",
		"## Income Capitalization Approach",
		"## Cost Approach",
		"## Reconciliation",
	} {
		if !strings.Contains(md, heading) {
			t.Fatalf("report missing %q", heading)
		}
	}
	if !strings.Contains(md, fmtUSD(res.FinalValue)) {
		t.Fatal("report must state the final value")
	}
	if !strings.Contains(md, res.Disclaimer) {
		t.Fatal("report must carry the disclaimer")
	}
}

func TestBuildReportUSPAPNarratives(t *testing.T) {
	summary := BuildReport(runForReport(t, Options{EffectiveDate: asOf}))
	full := BuildReport(runForReport(t, Options{EffectiveDate: asOf, USPAPCompliance: true}))
	if len(full) <= len(summary) {
		t.Fatal("full narrative report should be longer than the summary report")
	}
	if !strings.Contains(full, "The sales comparison approach analyzed") {
		t.Fatal("full report must include the sales narrative")
	}
}

func TestBuildReportAssumedDefaults(t *testing.T) {
	eng := NewEngine(DefaultConfig())
	market := testMarket()
	market.CapRates = nil
	res, err := eng.Run(context.Background(), testSubject(), testComparables(), market, Options{EffectiveDate: asOf})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	md := BuildReport(res)
	if !strings.Contains(md, "## Assumed Defaults") {
		t.Fatal("report must disclose assumed defaults")
	}
	if !strings.Contains(md, "market.cap_rates") {
		t.Fatal("assumed cap rates must be listed")
	}
}

func TestBuildReportIncompleteRun(t *testing.T) {
	subject := testSubject()
	subject.Physical.NetRentableArea = subject.Physical.GrossBuildingArea * 2
	eng := NewEngine(DefaultConfig())
	res, _ := eng.Run(context.Background(), subject, testComparables(), testMarket(), Options{EffectiveDate: asOf})

	md := BuildReport(res)
	if !strings.Contains(md, "> INCOMPLETE:") {
		t.Fatal("halted run must be marked incomplete")
	}
	if !strings.Contains(md, "No value conclusion was reached.") {
		t.Fatal("halted run must not state a value")
	}
}

func TestFmtUSD(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{950, "$950"},
		{13600000, "$13,600,000"},
		{-47500, "-$47,500"},
		{1234.6, "$1,235"},
	}
	for _, tc := range cases {
		if got := fmtUSD(tc.in); got != tc.want {
			t.Fatalf("%f: got %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeCell(t *testing.T) {
	if got := sanitizeCell("Plaza | Tower\nAnnex"); got != "Plaza \\| Tower Annex" {
		t.Fatalf("got %q", got)
	}
}
