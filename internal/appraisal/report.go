package appraisal

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// BuildReport renders an appraisal result as a markdown report. With
// Options.USPAPCompliance set, the report carries the full narrative for
// every section; otherwise approach detail is summarized.
func BuildReport(r *AppraisalResult) string {
	var b strings.Builder
	full := r.Options.USPAPCompliance

	fmt.Fprintf(&b, "# Appraisal Report\n\n")
	fmt.Fprintf(&b, "- Property: %s\n", sanitize(r.Subject.Name))
	fmt.Fprintf(&b, "- Address: %s, %s, %s\n", sanitize(r.Subject.Address), sanitize(r.Subject.Location.City), sanitize(r.Subject.Location.State))
	fmt.Fprintf(&b, "- Property type: %s\n", r.Subject.PropertyType)
	fmt.Fprintf(&b, "- Effective date: %s\n", r.Metadata.EffectiveDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Report date: %s\n", r.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Run ID: %s\n\n", r.ID)
	fmt.Fprintf(&b, "%s\n\n", r.Disclaimer)

	if r.Metadata.EarlyExitReason != "" {
		fmt.Fprintf(&b, "> INCOMPLETE: %s\n\n", sanitize(r.Metadata.EarlyExitReason))
	}

	fmt.Fprintf(&b, "## Value Conclusion\n\n")
	if r.FinalValue > 0 {
		fmt.Fprintf(&b, "**Market value: %s** (range %s to %s, confidence %.0f/100)\n\n",
			fmtUSD(r.FinalValue), fmtUSD(r.ValueRange.Low), fmtUSD(r.ValueRange.High), r.Confidence)
	} else {
		fmt.Fprintf(&b, "No value conclusion was reached.\n\n")
	}

	writeValidationSection(&b, r)
	if r.HBU != nil {
		writeHBUSection(&b, r, full)
	}
	if r.Sales != nil {
		writeSalesSection(&b, r.Sales, full)
	}
	if r.Income != nil {
		writeIncomeSection(&b, r.Income, full)
	}
	if r.Cost != nil {
		writeCostSection(&b, r.Cost, full)
	}
	if r.Reconciliation != nil {
		writeReconciliationSection(&b, r.Reconciliation)
	}
	writeAssumptionsSection(&b, r)
	return b.String()
}

func writeValidationSection(b *strings.Builder, r *AppraisalResult) {
	v := r.Validation
	fmt.Fprintf(b, "## Data Quality\n\n")
	fmt.Fprintf(b, "Quality score %d/100. Completeness: subject %.0f%%, comparables %.0f%%, market data %.0f%%.\n\n",
		v.QualityScore, v.Completeness.SubjectPct, v.Completeness.ComparablePct, v.Completeness.MarketPct)
	if len(v.Errors) > 0 {
		fmt.Fprintf(b, "Errors:\n\n")
		for _, e := range v.Errors {
			fmt.Fprintf(b, "- `%s`: %s\n", e.Field, sanitize(e.Message))
		}
		b.WriteString("\n")
	}
	if len(v.Warnings) > 0 {
		fmt.Fprintf(b, "Warnings:\n\n")
		for _, w := range v.Warnings {
			fmt.Fprintf(b, "- `%s`: %s\n", w.Field, sanitize(w.Message))
		}
		b.WriteString("\n")
	}
}

func writeHBUSection(b *strings.Builder, r *AppraisalResult, full bool) {
	fmt.Fprintf(b, "## Highest and Best Use\n\n")
	fmt.Fprintf(b, "- As vacant: %s\n", r.HBU.AsVacant.RecommendedUse)
	fmt.Fprintf(b, "- As improved: %s\n", r.HBU.AsImproved.RecommendedUse)
	fmt.Fprintf(b, "- Applicable use: %s\n\n", r.HBU.ApplicableUse)
	if full {
		fmt.Fprintf(b, "%s %s\n\n", sanitize(r.HBU.AsVacant.Narrative), sanitize(r.HBU.AsImproved.Narrative))
	}
}

func writeSalesSection(b *strings.Builder, s *SalesComparisonResult, full bool) {
	fmt.Fprintf(b, "## Sales Comparison Approach\n\n")
	fmt.Fprintf(b, "Indicated value **%s** (confidence %.0f/100, %s quality).\n\n", fmtUSD(s.ValueIndication), s.Confidence, s.Quality)
	fmt.Fprintf(b, "| Comparable | Sale Price | Adjusted Price | $/SF | Net Adj | Weight | In Value |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|---|---|\n")
	for _, c := range s.Comparables {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %.1f%% | %.2f | %v |\n",
			sanitizeCell(c.Name), fmtUSD(c.SalePrice), fmtUSD(c.AdjustedPrice),
			fmtUSD(c.AdjustedPricePerArea), c.NetAdjustment*100, c.Weight, c.Valid)
	}
	b.WriteString("\n")
	if full {
		for _, c := range s.Comparables {
			if len(c.Adjustments) == 0 && len(c.Notes) == 0 {
				continue
			}
			fmt.Fprintf(b, "### %s\n\n", sanitize(c.Name))
			for _, name := range adjustmentOrder {
				a, ok := c.Adjustments[name]
				if !ok {
					continue
				}
				switch a.Type {
				case AdjustmentDollar:
					fmt.Fprintf(b, "- %s: %s (%s confidence) — %s\n", name, fmtUSD(a.Amount), a.Confidence, sanitize(a.Explanation))
				default:
					fmt.Fprintf(b, "- %s: %+.1f%% (%s confidence) — %s\n", name, a.Amount*100, a.Confidence, sanitize(a.Explanation))
				}
			}
			for _, n := range c.Notes {
				fmt.Fprintf(b, "- note: %s\n", sanitize(n))
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "%s\n\n", sanitize(s.Narrative))
	}
}

func writeIncomeSection(b *strings.Builder, i *IncomeResult, full bool) {
	fmt.Fprintf(b, "## Income Capitalization Approach\n\n")
	fmt.Fprintf(b, "Indicated value **%s** at a %.2f%% capitalization rate (confidence %.0f/100).\n\n",
		fmtUSD(i.ValueIndication), i.CapRate*100, i.Confidence)
	stmt := i.Statement
	fmt.Fprintf(b, "| Line | Amount |\n|---|---|\n")
	fmt.Fprintf(b, "| Potential gross income | %s |\n", fmtUSD(stmt.PotentialGrossIncome))
	fmt.Fprintf(b, "| Vacancy and collection loss | (%s) |\n", fmtUSD(stmt.VacancyLoss))
	fmt.Fprintf(b, "| Other income | %s |\n", fmtUSD(stmt.OtherIncome))
	fmt.Fprintf(b, "| Effective gross income | %s |\n", fmtUSD(stmt.EffectiveGrossIncome))
	for _, line := range expenseLines {
		fmt.Fprintf(b, "| %s | (%s) |\n", strings.ToUpper(line[:1])+line[1:], fmtUSD(stmt.Expenses[line]))
	}
	fmt.Fprintf(b, "| **Net operating income** | **%s** |\n\n", fmtUSD(stmt.NetOperatingIncome))
	if i.DCF != nil {
		fmt.Fprintf(b, "A %d-year cash flow projection discounted at %.2f%% supports %s (terminal value %s at %.2f%%).\n\n",
			len(i.DCF.Years), i.DCF.DiscountRate*100, fmtUSD(i.DCF.Value), fmtUSD(i.DCF.TerminalValue), i.DCF.TerminalCap*100)
	}
	if full {
		fmt.Fprintf(b, "%s\n\n", sanitize(i.Narrative))
	}
}

func writeCostSection(b *strings.Builder, c *CostResult, full bool) {
	fmt.Fprintf(b, "## Cost Approach\n\n")
	fmt.Fprintf(b, "Indicated value **%s** (%s applicability, confidence %.0f/100).\n\n",
		fmtUSD(c.ValueIndication), c.Applicability, c.Confidence)
	fmt.Fprintf(b, "| Component | Amount |\n|---|---|\n")
	fmt.Fprintf(b, "| Land value (%s) | %s |\n", c.Breakdown.LandValueSource, fmtUSD(c.Breakdown.LandValue))
	fmt.Fprintf(b, "| Base construction cost | %s |\n", fmtUSD(c.Breakdown.BaseCost))
	fmt.Fprintf(b, "| Site improvements | %s |\n", fmtUSD(c.Breakdown.SiteImprovements))
	fmt.Fprintf(b, "| Soft costs | %s |\n", fmtUSD(c.Breakdown.SoftCosts))
	fmt.Fprintf(b, "| Developer profit | %s |\n", fmtUSD(c.Breakdown.Profit))
	fmt.Fprintf(b, "| Replacement cost | %s |\n", fmtUSD(c.Breakdown.ReplacementCost))
	fmt.Fprintf(b, "| Less depreciation | (%s) |\n\n", fmtUSD(c.Depreciation.Total))
	fmt.Fprintf(b, "Depreciation: physical curable %s, short-lived %s, long-lived %s, functional %s, external %s "+
		"(effective age %.0f of %.0f-year economic life).\n\n",
		fmtUSD(c.Depreciation.PhysicalCurable), fmtUSD(c.Depreciation.PhysicalShortLived),
		fmtUSD(c.Depreciation.PhysicalLongLived), fmtUSD(c.Depreciation.Functional),
		fmtUSD(c.Depreciation.External), c.Depreciation.EffectiveAge, c.Depreciation.EconomicLife)
	if full {
		fmt.Fprintf(b, "%s\n\n", sanitize(c.Narrative))
	}
}

func writeReconciliationSection(b *strings.Builder, rec *ReconciliationResult) {
	fmt.Fprintf(b, "## Reconciliation\n\n")
	fmt.Fprintf(b, "| Approach | Weight | Reliability |\n|---|---|---|\n")
	for _, row := range []struct {
		name   string
		weight float64
	}{
		{"sales", rec.Weights.Sales},
		{"income", rec.Weights.Income},
		{"cost", rec.Weights.Cost},
	} {
		rel := "not applicable"
		if r, ok := rec.Reliability[row.name]; ok {
			rel = fmt.Sprintf("%.0f/100 (%s)", r.Score, r.Label)
		}
		fmt.Fprintf(b, "| %s | %.1f%% | %s |\n", row.name, row.weight*100, rel)
	}
	fmt.Fprintf(b, "\nApproach agreement: %s (spread %.1f%%, acceptable: %v).\n\n",
		rec.Variance.Label, rec.Variance.Range*100, rec.Variance.Acceptable)
	fmt.Fprintf(b, "%s\n\n", sanitize(rec.Narrative))
}

// writeAssumptionsSection discloses every value the engine assumed rather
// than received, so supplied and defaulted inputs are distinguishable.
func writeAssumptionsSection(b *strings.Builder, r *AppraisalResult) {
	defaults := r.Validation.Completeness.AssumedDefaults
	if len(defaults) == 0 {
		return
	}
	fmt.Fprintf(b, "## Assumed Defaults\n\n")
	for _, d := range defaults {
		fmt.Fprintf(b, "- `%s`: %s (source: %s)\n", d.Field, sanitize(d.Value), d.Source)
	}
	b.WriteString("\n")
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// sanitizeCell additionally escapes pipes so table columns stay aligned.
func sanitizeCell(s string) string {
	return strings.ReplaceAll(sanitize(s), "|", "\\|")
}

// fmtUSD formats a dollar amount with comma separators, e.g. 13600000 →
// "$13,600,000". Fractions are dropped; appraisal figures are whole dollars.
func fmtUSD(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return "-" + fmtUSD(float64(-n))
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return "$" + s
	}
	var b strings.Builder
	b.WriteByte('$')
	rem := len(s) % 3
	if rem > 0 {
		b.WriteString(s[:rem])
	}
	for i := rem; i < len(s); i += 3 {
		if b.Len() > 1 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
