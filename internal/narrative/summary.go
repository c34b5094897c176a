package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openappraisal/appraisal-engine/internal/appraisal"
)

// Summarizer asks an LLM for an executive summary of a completed run and
// splices it into the report markdown. Report generation never depends on it;
// a run without a summary is still a complete report.
type Summarizer struct {
	caller LLMCaller
}

func NewSummarizer(caller LLMCaller) *Summarizer {
	return &Summarizer{caller: caller}
}

// Summarize generates executive-summary prose for the run. The prompt carries
// every figure the model is allowed to use, so the result can be checked
// against the structured output.
func (s *Summarizer) Summarize(ctx context.Context, r *appraisal.AppraisalResult) (string, error) {
	prompt := buildPrompt(r)
	for attempt := 1; attempt <= 3; attempt++ {
		text, err := s.caller.GenerateText(ctx, prompt)
		if err != nil {
			class := classifyTransportError(err)
			if (class == failureTimeout || class == failureRateLimit || class == failureServer) && attempt < 3 {
				time.Sleep(backoffDelay(attempt))
				continue
			}
			return "", fmt.Errorf("summary transport failure: %w", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			if attempt < 3 {
				continue
			}
			return "", fmt.Errorf("summary failed: empty response")
		}
		return text, nil
	}
	return "", fmt.Errorf("summary failed after retries")
}

// InsertSummary places an Executive Summary section directly after the report
// title. Markdown without a title gets the section prepended.
func InsertSummary(markdown, summary string) string {
	section := "## Executive Summary\n\n" + strings.TrimSpace(summary) + "\n"
	lines := strings.SplitN(markdown, "\n", 2)
	if len(lines) == 2 && strings.HasPrefix(lines[0], "# ") {
		return lines[0] + "\n\n" + section + "\n" + strings.TrimLeft(lines[1], "\n")
	}
	return section + "\n" + markdown
}

func buildPrompt(r *appraisal.AppraisalResult) string {
	var sb strings.Builder
	sb.WriteString("Write a two-paragraph executive summary for a commercial appraisal report.\n\n")
	fmt.Fprintf(&sb, "Property: %s, a %s property in %s, %s\n",
		r.Subject.Name, r.Subject.PropertyType, r.Subject.Location.City, r.Subject.Location.State)
	fmt.Fprintf(&sb, "Effective date: %s\n", r.Metadata.EffectiveDate.Format("January 2, 2006"))
	fmt.Fprintf(&sb, "Final value conclusion: $%.0f (range $%.0f to $%.0f)\n",
		r.FinalValue, r.ValueRange.Low, r.ValueRange.High)
	fmt.Fprintf(&sb, "Overall confidence: %.0f out of 100\n", r.Confidence)

	if r.Sales != nil {
		fmt.Fprintf(&sb, "Sales comparison indication: $%.0f from %d valid comparables\n",
			r.Sales.ValueIndication, r.Sales.ValidCount)
	}
	if r.Income != nil {
		fmt.Fprintf(&sb, "Income capitalization indication: $%.0f at a %.2f%% capitalization rate\n",
			r.Income.ValueIndication, r.Income.CapRate*100)
	}
	if r.Cost != nil {
		fmt.Fprintf(&sb, "Cost approach indication: $%.0f (%s applicability)\n",
			r.Cost.ValueIndication, r.Cost.Applicability)
	}
	if r.Reconciliation != nil {
		fmt.Fprintf(&sb, "Reconciliation variance between approaches: %s\n", r.Reconciliation.Variance.Label)
	}
	sb.WriteString("\nUse only these figures. Do not speculate beyond them.")
	return sb.String()
}
