package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/openappraisal/appraisal-engine/internal/appraisal"
	"github.com/openappraisal/appraisal-engine/internal/narrative"
	"github.com/openappraisal/appraisal-engine/internal/store"
)

var (
	appraiseOutJSON string
	appraiseOutMD   string
	appraiseDBPath  string
	appraiseSummary bool
	appraiseTimeout time.Duration
)

// appraisalRequest mirrors the REST payload so a request file works against
// both the CLI and the server.
type appraisalRequest struct {
	Subject     appraisal.SubjectProperty `json:"subject"`
	Comparables []appraisal.Comparable    `json:"comparables"`
	MarketData  appraisal.MarketData      `json:"market_data"`
	Options     appraisal.Options         `json:"options"`
}

var appraiseCmd = &cobra.Command{
	Use:   "appraise <request.json>",
	Short: "Run a full appraisal from a request file",
	Long: `Appraise reads a JSON request file describing the subject property,
comparable sales, and market data, runs validation, highest and best
use, the applicable valuation approaches, and reconciliation, then
writes the result.

Example:
  appraisalctl appraise request.json
  appraisalctl appraise request.json --md report.md --db appraisals.db`,
	Args: cobra.ExactArgs(1),
	RunE: runAppraise,
}

func init() {
	rootCmd.AddCommand(appraiseCmd)

	appraiseCmd.Flags().StringVar(&appraiseOutJSON, "json", "", "output JSON path (default: stdout)")
	appraiseCmd.Flags().StringVar(&appraiseOutMD, "md", "", "output markdown report path (optional)")
	appraiseCmd.Flags().StringVar(&appraiseDBPath, "db", "", "SQLite path to persist the run (optional)")
	appraiseCmd.Flags().BoolVar(&appraiseSummary, "summary", false, "generate an LLM executive summary (needs ANTHROPIC_API_KEY)")
	appraiseCmd.Flags().DurationVar(&appraiseTimeout, "timeout", 2*time.Minute, "overall run timeout")
}

func runAppraise(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), appraiseTimeout)
	defer cancel()

	blob, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var req appraisalRequest
	if err := json.Unmarshal(blob, &req); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}

	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	engine := appraisal.NewEngine(cfg)

	result, runErr := engine.Run(ctx, req.Subject, req.Comparables, req.MarketData, req.Options)
	if runErr != nil {
		// A halted run still has a result worth writing: the validation
		// issues tell the caller what to fix.
		fmt.Fprintf(os.Stderr, "appraisal incomplete: %v\n", runErr)
	}
	if result == nil {
		return runErr
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Run %s completed in %s\n",
			result.ID, result.Metadata.CompletedAt.Sub(result.Metadata.StartedAt))
	}

	if appraiseDBPath != "" {
		st, err := store.Open(appraiseDBPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Save(ctx, result); err != nil {
			return err
		}
	}

	if appraiseOutMD != "" {
		markdown := appraisal.BuildReport(result)
		if appraiseSummary && runErr == nil {
			markdown = withSummary(ctx, result, markdown)
		}
		if err := os.WriteFile(appraiseOutMD, []byte(markdown), 0o644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if appraiseOutJSON == "" {
		fmt.Println(string(out))
	} else if err := os.WriteFile(appraiseOutJSON, out, 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return runErr
}

// withSummary is best effort. A missing API key or transport failure leaves
// the report without an executive summary rather than failing the run.
func withSummary(ctx context.Context, result *appraisal.AppraisalResult, markdown string) string {
	caller, err := narrative.NewAnthropicCallerFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "skipping summary: %v\n", err)
		return markdown
	}
	text, err := narrative.NewSummarizer(caller).Summarize(ctx, result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skipping summary: %v\n", err)
		return markdown
	}
	return narrative.InsertSummary(markdown, text)
}
