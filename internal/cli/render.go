package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openappraisal/appraisal-engine/internal/appraisal"
	"github.com/openappraisal/appraisal-engine/internal/renderer"
	"github.com/openappraisal/appraisal-engine/internal/store"
)

var (
	renderDBPath string
	renderOut    string
)

var renderCmd = &cobra.Command{
	Use:   "render <appraisal-id>",
	Short: "Render a stored appraisal as markdown or PDF",
	Long: `Render loads a completed run from the database and writes its report.
The output format follows the file extension: .md writes markdown,
.pdf renders through headless Chromium.

Example:
  appraisalctl render 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed --out report.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderDBPath, "db", "appraisals.db", "SQLite database path")
	renderCmd.Flags().StringVar(&renderOut, "out", "report.md", "output path (.md or .pdf)")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(renderDBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := st.Get(ctx, args[0])
	if err != nil {
		return err
	}
	markdown := appraisal.BuildReport(result)

	if strings.HasSuffix(renderOut, ".pdf") {
		blob, err := renderer.NewChromiumPDFRenderer().RenderPDF(ctx, markdown)
		if err != nil {
			return fmt.Errorf("render pdf: %w", err)
		}
		if err := os.WriteFile(renderOut, blob, 0o644); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	} else {
		if err := os.WriteFile(renderOut, []byte(markdown), 0o644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "wrote %s\n", renderOut)
	}
	return nil
}
