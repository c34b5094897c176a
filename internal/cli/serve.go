package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/openappraisal/appraisal-engine/internal/appraisal"
	"github.com/openappraisal/appraisal-engine/internal/httpapi"
	"github.com/openappraisal/appraisal-engine/internal/renderer"
	"github.com/openappraisal/appraisal-engine/internal/store"
	"github.com/openappraisal/appraisal-engine/internal/telemetry"
)

var (
	serveAddr     string
	serveDBPath   string
	serveNoPDF    bool
	serveOTLPAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the appraisal REST API",
	Long: `Serve starts the HTTP API: POST /v1/appraisals runs a full appraisal,
GET endpoints retrieve stored runs and rendered reports.

Example:
  appraisalctl serve --addr :8080 --db appraisals.db`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "appraisals.db", "SQLite database path")
	serveCmd.Flags().BoolVar(&serveNoPDF, "no-pdf", false, "disable PDF rendering even when Chromium is present")
	serveCmd.Flags().StringVar(&serveOTLPAddr, "otlp-endpoint", "", "OTLP trace collector host:port (optional)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, "appraisal-engine", version, serveOTLPAddr)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		_ = shutdown(flushCtx)
	}()

	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(serveDBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	var pdf httpapi.PDFRenderer
	if !serveNoPDF {
		pdf = renderer.NewChromiumPDFRenderer()
	}

	handler := httpapi.NewServer(appraisal.NewEngine(cfg), st, pdf)

	fmt.Fprintf(os.Stderr, "appraisal engine listening on %s (db=%s, pdf=%v)\n", serveAddr, serveDBPath, pdf != nil)
	srv := &http.Server{Addr: serveAddr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = srv.Shutdown(stopCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
