package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/openappraisal/appraisal-engine/internal/appraisal"
	"github.com/openappraisal/appraisal-engine/internal/httpapi"
	"github.com/openappraisal/appraisal-engine/internal/renderer"
	"github.com/openappraisal/appraisal-engine/internal/store"
	"github.com/openappraisal/appraisal-engine/internal/telemetry"
)

// appraisal-server is the headless deployment entry point. It skips the CLI
// config layering and runs with engine defaults; use appraisalctl serve for
// configurable local runs.
func main() {
	var (
		addr     = flag.String("addr", ":8080", "Listen address")
		dbPath   = flag.String("db", "appraisals.db", "SQLite database path")
		noPDF    = flag.Bool("no-pdf", false, "Disable PDF rendering")
		otlpAddr = flag.String("otlp-endpoint", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), "OTLP trace collector host:port")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, "appraisal-server", "dev", *otlpAddr)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	var pdf httpapi.PDFRenderer
	if !*noPDF {
		pdf = renderer.NewChromiumPDFRenderer()
	}

	handler := httpapi.NewServer(appraisal.NewEngine(appraisal.DefaultConfig()), st, pdf)

	log.Printf("appraisal server listening on %s (db=%s, pdf=%v)", *addr, *dbPath, pdf != nil)
	srv := &http.Server{Addr: *addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
