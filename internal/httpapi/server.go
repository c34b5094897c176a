package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openappraisal/appraisal-engine/internal/appraisal"
	"github.com/openappraisal/appraisal-engine/internal/store"
)

// Storage is the subset of the store the API needs.
type Storage interface {
	Save(ctx context.Context, r *appraisal.AppraisalResult) error
	Get(ctx context.Context, id string) (*appraisal.AppraisalResult, error)
	List(ctx context.Context, limit, offset int) ([]store.Summary, error)
	Delete(ctx context.Context, id string) error
}

// PDFRenderer turns report markdown into a PDF document.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, markdown string) ([]byte, error)
}

type Server struct {
	engine   *appraisal.Engine
	store    Storage
	renderer PDFRenderer
	reports  *cache.Cache
	tracer   trace.Tracer
}

// AppraisalRequest is the POST /v1/appraisals payload.
type AppraisalRequest struct {
	Subject     appraisal.SubjectProperty `json:"subject"`
	Comparables []appraisal.Comparable    `json:"comparables"`
	MarketData  appraisal.MarketData      `json:"market_data"`
	Options     appraisal.Options         `json:"options"`
}

// NewServer wires the REST surface. renderer may be nil; PDF endpoints then
// report unavailable.
func NewServer(engine *appraisal.Engine, st Storage, renderer PDFRenderer) http.Handler {
	s := &Server{
		engine:   engine,
		store:    st,
		renderer: renderer,
		reports:  cache.New(15*time.Minute, 30*time.Minute),
		tracer:   otel.Tracer("appraisal-httpapi"),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/appraisals", s.handleAppraisals)
	mux.HandleFunc("/v1/appraisals/", s.handleAppraisalByID)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.Status, map[string]any{
			"ok": false,
			"error": map[string]any{
				"code":      apiErr.Code,
				"message":   apiErr.Message,
				"transient": apiErr.Transient,
			},
		})
		return
	}
	writeJSON(w, 500, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":      CodeInternal,
			"message":   err.Error(),
			"transient": true,
		},
	})
}

func parseInt(value string, def int) int {
	if strings.TrimSpace(value) == "" {
		return def
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return v
}

func (s *Server) handleAppraisals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreate(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		writeError(w, NewValidationError("method not allowed"))
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "httpapi.create_appraisal")
	defer span.End()

	blob, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, NewValidationError("unreadable request body"))
		return
	}
	var req AppraisalRequest
	if err := json.Unmarshal(blob, &req); err != nil {
		writeError(w, NewValidationError("invalid json: "+err.Error()))
		return
	}

	result, runErr := s.engine.Run(ctx, req.Subject, req.Comparables, req.MarketData, req.Options)
	if runErr != nil {
		// A failed run still carries the validation detail the caller needs.
		var stageErr *appraisal.StageError
		if errors.As(runErr, &stageErr) {
			writeJSON(w, 422, map[string]any{
				"ok": false,
				"error": map[string]any{
					"code":    CodeValidation,
					"message": stageErr.Error(),
					"stage":   stageErr.Stage,
				},
				"result": result,
			})
			return
		}
		writeError(w, runErr)
		return
	}
	span.SetAttributes(attribute.String("appraisal.id", result.ID))

	if err := s.store.Save(ctx, result); err != nil {
		writeError(w, NewInternalError("persist appraisal: "+err.Error()))
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "result": result})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)
	summaries, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, NewInternalError(err.Error()))
		return
	}
	writeJSON(w, 200, map[string]any{"appraisals": summaries})
}

// handleAppraisalByID serves /v1/appraisals/{id}, /v1/appraisals/{id}/report,
// and /v1/appraisals/{id}/report.pdf.
func (s *Server) handleAppraisalByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/appraisals/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		writeError(w, NewValidationError("appraisal id is required"))
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "report":
			s.handleReport(w, r, id, false)
		case "report.pdf":
			s.handleReport(w, r, id, true)
		default:
			writeError(w, NewNotFoundError("unknown resource "+parts[1]))
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		result, err := s.store.Get(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, NewNotFoundError("appraisal "+id+" not found"))
			return
		}
		if err != nil {
			writeError(w, NewInternalError(err.Error()))
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "result": result})
	case http.MethodDelete:
		err := s.store.Delete(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, NewNotFoundError("appraisal "+id+" not found"))
			return
		}
		if err != nil {
			writeError(w, NewInternalError(err.Error()))
			return
		}
		s.reports.Delete(id)
		writeJSON(w, 200, map[string]any{"ok": true})
	default:
		writeError(w, NewValidationError("method not allowed"))
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, id string, pdf bool) {
	ctx, span := s.tracer.Start(r.Context(), "httpapi.render_report",
		trace.WithAttributes(attribute.String("appraisal.id", id), attribute.Bool("pdf", pdf)))
	defer span.End()

	markdown, err := s.reportMarkdown(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}

	if !pdf {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(markdown))
		return
	}

	if s.renderer == nil {
		writeError(w, newError(CodeUnavailable, "pdf rendering is not configured", false))
		return
	}
	blob, err := s.renderer.RenderPDF(ctx, markdown)
	if err != nil {
		writeError(w, NewInternalError("render pdf: "+err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(200)
	_, _ = w.Write(blob)
}

// reportMarkdown serves rendered markdown from cache; a run's report is
// immutable once stored, so the cache only needs invalidation on delete.
func (s *Server) reportMarkdown(ctx context.Context, id string) (string, error) {
	if cached, ok := s.reports.Get(id); ok {
		return cached.(string), nil
	}
	result, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return "", NewNotFoundError("appraisal " + id + " not found")
	}
	if err != nil {
		return "", NewInternalError(err.Error())
	}
	markdown := appraisal.BuildReport(result)
	s.reports.SetDefault(id, markdown)
	return markdown, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"ok": true, "time": time.Now().UTC().Format(time.RFC3339)})
}
