package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/metrics"
	"github.com/kailas-cloud/solrq/internal/transport/dto"
	exportuc "github.com/kailas-cloud/solrq/internal/usecase/export"
	healthuc "github.com/kailas-cloud/solrq/internal/usecase/health"
	searchuc "github.com/kailas-cloud/solrq/internal/usecase/search"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest      = "bad_request"
	codeInvalidArgument = "invalid_argument"
	codeInvalidUsage    = "invalid_api_usage"
	codeNotFound        = "not_found"
	codeInvalidState    = "invalid_state"
	codeUpstream        = "upstream_error"
	codeTimeout         = "upstream_timeout"
	codeInternal        = "internal_error"
	codeNotAllowed      = "method_not_allowed"
)

// Headers set on export responses.
const (
	HeaderExportID      = "X-Export-ID"
	HeaderExportResumed = "X-Export-Resumed"
	TrailerExported     = "X-Export-Exported"
	TrailerCursorMark   = "X-Export-Cursor-Mark"
	TrailerFinished     = "X-Export-Finished"
	TrailerError        = "X-Export-Error"
	contentTypeNDJSON   = "application/x-ndjson"
	contentTypeJSON     = "application/json"
	exportTrailers      = TrailerExported + ", " + TrailerCursorMark + ", " + TrailerFinished + ", " + TrailerError
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the query API.
type Server struct {
	search        *searchuc.Service
	export        *exportuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	export *exportuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search: search,
		export: export,
		health: health,
		logger: logger,
	}
	// Order matters: an engine 400 carries both ErrAPIUsage and ErrUpstream.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeInvalidArgument, true),
		sentinelHandler(domain.ErrAPIUsage, http.StatusBadRequest, codeInvalidUsage, true),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound, true),
		sentinelHandler(domain.ErrInvalidState, http.StatusConflict, codeInvalidState, false),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, codeTimeout, false),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, codeUpstream, false),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeNotAllowed, "method not allowed")
	})
	r.Post("/v1/queries:compile", s.CompileQuery)
	r.Post("/v1/search", s.Search)
	r.Post("/v1/export", s.Export)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// CompileQuery handles POST /v1/queries:compile.
func (s *Server) CompileQuery(w http.ResponseWriter, r *http.Request) {
	body, err := dto.DecodeQuery(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	q, err := body.ToDomain()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	p, err := s.search.Compile(q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCompileResponse(p))
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	body, err := dto.DecodeQuery(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	q, err := body.ToDomain()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	res, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSearchResponse(res))
}

// Export handles POST /v1/export. Documents are streamed as NDJSON and the
// final progress is sent in trailers. Errors before the first document get
// a regular JSON error response.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	body, err := dto.DecodeExport(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	q, err := body.Query.ToDomain()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	job, err := s.export.Prepare(r.Context(), exportuc.Request{
		Query:     q,
		ResumeID:  body.ResumeID,
		BatchSize: body.BatchSize,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	metrics.ExportsInFlight.Inc()
	defer metrics.ExportsInFlight.Dec()

	w.Header().Set(HeaderExportID, job.ID())
	w.Header().Set(HeaderExportResumed, strconv.FormatBool(job.Resumed()))

	out := newNDJSONWriter(w)
	progress, err := job.Run(r.Context(), out.write)
	if err != nil && !out.started {
		s.handleDomainError(w, err)
		return
	}
	if err != nil {
		s.logger.Warn("export aborted mid-stream",
			zap.String("export_id", job.ID()),
			zap.Int64("exported", progress.Exported),
			zap.Error(err),
		)
	}
	out.finish(progress, err)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: report.Checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// ndjsonWriter writes one compact document per line. The status line and
// trailer declaration go out with the first document.
type ndjsonWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	buf     bytes.Buffer
	started bool
}

func newNDJSONWriter(w http.ResponseWriter) *ndjsonWriter {
	return &ndjsonWriter{w: w, rc: http.NewResponseController(w)}
}

func (n *ndjsonWriter) start() {
	if n.started {
		return
	}
	n.started = true
	n.w.Header().Set("Content-Type", contentTypeNDJSON)
	n.w.Header().Set("Trailer", exportTrailers)
	n.w.WriteHeader(http.StatusOK)
}

func (n *ndjsonWriter) write(doc json.RawMessage) error {
	n.start()
	n.buf.Reset()
	if err := json.Compact(&n.buf, doc); err != nil {
		return err //nolint:wrapcheck // wrapped by the export job
	}
	n.buf.WriteByte('\n')
	if _, err := n.w.Write(n.buf.Bytes()); err != nil {
		return err //nolint:wrapcheck // wrapped by the export job
	}
	if err := n.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err //nolint:wrapcheck // wrapped by the export job
	}
	return nil
}

func (n *ndjsonWriter) finish(p exportuc.Progress, runErr error) {
	n.start()
	h := n.w.Header()
	h.Set(TrailerExported, strconv.FormatInt(p.Exported, 10))
	h.Set(TrailerCursorMark, p.CursorMark)
	h.Set(TrailerFinished, strconv.FormatBool(p.Finished))
	if runErr != nil {
		h.Set(TrailerError, safeDomainMessage(runErr))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidArgument,
		domain.ErrAPIUsage,
		domain.ErrNotFound,
		domain.ErrInvalidState,
		context.DeadlineExceeded,
		domain.ErrUpstream,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Client errors carry the full message; it only describes the request.
func sentinelHandler(sentinel error, status int, code string, detailed bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if detailed {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
