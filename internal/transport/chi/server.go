package chi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atlas4d/gateway/internal/domain"
	"github.com/atlas4d/gateway/internal/logger"
	"github.com/atlas4d/gateway/internal/projection"
	anomalyuc "github.com/atlas4d/gateway/internal/usecase/anomaly"
	healthuc "github.com/atlas4d/gateway/internal/usecase/health"
	observationuc "github.com/atlas4d/gateway/internal/usecase/observation"
	statsuc "github.com/atlas4d/gateway/internal/usecase/stats"
)

const maxBodyBytes = 1 << 20

// ErrorCode is the machine-readable error identifier in error bodies.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeInvalidFilter      ErrorCode = "invalid_filter"
	CodeInvalidObservation ErrorCode = "invalid_observation"
	CodeNotFound           ErrorCode = "not_found"
	CodeStoreUnavailable   ErrorCode = "store_unavailable"
	CodeQueryFailed        ErrorCode = "query_failed"
	CodeInternalError      ErrorCode = "internal_error"
)

type errorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type healthResponse struct {
	Status   healthuc.Status `json:"status"`
	Postgres string          `json:"postgres"`
	Redis    string          `json:"redis"`
	Version  string          `json:"version"`
}

type createdResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the gateway HTTP API.
type Server struct {
	observations  *observationuc.Service
	anomalies     *anomalyuc.Service
	stats         *statsuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	observations *observationuc.Service,
	anomalies *anomalyuc.Service,
	stats *statsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		observations: observations,
		anomalies:    anomalies,
		stats:        stats,
		health:       health,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, CodeInvalidFilter),
		sentinelHandler(domain.ErrInvalidObservation, http.StatusBadRequest, CodeInvalidObservation),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, CodeStoreUnavailable),
		sentinelHandler(domain.ErrQueryExecutionFailed, http.StatusInternalServerError, CodeQueryFailed),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api", func(r chi.Router) {
		r.Get("/observations", s.ListObservations)
		r.Post("/observations", s.CreateObservation)
		r.Get("/observations/{id}", s.GetObservation)
		r.Get("/anomalies", s.ListAnomalies)
		r.Get("/stats", s.GetStats)
		r.Get("/geojson/observations", s.ObservationsGeoJSON)
	})
}

// HealthCheck handles GET /health. It always answers 200; degradation is in the body.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   report.Status,
		Postgres: string(report.Postgres),
		Redis:    string(report.Redis),
		Version:  report.Version,
	})
}

// ListObservations handles GET /api/observations.
func (s *Server) ListObservations(w http.ResponseWriter, r *http.Request) {
	params, err := listObservationsParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	obs, err := s.observations.List(r.Context(), params)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projection.Observations(obs))
}

// CreateObservation handles POST /api/observations.
func (s *Server) CreateObservation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req observationuc.NewObservation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	o, err := s.observations.Create(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdResponse{ID: o.ID(), Status: "created"})
}

// GetObservation handles GET /api/observations/{id}.
func (s *Server) GetObservation(w http.ResponseWriter, r *http.Request) {
	id, err := observationID(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	o, err := s.observations.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projection.Observation(&o))
}

// ListAnomalies handles GET /api/anomalies.
func (s *Server) ListAnomalies(w http.ResponseWriter, r *http.Request) {
	params, err := listAnomaliesParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	as, err := s.anomalies.List(r.Context(), params)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projection.Anomalies(as))
}

// GetStats handles GET /api/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	sum, err := s.stats.Summary(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projection.Summary(&sum))
}

// ObservationsGeoJSON handles GET /api/geojson/observations.
func (s *Server) ObservationsGeoJSON(w http.ResponseWriter, r *http.Request) {
	params, err := featureParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	obs, err := s.observations.Features(r.Context(), params)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projection.FeatureCollection(obs))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message. Validation errors echo the
// offending parameter; store errors collapse to their sentinel text.
func safeDomainMessage(err error) string {
	var fe *domain.FilterError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	var oe *domain.ObservationError
	if errors.As(err, &oe) {
		return oe.Error()
	}

	sentinels := []error{
		domain.ErrInvalidFilter,
		domain.ErrInvalidObservation,
		domain.ErrNotFound,
		domain.ErrStoreUnavailable,
		domain.ErrQueryExecutionFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// The request logger already carries request_id.
	l := logger.FromContextOr(r.Context(), s.logger).With(zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrInvalidFilter), errors.Is(err, domain.ErrInvalidObservation),
		errors.Is(err, domain.ErrNotFound):
		l.Debug("request rejected")
	case errors.Is(err, domain.ErrStoreUnavailable):
		l.Warn("store unavailable")
	default:
		l.Error("request failed", zap.String("query", r.URL.RawQuery))
	}

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
