// Package chi exposes the question generation pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/domain"
	logpkg "github.com/kailas-cloud/quizgen/internal/logger"
	"github.com/kailas-cloud/quizgen/internal/metrics"
	"github.com/kailas-cloud/quizgen/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/quizgen/internal/usecase/health"
)

// defaultMaxBodyBytes comfortably fits the content ceiling in multi-byte scripts.
const defaultMaxBodyBytes = 1 << 20

// Server holds the HTTP handlers.
type Server struct {
	generator     Generator
	retriever     Retriever
	indexer       Indexer
	health        HealthReporter
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. retriever and indexer may be nil; their routes then answer 501.
func NewServer(
	generator Generator,
	retriever Retriever,
	indexer Indexer,
	health HealthReporter,
	logger *zap.Logger,
) *Server {
	return &Server{
		generator:     generator,
		retriever:     retriever,
		indexer:       indexer,
		health:        health,
		logger:        logger,
		maxBodyBytes:  defaultMaxBodyBytes,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithMaxBodyBytes overrides the request body limit.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/questions", s.GenerateQuestions)
		r.Post("/search", s.Search)
		r.Get("/documents/{id}/similar", s.SimilarDocuments)
		r.Put("/documents/{id}", s.IndexDocument)
	})
	return r
}

// GenerateQuestions handles POST /v1/questions.
func (s *Server) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req GenerateQuestionsRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.generator.Generate(r.Context(), generation.Request{
		Content:            req.Content,
		Difficulty:         req.Difficulty,
		OwnerID:            req.OwnerID,
		DocumentID:         req.DocumentID,
		UseSemanticContext: req.UseSemanticContext,
		TopK:               req.TopK,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateQuestionsResponse{
		Questions:  res.Questions,
		Difficulty: res.Difficulty,
		Segments:   res.Segments,
		Enriched:   res.Enriched,
	})
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	if s.retriever == nil {
		writeError(w, http.StatusNotImplemented, CodeBadRequest, "semantic search is not configured")
		return
	}

	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "owner_id is required")
		return
	}

	items := s.retriever.FindRelated(r.Context(), req.Query, req.OwnerID, req.TopK)
	writeJSON(w, http.StatusOK, contextList(items))
}

// SimilarDocuments handles GET /v1/documents/{id}/similar?owner_id=...&top_k=...
func (s *Server) SimilarDocuments(w http.ResponseWriter, r *http.Request) {
	if s.retriever == nil {
		writeError(w, http.StatusNotImplemented, CodeBadRequest, "semantic search is not configured")
		return
	}

	id := chi.URLParam(r, "id")
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "owner_id query parameter is required")
		return
	}

	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "top_k must be a positive integer")
			return
		}
		topK = n
	}

	items, err := s.retriever.FindSimilarTo(r.Context(), id, ownerID, topK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contextList(items))
}

// IndexDocument handles PUT /v1/documents/{id}.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		writeError(w, http.StatusNotImplemented, CodeBadRequest, "document indexing is not configured")
		return
	}

	var req IndexDocumentRequest
	if !s.decode(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	created, err := s.indexer.Index(r.Context(), id, req.OwnerID, req.Content)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", fmt.Sprintf("/v1/documents/%s", id))
	}
	writeJSON(w, status, IndexDocumentResponse{ID: id, OwnerID: req.OwnerID, Created: created})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeInputTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func contextList(items []domain.ContextCandidate) ContextListResponse {
	if items == nil {
		items = []domain.ContextCandidate{}
	}
	return ContextListResponse{Items: items, Total: len(items)}
}
