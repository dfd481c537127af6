// Package chi exposes the retrieval pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/metrics"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docqa/internal/usecase/search"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server serves the docqa HTTP API.
type Server struct {
	retriever     Retriever
	answerer      Answerer
	normalizer    Normalizer
	explorer      Explorer
	embedder      domain.Embedder
	health        HealthChecker
	logger        *zap.Logger
	validate      *validator.Validate
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. answerer and embedder may be nil:
// without an answerer /v1/chat returns 501, without an embedder /v1/search
// runs lexical-only.
func NewServer(
	retriever Retriever,
	answerer Answerer,
	normalizer Normalizer,
	explorer Explorer,
	embedder domain.Embedder,
	health HealthChecker,
	log *zap.Logger,
) *Server {
	return &Server{
		retriever:     retriever,
		answerer:      answerer,
		normalizer:    normalizer,
		explorer:      explorer,
		embedder:      embedder,
		health:        health,
		logger:        log,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		errorHandlers: defaultErrorHandlers(),
	}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/retrieve", s.Retrieve)
		r.Post("/chat", s.Chat)
		r.Post("/normalize", s.Normalize)
		r.Post("/search", s.Search)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// Retrieve handles POST /v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if !s.decode(w, r, &req) {
		return
	}

	scope := passage.Scope{DocumentIDs: req.Scope.DocumentIDs, Sources: req.Scope.Sources}
	res, err := s.retriever.RetrieveAndFormatIn(r.Context(), turnsFromMessages(req.Messages), scope)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RetrieveResponse{
		Context:     res.Context,
		Outcome:     string(res.Outcome),
		Query:       res.Query,
		Original:    res.Original,
		Corrections: corrections(res.Corrections),
		Passages:    passageItems(res.Passages),
	})
}

// Chat handles POST /v1/chat. Clarification and generation failures are
// regular 200 replies.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	if s.answerer == nil {
		writeError(w, http.StatusNotImplemented, CodeNotImplemented, "generation is not configured")
		return
	}
	var req ChatRequest
	if !s.decode(w, r, &req) {
		return
	}

	reply, err := s.answerer.Answer(r.Context(), turnsFromMessages(req.Messages))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:   reply.Text,
		Outcome: string(reply.Retrieval.Outcome),
		Query:   reply.Retrieval.Query,
		Failed:  reply.Failed,
	})
}

// Normalize handles POST /v1/normalize.
func (s *Server) Normalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if !s.decode(w, r, &req) {
		return
	}

	res := s.normalizer.Normalize(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, NormalizeResponse{
		Original:    req.Query,
		Query:       res.Query,
		Corrections: corrections(res.Corrections),
	})
}

// Search handles POST /v1/search: exploratory multi-source ranking.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	query := s.normalizer.Normalize(ctx, req.Query).Query

	var vector []float32
	if s.embedder != nil {
		emb, err := s.embedder.Embed(ctx, query)
		if err != nil {
			logger.OrFallback(ctx, s.logger).Warn("Search embedding failed, continuing lexical-only", zap.Error(err))
		} else {
			vector = emb.Embedding
		}
	}

	items, err := s.explorer.Explore(ctx, searchuc.ExploreRequest{
		Query:       query,
		Vector:      vector,
		Sources:     req.Sources,
		DocumentIDs: req.DocumentIDs,
		TopK:        req.TopK,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Items: passageItems(items), Total: len(items)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

// validationMessage renders validator errors as "field: rule" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		field := strings.ToLower(fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:])
		if fe.Param() != "" {
			parts[i] = fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param())
		} else {
			parts[i] = fmt.Sprintf("%s: %s", field, fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}
