package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kirei-app/kirei/internal/domain"
	"github.com/kirei-app/kirei/internal/health"
	"github.com/kirei-app/kirei/internal/version"
)

const defaultTopCount = 5

// Server is the HTTP API for the beauty advisor.
type Server struct {
	records   RecordSource
	chat      ChatService
	health    HealthService
	reindexer Reindexer
	logger    *zap.Logger
}

// NewServer creates an HTTP API server. reindexer may be nil when no
// embedding backend is configured.
func NewServer(records RecordSource, chat ChatService, healthSvc HealthService, reindexer Reindexer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		records:   records,
		chat:      chat,
		health:    healthSvc,
		reindexer: reindexer,
		logger:    logger,
	}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/history", s.handleHistory)
		r.Get("/records", s.handleListRecords)
		r.Get("/records/search", s.handleSearchRecords)
		r.Get("/records/top", s.handleTopRecords)
		r.Get("/stats", s.handleStats)
		r.Post("/reindex", s.handleReindex)
	})
}

// handleRoot handles GET /.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "kirei",
		"version": version.Version,
		"endpoints": []string{
			"GET /health",
			"GET /metrics",
			"POST /api/chat",
			"GET /api/history",
			"GET /api/records",
			"GET /api/records/search",
			"GET /api/records/top",
			"GET /api/stats",
			"POST /api/reindex",
		},
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != health.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "message is required")
		return
	}

	id, reply := s.chat.Chat(r.Context(), req.Message, req.SessionID)
	writeJSON(w, http.StatusOK, chatResponse{SessionID: id, Reply: reply})
}

// handleHistory handles GET /api/history, the full turn log of a session.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if strings.TrimSpace(sessionID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "query parameter session_id is required")
		return
	}

	turns := s.chat.History(sessionID)
	if turns == nil {
		turns = []domain.Turn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"total":      len(turns),
		"turns":      turns,
	})
}

// handleListRecords handles GET /api/records with optional region, category
// and min_rating filters.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minRating := 0.0
	if raw := q.Get("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 5 {
			writeError(w, http.StatusBadRequest, "invalid_query", "min_rating must be a number between 0 and 5")
			return
		}
		minRating = v
	}

	records := s.records.Filter(q.Get("region"), q.Get("category"), minRating)
	writeRecordList(w, records)
}

// handleSearchRecords handles GET /api/records/search.
func (s *Server) handleSearchRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "query parameter q is required")
		return
	}

	sessionID, records := s.chat.Search(r.Context(), query, q.Get("session_id"))
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"total":      len(records),
		"items":      recordItems(records),
	})
}

// handleTopRecords handles GET /api/records/top.
func (s *Server) handleTopRecords(w http.ResponseWriter, r *http.Request) {
	n := defaultTopCount
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			writeError(w, http.StatusBadRequest, "invalid_query", "n must be an integer between 1 and 100")
			return
		}
		n = v
	}

	writeRecordList(w, s.records.TopRated(n))
}

// handleStats handles GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.records.Statistics())
}

// handleReindex handles POST /api/reindex.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if s.reindexer == nil {
		writeError(w, http.StatusServiceUnavailable, "backend_unavailable", "semantic indexing is not configured")
		return
	}

	if err := s.reindexer.Rebuild(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, "backend_unavailable", domain.ErrBackendUnavailable.Error())
	case errors.Is(err, domain.ErrBackendCallFailed):
		writeError(w, http.StatusBadGateway, "backend_call_failed", domain.ErrBackendCallFailed.Error())
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "invalid_query", domain.ErrInvalidQuery.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeRecordList(w http.ResponseWriter, records []domain.Record) {
	writeJSON(w, http.StatusOK, map[string]any{
		"total": len(records),
		"items": recordItems(records),
	})
}

// recordItems guarantees a JSON array even for an empty result.
func recordItems(records []domain.Record) []domain.Record {
	if records == nil {
		return []domain.Record{}
	}
	return records
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
