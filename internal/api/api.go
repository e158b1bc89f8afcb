package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/greenstack-labs/envmon-controller/db"
	"github.com/greenstack-labs/envmon-controller/internal/model"
)

const defaultHistoryLimit = 50
const maxHistoryLimit = 1000

// Controller is the slice of the runner the API needs: the stored severity
// level for monitoring and the reset request edge.
type Controller interface {
	CurrentLevel() model.SeverityLevel
	RequestReset()
}

type Server struct {
	db         *sql.DB
	controller Controller
	hub        *Hub
}

type StatusResponse struct {
	Level    string         `json:"level"`
	Raw      uint8          `json:"raw"`
	LastTick *db.TickRecord `json:"last_tick"`
}

type HistoryResponse struct {
	Ticks []db.TickRecord `json:"ticks"`
}

type LevelCountsResponse struct {
	Counts map[string]int `json:"counts"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(database *sql.DB, controller Controller, hub *Hub) *Server {
	return &Server{
		db:         database,
		controller: controller,
		hub:        hub,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Get("/api/status", s.getStatus)
	r.Get("/api/history", s.getHistory)
	r.Get("/api/levels", s.getLevelCounts)
	r.Post("/api/reset", s.postReset)
	r.Get("/api/stream", s.hub.ServeStream)

	return r
}

// Start serves the API until the process exits.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Info().Str("address", addr).Msg("Starting REST API server")
	return http.ListenAndServe(addr, s.Router())
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	last, err := db.GetLatestTick(s.db)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to load latest tick")
		return
	}

	level := s.controller.CurrentLevel()
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Level:    level.String(),
		Raw:      level.Raw(),
		LastTick: last,
	})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	ticks, err := db.GetRecentTicks(s.db, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to load tick history")
		return
	}
	if ticks == nil {
		ticks = []db.TickRecord{}
	}

	s.writeJSON(w, http.StatusOK, HistoryResponse{Ticks: ticks})
}

func (s *Server) getLevelCounts(w http.ResponseWriter, _ *http.Request) {
	counts, err := db.GetLevelCounts(s.db)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to load level counts")
		return
	}

	s.writeJSON(w, http.StatusOK, LevelCountsResponse{Counts: counts})
}

func (s *Server) postReset(w http.ResponseWriter, _ *http.Request) {
	log.Info().Msg("Reset requested via API")
	s.controller.RequestReset()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "reset pending"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode API response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
