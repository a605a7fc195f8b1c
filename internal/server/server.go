package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"haulmon/internal/log"
	"haulmon/internal/missions"
)

// Server exposes the mission state over HTTP for the display frontend.
type Server struct {
	store     *missions.Store
	refreshMS int
}

// New creates the API handler around store. refreshMS is advertised to
// clients as the suggested poll interval.
func New(store *missions.Store, refreshMS int) *Server {
	return &Server{store: store, refreshMS: refreshMS}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/history", s.handleHistory)
		r.Post("/missions/{missionID}/items", s.handleAddItem)
		r.Delete("/missions/{missionID}", s.handleDeleteMission)
		r.Post("/session/reset", s.handleReset)
	})
	return r
}

type stateResponse struct {
	Session           missions.SessionSummary      `json:"session"`
	Missions          map[string]*missions.Mission `json:"missions"`
	Destinations      []missions.DestinationGroup  `json:"destinations"`
	RefreshIntervalMS int                          `json:"refresh_interval_ms"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var resp stateResponse
	// Summaries and the mission copy come from one critical section so
	// the response never mixes two versions of the state.
	s.store.View(func(st *missions.State) {
		resp.Session = missions.SummarizeSession(st, time.Now())
		resp.Destinations = missions.Summarize(st)
		resp.Missions = missions.SnapshotOf(st).Missions
	})
	resp.RefreshIntervalMS = s.refreshMS
	writeJSON(w, http.StatusOK, resp)
}

type historyResponse struct {
	Finished []*missions.Mission `json:"finished_missions"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, historyResponse{Finished: snap.Finished})
}

type addItemRequest struct {
	Material    string `json:"material"`
	Quantity    int    `json:"quantity"`
	Destination string `json:"destination"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	missionID := chi.URLParam(r, "missionID")
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Material) == "" || strings.TrimSpace(req.Destination) == "" {
		writeError(w, http.StatusBadRequest, "material and destination are required")
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	var key string
	var ok bool
	s.store.Mutate(func(st *missions.State) bool {
		key, ok = st.AddManualItem(missionID, req.Material, req.Quantity, req.Destination)
		return ok
	})
	if !ok {
		writeError(w, http.StatusNotFound, "mission not found")
		return
	}
	log.Info("manual item added", "mission", missionID, "material", req.Material, "quantity", req.Quantity)
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (s *Server) handleDeleteMission(w http.ResponseWriter, r *http.Request) {
	missionID := chi.URLParam(r, "missionID")
	var ok bool
	s.store.Mutate(func(st *missions.State) bool {
		ok = st.DeleteMission(missionID)
		return ok
	})
	if !ok {
		writeError(w, http.StatusNotFound, "mission not found")
		return
	}
	log.Info("mission deleted", "mission", missionID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.store.Mutate(func(st *missions.State) bool {
		st.Reset(time.Now())
		return true
	})
	log.Info("session reset")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
