package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/indianpineappl/upto-date/internal/apperr"
	"github.com/indianpineappl/upto-date/internal/database"
	"github.com/indianpineappl/upto-date/internal/feed"
	"github.com/indianpineappl/upto-date/internal/score"
)

// Server is the HTTP JSON API for the feed and event endpoints.
type Server struct {
	db        *database.DB
	assembler *feed.Assembler
	scorer    *score.EventScorer
	debug     bool
	mux       *http.ServeMux
}

// New creates a new Server. When debug is enabled, feed requests with
// debug=1 echo upstream error detail; keep it off in production.
func New(db *database.DB, debug bool) *Server {
	s := &Server{
		db:        db,
		assembler: feed.New(db),
		scorer:    score.NewEventScorer(db),
		debug:     debug,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/feed", s.handleFeed)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/runs", s.handleRuns)
	s.mux.HandleFunc("/healthz", s.handleHealth)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Method not allowed"})
		return
	}

	q := r.URL.Query()
	req := feed.Request{
		UserID: q.Get("userId"),
		Date:   q.Get("date"),
	}

	if latStr, lngStr := q.Get("lat"), q.Get("lng"); latStr != "" && lngStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr == nil && lngErr == nil {
			req.Lat = &lat
			req.Lng = &lng
		}
	}

	resp, err := s.assembler.Build(r.Context(), req)
	if err != nil {
		s.writeFeedError(w, err, q.Get("debug") == "1")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeFeedError(w http.ResponseWriter, err error, debugParam bool) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "No snapshot available yet. Please try again shortly.",
		})
		return
	}

	log.Printf("Feed request failed: %v", err)

	// Debug channel for operator diagnosis; config-gated because it leaks
	// internal error detail.
	if s.debug && debugParam {
		body := map[string]any{"ok": false, "error": err.Error()}
		var upstream *apperr.UpstreamError
		if errors.As(err, &upstream) {
			body["upstreamStatus"] = upstream.StatusCode
			body["upstreamBody"] = upstream.Body
		}
		writeJSON(w, http.StatusOK, body)
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Server error"})
}

// eventsRequest is the wire shape of a POST /api/events body. Events must be
// present (an empty list is fine) or the payload is invalid.
type eventsRequest struct {
	UserID       string        `json:"userId"`
	BucketID     string        `json:"bucketId"`
	SnapshotDate string        `json:"snapshotDate"`
	Events       []score.Event `json:"events"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Method not allowed"})
		return
	}

	var req eventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid payload"})
		return
	}

	batch := score.Batch{
		UserID:       req.UserID,
		BucketID:     req.BucketID,
		SnapshotDate: req.SnapshotDate,
		Events:       req.Events,
	}

	if err := s.scorer.Apply(r.Context(), batch); err != nil {
		if errors.Is(err, apperr.ErrInvalidPayload) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid payload"})
			return
		}
		log.Printf("Events request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Server error"})
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Method not allowed"})
		return
	}

	runs, err := s.db.GetRecentRuns(20)
	if err != nil {
		log.Printf("Runs request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Server error"})
		return
	}

	type runView struct {
		ID         int64   `json:"id"`
		Status     string  `json:"status"`
		StartedAt  string  `json:"startedAt"`
		FinishedAt *string `json:"finishedAt,omitempty"`
		Details    *string `json:"details,omitempty"`
	}
	views := make([]runView, len(runs))
	for i, run := range runs {
		views[i] = runView{
			ID:         run.ID,
			Status:     run.Status,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
			Details:    run.Details,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": views})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, port int, debug bool) error {
	srv := New(db, debug)
	addr := fmt.Sprintf(":%d", port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
