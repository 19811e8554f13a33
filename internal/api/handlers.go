package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/verte-zerg/pitwall/internal/appstate"
	"github.com/verte-zerg/pitwall/internal/model"
)

const (
	defaultRunLimit = 10
	maxRunLimit     = 100
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type resultRequest struct {
	TrackName string `json:"trackName"`
	Weather   string `json:"weather"`
}

type resultResponse struct {
	Success bool `json:"success"`
	model.Recommendation
	HistoryID string `json:"historyId,omitempty"`
}

type askRequest struct {
	Message string `json:"message"`
}

type askResponse struct {
	Success bool   `json:"success"`
	Reply   string `json:"reply"`
}

type historyResponse struct {
	Success bool                 `json:"success"`
	History []model.HistoryEntry `json:"history"`
}

type flagRequest struct {
	Enabled *bool `json:"enabled"`
}

type flagResponse struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type runsResponse struct {
	Success bool           `json:"success"`
	Runs    []model.PitRun `json:"runs"`
}

type analysisResponse struct {
	Success   bool   `json:"success"`
	TrackName string `json:"trackName"`
	Weather   string `json:"weather"`
	Analysis  string `json:"analysis"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "✅ F1 Setup Backend is running!",
		"status":  "OK",
		"endpoints": map[string]string{
			"tracks":          "GET /tracks",
			"recommendations": "POST /result",
			"analysis":        "GET /analysis",
			"chat":            "POST /ask-engineer",
			"history":         "GET /history",
			"flags":           "GET /flags/{name}",
			"pitRuns":         "GET /pit/runs",
		},
	})
}

func (s *Server) handleTracks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.recommender.Tracks())
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := s.recommender.Recommend(req.TrackName, req.Weather)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Track name and weather are required")
		return
	}
	resp := resultResponse{Success: true, Recommendation: rec}
	// History failures are logged, not returned.
	entry, err := s.state.RecordSetup(r.Context(), req.TrackName, req.Weather)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to record setup history")
	} else {
		resp.HistoryID = entry.ID
	}
	hlog.FromRequest(r).Debug().Str("track", rec.TrackName).Str("weather", rec.Weather).Msg("setup recommended")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	track := strings.TrimSpace(r.URL.Query().Get("track"))
	weather := strings.TrimSpace(r.URL.Query().Get("weather"))
	if track == "" || weather == "" {
		writeError(w, http.StatusBadRequest, "Track name and weather are required")
		return
	}
	text, ok := s.recommender.Analysis(track, weather)
	if !ok {
		writeError(w, http.StatusNotFound, "No analysis for this weather")
		return
	}
	if !s.state.Flag(appstate.FlagAIRecommender) {
		if err := s.state.SetFlag(r.Context(), appstate.FlagAIRecommender, true); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("failed to save flag")
		}
	}
	writeJSON(w, http.StatusOK, analysisResponse{Success: true, TrackName: track, Weather: weather, Analysis: text})
}

func (s *Server) handleAskEngineer(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Success: true, Reply: s.engineer.Reply(req.Message)})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, appstate.DefaultHistoryView, appstate.MaxHistory)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Success: true, History: s.state.History(limit)})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.state.DeleteSetup(r.Context(), id); err != nil {
		if errors.Is(err, appstate.ErrNotFound) {
			writeError(w, http.StatusNotFound, "History entry not found")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("id", id).Msg("failed to delete history")
		writeError(w, http.StatusInternalServerError, "Failed to delete history entry")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleGetFlag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	writeJSON(w, http.StatusOK, flagResponse{Success: true, Name: name, Enabled: s.state.Flag(name)})
}

func (s *Server) handlePutFlag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req flagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	if err := s.state.SetFlag(r.Context(), name, *req.Enabled); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("flag", name).Msg("failed to save flag")
		writeError(w, http.StatusInternalServerError, "Failed to save flag")
		return
	}
	writeJSON(w, http.StatusOK, flagResponse{Success: true, Name: name, Enabled: *req.Enabled})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, defaultRunLimit, maxRunLimit)
	if !ok {
		return
	}
	runs, err := s.runs.TopRuns(r.Context(), limit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to list pit runs")
		writeError(w, http.StatusInternalServerError, "Failed to load pit runs")
		return
	}
	if runs == nil {
		runs = []model.PitRun{}
	}
	writeJSON(w, http.StatusOK, runsResponse{Success: true, Runs: runs})
}

// parseLimit reads ?limit=, clamped to maxLimit. It writes a 400 and returns
// false when the value is not a positive integer.
func parseLimit(w http.ResponseWriter, r *http.Request, def, maxLimit int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return min(n, maxLimit), true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent.
		_ = err
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}
