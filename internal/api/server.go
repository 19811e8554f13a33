// Package api serves the setup recommender, engineer chat and history over
// HTTP as JSON.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/verte-zerg/pitwall/internal/model"
)

const maxBodyBytes = 1 << 20

// Recommender produces car setups.
type Recommender interface {
	Tracks() []string
	Recommend(trackName, weather string) (model.Recommendation, error)
	Analysis(trackName, weather string) (string, bool)
}

// Engineer answers chat messages.
type Engineer interface {
	Reply(message string) string
}

// State holds setup history and flags.
type State interface {
	RecordSetup(ctx context.Context, trackName, weather string) (model.HistoryEntry, error)
	DeleteSetup(ctx context.Context, id string) error
	History(limit int) []model.HistoryEntry
	Flag(name string) bool
	SetFlag(ctx context.Context, name string, enabled bool) error
}

// RunLister reads saved pit stop runs.
type RunLister interface {
	TopRuns(ctx context.Context, limit int) ([]model.PitRun, error)
}

// Server handles HTTP requests.
type Server struct {
	recommender Recommender
	engineer    Engineer
	state       State
	runs        RunLister
	logger      zerolog.Logger
}

// NewServer creates an API server.
func NewServer(rec Recommender, eng Engineer, state State, runs RunLister, logger zerolog.Logger) *Server {
	return &Server{
		recommender: rec,
		engineer:    eng,
		state:       state,
		runs:        runs,
		logger:      logger,
	}
}

// Routes builds the router with its middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(recoverJSON)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler)

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/", s.handleIndex)
	r.Get("/tracks", s.handleTracks)
	r.Post("/result", s.handleResult)
	r.Get("/analysis", s.handleAnalysis)
	r.Post("/ask-engineer", s.handleAskEngineer)

	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.handleListHistory)
		r.Delete("/{id}", s.handleDeleteHistory)
	})
	r.Route("/flags/{name}", func(r chi.Router) {
		r.Get("/", s.handleGetFlag)
		r.Put("/", s.handlePutFlag)
	})
	r.Get("/pit/runs", s.handleListRuns)

	return r
}

// NewHTTPServer wraps the routes in an http.Server listening on addr.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
