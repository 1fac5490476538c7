// Package http exposes the arbor service as a JSON REST API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arborlabs/arbor"
	"github.com/arborlabs/arbor/internal/presentation/graph"
	"github.com/arborlabs/arbor/pkg/dialog"
	"github.com/arborlabs/arbor/pkg/playback"
)

// Server routes HTTP requests to an arbor.Service.
type Server struct {
	service *arbor.Service
	logger  *slog.Logger
	metrics *metrics
}

type metrics struct {
	registry        *prometheus.Registry
	sessionsStarted prometheus.Counter
	choices         prometheus.Counter
	endings         prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &metrics{
		registry: reg,
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_sessions_started_total",
			Help: "Number of playback sessions started.",
		}),
		choices: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_choices_total",
			Help: "Number of answers chosen across all sessions.",
		}),
		endings: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_dialog_endings_total",
			Help: "Number of sessions that reached an ending.",
		}),
	}
}

// NewHandler creates the HTTP handler for the service.
func NewHandler(service *arbor.Service, logger *slog.Logger) http.Handler {
	s := &Server{
		service: service,
		logger:  logger,
		metrics: newMetrics(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/graphs", func(r chi.Router) {
		r.Get("/", s.listGraphs)
		r.Put("/{name}", s.saveGraph)
		r.Get("/{name}", s.getGraph)
		r.Delete("/{name}", s.deleteGraph)
		r.Post("/{name}/validate", s.validateGraph)
		r.Get("/{name}/mermaid", s.mermaid)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.startSession)
		r.Get("/{id}", s.getSession)
		r.Post("/{id}/choose", s.choose)
		r.Delete("/{id}", s.deleteSession)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": arbor.Version})
}

// -- Graph endpoints --

func (s *Server) listGraphs(w http.ResponseWriter, r *http.Request) {
	names, err := s.service.ListGraphs(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"graphs": names})
}

func (s *Server) saveGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var doc dialog.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid document: %v", err))
		return
	}
	if err := s.service.SaveGraph(r.Context(), name, &doc); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.GraphDocument(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) deleteGraph(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteGraph(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validateGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	start := r.URL.Query().Get("start")

	issues, err := s.service.Validate(r.Context(), name, start)
	if err != nil {
		s.fail(w, err)
		return
	}
	if issues == nil {
		issues = []dialog.Issue{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"issues": issues,
		"valid":  !dialog.HasErrors(issues),
	})
}

func (s *Server) mermaid(w http.ResponseWriter, r *http.Request) {
	g, err := s.service.LoadGraph(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(g, r.URL.Query().Get("start")))
}

// -- Session endpoints --

type startSessionRequest struct {
	Graph string `json:"graph"`
	Start string `json:"start"`
}

type sessionResponse struct {
	SessionID string        `json:"session_id"`
	View      playback.View `json:"view"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var body startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Graph == "" || body.Start == "" {
		writeError(w, http.StatusBadRequest, "graph and start are required")
		return
	}

	id, view, err := s.service.StartSession(r.Context(), body.Graph, body.Start)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.metrics.sessionsStarted.Inc()
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id, View: view})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := s.service.CurrentView(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, View: view})
}

type chooseRequest struct {
	Index int `json:"index"`
}

func (s *Server) choose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body chooseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.service.Choose(r.Context(), id, body.Index)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.metrics.choices.Inc()
	if view.Ended {
		s.metrics.endings.Inc()
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, View: view})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

// fail maps domain errors to HTTP status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dialog.ErrDocumentNotFound),
		errors.Is(err, dialog.ErrSceneNotFound),
		errors.Is(err, playback.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, playback.ErrSessionEnded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dialog.ErrChoiceOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, dialog.ErrBadDocument),
		errors.Is(err, dialog.ErrEmptyID),
		errors.Is(err, dialog.ErrEmptyText),
		errors.Is(err, dialog.ErrDuplicateID):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf("response encode error: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
