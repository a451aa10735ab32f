// Package server exposes slam script generation over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-slamgen/internal/config"
	"github.com/goliatone/go-slamgen/pkg/orchestrator"
	"github.com/goliatone/go-slamgen/pkg/render"
	"github.com/goliatone/go-slamgen/pkg/script"
)

// maxBody caps request payloads; sample definitions are a few hundred bytes.
const maxBody = 1 << 20

// Server routes render requests to an orchestrator.
type Server struct {
	gen    *orchestrator.Orchestrator
	logger *log.Logger
}

// New builds a Server. A nil logger uses log.Default().
func New(gen *orchestrator.Orchestrator, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{gen: gen, logger: logger}
}

// Handler returns the router:
//
//	GET  /healthz
//	GET  /engines
//	POST /render?engine=NAME          body: one sample definition (JSON or YAML)
//	POST /render/context?engine=NAME  body: a script context as JSON
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/engines", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"engines": s.gen.Engines()})
	})
	r.Route("/render", func(r chi.Router) {
		r.Post("/", s.renderSample)
		r.Post("/context", s.renderContext)
	})
	return r
}

func (s *Server) renderSample(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc, err := config.Parse(body, "request")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	samples := doc.SampleList()
	if len(samples) != 1 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("server: expected one sample, got %d", len(samples)))
		return
	}

	engine := r.URL.Query().Get("engine")
	if engine == "" {
		engine = doc.Engine
	}
	s.generate(w, r, orchestrator.Request{Sample: &samples[0], Engine: engine}, samples[0].Name)
}

func (s *Server) renderContext(w http.ResponseWriter, r *http.Request) {
	var sc script.Context
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("server: decode context: %w", err))
		return
	}
	req := orchestrator.Request{Context: &sc, Engine: r.URL.Query().Get("engine")}
	s.generate(w, r, req, sc.SampleName)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, req orchestrator.Request, name string) {
	out, err := s.gen.Generate(r.Context(), req)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, render.ErrUnknownEngine) {
			status = http.StatusBadRequest
		}
		s.logger.Printf("render %q (%s): %v", name, middleware.GetReqID(r.Context()), err)
		writeError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", render.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".slm"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
