// Package http exposes the matching pipeline over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"personmatch/internal/person"
	"personmatch/internal/service"
)

//go:generate mockgen -source=handler.go -destination=mocks/service-mocks.go -package=mocks Service

// Service defines the matching operations the handler needs.
type Service interface {
	Match(ctx context.Context, p *person.Person) (service.Result, error)
	Upgrade(ctx context.Context, addr person.Address) (person.Person, error)
}

// Handler wires matching endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Router assembles the full HTTP surface including health and metrics.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/v1/match", h.HandleMatch)
	r.Post("/v1/upgrade", h.HandleUpgrade)
	r.Get("/healthz", h.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// HandleMatch handles POST /v1/match requests.
func (h *Handler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	p := req.Person()
	result, err := h.service.Match(ctx, &p)
	if err != nil {
		h.logger.ErrorContext(ctx, "match failed",
			"request_id", middleware.GetReqID(ctx),
			"error", err,
		)
		writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "match served",
		"request_id", middleware.GetReqID(ctx),
		"grade", result.Grade,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, MatchResponse{
		Person: FromPerson(result.Person),
		Grade:  result.Grade,
		Keys:   result.Keys,
	})
}

// HandleUpgrade handles POST /v1/upgrade requests.
func (h *Handler) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	p, err := h.service.Upgrade(ctx, req.Address())
	if err != nil {
		h.logger.ErrorContext(ctx, "upgrade failed",
			"request_id", middleware.GetReqID(ctx),
			"error", err,
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromPerson(p))
}

// HandleHealth handles GET /healthz requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
