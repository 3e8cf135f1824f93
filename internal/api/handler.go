// Package api provides HTTP handlers for the PromptLab API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/promptlab/promptlab/internal/ledger"
	"github.com/promptlab/promptlab/internal/ollama"
	"github.com/promptlab/promptlab/internal/registry"
	"github.com/promptlab/promptlab/internal/session"
	"github.com/promptlab/promptlab/internal/template"
)

// Handler serves the PromptLab REST API.
type Handler struct {
	ledger    *ledger.Ledger
	templates *template.Engine
	registry  *registry.Registry
	monitor   *ollama.Monitor
	client    *ollama.Client
}

// NewHandler creates a Handler with its dependencies.
func NewHandler(l *ledger.Ledger, t *template.Engine, reg *registry.Registry, mon *ollama.Monitor, client *ollama.Client) *Handler {
	return &Handler{
		ledger:    l,
		templates: t,
		registry:  reg,
		monitor:   mon,
		client:    client,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// statusFor maps core errors onto HTTP status codes. Precondition violations
// are client errors, never 500s.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, template.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidWinner),
		errors.Is(err, template.ErrBuiltin),
		errors.Is(err, template.ErrMissingVariable),
		errors.Is(err, session.ErrBlankPrompt):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RegisterRoutes mounts all REST endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.getStatus)
		r.Get("/models", h.getModels)
		r.Post("/models/pull", h.pullModel)

		r.Get("/experiments", h.listExperiments)
		r.Delete("/experiments/{id}", h.deleteExperiment)
		r.Put("/experiments/{id}/annotation", h.updateAnnotation)
		r.Post("/experiments/clear", h.clearExperiments)
		r.Get("/export", h.export)

		r.Post("/selection/{id}", h.toggleSelect)
		r.Get("/selection", h.getSelection)
		r.Delete("/selection", h.clearSelection)

		r.Post("/comparisons", h.createComparison)
		r.Get("/comparisons", h.listComparisons)
		r.Put("/comparisons/{id}", h.updateComparison)
		r.Get("/comparisons/delta", h.metricsDelta)

		r.Get("/stats", h.getStats)

		r.Get("/templates", h.listTemplates)
		r.Post("/templates", h.createTemplate)
		r.Put("/templates/{id}", h.updateTemplate)
		r.Delete("/templates/{id}", h.deleteTemplate)
		r.Post("/templates/{id}/apply", h.applyTemplate)
	})
}

// getStatus reports the last known backend reachability and inventory.
func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.monitor.Status())
}

// getModels returns the static model registry and parameter presets.
func (h *Handler) getModels(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"models":  h.registry.Models(),
		"presets": presets(),
	})
}

// pullModel asks the backend to download a model.
func (h *Handler) pullModel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}
	ok := h.client.Pull(r.Context(), body.Name)
	JSON(w, http.StatusOK, map[string]bool{"ok": ok})
}
