package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// listTemplates returns the full template collection.
func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{"templates": h.templates.Templates()})
}

// createTemplate registers a new template; variables are auto-extracted.
func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" || body.Content == "" {
		Error(w, http.StatusBadRequest, "name and content are required")
		return
	}

	t, err := h.templates.Add(r.Context(), body.Name, body.Content)
	if err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}
	JSON(w, http.StatusCreated, t)
}

// updateTemplate changes a template's name and/or content.
func (h *Handler) updateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Name    *string `json:"name"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "invalid template update")
		return
	}

	t, err := h.templates.Update(r.Context(), id, body.Name, body.Content)
	if err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}
	JSON(w, http.StatusOK, t)
}

// deleteTemplate removes a template. Built-ins are protected.
func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.templates.Delete(r.Context(), id); err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// applyTemplate substitutes the supplied values into a template. Every
// declared variable must be given a non-blank value.
func (h *Handler) applyTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Values map[string]string `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "invalid apply request")
		return
	}

	prompt, err := h.templates.Apply(id, body.Values)
	if err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}
