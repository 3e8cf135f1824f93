package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/promptlab/promptlab/internal/domain"
)

// createComparison returns the comparison for a pair of experiments,
// creating it on first request. The same unordered pair always yields the
// same comparison.
func (h *Handler) createComparison(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.IDs) != 2 {
		Error(w, http.StatusBadRequest, "exactly two experiment ids are required")
		return
	}

	cmp, err := h.ledger.Compare(r.Context(), body.IDs[0], body.IDs[1])
	if err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}
	JSON(w, http.StatusOK, cmp)
}

// listComparisons returns all comparison records.
func (h *Handler) listComparisons(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{"comparisons": h.ledger.Comparisons()})
}

// updateComparison sets the winner and/or notes of a comparison. A winner of
// "" records an explicit tie; omitting the field leaves the verdict alone.
func (h *Handler) updateComparison(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Winner *string `json:"winner"`
		Notes  *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "invalid comparison update")
		return
	}

	if body.Winner != nil {
		if err := h.ledger.SetWinner(r.Context(), id, *body.Winner); err != nil {
			Error(w, statusFor(err), err.Error())
			return
		}
	}
	if body.Notes != nil {
		if err := h.ledger.SetComparisonNotes(r.Context(), id, *body.Notes); err != nil {
			Error(w, statusFor(err), err.Error())
			return
		}
	}
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// metricsDelta computes derived performance deltas for two experiments.
// Query params: a, b.
func (h *Handler) metricsDelta(w http.ResponseWriter, r *http.Request) {
	a, ok := h.ledger.Get(r.URL.Query().Get("a"))
	if !ok {
		Error(w, http.StatusNotFound, "experiment a not found")
		return
	}
	b, ok := h.ledger.Get(r.URL.Query().Get("b"))
	if !ok {
		Error(w, http.StatusNotFound, "experiment b not found")
		return
	}
	JSON(w, http.StatusOK, domain.DeltaMetrics(a.Metrics, b.Metrics))
}
