package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/promptlab/promptlab/internal/domain"
	"github.com/promptlab/promptlab/internal/ledger"
)

func presets() []domain.Preset {
	return domain.Presets()
}

// listExperiments returns the filtered, sorted experiment log.
// Query params: model, date, rating, tag, sort, order.
func (h *Handler) listExperiments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := ledger.Filter{
		ModelID: q.Get("model"),
		Date:    ledger.DateWindow(q.Get("date")),
		Rating:  ledger.RatingFilter(q.Get("rating")),
		Tag:     q.Get("tag"),
	}

	key := ledger.SortKey(q.Get("sort"))
	if key == "" {
		key = ledger.SortCreatedAt
	}
	ascending := q.Get("order") == "asc"

	exps := h.ledger.Query(f, key, ascending)
	JSON(w, http.StatusOK, map[string]interface{}{
		"experiments": exps,
		"total":       len(h.ledger.Experiments()),
	})
}

// deleteExperiment removes one experiment; unknown ids are a no-op.
func (h *Handler) deleteExperiment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.ledger.Delete(r.Context(), id); err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// updateAnnotation merges an annotation patch into an experiment.
func (h *Handler) updateAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch domain.AnnotationPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		Error(w, http.StatusBadRequest, "invalid annotation patch")
		return
	}

	if err := h.ledger.UpdateAnnotation(r.Context(), id, patch); err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}

	exp, _ := h.ledger.Get(id)
	JSON(w, http.StatusOK, exp)
}

// clearExperiments wipes all experiments and the selection set.
func (h *Handler) clearExperiments(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Clear(r.Context()); err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// export streams the full experiment dump as JSON or CSV.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	date := time.Now().UTC().Format("2006-01-02")

	switch format {
	case "csv":
		out, err := h.ledger.ExportCSV()
		if err != nil {
			Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="experiments-%s.csv"`, date))
		_, _ = w.Write(out)
	case "", "json":
		out, err := h.ledger.ExportJSON()
		if err != nil {
			Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="experiments-%s.json"`, date))
		_, _ = w.Write(out)
	default:
		Error(w, http.StatusBadRequest, "format must be json or csv")
	}
}

// toggleSelect adds or removes an experiment from the comparison selection.
func (h *Handler) toggleSelect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.ledger.Get(id); !ok {
		Error(w, http.StatusNotFound, "experiment not found")
		return
	}
	if err := h.ledger.ToggleSelect(r.Context(), id); err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"selectedIds": h.ledger.SelectedIDs()})
}

// getSelection returns the selected experiments.
func (h *Handler) getSelection(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"selectedIds": h.ledger.SelectedIDs(),
		"experiments": h.ledger.Selected(),
	})
}

// clearSelection empties the selection set.
func (h *Handler) clearSelection(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.ClearSelection(r.Context()); err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// getStats returns per-model aggregate statistics.
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{"stats": h.ledger.Stats()})
}
