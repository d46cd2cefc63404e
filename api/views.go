package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"table-views/view"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeStoreError maps store failures to responses. Anything unexpected is a
// 500 and gets logged.
func (h *handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *view.ValidationError
	switch {
	case errors.Is(err, view.ErrEnvironmentUnavailable):
		h.log.Warn().Err(err).Str("path", r.URL.Path).Msg("view storage unavailable")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: view.ErrEnvironmentUnavailable.Error()})
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if verr.DuplicateOnly() {
			status = http.StatusConflict
		}
		writeJSON(w, status, errorBody{Error: verr.Error(), Fields: verr.Fields})
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("view store error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func (h *handler) notFound(w http.ResponseWriter, r *http.Request, id string) {
	h.log.Debug().Str("id", id).Str("path", r.URL.Path).Msg("view not found")
	writeJSON(w, http.StatusNotFound, errorBody{Error: "view not found"})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

func (h *handler) getViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *handler) rankedViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Search(r.URL.Query().Get("q")))
}

func (h *handler) saveView(w http.ResponseWriter, r *http.Request) {
	var input view.SavedViewInput
	if !decode(w, r, &input) {
		return
	}
	v, err := h.store.SaveValidated(r.Context(), input)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *handler) getView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, ok := h.store.Get(id)
	if !ok {
		h.notFound(w, r, id)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handler) updateView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch view.ViewPatch
	if !decode(w, r, &patch) {
		return
	}
	h.patchView(w, r, id, patch)
}

// patchView applies a validated patch and answers with the stored view.
func (h *handler) patchView(w http.ResponseWriter, r *http.Request, id string, patch view.ViewPatch) {
	v, ok, err := h.store.UpdateValidated(r.Context(), id, patch)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.notFound(w, r, id)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handler) deleteView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.notFound(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) loadView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, ok, err := h.store.Load(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.notFound(w, r, id)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handler) renameView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.patchView(w, r, id, view.ViewPatch{Name: &req.Name})
}

func (h *handler) duplicateView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, ok, err := h.store.Duplicate(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.notFound(w, r, id)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *handler) commit(w http.ResponseWriter, r *http.Request) {
	var req view.CommitRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.store.Commit(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handler) nameExists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, map[string]bool{
		"exists": h.store.NameExists(q.Get("name"), q.Get("exclude")),
	})
}

func (h *handler) markModified(w http.ResponseWriter, r *http.Request) {
	h.store.MarkModified()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) clearActive(w http.ResponseWriter, r *http.Request) {
	h.store.ClearActive()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.StorageStats())
}
