package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marxist91/togoestate/internal/models"
)

type SavedSearchService interface {
	Save(ctx context.Context, name string, query json.RawMessage) (*models.SavedSearch, error)
	List(ctx context.Context, limit, offset int) ([]models.SavedSearch, error)
	Delete(ctx context.Context, id uuid.UUID) error
	History(ctx context.Context, limit int) ([]models.SearchHistory, error)
}

type SavedSearchHandler struct {
	svc SavedSearchService
}

func NewSavedSearchHandler(svc SavedSearchService) *SavedSearchHandler {
	return &SavedSearchHandler{svc: svc}
}

func (h *SavedSearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string          `json:"name"`
		Query json.RawMessage `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ss, err := h.svc.Save(r.Context(), req.Name, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ss)
}

func (h *SavedSearchHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	searches, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"saved_searches": searches, "count": len(searches)})
}

func (h *SavedSearchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid saved search ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SavedSearchHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.svc.History(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history, "count": len(history)})
}
