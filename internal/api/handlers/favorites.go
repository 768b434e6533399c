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

type FavoriteService interface {
	Add(ctx context.Context, listingID uuid.UUID) (*models.Favorite, error)
	List(ctx context.Context, limit, offset int) ([]models.Favorite, error)
	Remove(ctx context.Context, listingID uuid.UUID) error
}

type FavoriteHandler struct {
	svc FavoriteService
}

func NewFavoriteHandler(svc FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{svc: svc}
}

func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListingID uuid.UUID `json:"listing_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ListingID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "listing_id required"})
		return
	}

	f, err := h.svc.Add(r.Context(), req.ListingID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, f)
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	favorites, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"favorites": favorites, "count": len(favorites)})
}

func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing ID"})
		return
	}

	if err := h.svc.Remove(r.Context(), listingID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
