package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marxist91/togoestate/internal/listing"
	"github.com/marxist91/togoestate/internal/models"
)

type ListingService interface {
	Create(ctx context.Context, in listing.CreateInput) (*models.Listing, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	List(ctx context.Context, f listing.Filter) ([]models.Listing, error)
	PublicSearch(ctx context.Context, f listing.Filter) ([]models.Listing, error)
	PublicGet(ctx context.Context, slug string) (*models.Listing, error)
	Update(ctx context.Context, id uuid.UUID, in listing.UpdateInput) (*models.Listing, error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Listing, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Photos(ctx context.Context, listingID uuid.UUID) ([]models.ListingPhoto, error)
	AddPhoto(ctx context.Context, listingID uuid.UUID, imageURL string, isCover bool) (*models.ListingPhoto, error)
	RemovePhoto(ctx context.Context, listingID, photoID uuid.UUID) error
}

// HistoryRecorder hooks public searches into the actor's search history.
type HistoryRecorder interface {
	RecordHistory(ctx context.Context, query string, resultsCount int) error
}

type ListingHandler struct {
	svc     ListingService
	history HistoryRecorder
}

func NewListingHandler(svc ListingService, history HistoryRecorder) *ListingHandler {
	return &ListingHandler{svc: svc, history: history}
}

func parseFilter(r *http.Request) listing.Filter {
	q := r.URL.Query()
	var f listing.Filter
	f.City = q.Get("city")
	f.Category = models.ListingCategory(q.Get("category"))
	f.ListingType = models.ListingType(q.Get("type"))
	f.MinPrice, _ = strconv.ParseInt(q.Get("min_price"), 10, 64)
	f.MaxPrice, _ = strconv.ParseInt(q.Get("max_price"), 10, 64)
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	return f
}

// Search serves the public browse surface.
func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r)

	listings, err := h.svc.PublicSearch(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.history != nil && r.URL.RawQuery != "" {
		_ = h.history.RecordHistory(r.Context(), r.URL.RawQuery, len(listings))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"listings": listings, "count": len(listings)})
}

// PublicGet serves a published listing by slug, with photos.
func (h *ListingHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.PublicGet(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req listing.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	l, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, l)
}

func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.svc.List(r.Context(), parseFilter(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"listings": listings, "count": len(listings)})
}

func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing ID"})
		return
	}

	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, l)
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing ID"})
		return
	}

	var req listing.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	l, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, l)
}

func (h *ListingHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing ID"})
		return
	}

	var req struct {
		Published bool `json:"published"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	l, err := h.svc.SetPublished(r.Context(), id, req.Published)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, l)
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ListingHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing ID"})
		return
	}

	photos, err := h.svc.Photos(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"photos": photos, "count": len(photos)})
}

func (h *ListingHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing ID"})
		return
	}

	var req struct {
		ImageURL string `json:"image_url"`
		IsCover  bool   `json:"is_cover"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	photo, err := h.svc.AddPhoto(r.Context(), id, req.ImageURL, req.IsCover)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, photo)
}

func (h *ListingHandler) RemovePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing ID"})
		return
	}
	photoID, err := uuid.Parse(chi.URLParam(r, "photoID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid photo ID"})
		return
	}

	if err := h.svc.RemovePhoto(r.Context(), id, photoID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
