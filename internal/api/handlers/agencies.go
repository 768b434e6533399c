package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marxist91/togoestate/internal/agency"
	"github.com/marxist91/togoestate/internal/models"
)

type AgencyService interface {
	Create(ctx context.Context, in agency.CreateInput) (*models.Agency, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Agency, error)
	GetBySlug(ctx context.Context, slug string) (*models.Agency, error)
	List(ctx context.Context, includeUnverified bool, limit, offset int) ([]models.Agency, error)
	Update(ctx context.Context, id uuid.UUID, in agency.UpdateInput) (*models.Agency, error)
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) (*models.Agency, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DashboardStats(ctx context.Context, id uuid.UUID) (*agency.Stats, error)
}

type AgencyHandler struct {
	svc AgencyService
}

func NewAgencyHandler(svc AgencyService) *AgencyHandler {
	return &AgencyHandler{svc: svc}
}

func (h *AgencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req agency.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	a, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

// PublicList serves verified agencies without authentication.
func (h *AgencyHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	agencies, err := h.svc.List(r.Context(), false, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"agencies": agencies, "count": len(agencies)})
}

func (h *AgencyHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	includeUnverified := r.URL.Query().Get("include_unverified") == "true"

	agencies, err := h.svc.List(r.Context(), includeUnverified, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"agencies": agencies, "count": len(agencies)})
}

func (h *AgencyHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "id")
	id, err := uuid.Parse(ref)

	var a *models.Agency
	if err == nil {
		a, err = h.svc.Get(r.Context(), id)
	} else {
		a, err = h.svc.GetBySlug(r.Context(), ref)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (h *AgencyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agency ID"})
		return
	}

	var req agency.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	a, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (h *AgencyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agency ID"})
		return
	}

	var req struct {
		Verified bool `json:"verified"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	a, err := h.svc.SetVerified(r.Context(), id, req.Verified)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (h *AgencyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agency ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AgencyHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agency ID"})
		return
	}

	stats, err := h.svc.DashboardStats(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
