package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/storeguard/internal/application/services"
	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
)

// StoreService defines the store operations used by the handler.
type StoreService interface {
	List(ctx context.Context, filter repositories.StoreFilter) (*services.Page[services.StoreView], error)
	Get(ctx context.Context, id string) (*services.StoreDetail, error)
	Create(ctx context.Context, in services.StoreInput) (*entities.Store, error)
	Update(ctx context.Context, id string, in services.StoreInput) (*entities.Store, error)
	Delete(ctx context.Context, id string) error
	AddCamera(ctx context.Context, storeID string, in services.CameraInput) (*entities.Camera, error)
	RemoveCamera(ctx context.Context, storeID, cameraID string) error
}

// StoreHandler handles store management requests
type StoreHandler struct {
	service StoreService
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(service StoreService) *StoreHandler {
	return &StoreHandler{service: service}
}

// ListStores handles GET /api/stores
func (h *StoreHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pagination(r)
	filter := repositories.StoreFilter{
		Search:       q.Get("search"),
		Status:       q.Get("status"),
		Type:         q.Get("type"),
		Subscription: q.Get("subscription"),
		Limit:        limit,
		Offset:       offset,
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

// GetStore handles GET /api/stores/{id}
func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

// CreateStore handles POST /api/stores
func (h *StoreHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var in services.StoreInput
	if !decodeJSON(w, r, &in) {
		return
	}

	store, err := h.service.Create(r.Context(), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, store)
}

// UpdateStore handles PUT /api/stores/{id}
func (h *StoreHandler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	var in services.StoreInput
	if !decodeJSON(w, r, &in) {
		return
	}

	store, err := h.service.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, store)
}

// DeleteStore handles DELETE /api/stores/{id}
func (h *StoreHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddCamera handles POST /api/stores/{id}/cameras
func (h *StoreHandler) AddCamera(w http.ResponseWriter, r *http.Request) {
	var in services.CameraInput
	if !decodeJSON(w, r, &in) {
		return
	}

	camera, err := h.service.AddCamera(r.Context(), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, camera)
}

// RemoveCamera handles DELETE /api/stores/{id}/cameras/{cameraId}
func (h *StoreHandler) RemoveCamera(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveCamera(r.Context(), r.PathValue("id"), r.PathValue("cameraId")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
