package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/storeguard/internal/domain/entities"
)

// DashboardService defines the overview used by the handler.
type DashboardService interface {
	Overview(ctx context.Context) (*entities.DashboardOverview, error)
}

// DashboardHandler serves the landing page and shared lookup tables
type DashboardHandler struct {
	service DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetOverview handles GET /api/dashboard/overview
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, overview)
}

// ListBadges handles GET /api/badges
func (h *DashboardHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, entities.BadgeTable())
}
