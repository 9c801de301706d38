package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/storeguard/internal/application/services"
	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
)

// PaymentService defines the billing operations used by the handler.
type PaymentService interface {
	List(ctx context.Context, filter repositories.PaymentFilter) (*services.Page[*entities.Payment], error)
	Get(ctx context.Context, id string) (*entities.Payment, error)
	Plans() []entities.Plan
	MarkPaid(ctx context.Context, id string, in services.MarkPaidInput) (*entities.Payment, error)
	UpdateSubscription(ctx context.Context, id string, in services.SubscriptionInput) (*entities.Payment, error)
	SendReminder(ctx context.Context, id string) error
}

// PaymentHandler handles payment and subscription requests
type PaymentHandler struct {
	service PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(service PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// ListPayments handles GET /api/payments
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pagination(r)
	page, err := h.service.List(r.Context(), repositories.PaymentFilter{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Plan:   q.Get("plan"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

// GetPayment handles GET /api/payments/{id}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, payment)
}

// MarkPaid handles POST /api/payments/{id}/mark-paid. The body is optional.
func (h *PaymentHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var in services.MarkPaidInput
	if r.ContentLength > 0 && !decodeJSON(w, r, &in) {
		return
	}

	payment, err := h.service.MarkPaid(r.Context(), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, payment)
}

// UpdateSubscription handles PATCH /api/payments/{id}/subscription
func (h *PaymentHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var in services.SubscriptionInput
	if !decodeJSON(w, r, &in) {
		return
	}

	payment, err := h.service.UpdateSubscription(r.Context(), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, payment)
}

// SendReminder handles POST /api/payments/{id}/reminder
func (h *PaymentHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SendReminder(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// ListPlans handles GET /api/plans
func (h *PaymentHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"plans": h.service.Plans(),
	})
}
