package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/internal/api/handlers"
)

func TestPaymentHandler_ListAndGet(t *testing.T) {
	svc := newTestServices(t)
	h := handlers.NewPaymentHandler(svc.payments)

	w := do(t, "GET /api/payments", h.ListPayments, http.MethodGet, "/api/payments?status=overdue", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["total"])

	w = do(t, "GET /api/payments/{id}", h.GetPayment, http.MethodGet, "/api/payments/"+jewelryPaymentID, "")
	require.Equal(t, http.StatusOK, w.Code)
	payment := decode(t, w)
	assert.Equal(t, "Pending", payment["status"])
	amount := payment["amount"].(map[string]interface{})
	assert.Equal(t, "$99.99", amount["formatted"])
}

func TestPaymentHandler_MarkPaid(t *testing.T) {
	svc := newTestServices(t)
	h := handlers.NewPaymentHandler(svc.payments)

	w := do(t, "POST /api/payments/{id}/mark-paid", h.MarkPaid, http.MethodPost, "/api/payments/"+jewelryPaymentID+"/mark-paid", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Paid", decode(t, w)["status"])

	w = do(t, "POST /api/payments/{id}/mark-paid", h.MarkPaid, http.MethodPost, "/api/payments/missing/mark-paid", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentHandler_UpdateSubscription(t *testing.T) {
	svc := newTestServices(t)
	h := handlers.NewPaymentHandler(svc.payments)

	w := do(t, "PATCH /api/payments/{id}/subscription", h.UpdateSubscription, http.MethodPatch,
		"/api/payments/"+jewelryPaymentID+"/subscription", `{"plan": "Enterprise"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Enterprise", decode(t, w)["plan"])

	w = do(t, "PATCH /api/payments/{id}/subscription", h.UpdateSubscription, http.MethodPatch,
		"/api/payments/"+jewelryPaymentID+"/subscription", `{"plan": "Platinum"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "plan")
}

func TestPaymentHandler_SendReminder(t *testing.T) {
	svc := newTestServices(t)
	h := handlers.NewPaymentHandler(svc.payments)

	w := do(t, "POST /api/payments/{id}/reminder", h.SendReminder, http.MethodPost, "/api/payments/"+jewelryPaymentID+"/reminder", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, svc.sender.sent, 1)
	assert.Equal(t, "owner@jewelry.com", svc.sender.sent[0].To)

	w = do(t, "POST /api/payments/{id}/reminder", h.SendReminder, http.MethodPost, "/api/payments/"+downtownPaymentID+"/reminder", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaymentHandler_ListPlans(t *testing.T) {
	svc := newTestServices(t)
	h := handlers.NewPaymentHandler(svc.payments)

	w := do(t, "GET /api/plans", h.ListPlans, http.MethodGet, "/api/plans", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["plans"], 3)
}
