package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zatekoja/storeguard/internal/application/services"
	"github.com/zatekoja/storeguard/internal/domain/entities"
)

// ReportService defines the reporting operations used by the handler.
type ReportService interface {
	MonthlyReports(ctx context.Context, months int) ([]entities.MonthlyReport, error)
	MonthlyReportCSV(ctx context.Context, month string) (*services.GeneratedFile, error)
	PaymentHistory(ctx context.Context, q services.HistoryQuery) ([]entities.PaymentHistoryEntry, error)
	GenerateStoreReport(ctx context.Context, q services.HistoryQuery) (*services.GeneratedFile, error)
}

// ReportHandler serves the reports page
type ReportHandler struct {
	service ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// MonthlyReports handles GET /api/reports/monthly
func (h *ReportHandler) MonthlyReports(w http.ResponseWriter, r *http.Request) {
	months := 0
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "months must be a number")
			return
		}
		months = n
	}

	reports, err := h.service.MonthlyReports(r.Context(), months)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// DownloadMonthlyReport handles GET /api/reports/monthly/{month}/download
func (h *ReportHandler) DownloadMonthlyReport(w http.ResponseWriter, r *http.Request) {
	file, err := h.service.MonthlyReportCSV(r.Context(), r.PathValue("month"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithFile(w, file)
}

// PaymentHistory handles GET /api/reports/payment-history
func (h *ReportHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.service.PaymentHistory(r.Context(), services.HistoryQuery{
		StoreID: q.Get("store_id"),
		From:    q.Get("from"),
		To:      q.Get("to"),
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"history": entries,
		"count":   len(entries),
	})
}

// GenerateReport handles POST /api/reports/generate and answers with a CSV
// attachment.
func (h *ReportHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var q services.HistoryQuery
	if !decodeJSON(w, r, &q) {
		return
	}

	file, err := h.service.GenerateStoreReport(r.Context(), q)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithFile(w, file)
}
