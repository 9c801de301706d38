package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	"github.com/zatekoja/storeguard/internal/infrastructure/observability"
	"github.com/zatekoja/storeguard/pkg/config"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
)

const (
	// maxReportMonths caps the monthly overview
	maxReportMonths = 24

	// DateLayout is the layout of the report date pickers
	DateLayout = "2006-01-02"
)

// HistoryQuery selects a store's payment history. From and To are optional
// DateLayout dates and both ends are inclusive.
type HistoryQuery struct {
	StoreID string `json:"store_id"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

// GeneratedFile is a rendered download
type GeneratedFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReportService builds the reports page
type ReportService struct {
	payments repositories.PaymentRepository
	stores   repositories.StoreRepository
	events   providers.EventBus
	metrics  *observability.Metrics
	cfg      config.ReportsConfig
	now      func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	payments repositories.PaymentRepository,
	stores repositories.StoreRepository,
	events providers.EventBus,
	metrics *observability.Metrics,
	cfg config.ReportsConfig,
) *ReportService {
	if cfg.DefaultMonths <= 0 {
		cfg.DefaultMonths = 3
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	return &ReportService{payments: payments, stores: stores, events: events, metrics: metrics, cfg: cfg, now: time.Now}
}

// MonthlyReports returns the last n monthly summaries, newest first. Zero
// selects the configured default.
func (s *ReportService) MonthlyReports(ctx context.Context, months int) ([]entities.MonthlyReport, error) {
	if months == 0 {
		months = s.cfg.DefaultMonths
	}
	if months < 0 || months > maxReportMonths {
		verrs := apperrors.ValidationErrors{}
		verrs.Add("months", fmt.Sprintf("must be between 1 and %d", maxReportMonths))
		return nil, verrs.Err()
	}
	return s.payments.MonthlySummaries(ctx, months, s.now())
}

// MonthlyReport returns the summary of one "2024-01" month
func (s *ReportService) MonthlyReport(ctx context.Context, month string) (*entities.MonthlyReport, error) {
	start, err := entities.ParseMonth(month)
	if err != nil {
		verrs := apperrors.ValidationErrors{}
		verrs.Add("month", "must look like 2024-01")
		return nil, verrs.Err()
	}
	reports, err := s.payments.MonthlySummaries(ctx, 1, start)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no report for %s", month))
	}
	return &reports[0], nil
}

// MonthlyReportCSV renders a month's summary followed by its transactions
func (s *ReportService) MonthlyReportCSV(ctx context.Context, month string) (*GeneratedFile, error) {
	report, err := s.MonthlyReport(ctx, month)
	if err != nil {
		return nil, err
	}
	start, _ := entities.ParseMonth(month)
	txns, err := s.payments.ListHistory(ctx, repositories.HistoryFilter{
		From: start,
		To:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{
		{"Month", report.Label},
		{"Total Revenue", report.TotalRevenue.String()},
		{"Total Stores", strconv.Itoa(report.TotalStores)},
		{"Paid Payments", strconv.Itoa(report.PaidPayments)},
		{"Pending Payments", strconv.Itoa(report.PendingPayments)},
		{"Overdue Payments", strconv.Itoa(report.OverduePayments)},
		{"Average Payment", report.AveragePayment.String()},
		{},
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, apperrors.NewInternalError("failed to render monthly report", err)
	}
	if err := writeHistoryCSV(ctx, w, txns); err != nil {
		return nil, err
	}

	return &GeneratedFile{
		Filename:    fmt.Sprintf("monthly-report-%s.csv", report.Month),
		ContentType: "text/csv",
		Content:     buf.Bytes(),
	}, nil
}

// PaymentHistory lists a store's transactions, newest first
func (s *ReportService) PaymentHistory(ctx context.Context, q HistoryQuery) ([]entities.PaymentHistoryEntry, error) {
	filter, err := parseHistoryQuery(q, false)
	if err != nil {
		return nil, err
	}
	txns, err := s.payments.ListHistory(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]entities.PaymentHistoryEntry, 0, len(txns))
	for _, t := range txns {
		out = append(out, entities.HistoryEntryFrom(t))
	}
	return out, nil
}

// GenerateStoreReport renders a store's payment report as CSV. Generation is
// bounded by the configured timeout and stops when ctx is cancelled.
func (s *ReportService) GenerateStoreReport(ctx context.Context, q HistoryQuery) (file *GeneratedFile, err error) {
	started := time.Now()
	defer func() {
		observability.RecordReportDuration(ctx, s.metrics, time.Since(started), err)
	}()

	filter, err := parseHistoryQuery(q, true)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	file, err = s.generate(genCtx, filter)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, apperrors.NewExternalError("report generation did not finish in time", err)
		}
		return nil, err
	}

	publish(ctx, s.events, entities.AdminEventReportGenerated, filter.StoreID, map[string]interface{}{
		"filename": file.Filename,
	})
	return file, nil
}

func (s *ReportService) generate(ctx context.Context, filter repositories.HistoryFilter) (*GeneratedFile, error) {
	store, err := s.stores.GetByID(ctx, filter.StoreID)
	if err != nil {
		return nil, err
	}
	txns, err := s.payments.ListHistory(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := entities.StoreReport{
		StoreID:     store.ID,
		StoreName:   store.Name,
		From:        filter.From,
		To:          filter.To,
		GeneratedAt: s.now().UTC(),
	}
	for _, t := range txns {
		report.Entries = append(report.Entries, entities.HistoryEntryFrom(t))
		if t.Status == entities.PaymentStatusPaid {
			report.TotalPaid += t.Amount
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := [][]string{
		{"Store", report.StoreName},
		{"From", formatReportDate(report.From)},
		{"To", formatReportDate(report.To)},
		{"Total Paid", report.TotalPaid.String()},
		{"Generated At", report.GeneratedAt.Format(time.RFC3339)},
		{},
	}
	if err := w.WriteAll(header); err != nil {
		return nil, apperrors.NewInternalError("failed to render store report", err)
	}
	if err := writeHistoryCSV(ctx, w, txns); err != nil {
		return nil, err
	}

	return &GeneratedFile{
		Filename:    fmt.Sprintf("store-report-%s-%s.csv", slug(store.Name), report.GeneratedAt.Format("20060102")),
		ContentType: "text/csv",
		Content:     buf.Bytes(),
	}, nil
}

var historyHeader = []string{"Date", "Store", "Amount", "Plan", "Status", "Method", "Transaction ID"}

func writeHistoryCSV(ctx context.Context, w *csv.Writer, txns []entities.PaymentTransaction) error {
	if err := w.Write(historyHeader); err != nil {
		return apperrors.NewInternalError("failed to render payment history", err)
	}
	for _, t := range txns {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{
			t.Date.UTC().Format(DateLayout),
			t.StoreName,
			t.Amount.String(),
			string(t.Plan),
			string(t.Status),
			string(t.Method),
			t.TransactionID,
		}
		if err := w.Write(row); err != nil {
			return apperrors.NewInternalError("failed to render payment history", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewInternalError("failed to render payment history", err)
	}
	return nil
}

// parseHistoryQuery validates the store and date range. To covers the whole
// of its day.
func parseHistoryQuery(q HistoryQuery, requireStore bool) (repositories.HistoryFilter, error) {
	verrs := apperrors.ValidationErrors{}
	filter := repositories.HistoryFilter{StoreID: strings.TrimSpace(q.StoreID)}

	if requireStore && filter.StoreID == "" {
		verrs.Add("store_id", "is required")
	}
	if !blank(q.From) {
		from, err := time.Parse(DateLayout, strings.TrimSpace(q.From))
		if err != nil {
			verrs.Add("from", "must be a date like 2024-01-31")
		}
		filter.From = from
	}
	if !blank(q.To) {
		to, err := time.Parse(DateLayout, strings.TrimSpace(q.To))
		if err != nil {
			verrs.Add("to", "must be a date like 2024-01-31")
		} else {
			filter.To = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		verrs.Add("to", "must not be before from")
	}
	return filter, verrs.Err()
}

func formatReportDate(t time.Time) string {
	if t.IsZero() {
		return "all time"
	}
	return t.Format(DateLayout)
}

// slug turns a store name into a file name fragment
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
