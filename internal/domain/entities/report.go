package entities

import (
	"fmt"
	"time"
)

// MonthKeyLayout is the layout of a month identifier such as "2024-01"
const MonthKeyLayout = "2006-01"

// MonthlyReport aggregates one calendar month of payment transactions
type MonthlyReport struct {
	Month           string `json:"month" db:"month"`
	Label           string `json:"label" db:"-"`
	TotalRevenue    Money  `json:"total_revenue" db:"total_revenue"`
	TotalStores     int    `json:"total_stores" db:"total_stores"`
	PaidPayments    int    `json:"paid_payments" db:"paid_payments"`
	PendingPayments int    `json:"pending_payments" db:"pending_payments"`
	OverduePayments int    `json:"overdue_payments" db:"overdue_payments"`
	AveragePayment  Money  `json:"average_payment" db:"-"`
}

// Finalize fills the derived label and average from the counted fields
func (r *MonthlyReport) Finalize() {
	if t, err := time.Parse(MonthKeyLayout, r.Month); err == nil {
		r.Label = t.Format("January 2006")
	}
	r.AveragePayment = 0
	if r.PaidPayments > 0 {
		r.AveragePayment = r.TotalRevenue / Money(r.PaidPayments)
	}
}

// PaymentHistoryEntry is one row of a store's payment history
type PaymentHistoryEntry struct {
	ID            string           `json:"id"`
	StoreID       string           `json:"store_id"`
	StoreName     string           `json:"store_name"`
	Date          time.Time        `json:"date"`
	Amount        Money            `json:"amount"`
	Plan          SubscriptionTier `json:"plan"`
	Status        PaymentStatus    `json:"status"`
	Method        PaymentMethod    `json:"method"`
	TransactionID string           `json:"transaction_id"`
}

// HistoryEntryFrom converts a stored transaction into a history row
func HistoryEntryFrom(t PaymentTransaction) PaymentHistoryEntry {
	return PaymentHistoryEntry{
		ID:            t.ID,
		StoreID:       t.StoreID,
		StoreName:     t.StoreName,
		Date:          t.Date,
		Amount:        t.Amount,
		Plan:          t.Plan,
		Status:        t.Status,
		Method:        t.Method,
		TransactionID: t.TransactionID,
	}
}

// StoreReport is the generated per-store report for a date range
type StoreReport struct {
	StoreID     string                `json:"store_id"`
	StoreName   string                `json:"store_name"`
	From        time.Time             `json:"from"`
	To          time.Time             `json:"to"`
	Entries     []PaymentHistoryEntry `json:"entries"`
	TotalPaid   Money                 `json:"total_paid"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// MonthStart truncates t to the first instant of its month in UTC
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonth parses a "2024-01" month key
func ParseMonth(key string) (time.Time, error) {
	t, err := time.Parse(MonthKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("month must look like 2024-01: %w", err)
	}
	return t, nil
}

// BuildMonthlyReports aggregates transactions into the last n calendar
// months ending with the month of now, newest first. Months without
// activity are included with zero values.
func BuildMonthlyReports(txns []PaymentTransaction, months int, now time.Time) []MonthlyReport {
	if months <= 0 {
		return []MonthlyReport{}
	}

	current := MonthStart(now)
	reports := make([]MonthlyReport, months)
	index := make(map[string]int, months)
	stores := make([]map[string]struct{}, months)
	for i := 0; i < months; i++ {
		key := current.AddDate(0, -i, 0).Format(MonthKeyLayout)
		reports[i] = MonthlyReport{Month: key}
		index[key] = i
		stores[i] = map[string]struct{}{}
	}

	for _, t := range txns {
		i, ok := index[t.Date.UTC().Format(MonthKeyLayout)]
		if !ok {
			continue
		}
		r := &reports[i]
		if t.StoreID != "" {
			stores[i][t.StoreID] = struct{}{}
		}
		switch t.Status {
		case PaymentStatusPaid:
			r.PaidPayments++
			r.TotalRevenue += t.Amount
		case PaymentStatusPending:
			r.PendingPayments++
		case PaymentStatusOverdue:
			r.OverduePayments++
		}
	}

	for i := range reports {
		reports[i].TotalStores = len(stores[i])
		reports[i].Finalize()
	}
	return reports
}
