package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/storeguard/internal/domain/entities"
)

// PaymentRepository defines the interface for subscription billing data
type PaymentRepository interface {
	Create(ctx context.Context, payment *entities.Payment) error
	GetByID(ctx context.Context, id string) (*entities.Payment, error)
	Update(ctx context.Context, payment *entities.Payment) error

	// List retrieves payments matching the filter and the total match count
	List(ctx context.Context, filter PaymentFilter) ([]*entities.Payment, int, error)

	// RecordTransaction appends an entry to the payment history
	RecordTransaction(ctx context.Context, txn *entities.PaymentTransaction) error

	// MarkPaid saves a settled payment and appends txn to the history as one
	// atomic write. It fails with a Conflict error when the stored payment
	// is already Paid.
	MarkPaid(ctx context.Context, payment *entities.Payment, txn *entities.PaymentTransaction) error

	// ListHistory retrieves transactions, newest first
	ListHistory(ctx context.Context, filter HistoryFilter) ([]entities.PaymentTransaction, error)

	// MonthlySummaries aggregates the last months calendar months ending
	// with the month of now, newest first
	MonthlySummaries(ctx context.Context, months int, now time.Time) ([]entities.MonthlyReport, error)
}

// PaymentFilter defines filters for listing payments. Search matches the
// store name only.
type PaymentFilter struct {
	Search string
	Status string
	Plan   string
	Limit  int
	Offset int
}

// HistoryFilter narrows the payment history. Zero values are unbounded.
type HistoryFilter struct {
	StoreID string
	From    time.Time
	To      time.Time
}
