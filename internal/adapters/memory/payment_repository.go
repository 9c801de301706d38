package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
	"github.com/zatekoja/storeguard/pkg/filter"
)

// PaymentRepository is the in-memory payment repository
type PaymentRepository struct {
	db *DB
}

var _ repositories.PaymentRepository = (*PaymentRepository)(nil)

func (r *PaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.payments[payment.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("payment %s already exists", payment.ID))
	}
	r.db.payments[payment.ID] = payment.Clone()
	r.db.paymentOrder = append(r.db.paymentOrder, payment.ID)
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*entities.Payment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.payments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("payment not found: %s", id))
	}
	return p.Clone(), nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *entities.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.payments[payment.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("payment not found: %s", payment.ID))
	}
	r.db.payments[payment.ID] = payment.Clone()
	return nil
}

// List filters payments in creation order. Search matches the store name.
func (r *PaymentRepository) List(ctx context.Context, f repositories.PaymentFilter) ([]*entities.Payment, int, error) {
	r.db.mu.RLock()
	all := make([]*entities.Payment, 0, len(r.db.paymentOrder))
	for _, id := range r.db.paymentOrder {
		all = append(all, r.db.payments[id].Clone())
	}
	r.db.mu.RUnlock()

	matched := filter.Apply(all,
		filter.Search(f.Search, func(p *entities.Payment) string { return p.StoreName }),
		filter.Enum(f.Status, func(p *entities.Payment) string { return string(p.Status) }),
		filter.Enum(f.Plan, func(p *entities.Payment) string { return string(p.Plan) }),
	)
	return filter.Paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *PaymentRepository) MarkPaid(ctx context.Context, payment *entities.Payment, txn *entities.PaymentTransaction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.payments[payment.ID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("payment not found: %s", payment.ID))
	}
	if current.Status == entities.PaymentStatusPaid {
		return apperrors.NewConflictError(fmt.Sprintf("payment %s is already paid", payment.ID))
	}
	r.db.payments[payment.ID] = payment.Clone()
	r.db.transactions = append(r.db.transactions, *txn)
	return nil
}

func (r *PaymentRepository) RecordTransaction(ctx context.Context, txn *entities.PaymentTransaction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.transactions = append(r.db.transactions, *txn)
	return nil
}

// ListHistory returns matching transactions, newest first. The range is
// inclusive on both ends.
func (r *PaymentRepository) ListHistory(ctx context.Context, f repositories.HistoryFilter) ([]entities.PaymentTransaction, error) {
	r.db.mu.RLock()
	out := make([]entities.PaymentTransaction, 0, len(r.db.transactions))
	for _, t := range r.db.transactions {
		if f.StoreID != "" && t.StoreID != f.StoreID {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && t.Date.After(f.To) {
			continue
		}
		out = append(out, t)
	}
	r.db.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *PaymentRepository) MonthlySummaries(ctx context.Context, months int, now time.Time) ([]entities.MonthlyReport, error) {
	r.db.mu.RLock()
	txns := append([]entities.PaymentTransaction(nil), r.db.transactions...)
	r.db.mu.RUnlock()

	return entities.BuildMonthlyReports(txns, months, now), nil
}
