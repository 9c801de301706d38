package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	"github.com/zatekoja/storeguard/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
)

const (
	paymentsTable     = "payments"
	transactionsTable = "payment_transactions"
)

var paymentColumns = []interface{}{
	"id", goqu.COALESCE(goqu.I("store_id"), "").As("store_id"), "store_name", "plan", "amount_cents",
	"status", "due_date", "last_payment_date", "method", "last_transaction_ref",
	"created_at", "updated_at",
}

// PaymentAdapter implements the PaymentRepository interface on Postgres
type PaymentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPaymentAdapter creates a new payment adapter
func NewPaymentAdapter(client *postgres.Client) repositories.PaymentRepository {
	return &PaymentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.PaymentRepository = (*PaymentAdapter)(nil)

func paymentRecord(p *entities.Payment) goqu.Record {
	return goqu.Record{
		"id":                   p.ID,
		"store_id":             nullString(p.StoreID),
		"store_name":           p.StoreName,
		"plan":                 string(p.Plan),
		"amount_cents":         int64(p.Amount),
		"status":               string(p.Status),
		"due_date":             p.DueDate,
		"last_payment_date":    nullTime(p.LastPaymentDate),
		"method":               string(p.Method),
		"last_transaction_ref": p.TransactionID,
		"created_at":           p.CreatedAt,
		"updated_at":           p.UpdatedAt,
	}
}

func (a *PaymentAdapter) Create(ctx context.Context, payment *entities.Payment) error {
	query, args, err := a.db.Insert(paymentsTable).Rows(paymentRecord(payment)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build payment insert", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create payment", err)
	}
	return nil
}

func (a *PaymentAdapter) GetByID(ctx context.Context, id string) (*entities.Payment, error) {
	query, args, err := a.db.From(paymentsTable).Select(paymentColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build payment query", err)
	}

	p, err := scanPayment(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("payment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get payment", err)
	}
	return p, nil
}

func (a *PaymentAdapter) Update(ctx context.Context, payment *entities.Payment) error {
	record := paymentRecord(payment)
	delete(record, "id")
	delete(record, "created_at")

	query, args, err := a.db.Update(paymentsTable).Set(record).Where(goqu.Ex{"id": payment.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build payment update", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update payment", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("payment with id %s not found", payment.ID))
	}
	return nil
}

// List retrieves payments in creation order. Search matches the store name.
func (a *PaymentAdapter) List(ctx context.Context, f repositories.PaymentFilter) ([]*entities.Payment, int, error) {
	where := conditions(
		searchCondition(f.Search, columns("store_name")...),
		enumCondition("status", f.Status),
		enumCondition("plan", f.Plan),
	)

	total, err := a.count(ctx, where)
	if err != nil {
		return nil, 0, err
	}

	ds := a.db.From(paymentsTable).Select(paymentColumns...).Where(where...).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc())
	query, args, err := paginate(ds, f.Limit, f.Offset).ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build payment query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list payments", err)
	}
	defer rows.Close()

	payments := []*entities.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan payment", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewInternalError("error iterating payments", err)
	}
	return payments, total, nil
}

func (a *PaymentAdapter) count(ctx context.Context, where []exp.Expression) (int, error) {
	query, args, err := a.db.From(paymentsTable).Select(goqu.COUNT("*")).Where(where...).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build payment count", err)
	}
	var n int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperrors.NewInternalError("failed to count payments", err)
	}
	return n, nil
}

func (a *PaymentAdapter) transactionInsert(txn *entities.PaymentTransaction) (string, []interface{}, error) {
	return a.db.Insert(transactionsTable).Rows(goqu.Record{
		"id":               txn.ID,
		"payment_id":       nullString(txn.PaymentID),
		"store_id":         nullString(txn.StoreID),
		"store_name":       txn.StoreName,
		"transaction_date": txn.Date,
		"amount_cents":     int64(txn.Amount),
		"plan":             string(txn.Plan),
		"status":           string(txn.Status),
		"method":           string(txn.Method),
		"transaction_ref":  txn.TransactionID,
	}).ToSQL()
}

func (a *PaymentAdapter) RecordTransaction(ctx context.Context, txn *entities.PaymentTransaction) error {
	query, args, err := a.transactionInsert(txn)
	if err != nil {
		return apperrors.NewInternalError("failed to build transaction insert", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to record transaction", err)
	}
	return nil
}

// MarkPaid updates the payment and inserts its history row in one
// transaction. The update only matches a payment that is not yet Paid, so
// two concurrent settlements cannot both record a charge.
func (a *PaymentAdapter) MarkPaid(ctx context.Context, payment *entities.Payment, txn *entities.PaymentTransaction) error {
	return withTx(ctx, a.client, "mark payment paid", func(tx *sql.Tx) error {
		record := paymentRecord(payment)
		delete(record, "id")
		delete(record, "created_at")

		query, args, err := a.db.Update(paymentsTable).Set(record).Where(goqu.Ex{
			"id":     payment.ID,
			"status": goqu.Op{"neq": string(entities.PaymentStatusPaid)},
		}).ToSQL()
		if err != nil {
			return fmt.Errorf("build payment update: %w", err)
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return apperrors.NewConflictError(fmt.Sprintf("payment %s is already paid or no longer exists", payment.ID))
		}

		query, args, err = a.transactionInsert(txn)
		if err != nil {
			return fmt.Errorf("build transaction insert: %w", err)
		}
		_, err = tx.ExecContext(ctx, query, args...)
		return err
	})
}

// ListHistory scans transactions straight into entities via sqlx
func (a *PaymentAdapter) ListHistory(ctx context.Context, f repositories.HistoryFilter) ([]entities.PaymentTransaction, error) {
	var where []exp.Expression
	if f.StoreID != "" {
		where = append(where, goqu.Ex{"store_id": f.StoreID})
	}
	if !f.From.IsZero() {
		where = append(where, goqu.I("transaction_date").Gte(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, goqu.I("transaction_date").Lte(f.To))
	}

	query, args, err := a.db.From(transactionsTable).
		Select(
			"id",
			goqu.COALESCE(goqu.I("payment_id"), "").As("payment_id"),
			goqu.COALESCE(goqu.I("store_id"), "").As("store_id"),
			"store_name", "transaction_date", "amount_cents", "plan", "status", "method", "transaction_ref",
		).
		Where(where...).
		Order(goqu.I("transaction_date").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build history query", err)
	}

	history := []entities.PaymentTransaction{}
	if err := a.client.DBX().SelectContext(ctx, &history, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list payment history", err)
	}
	return history, nil
}

const monthlySummaryQuery = `
	SELECT
		to_char(date_trunc('month', transaction_date), 'YYYY-MM') AS month,
		COALESCE(SUM(amount_cents) FILTER (WHERE status = 'Paid'), 0) AS total_revenue,
		COUNT(DISTINCT store_id) AS total_stores,
		COUNT(*) FILTER (WHERE status = 'Paid') AS paid_payments,
		COUNT(*) FILTER (WHERE status = 'Pending') AS pending_payments,
		COUNT(*) FILTER (WHERE status = 'Overdue') AS overdue_payments
	FROM payment_transactions
	WHERE transaction_date >= $1 AND transaction_date < $2
	GROUP BY 1
`

// MonthlySummaries aggregates in SQL and fills months without activity
func (a *PaymentAdapter) MonthlySummaries(ctx context.Context, months int, now time.Time) ([]entities.MonthlyReport, error) {
	reports := entities.BuildMonthlyReports(nil, months, now)
	if len(reports) == 0 {
		return reports, nil
	}

	end := entities.MonthStart(now).AddDate(0, 1, 0)
	start := entities.MonthStart(now).AddDate(0, -(months - 1), 0)

	var rows []entities.MonthlyReport
	if err := a.client.DBX().SelectContext(ctx, &rows, monthlySummaryQuery, start, end); err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate monthly payments", err)
	}

	byMonth := make(map[string]entities.MonthlyReport, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}
	for i := range reports {
		if r, ok := byMonth[reports[i].Month]; ok {
			reports[i] = r
			reports[i].Finalize()
		}
	}
	return reports, nil
}

func scanPayment(row rowScanner) (*entities.Payment, error) {
	p := &entities.Payment{}
	var lastPayment sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.StoreID,
		&p.StoreName,
		&p.Plan,
		&p.Amount,
		&p.Status,
		&p.DueDate,
		&lastPayment,
		&p.Method,
		&p.TransactionID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.LastPaymentDate = timePtr(lastPayment)
	return p, nil
}
