package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	"github.com/zatekoja/storeguard/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
)

const alertsTable = "alerts"

// AlertAdapter implements the AlertRepository interface on Postgres
type AlertAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAlertAdapter creates a new alert adapter
func NewAlertAdapter(client *postgres.Client) repositories.AlertRepository {
	return &AlertAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.AlertRepository = (*AlertAdapter)(nil)

func (a *AlertAdapter) Create(ctx context.Context, alert *entities.Alert) error {
	query, args, err := a.db.Insert(alertsTable).Rows(goqu.Record{
		"id":          alert.ID,
		"store_id":    alert.StoreID,
		"store_name":  alert.StoreName,
		"alert_type":  alert.Type,
		"severity":    string(alert.Severity),
		"occurred_at": alert.OccurredAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build alert insert", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create alert", err)
	}
	return nil
}

func (a *AlertAdapter) ListRecent(ctx context.Context, limit int) ([]*entities.Alert, error) {
	return a.list(ctx, goqu.Ex{}, limit)
}

func (a *AlertAdapter) ListByStore(ctx context.Context, storeID string, limit int) ([]*entities.Alert, error) {
	return a.list(ctx, goqu.Ex{"store_id": storeID}, limit)
}

func (a *AlertAdapter) list(ctx context.Context, where goqu.Ex, limit int) ([]*entities.Alert, error) {
	ds := a.db.From(alertsTable).
		Select("id", "store_id", "store_name", "alert_type", "severity", "occurred_at").
		Where(where).
		Order(goqu.I("occurred_at").Desc())
	query, args, err := paginate(ds, limit, 0).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build alert query", err)
	}

	alerts := []*entities.Alert{}
	if err := a.client.DBX().SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list alerts", err)
	}
	return alerts, nil
}

func (a *AlertAdapter) CountBySeverity(ctx context.Context, since time.Time) (map[entities.Severity]int, error) {
	query, args, err := a.db.From(alertsTable).
		Select("severity", goqu.COUNT("*").As("count")).
		Where(goqu.I("occurred_at").Gte(since)).
		GroupBy("severity").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build alert count", err)
	}

	var rows []struct {
		Severity entities.Severity `db:"severity"`
		Count    int               `db:"count"`
	}
	if err := a.client.DBX().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to count alerts", err)
	}

	counts := make(map[entities.Severity]int, len(rows))
	for _, r := range rows {
		counts[r.Severity] = r.Count
	}
	return counts, nil
}
