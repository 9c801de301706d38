package memory

import (
	"context"
	"time"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
)

// AlertRepository is the in-memory alert repository
type AlertRepository struct {
	db *DB
}

var _ repositories.AlertRepository = (*AlertRepository)(nil)

func (r *AlertRepository) Create(ctx context.Context, alert *entities.Alert) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a := *alert
	r.db.alerts = append(r.db.alerts, &a)
	sortAlertsNewestFirst(r.db.alerts)
	return nil
}

func (r *AlertRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Alert, error) {
	return r.list("", limit), nil
}

func (r *AlertRepository) ListByStore(ctx context.Context, storeID string, limit int) ([]*entities.Alert, error) {
	return r.list(storeID, limit), nil
}

func (r *AlertRepository) list(storeID string, limit int) []*entities.Alert {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*entities.Alert{}
	for _, a := range r.db.alerts {
		if storeID != "" && a.StoreID != storeID {
			continue
		}
		copied := *a
		out = append(out, &copied)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (r *AlertRepository) CountBySeverity(ctx context.Context, since time.Time) (map[entities.Severity]int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[entities.Severity]int)
	for _, a := range r.db.alerts {
		if a.OccurredAt.Before(since) {
			continue
		}
		counts[a.Severity]++
	}
	return counts, nil
}
