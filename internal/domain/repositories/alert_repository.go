package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/storeguard/internal/domain/entities"
)

// AlertRepository defines the interface for detection alerts
type AlertRepository interface {
	Create(ctx context.Context, alert *entities.Alert) error
	ListRecent(ctx context.Context, limit int) ([]*entities.Alert, error)
	ListByStore(ctx context.Context, storeID string, limit int) ([]*entities.Alert, error)
	CountBySeverity(ctx context.Context, since time.Time) (map[entities.Severity]int, error)
}
