package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
)

// failingAlerts breaks one leg of the overview fan-out
type failingAlerts struct {
	repositories.AlertRepository
}

func (failingAlerts) CountBySeverity(ctx context.Context, since time.Time) (map[entities.Severity]int, error) {
	return nil, errors.New("alerts table unavailable")
}

func TestDashboardService_Overview(t *testing.T) {
	db := newTestDB(t)
	svc := NewDashboardService(db.Stores(), db.Feedback(), db.Alerts())
	svc.now = fixedClock

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)

	require.Len(t, overview.Stats, 4)
	stats := map[string]entities.StatCard{}
	for _, s := range overview.Stats {
		stats[s.Key] = s
	}

	assert.Equal(t, 4, stats["total_stores"].Value)
	assert.Equal(t, "+1 from last month", stats["total_stores"].Description)
	assert.Equal(t, 3, stats["active_subscriptions"].Value)
	assert.Equal(t, "75% of total stores", stats["active_subscriptions"].Description)
	assert.Equal(t, 3, stats["pending_feedback"].Value)
	assert.Equal(t, "2 urgent issues", stats["pending_feedback"].Description)
	assert.Equal(t, 6, stats["system_alerts"].Value)
	assert.Equal(t, "1 critical alert", stats["system_alerts"].Description)

	require.Len(t, overview.RecentStores, dashboardRecentStores)
	assert.Equal(t, "Jewelry Store Premium", overview.RecentStores[0].Name)
	assert.Equal(t, "1 hour ago", overview.RecentStores[0].LastActivity)

	require.Len(t, overview.RecentAlerts, dashboardRecentAlerts)
	assert.Equal(t, "Motion Detected", overview.RecentAlerts[0].Type)
	assert.Equal(t, "2 minutes ago", overview.RecentAlerts[0].Time)
	assert.Equal(t, entities.SeverityCritical, overview.RecentAlerts[1].Severity)
}

func TestDashboardService_OverviewFailsWhenAQueryFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewDashboardService(db.Stores(), db.Feedback(), failingAlerts{db.Alerts()})

	_, err := svc.Overview(context.Background())
	assert.EqualError(t, err, "alerts table unavailable")
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, percent(3, 0))
	assert.Equal(t, 67, percent(2, 3))
	assert.Equal(t, 100, percent(5, 5))
}
