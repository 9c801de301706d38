package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
)

const (
	dashboardRecentStores = 4
	dashboardRecentAlerts = 3
	alertWindow           = 24 * time.Hour
)

var (
	pendingStatuses  = []entities.FeedbackStatus{entities.FeedbackStatusUnresolved, entities.FeedbackStatusInProgress}
	urgentPriorities = []entities.Priority{entities.PriorityCritical, entities.PriorityHigh}
)

// DashboardService computes the landing page overview
type DashboardService struct {
	stores   repositories.StoreRepository
	feedback repositories.FeedbackRepository
	alerts   repositories.AlertRepository
	now      func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	stores repositories.StoreRepository,
	feedback repositories.FeedbackRepository,
	alerts repositories.AlertRepository,
) *DashboardService {
	return &DashboardService{stores: stores, feedback: feedback, alerts: alerts, now: time.Now}
}

// Overview runs every dashboard query concurrently. The first failure
// cancels the rest.
func (s *DashboardService) Overview(ctx context.Context) (*entities.DashboardOverview, error) {
	now := s.now().UTC()
	monthStart := entities.MonthStart(now)

	var (
		totalStores, storesLastMonth, activeStores int
		pending, urgent                            int
		severities                                 map[entities.Severity]int
		recentStores                               []*entities.Store
		recentAlerts                               []*entities.Alert
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totalStores, err = s.stores.Count(gctx, repositories.StoreCountFilter{})
		return err
	})
	g.Go(func() (err error) {
		storesLastMonth, err = s.stores.Count(gctx, repositories.StoreCountFilter{CreatedBefore: &monthStart})
		return err
	})
	g.Go(func() (err error) {
		activeStores, err = s.stores.Count(gctx, repositories.StoreCountFilter{Status: entities.StoreStatusActive})
		return err
	})
	g.Go(func() (err error) {
		pending, err = s.feedback.Count(gctx, repositories.FeedbackCountFilter{Statuses: pendingStatuses})
		return err
	})
	g.Go(func() (err error) {
		urgent, err = s.feedback.Count(gctx, repositories.FeedbackCountFilter{
			Statuses:   pendingStatuses,
			Priorities: urgentPriorities,
		})
		return err
	})
	g.Go(func() (err error) {
		severities, err = s.alerts.CountBySeverity(gctx, now.Add(-alertWindow))
		return err
	})
	g.Go(func() (err error) {
		recentStores, err = s.stores.ListRecent(gctx, dashboardRecentStores)
		return err
	})
	g.Go(func() (err error) {
		recentAlerts, err = s.alerts.ListRecent(gctx, dashboardRecentAlerts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	alertTotal := 0
	for _, n := range severities {
		alertTotal += n
	}

	overview := &entities.DashboardOverview{
		Stats: []entities.StatCard{
			{
				Key:         "total_stores",
				Title:       "Total Stores",
				Value:       totalStores,
				Description: fmt.Sprintf("%+d from last month", totalStores-storesLastMonth),
			},
			{
				Key:         "active_subscriptions",
				Title:       "Active Subscriptions",
				Value:       activeStores,
				Description: fmt.Sprintf("%d%% of total stores", percent(activeStores, totalStores)),
			},
			{
				Key:         "pending_feedback",
				Title:       "Pending Feedback",
				Value:       pending,
				Description: fmt.Sprintf("%d urgent %s", urgent, pluralize(urgent, "issue")),
			},
			{
				Key:         "system_alerts",
				Title:       "System Alerts",
				Value:       alertTotal,
				Description: fmt.Sprintf("%d critical %s", severities[entities.SeverityCritical], pluralize(severities[entities.SeverityCritical], "alert")),
			},
		},
		RecentStores: make([]entities.RecentStore, 0, len(recentStores)),
		RecentAlerts: make([]entities.RecentAlert, 0, len(recentAlerts)),
	}

	for _, st := range recentStores {
		overview.RecentStores = append(overview.RecentStores, entities.RecentStore{
			ID:           st.ID,
			Name:         st.Name,
			Location:     st.Location,
			Status:       st.Status,
			Cameras:      st.CameraCount,
			LastActivity: lastActivity(st, now),
		})
	}
	for _, a := range recentAlerts {
		overview.RecentAlerts = append(overview.RecentAlerts, entities.RecentAlert{
			Alert: *a,
			Time:  entities.HumanizeSince(a.OccurredAt, now),
		})
	}
	return overview, nil
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

func pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
