package entities

// StatCard is one summary tile on the dashboard
type StatCard struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Value       int    `json:"value"`
	Description string `json:"description"`
}

// RecentStore is a row of the dashboard's recently added stores panel
type RecentStore struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Location     string      `json:"location"`
	Status       StoreStatus `json:"status"`
	Cameras      int         `json:"cameras"`
	LastActivity string      `json:"last_activity"`
}

// RecentAlert is a row of the dashboard's recent alerts panel
type RecentAlert struct {
	Alert
	Time string `json:"time"`
}

// DashboardOverview is everything the landing page renders
type DashboardOverview struct {
	Stats        []StatCard    `json:"stats"`
	RecentStores []RecentStore `json:"recent_stores"`
	RecentAlerts []RecentAlert `json:"recent_alerts"`
}
