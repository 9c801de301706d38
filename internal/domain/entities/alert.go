package entities

import (
	"strings"
	"time"
)

// Severity grades a detection alert
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// Alert is a detection raised by a store's cameras
type Alert struct {
	ID         string    `json:"id" db:"id"`
	StoreID    string    `json:"store_id" db:"store_id"`
	StoreName  string    `json:"store_name" db:"store_name"`
	Type       string    `json:"type" db:"alert_type"`
	Severity   Severity  `json:"severity" db:"severity"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}

// ParseSeverity accepts any casing of a severity
func ParseSeverity(value string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "critical":
		return SeverityCritical, true
	case "high":
		return SeverityHigh, true
	case "medium":
		return SeverityMedium, true
	case "low":
		return SeverityLow, true
	}
	return "", false
}
