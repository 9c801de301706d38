package entities

import "strings"

// BadgeKind names the family of values a badge presents
type BadgeKind string

const (
	BadgeStoreStatus    BadgeKind = "store_status"
	BadgeCameraStatus   BadgeKind = "camera_status"
	BadgePaymentStatus  BadgeKind = "payment_status"
	BadgePlan           BadgeKind = "plan"
	BadgeFeedbackStatus BadgeKind = "feedback_status"
	BadgePriority       BadgeKind = "priority"
	BadgeSeverity       BadgeKind = "severity"
)

// BadgeVariant is the visual style of a badge
type BadgeVariant string

const (
	VariantDefault     BadgeVariant = "default"
	VariantSecondary   BadgeVariant = "secondary"
	VariantDestructive BadgeVariant = "destructive"
	VariantOutline     BadgeVariant = "outline"
	VariantSuccess     BadgeVariant = "success"
	VariantWarning     BadgeVariant = "warning"
	VariantCaution     BadgeVariant = "caution"
	VariantPrimary     BadgeVariant = "primary"
	VariantAccent      BadgeVariant = "accent"
)

// Badge is the presentation of a status-like value
type Badge struct {
	Label   string       `json:"label"`
	Variant BadgeVariant `json:"variant"`
}

// badgeTable is the single source for status, priority, plan and severity
// presentation. Keys are lower-cased values.
var badgeTable = map[BadgeKind]map[string]Badge{
	BadgeStoreStatus: {
		"active":   {"Active", VariantSuccess},
		"inactive": {"Inactive", VariantSecondary},
	},
	BadgeCameraStatus: {
		"online":  {"Online", VariantSuccess},
		"offline": {"Offline", VariantDestructive},
	},
	BadgePaymentStatus: {
		"paid":    {"Paid", VariantSuccess},
		"pending": {"Pending", VariantWarning},
		"overdue": {"Overdue", VariantDestructive},
	},
	BadgePlan: {
		"basic":      {"Basic", VariantOutline},
		"premium":    {"Premium", VariantPrimary},
		"enterprise": {"Enterprise", VariantAccent},
	},
	BadgeFeedbackStatus: {
		"unresolved":  {"Unresolved", VariantDestructive},
		"in progress": {"In Progress", VariantPrimary},
		"resolved":    {"Resolved", VariantSuccess},
	},
	BadgePriority: {
		"critical": {"Critical", VariantDestructive},
		"high":     {"High", VariantCaution},
		"medium":   {"Medium", VariantWarning},
		"low":      {"Low", VariantOutline},
	},
	BadgeSeverity: {
		"critical": {"Critical", VariantDestructive},
		"high":     {"High", VariantDestructive},
		"medium":   {"Medium", VariantWarning},
		"low":      {"Low", VariantOutline},
	},
}

// BadgeFor looks up the badge of a value. Unknown kinds or values render
// the value itself with the outline variant.
func BadgeFor(kind BadgeKind, value string) Badge {
	if entries, ok := badgeTable[kind]; ok {
		if b, ok := entries[strings.ToLower(strings.TrimSpace(value))]; ok {
			return b
		}
	}
	return Badge{Label: value, Variant: VariantOutline}
}

// BadgeTable returns a copy of the full lookup table
func BadgeTable() map[BadgeKind]map[string]Badge {
	out := make(map[BadgeKind]map[string]Badge, len(badgeTable))
	for kind, entries := range badgeTable {
		copied := make(map[string]Badge, len(entries))
		for k, v := range entries {
			copied[k] = v
		}
		out[kind] = copied
	}
	return out
}
