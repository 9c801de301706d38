package entities

import (
	"strings"
	"time"
)

// Priority ranks how urgently feedback needs attention
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// IsUrgent reports whether the priority counts as urgent on the dashboard
func (p Priority) IsUrgent() bool {
	return p == PriorityCritical || p == PriorityHigh
}

// FeedbackStatus is the triage state of a feedback item
type FeedbackStatus string

const (
	FeedbackStatusUnresolved FeedbackStatus = "Unresolved"
	FeedbackStatusInProgress FeedbackStatus = "In Progress"
	FeedbackStatusResolved   FeedbackStatus = "Resolved"
)

// FeedbackCategory groups feedback by topic
type FeedbackCategory string

const (
	CategoryTechnical FeedbackCategory = "Technical"
	CategorySystem    FeedbackCategory = "System"
	CategoryFeedback  FeedbackCategory = "Feedback"
	CategoryBilling   FeedbackCategory = "Billing"
	CategoryOther     FeedbackCategory = "Other"
)

// Feedback captures a support request or comment from a store operator.
type Feedback struct {
	ID          string           `json:"id" db:"id"`
	UserName    string           `json:"user_name" db:"user_name"`
	UserEmail   string           `json:"user_email" db:"user_email"`
	StoreID     string           `json:"store_id,omitempty" db:"store_id"`
	StoreName   string           `json:"store_name" db:"store_name"`
	Subject     string           `json:"subject" db:"subject"`
	Message     string           `json:"message" db:"message"`
	Priority    Priority         `json:"priority" db:"priority"`
	Status      FeedbackStatus   `json:"status" db:"status"`
	Category    FeedbackCategory `json:"category" db:"category"`
	SubmittedAt time.Time        `json:"submitted_at" db:"submitted_at"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty" db:"resolved_at"`
	Replies     []FeedbackReply  `json:"replies,omitempty"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy
func (f *Feedback) Clone() *Feedback {
	if f == nil {
		return nil
	}
	out := *f
	if f.ResolvedAt != nil {
		t := *f.ResolvedAt
		out.ResolvedAt = &t
	}
	if f.Replies != nil {
		out.Replies = append([]FeedbackReply(nil), f.Replies...)
	}
	return &out
}

// FeedbackReply is a message sent back to the submitter
type FeedbackReply struct {
	ID         string    `json:"id" db:"id"`
	FeedbackID string    `json:"feedback_id" db:"feedback_id"`
	Body       string    `json:"body" db:"body"`
	SentTo     string    `json:"sent_to" db:"sent_to"`
	SentBy     string    `json:"sent_by" db:"sent_by"`
	SentAt     time.Time `json:"sent_at" db:"sent_at"`
}

// ParsePriority accepts any casing of a priority
func ParsePriority(value string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "critical":
		return PriorityCritical, true
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	}
	return "", false
}

// ParseFeedbackStatus accepts "In Progress", "in_progress", "inprogress" and so on
func ParseFeedbackStatus(value string) (FeedbackStatus, bool) {
	v := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(value)))
	switch v {
	case "unresolved":
		return FeedbackStatusUnresolved, true
	case "inprogress":
		return FeedbackStatusInProgress, true
	case "resolved":
		return FeedbackStatusResolved, true
	}
	return "", false
}

// ParseFeedbackCategory accepts any casing of a category
func ParseFeedbackCategory(value string) (FeedbackCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "technical":
		return CategoryTechnical, true
	case "system":
		return CategorySystem, true
	case "feedback":
		return CategoryFeedback, true
	case "billing":
		return CategoryBilling, true
	case "other":
		return CategoryOther, true
	}
	return "", false
}
