package repositories

import (
	"context"

	"github.com/zatekoja/storeguard/internal/domain/entities"
)

// FeedbackRepository defines the interface for feedback operations.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *entities.Feedback) error

	// GetByID retrieves a feedback item with its replies
	GetByID(ctx context.Context, id string) (*entities.Feedback, error)

	List(ctx context.Context, filter FeedbackFilter) ([]*entities.Feedback, int, error)

	// UpdateStatus writes the status, resolved and updated timestamps of feedback
	UpdateStatus(ctx context.Context, feedback *entities.Feedback) error

	CountByStatus(ctx context.Context) (map[entities.FeedbackStatus]int, error)

	// Count counts feedback whose status and priority are in the given sets.
	// An empty set matches everything.
	Count(ctx context.Context, filter FeedbackCountFilter) (int, error)

	AddReply(ctx context.Context, reply *entities.FeedbackReply) error
}

// FeedbackFilter defines filters for listing feedback. Search matches the
// user name, subject and store name.
type FeedbackFilter struct {
	Search   string
	Status   string
	Priority string
	Category string
	Limit    int
	Offset   int
}

// FeedbackCountFilter narrows a feedback count
type FeedbackCountFilter struct {
	Statuses   []entities.FeedbackStatus
	Priorities []entities.Priority
}
