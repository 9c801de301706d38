package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
	"github.com/zatekoja/storeguard/pkg/filter"
)

// FeedbackRepository is the in-memory feedback repository
type FeedbackRepository struct {
	db *DB
}

var _ repositories.FeedbackRepository = (*FeedbackRepository)(nil)

func (r *FeedbackRepository) Create(ctx context.Context, feedback *entities.Feedback) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.feedback[feedback.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("feedback %s already exists", feedback.ID))
	}
	r.db.feedback[feedback.ID] = feedback.Clone()
	return nil
}

func (r *FeedbackRepository) GetByID(ctx context.Context, id string) (*entities.Feedback, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	f, ok := r.db.feedback[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("feedback not found: %s", id))
	}
	return f.Clone(), nil
}

// List filters feedback, newest submission first. Search matches the user
// name, subject and store name.
func (r *FeedbackRepository) List(ctx context.Context, f repositories.FeedbackFilter) ([]*entities.Feedback, int, error) {
	all := r.snapshot()

	matched := filter.Apply(all,
		filter.Search(f.Search,
			func(fb *entities.Feedback) string { return fb.UserName },
			func(fb *entities.Feedback) string { return fb.Subject },
			func(fb *entities.Feedback) string { return fb.StoreName },
		),
		filter.Enum(f.Status, func(fb *entities.Feedback) string { return string(fb.Status) }),
		filter.Enum(f.Priority, func(fb *entities.Feedback) string { return string(fb.Priority) }),
		filter.Enum(f.Category, func(fb *entities.Feedback) string { return string(fb.Category) }),
	)
	return filter.Paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *FeedbackRepository) snapshot() []*entities.Feedback {
	r.db.mu.RLock()
	out := make([]*entities.Feedback, 0, len(r.db.feedback))
	for _, fb := range r.db.feedback {
		out = append(out, fb.Clone())
	}
	r.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

func (r *FeedbackRepository) UpdateStatus(ctx context.Context, feedback *entities.Feedback) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.feedback[feedback.ID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("feedback not found: %s", feedback.ID))
	}
	stored.Status = feedback.Status
	stored.ResolvedAt = nil
	if feedback.ResolvedAt != nil {
		t := *feedback.ResolvedAt
		stored.ResolvedAt = &t
	}
	stored.UpdatedAt = feedback.UpdatedAt
	return nil
}

func (r *FeedbackRepository) CountByStatus(ctx context.Context) (map[entities.FeedbackStatus]int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := map[entities.FeedbackStatus]int{
		entities.FeedbackStatusUnresolved: 0,
		entities.FeedbackStatusInProgress: 0,
		entities.FeedbackStatusResolved:   0,
	}
	for _, fb := range r.db.feedback {
		counts[fb.Status]++
	}
	return counts, nil
}

func (r *FeedbackRepository) Count(ctx context.Context, f repositories.FeedbackCountFilter) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	n := 0
	for _, fb := range r.db.feedback {
		if len(f.Statuses) > 0 && !contains(f.Statuses, fb.Status) {
			continue
		}
		if len(f.Priorities) > 0 && !contains(f.Priorities, fb.Priority) {
			continue
		}
		n++
	}
	return n, nil
}

func (r *FeedbackRepository) AddReply(ctx context.Context, reply *entities.FeedbackReply) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	fb, ok := r.db.feedback[reply.FeedbackID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("feedback not found: %s", reply.FeedbackID))
	}
	fb.Replies = append(fb.Replies, *reply)
	return nil
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
