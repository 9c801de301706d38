package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	"github.com/zatekoja/storeguard/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
)

// FeedbackInput is a feedback submission. StoreID, when given, must name an
// existing store and overrides StoreName.
type FeedbackInput struct {
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	StoreID   string `json:"store_id,omitempty"`
	StoreName string `json:"store_name,omitempty"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Priority  string `json:"priority,omitempty"`
	Category  string `json:"category,omitempty"`
}

// ReplyInput is a reply to the submitter
type ReplyInput struct {
	Body   string `json:"body"`
	SentBy string `json:"sent_by,omitempty"`
}

// FeedbackSummary feeds the counters above the feedback table
type FeedbackSummary struct {
	Total      int `json:"total"`
	Unresolved int `json:"unresolved"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

// FeedbackService handles feedback submissions and triage.
type FeedbackService struct {
	repo    repositories.FeedbackRepository
	stores  repositories.StoreRepository
	sender  providers.ReplySender
	events  providers.EventBus
	metrics *observability.Metrics
	now     func() time.Time
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(
	repo repositories.FeedbackRepository,
	stores repositories.StoreRepository,
	sender providers.ReplySender,
	events providers.EventBus,
	metrics *observability.Metrics,
) *FeedbackService {
	return &FeedbackService{repo: repo, stores: stores, sender: sender, events: events, metrics: metrics, now: time.Now}
}

// Submit stores new feedback as Unresolved. Priority defaults to Medium and
// category to Other.
func (s *FeedbackService) Submit(ctx context.Context, in FeedbackInput) (*entities.Feedback, error) {
	now := s.now().UTC()
	fb := &entities.Feedback{
		ID:          uuid.NewString(),
		UserName:    strings.TrimSpace(in.UserName),
		UserEmail:   strings.TrimSpace(in.UserEmail),
		StoreName:   strings.TrimSpace(in.StoreName),
		Subject:     strings.TrimSpace(in.Subject),
		Message:     strings.TrimSpace(in.Message),
		Priority:    entities.PriorityMedium,
		Status:      entities.FeedbackStatusUnresolved,
		Category:    entities.CategoryOther,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	verrs := apperrors.ValidationErrors{}
	if fb.UserName == "" {
		verrs.Add("user_name", "is required")
	}
	if !validEmail(fb.UserEmail) {
		verrs.Add("user_email", "must be a valid email address")
	}
	if fb.Subject == "" {
		verrs.Add("subject", "is required")
	}
	if fb.Message == "" {
		verrs.Add("message", "is required")
	}
	if !blank(in.Priority) {
		if p, ok := entities.ParsePriority(in.Priority); ok {
			fb.Priority = p
		} else {
			verrs.Add("priority", "must be Critical, High, Medium or Low")
		}
	}
	if !blank(in.Category) {
		if c, ok := entities.ParseFeedbackCategory(in.Category); ok {
			fb.Category = c
		} else {
			verrs.Add("category", "must be Technical, System, Feedback, Billing or Other")
		}
	}
	if id := strings.TrimSpace(in.StoreID); id != "" && s.stores != nil {
		store, err := s.stores.GetByID(ctx, id)
		switch {
		case apperrors.IsNotFound(err):
			verrs.Add("store_id", "does not name a store")
		case err != nil:
			return nil, err
		default:
			fb.StoreID = store.ID
			fb.StoreName = store.Name
		}
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, err
	}
	publish(ctx, s.events, entities.AdminEventFeedbackCreated, fb.ID, map[string]interface{}{
		"priority": string(fb.Priority),
		"category": string(fb.Category),
	})
	return fb, nil
}

// List retrieves feedback, newest first
func (s *FeedbackService) List(ctx context.Context, filter repositories.FeedbackFilter) (*Page[*entities.Feedback], error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page[*entities.Feedback]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Get retrieves feedback with its replies
func (s *FeedbackService) Get(ctx context.Context, id string) (*entities.Feedback, error) {
	return s.repo.GetByID(ctx, id)
}

// Summary counts feedback per status
func (s *FeedbackService) Summary(ctx context.Context) (*FeedbackSummary, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	sum := &FeedbackSummary{
		Unresolved: counts[entities.FeedbackStatusUnresolved],
		InProgress: counts[entities.FeedbackStatusInProgress],
		Resolved:   counts[entities.FeedbackStatusResolved],
	}
	sum.Total = sum.Unresolved + sum.InProgress + sum.Resolved
	return sum, nil
}

// UpdateStatus moves feedback to another status. Re-applying the current
// status is a conflict. Resolving stamps ResolvedAt; reopening clears it.
func (s *FeedbackService) UpdateStatus(ctx context.Context, id, status string) (*entities.Feedback, error) {
	next, ok := entities.ParseFeedbackStatus(status)
	if !ok {
		verrs := apperrors.ValidationErrors{}
		verrs.Add("status", "must be Unresolved, In Progress or Resolved")
		return nil, verrs.Err()
	}

	fb, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fb.Status == next {
		return nil, apperrors.NewConflictError(fmt.Sprintf("feedback %s is already %s", id, next))
	}

	now := s.now().UTC()
	previous := fb.Status
	fb.Status = next
	fb.UpdatedAt = now
	fb.ResolvedAt = nil
	if next == entities.FeedbackStatusResolved {
		fb.ResolvedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, fb); err != nil {
		return nil, err
	}
	publish(ctx, s.events, entities.AdminEventFeedbackStatusChanged, id, map[string]interface{}{
		"from": string(previous),
		"to":   string(next),
	})
	return fb, nil
}

// Reply emails the submitter and records the reply on the feedback
func (s *FeedbackService) Reply(ctx context.Context, id string, in ReplyInput) (*entities.FeedbackReply, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		verrs := apperrors.ValidationErrors{}
		verrs.Add("body", "is required")
		return nil, verrs.Err()
	}

	fb, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !validEmail(fb.UserEmail) {
		return nil, apperrors.NewConflictError(fmt.Sprintf("feedback %s has no reply address", id))
	}
	if s.sender == nil {
		return nil, apperrors.NewExternalError("no reply channel configured", fmt.Errorf("reply sender is nil"))
	}

	sentBy := strings.TrimSpace(in.SentBy)
	if sentBy == "" {
		sentBy = "admin"
	}
	msg := providers.ReplyMessage{
		To:      fb.UserEmail,
		Subject: "Re: " + fb.Subject,
		Body:    body,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		observability.RecordReplyFailure(ctx, s.metrics)
		return nil, apperrors.NewExternalError("failed to send reply", err)
	}

	reply := &entities.FeedbackReply{
		ID:         uuid.NewString(),
		FeedbackID: id,
		Body:       body,
		SentTo:     fb.UserEmail,
		SentBy:     sentBy,
		SentAt:     s.now().UTC(),
	}
	if err := s.repo.AddReply(ctx, reply); err != nil {
		return nil, err
	}

	publish(ctx, s.events, entities.AdminEventFeedbackReplied, id, map[string]interface{}{"reply_id": reply.ID})
	return reply, nil
}
