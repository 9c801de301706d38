package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	"github.com/zatekoja/storeguard/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
)

const (
	feedbackTable = "feedback"
	repliesTable  = "feedback_replies"
)

var feedbackColumns = []interface{}{
	"id", "user_name", "user_email", goqu.COALESCE(goqu.I("store_id"), "").As("store_id"),
	"store_name", "subject", "message", "priority", "status", "category",
	"submitted_at", "resolved_at", "created_at", "updated_at",
}

// FeedbackAdapter implements feedback persistence in Postgres.
type FeedbackAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFeedbackAdapter creates a new feedback adapter.
func NewFeedbackAdapter(client *postgres.Client) repositories.FeedbackRepository {
	return &FeedbackAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.FeedbackRepository = (*FeedbackAdapter)(nil)

// Create inserts a feedback record.
func (a *FeedbackAdapter) Create(ctx context.Context, feedback *entities.Feedback) error {
	if feedback == nil {
		return apperrors.NewInternalError("feedback is nil", fmt.Errorf("feedback is nil"))
	}

	record := goqu.Record{
		"id":           feedback.ID,
		"user_name":    feedback.UserName,
		"user_email":   feedback.UserEmail,
		"store_id":     nullString(feedback.StoreID),
		"store_name":   feedback.StoreName,
		"subject":      feedback.Subject,
		"message":      feedback.Message,
		"priority":     string(feedback.Priority),
		"status":       string(feedback.Status),
		"category":     string(feedback.Category),
		"submitted_at": feedback.SubmittedAt,
		"resolved_at":  nullTime(feedback.ResolvedAt),
		"created_at":   feedback.CreatedAt,
		"updated_at":   feedback.UpdatedAt,
	}

	query, args, err := a.db.Insert(feedbackTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build feedback insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create feedback", err)
	}

	return nil
}

// GetByID retrieves a feedback item with its replies, oldest reply first.
func (a *FeedbackAdapter) GetByID(ctx context.Context, id string) (*entities.Feedback, error) {
	query, args, err := a.db.From(feedbackTable).Select(feedbackColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build feedback query", err)
	}

	fb, err := scanFeedback(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("feedback with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get feedback", err)
	}

	query, args, err = a.db.From(repliesTable).
		Select("id", "feedback_id", "body", "sent_to", "sent_by", "sent_at").
		Where(goqu.Ex{"feedback_id": id}).
		Order(goqu.I("sent_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build reply query", err)
	}

	replies := []entities.FeedbackReply{}
	if err := a.client.DBX().SelectContext(ctx, &replies, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list feedback replies", err)
	}
	if len(replies) > 0 {
		fb.Replies = replies
	}
	return fb, nil
}

// List retrieves feedback, newest submission first.
func (a *FeedbackAdapter) List(ctx context.Context, f repositories.FeedbackFilter) ([]*entities.Feedback, int, error) {
	where := conditions(
		searchCondition(f.Search, columns("user_name", "subject", "store_name")...),
		enumCondition("status", f.Status),
		enumCondition("priority", f.Priority),
		enumCondition("category", f.Category),
	)

	total, err := a.count(ctx, where)
	if err != nil {
		return nil, 0, err
	}

	ds := a.db.From(feedbackTable).Select(feedbackColumns...).Where(where...).
		Order(goqu.I("submitted_at").Desc(), goqu.I("id").Asc())
	query, args, err := paginate(ds, f.Limit, f.Offset).ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build feedback query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list feedback", err)
	}
	defer rows.Close()

	items := []*entities.Feedback{}
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan feedback", err)
		}
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewInternalError("error iterating feedback", err)
	}
	return items, total, nil
}

// UpdateStatus writes the triage fields of a feedback item.
func (a *FeedbackAdapter) UpdateStatus(ctx context.Context, feedback *entities.Feedback) error {
	query, args, err := a.db.Update(feedbackTable).Set(goqu.Record{
		"status":      string(feedback.Status),
		"resolved_at": nullTime(feedback.ResolvedAt),
		"updated_at":  feedback.UpdatedAt,
	}).Where(goqu.Ex{"id": feedback.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build feedback update", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update feedback", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("feedback with id %s not found", feedback.ID))
	}
	return nil
}

// CountByStatus returns a count for every status, including empty ones.
func (a *FeedbackAdapter) CountByStatus(ctx context.Context) (map[entities.FeedbackStatus]int, error) {
	query, args, err := a.db.From(feedbackTable).
		Select("status", goqu.COUNT("*").As("count")).
		GroupBy("status").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build feedback count", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count feedback", err)
	}
	defer rows.Close()

	counts := map[entities.FeedbackStatus]int{
		entities.FeedbackStatusUnresolved: 0,
		entities.FeedbackStatusInProgress: 0,
		entities.FeedbackStatusResolved:   0,
	}
	for rows.Next() {
		var status entities.FeedbackStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, apperrors.NewInternalError("failed to scan feedback count", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating feedback counts", err)
	}
	return counts, nil
}

func (a *FeedbackAdapter) Count(ctx context.Context, f repositories.FeedbackCountFilter) (int, error) {
	var where []exp.Expression
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, goqu.Ex{"status": statuses})
	}
	if len(f.Priorities) > 0 {
		priorities := make([]string, len(f.Priorities))
		for i, p := range f.Priorities {
			priorities[i] = string(p)
		}
		where = append(where, goqu.Ex{"priority": priorities})
	}
	return a.count(ctx, where)
}

func (a *FeedbackAdapter) count(ctx context.Context, where []exp.Expression) (int, error) {
	query, args, err := a.db.From(feedbackTable).Select(goqu.COUNT("*")).Where(where...).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build feedback count", err)
	}
	var n int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperrors.NewInternalError("failed to count feedback", err)
	}
	return n, nil
}

// AddReply stores a reply sent to the submitter.
func (a *FeedbackAdapter) AddReply(ctx context.Context, reply *entities.FeedbackReply) error {
	query, args, err := a.db.Insert(repliesTable).Rows(goqu.Record{
		"id":          reply.ID,
		"feedback_id": reply.FeedbackID,
		"body":        reply.Body,
		"sent_to":     reply.SentTo,
		"sent_by":     reply.SentBy,
		"sent_at":     reply.SentAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build reply insert", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to store feedback reply", err)
	}
	return nil
}

func scanFeedback(row rowScanner) (*entities.Feedback, error) {
	fb := &entities.Feedback{}
	var resolved sql.NullTime
	err := row.Scan(
		&fb.ID,
		&fb.UserName,
		&fb.UserEmail,
		&fb.StoreID,
		&fb.StoreName,
		&fb.Subject,
		&fb.Message,
		&fb.Priority,
		&fb.Status,
		&fb.Category,
		&fb.SubmittedAt,
		&resolved,
		&fb.CreatedAt,
		&fb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	fb.ResolvedAt = timePtr(resolved)
	return fb, nil
}
