package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
)

// SubscriptionInput is the update subscription dialog. Either field may be
// left empty to keep the current value.
type SubscriptionInput struct {
	Plan   string `json:"plan"`
	Status string `json:"status"`
}

// MarkPaidInput optionally records how the payment was made
type MarkPaidInput struct {
	Method string `json:"method,omitempty"`
}

// PaymentService handles subscription billing
type PaymentService struct {
	repo   repositories.PaymentRepository
	stores repositories.StoreRepository
	sender providers.ReplySender
	events providers.EventBus
	now    func() time.Time
}

// NewPaymentService creates a new payment service. sender and events may be nil.
func NewPaymentService(
	repo repositories.PaymentRepository,
	stores repositories.StoreRepository,
	sender providers.ReplySender,
	events providers.EventBus,
) *PaymentService {
	return &PaymentService{repo: repo, stores: stores, sender: sender, events: events, now: time.Now}
}

// List retrieves payments matching the filter
func (s *PaymentService) List(ctx context.Context, filter repositories.PaymentFilter) (*Page[*entities.Payment], error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page[*entities.Payment]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Get retrieves a payment
func (s *PaymentService) Get(ctx context.Context, id string) (*entities.Payment, error) {
	return s.repo.GetByID(ctx, id)
}

// Plans returns the subscription catalogue
func (s *PaymentService) Plans() []entities.Plan {
	return entities.Plans()
}

// newTransactionRef returns a reference in the TXN- format of the history
func newTransactionRef() string {
	return "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// MarkPaid settles the current invoice: the payment becomes Paid, the due
// date moves one month on and the charge is added to the history.
func (s *PaymentService) MarkPaid(ctx context.Context, id string, in MarkPaidInput) (*entities.Payment, error) {
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == entities.PaymentStatusPaid {
		return nil, apperrors.NewConflictError(fmt.Sprintf("payment %s is already paid", id))
	}
	if in.Method != "" {
		m, ok := entities.ParsePaymentMethod(in.Method)
		if !ok {
			verrs := apperrors.ValidationErrors{}
			verrs.Add("method", "must be Credit Card, Bank Transfer or PayPal")
			return nil, verrs.Err()
		}
		payment.Method = m
	}

	now := s.now().UTC()
	payment.Status = entities.PaymentStatusPaid
	payment.LastPaymentDate = &now
	payment.DueDate = payment.DueDate.AddDate(0, 1, 0)
	payment.TransactionID = newTransactionRef()
	payment.UpdatedAt = now

	txn := &entities.PaymentTransaction{
		ID:            uuid.NewString(),
		PaymentID:     payment.ID,
		StoreID:       payment.StoreID,
		StoreName:     payment.StoreName,
		Date:          now,
		Amount:        payment.Amount,
		Plan:          payment.Plan,
		Status:        entities.PaymentStatusPaid,
		Method:        payment.Method,
		TransactionID: payment.TransactionID,
	}
	if err := s.repo.MarkPaid(ctx, payment, txn); err != nil {
		return nil, err
	}

	publish(ctx, s.events, entities.AdminEventPaymentUpdated, payment.ID, map[string]interface{}{
		"status":         string(payment.Status),
		"transaction_id": payment.TransactionID,
	})
	return payment, nil
}

// UpdateSubscription changes the plan and/or billing status. A plan change
// re-prices the payment from the catalogue and is mirrored onto the store.
func (s *PaymentService) UpdateSubscription(ctx context.Context, id string, in SubscriptionInput) (*entities.Payment, error) {
	verrs := apperrors.ValidationErrors{}
	var plan entities.Plan
	var status entities.PaymentStatus

	if blank(in.Plan) && blank(in.Status) {
		verrs.Add("plan", "plan or status is required")
	}
	if !blank(in.Plan) {
		tier, ok := entities.ParseSubscriptionTier(in.Plan)
		if ok {
			plan, _ = entities.PlanFor(tier)
		} else {
			verrs.Add("plan", "must be Basic, Premium or Enterprise")
		}
	}
	if !blank(in.Status) {
		st, ok := entities.ParsePaymentStatus(in.Status)
		if ok {
			status = st
		} else {
			verrs.Add("status", "must be Paid, Pending or Overdue")
		}
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if plan.Tier != "" && plan.Tier != payment.Plan {
		payment.Plan = plan.Tier
		payment.Amount = plan.Price
		changes["plan"] = string(plan.Tier)
	}
	if status != "" && status != payment.Status {
		payment.Status = status
		changes["status"] = string(status)
	}
	if len(changes) == 0 {
		return payment, nil
	}

	payment.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, err
	}
	if _, ok := changes["plan"]; ok {
		s.syncStorePlan(ctx, payment)
	}

	publish(ctx, s.events, entities.AdminEventPaymentUpdated, payment.ID, changes)
	return payment, nil
}

func (s *PaymentService) syncStorePlan(ctx context.Context, payment *entities.Payment) {
	if s.stores == nil || payment.StoreID == "" {
		return
	}
	store, err := s.stores.GetByID(ctx, payment.StoreID)
	if err != nil {
		log.Warn().Err(err).Str("store_id", payment.StoreID).Msg("failed to load store for plan change")
		return
	}
	store.Subscription = payment.Plan
	store.NVR.LoginPassword = ""
	store.UpdatedAt = payment.UpdatedAt
	if err := s.stores.Update(ctx, store); err != nil {
		log.Warn().Err(err).Str("store_id", payment.StoreID).Msg("failed to mirror plan change onto store")
		return
	}
	publish(ctx, s.events, entities.AdminEventStoreUpdated, store.ID, map[string]interface{}{"subscription": string(store.Subscription)})
}

// SendReminder emails the store contact about an unpaid invoice
func (s *PaymentService) SendReminder(ctx context.Context, id string) error {
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if payment.Status == entities.PaymentStatusPaid {
		return apperrors.NewConflictError(fmt.Sprintf("payment %s is already paid", id))
	}
	if payment.StoreID == "" || s.stores == nil {
		return apperrors.NewConflictError(fmt.Sprintf("payment %s has no store to remind", id))
	}
	store, err := s.stores.GetByID(ctx, payment.StoreID)
	if err != nil {
		return err
	}
	if s.sender == nil {
		return apperrors.NewExternalError("no reminder channel configured", fmt.Errorf("reply sender is nil"))
	}

	msg := providers.ReplyMessage{
		To:      store.ContactEmail,
		Subject: fmt.Sprintf("Payment reminder: %s subscription", payment.Plan),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour %s subscription payment of %s is %s and was due on %s.\nPlease settle it at your earliest convenience.\n",
			store.Name, payment.Plan, payment.Amount, strings.ToLower(string(payment.Status)), payment.DueDate.Format("January 2, 2006"),
		),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return apperrors.NewExternalError("failed to send payment reminder", err)
	}

	log.Info().Str("payment_id", id).Str("to", store.ContactEmail).Msg("payment reminder sent")
	return nil
}
