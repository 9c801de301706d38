package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/internal/adapters/memory"
	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	"github.com/zatekoja/storeguard/internal/seed"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
)

var (
	downtownPaymentID = seed.StableID("payment", "downtown-electronics")
	retailPaymentID   = seed.StableID("payment", "retail-chain-store-5")
	jewelryPaymentID  = seed.StableID("payment", "jewelry-store-premium")
)

func newPaymentService(t *testing.T) (*PaymentService, *memory.DB, *recordingBus, *recordingSender) {
	t.Helper()
	db := newTestDB(t)
	bus := &recordingBus{}
	sender := &recordingSender{}
	svc := NewPaymentService(db.Payments(), db.Stores(), sender, bus)
	svc.now = fixedClock
	return svc, db, bus, sender
}

func TestPaymentService_MarkPaid(t *testing.T) {
	ctx := context.Background()
	svc, db, bus, _ := newPaymentService(t)

	before, err := db.Payments().GetByID(ctx, retailPaymentID)
	require.NoError(t, err)
	require.Equal(t, entities.PaymentStatusOverdue, before.Status)
	history, err := db.Payments().ListHistory(ctx, repositories.HistoryFilter{StoreID: retailID})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(ctx, retailPaymentID, MarkPaidInput{Method: "bank transfer"})
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusPaid, paid.Status)
	assert.Equal(t, entities.PaymentMethodBankTransfer, paid.Method)
	require.NotNil(t, paid.LastPaymentDate)
	assert.Equal(t, testNow, *paid.LastPaymentDate)
	assert.Equal(t, before.DueDate.AddDate(0, 1, 0), paid.DueDate)
	assert.True(t, strings.HasPrefix(paid.TransactionID, "TXN-"))
	assert.Len(t, paid.TransactionID, 14)

	after, err := db.Payments().ListHistory(ctx, repositories.HistoryFilter{StoreID: retailID})
	require.NoError(t, err)
	require.Len(t, after, len(history)+1)
	assert.Equal(t, paid.TransactionID, after[0].TransactionID)
	assert.Equal(t, entities.Dollars(49, 99), after[0].Amount)

	event := bus.last()
	require.NotNil(t, event)
	assert.Equal(t, entities.AdminEventPaymentUpdated, event.Type)
	assert.Equal(t, retailPaymentID, event.EntityID)

	_, err = svc.MarkPaid(ctx, retailPaymentID, MarkPaidInput{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
}

func TestPaymentService_MarkPaidRejectsUnknownMethod(t *testing.T) {
	svc, _, _, _ := newPaymentService(t)
	_, err := svc.MarkPaid(context.Background(), jewelryPaymentID, MarkPaidInput{Method: "cash"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestPaymentService_UpdateSubscriptionRepricesAndSyncsStore(t *testing.T) {
	ctx := context.Background()
	svc, db, bus, _ := newPaymentService(t)

	updated, err := svc.UpdateSubscription(ctx, downtownPaymentID, SubscriptionInput{Plan: "enterprise"})
	require.NoError(t, err)
	assert.Equal(t, entities.TierEnterprise, updated.Plan)
	assert.Equal(t, entities.Dollars(199, 99), updated.Amount)

	store, err := db.Stores().GetByID(ctx, downtownID)
	require.NoError(t, err)
	assert.Equal(t, entities.TierEnterprise, store.Subscription)
	assert.Equal(t, "changeme", store.NVR.LoginPassword)

	assert.Equal(t, []entities.AdminEventType{
		entities.AdminEventStoreUpdated,
		entities.AdminEventPaymentUpdated,
	}, bus.types())
}

func TestPaymentService_UpdateSubscriptionStatusOnly(t *testing.T) {
	ctx := context.Background()
	svc, db, bus, _ := newPaymentService(t)

	updated, err := svc.UpdateSubscription(ctx, jewelryPaymentID, SubscriptionInput{Status: "overdue"})
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusOverdue, updated.Status)
	assert.Equal(t, entities.Dollars(99, 99), updated.Amount)

	store, err := db.Stores().GetByID(ctx, jewelryID)
	require.NoError(t, err)
	assert.Equal(t, entities.TierPremium, store.Subscription)
	assert.Equal(t, []entities.AdminEventType{entities.AdminEventPaymentUpdated}, bus.types())
}

func TestPaymentService_UpdateSubscriptionNoChange(t *testing.T) {
	svc, _, bus, _ := newPaymentService(t)

	_, err := svc.UpdateSubscription(context.Background(), jewelryPaymentID, SubscriptionInput{Plan: "Premium", Status: "Pending"})
	require.NoError(t, err)
	assert.Empty(t, bus.types())
}

func TestPaymentService_UpdateSubscriptionValidation(t *testing.T) {
	svc, _, _, _ := newPaymentService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    SubscriptionInput
		field string
	}{
		{name: "empty", in: SubscriptionInput{}, field: "plan"},
		{name: "unknown plan", in: SubscriptionInput{Plan: "Gold"}, field: "plan"},
		{name: "unknown status", in: SubscriptionInput{Status: "Refunded"}, field: "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateSubscription(ctx, jewelryPaymentID, tt.in)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}

	_, err := svc.UpdateSubscription(ctx, "missing", SubscriptionInput{Plan: "Basic"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPaymentService_SendReminder(t *testing.T) {
	ctx := context.Background()
	svc, _, _, sender := newPaymentService(t)

	require.NoError(t, svc.SendReminder(ctx, jewelryPaymentID))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "owner@jewelry.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "Premium")
	assert.Contains(t, sender.sent[0].Body, "$99.99")

	err := svc.SendReminder(ctx, downtownPaymentID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict), "paid invoices need no reminder")

	sender.err = errors.New("smtp down")
	err = svc.SendReminder(ctx, retailPaymentID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestPaymentService_ListAndPlans(t *testing.T) {
	svc, _, _, _ := newPaymentService(t)

	page, err := svc.List(context.Background(), repositories.PaymentFilter{Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	plans := svc.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, entities.TierBasic, plans[0].Tier)
}
