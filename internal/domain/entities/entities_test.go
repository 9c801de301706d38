package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CloneIsDeep(t *testing.T) {
	now := time.Now()
	s := &Store{
		ID:             "s1",
		Cameras:        []Camera{{ID: "c1", Name: "Front"}},
		LastActivityAt: &now,
	}

	c := s.Clone()
	c.Cameras[0].Name = "Back"
	*c.LastActivityAt = now.Add(time.Hour)

	assert.Equal(t, "Front", s.Cameras[0].Name)
	assert.Equal(t, now, *s.LastActivityAt)
	assert.Nil(t, (*Store)(nil).Clone())
}

func TestStore_PasswordNeverSerialized(t *testing.T) {
	s := Store{ID: "s1", NVR: NVRConnection{LoginEmail: "nvr@store.com", LoginPassword: "secret", Port: 554}}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), "nvr@store.com")
}

func TestParseEnums(t *testing.T) {
	st, ok := ParseStoreType("Shopping Mall")
	assert.True(t, ok)
	assert.Equal(t, StoreTypeMall, st)
	assert.Equal(t, "Shopping Mall", StoreTypeMall.Label())

	_, ok = ParseStoreType("casino")
	assert.False(t, ok)

	fs, ok := ParseFeedbackStatus("inprogress")
	assert.True(t, ok)
	assert.Equal(t, FeedbackStatusInProgress, fs)

	fs, ok = ParseFeedbackStatus("in_progress")
	assert.True(t, ok)
	assert.Equal(t, FeedbackStatusInProgress, fs)

	pm, ok := ParsePaymentMethod("bank   transfer")
	assert.True(t, ok)
	assert.Equal(t, PaymentMethodBankTransfer, pm)

	tier, ok := ParseSubscriptionTier("ENTERPRISE")
	assert.True(t, ok)
	assert.Equal(t, TierEnterprise, tier)

	_, ok = ParseStreamType("webrtc")
	assert.False(t, ok)
}

func TestBadgeFor(t *testing.T) {
	assert.Equal(t, Badge{"Overdue", VariantDestructive}, BadgeFor(BadgePaymentStatus, "overdue"))
	assert.Equal(t, Badge{"In Progress", VariantPrimary}, BadgeFor(BadgeFeedbackStatus, "In Progress"))
	assert.Equal(t, Badge{"Enterprise", VariantAccent}, BadgeFor(BadgePlan, "Enterprise"))
	assert.Equal(t, Badge{"Gold", VariantOutline}, BadgeFor(BadgePlan, "Gold"))
	assert.Equal(t, Badge{"x", VariantOutline}, BadgeFor("unknown", "x"))

	table := BadgeTable()
	table[BadgePlan]["basic"] = Badge{"changed", VariantDefault}
	assert.Equal(t, "Basic", BadgeFor(BadgePlan, "basic").Label)
}

func TestHumanizeSince(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{30 * time.Minute, "30 minutes ago"},
		{2 * time.Hour, "2 hours ago"},
		{48 * time.Hour, "2 days ago"},
		{60 * 24 * time.Hour, "2 months ago"},
		{400 * 24 * time.Hour, "1 year ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanizeSince(now.Add(-tt.ago), now))
	}
	assert.Equal(t, "never", HumanizeSince(time.Time{}, now))
}

func TestBuildMonthlyReports(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	txns := []PaymentTransaction{
		{StoreID: "a", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: Dollars(99, 99), Status: PaymentStatusPaid},
		{StoreID: "b", Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Amount: Dollars(199, 99), Status: PaymentStatusPaid},
		{StoreID: "b", Date: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), Amount: Dollars(199, 99), Status: PaymentStatusPending},
		{StoreID: "c", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Amount: Dollars(49, 99), Status: PaymentStatusOverdue},
		{StoreID: "d", Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Amount: Dollars(49, 99), Status: PaymentStatusPaid},
	}

	reports := BuildMonthlyReports(txns, 3, now)
	require.Len(t, reports, 3)

	march := reports[0]
	assert.Equal(t, "2024-03", march.Month)
	assert.Equal(t, "March 2024", march.Label)
	assert.Equal(t, Dollars(299, 98), march.TotalRevenue)
	assert.Equal(t, 2, march.TotalStores)
	assert.Equal(t, 2, march.PaidPayments)
	assert.Equal(t, 1, march.PendingPayments)
	assert.Equal(t, Dollars(149, 99), march.AveragePayment)

	feb := reports[1]
	assert.Equal(t, "2024-02", feb.Month)
	assert.Equal(t, 1, feb.OverduePayments)
	assert.Equal(t, Money(0), feb.AveragePayment)

	assert.Equal(t, "2024-01", reports[2].Month)
	assert.Zero(t, reports[2].TotalStores)

	assert.Empty(t, BuildMonthlyReports(txns, 0, now))
}

func TestNewAdminEvent(t *testing.T) {
	e := NewAdminEvent(AdminEventStoreDeleted, "s1", nil)
	assert.NotEmpty(t, e.ID)
	assert.True(t, e.Type.IsStoreEvent())
	assert.False(t, AdminEventPaymentUpdated.IsStoreEvent())
}
