package database_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/internal/adapters/database"
	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	"github.com/zatekoja/storeguard/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return postgres.NewClientFromDB(mockDB), mock
}

var storeCols = []string{
	"id", "name", "location", "contact_email", "contact_phone", "store_type",
	"status", "subscription", "camera_count", "nvr_login_email", "nvr_login_password",
	"nvr_rtsp_url", "nvr_port", "last_activity_at", "created_at", "updated_at",
}

var created = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func downtownRow(rows *sqlmock.Rows) *sqlmock.Rows {
	return rows.AddRow("s1", "Downtown Electronics", "123 Main St, New York, NY", "john@downtown.com",
		"+1 (555) 123-4567", "electronics", "Active", "Premium", 8, "store@downtown.com", "secret",
		"rtsp://192.168.1.100:554/stream", 554, nil, created, created)
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestStoreAdapter_GetByID(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewStoreAdapter(client)

	mock.ExpectQuery(q(`FROM "stores" WHERE ("id" = 's1')`)).
		WillReturnRows(downtownRow(sqlmock.NewRows(storeCols)))
	mock.ExpectQuery(q(`FROM "cameras" WHERE ("store_id" = 's1') ORDER BY "position" ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "name", "stream_type", "location", "status", "created_at"}).
			AddRow("c1", "s1", "Front Entrance", "rtsp", "Main entrance", "Online", created).
			AddRow("c2", "s1", "Storage Room", "rtsp", "Back storage", "Offline", created))

	store, err := adapter.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Downtown Electronics", store.Name)
	assert.Equal(t, entities.StoreTypeElectronics, store.Type)
	assert.Equal(t, "secret", store.NVR.LoginPassword)
	assert.Nil(t, store.LastActivityAt)
	require.Len(t, store.Cameras, 2)
	assert.Equal(t, entities.CameraStatusOffline, store.Cameras[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAdapter_GetByIDNotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewStoreAdapter(client)

	mock.ExpectQuery(q(`FROM "stores"`)).WillReturnRows(sqlmock.NewRows(storeCols))

	_, err := adapter.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStoreAdapter_CreateWritesCamerasInTransaction(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewStoreAdapter(client)

	store := &entities.Store{
		ID: "s1", Name: "Downtown Electronics", Type: entities.StoreTypeElectronics,
		Status: entities.StoreStatusActive, Subscription: entities.TierPremium, CreatedAt: created, UpdatedAt: created,
		Cameras: []entities.Camera{{ID: "c1", Name: "Front", StreamType: entities.StreamTypeRTSP}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO "stores"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`INSERT INTO "cameras"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, adapter.Create(context.Background(), store))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAdapter_CreateRollsBackOnCameraFailure(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewStoreAdapter(client)

	store := &entities.Store{ID: "s1", Cameras: []entities.Camera{{ID: "c1"}}}

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO "stores"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`INSERT INTO "cameras"`)).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := adapter.Create(context.Background(), store)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAdapter_UpdateMissingStore(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewStoreAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE "stores"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := adapter.Update(context.Background(), &entities.Store{ID: "missing"})
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAdapter_UpdateReplacesCamerasAndRenamesPayments(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewStoreAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "stores" SET .*WHERE \("id" = 's1'\)`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`DELETE FROM "cameras" WHERE ("store_id" = 's1')`)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(q(`UPDATE "payments" SET "store_name"='Renamed' WHERE ("store_id" = 's1')`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := adapter.Update(context.Background(), &entities.Store{ID: "s1", Name: "Renamed"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAdapter_ListPushesFiltersToSQL(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewStoreAdapter(client)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "stores" WHERE .*ILIKE '%chicago%'.*LOWER\(REPLACE\("status", ' ', ''\)\) = 'inactive'`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT .* FROM "stores" WHERE .* ORDER BY "created_at" ASC, "id" ASC LIMIT 1 OFFSET 2`).
		WillReturnRows(downtownRow(sqlmock.NewRows(storeCols)))

	stores, total, err := adapter.List(context.Background(), repositories.StoreFilter{
		Search: "chicago", Status: "Inactive", Type: "all", Limit: 1, Offset: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, stores, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAdapter_ListSearchesTypeLabel(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewStoreAdapter(client)

	mock.ExpectQuery(q(`WHEN 'mall' THEN 'Shopping Mall'`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(q(`FROM "stores"`)).WillReturnRows(sqlmock.NewRows(storeCols))

	stores, total, err := adapter.List(context.Background(), repositories.StoreFilter{Search: "shopping"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, stores)
}

func TestStoreAdapter_DeleteMissing(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewStoreAdapter(client)

	mock.ExpectExec(q(`DELETE FROM "stores" WHERE ("id" = 'nope')`)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.Delete(context.Background(), "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPaymentAdapter_MonthlySummariesFillsGaps(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewPaymentAdapter(client)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q(`FROM payment_transactions`)).
		WithArgs(time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"month", "total_revenue", "total_stores", "paid_payments", "pending_payments", "overdue_payments"}).
			AddRow("2024-01", int64(244996), 24, 18, 4, 2))

	reports, err := adapter.MonthlySummaries(context.Background(), 3, now)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, "January 2024", reports[0].Label)
	assert.Equal(t, "$2,449.96", reports[0].TotalRevenue.String())
	assert.Equal(t, "$136.10", reports[0].AveragePayment.String())
	assert.Equal(t, "2023-12", reports[1].Month)
	assert.Zero(t, reports[1].PaidPayments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentAdapter_ListHistory(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewPaymentAdapter(client)

	mock.ExpectQuery(`FROM "payment_transactions" WHERE \(\("store_id" = 's1'\).*ORDER BY "transaction_date" DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id", "store_id", "store_name", "transaction_date", "amount_cents", "plan", "status", "method", "transaction_ref"}).
			AddRow("t1", "p1", "s1", "Downtown Electronics", created, int64(9999), "Premium", "Paid", "Credit Card", "TXN-001234"))

	history, err := adapter.ListHistory(context.Background(), repositories.HistoryFilter{StoreID: "s1", From: created.AddDate(0, -1, 0)})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entities.Dollars(99, 99), history[0].Amount)
	assert.Equal(t, "TXN-001234", history[0].TransactionID)
}

func TestPaymentAdapter_UpdateMissing(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewPaymentAdapter(client)

	mock.ExpectExec(q(`UPDATE "payments"`)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.Update(context.Background(), &entities.Payment{ID: "missing"})
	assert.True(t, apperrors.IsNotFound(err))
}

func paidPayment() (*entities.Payment, *entities.PaymentTransaction) {
	payment := &entities.Payment{
		ID: "p1", StoreID: "s1", StoreName: "Downtown Electronics", Plan: entities.TierPremium,
		Amount: entities.Dollars(99, 99), Status: entities.PaymentStatusPaid, TransactionID: "TXN-001234",
		DueDate: created.AddDate(0, 1, 0), CreatedAt: created, UpdatedAt: created,
	}
	txn := &entities.PaymentTransaction{
		ID: "t1", PaymentID: "p1", StoreID: "s1", StoreName: "Downtown Electronics", Date: created,
		Amount: payment.Amount, Plan: payment.Plan, Status: entities.PaymentStatusPaid, TransactionID: "TXN-001234",
	}
	return payment, txn
}

func TestPaymentAdapter_MarkPaidCommitsBothWrites(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewPaymentAdapter(client)
	payment, txn := paidPayment()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET .*WHERE \(\("id" = 'p1'\) AND \("status" != 'Paid'\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`INSERT INTO "payment_transactions"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, adapter.MarkPaid(context.Background(), payment, txn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentAdapter_MarkPaidRollsBackWhenHistoryInsertFails(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewPaymentAdapter(client)
	payment, txn := paidPayment()

	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE "payments"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`INSERT INTO "payment_transactions"`)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := adapter.MarkPaid(context.Background(), payment, txn)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentAdapter_MarkPaidAlreadyPaid(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewPaymentAdapter(client)
	payment, txn := paidPayment()

	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE "payments"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := adapter.MarkPaid(context.Background(), payment, txn)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackAdapter_CountByStatusIncludesEmptyStatuses(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewFeedbackAdapter(client)

	mock.ExpectQuery(q(`GROUP BY "status"`)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("Unresolved", 2).AddRow("Resolved", 1))

	counts, err := adapter.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[entities.FeedbackStatus]int{
		entities.FeedbackStatusUnresolved: 2,
		entities.FeedbackStatusInProgress: 0,
		entities.FeedbackStatusResolved:   1,
	}, counts)
}

func TestFeedbackAdapter_ListNormalizesStatus(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewFeedbackAdapter(client)

	mock.ExpectQuery(q(`LOWER(REPLACE("status", ' ', '')) = 'inprogress'`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(q(`ORDER BY "submitted_at" DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, total, err := adapter.List(context.Background(), repositories.FeedbackFilter{Status: "In Progress"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestFeedbackAdapter_UpdateStatusMissing(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewFeedbackAdapter(client)

	mock.ExpectExec(q(`UPDATE "feedback"`)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.UpdateStatus(context.Background(), &entities.Feedback{ID: "missing", Status: entities.FeedbackStatusResolved})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAlertAdapter_CountBySeverity(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewAlertAdapter(client)

	mock.ExpectQuery(q(`GROUP BY "severity"`)).
		WillReturnRows(sqlmock.NewRows([]string{"severity", "count"}).AddRow("Critical", 2).AddRow("Low", 5))

	counts, err := adapter.CountBySeverity(context.Background(), created)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[entities.SeverityCritical])
	assert.Equal(t, 5, counts[entities.SeverityLow])
}
