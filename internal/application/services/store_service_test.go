package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/internal/adapters/memory"
	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
)

func validStoreInput() StoreInput {
	return StoreInput{
		Name:         "Corner Pharmacy",
		Location:     "12 Elm St, Boston, MA",
		ContactEmail: "owner@corner.com",
		ContactPhone: "+1 (555) 111-2222",
		Type:         "pharmacy",
		CameraCount:  1,
		NVR: NVRInput{
			LoginEmail:    "nvr@corner.com",
			LoginPassword: "s3cret",
			RTSPURL:       "rtsp://10.0.0.5:554/stream",
			Port:          554,
		},
		Cameras: []CameraInput{
			{Name: "Front Door", StreamType: "RTSP", Location: "Entrance"},
			{Name: "Counter", StreamType: "http", Location: "Checkout", Status: "offline"},
		},
	}
}

func newStoreService(t *testing.T, search repositories.StoreSearchRepository) (*StoreService, *memory.DB, *recordingBus) {
	t.Helper()
	db := newTestDB(t)
	bus := &recordingBus{}
	svc := NewStoreService(db.Stores(), db.Payments(), db.Alerts(), search, bus)
	svc.now = fixedClock
	return svc, db, bus
}

func TestStoreService_Create(t *testing.T) {
	ctx := context.Background()
	svc, db, bus := newStoreService(t, nil)

	store, err := svc.Create(ctx, validStoreInput())
	require.NoError(t, err)

	assert.Equal(t, entities.StoreStatusActive, store.Status)
	assert.Equal(t, entities.TierBasic, store.Subscription)
	assert.Equal(t, entities.StoreTypePharmacy, store.Type)
	assert.Equal(t, 2, store.CameraCount, "declared count is raised to the camera list")
	require.Len(t, store.Cameras, 2)
	assert.Equal(t, entities.StreamTypeRTSP, store.Cameras[0].StreamType)
	assert.Equal(t, entities.CameraStatusOnline, store.Cameras[0].Status)
	assert.Equal(t, entities.CameraStatusOffline, store.Cameras[1].Status)

	stored, err := db.Stores().GetByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", stored.NVR.LoginPassword)

	payments, total, err := db.Payments().List(ctx, repositories.PaymentFilter{Search: "Corner Pharmacy"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, entities.PaymentStatusPending, payments[0].Status)
	assert.Equal(t, entities.Dollars(49, 99), payments[0].Amount)
	assert.Equal(t, testNow.AddDate(0, 1, 0), payments[0].DueDate)
	assert.Equal(t, entities.PaymentMethodCreditCard, payments[0].Method)

	assert.Equal(t, []entities.AdminEventType{entities.AdminEventStoreCreated}, bus.types())
}

func TestStoreService_CreateValidation(t *testing.T) {
	svc, _, bus := newStoreService(t, nil)

	in := validStoreInput()
	in.Name = " "
	in.ContactEmail = "not-an-email"
	in.Type = "casino"
	in.CameraCount = 0
	in.NVR.Port = 70000
	in.NVR.RTSPURL = "ftp://10.0.0.5/stream"
	in.NVR.LoginPassword = ""
	in.Cameras[1].StreamType = "webrtc"

	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	for _, field := range []string{
		"name", "contact_email", "type", "camera_count", "nvr.port",
		"nvr.rtsp_url", "nvr.login_password", "cameras[1].stream_type",
	} {
		assert.Contains(t, appErr.Fields, field)
	}
	assert.Empty(t, bus.types())
}

func TestStoreService_UpdateKeepsPasswordAndCameraState(t *testing.T) {
	ctx := context.Background()
	svc, db, bus := newStoreService(t, nil)

	existing, err := db.Stores().GetByID(ctx, downtownID)
	require.NoError(t, err)
	offline := existing.Cameras[2]
	require.Equal(t, entities.CameraStatusOffline, offline.Status)

	in := StoreInput{
		Name:         "Downtown Electronics & Repairs",
		Location:     existing.Location,
		ContactEmail: existing.ContactEmail,
		ContactPhone: existing.ContactPhone,
		Type:         "Electronics",
		CameraCount:  8,
		NVR: NVRInput{
			LoginEmail: existing.NVR.LoginEmail,
			RTSPURL:    existing.NVR.RTSPURL,
			Port:       existing.NVR.Port,
		},
		Cameras: []CameraInput{
			{ID: offline.ID, Name: offline.Name, StreamType: "rtsp", Location: offline.Location},
			{Name: "Loading Dock", StreamType: "rtmp", Location: "Rear"},
		},
	}

	updated, err := svc.Update(ctx, downtownID, in)
	require.NoError(t, err)
	require.Len(t, updated.Cameras, 2)
	assert.Equal(t, offline.ID, updated.Cameras[0].ID)
	assert.Equal(t, entities.CameraStatusOffline, updated.Cameras[0].Status)
	assert.Equal(t, offline.CreatedAt, updated.Cameras[0].CreatedAt)
	assert.NotEqual(t, offline.ID, updated.Cameras[1].ID)

	stored, err := db.Stores().GetByID(ctx, downtownID)
	require.NoError(t, err)
	assert.Equal(t, "changeme", stored.NVR.LoginPassword)

	event := bus.last()
	require.NotNil(t, event)
	assert.Equal(t, entities.AdminEventStoreUpdated, event.Type)
	assert.Equal(t, "Downtown Electronics & Repairs", event.Changes["name"])
}

func TestStoreService_UpdateRejectsSubscriptionChange(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newStoreService(t, nil)

	existing, err := db.Stores().GetByID(ctx, jewelryID)
	require.NoError(t, err)

	in := validStoreInput()
	in.Subscription = "Enterprise"
	_, err = svc.Update(ctx, jewelryID, in)
	require.Error(t, err)
	appErr, _ := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Fields, "subscription")

	in.Subscription = string(existing.Subscription)
	_, err = svc.Update(ctx, jewelryID, in)
	assert.NoError(t, err)
}

func TestStoreService_UpdateMissing(t *testing.T) {
	svc, _, _ := newStoreService(t, nil)
	_, err := svc.Update(context.Background(), "missing", validStoreInput())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStoreService_ListUsesSearchIndex(t *testing.T) {
	ctx := context.Background()
	search := &MockStoreSearch{}
	svc, _, _ := newStoreService(t, search)

	filter := repositories.StoreFilter{Search: "jewel"}
	search.On("Search", mock.Anything, filter).Return([]string{jewelryID}, 1, nil).Once()

	page, err := svc.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Jewelry Store Premium", page.Items[0].Name)
	assert.Equal(t, "Jewelry", page.Items[0].TypeLabel)
	assert.Equal(t, "1 hour ago", page.Items[0].LastActivity)
	search.AssertExpectations(t)
}

func TestStoreService_ListFallsBackWhenIndexFails(t *testing.T) {
	ctx := context.Background()
	search := &MockStoreSearch{}
	svc, _, _ := newStoreService(t, search)

	filter := repositories.StoreFilter{Search: "chicago"}
	search.On("Search", mock.Anything, filter).Return(nil, 0, errors.New("typesense down")).Once()

	page, err := svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Retail Chain Store #5", page.Items[0].Name)
}

func TestStoreService_ListRejectsLooseIndexMatches(t *testing.T) {
	ctx := context.Background()
	search := &MockStoreSearch{}
	svc, _, _ := newStoreService(t, search)

	filter := repositories.StoreFilter{Search: "jewlery"}
	search.On("Search", mock.Anything, filter).Return([]string{jewelryID}, 1, nil).Once()

	page, err := svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Items)
	search.AssertExpectations(t)
}

func TestStoreService_ListWithoutSearchSkipsIndex(t *testing.T) {
	search := &MockStoreSearch{}
	svc, _, _ := newStoreService(t, search)

	page, err := svc.List(context.Background(), repositories.StoreFilter{Status: "all"})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	search.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestStoreService_GetIncludesRecentAlerts(t *testing.T) {
	svc, _, _ := newStoreService(t, nil)

	detail, err := svc.Get(context.Background(), downtownID)
	require.NoError(t, err)
	assert.Equal(t, "2 hours ago", detail.LastActivity)
	require.NotEmpty(t, detail.RecentAlerts)
	for _, a := range detail.RecentAlerts {
		assert.Equal(t, downtownID, a.StoreID)
	}
	assert.LessOrEqual(t, len(detail.RecentAlerts), storeAlertLimit)
}

func TestStoreService_DeleteRemovesFromIndex(t *testing.T) {
	ctx := context.Background()
	search := &MockStoreSearch{}
	svc, db, bus := newStoreService(t, search)

	search.On("Delete", mock.Anything, retailID).Return(nil).Once()

	require.NoError(t, svc.Delete(ctx, retailID))
	_, err := db.Stores().GetByID(ctx, retailID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, []entities.AdminEventType{entities.AdminEventStoreDeleted}, bus.types())
	search.AssertExpectations(t)

	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, retailID)))
}

func TestStoreService_Cameras(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newStoreService(t, nil)

	camera, err := svc.AddCamera(ctx, mallID, CameraInput{Name: "Food Court", StreamType: "rtsp", Location: "Level 2"})
	require.NoError(t, err)
	assert.Equal(t, mallID, camera.StoreID)

	store, err := db.Stores().GetByID(ctx, mallID)
	require.NoError(t, err)
	assert.Len(t, store.Cameras, 3)
	assert.Equal(t, "changeme", store.NVR.LoginPassword)

	_, err = svc.AddCamera(ctx, mallID, CameraInput{StreamType: "rtsp"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	require.NoError(t, svc.RemoveCamera(ctx, mallID, camera.ID))
	store, err = db.Stores().GetByID(ctx, mallID)
	require.NoError(t, err)
	assert.Len(t, store.Cameras, 2)

	assert.True(t, apperrors.IsNotFound(svc.RemoveCamera(ctx, mallID, camera.ID)))
}

func TestStoreService_CameraChangesReindexStore(t *testing.T) {
	ctx := context.Background()
	search := &MockStoreSearch{}
	svc, _, _ := newStoreService(t, search)

	isMall := mock.MatchedBy(func(s *entities.Store) bool { return s.ID == mallID })
	search.On("Index", mock.Anything, isMall).Return(nil).Twice()

	camera, err := svc.AddCamera(ctx, mallID, CameraInput{Name: "Loading Dock", StreamType: "rtsp", Location: "Rear"})
	require.NoError(t, err)
	require.NoError(t, svc.RemoveCamera(ctx, mallID, camera.ID))

	search.AssertExpectations(t)
	search.AssertNumberOfCalls(t, "Index", 2)
}
