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
	"github.com/zatekoja/storeguard/pkg/filter"
)

// storeAlertLimit is how many alerts the store detail view shows
const storeAlertLimit = 5

// NVRInput carries the NVR connection fields of a store form
type NVRInput struct {
	LoginEmail    string `json:"login_email"`
	LoginPassword string `json:"login_password"`
	RTSPURL       string `json:"rtsp_url"`
	Port          int    `json:"port"`
}

// CameraInput is one camera row of a store form. An empty ID adds a camera.
type CameraInput struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	StreamType string `json:"stream_type"`
	Location   string `json:"location"`
	Status     string `json:"status,omitempty"`
}

// StoreInput is the create and edit store form. Status and Subscription
// are optional; a new store defaults to Active on the Basic plan.
type StoreInput struct {
	Name         string        `json:"name"`
	Location     string        `json:"location"`
	ContactEmail string        `json:"contact_email"`
	ContactPhone string        `json:"contact_phone"`
	Type         string        `json:"type"`
	Status       string        `json:"status,omitempty"`
	Subscription string        `json:"subscription,omitempty"`
	Method       string        `json:"payment_method,omitempty"`
	CameraCount  int           `json:"camera_count"`
	NVR          NVRInput      `json:"nvr"`
	Cameras      []CameraInput `json:"cameras"`
}

// StoreView is a store as the list and detail pages show it
type StoreView struct {
	*entities.Store
	TypeLabel    string `json:"type_label"`
	LastActivity string `json:"last_activity"`
}

// StoreDetail is a store with its latest alerts
type StoreDetail struct {
	StoreView
	RecentAlerts []*entities.Alert `json:"recent_alerts"`
}

// StoreService handles business logic for stores
type StoreService struct {
	repo       repositories.StoreRepository
	payments   repositories.PaymentRepository
	alerts     repositories.AlertRepository
	searchRepo repositories.StoreSearchRepository
	events     providers.EventBus
	now        func() time.Time
}

// NewStoreService creates a new store service. searchRepo and events may be nil.
func NewStoreService(
	repo repositories.StoreRepository,
	payments repositories.PaymentRepository,
	alerts repositories.AlertRepository,
	searchRepo repositories.StoreSearchRepository,
	events providers.EventBus,
) *StoreService {
	return &StoreService{
		repo:       repo,
		payments:   payments,
		alerts:     alerts,
		searchRepo: searchRepo,
		events:     events,
		now:        time.Now,
	}
}

func (s *StoreService) view(store *entities.Store, now time.Time) StoreView {
	return StoreView{Store: store, TypeLabel: store.TypeLabel(), LastActivity: lastActivity(store, now)}
}

func lastActivity(store *entities.Store, now time.Time) string {
	if store.LastActivityAt == nil {
		return "never"
	}
	return entities.HumanizeSince(*store.LastActivityAt, now)
}

// List retrieves stores. A search term goes to the full-text index when one
// is configured, otherwise to the repository.
func (s *StoreService) List(ctx context.Context, filter repositories.StoreFilter) (*Page[StoreView], error) {
	stores, total, err := s.list(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]StoreView, 0, len(stores))
	for _, st := range stores {
		items = append(items, s.view(st, now))
	}
	return &Page[StoreView]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *StoreService) list(ctx context.Context, f repositories.StoreFilter) ([]*entities.Store, int, error) {
	if s.searchRepo != nil && !blank(f.Search) {
		ids, total, err := s.searchRepo.Search(ctx, f)
		if err == nil {
			stores, err := s.repo.GetByIDs(ctx, ids)
			if err != nil {
				return nil, 0, err
			}
			// the index must agree with the repository's substring match
			if len(filter.Apply(stores, storeSearch(f.Search))) == len(stores) {
				return stores, total, nil
			}
			log.Warn().Str("search", f.Search).Msg("store search index returned non-matching stores, falling back to repository")
		} else {
			log.Warn().Err(err).Str("search", f.Search).Msg("store search index unavailable, falling back to repository")
		}
	}
	return s.repo.List(ctx, f)
}

// storeSearch is the free-text predicate of the store list
func storeSearch(term string) filter.Predicate[*entities.Store] {
	return filter.Search(term,
		func(s *entities.Store) string { return s.Name },
		func(s *entities.Store) string { return s.Location },
		func(s *entities.Store) string { return s.Type.Label() },
	)
}

// Get retrieves a store with its cameras and recent alerts
func (s *StoreService) Get(ctx context.Context, id string) (*StoreDetail, error) {
	store, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &StoreDetail{StoreView: s.view(store, s.now()), RecentAlerts: []*entities.Alert{}}
	if s.alerts != nil {
		alerts, err := s.alerts.ListByStore(ctx, id, storeAlertLimit)
		if err != nil {
			return nil, err
		}
		detail.RecentAlerts = alerts
	}
	return detail, nil
}

// Create validates the form, stores it, and opens the store's billing record
func (s *StoreService) Create(ctx context.Context, in StoreInput) (*entities.Store, error) {
	now := s.now().UTC()
	store := &entities.Store{
		ID:           uuid.NewString(),
		Status:       entities.StoreStatusActive,
		Subscription: entities.TierBasic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	method := entities.PaymentMethodCreditCard

	verrs := apperrors.ValidationErrors{}
	if in.NVR.LoginPassword == "" {
		verrs.Add("nvr.login_password", "is required")
	}
	if in.Subscription != "" {
		if tier, ok := entities.ParseSubscriptionTier(in.Subscription); ok {
			store.Subscription = tier
		} else {
			verrs.Add("subscription", "must be Basic, Premium or Enterprise")
		}
	}
	if in.Method != "" {
		if m, ok := entities.ParsePaymentMethod(in.Method); ok {
			method = m
		} else {
			verrs.Add("payment_method", "must be Credit Card, Bank Transfer or PayPal")
		}
	}
	applyStoreInput(store, in, nil, now, verrs)
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, store); err != nil {
		return nil, err
	}
	s.openBilling(ctx, store, method, now)
	s.index(ctx, store)
	publish(ctx, s.events, entities.AdminEventStoreCreated, store.ID, map[string]interface{}{"name": store.Name})

	return store, nil
}

// openBilling creates the pending first invoice of a new store
func (s *StoreService) openBilling(ctx context.Context, store *entities.Store, method entities.PaymentMethod, now time.Time) {
	if s.payments == nil {
		return
	}
	plan, _ := entities.PlanFor(store.Subscription)
	payment := &entities.Payment{
		ID:        uuid.NewString(),
		StoreID:   store.ID,
		StoreName: store.Name,
		Plan:      store.Subscription,
		Amount:    plan.Price,
		Status:    entities.PaymentStatusPending,
		DueDate:   now.AddDate(0, 1, 0),
		Method:    method,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		log.Error().Err(err).Str("store_id", store.ID).Msg("failed to open billing record for new store")
	}
}

// Update applies the edit form. An empty password keeps the current one and
// the subscription is left to the payments flow.
func (s *StoreService) Update(ctx context.Context, id string, in StoreInput) (*entities.Store, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updated := existing.Clone()
	updated.UpdatedAt = now

	verrs := apperrors.ValidationErrors{}
	if in.Subscription != "" && !strings.EqualFold(in.Subscription, string(existing.Subscription)) {
		verrs.Add("subscription", "is changed through the payment subscription endpoint")
	}
	applyStoreInput(updated, in, existing.Cameras, now, verrs)
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}
	s.index(ctx, updated)
	publish(ctx, s.events, entities.AdminEventStoreUpdated, id, storeChanges(existing, updated))

	return updated, nil
}

// Delete removes a store. Its payments and feedback stay on record.
func (s *StoreService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.searchRepo != nil {
		if err := s.searchRepo.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Str("store_id", id).Msg("failed to delete store from index")
		}
	}
	publish(ctx, s.events, entities.AdminEventStoreDeleted, id, nil)
	return nil
}

// AddCamera appends a camera to a store
func (s *StoreService) AddCamera(ctx context.Context, storeID string, in CameraInput) (*entities.Camera, error) {
	store, err := s.repo.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	verrs := apperrors.ValidationErrors{}
	in.ID = ""
	camera := buildCamera(storeID, in, nil, now, "camera", verrs)
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	store.Cameras = append(store.Cameras, camera)
	if store.CameraCount < len(store.Cameras) {
		store.CameraCount = len(store.Cameras)
	}
	store.NVR.LoginPassword = ""
	store.UpdatedAt = now
	if err := s.repo.Update(ctx, store); err != nil {
		return nil, err
	}
	s.index(ctx, store)
	publish(ctx, s.events, entities.AdminEventStoreUpdated, storeID, map[string]interface{}{"camera_added": camera.ID})
	return &camera, nil
}

// RemoveCamera detaches a camera from a store
func (s *StoreService) RemoveCamera(ctx context.Context, storeID, cameraID string) error {
	store, err := s.repo.GetByID(ctx, storeID)
	if err != nil {
		return err
	}

	kept := store.Cameras[:0]
	for _, c := range store.Cameras {
		if c.ID != cameraID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(store.Cameras) {
		return apperrors.NewNotFoundError(fmt.Sprintf("camera %s not found on store %s", cameraID, storeID))
	}
	store.Cameras = kept
	store.NVR.LoginPassword = ""
	store.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, store); err != nil {
		return err
	}
	s.index(ctx, store)
	publish(ctx, s.events, entities.AdminEventStoreUpdated, storeID, map[string]interface{}{"camera_removed": cameraID})
	return nil
}

func (s *StoreService) index(ctx context.Context, store *entities.Store) {
	if s.searchRepo == nil {
		return
	}
	if err := s.searchRepo.Index(ctx, store); err != nil {
		log.Warn().Err(err).Str("store_id", store.ID).Msg("failed to index store")
	}
}

// applyStoreInput validates in and copies it onto store. Cameras whose ID
// matches one in current keep their status and creation time.
func applyStoreInput(store *entities.Store, in StoreInput, current []entities.Camera, now time.Time, verrs apperrors.ValidationErrors) {
	store.Name = strings.TrimSpace(in.Name)
	store.Location = strings.TrimSpace(in.Location)
	store.ContactEmail = strings.TrimSpace(in.ContactEmail)
	store.ContactPhone = strings.TrimSpace(in.ContactPhone)

	if store.Name == "" {
		verrs.Add("name", "is required")
	}
	if store.Location == "" {
		verrs.Add("location", "is required")
	}
	if !validEmail(store.ContactEmail) {
		verrs.Add("contact_email", "must be a valid email address")
	}
	if store.ContactPhone == "" {
		verrs.Add("contact_phone", "is required")
	}

	if t, ok := entities.ParseStoreType(in.Type); ok {
		store.Type = t
	} else {
		verrs.Add("type", "must be one of electronics, jewelry, retail, grocery, mall, pharmacy, other")
	}
	if in.Status != "" {
		if st, ok := entities.ParseStoreStatus(in.Status); ok {
			store.Status = st
		} else {
			verrs.Add("status", "must be Active or Inactive")
		}
	}

	nvrEmail := strings.TrimSpace(in.NVR.LoginEmail)
	if !validEmail(nvrEmail) {
		verrs.Add("nvr.login_email", "must be a valid email address")
	}
	rtsp := strings.TrimSpace(in.NVR.RTSPURL)
	if !validStreamURL(rtsp) {
		verrs.Add("nvr.rtsp_url", "must be an rtsp://, http:// or rtmp:// URL")
	}
	if in.NVR.Port < 1 || in.NVR.Port > 65535 {
		verrs.Add("nvr.port", "must be between 1 and 65535")
	}
	store.NVR = entities.NVRConnection{
		LoginEmail:    nvrEmail,
		LoginPassword: in.NVR.LoginPassword,
		RTSPURL:       rtsp,
		Port:          in.NVR.Port,
	}

	if in.CameraCount < 1 {
		verrs.Add("camera_count", "must be at least 1")
	}

	byID := make(map[string]entities.Camera, len(current))
	for _, c := range current {
		byID[c.ID] = c
	}
	cameras := make([]entities.Camera, 0, len(in.Cameras))
	for i, ci := range in.Cameras {
		var prev *entities.Camera
		if c, ok := byID[ci.ID]; ok && ci.ID != "" {
			prev = &c
		}
		cameras = append(cameras, buildCamera(store.ID, ci, prev, now, fmt.Sprintf("cameras[%d]", i), verrs))
	}
	store.Cameras = cameras

	store.CameraCount = in.CameraCount
	if len(cameras) > store.CameraCount {
		store.CameraCount = len(cameras)
	}
}

func buildCamera(storeID string, in CameraInput, prev *entities.Camera, now time.Time, field string, verrs apperrors.ValidationErrors) entities.Camera {
	c := entities.Camera{
		ID:        uuid.NewString(),
		StoreID:   storeID,
		Name:      strings.TrimSpace(in.Name),
		Location:  strings.TrimSpace(in.Location),
		Status:    entities.CameraStatusOnline,
		CreatedAt: now,
	}
	if prev != nil {
		c.ID = prev.ID
		c.Status = prev.Status
		c.CreatedAt = prev.CreatedAt
	}

	if c.Name == "" {
		verrs.Add(field+".name", "is required")
	}
	if st, ok := entities.ParseStreamType(in.StreamType); ok {
		c.StreamType = st
	} else {
		verrs.Add(field+".stream_type", "must be rtsp, http or rtmp")
	}
	switch strings.ToLower(strings.TrimSpace(in.Status)) {
	case "":
	case "online":
		c.Status = entities.CameraStatusOnline
	case "offline":
		c.Status = entities.CameraStatusOffline
	default:
		verrs.Add(field+".status", "must be Online or Offline")
	}
	return c
}

func storeChanges(before, after *entities.Store) map[string]interface{} {
	changes := map[string]interface{}{}
	if before.Name != after.Name {
		changes["name"] = after.Name
	}
	if before.Status != after.Status {
		changes["status"] = string(after.Status)
	}
	if before.Location != after.Location {
		changes["location"] = after.Location
	}
	if len(before.Cameras) != len(after.Cameras) || before.CameraCount != after.CameraCount {
		changes["camera_count"] = after.CameraCount
	}
	return changes
}
