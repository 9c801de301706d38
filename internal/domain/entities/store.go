package entities

import (
	"strings"
	"time"
)

// StoreStatus is the operational state of a monitored store
type StoreStatus string

const (
	StoreStatusActive   StoreStatus = "Active"
	StoreStatusInactive StoreStatus = "Inactive"
)

// StoreType classifies the business the store runs
type StoreType string

const (
	StoreTypeElectronics StoreType = "electronics"
	StoreTypeJewelry     StoreType = "jewelry"
	StoreTypeRetail      StoreType = "retail"
	StoreTypeGrocery     StoreType = "grocery"
	StoreTypeMall        StoreType = "mall"
	StoreTypePharmacy    StoreType = "pharmacy"
	StoreTypeOther       StoreType = "other"
)

var storeTypeLabels = map[StoreType]string{
	StoreTypeElectronics: "Electronics",
	StoreTypeJewelry:     "Jewelry",
	StoreTypeRetail:      "Retail",
	StoreTypeGrocery:     "Grocery",
	StoreTypeMall:        "Shopping Mall",
	StoreTypePharmacy:    "Pharmacy",
	StoreTypeOther:       "Other",
}

// StoreTypes lists every store type in display order
func StoreTypes() []StoreType {
	return []StoreType{
		StoreTypeElectronics, StoreTypeJewelry, StoreTypeRetail, StoreTypeGrocery,
		StoreTypeMall, StoreTypePharmacy, StoreTypeOther,
	}
}

// Label returns the display name used in tables and search
func (t StoreType) Label() string {
	if label, ok := storeTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// SubscriptionTier is the plan a store is billed for
type SubscriptionTier string

const (
	TierBasic      SubscriptionTier = "Basic"
	TierPremium    SubscriptionTier = "Premium"
	TierEnterprise SubscriptionTier = "Enterprise"
)

// StreamType is the protocol a camera stream is pulled over
type StreamType string

const (
	StreamTypeRTSP StreamType = "rtsp"
	StreamTypeHTTP StreamType = "http"
	StreamTypeRTMP StreamType = "rtmp"
)

// CameraStatus reports whether the NVR currently sees a camera
type CameraStatus string

const (
	CameraStatusOnline  CameraStatus = "Online"
	CameraStatusOffline CameraStatus = "Offline"
)

// NVRConnection holds the network video recorder login and stream endpoint.
// The password is accepted on writes but never serialized.
type NVRConnection struct {
	LoginEmail    string `json:"login_email" db:"nvr_login_email"`
	LoginPassword string `json:"-" db:"nvr_login_password"`
	RTSPURL       string `json:"rtsp_url" db:"nvr_rtsp_url"`
	Port          int    `json:"port" db:"nvr_port"`
}

// Camera is a single camera attached to a store's NVR
type Camera struct {
	ID         string       `json:"id" db:"id"`
	StoreID    string       `json:"store_id" db:"store_id"`
	Name       string       `json:"name" db:"name"`
	StreamType StreamType   `json:"stream_type" db:"stream_type"`
	Location   string       `json:"location" db:"location"`
	Status     CameraStatus `json:"status" db:"status"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// Store represents a monitored store
type Store struct {
	ID             string           `json:"id" db:"id"`
	Name           string           `json:"name" db:"name"`
	Location       string           `json:"location" db:"location"`
	ContactEmail   string           `json:"contact_email" db:"contact_email"`
	ContactPhone   string           `json:"contact_phone" db:"contact_phone"`
	Type           StoreType        `json:"type" db:"store_type"`
	Status         StoreStatus      `json:"status" db:"status"`
	Subscription   SubscriptionTier `json:"subscription" db:"subscription"`
	CameraCount    int              `json:"camera_count" db:"camera_count"`
	NVR            NVRConnection    `json:"nvr"`
	Cameras        []Camera         `json:"cameras,omitempty"`
	LastActivityAt *time.Time       `json:"last_activity_at,omitempty" db:"last_activity_at"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// TypeLabel is the human readable store type
func (s *Store) TypeLabel() string {
	return s.Type.Label()
}

// IsActive reports whether the store is in the Active state
func (s *Store) IsActive() bool {
	return s.Status == StoreStatusActive
}

// Clone returns a deep copy so that callers can never reach shared state
func (s *Store) Clone() *Store {
	if s == nil {
		return nil
	}
	out := *s
	if s.Cameras != nil {
		out.Cameras = append([]Camera(nil), s.Cameras...)
	}
	if s.LastActivityAt != nil {
		t := *s.LastActivityAt
		out.LastActivityAt = &t
	}
	return &out
}

// ParseStoreStatus accepts any casing of a store status
func ParseStoreStatus(value string) (StoreStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "active":
		return StoreStatusActive, true
	case "inactive":
		return StoreStatusInactive, true
	}
	return "", false
}

// ParseStoreType accepts a type code or its display label
func ParseStoreType(value string) (StoreType, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	for t, label := range storeTypeLabels {
		if v == string(t) || v == strings.ToLower(label) {
			return t, true
		}
	}
	return "", false
}

// ParseSubscriptionTier accepts any casing of a tier name
func ParseSubscriptionTier(value string) (SubscriptionTier, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "basic":
		return TierBasic, true
	case "premium":
		return TierPremium, true
	case "enterprise":
		return TierEnterprise, true
	}
	return "", false
}

// ParseStreamType accepts any casing of a stream protocol
func ParseStreamType(value string) (StreamType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "rtsp":
		return StreamTypeRTSP, true
	case "http":
		return StreamTypeHTTP, true
	case "rtmp":
		return StreamTypeRTMP, true
	}
	return "", false
}
